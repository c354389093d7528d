// Package opustag adapts the generic Vorbis-comment read/write primitives
// in internal/oggopus to the PAC_* fingerprint shape, mirroring mp4tag's
// role for the MP4 container (§4.5.4).
package opustag

import (
	"strconv"

	"github.com/pacmirror/pac/internal/oggopus"
	"github.com/pacmirror/pac/pkg/model"
)

const (
	keySrcMD5    = "PAC_SRC_MD5"
	keyEncoder   = "PAC_ENCODER"
	keyQuality   = "PAC_QUALITY"
	keyVersion   = "PAC_VERSION"
	keySourceRel = "PAC_SOURCE_REL"
)

// ReadFingerprint extracts the five PAC_* Vorbis comments from an Opus
// file. A zero Fingerprint (no error) means the comments are absent.
func ReadFingerprint(path string) (model.Fingerprint, error) {
	tags, err := oggopus.ReadTags(path)
	if err != nil {
		return model.Fingerprint{}, err
	}
	first := func(key string) string {
		if v := tags[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return model.Fingerprint{
		SrcMD5:    first(keySrcMD5),
		Encoder:   first(keyEncoder),
		Quality:   first(keyQuality),
		Version:   first(keyVersion),
		SourceRel: first(keySourceRel),
	}, nil
}

// WriteFingerprint upserts the five PAC_* Vorbis comments, preserving every
// other existing comment (title, artist, and so on carried from the
// source's own tags, if the caller copied them in first).
func WriteFingerprint(path string, fp model.Fingerprint) error {
	return oggopus.WriteTags(path, map[string]string{
		keySrcMD5:    fp.SrcMD5,
		keyEncoder:   fp.Encoder,
		keyQuality:   fp.Quality,
		keyVersion:   fp.Version,
		keySourceRel: fp.SourceRel,
	})
}

// StandardTags is the fixed set of Vorbis comments this tool translates
// from the source's tag model (§4.5.2). Opus shares the source's own
// comment-based tag model, so translation is close to a copy; unlike MP4
// there is no closed atom set, so Extra passes through untouched.
type StandardTags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	TrackTotal  int
	DiscNumber  int
	DiscTotal   int
	Year        int
	Genre       string
	Compilation bool
	Comment     string
	Extra       map[string]string
}

// WriteStandardTags upserts the standard Vorbis comment fields plus any
// opaque Extra comments the source carried.
func WriteStandardTags(path string, t StandardTags) error {
	updates := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			updates[key] = value
		}
	}
	set("TITLE", t.Title)
	set("ARTIST", t.Artist)
	set("ALBUM", t.Album)
	set("ALBUMARTIST", t.AlbumArtist)
	set("GENRE", t.Genre)
	set("COMMENT", t.Comment)
	if t.Year != 0 {
		updates["DATE"] = strconv.Itoa(t.Year)
	}
	if t.TrackNumber != 0 {
		if t.TrackTotal != 0 {
			updates["TRACKNUMBER"] = strconv.Itoa(t.TrackNumber) + "/" + strconv.Itoa(t.TrackTotal)
		} else {
			updates["TRACKNUMBER"] = strconv.Itoa(t.TrackNumber)
		}
	}
	if t.DiscNumber != 0 {
		if t.DiscTotal != 0 {
			updates["DISCNUMBER"] = strconv.Itoa(t.DiscNumber) + "/" + strconv.Itoa(t.DiscTotal)
		} else {
			updates["DISCNUMBER"] = strconv.Itoa(t.DiscNumber)
		}
	}
	if t.Compilation {
		updates["COMPILATION"] = "1"
	}
	for k, v := range t.Extra {
		updates[k] = v
	}
	if len(updates) == 0 {
		return nil
	}
	return oggopus.WriteTags(path, updates)
}

// WriteCoverArt upserts a base64-encoded METADATA_BLOCK_PICTURE comment.
func WriteCoverArt(path, base64Picture string) error {
	return oggopus.WriteTags(path, map[string]string{"METADATA_BLOCK_PICTURE": base64Picture})
}

// ReadStandardTags reads back the title/artist/album Vorbis comments
// written by WriteStandardTags, for §4.5.8's post-encode verification.
func ReadStandardTags(path string) (StandardTags, error) {
	tags, err := oggopus.ReadTags(path)
	if err != nil {
		return StandardTags{}, err
	}
	first := func(key string) string {
		if v := tags[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return StandardTags{
		Title:  first("TITLE"),
		Artist: first("ARTIST"),
		Album:  first("ALBUM"),
	}, nil
}

// HasCoverArt reports whether the file carries a METADATA_BLOCK_PICTURE
// comment.
func HasCoverArt(path string) (bool, error) {
	tags, err := oggopus.ReadTags(path)
	if err != nil {
		return false, err
	}
	return len(tags["METADATA_BLOCK_PICTURE"]) > 0, nil
}
