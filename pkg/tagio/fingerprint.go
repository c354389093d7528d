package tagio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/tagio/mp4tag"
	"github.com/pacmirror/pac/pkg/tagio/opustag"
)

// ErrUnsupportedContainer is returned for a destination extension neither
// MP4/M4A nor Opus handles.
var ErrUnsupportedContainer = fmt.Errorf("tagio: unsupported destination container")

func dispatchExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// ReadFingerprint dispatches to mp4tag or opustag by destination
// extension, returning a zero Fingerprint (no error) when the container
// has none embedded yet (§4.3's "absence is not an error" contract).
func ReadFingerprint(path string) (model.Fingerprint, error) {
	switch dispatchExt(path) {
	case ".m4a", ".mp4":
		return mp4tag.ReadFingerprint(path)
	case ".opus":
		return opustag.ReadFingerprint(path)
	default:
		return model.Fingerprint{}, ErrUnsupportedContainer
	}
}

// WriteFingerprint dispatches the five PAC_* fields to the appropriate
// container writer (§4.5.4).
func WriteFingerprint(path string, fp model.Fingerprint) error {
	switch dispatchExt(path) {
	case ".m4a", ".mp4":
		return mp4tag.WriteFingerprint(path, fp)
	case ".opus":
		return opustag.WriteFingerprint(path, fp)
	default:
		return ErrUnsupportedContainer
	}
}

// WriteStandardTags translates a TagTable into the destination's native
// tag model and writes it (§4.5.2).
func WriteStandardTags(path string, t TagTable) error {
	switch dispatchExt(path) {
	case ".m4a", ".mp4":
		return mp4tag.WriteStandardTags(path, mp4tag.StandardTags{
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			AlbumArtist: t.AlbumArtist,
			TrackNumber: t.TrackNumber,
			TrackTotal:  t.TrackTotal,
			DiscNumber:  t.DiscNumber,
			DiscTotal:   t.DiscTotal,
			Year:        t.Year,
			Genre:       t.Genre,
			Compilation: t.Compilation,
			Comment:     t.Comment,
		})
	case ".opus":
		return opustag.WriteStandardTags(path, opustag.StandardTags{
			Title:       t.Title,
			Artist:      t.Artist,
			Album:       t.Album,
			AlbumArtist: t.AlbumArtist,
			TrackNumber: t.TrackNumber,
			TrackTotal:  t.TrackTotal,
			DiscNumber:  t.DiscNumber,
			DiscTotal:   t.DiscTotal,
			Year:        t.Year,
			Genre:       t.Genre,
			Compilation: t.Compilation,
			Comment:     t.Comment,
			Extra:       t.Extra,
		})
	default:
		return ErrUnsupportedContainer
	}
}

// WriteCoverArt embeds the resolved cover art into the destination
// container (§4.5.3). A failure here is a warning to the caller, not a
// hard error, unless strict verification is enabled — the caller decides
// how to treat the returned error.
func WriteCoverArt(path string, art CoverArt, width, height int) error {
	if len(art.Data) == 0 {
		return nil
	}
	switch dispatchExt(path) {
	case ".m4a", ".mp4":
		return mp4tag.WriteCoverArt(path, art.Data)
	case ".opus":
		b64 := buildMetadataBlockPicture(art, uint32(width), uint32(height), 24)
		return opustag.WriteCoverArt(path, b64)
	default:
		return ErrUnsupportedContainer
	}
}
