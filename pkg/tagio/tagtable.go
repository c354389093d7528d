// Package tagio provides the container-agnostic tag model and dispatches
// fingerprint and standard-tag translation to the mp4tag/opustag
// sub-packages by destination extension (§4.5.2, §4.5.4).
package tagio

import "strings"

// TagTable is the internal replacement for the dynamic, duck-typed tag
// objects a container library normally hands back: a fixed set of
// semantic fields translation actually understands, plus an opaque
// passthrough for anything else the source carried. Translation between
// container flavours is a total function over the fixed fields; Extra is
// never interpreted, only carried when the target format has a place for
// arbitrary comments.
type TagTable struct {
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

	MusicBrainzTrackID  string
	MusicBrainzAlbumID  string
	MusicBrainzArtistID string

	// Extra holds source fields this table has no dedicated slot for, keyed
	// by lower-cased Vorbis-comment-style name. Carried through only to
	// Opus targets, which share the source's own comment model; MP4's
	// closed standard-atom set has no analogous passthrough slot.
	Extra map[string]string
}

// IsEmpty reports whether every semantic field is at its zero value, i.e.
// the source carried no recognizable tags at all.
func (t TagTable) IsEmpty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.AlbumArtist == "" &&
		t.TrackNumber == 0 && t.TrackTotal == 0 && t.DiscNumber == 0 && t.DiscTotal == 0 &&
		t.Year == 0 && t.Genre == "" && !t.Compilation && t.Comment == "" &&
		t.MusicBrainzTrackID == "" && t.MusicBrainzAlbumID == "" && t.MusicBrainzArtistID == "" &&
		len(t.Extra) == 0
}

func parseYear(date string) int {
	digits := strings.TrimSpace(date)
	if len(digits) < 4 {
		return 0
	}
	year := 0
	for i := 0; i < 4; i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
