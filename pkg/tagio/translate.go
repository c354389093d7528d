package tagio

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// FromFLAC reads the source FLAC's Vorbis comments into a TagTable,
// grounded on original_source/src/pac/metadata.py's intent (never
// implemented there) and the corpus's use of dhowden/tag for container tag
// reads (ThatDevopsGuy-multimedia).
func FromFLAC(path string) (TagTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return TagTable{}, err
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return TagTable{}, fmt.Errorf("tagio: reading flac tags: %w", err)
	}

	trackN, trackTotal := meta.Track()
	discN, discTotal := meta.Disc()

	table := TagTable{
		Title:       meta.Title(),
		Artist:      meta.Artist(),
		Album:       meta.Album(),
		AlbumArtist: meta.AlbumArtist(),
		TrackNumber: trackN,
		TrackTotal:  trackTotal,
		DiscNumber:  discN,
		DiscTotal:   discTotal,
		Year:        meta.Year(),
		Genre:       meta.Genre(),
		Comment:     meta.Comment(),
	}

	raw := meta.Raw()
	if v, ok := raw["musicbrainz_trackid"].(string); ok {
		table.MusicBrainzTrackID = v
	}
	if v, ok := raw["musicbrainz_albumid"].(string); ok {
		table.MusicBrainzAlbumID = v
	}
	if v, ok := raw["musicbrainz_artistid"].(string); ok {
		table.MusicBrainzArtistID = v
	}
	if v, ok := raw["compilation"].(string); ok {
		table.Compilation = v == "1"
	}
	if v, ok := raw["date"].(string); ok && table.Year == 0 {
		table.Year = parseYear(v)
	}

	known := map[string]bool{
		"title": true, "artist": true, "album": true, "albumartist": true,
		"track": true, "totaltracks": true, "disc": true, "totaldiscs": true,
		"tracknumber": true, "tracktotal": true, "discnumber": true, "disctotal": true,
		"date": true, "genre": true, "comment": true, "compilation": true,
		"musicbrainz_trackid": true, "musicbrainz_albumid": true, "musicbrainz_artistid": true,
		"picture": true,
	}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			if table.Extra == nil {
				table.Extra = map[string]string{}
			}
			table.Extra[k] = s
		}
	}

	return table, nil
}
