package tagio

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pacmirror/pac/pkg/tagio/mp4tag"
	"github.com/pacmirror/pac/pkg/tagio/opustag"
)

// normalizeForCompare implements §4.5.8's "Unicode-normalised,
// whitespace-trimmed" comparison rule.
func normalizeForCompare(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// destTags is the subset of a container's readback this package compares
// against the source, container-agnostic.
type destTags struct {
	Title, Artist, Album string
	HasCoverArt          bool
}

func readDestTags(path string) (destTags, error) {
	switch dispatchExt(path) {
	case ".m4a", ".mp4":
		t, err := mp4tag.ReadStandardTags(path)
		if err != nil {
			return destTags{}, err
		}
		cover, err := mp4tag.HasCoverArt(path)
		if err != nil {
			return destTags{}, err
		}
		return destTags{Title: t.Title, Artist: t.Artist, Album: t.Album, HasCoverArt: cover}, nil
	case ".opus":
		t, err := opustag.ReadStandardTags(path)
		if err != nil {
			return destTags{}, err
		}
		cover, err := opustag.HasCoverArt(path)
		if err != nil {
			return destTags{}, err
		}
		return destTags{Title: t.Title, Artist: t.Artist, Album: t.Album, HasCoverArt: cover}, nil
	default:
		return destTags{}, ErrUnsupportedContainer
	}
}

// VerifyAgainstSource implements §4.5.8: re-open the just-written output
// and compare the title/artist/album subset (Unicode-normalised,
// whitespace-trimmed) plus cover-art presence against the source table and
// whether the source carried cover art. It returns one description per
// discrepancy found; a nil/empty slice means the file verified clean.
func VerifyAgainstSource(destAbs string, src TagTable, srcHasCoverArt bool) ([]string, error) {
	dest, err := readDestTags(destAbs)
	if err != nil {
		return nil, err
	}

	var mismatches []string
	if normalizeForCompare(src.Title) != normalizeForCompare(dest.Title) {
		mismatches = append(mismatches, "title mismatch")
	}
	if normalizeForCompare(src.Artist) != normalizeForCompare(dest.Artist) {
		mismatches = append(mismatches, "artist mismatch")
	}
	if normalizeForCompare(src.Album) != normalizeForCompare(dest.Album) {
		mismatches = append(mismatches, "album mismatch")
	}
	if srcHasCoverArt && !dest.HasCoverArt {
		mismatches = append(mismatches, "cover art missing")
	}
	return mismatches, nil
}
