// Package pathutil implements destination path mapping, per-segment
// sanitisation, and case-folded collision resolution (§4.4.1).
package pathutil

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// reserved is the byte set replaced with underscore in every path segment.
const reserved = "/\\:*?\"<>|"

// SanitizeSegment normalises a single path segment: NFC, reserved-byte and
// control-byte replacement, trailing space/dot trimming, empty rejection.
func SanitizeSegment(seg string) string {
	normalized := norm.NFC.String(seg)

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		switch {
		case strings.ContainsRune(reserved, r):
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()

	out = strings.TrimRightFunc(out, func(r rune) bool {
		return r == ' ' || r == '.'
	})
	// Underscores left by replaced control bytes at the tail are kept; only
	// spaces and dots are trimmed.

	if out == "" {
		return "_"
	}
	return out
}

// SanitizeRelPath sanitises every segment of a forward-slash relative path.
func SanitizeRelPath(relPath string) string {
	relPath = path.Clean(filepath.ToSlash(relPath))
	parts := strings.Split(relPath, "/")
	for i, p := range parts {
		parts[i] = SanitizeSegment(p)
	}
	return strings.Join(parts, "/")
}

// CandidateRel computes the sanitised destination path for a source rel_path,
// replacing its extension with destExt (§4.4.1 step 1-2).
func CandidateRel(sourceRel, destExt string) string {
	sourceRel = filepath.ToSlash(sourceRel)
	ext := path.Ext(sourceRel)
	stem := strings.TrimSuffix(sourceRel, ext)
	return SanitizeRelPath(stem + destExt)
}

// FoldKey returns the case-folded form of a candidate path used as the key
// for collision detection on case-insensitive destination filesystems.
func FoldKey(relPath string) string {
	return strings.ToLower(filepath.ToSlash(relPath))
}

// CollisionResolver assigns unique destination paths within a single plan,
// deterministic because sources are processed in sorted order (§4.4.1 step 3).
type CollisionResolver struct {
	takenExisting map[string]struct{}
	takenPlanned  map[string]struct{}
}

// NewCollisionResolver seeds the resolver with the destination paths already
// present on disk that this plan does not intend to reuse or supersede.
func NewCollisionResolver(existing []string) *CollisionResolver {
	r := &CollisionResolver{
		takenExisting: make(map[string]struct{}, len(existing)),
		takenPlanned:  make(map[string]struct{}),
	}
	for _, e := range existing {
		r.takenExisting[FoldKey(e)] = struct{}{}
	}
	return r
}

// ReleaseExisting removes a path from takenExisting: used when a plan intends
// to reuse or supersede an existing destination (e.g. it is the Rename/Retag
// target, or the slot a Convert will overwrite).
func (r *CollisionResolver) ReleaseExisting(relPath string) {
	delete(r.takenExisting, FoldKey(relPath))
}

// Resolve returns a unique destination path for candidate, suffixing the stem
// with " (2)", " (3)", ... until the case-folded form collides with neither
// takenExisting nor takenPlanned, then marks it as planned.
func (r *CollisionResolver) Resolve(candidate string) string {
	if !r.collides(candidate) {
		r.markPlanned(candidate)
		return candidate
	}

	ext := path.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	for n := 2; ; n++ {
		attempt := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !r.collides(attempt) {
			r.markPlanned(attempt)
			return attempt
		}
	}
}

func (r *CollisionResolver) collides(relPath string) bool {
	key := FoldKey(relPath)
	if _, ok := r.takenExisting[key]; ok {
		return true
	}
	_, ok := r.takenPlanned[key]
	return ok
}

func (r *CollisionResolver) markPlanned(relPath string) {
	r.takenPlanned[FoldKey(relPath)] = struct{}{}
}

// IsPrintableASCIIControl reports whether r is an ASCII control character
// (0x00-0x1f or 0x7f).
func IsPrintableASCIIControl(r rune) bool {
	return unicode.IsControl(r) && r < 0x80
}
