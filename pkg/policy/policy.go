// Package policy holds the immutable run configuration the core accepts
// from external collaborators. The core never parses command lines or
// config files (§6); pkg/config (an ambient, non-core concern) is the only
// producer of a Policy from a YAML file.
package policy

import "github.com/pacmirror/pac/pkg/model"

// Codec selects the destination container/codec family.
type Codec string

const (
	CodecAAC  Codec = "aac"
	CodecOpus Codec = "opus"
)

// Ext returns the destination file extension for the codec.
func (c Codec) Ext() string {
	if c == CodecOpus {
		return ".opus"
	}
	return ".m4a"
}

// Policy is the frozen, immutable run configuration passed to the planner
// and executor as a context value (§9 "Global state").
type Policy struct {
	Codec   Codec
	Quality string // decimal integer string, as embedded in the fingerprint

	// EncoderID is the frozen backend identity preflight selected for this
	// run (e.g. "libfdk_aac", "libopus"); set once, after preflight and
	// before Plan/Execute, never re-evaluated mid-run.
	EncoderID string

	Workers int // 0 means "use default: min(physical_cores, 8)"

	Adopt         bool // legacy files at the expected path get Retag instead of Convert
	Prune         bool // orphans get deleted instead of retained
	ForceReencode bool // every source is re-encoded regardless of match

	PCMCodec string // pipeline form B decoder output codec, default pcm_s24le

	CoverArtMaxSide int // 0 disables resizing

	// StrictVerify enables §4.5.8's optional post-encode verification: after
	// a Convert commits, the executor re-opens the output and compares its
	// title/artist/album tags and cover-art presence against the source.
	// Verification runs only when StrictVerify is set, and a discrepancy then
	// marks the action failed (ErrVerifyMismatch); there is no log-only
	// verification mode. StrictVerify also gates the "cover art embed failed"
	// hard-failure.
	StrictVerify bool

	Version string // this tool's version, stamped into every fingerprint
}

// Default returns a conservative, always-valid policy.
func Default() Policy {
	return Policy{
		Codec:           CodecAAC,
		Quality:         "5",
		Workers:         0,
		Adopt:           true,
		Prune:           false,
		ForceReencode:   false,
		PCMCodec:        "pcm_s24le",
		CoverArtMaxSide: 1400,
		StrictVerify:    false,
		Version:         "0.1.0",
	}
}

// Validate checks a policy is self-consistent before it drives a run.
func (p Policy) Validate() error {
	if p.Codec != CodecAAC && p.Codec != CodecOpus {
		return &model.ValidationError{Field: "codec", Message: "must be aac or opus"}
	}
	if p.Quality == "" {
		return &model.ValidationError{Field: "quality", Message: "must not be empty"}
	}
	if p.Workers < 0 {
		return &model.ValidationError{Field: "workers", Message: "must be >= 0"}
	}
	if p.CoverArtMaxSide < 0 {
		return &model.ValidationError{Field: "cover_art_max_side", Message: "must be >= 0"}
	}
	return nil
}

// ResolvedWorkers applies the §5 default: min(physical_cores, 8).
func (p Policy) ResolvedWorkers(physicalCores int) int {
	if p.Workers > 0 {
		return p.Workers
	}
	if physicalCores < 1 {
		return 1
	}
	if physicalCores > 8 {
		return 8
	}
	return physicalCores
}
