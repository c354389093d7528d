// Package config is the YAML-backed loader that sits outside the core,
// translating a file on disk into the immutable policy.Policy value
// pkg/planner and pkg/executor accept. The core itself never parses files
// or flags; that boundary is the point of this package, grounded on the
// teacher's pkg/config/config.go + yaml.go split (a Default() constructor,
// a Validate() method, LoadFromFile/SaveToFile/LoadDefault).
package config

import (
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/policy"
)

// Config is the on-disk shape of a run's configuration. Its fields mirror
// policy.Policy plus the source/destination roots policy.Policy itself
// has no opinion about (the core takes those as plain arguments to
// Scan/Build/Execute, not as policy fields).
type Config struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`

	Codec   string `yaml:"codec"`   // "aac" or "opus"
	Quality string `yaml:"quality"` // decimal integer string

	EncoderOverride string `yaml:"encoder_override"` // "" lets preflight choose

	Workers int `yaml:"workers"`

	Adopt         bool `yaml:"adopt"`
	Prune         bool `yaml:"prune"`
	ForceReencode bool `yaml:"force_reencode"`

	PCMCodec string `yaml:"pcm_codec"`

	CoverArtMaxSide int  `yaml:"cover_art_max_side"`
	StrictVerify    bool `yaml:"strict_verify"`

	SkipCompatLayerProbe bool `yaml:"skip_compat_layer_probe"`

	// Recursive controls scan depth: true walks the full source tree,
	// false scans only the top-level directory named by Source (the
	// single-directory convenience mode).
	Recursive bool `yaml:"recursive"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging-related settings for cmd/pac's logger
// construction; the core accepts a logging.Logger directly and has no
// opinion on how it was built.
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" or "console"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	File   string `yaml:"file"`   // empty means stderr
}

// Default returns the default configuration, matching policy.Default()'s
// values for every field the two share.
func Default() *Config {
	pol := policy.Default()
	return &Config{
		Codec:           string(pol.Codec),
		Quality:         pol.Quality,
		Workers:         pol.Workers,
		Adopt:           pol.Adopt,
		Prune:           pol.Prune,
		ForceReencode:   pol.ForceReencode,
		PCMCodec:        pol.PCMCodec,
		CoverArtMaxSide: pol.CoverArtMaxSide,
		StrictVerify:    pol.StrictVerify,
		Recursive:       true,
		Logging: LoggingConfig{
			Format: "console",
			Level:  "info",
		},
	}
}

// Validate checks the configuration is self-consistent before it is
// translated into a policy.Policy.
func (c *Config) Validate() error {
	if c.Source == "" {
		return &model.ValidationError{Field: "source", Message: "must not be empty"}
	}
	if c.Dest == "" {
		return &model.ValidationError{Field: "dest", Message: "must not be empty"}
	}
	if c.Codec != "aac" && c.Codec != "opus" {
		return &model.ValidationError{Field: "codec", Message: "must be 'aac' or 'opus'"}
	}
	if c.Quality == "" {
		return &model.ValidationError{Field: "quality", Message: "must not be empty"}
	}
	if c.Workers < 0 {
		return &model.ValidationError{Field: "workers", Message: "must be >= 0"}
	}
	if c.CoverArtMaxSide < 0 {
		return &model.ValidationError{Field: "cover_art_max_side", Message: "must be >= 0"}
	}

	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return &model.ValidationError{Field: "logging.format", Message: "must be 'json' or 'console'"}
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &model.ValidationError{Field: "logging.level", Message: "must be 'debug', 'info', 'warn', or 'error'"}
	}

	return nil
}

// ToPolicy translates the on-disk configuration into the immutable policy
// value the core accepts. version is stamped in from the caller (the
// build's own version string), since it is not something a user configures.
func (c *Config) ToPolicy(version string) policy.Policy {
	return policy.Policy{
		Codec:           policy.Codec(c.Codec),
		Quality:         c.Quality,
		Workers:         c.Workers,
		Adopt:           c.Adopt,
		Prune:           c.Prune,
		ForceReencode:   c.ForceReencode,
		PCMCodec:        c.PCMCodec,
		CoverArtMaxSide: c.CoverArtMaxSide,
		StrictVerify:    c.StrictVerify,
		Version:         version,
	}
}
