// Package preflight probes for available encoder backends and selects the
// single stable one a run will use, grounded on
// original_source/src/pac/ffmpeg_check.py — extended per its own TODO-ish
// double `has_fdk` computation into a proper "-encoders" capability sniff
// rather than a "-version" string grep, so a system ffmpeg built without
// libfdk_aac is correctly rejected rather than optimistically accepted.
package preflight

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Backend identifies one concrete encoder path this tool can drive.
type Backend string

const (
	BackendLibFDKAAC Backend = "libfdk_aac" // ffmpeg's native high-quality AAC encoder
	BackendQAAC      Backend = "qaac"       // external AAC CLI (Apple CoreAudio wrapper)
	BackendFDKAAC    Backend = "fdkaac"     // external fallback AAC CLI
	BackendLibOpus   Backend = "libopus"    // ffmpeg's native Opus encoder
)

// FFmpegStatus mirrors the original's probe result shape: whether ffmpeg
// was found, its resolved path and reported version, and which of the
// codecs this tool cares about its encoder list actually advertises.
type FFmpegStatus struct {
	Available      bool
	Path           string
	Version        string
	HasLibFDKAAC   bool
	HasLibOpus     bool
	Error          error
}

// externalCLIStatus records whether an external encoder CLI (qaac, fdkaac)
// was found on PATH and what version string it reports, when obtainable.
type externalCLIStatus struct {
	Available bool
	Path      string
	Version   string
}

// BackendSet is every candidate this run could pick from, as detected by
// Probe.
type BackendSet struct {
	FFmpeg FFmpegStatus
	QAAC   externalCLIStatus
	FDKAAC externalCLIStatus
}

// ProbeOptions controls probing side effects. SkipCompatLayerBinaries lets
// a caller avoid invoking a Windows-binary compatibility shim (e.g. Wine)
// for qaac on platforms where startup latency from that layer's own
// initialisation is undesirable.
type ProbeOptions struct {
	SkipCompatLayerBinaries bool
	Timeout                 time.Duration
}

func (o ProbeOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 5 * time.Second
	}
	return o.Timeout
}

// Probe detects every candidate backend's availability. It never fails: a
// missing or broken binary simply reports Available=false in its slot, so
// the caller can build BackendSet -> select() error reporting from richer
// data than a bare bool.
func Probe(ctx context.Context, opts ProbeOptions) BackendSet {
	set := BackendSet{FFmpeg: probeFFmpeg(ctx, opts)}
	if !opts.SkipCompatLayerBinaries {
		set.QAAC = probeExternalCLI(ctx, opts, "qaac", "--version")
	}
	set.FDKAAC = probeExternalCLI(ctx, opts, "fdkaac", "--version")
	return set
}

func probeFFmpeg(ctx context.Context, opts ProbeOptions) FFmpegStatus {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return FFmpegStatus{Available: false, Error: err}
	}

	rcOK, outV, errV := runCapture(ctx, opts, path, "-version")
	version := ""
	if lines := strings.SplitN(outV, "\n", 2); len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	_, outE, _ := runCapture(ctx, opts, path, "-hide_banner", "-encoders")

	status := FFmpegStatus{
		Available:    rcOK,
		Path:         path,
		Version:      version,
		HasLibFDKAAC: strings.Contains(outE, "libfdk_aac"),
		HasLibOpus:   strings.Contains(outE, "libopus"),
	}
	if !rcOK {
		if errV != "" {
			status.Error = errString(errV)
		} else {
			status.Error = errString("ffmpeg -version failed")
		}
	}
	return status
}

func probeExternalCLI(ctx context.Context, opts ProbeOptions, name string, versionFlag string) externalCLIStatus {
	path, err := exec.LookPath(name)
	if err != nil {
		return externalCLIStatus{Available: false}
	}
	_, out, _ := runCapture(ctx, opts, path, versionFlag)
	version := ""
	if lines := strings.SplitN(out, "\n", 2); len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}
	return externalCLIStatus{Available: true, Path: path, Version: version}
}

func runCapture(ctx context.Context, opts ProbeOptions, path string, args ...string) (ok bool, stdout, stderr string) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return err == nil, outBuf.String(), errBuf.String()
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func errString(s string) error { return simpleError(s) }
