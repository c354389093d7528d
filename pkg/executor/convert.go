package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pacmirror/pac/pkg/logging"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/policy"
	"github.com/pacmirror/pac/pkg/preflight"
	"github.com/pacmirror/pac/pkg/tagio"
)

// cmdToString renders a subprocess invocation the way a shell would echo
// it, each argument individually quoted, for Debug-level diagnostics.
func cmdToString(path string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, strconv.Quote(path))
	for _, a := range args {
		quoted = append(quoted, strconv.Quote(a))
	}
	return strings.Join(quoted, " ")
}

// runConvert implements §4.5.1: encode, translate tags, embed cover art,
// embed the fingerprint, and commit atomically.
func (w *worker) runConvert(ctx context.Context, a model.PlanAction) *model.ActionError {
	srcAbs := filepath.Join(w.srcRoot, a.Source.RelPath)
	destAbs := filepath.Join(w.destRoot, a.DstRel)
	partAbs := partPath(destAbs)

	if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
		return &model.ActionError{Kind: model.ErrEncodeFailed, Err: err}
	}

	if err := runEncodePipeline(ctx, w.selected, w.policy, srcAbs, partAbs, w.logger); err != nil {
		cleanupPart(partAbs)
		return &model.ActionError{Kind: model.ErrEncodeFailed, Err: err}
	}

	if err := embedTagsAndFingerprint(a.Source, srcAbs, partAbs, w.selected, w.policy); err != nil {
		cleanupPart(partAbs)
		return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: err}
	}

	if err := commit(partAbs, destAbs); err != nil {
		cleanupPart(partAbs)
		return &model.ActionError{Kind: model.ErrCommitFailed, Err: err}
	}

	if w.policy.StrictVerify {
		if err := verifyOutput(ctx, srcAbs, destAbs, w.logger); err != nil {
			return &model.ActionError{Kind: model.ErrVerifyMismatch, Err: err}
		}
	}
	return nil
}

// verifyOutput implements §4.5.8: re-open the committed output and compare
// its title/artist/album tags and cover-art presence against the source.
// Only called when StrictVerify is set, so any discrepancy both logs and
// fails the action.
func verifyOutput(ctx context.Context, srcAbs, destAbs string, logger logging.Logger) error {
	table, err := tagio.FromFLAC(srcAbs)
	if err != nil {
		return nil
	}
	_, hasCoverArt := tagio.LocateCoverArt(srcAbs)

	mismatches, err := tagio.VerifyAgainstSource(destAbs, table, hasCoverArt)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if len(mismatches) == 0 {
		return nil
	}
	if logger != nil {
		logger.Warn(ctx, "post-encode verification mismatch", logging.Fields{
			"dest":       destAbs,
			"mismatches": strings.Join(mismatches, ", "),
		})
	}
	return fmt.Errorf("%s", strings.Join(mismatches, ", "))
}

// runEncodePipeline picks pipeline form A or B per §4.5.1 depending on
// whether the selected backend is hosted inside ffmpeg (native encoder,
// decodes FLAC itself) or is an external CLI that only accepts PCM.
func runEncodePipeline(ctx context.Context, sel preflight.Selected, pol policy.Policy, srcAbs, partAbs string, logger logging.Logger) error {
	switch sel.Backend {
	case preflight.BackendLibFDKAAC, preflight.BackendLibOpus:
		return runDirectFFmpeg(ctx, sel, pol, srcAbs, partAbs, logger)
	case preflight.BackendQAAC, preflight.BackendFDKAAC:
		return runDecodeThenEncode(ctx, sel, pol, srcAbs, partAbs, logger)
	default:
		return fmt.Errorf("executor: unknown backend %q", sel.Backend)
	}
}

// runDirectFFmpeg is pipeline form A: ffmpeg maps the first audio stream,
// copies container metadata, and encodes straight to the target container.
func runDirectFFmpeg(ctx context.Context, sel preflight.Selected, pol policy.Policy, srcAbs, partAbs string, logger logging.Logger) error {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", srcAbs,
		"-map", "0:a:0", "-vn",
		"-map_metadata", "0",
		"-threads", "1",
	}
	switch sel.Backend {
	case preflight.BackendLibFDKAAC:
		args = append(args, "-c:a", "libfdk_aac", "-vbr", pol.Quality,
			"-movflags", "+use_metadata_tags+faststart")
	case preflight.BackendLibOpus:
		args = append(args, "-c:a", "libopus", "-b:a", pol.Quality+"k", "-vbr", "on")
	}
	args = append(args, partAbs)

	if logger != nil {
		logger.Debug(ctx, "spawning encoder", logging.Fields{"cmd": cmdToString(sel.Path, args)})
	}

	cmd := exec.CommandContext(ctx, sel.Path, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runDecodeThenEncode is pipeline form B: ffmpeg decodes to WAV on stdout,
// piped via an OS pipe into the external encoder's stdin. Both processes
// are owned by this call; a failure in either propagates.
func runDecodeThenEncode(ctx context.Context, sel preflight.Selected, pol policy.Policy, srcAbs, partAbs string, logger logging.Logger) error {
	pcmCodec := pol.PCMCodec
	if pcmCodec == "" {
		pcmCodec = "pcm_s24le"
	}

	decodePath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("executor: ffmpeg not found for decode stage: %w", err)
	}
	decodeArgs := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", srcAbs,
		"-map", "0:a:0", "-vn", "-sn", "-dn",
		"-acodec", pcmCodec,
		"-f", "wav", "-",
	}
	decodeCmd := exec.CommandContext(ctx, decodePath, decodeArgs...)
	decodeCmd.Stderr = os.Stderr

	encodeArgs := buildExternalEncoderArgs(sel.Backend, pol, partAbs)
	encodeCmd := exec.CommandContext(ctx, sel.Path, encodeArgs...)
	encodeCmd.Stderr = os.Stderr

	if logger != nil {
		logger.Debug(ctx, "spawning decoder", logging.Fields{"cmd": cmdToString(decodePath, decodeArgs)})
		logger.Debug(ctx, "spawning encoder", logging.Fields{"cmd": cmdToString(sel.Path, encodeArgs)})
	}

	pipeReader, pipeWriter, err := os.Pipe()
	if err != nil {
		return err
	}
	decodeCmd.Stdout = pipeWriter
	encodeCmd.Stdin = pipeReader

	if err := decodeCmd.Start(); err != nil {
		pipeWriter.Close()
		pipeReader.Close()
		return err
	}
	if err := encodeCmd.Start(); err != nil {
		pipeWriter.Close()
		pipeReader.Close()
		_ = decodeCmd.Wait()
		return err
	}
	// The parent's copies of each end are no longer needed once both
	// children hold their own; closing here lets encodeCmd see EOF once
	// decodeCmd exits.
	pipeWriter.Close()
	pipeReader.Close()

	decodeErr := decodeCmd.Wait()
	encodeErr := encodeCmd.Wait()
	if decodeErr != nil {
		return fmt.Errorf("executor: decode stage: %w", decodeErr)
	}
	if encodeErr != nil {
		return fmt.Errorf("executor: encode stage: %w", encodeErr)
	}
	return nil
}

func buildExternalEncoderArgs(backend preflight.Backend, pol policy.Policy, partAbs string) []string {
	switch backend {
	case preflight.BackendQAAC:
		return []string{"--tvbr", pol.Quality, "-o", partAbs, "-"}
	case preflight.BackendFDKAAC:
		return []string{"-m", pol.Quality, "-o", partAbs, "-"}
	default:
		return []string{"-o", partAbs, "-"}
	}
}

// embedTagsAndFingerprint implements §4.5.2-§4.5.4 for a freshly-encoded
// `.part` file: translate the source tag table, embed cover art (best
// effort), and stamp the fingerprint.
func embedTagsAndFingerprint(src model.SourceEntry, srcAbs, partAbs string, sel preflight.Selected, pol policy.Policy) error {
	table, err := tagio.FromFLAC(srcAbs)
	if err == nil && !table.IsEmpty() {
		if werr := tagio.WriteStandardTags(partAbs, table); werr != nil {
			return fmt.Errorf("tag translation: %w", werr)
		}
	}

	if pic, ok := tagio.LocateCoverArt(srcAbs); ok {
		art, rerr := tagio.ResizeIfNeeded(pic, pol.CoverArtMaxSide, pol.CoverArtMaxSide > 0)
		if rerr == nil {
			if werr := tagio.WriteCoverArt(partAbs, art, 0, 0); werr != nil && pol.StrictVerify {
				return fmt.Errorf("cover art: %w", werr)
			}
		}
	}

	fp := model.Fingerprint{
		SrcMD5:    src.AudioMD5,
		Encoder:   string(sel.Backend),
		Quality:   pol.Quality,
		Version:   pol.Version,
		SourceRel: src.RelPath,
	}
	return tagio.WriteFingerprint(partAbs, fp)
}
