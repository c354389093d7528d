package executor

import (
	"context"
	"path/filepath"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/tagio"
)

// runRetag implements §4.5.6: rewrite tags and/or the fingerprint in place
// without touching the encoded audio payload, for both the legacy-adopt
// case (no prior fingerprint, full standard-tag translation needed) and
// the stamp-refresh case (fingerprint version/source_rel drift only).
func (w *worker) runRetag(ctx context.Context, a model.PlanAction) *model.ActionError {
	destAbs := filepath.Join(w.destRoot, a.DstRel)
	srcAbs := filepath.Join(w.srcRoot, a.Source.RelPath)

	if a.Reason == model.ReasonLegacyAdopt {
		table, err := tagio.FromFLAC(srcAbs)
		if err == nil && !table.IsEmpty() {
			if werr := tagio.WriteStandardTags(destAbs, table); werr != nil {
				return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: werr}
			}
		}
	}

	fp, err := tagio.ReadFingerprint(destAbs)
	if err != nil {
		return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: err}
	}
	fp.SrcMD5 = a.Source.AudioMD5
	fp.Encoder = string(w.selected.Backend)
	fp.Quality = w.policy.Quality
	fp.Version = w.policy.Version
	fp.SourceRel = a.Source.RelPath

	if err := tagio.WriteFingerprint(destAbs, fp); err != nil {
		return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: err}
	}
	return nil
}
