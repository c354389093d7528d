package executor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/tagio"
)

// runRename implements §4.5.5: move an output already encoded with the
// current run policy to the rel_path its source now maps to, then patch
// its embedded source_rel so the fingerprint stays truthful without a
// re-encode.
func (w *worker) runRename(ctx context.Context, a model.PlanAction) *model.ActionError {
	fromAbs := filepath.Join(w.destRoot, a.FromRel)
	toAbs := filepath.Join(w.destRoot, a.DstRel)

	if err := os.MkdirAll(filepath.Dir(toAbs), 0o755); err != nil {
		return &model.ActionError{Kind: model.ErrCommitFailed, Err: err}
	}
	if err := os.Rename(fromAbs, toAbs); err != nil {
		return &model.ActionError{Kind: model.ErrCommitFailed, Err: err}
	}

	fp, err := tagio.ReadFingerprint(toAbs)
	if err != nil {
		return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: err}
	}
	fp.SourceRel = a.Source.RelPath
	if err := tagio.WriteFingerprint(toAbs, fp); err != nil {
		return &model.ActionError{Kind: model.ErrTagWriteFailed, Err: err}
	}
	return nil
}
