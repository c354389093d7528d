package executor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pacmirror/pac/pkg/model"
)

// runPrune implements §4.5.7: unlink an orphaned output. Parent directories
// are left behind even if they become empty — directory cleanup is not
// part of this tool's contract, and an empty directory left over from a
// prune is harmless.
func (w *worker) runPrune(ctx context.Context, a model.PlanAction) *model.ActionError {
	destAbs := filepath.Join(w.destRoot, a.DstRel)
	if err := os.Remove(destAbs); err != nil && !os.IsNotExist(err) {
		return &model.ActionError{Kind: model.ErrCommitFailed, Err: err}
	}
	return nil
}
