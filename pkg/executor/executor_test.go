package executor

import (
	"context"
	"testing"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/planner"
	"github.com/pacmirror/pac/pkg/policy"
	"github.com/pacmirror/pac/pkg/preflight"
)

func TestExecute_TalliesStatsAndReturnsExitCodeZero(t *testing.T) {
	destRoot := t.TempDir()
	plan := planner.Plan{Actions: []model.PlanAction{
		{Kind: model.ActionSkip, Reason: model.ReasonUpToDate, DstRel: "a.m4a"},
		{Kind: model.ActionSkip, Reason: model.ReasonUpToDate, DstRel: "b.m4a"},
	}}

	var seen []model.EventRecord
	summary, err := Execute(context.Background(), plan, t.TempDir(), destRoot, policy.Default(), preflight.Selected{Backend: preflight.BackendLibFDKAAC}, "run-1", nil, func(ev model.EventRecord) {
		seen = append(seen, ev)
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if summary.Stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", summary.Stats.Skipped)
	}
	if summary.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", summary.ExitCode())
	}
	if len(seen) != 2 {
		t.Errorf("onEvent fired %d times, want 2", len(seen))
	}
}

func TestExecute_PruneOfMissingFileSucceeds(t *testing.T) {
	destRoot := t.TempDir()
	plan := planner.Plan{Actions: []model.PlanAction{
		{Kind: model.ActionPrune, Reason: model.ReasonOrphanPruned, DstRel: "missing-parent/gone.m4a"},
	}}

	summary, err := Execute(context.Background(), plan, t.TempDir(), destRoot, policy.Default(), preflight.Selected{Backend: preflight.BackendLibFDKAAC}, "run-2", nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// runPrune tolerates an already-missing file, so this should succeed
	// rather than fail, and the prune counter (not failed) should tick.
	if summary.Stats.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", summary.Stats.Pruned)
	}
	if summary.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", summary.ExitCode())
	}
}
