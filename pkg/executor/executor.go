package executor

import (
	"context"
	"runtime"
	"time"

	"github.com/pacmirror/pac/pkg/logging"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/planner"
	"github.com/pacmirror/pac/pkg/policy"
	"github.com/pacmirror/pac/pkg/preflight"
)

// Execute runs every action in plan through the bounded worker pool and
// assembles the run summary external collaborators consume (§6). It never
// reads a plan.Plan's source twice: the planner has already derived the
// complete, deterministic action set, so Execute's only job is to realize
// it on disk.
// onEvent, when non-nil, is invoked once per completed action in
// completion order (not plan order) — the caller's hook for a live
// progress display. It must not block.
func Execute(ctx context.Context, plan planner.Plan, srcRoot, destRoot string, pol policy.Policy, selected preflight.Selected, runID string, logger logging.Logger, onEvent func(model.EventRecord)) (*model.RunSummary, error) {
	started := time.Now()
	w := &worker{
		srcRoot:  srcRoot,
		destRoot: destRoot,
		policy:   pol,
		selected: selected,
		logger:   logger,
	}

	numWorkers := pol.ResolvedWorkers(runtime.NumCPU())
	p := newPool(w, numWorkers)

	if logger != nil {
		logger.Info(ctx, "starting run", logging.Fields{
			"run_id":     runID,
			"actions":    len(plan.Actions),
			"workers":    numWorkers,
			"codec":      string(pol.Codec),
			"encoder_id": string(selected.Backend),
		})
		logger.Debug(ctx, "bounded submission window", logging.Fields{
			"bound":   cap(p.results),
			"factor":  2,
			"workers": numWorkers,
		})
	}

	events := p.run(ctx, plan.Actions, onEvent)

	summary := &model.RunSummary{
		RunID:     runID,
		BackendID: string(selected.Backend),
		Events:    events,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	tallyStats(summary, events)

	if logger != nil {
		logger.Info(ctx, "run complete", logging.Fields{
			"run_id":    runID,
			"converted": summary.Stats.Converted,
			"renamed":   summary.Stats.Renamed,
			"retagged":  summary.Stats.Retagged,
			"pruned":    summary.Stats.Pruned,
			"skipped":   summary.Stats.Skipped,
			"failed":    summary.Stats.Failed,
			"duration":  summary.Duration.String(),
		})
	}

	return summary, ctx.Err()
}

func tallyStats(summary *model.RunSummary, events []model.EventRecord) {
	for _, ev := range events {
		if ev.Status == model.StatusFailed {
			summary.Stats.Failed++
			continue
		}
		switch ev.Kind {
		case model.ActionConvert:
			summary.Stats.Converted++
		case model.ActionRename:
			summary.Stats.Renamed++
		case model.ActionRetag:
			summary.Stats.Retagged++
		case model.ActionSkip:
			summary.Stats.Skipped++
		case model.ActionPrune:
			summary.Stats.Pruned++
		}
	}
}
