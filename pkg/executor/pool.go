// Package executor drives the bounded concurrent worker pool that turns a
// planner.Plan into filesystem mutations: subprocess encoding, tag
// translation, cover art embedding, fingerprint stamping, atomic renames,
// and orphan pruning. It is grounded on pkg/sync/pipeline.go's
// producer/worker-pool shape, generalized from its file-copy task to the
// five plan-action kinds (§5 "Concurrency & Resource Model"), with
// golang.org/x/sync/errgroup (as friendsincode-grimnir_radio depends on)
// taking over goroutine lifecycle and limit enforcement in place of a
// hand-rolled sync.WaitGroup.
package executor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pacmirror/pac/pkg/logging"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/policy"
	"github.com/pacmirror/pac/pkg/preflight"
)

// worker holds the state every action handler needs; one instance is
// shared read-only across all goroutines in a pool (§9 "selected backend
// and policy are passed as an immutable context value").
type worker struct {
	srcRoot  string
	destRoot string
	policy   policy.Policy
	selected preflight.Selected
	logger   logging.Logger
}

// pool bounds in-flight actions to numWorkers via errgroup.SetLimit, and
// buffers completed event records in a channel sized to roughly 2x worker
// count (§5) so a burst of fast completions never blocks a worker on
// handing its result back.
type pool struct {
	w          *worker
	results    chan model.EventRecord
	numWorkers int
}

func newPool(w *worker, numWorkers int) *pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &pool{
		w:          w,
		results:    make(chan model.EventRecord, numWorkers*2),
		numWorkers: numWorkers,
	}
}

// run submits every action to a limited errgroup, collects the resulting
// event records, and returns once all actions have completed or ctx was
// cancelled. Per-file failures never abort the group — only the dispatch
// loop itself stops early on cancellation, per §5's "cancellation stops
// new work, lets in-flight actions finish their own cleanup".
func (p *pool) run(ctx context.Context, actions []model.PlanAction, onEvent func(model.EventRecord)) []model.EventRecord {
	g := &errgroup.Group{}
	g.SetLimit(p.numWorkers)

	// Dispatch runs in its own goroutine: g.Go blocks once numWorkers
	// actions are in flight, and nothing may block the goroutine that
	// also drains p.results below, or a full results channel would
	// deadlock the dispatch loop against itself.
	go func() {
		for _, a := range actions {
			a := a
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				p.results <- p.w.process(ctx, a)
				return nil
			})
		}
		_ = g.Wait()
		close(p.results)
	}()

	events := make([]model.EventRecord, 0, len(actions))
	for ev := range p.results {
		events = append(events, ev)
		if onEvent != nil {
			onEvent(ev)
		}
	}
	return events
}

// process dispatches one plan action to its handler and times it, per the
// EventRecord shape external collaborators consume (§6).
func (w *worker) process(ctx context.Context, a model.PlanAction) model.EventRecord {
	start := time.Now()
	ev := model.EventRecord{
		Kind:      a.Kind,
		SourceRel: a.Source.RelPath,
		DestRel:   a.DstRel,
		Reason:    a.Reason,
		Status:    model.StatusSucceeded,
	}

	var actionErr *model.ActionError
	switch a.Kind {
	case model.ActionConvert:
		actionErr = w.runConvert(ctx, a)
	case model.ActionRename:
		actionErr = w.runRename(ctx, a)
	case model.ActionRetag:
		actionErr = w.runRetag(ctx, a)
	case model.ActionSkip:
		// No filesystem work; the record exists purely for visibility.
	case model.ActionPrune:
		actionErr = w.runPrune(ctx, a)
	}

	if ctx.Err() != nil && actionErr == nil {
		ev.Status = model.StatusCancelled
	} else if actionErr != nil {
		ev.Status = model.StatusFailed
		ev.Err = actionErr
	}
	ev.Elapsed = time.Since(start)
	return ev
}
