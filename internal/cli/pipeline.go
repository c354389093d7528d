package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pacmirror/pac/pkg/config"
	"github.com/pacmirror/pac/pkg/destindex"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/planner"
	"github.com/pacmirror/pac/pkg/policy"
	"github.com/pacmirror/pac/pkg/preflight"
	"github.com/pacmirror/pac/pkg/scan"
)

// buildPlan runs Scan -> Index -> preflight.Select -> Plan: every step that
// precedes Execute, shared by "pac plan" (which stops here) and "pac run"
// (which goes on to execute the result).
func buildPlan(ctx context.Context, cfg *config.Config) (planner.Plan, policy.Policy, preflight.Selected, error) {
	pol := cfg.ToPolicy(Version)
	if err := pol.Validate(); err != nil {
		return planner.Plan{}, pol, preflight.Selected{}, err
	}

	set := preflight.Probe(ctx, preflight.ProbeOptions{SkipCompatLayerBinaries: cfg.SkipCompatLayerProbe})
	sel, err := preflight.Select(set, cfg.Codec, preflight.Backend(cfg.EncoderOverride))
	if err != nil {
		return planner.Plan{}, pol, preflight.Selected{}, fmt.Errorf("preflight: %w", err)
	}
	pol.EncoderID = string(sel.Backend)

	var sources []model.SourceEntry
	if cfg.Recursive {
		sources, err = scan.ScanFlacTree(ctx, cfg.Source)
	} else {
		sources, err = scan.ScanFlacDir(ctx, cfg.Source)
	}
	if err != nil {
		return planner.Plan{}, pol, sel, fmt.Errorf("scan: %w", err)
	}

	idxWorkers := pol.ResolvedWorkers(runtime.NumCPU())
	idx, err := destindex.Build(ctx, cfg.Dest, idxWorkers)
	if err != nil {
		return planner.Plan{}, pol, sel, fmt.Errorf("index: %w", err)
	}

	plan := planner.Build(sources, idx, pol)
	return plan, pol, sel, nil
}
