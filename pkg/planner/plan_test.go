package planner

import (
	"testing"

	"github.com/pacmirror/pac/pkg/destindex"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/policy"
)

func testPolicy() policy.Policy {
	p := policy.Default()
	p.EncoderID = "libfdk_aac"
	return p
}

func findAction(t *testing.T, plan Plan, dstRel string) model.PlanAction {
	t.Helper()
	for _, a := range plan.Actions {
		if a.DstRel == dstRel {
			return a
		}
	}
	t.Fatalf("no action for %q in %+v", dstRel, plan.Actions)
	return model.PlanAction{}
}

func TestBuild_ColdConvert(t *testing.T) {
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	plan := Build(sources, destindex.Index{ByRel: map[string]model.OutputEntry{}}, testPolicy())
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionConvert || a.Reason != model.ReasonColdConvert {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_UpToDateSkip(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: pol.EncoderID, Quality: pol.Quality, Version: pol.Version, SourceRel: "A/song.flac"}},
		},
		ByMD5: map[string][]model.OutputEntry{
			"aaaa": {{RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: pol.EncoderID, Quality: pol.Quality, Version: pol.Version, SourceRel: "A/song.flac"}}},
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionSkip || a.Reason != model.ReasonUpToDate {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_PathDriftRename(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"B/old.m4a": {RelPath: "B/old.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: pol.EncoderID, Quality: pol.Quality, Version: pol.Version, SourceRel: "B/old.flac"}},
		},
		ByMD5: map[string][]model.OutputEntry{
			"aaaa": {{RelPath: "B/old.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: pol.EncoderID, Quality: pol.Quality, Version: pol.Version, SourceRel: "B/old.flac"}}},
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionRename || a.FromRel != "B/old.m4a" || a.Reason != model.ReasonPathDrift {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_EncoderMismatchConverts(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: "qaac", Quality: pol.Quality}},
		},
		ByMD5: map[string][]model.OutputEntry{
			"aaaa": {{RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: "qaac", Quality: pol.Quality}}},
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionConvert || a.Reason != model.ReasonEncoderMismatch {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_LegacyAdopt(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a"}, // no fingerprint: legacy
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionRetag || a.Reason != model.ReasonLegacyAdopt {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_ContentSwapConverts(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "different", Encoder: pol.EncoderID, Quality: pol.Quality}},
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionConvert || a.Reason != model.ReasonContentSwap {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_ForceReencode(t *testing.T) {
	pol := testPolicy()
	pol.ForceReencode = true
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "aaaa"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a", Fingerprint: model.Fingerprint{SrcMD5: "aaaa", Encoder: pol.EncoderID, Quality: pol.Quality, Version: pol.Version, SourceRel: "A/song.flac"}},
		},
	}
	plan := Build(sources, dest, pol)
	a := findAction(t, plan, "A/song.m4a")
	if a.Kind != model.ActionConvert || a.Reason != model.ReasonForceReencode {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_PruneOrphan(t *testing.T) {
	pol := testPolicy()
	pol.Prune = true
	sources := []model.SourceEntry{}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"Z/gone.m4a": {RelPath: "Z/gone.m4a", Fingerprint: model.Fingerprint{SrcMD5: "zzzz"}},
		},
	}
	plan := Build(sources, dest, pol)
	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %+v", plan.Actions)
	}
	a := plan.Actions[0]
	if a.Kind != model.ActionPrune || a.DstRel != "Z/gone.m4a" {
		t.Errorf("got %+v", a)
	}
}

func TestBuild_EncoderMismatchWithPathDriftPrunesStaleOutput(t *testing.T) {
	// Source s (md5 "mmmm") candidate-collides with an unrelated existing
	// destination entry at "A/song.m4a", so the resolver bumps its target
	// to "A/song (2).m4a". Its actual content match, "Z/old.m4a", carries
	// an old encoder, so decideContentMatch converts at the bumped target
	// rather than at "Z/old.m4a" — leaving "Z/old.m4a" unclaimed even
	// though s's own audio_md5 ("mmmm") is still present in the source
	// tree. It must still be pruned.
	pol := testPolicy()
	pol.Prune = true
	sources := []model.SourceEntry{{RelPath: "A/song.flac", AudioMD5: "mmmm"}}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"A/song.m4a": {RelPath: "A/song.m4a"},
			"Z/old.m4a":  {RelPath: "Z/old.m4a", Fingerprint: model.Fingerprint{SrcMD5: "mmmm", Encoder: "qaac", Quality: pol.Quality}},
		},
		ByMD5: map[string][]model.OutputEntry{
			"mmmm": {{RelPath: "Z/old.m4a", Fingerprint: model.Fingerprint{SrcMD5: "mmmm", Encoder: "qaac", Quality: pol.Quality}}},
		},
	}
	plan := Build(sources, dest, pol)

	convert := findAction(t, plan, "A/song (2).m4a")
	if convert.Kind != model.ActionConvert || convert.Reason != model.ReasonEncoderMismatch {
		t.Fatalf("got %+v", convert)
	}

	var pruned bool
	for _, a := range plan.Actions {
		if a.Kind == model.ActionPrune && a.DstRel == "Z/old.m4a" {
			pruned = true
		}
	}
	if !pruned {
		t.Errorf("expected Z/old.m4a to be pruned as an orphan, got %+v", plan.Actions)
	}
}

func TestBuild_UnknownProvenanceNeverAutoPruned(t *testing.T) {
	pol := testPolicy()
	pol.Prune = true
	sources := []model.SourceEntry{}
	dest := destindex.Index{
		ByRel: map[string]model.OutputEntry{
			"Z/mystery.m4a": {RelPath: "Z/mystery.m4a"}, // no fingerprint at all
		},
	}
	plan := Build(sources, dest, pol)
	if len(plan.Actions) != 0 {
		t.Errorf("expected no prune action for unfingerprinted output, got %+v", plan.Actions)
	}
}

func TestBuild_Determinism(t *testing.T) {
	pol := testPolicy()
	sources := []model.SourceEntry{
		{RelPath: "B/two.flac", AudioMD5: "bb"},
		{RelPath: "A/one.flac", AudioMD5: "aa"},
	}
	dest := destindex.Index{ByRel: map[string]model.OutputEntry{}}
	p1 := Build(sources, dest, pol)
	p2 := Build(sources, dest, pol)
	if len(p1.Actions) != len(p2.Actions) {
		t.Fatalf("non-deterministic action counts")
	}
	for i := range p1.Actions {
		if p1.Actions[i] != p2.Actions[i] {
			t.Errorf("action %d differs between runs: %+v vs %+v", i, p1.Actions[i], p2.Actions[i])
		}
	}
}
