// Package planner implements the stateless reconciliation algorithm: given
// the source scan, the destination index, and the run policy, it derives
// the minimal action set that brings the destination tree into agreement
// with the source tree, per §4.4. It is grounded on
// original_source/src/pac/planner.py, generalized from that prototype's ad
// hoc branch tree into the decision procedure §4.4.2 specifies exactly.
package planner

import (
	"sort"

	"github.com/pacmirror/pac/pkg/destindex"
	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/pathutil"
	"github.com/pacmirror/pac/pkg/policy"
)

// Plan is the ordered, deterministic action list one planning pass
// produces. Running Plan twice on the same inputs yields an equal Plan
// (§3's determinism invariant).
type Plan struct {
	Actions []model.PlanAction
}

// Build derives the plan from the current source scan, destination index,
// and run policy. Sources are iterated in sorted rel_path order so
// collision resolution and orphan detection are deterministic (§4.4.4).
func Build(sources []model.SourceEntry, dest destindex.Index, pol policy.Policy) Plan {
	sorted := make([]model.SourceEntry, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelPath < sorted[j].RelPath })

	destExt := pol.Codec.Ext()
	resolver := pathutil.NewCollisionResolver(existingRelPaths(dest))

	var actions []model.PlanAction
	used := make(map[string]bool)

	for _, s := range sorted {
		candidate := pathutil.CandidateRel(s.RelPath, destExt)
		// An output already at candidate that this source reuses or
		// supersedes (its own content match, or a path match when its
		// content lives nowhere else) is not a collision.
		if _, occupied := dest.ByRel[candidate]; occupied {
			if o, matched := preferredForTarget(dest, s.AudioMD5, candidate); !matched || o.RelPath == candidate {
				resolver.ReleaseExisting(candidate)
			}
		}
		dTarget := resolver.Resolve(candidate)

		var action model.PlanAction
		if pol.ForceReencode {
			action = model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonForceReencode, Source: s, DstRel: dTarget}
		} else {
			action = decide(s, dTarget, dest, pol)
		}

		switch action.Kind {
		case model.ActionRename:
			used[action.FromRel] = true
		case model.ActionConvert, model.ActionRetag, model.ActionSkip:
			used[action.DstRel] = true
		}
		actions = append(actions, action)
	}

	if pol.Prune {
		actions = append(actions, pruneOrphans(dest, used)...)
	}

	return Plan{Actions: actions}
}

func existingRelPaths(dest destindex.Index) []string {
	paths := make([]string, 0, len(dest.ByRel))
	for rel := range dest.ByRel {
		paths = append(paths, rel)
	}
	return paths
}

// decide applies §4.4.2's per-source decision procedure.
func decide(s model.SourceEntry, dTarget string, dest destindex.Index, pol policy.Policy) model.PlanAction {
	// Step 1: match by content.
	if s.HasAudioMD5() {
		if o, ok := preferredForTarget(dest, s.AudioMD5, dTarget); ok {
			return decideContentMatch(s, dTarget, o, pol)
		}
	}

	// Step 2: no content match, but the target path is already occupied.
	if o, ok := dest.ByRel[dTarget]; ok {
		return decidePathMatch(s, dTarget, o, pol)
	}

	// Step 1 continued: content matched somewhere, but not at dTarget, and
	// nothing occupies dTarget — rename in place.
	if s.HasAudioMD5() {
		if o, ok := dest.PreferredByMD5(s.AudioMD5); ok {
			if o.Fingerprint.Encoder == pol.EncoderID && o.Fingerprint.Quality == pol.Quality {
				return model.PlanAction{Kind: model.ActionRename, Reason: model.ReasonPathDrift, Source: s, FromRel: o.RelPath, DstRel: dTarget}
			}
			return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonEncoderMismatch, Source: s, DstRel: dTarget}
		}
	}

	// Step 3: no content match, no path match.
	return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonColdConvert, Source: s, DstRel: dTarget}
}

// preferredForTarget selects, among the outputs sharing s's audio MD5, the
// one whose rel_path equals dTarget if present; else the lexicographically
// smallest (destindex.Index.ByMD5 is already sorted that way), per §4.4.2
// step 1's "select the one whose rel_path equals d_target if present".
func preferredForTarget(dest destindex.Index, md5, dTarget string) (model.OutputEntry, bool) {
	group := dest.ByMD5[md5]
	if len(group) == 0 {
		return model.OutputEntry{}, false
	}
	for _, o := range group {
		if o.RelPath == dTarget {
			return o, true
		}
	}
	return group[0], true
}

func decideContentMatch(s model.SourceEntry, dTarget string, o model.OutputEntry, pol policy.Policy) model.PlanAction {
	fp := o.Fingerprint
	if fp.Encoder == pol.EncoderID && fp.Quality == pol.Quality {
		if o.RelPath == dTarget {
			if needsStampRefresh(fp, s, pol) {
				return model.PlanAction{Kind: model.ActionRetag, Reason: model.ReasonStampRefresh, Source: s, DstRel: dTarget}
			}
			return model.PlanAction{Kind: model.ActionSkip, Reason: model.ReasonUpToDate, Source: s, DstRel: dTarget}
		}
		return model.PlanAction{Kind: model.ActionRename, Reason: model.ReasonPathDrift, Source: s, FromRel: o.RelPath, DstRel: dTarget}
	}
	return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonEncoderMismatch, Source: s, DstRel: dTarget}
}

// needsStampRefresh implements §4.4.2 rule 5: a would-be Skip upgrades to
// Retag when the fingerprint's version or source_rel has drifted from the
// current run, even though src_md5/encoder/quality all still match.
func needsStampRefresh(fp model.Fingerprint, s model.SourceEntry, pol policy.Policy) bool {
	if fp.Version != pol.Version {
		return true
	}
	if fp.SourceRel != s.RelPath {
		return true
	}
	return false
}

func decidePathMatch(s model.SourceEntry, dTarget string, o model.OutputEntry, pol policy.Policy) model.PlanAction {
	if o.Legacy() {
		if pol.Adopt {
			return model.PlanAction{Kind: model.ActionRetag, Reason: model.ReasonLegacyAdopt, Source: s, DstRel: dTarget}
		}
		return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonLegacyOverwrite, Source: s, DstRel: dTarget}
	}

	if s.HasAudioMD5() && o.Fingerprint.SrcMD5 != s.AudioMD5 {
		return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonContentSwap, Source: s, DstRel: dTarget}
	}

	// Fingerprinted, matching src_md5 (or source's audio_md5 unreadable):
	// weak identity, cannot be sure — prefer Convert per §4.4.2 step 2's
	// third bullet.
	return model.PlanAction{Kind: model.ActionConvert, Reason: model.ReasonWeakIdentityStale, Source: s, DstRel: dTarget}
}

// pruneOrphans implements §4.4.3 literally: every destination output not
// claimed by any action (not in used) is an orphan, full stop. Outputs
// with no fingerprint at all are never auto-pruned (unknown provenance) —
// that is the only exemption §4.4.3 grants. A source's audio_md5 being
// present elsewhere in the tree does not exempt an unclaimed output: a
// superseded encoder/quality output at a stale path is an orphan candidate
// per §4.4.2 step 1 even when the same content lives on at its *new*
// target path.
func pruneOrphans(dest destindex.Index, used map[string]bool) []model.PlanAction {
	rels := make([]string, 0, len(dest.ByRel))
	for rel := range dest.ByRel {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	var actions []model.PlanAction
	for _, rel := range rels {
		if used[rel] {
			continue
		}
		o := dest.ByRel[rel]
		if o.Fingerprint.SrcMD5 == "" {
			continue
		}
		actions = append(actions, model.PlanAction{Kind: model.ActionPrune, Reason: model.ReasonOrphanPruned, DstRel: rel})
	}
	return actions
}
