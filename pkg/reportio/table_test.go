package reportio

import (
	"strings"
	"testing"

	"github.com/pacmirror/pac/pkg/model"
)

func TestPlanTable_CollapsesUpToDateActions(t *testing.T) {
	actions := []model.PlanAction{
		{Kind: model.ActionSkip, DstRel: "A/song.m4a", Reason: model.ReasonUpToDate},
		{Kind: model.ActionSkip, DstRel: "B/song.m4a", Reason: model.ReasonUpToDate},
		{Kind: model.ActionConvert, DstRel: "C/song.m4a", Reason: model.ReasonColdConvert},
	}

	out := PlanTable(actions)
	if !strings.Contains(out, "convert") {
		t.Errorf("expected convert row in output:\n%s", out)
	}
	if strings.Contains(out, "A/song.m4a") {
		t.Errorf("expected up-to-date skip rows to be collapsed, got:\n%s", out)
	}
	if !strings.Contains(out, "2 file(s) already up to date") {
		t.Errorf("expected collapsed count line, got:\n%s", out)
	}
}

func TestPlanTable_RendersRenameFromTo(t *testing.T) {
	actions := []model.PlanAction{
		{Kind: model.ActionRename, FromRel: "old/song.m4a", DstRel: "new/song.m4a", Reason: model.ReasonPathDrift},
	}
	out := PlanTable(actions)
	if !strings.Contains(out, "old/song.m4a -> new/song.m4a") {
		t.Errorf("expected rename arrow in output:\n%s", out)
	}
}

func TestSummaryTable_ReportsCounts(t *testing.T) {
	summary := &model.RunSummary{
		Stats: model.Stats{Converted: 3, Failed: 1},
	}
	out := SummaryTable(summary)
	if !strings.Contains(out, "converted") || !strings.Contains(out, "3") {
		t.Errorf("expected converted count in output:\n%s", out)
	}
	if !strings.Contains(out, "failed") || !strings.Contains(out, "1") {
		t.Errorf("expected failed count in output:\n%s", out)
	}
}

func TestFailureTable_OnlyIncludesFailedEvents(t *testing.T) {
	events := []model.EventRecord{
		{DestRel: "ok.m4a", Status: model.StatusSucceeded},
		{DestRel: "bad.m4a", Status: model.StatusFailed, Err: &model.ActionError{Kind: model.ErrEncodeFailed, Err: nil}},
	}
	out := FailureTable(events)
	if strings.Contains(out, "ok.m4a") {
		t.Errorf("expected succeeded event to be excluded, got:\n%s", out)
	}
	if !strings.Contains(out, "bad.m4a") || !strings.Contains(out, string(model.ErrEncodeFailed)) {
		t.Errorf("expected failed event with kind, got:\n%s", out)
	}
}
