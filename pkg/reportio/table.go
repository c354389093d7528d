package reportio

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pacmirror/pac/pkg/model"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// PlanTable renders the actions a plan intends to take, for "pac plan"'s
// dry-run output. Skip actions with ReasonUpToDate are the overwhelming
// majority on a steady-state tree, so they're collapsed into the trailing
// count rather than printed one row per file.
func PlanTable(actions []model.PlanAction) string {
	headers := []string{"ACTION", "PATH", "REASON"}
	rows := make([][]string, 0, len(actions))
	upToDate := 0

	for _, a := range actions {
		if a.Kind == model.ActionSkip && a.Reason == model.ReasonUpToDate {
			upToDate++
			continue
		}
		path := a.DstRel
		if a.Kind == model.ActionRename {
			path = a.FromRel + " -> " + a.DstRel
		}
		rows = append(rows, []string{string(a.Kind), path, string(a.Reason)})
	}

	out := renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
	if upToDate > 0 {
		out += "\n" + Count(upToDate) + " file(s) already up to date, not shown"
	}
	return out
}

// FailureTable renders the failed events of a run summary, the detail
// behind the one-line counts in SummaryTable.
func FailureTable(events []model.EventRecord) string {
	headers := []string{"PATH", "KIND", "ERROR"}
	rows := make([][]string, 0)
	for _, ev := range events {
		if ev.Status != model.StatusFailed {
			continue
		}
		errText := ""
		if ev.Err != nil {
			errText = ev.Err.Error()
		}
		rows = append(rows, []string{ev.DestRel, string(ev.Err.Kind), errText})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
}

// SummaryTable renders the run-summary counters produced after Execute
// completes, one row per action kind plus elapsed wall time.
func SummaryTable(summary *model.RunSummary) string {
	headers := []string{"METRIC", "COUNT"}
	rows := [][]string{
		{"converted", Count(summary.Stats.Converted)},
		{"renamed", Count(summary.Stats.Renamed)},
		{"retagged", Count(summary.Stats.Retagged)},
		{"skipped", Count(summary.Stats.Skipped)},
		{"pruned", Count(summary.Stats.Pruned)},
		{"failed", Count(summary.Stats.Failed)},
		{"duration", Duration(summary.Duration)},
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignRight})
}
