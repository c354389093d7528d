package reportio

import (
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
)

// Progress drives a live counter of completed actions during Execute. On a
// non-interactive sink (piped output, CI logs) it renders nothing; the
// caller still gets the final summary table after the run.
type Progress struct {
	bar *pb.ProgressBar
}

// NewProgress starts a progress bar for total actions, or a no-op tracker
// when stdout is not a terminal.
func NewProgress(total int) *Progress {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return &Progress{}
	}

	tmpl := `{{ blue "pac" }} {{ counters . }} {{ bar . "[" "=" ">" " " "]" }} {{ percent . }} {{ etime . }}`
	bar := pb.ProgressBarTemplate(tmpl).Start(total)
	return &Progress{bar: bar}
}

// Increment records one completed action.
func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Finish stops the bar and leaves the terminal on a clean line.
func (p *Progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

// Line prints a single status line beneath (or in place of) the bar, for
// preflight/plan messages that precede execution.
func Line(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
