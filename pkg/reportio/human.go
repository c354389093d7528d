// Package reportio renders plans and run summaries for the CLI: a plan
// table before execution, a live progress bar during it, and a final
// summary table afterward. It has no opinion on what the core decided,
// only on how to show it.
package reportio

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Bytes formats a byte count the way a human reads a file listing.
func Bytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

// Duration formats an elapsed run or per-file time at a resolution that
// fits the magnitude: sub-second actions get milliseconds, longer ones
// round to the second.
func Duration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Second).String()
}

// Count formats an integer with thousands separators, for run-summary
// totals large enough that a bare number is hard to read.
func Count(n int) string {
	return humanize.Comma(int64(n))
}
