package reportio

import (
	"testing"
	"time"
)

func TestBytes_FormatsHumanSizes(t *testing.T) {
	if got := Bytes(1500000); got == "" {
		t.Fatal("expected non-empty formatted size")
	}
}

func TestDuration_SubSecondUsesMilliseconds(t *testing.T) {
	if got := Duration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("Duration(250ms) = %q, want 250ms", got)
	}
}

func TestDuration_RoundsToSeconds(t *testing.T) {
	if got := Duration(90 * time.Second); got != "1m30s" {
		t.Errorf("Duration(90s) = %q, want 1m30s", got)
	}
}

func TestCount_AddsThousandsSeparators(t *testing.T) {
	if got := Count(12345); got != "12,345" {
		t.Errorf("Count(12345) = %q, want 12,345", got)
	}
}
