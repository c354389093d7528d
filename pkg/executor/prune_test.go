package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pacmirror/pac/pkg/model"
)

func TestRunPrune_RemovesOrphan(t *testing.T) {
	destRoot := t.TempDir()
	relPath := "Artist/Album/gone.m4a"
	abs := filepath.Join(destRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &worker{destRoot: destRoot}
	action := model.PlanAction{Kind: model.ActionPrune, Reason: model.ReasonOrphanPruned, DstRel: relPath}

	if actionErr := w.runPrune(context.Background(), action); actionErr != nil {
		t.Fatalf("runPrune: %v", actionErr)
	}
	if _, err := os.Stat(abs); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got err=%v", err)
	}
	if _, err := os.Stat(filepath.Dir(abs)); err != nil {
		t.Fatalf("expected parent directory to survive: %v", err)
	}
}

func TestRunPrune_AlreadyGoneIsNotAnError(t *testing.T) {
	destRoot := t.TempDir()
	w := &worker{destRoot: destRoot}
	action := model.PlanAction{Kind: model.ActionPrune, DstRel: "missing.m4a"}
	if actionErr := w.runPrune(context.Background(), action); actionErr != nil {
		t.Fatalf("expected no error for already-missing file, got %v", actionErr)
	}
}
