package executor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommit_RenamesPartIntoPlace(t *testing.T) {
	dir := t.TempDir()
	destAbs := filepath.Join(dir, "song.m4a")
	partAbs := partPath(destAbs)

	if err := os.WriteFile(partAbs, []byte("encoded"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := commit(partAbs, destAbs); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := os.Stat(destAbs); err != nil {
		t.Fatalf("expected destination to exist: %v", err)
	}
	if _, err := os.Stat(partAbs); !os.IsNotExist(err) {
		t.Fatalf("expected .part to be gone, got err=%v", err)
	}
}

func TestCleanupPart_RemovesDanglingPart(t *testing.T) {
	dir := t.TempDir()
	partAbs := filepath.Join(dir, "song.m4a.part")
	if err := os.WriteFile(partAbs, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}
	cleanupPart(partAbs)
	if _, err := os.Stat(partAbs); !os.IsNotExist(err) {
		t.Fatalf("expected part file removed, got err=%v", err)
	}
}

func TestCleanupPart_MissingFileIsNotFatal(t *testing.T) {
	cleanupPart(filepath.Join(t.TempDir(), "never-existed.part"))
}
