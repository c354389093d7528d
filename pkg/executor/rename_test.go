package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pacmirror/pac/pkg/model"
	"github.com/pacmirror/pac/pkg/tagio/mp4tag"
)

func box(boxType string, payload []byte) []byte {
	body := append([]byte(boxType), payload...)
	size := len(body) + 4
	out := make([]byte, 4, 4+len(body))
	out[0] = byte(size >> 24)
	out[1] = byte(size >> 16)
	out[2] = byte(size >> 8)
	out[3] = byte(size)
	return append(out, body...)
}

func writeMinimalM4A(t *testing.T, path string) {
	t.Helper()
	var full []byte
	full = append(full, box("ftyp", []byte("M4A isom"))...)
	full = append(full, box("moov", nil)...)
	full = append(full, box("mdat", []byte("HELLO"))...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, full, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestRunRename_MovesFileAndPatchesSourceRel(t *testing.T) {
	destRoot := t.TempDir()
	fromRel := "B/old.m4a"
	toRel := "A/song.m4a"
	fromAbs := filepath.Join(destRoot, fromRel)
	writeMinimalM4A(t, fromAbs)

	if err := mp4tag.WriteFingerprint(fromAbs, model.Fingerprint{
		SrcMD5: "aaaa", Encoder: "libfdk_aac", Quality: "5", Version: "0.1.0", SourceRel: "B/old.flac",
	}); err != nil {
		t.Fatalf("seed fingerprint: %v", err)
	}

	w := &worker{destRoot: destRoot}
	action := model.PlanAction{
		Kind: model.ActionRename, Reason: model.ReasonPathDrift,
		Source: model.SourceEntry{RelPath: "A/song.flac", AudioMD5: "aaaa"},
		FromRel: fromRel, DstRel: toRel,
	}

	if actionErr := w.runRename(context.Background(), action); actionErr != nil {
		t.Fatalf("runRename: %v", actionErr)
	}

	toAbs := filepath.Join(destRoot, toRel)
	if _, err := os.Stat(toAbs); err != nil {
		t.Fatalf("expected renamed file to exist: %v", err)
	}
	if _, err := os.Stat(fromAbs); !os.IsNotExist(err) {
		t.Fatalf("expected old path gone, got err=%v", err)
	}

	fp, err := mp4tag.ReadFingerprint(toAbs)
	if err != nil {
		t.Fatalf("ReadFingerprint: %v", err)
	}
	if fp.SourceRel != "A/song.flac" {
		t.Errorf("source_rel = %q, want A/song.flac", fp.SourceRel)
	}
	if fp.SrcMD5 != "aaaa" || fp.Encoder != "libfdk_aac" {
		t.Errorf("unexpected fingerprint after rename: %+v", fp)
	}
}
