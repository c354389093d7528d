package destindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pacmirror/pac/pkg/tagio/mp4tag"
	"github.com/pacmirror/pac/pkg/model"
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
	// A bare ftyp+moov+mdat skeleton is enough for mp4tag to attach a
	// fingerprint to; content doesn't need to be playable audio.
	var full []byte
	full = append(full, box("ftyp", []byte("M4A isom"))...)
	full = append(full, box("moov", nil)...)
	full = append(full, box("mdat", []byte("HELLO"))...)
	if err := os.WriteFile(path, full, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestBuild_ByRelAndByMD5(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "Artist", "Album"), 0o755); err != nil {
		t.Fatal(err)
	}
	p1 := filepath.Join(dir, "Artist", "Album", "Track1.m4a")
	p2 := filepath.Join(dir, "Artist", "Album", "Track2.m4a")
	writeMinimalM4A(t, p1)
	writeMinimalM4A(t, p2)

	if err := mp4tag.WriteFingerprint(p1, model.Fingerprint{SrcMD5: "aaa", Encoder: "aac_at", Quality: "5", Version: "0.1.0", SourceRel: "Artist/Album/Track1.flac"}); err != nil {
		t.Fatalf("WriteFingerprint p1: %v", err)
	}

	idx, err := Build(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.ByRel) != 2 {
		t.Fatalf("expected 2 ByRel entries, got %d", len(idx.ByRel))
	}
	entry, ok := idx.PreferredByMD5("aaa")
	if !ok {
		t.Fatal("expected md5 aaa to be indexed")
	}
	if entry.RelPath != "Artist/Album/Track1.m4a" {
		t.Errorf("unexpected rel path %q", entry.RelPath)
	}

	if _, ok := idx.PreferredByMD5("nonexistent"); ok {
		t.Error("expected no match for unindexed md5")
	}
}

func TestBuild_SkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeMinimalM4A(t, filepath.Join(dir, ".hidden.m4a"))
	writeMinimalM4A(t, filepath.Join(dir, "visible.m4a"))

	idx, err := Build(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.ByRel) != 1 {
		t.Errorf("expected 1 entry (hidden file skipped), got %d", len(idx.ByRel))
	}
}
