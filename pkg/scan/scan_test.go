package scan

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFlac(t *testing.T, path string, md5 []byte) {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	payload := make([]byte, 34)
	copy(payload[len(payload)-16:], md5)
	buf.Write([]byte{0x80, 0x00, 0x00, byte(len(payload))})
	buf.Write(payload)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write flac: %v", err)
	}
}

func TestScanFlacTree(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "A"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFlac(t, filepath.Join(root, "A", "1.flac"), bytes.Repeat([]byte{0x01}, 16))
	writeFlac(t, filepath.Join(root, "A", "2.flac"), bytes.Repeat([]byte{0x02}, 16))
	if err := os.WriteFile(filepath.Join(root, "readme.txt"), []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".hidden"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFlac(t, filepath.Join(root, ".hidden", "3.flac"), bytes.Repeat([]byte{0x03}, 16))

	entries, err := ScanFlacTree(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanFlacTree: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].RelPath != "A/1.flac" || entries[1].RelPath != "A/2.flac" {
		t.Errorf("unexpected rel paths: %q, %q", entries[0].RelPath, entries[1].RelPath)
	}
	for _, e := range entries {
		if e.ScanErr != nil {
			t.Errorf("unexpected scan error for %s: %v", e.RelPath, e.ScanErr)
		}
		if e.AudioMD5 == "" {
			t.Errorf("expected audio md5 for %s", e.RelPath)
		}
	}
}

func TestScanFlacTree_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.flac", "a.flac", "m.flac"} {
		writeFlac(t, filepath.Join(root, name), bytes.Repeat([]byte{0x09}, 16))
	}

	entries, err := ScanFlacTree(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanFlacTree: %v", err)
	}
	want := []string{"a.flac", "m.flac", "z.flac"}
	for i, w := range want {
		if entries[i].RelPath != w {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].RelPath, w)
		}
	}
}
