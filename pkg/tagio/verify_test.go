package tagio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeForCompare(t *testing.T) {
	if got, want := normalizeForCompare("  Café "), "Café"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func simpleBoxForTest(boxType string, payload []byte) []byte {
	var buf bytes.Buffer
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(8+len(payload)))
	buf.Write(size[:])
	buf.WriteString(boxType)
	buf.Write(payload)
	return buf.Bytes()
}

func buildMinimalM4AForVerify(t *testing.T) string {
	t.Helper()
	ftyp := simpleBoxForTest("ftyp", []byte("M4A mp42isom"))
	moov := simpleBoxForTest("moov", nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.m4a")
	if err := os.WriteFile(path, append(ftyp, moov...), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestVerifyAgainstSource_CleanMatch(t *testing.T) {
	path := buildMinimalM4AForVerify(t)
	src := TagTable{Title: "Song", Artist: "Band", Album: "Record"}
	if err := WriteStandardTags(path, src); err != nil {
		t.Fatalf("WriteStandardTags: %v", err)
	}

	mismatches, err := VerifyAgainstSource(path, src, false)
	if err != nil {
		t.Fatalf("VerifyAgainstSource: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches, got %v", mismatches)
	}
}

func TestVerifyAgainstSource_TitleDrift(t *testing.T) {
	path := buildMinimalM4AForVerify(t)
	written := TagTable{Title: "Song", Artist: "Band", Album: "Record"}
	if err := WriteStandardTags(path, written); err != nil {
		t.Fatalf("WriteStandardTags: %v", err)
	}

	drifted := written
	drifted.Title = "Different Song"
	mismatches, err := VerifyAgainstSource(path, drifted, false)
	if err != nil {
		t.Fatalf("VerifyAgainstSource: %v", err)
	}
	if len(mismatches) != 1 || mismatches[0] != "title mismatch" {
		t.Errorf("got %v, want [title mismatch]", mismatches)
	}
}

func TestVerifyAgainstSource_MissingCoverArt(t *testing.T) {
	path := buildMinimalM4AForVerify(t)
	src := TagTable{Title: "Song"}
	if err := WriteStandardTags(path, src); err != nil {
		t.Fatalf("WriteStandardTags: %v", err)
	}

	mismatches, err := VerifyAgainstSource(path, src, true)
	if err != nil {
		t.Fatalf("VerifyAgainstSource: %v", err)
	}
	if len(mismatches) != 1 || mismatches[0] != "cover art missing" {
		t.Errorf("got %v, want [cover art missing]", mismatches)
	}
}
