package flacmeta

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// buildFLAC assembles a minimal synthetic FLAC header: magic + one
// STREAMINFO block (marked last) carrying the given 16-byte MD5.
func buildFLAC(md5 []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("fLaC")

	payload := make([]byte, streamInfoLen)
	copy(payload[len(payload)-16:], md5)

	header := []byte{
		0x80 | blockTypeStreamInfo, // last-block flag set
		byte(len(payload) >> 16),
		byte(len(payload) >> 8),
		byte(len(payload)),
	}
	buf.Write(header)
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadAudioMD5FromReader_Present(t *testing.T) {
	want := bytes.Repeat([]byte{0xab}, 16)
	data := buildFLAC(want)

	got, err := ReadAudioMD5FromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != hex.EncodeToString(want) {
		t.Errorf("got %q, want %q", got, hex.EncodeToString(want))
	}
}

func TestReadAudioMD5FromReader_ZeroSentinel(t *testing.T) {
	data := buildFLAC(make([]byte, 16))

	got, err := ReadAudioMD5FromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty string for zero-sentinel MD5, got %q", got)
	}
}

func TestReadAudioMD5FromReader_NotFLAC(t *testing.T) {
	_, err := ReadAudioMD5FromReader(bytes.NewReader([]byte("not a flac file at all")))
	if err != ErrNotFLAC {
		t.Errorf("got err=%v, want ErrNotFLAC", err)
	}
}

func TestReadAudioMD5FromReader_Truncated(t *testing.T) {
	data := buildFLAC(bytes.Repeat([]byte{0x11}, 16))
	truncated := data[:len(data)-10]

	_, err := ReadAudioMD5FromReader(bytes.NewReader(truncated))
	if err == nil {
		t.Errorf("expected an error for a truncated STREAMINFO block")
	}
}

func TestReadAudioMD5FromReader_SkipsPrecedingBlocks(t *testing.T) {
	want := bytes.Repeat([]byte{0x7c}, 16)

	var buf bytes.Buffer
	buf.WriteString("fLaC")

	// A non-last PADDING block (type 1) of 8 bytes, then STREAMINFO last.
	buf.Write([]byte{0x01, 0x00, 0x00, 0x08})
	buf.Write(make([]byte, 8))

	payload := make([]byte, streamInfoLen)
	copy(payload[len(payload)-16:], want)
	buf.Write([]byte{0x80 | blockTypeStreamInfo, 0x00, 0x00, byte(len(payload))})
	buf.Write(payload)

	got, err := ReadAudioMD5FromReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != hex.EncodeToString(want) {
		t.Errorf("got %q, want %q", got, hex.EncodeToString(want))
	}
}
