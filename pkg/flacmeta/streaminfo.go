// Package flacmeta reads the FLAC STREAMINFO metadata block directly from
// the container header, without decoding any audio frames.
package flacmeta

import (
	"encoding/hex"
	"errors"
	"io"
	"os"
)

var (
	flacMagic = [4]byte{'f', 'L', 'a', 'C'}

	// ErrNotFLAC is returned when the file does not start with the FLAC
	// stream marker.
	ErrNotFLAC = errors.New("flacmeta: not a FLAC stream")

	// ErrNoStreamInfo is returned when the STREAMINFO block is missing or
	// truncated.
	ErrNoStreamInfo = errors.New("flacmeta: missing or truncated STREAMINFO block")

	zeroMD5 = make([]byte, 16)
)

const (
	blockTypeStreamInfo = 0
	streamInfoLen       = 34 // fixed length per the FLAC format
)

// ReadAudioMD5 opens path and extracts the last 16 bytes of the STREAMINFO
// payload (the audio-MD5 field), returned as 32-char lowercase hex.
//
// Returns ("", nil) when the block is present but the MD5 is the all-zero
// sentinel FLAC uses for "unset". Returns ("", err) on any structural
// problem; callers treat that as a per-file ScanIoError and fall back to
// weak identity.
func ReadAudioMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ReadAudioMD5FromReader(f)
}

// ReadAudioMD5FromReader parses the FLAC header from r, which must be
// positioned at the start of the stream.
func ReadAudioMD5FromReader(r io.Reader) (string, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return "", err
	}
	if magic != flacMagic {
		return "", ErrNotFLAC
	}

	for {
		var header [4]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return "", ErrNoStreamInfo
		}
		last := header[0]&0x80 != 0
		blockType := header[0] & 0x7f
		length := int(header[1])<<16 | int(header[2])<<8 | int(header[3])

		if blockType == blockTypeStreamInfo {
			if length < streamInfoLen {
				return "", ErrNoStreamInfo
			}
			payload := make([]byte, length)
			if _, err := io.ReadFull(r, payload); err != nil {
				return "", ErrNoStreamInfo
			}
			md5 := payload[length-16:]
			if bytesEqual(md5, zeroMD5) {
				return "", nil
			}
			return hex.EncodeToString(md5), nil
		}

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return "", ErrNoStreamInfo
		}
		if last {
			return "", ErrNoStreamInfo
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
