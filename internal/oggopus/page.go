// Package oggopus implements just enough of the Ogg container and the Opus
// comment-header packet to read and rewrite PAC_* Vorbis comments in-place.
// No actively maintained third-party Go library exposes safe, in-place
// growth of an Ogg comment header while preserving the rest of the
// bitstream (decode-only libraries are common; encoders are not), so this
// narrow binary transform is implemented directly on the standard library
// per the corpus's own precedent of hand-rolled binary parsing for FLAC
// STREAMINFO (see pkg/flacmeta).
package oggopus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	// ErrNotOgg is returned when the stream does not begin with the Ogg
	// capture pattern.
	ErrNotOgg = errors.New("oggopus: not an Ogg stream")
	// ErrNotOpus is returned when the first packet is not an OpusHead.
	ErrNotOpus = errors.New("oggopus: not an Opus stream")
)

const (
	capturePattern = "OggS"
	headerBaseLen  = 27 // through page_segments, exclusive of the segment table
)

// page is one physical Ogg page.
type page struct {
	version         byte
	headerType      byte
	granulePosition int64
	serial          uint32
	sequence        uint32
	segments        []byte
	data            []byte
}

const (
	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

func readPages(r io.Reader) ([]page, error) {
	var pages []page
	for {
		var hdr [headerBaseLen]byte
		_, err := io.ReadFull(r, hdr[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if string(hdr[0:4]) != capturePattern {
			return nil, ErrNotOgg
		}
		p := page{
			version:         hdr[4],
			headerType:      hdr[5],
			granulePosition: int64(binary.LittleEndian.Uint64(hdr[6:14])),
			serial:          binary.LittleEndian.Uint32(hdr[14:18]),
			sequence:        binary.LittleEndian.Uint32(hdr[18:22]),
			// hdr[22:26] is the page CRC; it is not checked on read
			// (writePage recomputes it on write).
		}
		numSegs := int(hdr[26])
		p.segments = make([]byte, numSegs)
		if _, err := io.ReadFull(r, p.segments); err != nil {
			return nil, err
		}
		total := 0
		for _, s := range p.segments {
			total += int(s)
		}
		p.data = make([]byte, total)
		if _, err := io.ReadFull(r, p.data); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// lace splits packet data into 255-byte lacing segments, terminated by a
// value < 255 (a trailing zero-length segment if the packet length is an
// exact multiple of 255), per the Ogg framing rules.
func lace(data []byte) []byte {
	var segs []byte
	n := len(data)
	for n >= 255 {
		segs = append(segs, 255)
		n -= 255
	}
	segs = append(segs, byte(n))
	return segs
}

func writePage(w io.Writer, p page) error {
	var hdr bytes.Buffer
	hdr.WriteString(capturePattern)
	hdr.WriteByte(p.version)
	hdr.WriteByte(p.headerType)
	var gp [8]byte
	binary.LittleEndian.PutUint64(gp[:], uint64(p.granulePosition))
	hdr.Write(gp[:])
	var serial, seq [4]byte
	binary.LittleEndian.PutUint32(serial[:], p.serial)
	binary.LittleEndian.PutUint32(seq[:], p.sequence)
	hdr.Write(serial[:])
	hdr.Write(seq[:])
	hdr.Write([]byte{0, 0, 0, 0}) // CRC placeholder
	hdr.WriteByte(byte(len(p.segments)))
	hdr.Write(p.segments)
	hdr.Write(p.data)

	full := hdr.Bytes()
	crc := oggCRC32(full)
	binary.LittleEndian.PutUint32(full[22:26], crc)

	_, err := w.Write(full)
	return err
}

// buildPagesForPacket splits a single logical packet into one or more pages
// (only needed when it exceeds 255*255 bytes per page), preserving serial
// and assigning sequential page numbers starting at startSeq. headerType
// flags (BOS/EOS) are applied only to the first/last page respectively via
// the caller.
func buildPagesForPacket(packet []byte, serial uint32, startSeq uint32) []page {
	const maxSegs = 255
	var pages []page
	seq := startSeq
	offset := 0
	for {
		remaining := packet[offset:]
		segs := lace(remaining)
		if len(segs) > maxSegs {
			// Truncate to a full page's worth (255 segments of 255 bytes),
			// forcing continuation onto the next page.
			segs = segs[:maxSegs]
			for i := range segs {
				segs[i] = 255
			}
		}
		dataLen := 0
		for _, s := range segs {
			dataLen += int(s)
		}
		data := remaining[:dataLen]
		pages = append(pages, page{
			version:  0,
			sequence: seq,
			serial:   serial,
			segments: segs,
			data:     data,
		})
		offset += dataLen
		seq++
		if offset >= len(packet) {
			break
		}
	}
	return pages
}
