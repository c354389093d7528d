package oggopus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"strings"
)

const (
	opusHeadMagic = "OpusHead"
	opusTagsMagic = "OpusTags"
	vendorString  = "pac"
)

// ErrMalformedTags is returned when the OpusTags packet cannot be parsed.
var ErrMalformedTags = errors.New("oggopus: malformed OpusTags packet")

func parseOpusTags(packet []byte) (vendor string, comments []string, err error) {
	if len(packet) < 8 || string(packet[:8]) != opusTagsMagic {
		return "", nil, ErrMalformedTags
	}
	buf := packet[8:]
	if len(buf) < 4 {
		return "", nil, ErrMalformedTags
	}
	vlen := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < vlen+4 {
		return "", nil, ErrMalformedTags
	}
	vendor = string(buf[:vlen])
	buf = buf[vlen:]

	count := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	comments = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) < 4 {
			return "", nil, ErrMalformedTags
		}
		clen := binary.LittleEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < clen {
			return "", nil, ErrMalformedTags
		}
		comments = append(comments, string(buf[:clen]))
		buf = buf[clen:]
	}
	return vendor, comments, nil
}

func buildOpusTags(vendor string, comments []string) []byte {
	var buf bytes.Buffer
	buf.WriteString(opusTagsMagic)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(vendor)))
	buf.Write(u32[:])
	buf.WriteString(vendor)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(comments)))
	buf.Write(u32[:])
	for _, c := range comments {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(c)))
		buf.Write(u32[:])
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func commentsToMap(comments []string) map[string][]string {
	m := make(map[string][]string, len(comments))
	for _, c := range comments {
		key, val, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(key)
		m[key] = append(m[key], val)
	}
	return m
}

// readOpusFile parses pages, validates the ID header, and locates the page
// range occupied by the comment-header packet, returning the parsed
// (vendor, comments) along with enough page state to rewrite the file.
func readOpusFile(path string) (pages []page, commentEndPage int, vendor string, comments []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, "", nil, err
	}
	defer f.Close()

	pages, err = readPages(f)
	if err != nil {
		return nil, 0, "", nil, err
	}
	if len(pages) < 2 {
		return nil, 0, "", nil, ErrNotOpus
	}
	if len(pages[0].data) < 8 || string(pages[0].data[:8]) != opusHeadMagic {
		return nil, 0, "", nil, ErrNotOpus
	}

	var packetBuf bytes.Buffer
	end := -1
	for i := 1; i < len(pages); i++ {
		p := pages[i]
		offset := 0
		terminated := false
		for _, seg := range p.segments {
			packetBuf.Write(p.data[offset : offset+int(seg)])
			offset += int(seg)
			if seg < 255 {
				terminated = true
				break
			}
		}
		if terminated {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, 0, "", nil, ErrMalformedTags
	}

	vendor, comments, err = parseOpusTags(packetBuf.Bytes())
	if err != nil {
		return nil, 0, "", nil, err
	}
	return pages, end, vendor, comments, nil
}

// ReadTags returns every Vorbis comment in the Opus file's comment header,
// keyed by upper-cased comment name.
func ReadTags(path string) (map[string][]string, error) {
	_, _, _, comments, err := readOpusFile(path)
	if err != nil {
		return nil, err
	}
	return commentsToMap(comments), nil
}

// WriteTags upserts the given key/value pairs into the Opus comment header,
// preserving every other existing comment, and rewrites the file in place
// via a temporary file + rename so readers never observe a half-written
// container.
func WriteTags(path string, updates map[string]string) error {
	pages, commentEndPage, vendor, comments, err := readOpusFile(path)
	if err != nil {
		return err
	}

	applied := make(map[string]bool, len(updates))
	for i, c := range comments {
		key, _, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}
		upper := strings.ToUpper(key)
		if v, exists := updates[upper]; exists {
			comments[i] = upper + "=" + v
			applied[upper] = true
		}
	}
	for k, v := range updates {
		if !applied[k] {
			comments = append(comments, k+"="+v)
		}
	}

	newPacket := buildOpusTags(vendor, comments)
	serial := pages[0].serial
	newCommentPages := buildPagesForPacket(newPacket, serial, 1)
	for i := range newCommentPages {
		if i > 0 {
			newCommentPages[i].headerType |= flagContinued
		}
	}

	rest := pages[commentEndPage+1:]
	nextSeq := uint32(1 + len(newCommentPages))
	for i := range rest {
		rest[i].sequence = nextSeq
		nextSeq++
	}

	tmp := path + ".pacopustmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	headPage := pages[0]
	headPage.headerType |= flagBOS
	if werr := writePage(out, headPage); werr != nil {
		out.Close()
		os.Remove(tmp)
		return werr
	}
	for _, p := range newCommentPages {
		if werr := writePage(out, p); werr != nil {
			out.Close()
			os.Remove(tmp)
			return werr
		}
	}
	for _, p := range rest {
		if werr := writePage(out, p); werr != nil {
			out.Close()
			os.Remove(tmp)
			return werr
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
