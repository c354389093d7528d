// Package mp4tag reads and writes the `----:org.pac:*` freeform atoms this
// tool embeds in MP4/M4A outputs (§4.5.4), and the standard `covr` atom
// (§4.5.3). It performs a minimal ISO-BMFF box walk itself — using
// github.com/abema/go-mp4 only for box-type identification — because the
// write path must splice new children into `moov/udta/meta/ilst` and then
// correct every `stco`/`co64` chunk-offset entry in `moov` by the resulting
// byte delta (the file's `mdat` payload is never touched or re-copied).
// This chunk-offset-correction technique is the standard approach real MP4
// tag editors use to avoid re-muxing the audio payload; no actively
// maintained Go library exposes it as a one-call API, so it is implemented
// directly here (see DESIGN.md).
package mp4tag

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	mp4 "github.com/abema/go-mp4"

	"github.com/pacmirror/pac/pkg/model"
)

var (
	// ErrNoMoov is returned when the file has no moov box at all.
	ErrNoMoov = errors.New("mp4tag: no moov box found")
)

const (
	meanPac    = "org.pac"
	dataTypeUTF8 = uint32(1)
)

var pacFields = []string{"src_md5", "encoder", "quality", "version", "source_rel"}

// box is a minimal in-memory box tree node: either a leaf with raw payload
// bytes, or a container with parsed children. Container detection follows
// the small set of box types this package ever needs to descend into.
type box struct {
	boxType  mp4.BoxType
	payload  []byte // leaf payload, excluding the 8-byte size+type header
	children []*box
	// extraHeader holds bytes that precede children in container boxes that
	// carry a fixed header before their child list (e.g. "meta"'s 4-byte
	// version/flags, full boxes' version/flags).
	extraHeader []byte
}

var containerTypes = map[string]int{
	"moov": 0, "trak": 0, "mdia": 0, "minf": 0, "stbl": 0, "udta": 0,
	"meta": 4, // version(1) + flags(3)
	"ilst": 0,
	"----": 0,
}

func readBox(r *bytes.Reader) (*box, error) {
	var sizeBuf [8]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(sizeBuf[0:4])
	bt := mp4.StrToBoxType(string(sizeBuf[4:8]))

	var body []byte
	bodyLen := int64(size) - 8
	if size == 1 {
		var largeSize [8]byte
		if _, err := io.ReadFull(r, largeSize[:]); err != nil {
			return nil, err
		}
		bodyLen = int64(binary.BigEndian.Uint64(largeSize[:])) - 16
	}
	body = make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	b := &box{boxType: bt}
	if hdrLen, isContainer := containerTypes[bt.String()]; isContainer {
		b.extraHeader = append([]byte(nil), body[:hdrLen]...)
		childReader := bytes.NewReader(body[hdrLen:])
		for childReader.Len() > 0 {
			child, err := readBox(childReader)
			if err != nil {
				return nil, err
			}
			b.children = append(b.children, child)
		}
	} else {
		b.payload = body
	}
	return b, nil
}

func (b *box) find(path ...string) *box {
	cur := b
	for _, name := range path {
		var next *box
		for _, c := range cur.children {
			if c.boxType.String() == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (b *box) encode() []byte {
	var buf bytes.Buffer
	if len(b.children) > 0 || containerTypeOf(b) {
		buf.Write(b.extraHeader)
		for _, c := range b.children {
			buf.Write(c.encode())
		}
	} else {
		buf.Write(b.payload)
	}
	body := buf.Bytes()

	var out bytes.Buffer
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(body)+8))
	out.Write(sizeBuf[:])
	out.WriteString(b.boxType.String())
	out.Write(body)
	return out.Bytes()
}

func containerTypeOf(b *box) bool {
	_, ok := containerTypes[b.boxType.String()]
	return ok
}

// buildFreeformAtom constructs a `----` atom with `mean`/`name`/`data`
// children for one org.pac field, matching the iTunes freeform-metadata
// convention MP4 taggers use for non-standard string fields.
func buildFreeformAtom(name, value string) *box {
	mean := &box{boxType: mp4.StrToBoxType("mean"), payload: append([]byte{0, 0, 0, 0}, []byte(meanPac)...)}
	nameBox := &box{boxType: mp4.StrToBoxType("name"), payload: append([]byte{0, 0, 0, 0}, []byte(name)...)}

	var dataPayload bytes.Buffer
	var typeAndLocale [8]byte
	binary.BigEndian.PutUint32(typeAndLocale[0:4], dataTypeUTF8)
	dataPayload.Write(typeAndLocale[:])
	dataPayload.WriteString(value)
	data := &box{boxType: mp4.StrToBoxType("data"), payload: dataPayload.Bytes()}

	return &box{
		boxType:  mp4.StrToBoxType("----"),
		children: []*box{mean, nameBox, data},
	}
}

func parseFreeformAtom(ff *box) (name, value string, ok bool) {
	meanBox := ff.find("mean")
	nameBoxV := ff.find("name")
	dataBox := ff.find("data")
	if meanBox == nil || nameBoxV == nil || dataBox == nil {
		return "", "", false
	}
	if len(meanBox.payload) < 4 || string(meanBox.payload[4:]) != meanPac {
		return "", "", false
	}
	if len(nameBoxV.payload) < 4 || len(dataBox.payload) < 8 {
		return "", "", false
	}
	return string(nameBoxV.payload[4:]), string(dataBox.payload[8:]), true
}

// ReadFingerprint extracts the five PAC_* freeform atoms from an MP4/M4A
// file. A zero Fingerprint (no error) means the atoms are absent (legacy
// output), matching §4.3's "absence is not an error" contract.
func ReadFingerprint(path string) (model.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Fingerprint{}, err
	}
	root, err := parseTopLevel(data)
	if err != nil {
		return model.Fingerprint{}, err
	}
	ilst := findIlst(root)
	if ilst == nil {
		return model.Fingerprint{}, nil
	}

	values := map[string]string{}
	for _, child := range ilst.children {
		if child.boxType.String() != "----" {
			continue
		}
		name, value, ok := parseFreeformAtom(child)
		if ok {
			values[name] = value
		}
	}

	return model.Fingerprint{
		SrcMD5:    values["src_md5"],
		Encoder:   values["encoder"],
		Quality:   values["quality"],
		Version:   values["version"],
		SourceRel: values["source_rel"],
	}, nil
}

// WriteFingerprint upserts the five PAC_* freeform atoms, creating the
// udta/meta/ilst chain if absent, and rewrites the file through a temporary
// path + atomic rename (§4.5.6).
func WriteFingerprint(path string, fp model.Fingerprint) error {
	return mutateIlst(path, func(ilst *box) {
		values := map[string]string{
			"src_md5":    fp.SrcMD5,
			"encoder":    fp.Encoder,
			"quality":    fp.Quality,
			"version":    fp.Version,
			"source_rel": fp.SourceRel,
		}
		for _, field := range pacFields {
			removeFreeformAtom(ilst, field)
			ilst.children = append(ilst.children, buildFreeformAtom(field, values[field]))
		}
	})
}

// StandardTags is the fixed set of MP4 standard atoms this tool translates
// from the source's tag model (§4.5.2). Zero-valued numeric fields are
// omitted rather than written as literal zeros.
type StandardTags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	TrackTotal  int
	DiscNumber  int
	DiscTotal   int
	Year        int
	Genre       string
	Compilation bool
	Comment     string
}

var textAtoms = map[string]func(StandardTags) string{
	"\xa9nam": func(t StandardTags) string { return t.Title },
	"\xa9ART": func(t StandardTags) string { return t.Artist },
	"\xa9alb": func(t StandardTags) string { return t.Album },
	"aART":    func(t StandardTags) string { return t.AlbumArtist },
	"\xa9gen": func(t StandardTags) string { return t.Genre },
	"\xa9cmt": func(t StandardTags) string { return t.Comment },
}

// WriteStandardTags upserts the standard MP4 metadata atoms for the fixed
// field set §4.5.2 defines. Fields absent in the source are left absent in
// the target rather than cleared, so a partial TagTable never wipes tags a
// prior run already wrote.
func WriteStandardTags(path string, t StandardTags) error {
	return mutateIlst(path, func(ilst *box) {
		for atomName, get := range textAtoms {
			if v := get(t); v != "" {
				removeStandardAtom(ilst, atomName)
				ilst.children = append(ilst.children, buildTextAtom(atomName, v))
			}
		}
		if t.Year != 0 {
			removeStandardAtom(ilst, "\xa9day")
			ilst.children = append(ilst.children, buildTextAtom("\xa9day", fmt.Sprintf("%04d", t.Year)))
		}
		if t.TrackNumber != 0 || t.TrackTotal != 0 {
			removeStandardAtom(ilst, "trkn")
			ilst.children = append(ilst.children, buildPairAtom("trkn", t.TrackNumber, t.TrackTotal))
		}
		if t.DiscNumber != 0 || t.DiscTotal != 0 {
			removeStandardAtom(ilst, "disk")
			ilst.children = append(ilst.children, buildPairAtom("disk", t.DiscNumber, t.DiscTotal))
		}
		if t.Compilation {
			removeStandardAtom(ilst, "cpil")
			ilst.children = append(ilst.children, buildFlagAtom("cpil", true))
		}
	})
}

// WriteCoverArt upserts the `covr` atom with the given image bytes.
func WriteCoverArt(path string, data []byte) error {
	return mutateIlst(path, func(ilst *box) {
		removeStandardAtom(ilst, "covr")
		var payload bytes.Buffer
		var typeAndLocale [8]byte
		binary.BigEndian.PutUint32(typeAndLocale[0:4], 13) // JPEG; PNG readers tolerate this loosely-typed field in practice
		payload.Write(typeAndLocale[:])
		payload.Write(data)
		ilst.children = append(ilst.children, &box{boxType: mp4.StrToBoxType("covr"), children: []*box{
			{boxType: mp4.StrToBoxType("data"), payload: payload.Bytes()},
		}})
	})
}

func buildTextAtom(atomName, value string) *box {
	var payload bytes.Buffer
	var typeAndLocale [8]byte
	binary.BigEndian.PutUint32(typeAndLocale[0:4], dataTypeUTF8)
	payload.Write(typeAndLocale[:])
	payload.WriteString(value)
	return &box{boxType: mp4.StrToBoxType(atomName), children: []*box{
		{boxType: mp4.StrToBoxType("data"), payload: payload.Bytes()},
	}}
}

func buildPairAtom(atomName string, n, total int) *box {
	// data box: 4-byte type code (0 = implicit/binary), 4-byte locale,
	// then the value: reserved(2) + n(2) + total(2) + reserved(2).
	payload := make([]byte, 16)
	binary.BigEndian.PutUint16(payload[10:12], uint16(n))
	binary.BigEndian.PutUint16(payload[12:14], uint16(total))
	return &box{boxType: mp4.StrToBoxType(atomName), children: []*box{
		{boxType: mp4.StrToBoxType("data"), payload: payload},
	}}
}

func buildFlagAtom(atomName string, on bool) *box {
	var payload [9]byte
	if on {
		payload[8] = 1
	}
	return &box{boxType: mp4.StrToBoxType(atomName), children: []*box{
		{boxType: mp4.StrToBoxType("data"), payload: payload[:]},
	}}
}

// ReadStandardTags reads back the title/artist/album text atoms written by
// WriteStandardTags, for §4.5.8's post-encode verification. Fields with no
// atom present come back empty.
func ReadStandardTags(path string) (StandardTags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StandardTags{}, err
	}
	root, err := parseTopLevel(data)
	if err != nil {
		return StandardTags{}, err
	}
	ilst := findIlst(root)
	if ilst == nil {
		return StandardTags{}, nil
	}

	textOf := func(atomName string) string {
		c := ilst.find(atomName)
		if c == nil || len(c.children) == 0 {
			return ""
		}
		d := c.children[0]
		if len(d.payload) <= 8 {
			return ""
		}
		return string(d.payload[8:])
	}
	return StandardTags{
		Title:  textOf("\xa9nam"),
		Artist: textOf("\xa9ART"),
		Album:  textOf("\xa9alb"),
	}, nil
}

// HasCoverArt reports whether the file carries a `covr` atom.
func HasCoverArt(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	root, err := parseTopLevel(data)
	if err != nil {
		return false, err
	}
	ilst := findIlst(root)
	if ilst == nil {
		return false, nil
	}
	return ilst.find("covr") != nil, nil
}

func removeStandardAtom(ilst *box, atomName string) {
	kept := ilst.children[:0]
	for _, c := range ilst.children {
		if c.boxType.String() == atomName {
			continue
		}
		kept = append(kept, c)
	}
	ilst.children = kept
}

// mutateIlst opens path, locates (creating if absent) moov/udta/meta/ilst,
// runs mutate against it, corrects chunk offsets for the resulting size
// delta, and rewrites the file through a `.part` temp file + atomic rename.
func mutateIlst(path string, mutate func(ilst *box)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	boxes, moovIdx, moovOffset, mdatOffset, err := parseTopLevelBoxes(data)
	if err != nil {
		return err
	}
	moov := boxes[moovIdx]
	originalMoovLen := len(moov.encode())

	udta := getOrCreateChild(moov, "udta")
	meta := getOrCreateChild(udta, "meta")
	if len(meta.extraHeader) == 0 {
		meta.extraHeader = []byte{0, 0, 0, 0}
	}
	ilst := getOrCreateChild(meta, "ilst")

	mutate(ilst)

	newMoovLen := len(moov.encode())
	delta := int64(newMoovLen - originalMoovLen)
	// mdat's absolute offset only shifts when moov precedes it in the
	// file (this tool's own faststart output). A legacy file with the
	// common mdat-before-moov layout leaves mdat untouched when moov
	// grows or shrinks, so its stco/co64 entries must not be adjusted.
	if delta != 0 && mdatOffset >= 0 && moovOffset < mdatOffset {
		adjustChunkOffsets(moov, delta)
	}

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	for _, b := range boxes {
		if _, werr := out.Write(b.encode()); werr != nil {
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

func parseTopLevel(data []byte) (*box, error) {
	boxes, moovIdx, _, _, err := parseTopLevelBoxes(data)
	if err != nil {
		return nil, err
	}
	return boxes[moovIdx], nil
}

func parseTopLevelBoxes(data []byte) (boxes []*box, moovIdx int, moovOffset, mdatOffset int64, err error) {
	r := bytes.NewReader(data)
	moovIdx = -1
	moovOffset = -1
	mdatOffset = -1
	offset := int64(0)
	for r.Len() > 0 {
		startOffset := offset
		b, berr := readBox(r)
		if berr != nil {
			return nil, -1, -1, -1, berr
		}
		if b.boxType.String() == "moov" {
			moovIdx = len(boxes)
			moovOffset = startOffset
		}
		if b.boxType.String() == "mdat" {
			mdatOffset = startOffset
		}
		offset = int64(len(data)) - int64(r.Len())
		boxes = append(boxes, b)
	}
	if moovIdx == -1 {
		return nil, -1, -1, -1, ErrNoMoov
	}
	return boxes, moovIdx, moovOffset, mdatOffset, nil
}

func findIlst(moov *box) *box {
	return moov.find("udta", "meta", "ilst")
}

func getOrCreateChild(parent *box, name string) *box {
	if c := parent.find(name); c != nil {
		return c
	}
	c := &box{boxType: mp4.StrToBoxType(name)}
	parent.children = append(parent.children, c)
	return c
}

func removeFreeformAtom(ilst *box, field string) {
	kept := ilst.children[:0]
	for _, c := range ilst.children {
		if c.boxType.String() == "----" {
			if name, _, ok := parseFreeformAtom(c); ok && name == field {
				continue
			}
		}
		kept = append(kept, c)
	}
	ilst.children = kept
}

// adjustChunkOffsets walks every stco/co64 box under moov and adds delta to
// each chunk offset, so sample data in mdat (left untouched) stays correctly
// addressed after moov's size changes.
func adjustChunkOffsets(moov *box, delta int64) {
	var walk func(b *box)
	walk = func(b *box) {
		switch b.boxType.String() {
		case "stco":
			adjustStco(b, delta)
		case "co64":
			adjustCo64(b, delta)
		}
		for _, c := range b.children {
			walk(c)
		}
	}
	walk(moov)
}

func adjustStco(b *box, delta int64) {
	if len(b.payload) < 8 {
		return
	}
	count := binary.BigEndian.Uint32(b.payload[4:8])
	for i := uint32(0); i < count; i++ {
		pos := 8 + i*4
		if int(pos+4) > len(b.payload) {
			break
		}
		v := binary.BigEndian.Uint32(b.payload[pos : pos+4])
		binary.BigEndian.PutUint32(b.payload[pos:pos+4], uint32(int64(v)+delta))
	}
}

func adjustCo64(b *box, delta int64) {
	if len(b.payload) < 8 {
		return
	}
	count := binary.BigEndian.Uint32(b.payload[4:8])
	for i := uint32(0); i < count; i++ {
		pos := 8 + i*8
		if int(pos+8) > len(b.payload) {
			break
		}
		v := binary.BigEndian.Uint64(b.payload[pos : pos+8])
		binary.BigEndian.PutUint64(b.payload[pos:pos+8], uint64(int64(v)+delta))
	}
}
