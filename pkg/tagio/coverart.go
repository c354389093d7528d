package tagio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/dhowden/tag"
)

// CoverArt is the resolved front-cover image ready for embedding, already
// resized if the source exceeded the configured limit.
type CoverArt struct {
	MIMEType string
	Data     []byte
}

// LocateCoverArt returns the picture dhowden/tag reports for the source. The
// picture type is not inspected, so a source with several pictures yields
// that library's one choice, not necessarily the front cover. ok is false
// when the source carries no picture block at all.
func LocateCoverArt(path string) (pic *tag.Picture, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil, false
	}
	p := meta.Picture()
	if p == nil {
		return nil, false
	}
	return p, true
}

// ResizeIfNeeded scales the image down to fit within maxSide on its longest
// edge, preserving aspect ratio, when resizing is enabled and the source
// exceeds the limit. It re-encodes as JPEG quality 90, except PNG sources
// stay PNG (the format a container "prefers" per §4.5.3 is, in practice,
// whichever avoids a lossy re-encode of already-lossless art).
func ResizeIfNeeded(pic *tag.Picture, maxSide int, resizeEnabled bool) (CoverArt, error) {
	if pic == nil {
		return CoverArt{}, nil
	}
	if !resizeEnabled || maxSide <= 0 {
		return CoverArt{MIMEType: pic.MIMEType, Data: pic.Data}, nil
	}

	img, format, err := image.Decode(bytes.NewReader(pic.Data))
	if err != nil {
		// Not a format we can decode (e.g. an already-odd embedded blob):
		// pass through unresized rather than fail the whole convert.
		return CoverArt{MIMEType: pic.MIMEType, Data: pic.Data}, nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSide {
		return CoverArt{MIMEType: pic.MIMEType, Data: pic.Data}, nil
	}

	scale := float64(maxSide) / float64(longest)
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	scaled := nearestNeighborScale(img, newW, newH)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, scaled); err != nil {
			return CoverArt{}, err
		}
		return CoverArt{MIMEType: "image/png", Data: buf.Bytes()}, nil
	}
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 90}); err != nil {
		return CoverArt{}, err
	}
	return CoverArt{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}

// nearestNeighborScale is a small, dependency-free scaler: no pack example
// imports an image-resize library, and the standard library's image/draw
// has no interpolating scaler, only compositing. Quality is adequate for
// embedded cover art, which is viewed at thumbnail size.
func nearestNeighborScale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sb.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// buildMetadataBlockPicture packs a FLAC-style METADATA_BLOCK_PICTURE
// structure and base64-encodes it, for embedding as an Opus Vorbis comment.
func buildMetadataBlockPicture(art CoverArt, width, height, depth uint32) string {
	var buf bytes.Buffer
	writeU32BE(&buf, 3) // picture type: front cover
	writeU32BE(&buf, uint32(len(art.MIMEType)))
	buf.WriteString(art.MIMEType)
	writeU32BE(&buf, 0) // description length
	writeU32BE(&buf, width)
	writeU32BE(&buf, height)
	writeU32BE(&buf, depth)
	writeU32BE(&buf, 0) // indexed-colour count, 0 for non-palette images
	writeU32BE(&buf, uint32(len(art.Data)))
	buf.Write(art.Data)
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func writeU32BE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
