package codec

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/AnferLagbu/Chameleon/internal/frame"
)

// No Go library in reach writes multi-page TIFF (x/image/tiff is single-image
// only), so pages are laid out here directly: little-endian header, then per
// page the raw RGBA strip, the out-of-line BitsPerSample array, and an IFD
// chained to the next page. Compression is "none" throughout; it is the one
// setting every reader accepts.

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagExtraSamples    = 338

	typeShort = 3
	typeLong  = 4

	compressionNone = 1
	photometricRGB  = 2
	// Alpha in NRGBA frames is unassociated.
	extraSampleUnassociated = 2
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
}

func writeMultiPageTIFF(ctx context.Context, frames []frame.Frame, path string) error {
	var buf bytes.Buffer

	// Header: byte order, magic, offset of the first IFD (patched last).
	buf.Write([]byte{'I', 'I', 42, 0})
	buf.Write([]byte{0, 0, 0, 0})

	ifdOffsetPositions := []int{4}

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		bounds := f.Bounds()
		width, height := bounds.Dx(), bounds.Dy()

		stripOffset := uint32(buf.Len())
		for y := 0; y < height; y++ {
			row := f.Image.Pix[y*f.Image.Stride : y*f.Image.Stride+width*4]
			buf.Write(row)
		}
		stripLen := uint32(width * height * 4)

		// BitsPerSample holds four SHORTs, too wide for the inline slot.
		bitsOffset := uint32(buf.Len())
		for i := 0; i < 4; i++ {
			binary.Write(&buf, binary.LittleEndian, uint16(8))
		}

		entries := []ifdEntry{
			{tagImageWidth, typeLong, 1, uint32(width)},
			{tagImageLength, typeLong, 1, uint32(height)},
			{tagBitsPerSample, typeShort, 4, bitsOffset},
			{tagCompression, typeShort, 1, compressionNone},
			{tagPhotometric, typeShort, 1, photometricRGB},
			{tagStripOffsets, typeLong, 1, stripOffset},
			{tagSamplesPerPixel, typeShort, 1, 4},
			{tagRowsPerStrip, typeLong, 1, uint32(height)},
			{tagStripByteCounts, typeLong, 1, stripLen},
			{tagExtraSamples, typeShort, 1, extraSampleUnassociated},
		}

		ifdOffset := uint32(buf.Len())
		patchOffset(&buf, ifdOffsetPositions[len(ifdOffsetPositions)-1], ifdOffset)

		binary.Write(&buf, binary.LittleEndian, uint16(len(entries)))
		for _, e := range entries {
			binary.Write(&buf, binary.LittleEndian, e.tag)
			binary.Write(&buf, binary.LittleEndian, e.typ)
			binary.Write(&buf, binary.LittleEndian, e.count)
			writeEntryValue(&buf, e)
		}

		// Next-IFD pointer, patched when the next page is laid out.
		ifdOffsetPositions = append(ifdOffsetPositions, buf.Len())
		buf.Write([]byte{0, 0, 0, 0})
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// writeEntryValue writes the 4-byte value slot. SHORT values sit in the low
// half of the slot; LONGs and offsets use all four bytes.
func writeEntryValue(buf *bytes.Buffer, e ifdEntry) {
	if e.typ == typeShort && e.count == 1 {
		binary.Write(buf, binary.LittleEndian, uint16(e.value))
		buf.Write([]byte{0, 0})
		return
	}
	binary.Write(buf, binary.LittleEndian, e.value)
}

func patchOffset(buf *bytes.Buffer, pos int, value uint32) {
	binary.LittleEndian.PutUint32(buf.Bytes()[pos:pos+4], value)
}
