package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// TIFF stores pages as a linked list of IFDs. x/image/tiff only ever decodes
// the IFD the header points at, so multi-page support here works by walking
// the chain manually and, per page, handing the decoder a copy of the file
// whose header points at that page's IFD. Offsets inside the IFD stay valid
// because the rest of the file is untouched.

const tiffMaxPages = 65535

func tiffByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, errors.New("tiff: truncated header")
	}
	switch {
	case data[0] == 'I' && data[1] == 'I':
		return binary.LittleEndian, nil
	case data[0] == 'M' && data[1] == 'M':
		return binary.BigEndian, nil
	default:
		return nil, errors.New("tiff: bad byte-order mark")
	}
}

// tiffIFDOffsets returns the file offset of every IFD in chain order.
func tiffIFDOffsets(data []byte) ([]uint32, error) {
	bo, err := tiffByteOrder(data)
	if err != nil {
		return nil, err
	}

	var offsets []uint32
	offset := bo.Uint32(data[4:8])
	for offset != 0 {
		if len(offsets) >= tiffMaxPages {
			return nil, errors.New("tiff: IFD chain too long")
		}
		if int(offset)+2 > len(data) {
			return nil, errors.New("tiff: IFD offset out of range")
		}

		entries := int(bo.Uint16(data[offset : offset+2]))
		nextPos := int(offset) + 2 + entries*12
		if nextPos+4 > len(data) {
			return nil, errors.New("tiff: IFD runs past end of file")
		}

		offsets = append(offsets, offset)
		offset = bo.Uint32(data[nextPos : nextPos+4])
	}

	if len(offsets) == 0 {
		return nil, errors.New("tiff: no IFD")
	}
	return offsets, nil
}

// tiffPageReader returns a reader over a copy of data whose header points at
// the IFD at offset, so a single-page decoder sees that page as the first.
func tiffPageReader(data []byte, offset uint32) io.Reader {
	page := make([]byte, len(data))
	copy(page, data)

	bo, err := tiffByteOrder(page)
	if err != nil {
		return bytes.NewReader(page)
	}
	bo.PutUint32(page[4:8], offset)
	return bytes.NewReader(page)
}
