// Package meta carries EXIF blocks from source images into outputs that can
// hold them.
package meta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	exif "github.com/dsoprea/go-exif/v3"
)

var exifHeader = []byte("Exif\x00\x00")

// ExtractRaw returns the raw EXIF block found in the file at path, or nil if
// there is none or it cannot be read. Null-equivalent outcomes are collapsed
// deliberately: missing metadata is never an error at conversion time.
func ExtractRaw(path string) []byte {
	raw, err := exif.SearchFileAndExtractExif(path)
	if err != nil {
		return nil
	}
	return raw
}

// InjectJPEG copies the JPEG stream from r to w, inserting rawExif as an APP1
// segment directly after SOI. r must hold a complete JPEG without an existing
// EXIF segment (freshly encoded output qualifies).
func InjectJPEG(r io.Reader, rawExif []byte, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return fmt.Errorf("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return err
	}

	payload := rawExif
	if !bytes.HasPrefix(payload, exifHeader) {
		payload = append(append([]byte{}, exifHeader...), rawExif...)
	}

	// Segment length counts itself, not the marker.
	segLen := len(payload) + 2
	if segLen > 0xffff {
		return fmt.Errorf("EXIF block too large for an APP1 segment")
	}

	if _, err := bw.Write([]byte{0xff, 0xe1, byte(segLen >> 8), byte(segLen)}); err != nil {
		return err
	}
	if _, err := bw.Write(payload); err != nil {
		return err
	}

	if _, err := io.Copy(bw, br); err != nil {
		return err
	}
	return bw.Flush()
}
