package imgutil

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectHeader(t *testing.T) {
	pad := func(b []byte) []byte {
		out := make([]byte, headerLen)
		copy(out, b)
		return out
	}

	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"png", pad([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}), KindPNG},
		{"jpeg", pad([]byte{0xff, 0xd8, 0xff, 0xe0}), KindJPEG},
		{"gif87", pad([]byte("GIF87a")), KindGIF},
		{"gif89", pad([]byte("GIF89a")), KindGIF},
		{"bmp", pad([]byte("BM")), KindBMP},
		{"tiff little endian", pad([]byte{0x49, 0x49, 0x2a, 0x00}), KindTIFF},
		{"tiff big endian", pad([]byte{0x4d, 0x4d, 0x00, 0x2a}), KindTIFF},
		{"webp", pad([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")), KindWEBP},
		{"riff but not webp", pad([]byte("RIFF\x00\x00\x00\x00WAVE")), KindUnknown},
		{"ico", pad([]byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00}), KindICO},
		{"heif", pad([]byte("\x00\x00\x00\x18ftypheic")), KindHEIF},
		{"garbage", pad([]byte("not an image at")), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHeader(tc.header)
			if err != nil {
				t.Fatalf("DetectHeader: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDetectHeaderTooShort(t *testing.T) {
	if _, err := DetectHeader([]byte{0xff, 0xd8}); err == nil {
		t.Error("expected error for short header")
	}
}

func TestSniffFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.dat")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	kind, err := SniffFile(path)
	if err != nil {
		t.Fatalf("SniffFile: %v", err)
	}
	if kind != KindPNG {
		t.Errorf("got %s, want png", kind)
	}
}

func TestSniffFileMissing(t *testing.T) {
	if _, err := SniffFile(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHasImageExtension(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"photo.JpEg", true},
		{"frame.png", true},
		{"anim.gif", true},
		{"scan.TIFF", true},
		{"icon.ico", true},
		{"pic.heic", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"noext", false},
		{"trailing.jpg.bak", false},
	}

	for _, tc := range cases {
		if got := HasImageExtension(tc.name); got != tc.want {
			t.Errorf("HasImageExtension(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
