// Package format holds the closed set of conversion targets and what each
// target's encoder is capable of.
package format

import (
	"fmt"
	"strings"
)

// Format identifies a target image format.
type Format int

const (
	JPEG Format = iota
	PNG
	GIF
	BMP
	TIFF
	WEBP
	ICO
	HEIF
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	case BMP:
		return "BMP"
	case TIFF:
		return "TIFF"
	case WEBP:
		return "WEBP"
	case ICO:
		return "ICO"
	case HEIF:
		return "HEIF"
	default:
		return "unknown"
	}
}

// SupportsMultiFrame reports whether the format's encoder can hold more than
// one frame (animation or pages).
func (f Format) SupportsMultiFrame() bool {
	switch f {
	case GIF, WEBP, TIFF, HEIF:
		return true
	default:
		return false
	}
}

// RequiresOpaqueRGB reports whether the format rejects alpha and palette
// pixels. Frames headed for such a target are flattened first.
func (f Format) RequiresOpaqueRGB() bool {
	return f == JPEG
}

// Ext returns the canonical output extension, dot included.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case PNG:
		return ".png"
	case GIF:
		return ".gif"
	case BMP:
		return ".bmp"
	case TIFF:
		return ".tif"
	case WEBP:
		return ".webp"
	case ICO:
		return ".ico"
	case HEIF:
		return ".heic"
	default:
		return ""
	}
}

// Target pairs a format with the extension its output files receive.
type Target struct {
	Format Format
	Ext    string
}

// NewTarget builds a Target with the format's canonical extension.
func NewTarget(f Format) Target {
	return Target{Format: f, Ext: f.Ext()}
}

// Parse resolves a user-supplied format name or extension into a Target.
func Parse(name string) (Target, error) {
	s := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	switch s {
	case "jpeg", "jpg":
		return NewTarget(JPEG), nil
	case "png":
		return NewTarget(PNG), nil
	case "gif":
		return NewTarget(GIF), nil
	case "bmp":
		return NewTarget(BMP), nil
	case "tiff", "tif":
		return NewTarget(TIFF), nil
	case "webp":
		return NewTarget(WEBP), nil
	case "ico":
		return NewTarget(ICO), nil
	case "heif", "heic":
		return NewTarget(HEIF), nil
	default:
		return Target{}, fmt.Errorf("unknown target format %q", name)
	}
}

// All lists every supported target format.
func All() []Format {
	return []Format{JPEG, PNG, GIF, BMP, TIFF, WEBP, ICO, HEIF}
}
