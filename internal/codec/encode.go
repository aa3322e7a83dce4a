// Package codec writes normalized frames to disk in the target format,
// applying per-format parameter policy and, for multi-frame output, a
// primary-then-fallback write strategy with round-trip verification.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"

	ico "github.com/biessek/golang-ico"
	"github.com/deepteams/webp"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/AnferLagbu/Chameleon/internal/format"
	"github.com/AnferLagbu/Chameleon/internal/meta"
)

var (
	// ErrEncode marks a codec rejecting the frame or parameters.
	ErrEncode = errors.New("encode image")
	// ErrInsufficientFrames marks a multi-frame encode with fewer than two frames.
	ErrInsufficientFrames = errors.New("multi-frame encode needs at least two frames")
	// ErrAnimationWrite marks a multi-frame write whose primary and fallback
	// attempts both failed round-trip verification.
	ErrAnimationWrite = errors.New("animated output failed verification")
)

const gifPaletteSize = 256

// PNGCompressionLevel maps a 0-100 quality to the 0-9 compression scale:
// level = 9 - round(quality/100*9). Quality 100 is level 0, quality 0 is
// level 9.
func PNGCompressionLevel(quality int) int {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	return 9 - int(math.Round(float64(quality)/100*9))
}

// pngLevel buckets the 0-9 scale onto the four levels image/png exposes.
func pngLevel(quality int) png.CompressionLevel {
	switch level := PNGCompressionLevel(quality); {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// EncodeSingle writes one frame to path in the target format. quality feeds
// the formats that take it (JPEG, WEBP, HEIF directly; PNG via the
// compression-level mapping); rawExif, when non-nil, is re-attached to JPEG
// and WebP output.
func EncodeSingle(img *image.NRGBA, target format.Target, quality int, rawExif []byte, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer out.Close()

	switch target.Format {
	case format.JPEG:
		if rawExif != nil {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
				return fmt.Errorf("%w: %v", ErrEncode, err)
			}
			if err := meta.InjectJPEG(&buf, rawExif, out); err != nil {
				return fmt.Errorf("%w: %v", ErrEncode, err)
			}
			return nil
		}
		if err := jpeg.Encode(out, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.PNG:
		enc := png.Encoder{CompressionLevel: pngLevel(quality)}
		if err := enc.Encode(out, img); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.GIF:
		paletted := quantizeFrame(img, true)
		if err := gif.Encode(out, paletted, nil); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.BMP:
		if err := bmp.Encode(out, img); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.TIFF:
		if err := tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.WEBP:
		opts := webp.DefaultOptions()
		opts.Quality = float32(quality)
		opts.EXIF = rawExif
		if err := webp.Encode(out, img, opts); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.ICO:
		if err := ico.Encode(out, img); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
		return nil

	case format.HEIF:
		// libheif writes the file itself; drop the empty placeholder first.
		out.Close()
		os.Remove(path)
		return encodeHEIF(img, quality, path)

	default:
		return fmt.Errorf("%w: unsupported target %s", ErrEncode, target.Format)
	}
}

// quantizeFrame reduces a frame to a 256-color adaptive palette. dither
// selects Floyd-Steinberg diffusion; the conservative fallback path turns it
// off.
func quantizeFrame(img *image.NRGBA, dither bool) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	colors := q.Quantize(make([]color.Color, 0, gifPaletteSize-1), img)

	// Keep index 0 transparent so disposal-to-background stays clean.
	palette := make(color.Palette, 0, gifPaletteSize)
	palette = append(palette, color.RGBA{})
	palette = append(palette, colors...)

	paletted := image.NewPaletted(img.Bounds(), palette)
	if dither {
		draw.FloydSteinberg.Draw(paletted, img.Bounds(), img, image.Point{})
	} else {
		draw.Draw(paletted, img.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	return paletted
}
