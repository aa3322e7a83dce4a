package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	ico "github.com/biessek/golang-ico"
	"github.com/deepteams/webp"
	"github.com/deepteams/webp/animation"
	"github.com/disintegration/imaging"
	"github.com/kettek/apng"
	_ "github.com/strukturag/libheif/go/heif"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/AnferLagbu/Chameleon/pkg/imgutil"
)

// ErrDecode marks a source that could not be opened or decoded.
var ErrDecode = errors.New("decode source")

// IsMultiFrame reports whether the image at path holds more than one frame.
// It never raises: any I/O or decode failure reads as single-frame. Every
// handle it opens is closed before returning.
func IsMultiFrame(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}

	switch kind {
	case imgutil.KindGIF:
		g, err := gif.DecodeAll(f)
		return err == nil && len(g.Image) > 1
	case imgutil.KindWEBP:
		feat, err := webp.GetFeatures(f)
		return err == nil && (feat.HasAnimation || feat.FrameCount > 1)
	case imgutil.KindPNG:
		a, err := apng.DecodeAll(f)
		return err == nil && countAnimatedPNGFrames(a) > 1
	case imgutil.KindTIFF:
		data, err := io.ReadAll(f)
		if err != nil {
			return false
		}
		offsets, err := tiffIFDOffsets(data)
		return err == nil && len(offsets) > 1
	default:
		return false
	}
}

// Extract opens the image at path once and returns its frames in source
// order. Single-frame sources yield exactly one Frame. ctx is polled before
// each frame copy; on cancellation the partial result is dropped and ctx's
// error returned.
func Extract(ctx context.Context, path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch kind {
	case imgutil.KindGIF:
		return extractGIF(ctx, f)
	case imgutil.KindWEBP:
		return extractWebP(ctx, f)
	case imgutil.KindPNG:
		return extractAnimatedPNG(ctx, f)
	case imgutil.KindTIFF:
		return extractTIFF(ctx, f)
	case imgutil.KindICO:
		img, err := ico.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return []Frame{stillFrame(img)}, nil
	default:
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return []Frame{stillFrame(img)}, nil
	}
}

func stillFrame(img image.Image) Frame {
	return Frame{
		Image:      imaging.Clone(img),
		DurationMS: DefaultDurationMS,
		LoopCount:  DefaultLoopCount,
	}
}

// extractGIF reconstructs full-canvas frames from a GIF's sub-rectangle
// frames, honoring each frame's disposal method so that later frames do not
// inherit ghost pixels.
func extractGIF(ctx context.Context, r io.Reader) ([]Frame, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: gif has no frames", ErrDecode)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	loop := g.LoopCount
	if loop < 0 {
		loop = DefaultLoopCount
	}

	canvas := image.NewNRGBA(bounds)
	var snapshot *image.NRGBA

	frames := make([]Frame, 0, len(g.Image))
	for i, src := range g.Image {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			snapshot = cloneNRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		durationMS := DefaultDurationMS
		if i < len(g.Delay) && g.Delay[i] > 0 {
			durationMS = g.Delay[i] * 10 // GIF delays are in centiseconds
		}

		frames = append(frames, Frame{
			Image:      cloneNRGBA(canvas),
			DurationMS: durationMS,
			Disposal:   int(disposal),
			LoopCount:  loop,
		})

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, src.Bounds())
		case gif.DisposalPrevious:
			if snapshot != nil {
				canvas = snapshot
			}
		}
	}

	return frames, nil
}

func extractWebP(ctx context.Context, r io.Reader) ([]Frame, error) {
	anim, err := animation.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(anim.Frames) == 0 {
		return nil, fmt.Errorf("%w: webp has no frames", ErrDecode)
	}

	dec := animation.NewAnimDecoder(anim)
	frames := make([]Frame, 0, len(anim.Frames))
	for i := 0; dec.HasNext(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, duration, err := dec.NextFrame()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		durationMS := int(duration / time.Millisecond)
		if durationMS <= 0 {
			durationMS = DefaultDurationMS
		}

		disposal := 0
		if i < len(anim.Frames) {
			disposal = int(anim.Frames[i].Dispose)
		}

		frames = append(frames, Frame{
			Image:      cloneNRGBA(img),
			DurationMS: durationMS,
			Disposal:   disposal,
			LoopCount:  anim.LoopCount,
		})
	}

	return frames, nil
}

// countAnimatedPNGFrames counts animation frames, excluding a default image
// that is not part of the sequence.
func countAnimatedPNGFrames(a apng.APNG) int {
	n := 0
	for _, fr := range a.Frames {
		if !fr.IsDefault {
			n++
		}
	}
	return n
}

func extractAnimatedPNG(ctx context.Context, r io.Reader) ([]Frame, error) {
	a, err := apng.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(a.Frames) == 0 {
		return nil, fmt.Errorf("%w: png has no image data", ErrDecode)
	}

	// The canvas is the size of the first stored image.
	bounds := a.Frames[0].Image.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	var snapshot *image.NRGBA

	frames := make([]Frame, 0, len(a.Frames))
	for _, fr := range a.Frames {
		if fr.IsDefault && countAnimatedPNGFrames(a) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if fr.DisposeOp == apng.DISPOSE_OP_PREVIOUS {
			snapshot = cloneNRGBA(canvas)
		}

		fb := fr.Image.Bounds()
		rect := image.Rect(fr.XOffset, fr.YOffset, fr.XOffset+fb.Dx(), fr.YOffset+fb.Dy())
		op := draw.Op(draw.Over)
		if fr.BlendOp == apng.BLEND_OP_SOURCE {
			op = draw.Src
		}
		draw.Draw(canvas, rect, fr.Image, fb.Min, op)

		frames = append(frames, Frame{
			Image:      cloneNRGBA(canvas),
			DurationMS: apngDurationMS(fr),
			Disposal:   int(fr.DisposeOp),
			LoopCount:  int(a.LoopCount),
		})

		switch fr.DisposeOp {
		case apng.DISPOSE_OP_BACKGROUND:
			clearRect(canvas, rect)
		case apng.DISPOSE_OP_PREVIOUS:
			if snapshot != nil {
				canvas = snapshot
			}
		}
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: png has no frames", ErrDecode)
	}
	return frames, nil
}

func apngDurationMS(fr apng.Frame) int {
	num := int(fr.DelayNumerator)
	den := int(fr.DelayDenominator)
	if den == 0 {
		den = 100 // per the APNG spec a zero denominator reads as 1/100 s
	}
	ms := num * 1000 / den
	if ms <= 0 {
		ms = DefaultDurationMS
	}
	return ms
}

func extractTIFF(ctx context.Context, r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	offsets, err := tiffIFDOffsets(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	frames := make([]Frame, 0, len(offsets))
	for _, offset := range offsets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := tiff.Decode(tiffPageReader(data, offset))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		frames = append(frames, stillFrame(img))
	}

	return frames, nil
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clearRect(canvas *image.NRGBA, rect image.Rectangle) {
	draw.Draw(canvas, rect, image.Transparent, image.Point{}, draw.Src)
}
