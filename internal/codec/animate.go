package codec

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"
	"time"

	"github.com/deepteams/webp/animation"

	"github.com/AnferLagbu/Chameleon/internal/format"
	"github.com/AnferLagbu/Chameleon/internal/frame"
)

// fallbackQuality is the fixed quality used by the conservative retry.
const fallbackQuality = 80

// multiFrameParams captures the knobs the fallback path tightens.
type multiFrameParams struct {
	quality   int
	loopCount int
	forceLoop bool // override the source loop count with infinite
	dither    bool
}

// EncodeMultiFrame writes frames to path as one animated (or multi-page)
// file. It requires at least two frames. rawExif, when non-nil, is attached
// to targets whose container carries it. After the primary write the output
// is reopened and must read back as multi-frame; on verification failure one
// conservative retry runs, and a second failure is final. ctx is polled
// before each frame is processed.
func EncodeMultiFrame(ctx context.Context, frames []frame.Frame, target format.Target, quality int, rawExif []byte, path string) error {
	if len(frames) < 2 {
		return ErrInsufficientFrames
	}

	// A multi-frame request against a non-animatable target reduces to the
	// first frame here; choosing reduction over skip or split is the
	// caller's decision, made before this point.
	if !target.Format.SupportsMultiFrame() {
		flat := frame.NormalizeForTarget(frames[0].Image, target)
		return EncodeSingle(flat, target, quality, rawExif, path)
	}

	primary := multiFrameParams{quality: quality, loopCount: loopCountOf(frames), dither: true}
	if err := writeMultiFrame(ctx, frames, target, primary, rawExif, path); err != nil {
		return err
	}
	if frame.IsMultiFrame(path) {
		return nil
	}

	// Conservative retry: adaptive palette without dithering, forced
	// infinite loop, fixed quality.
	fallback := multiFrameParams{quality: fallbackQuality, forceLoop: true, dither: false}
	if err := writeMultiFrame(ctx, frames, target, fallback, rawExif, path); err != nil {
		return err
	}
	if frame.IsMultiFrame(path) {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrAnimationWrite, path)
}

func loopCountOf(frames []frame.Frame) int {
	loop := frames[0].LoopCount
	if loop < 0 {
		loop = frame.DefaultLoopCount
	}
	return loop
}

func writeMultiFrame(ctx context.Context, frames []frame.Frame, target format.Target, params multiFrameParams, rawExif []byte, path string) error {
	loop := params.loopCount
	if params.forceLoop {
		loop = 0
	}

	switch target.Format {
	case format.GIF:
		return writeAnimatedGIF(ctx, frames, loop, params.dither, path)
	case format.WEBP:
		return writeAnimatedWebP(ctx, frames, loop, params.quality, rawExif, path)
	case format.TIFF:
		return writeMultiPageTIFF(ctx, frames, path)
	case format.HEIF:
		return writeHEIFSequence(ctx, frames, params.quality, path)
	default:
		return fmt.Errorf("%w: %s cannot hold multiple frames", ErrEncode, target.Format)
	}
}

// recomposite draws the frame onto a fresh fully-transparent canvas of the
// animation's size. Source frames that were captured against a stale canvas
// would otherwise carry accumulated ghosting into the output.
func recomposite(f frame.Frame, bounds image.Rectangle) *image.NRGBA {
	clean := image.NewNRGBA(bounds)
	draw.Draw(clean, f.Image.Bounds(), f.Image, f.Image.Bounds().Min, draw.Over)
	return clean
}

func writeAnimatedGIF(ctx context.Context, frames []frame.Frame, loop int, dither bool, path string) error {
	bounds := frames[0].Bounds()

	out := &gif.GIF{
		Config:    image.Config{Width: bounds.Dx(), Height: bounds.Dy()},
		LoopCount: loop,
	}

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		clean := recomposite(f, bounds)
		out.Image = append(out.Image, quantizeFrame(clean, dither))
		out.Delay = append(out.Delay, f.DurationMS/10) // centiseconds
		// Restore-to-background after every frame; combined with the
		// per-frame recomposite this keeps timing and transparency intact
		// without the palette merging a size optimizer would apply.
		out.Disposal = append(out.Disposal, gif.DisposalBackground)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer file.Close()

	if err := gif.EncodeAll(file, out); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

func writeAnimatedWebP(ctx context.Context, frames []frame.Frame, loop, quality int, rawExif []byte, path string) error {
	bounds := frames[0].Bounds()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer file.Close()

	enc := animation.NewEncoder(file, bounds.Dx(), bounds.Dy(), &animation.EncodeOptions{
		LoopCount: loop,
		Quality:   quality,
	})
	if rawExif != nil {
		enc.SetEXIF(rawExif)
	}

	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		clean := recomposite(f, bounds)
		duration := time.Duration(f.DurationMS) * time.Millisecond
		if err := enc.AddFrame(clean, duration); err != nil {
			return fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}
