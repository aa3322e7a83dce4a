package codec

import (
	"context"
	"fmt"
	"image"

	"github.com/strukturag/libheif/go/heif"

	"github.com/AnferLagbu/Chameleon/internal/frame"
)

// HEIF goes through libheif. The binding encodes one image per context, so
// single-frame output is full-fidelity while an image sequence degrades to
// its first frame and is left to the caller's verification step to reject.

func encodeHEIF(img *image.NRGBA, quality int, path string) error {
	ctx, err := heif.EncodeFromImage(img, heif.CompressionHEVC, quality, heif.LosslessModeDisabled, heif.LoggingLevelNone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := ctx.WriteToFile(path); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

func writeHEIFSequence(ctx context.Context, frames []frame.Frame, quality int, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return encodeHEIF(frames[0].Image, quality, path)
}
