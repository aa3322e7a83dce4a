package frame

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/AnferLagbu/Chameleon/internal/format"
)

// NormalizeForTarget returns frame pixels in a layout the target accepts.
// Opaque-only targets get the frame flattened onto a white background, with
// the alpha channel as the compositing mask; everything else passes through
// content-unchanged. Palette sources are already expanded by extraction, so
// the input here is always alpha-capable.
func NormalizeForTarget(img *image.NRGBA, target format.Target) *image.NRGBA {
	if target.Format.RequiresOpaqueRGB() {
		return FlattenWhite(img)
	}
	return img
}

// FlattenWhite composites img over an opaque white canvas of the same size.
func FlattenWhite(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Point{}, 1.0)
}
