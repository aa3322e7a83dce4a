package frame

import (
	"image"
	"testing"

	"github.com/AnferLagbu/Chameleon/internal/format"
)

func TestFlattenWhite(t *testing.T) {
	// Fully transparent input flattens to solid white.
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	flat := FlattenWhite(img)
	r, g, b, a := flat.At(2, 2).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("transparent pixel flattened to %v, want opaque white", flat.At(2, 2))
	}
}

func TestFlattenWhiteKeepsOpaquePixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 10, 20, 30, 255

	flat := FlattenWhite(img)
	r, g, b, _ := flat.At(0, 0).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("opaque pixel changed: %v", flat.At(0, 0))
	}
}

func TestNormalizeForTarget(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	// Alpha-capable targets pass through untouched.
	if got := NormalizeForTarget(img, format.NewTarget(format.PNG)); got != img {
		t.Error("png target should pass the frame through")
	}

	// Opaque-only targets get a flattened copy.
	got := NormalizeForTarget(img, format.NewTarget(format.JPEG))
	if got == img {
		t.Fatal("jpeg target should produce a new flattened image")
	}
	if _, _, _, a := got.At(0, 0).RGBA(); a != 0xffff {
		t.Error("jpeg-bound frame still has transparency")
	}
}
