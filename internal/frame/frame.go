// Package frame opens image sources and materializes their frames as
// independent bitmaps with timing and disposal metadata attached.
package frame

import "image"

// Defaults applied when a container omits the corresponding field.
const (
	// DefaultDurationMS is used when a frame carries no delay.
	DefaultDurationMS = 100
	// DefaultLoopCount means loop forever.
	DefaultLoopCount = 0
)

// Frame is one decoded bitmap plus its animation metadata. The bitmap is an
// independent copy; it stays valid after the source handle is closed.
type Frame struct {
	Image      *image.NRGBA
	DurationMS int
	Disposal   int
	LoopCount  int
}

// Bounds returns the frame's pixel bounds.
func (f Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}
