package cv

import (
	"context"
	"errors"
	"image"
	"time"
)

// Capture error taxonomy. Implementations wrap these so callers can
// distinguish an unavailable target from a slow one with errors.Is.
var (
	// ErrCaptureFailed - target window/display unavailable or capture rejected
	ErrCaptureFailed = errors.New("frame capture failed")
	// ErrCaptureTimeout - capture did not complete within the latency budget
	ErrCaptureTimeout = errors.New("frame capture timed out")
)

// Frame is one captured screen image. The capture timestamp is monotonic
// (time.Now carries a monotonic clock reading) and the sequence number is
// assigned by the frame source, increasing by one per successful capture.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
	Sequence  uint64
}

// Bounds returns the pixel bounds of the captured image.
func (f *Frame) Bounds() image.Rectangle {
	return f.Image.Bounds()
}

// FrameSource produces frames on demand. Capture must either return a frame
// within the source's latency budget or fail with ErrCaptureTimeout; it holds
// no state between calls beyond the sequence counter.
type FrameSource interface {
	Capture(ctx context.Context) (*Frame, error)
	Dimensions() (width, height int)
}
