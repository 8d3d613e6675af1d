package cv

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sync/atomic"
	"time"
)

// Screencapper is the device surface ADBCapture captures from: a PNG
// screenshot source with a probeable size. adb.Controller satisfies it.
type Screencapper interface {
	Screencap() ([]byte, error)
	GetWindowSize() (width, height int, err error)
}

// ADBCapture is a FrameSource backed by ADB screencap. Each capture pulls a
// fresh screenshot; the only state carried between calls is the frame
// sequence counter.
type ADBCapture struct {
	ctrl     Screencapper
	timeout  time.Duration
	sequence atomic.Uint64
	width    int
	height   int
}

// NewADBCapture creates a capture source with the given latency budget.
// Dimensions are probed once so that later calls stay cheap.
func NewADBCapture(ctrl Screencapper, timeout time.Duration) (*ADBCapture, error) {
	w, h, err := ctrl.GetWindowSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return &ADBCapture{
		ctrl:    ctrl,
		timeout: timeout,
		width:   w,
		height:  h,
	}, nil
}

// Dimensions returns the capture dimensions
func (a *ADBCapture) Dimensions() (width, height int) {
	return a.width, a.height
}

// Capture grabs one frame, honoring both the caller's context and the
// configured latency budget.
func (a *ADBCapture) Capture(ctx context.Context) (*Frame, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type captureResult struct {
		img *image.RGBA
		err error
	}

	// screencap cannot be interrupted mid-flight; the goroutine finishes on
	// its own and the result is dropped if the deadline already passed.
	done := make(chan captureResult, 1)
	go func() {
		img, err := a.grab()
		done <- captureResult{img: img, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &Frame{
			Image:     res.img,
			Timestamp: time.Now(),
			Sequence:  a.sequence.Add(1),
		}, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w after %v", ErrCaptureTimeout, a.timeout)
		}
		return nil, ctx.Err()
	}
}

func (a *ADBCapture) grab() (*image.RGBA, error) {
	data, err := a.ctrl.Screencap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding screenshot: %v", ErrCaptureFailed, err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
