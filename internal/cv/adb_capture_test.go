package cv

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

// fakeScreen is a scriptable Screencapper: optional per-call delay, fixed
// payload or error.
type fakeScreen struct {
	delay   time.Duration
	data    []byte
	err     error
	sizeW   int
	sizeH   int
	sizeErr error
}

func (f *fakeScreen) Screencap() ([]byte, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeScreen) GetWindowSize() (int, int, error) {
	if f.sizeErr != nil {
		return 0, 0, f.sizeErr
	}
	return f.sizeW, f.sizeH, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*13 + y*7) % 256)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestCaptureReturnsSequencedFrames(t *testing.T) {
	screen := &fakeScreen{data: pngBytes(t, 16, 9), sizeW: 16, sizeH: 9}
	source, err := NewADBCapture(screen, time.Second)
	if err != nil {
		t.Fatalf("NewADBCapture failed: %v", err)
	}

	if w, h := source.Dimensions(); w != 16 || h != 9 {
		t.Errorf("Dimensions = %dx%d, want 16x9", w, h)
	}

	first, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if first.Sequence != 1 {
		t.Errorf("first Sequence = %d, want 1", first.Sequence)
	}
	if got := first.Image.Bounds(); got.Dx() != 16 || got.Dy() != 9 {
		t.Errorf("frame bounds = %v, want 16x9", got)
	}
	if first.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}

	second, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("second Capture failed: %v", err)
	}
	if second.Sequence != 2 {
		t.Errorf("second Sequence = %d, want 2", second.Sequence)
	}
}

func TestCaptureTimeoutWithinBudget(t *testing.T) {
	screen := &fakeScreen{data: pngBytes(t, 8, 8), sizeW: 8, sizeH: 8, delay: 300 * time.Millisecond}
	source, err := NewADBCapture(screen, 25*time.Millisecond)
	if err != nil {
		t.Fatalf("NewADBCapture failed: %v", err)
	}

	start := time.Now()
	_, err = source.Capture(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("Capture error = %v, want ErrCaptureTimeout", err)
	}
	if elapsed >= 200*time.Millisecond {
		t.Errorf("Capture returned after %v, want well under the screencap delay", elapsed)
	}
}

func TestCaptureContextCancellation(t *testing.T) {
	screen := &fakeScreen{data: pngBytes(t, 8, 8), sizeW: 8, sizeH: 8, delay: 300 * time.Millisecond}
	source, err := NewADBCapture(screen, time.Second)
	if err != nil {
		t.Fatalf("NewADBCapture failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Capture(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Capture error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrCaptureTimeout) {
		t.Error("cancellation reported as a capture timeout")
	}
}

func TestCaptureScreencapFailure(t *testing.T) {
	screen := &fakeScreen{err: errors.New("device offline"), sizeW: 8, sizeH: 8}
	source, err := NewADBCapture(screen, time.Second)
	if err != nil {
		t.Fatalf("NewADBCapture failed: %v", err)
	}

	_, err = source.Capture(context.Background())
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("Capture error = %v, want ErrCaptureFailed", err)
	}
}

func TestCaptureDecodeFailure(t *testing.T) {
	screen := &fakeScreen{data: []byte("not a png"), sizeW: 8, sizeH: 8}
	source, err := NewADBCapture(screen, time.Second)
	if err != nil {
		t.Fatalf("NewADBCapture failed: %v", err)
	}

	_, err = source.Capture(context.Background())
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("Capture error = %v, want ErrCaptureFailed", err)
	}
}

func TestNewADBCaptureProbeFailure(t *testing.T) {
	screen := &fakeScreen{sizeErr: errors.New("no device")}
	_, err := NewADBCapture(screen, time.Second)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Fatalf("NewADBCapture error = %v, want ErrCaptureFailed", err)
	}
}
