package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeDispatcher records dispatched input and optionally rejects it
type fakeDispatcher struct {
	mu     sync.Mutex
	taps   int
	swipes int
	err    error
}

func (d *fakeDispatcher) Tap(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.taps++
	return nil
}

func (d *fakeDispatcher) Swipe(x1, y1, x2, y2, durationMs int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.swipes++
	return nil
}

func (d *fakeDispatcher) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.taps, d.swipes
}

func TestExecuteTapBlocksForSettleTime(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	executor := NewExecutor(dispatcher, 500*time.Millisecond)

	start := time.Now()
	report, err := executor.Execute(context.Background(), Tap(120, 340))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if elapsed < 500*time.Millisecond {
		t.Errorf("returned after %v, want >= 500ms settle", elapsed)
	}
	if !report.Settled {
		t.Error("report.Settled = false, want true")
	}
	if taps, _ := dispatcher.counts(); taps != 1 {
		t.Errorf("taps = %d, want 1", taps)
	}
}

func TestExecuteSettleCancellation(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	executor := NewExecutor(dispatcher, 500*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report, err := executor.Execute(ctx, Tap(120, 340))
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if elapsed >= 450*time.Millisecond {
		t.Errorf("cancellation took %v, want well under the full settle", elapsed)
	}
	if report.Settled {
		t.Error("report.Settled = true after cancellation")
	}
	// The tap itself was dispatched before the settle wait
	if taps, _ := dispatcher.counts(); taps != 1 {
		t.Errorf("taps = %d, want 1", taps)
	}
}

func TestExecuteWaitAndNoopNeverFail(t *testing.T) {
	// Dispatcher rejects everything; Wait and Noop must not touch it
	dispatcher := &fakeDispatcher{err: errors.New("target lost")}
	executor := NewExecutor(dispatcher, 50*time.Millisecond)

	if _, err := executor.Execute(context.Background(), Noop()); err != nil {
		t.Errorf("Noop failed: %v", err)
	}

	start := time.Now()
	if _, err := executor.Execute(context.Background(), Wait(80*time.Millisecond)); err != nil {
		t.Errorf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Wait returned after %v, want >= 80ms", elapsed)
	}
}

func TestExecuteDispatchRejection(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("device offline")}
	executor := NewExecutor(dispatcher, 10*time.Millisecond)

	tests := []struct {
		name   string
		action Action
	}{
		{"tap", Tap(10, 20)},
		{"swipe", Swipe(0, 0, 100, 100, 300*time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executor.Execute(context.Background(), tt.action)
			if !errors.Is(err, ErrInputDispatch) {
				t.Errorf("err = %v, want ErrInputDispatch", err)
			}
		})
	}
}

func TestExecuteSwipeDurationMillis(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	executor := NewExecutor(dispatcher, 0)

	if _, err := executor.Execute(context.Background(), Swipe(0, 0, 50, 50, 250*time.Millisecond)); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, swipes := dispatcher.counts(); swipes != 1 {
		t.Errorf("swipes = %d, want 1", swipes)
	}
}
