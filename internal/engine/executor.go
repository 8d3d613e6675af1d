package engine

import (
	"context"
	"fmt"
	"time"

	"jordanella.com/screenbot-go/internal/logging"
)

// Dispatcher is the synthetic input channel. adb.Controller satisfies it;
// tests substitute their own.
type Dispatcher interface {
	Tap(x, y int) error
	Swipe(x1, y1, x2, y2, durationMs int) error
}

// ExecutionReport describes one executed action.
type ExecutionReport struct {
	Action       Action
	DispatchedAt time.Time
	Elapsed      time.Duration
	Settled      bool
}

// Executor translates actions into input events. After dispatching a
// physical action it blocks for the settle time so the next capture reflects
// the action's effect; the settle wait is the loop's only intentional pause
// outside frame capture and must honor cancellation.
type Executor struct {
	dispatcher Dispatcher
	settleTime time.Duration
	log        *logging.Logger
}

// NewExecutor creates an executor with the given settle time for physical
// actions.
func NewExecutor(dispatcher Dispatcher, settleTime time.Duration) *Executor {
	return &Executor{
		dispatcher: dispatcher,
		settleTime: settleTime,
		log:        logging.NewLogger("executor"),
	}
}

// SettleTime returns the configured post-action settle pause
func (e *Executor) SettleTime() time.Duration {
	return e.settleTime
}

// Execute performs one action. Wait and Noop never fail; Tap and Swipe fail
// with ErrInputDispatch when the input channel rejects the event. A context
// cancellation during the settle or wait pause returns promptly with the
// context error.
func (e *Executor) Execute(ctx context.Context, action Action) (*ExecutionReport, error) {
	report := &ExecutionReport{
		Action:       action,
		DispatchedAt: time.Now(),
	}

	switch action.Kind {
	case ActionNoop:
		report.Settled = true
		return report, nil

	case ActionWait:
		if err := sleepCtx(ctx, action.Duration); err != nil {
			report.Elapsed = time.Since(report.DispatchedAt)
			return report, err
		}
		report.Elapsed = time.Since(report.DispatchedAt)
		report.Settled = true
		return report, nil

	case ActionTap:
		if err := e.dispatcher.Tap(action.X, action.Y); err != nil {
			return report, fmt.Errorf("%w: %v", ErrInputDispatch, err)
		}

	case ActionSwipe:
		if err := e.dispatcher.Swipe(action.X, action.Y, action.X2, action.Y2,
			int(action.Duration/time.Millisecond)); err != nil {
			return report, fmt.Errorf("%w: %v", ErrInputDispatch, err)
		}

	default:
		return report, fmt.Errorf("%w: unknown action kind %d", ErrInputDispatch, action.Kind)
	}

	// Settle pause so the UI stabilizes before the next capture
	if err := sleepCtx(ctx, e.settleTime); err != nil {
		report.Elapsed = time.Since(report.DispatchedAt)
		return report, err
	}

	report.Elapsed = time.Since(report.DispatchedAt)
	report.Settled = true
	return report, nil
}

// sleepCtx pauses for the duration or until the context is cancelled
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
