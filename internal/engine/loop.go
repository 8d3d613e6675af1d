package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"jordanella.com/screenbot-go/internal/cv"
	"jordanella.com/screenbot-go/internal/events"
	"jordanella.com/screenbot-go/internal/logging"
)

// tickPhase is the loop's internal position within one tick. Not observable
// from outside; Status exposes counters only.
type tickPhase int

const (
	phaseIdle tickPhase = iota
	phaseCapturing
	phaseClassifying
	phaseDeciding
	phaseActing
	phaseErrorBackoff
)

// Config holds the control loop settings.
type Config struct {
	// TickInterval paces the loop between successful ticks
	TickInterval time.Duration
	// Backoff governs the retry delay after failures
	Backoff Backoff
	// MaxConsecutiveFailures is the abort ceiling; at this many consecutive
	// failures the loop terminates with ErrRunAborted instead of retrying
	MaxConsecutiveFailures int
	// Match configures template matching tolerances
	Match *cv.MatchConfig
	// HistorySize is the capacity of the rolling state-history window
	HistorySize int
}

// DefaultConfig returns the recommended loop settings
func DefaultConfig() Config {
	return Config{
		TickInterval:           400 * time.Millisecond,
		Backoff:                DefaultBackoff(),
		MaxConsecutiveFailures: 5,
		Match:                  cv.DefaultMatchConfig(),
		HistorySize:            50,
	}
}

// Engine is the detect-decide-act control loop. One engine owns one target:
// a single driver goroutine runs the capture -> classify -> decide -> act
// pipeline, so at most one tick is in flight at any time and the stateless
// collaborators need no synchronization of their own. Start, Stop and Status
// are the only public entry points.
type Engine struct {
	cfg        Config
	source     cv.FrameSource
	templates  []cv.Template
	classifier *Classifier
	policy     Policy
	executor   *Executor
	bus        events.EventBus
	log        *logging.Logger

	mu      sync.RWMutex
	stats   RunStats
	history *StateHistory
	phase   tickPhase
	running bool
	err     error

	cancel context.CancelFunc
	done   chan struct{}
}

// New assembles an engine. The policy decides, the engine drives; a nil
// policy falls back to NoopPolicy.
func New(cfg Config, source cv.FrameSource, templates []cv.Template, classifier *Classifier, policy Policy, executor *Executor) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultConfig().MaxConsecutiveFailures
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Match == nil {
		cfg.Match = cv.DefaultMatchConfig()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	if policy == nil {
		policy = NoopPolicy()
	}

	return &Engine{
		cfg:        cfg,
		source:     source,
		templates:  templates,
		classifier: classifier,
		policy:     policy,
		executor:   executor,
		log:        logging.NewLogger("engine"),
		history:    NewStateHistory(cfg.HistorySize),
		stats:      RunStats{LastState: StateUnknown},
	}
}

// WithBus attaches an event bus for lifecycle events. Must be called before
// Start.
func (e *Engine) WithBus(bus events.EventBus) *Engine {
	e.bus = bus
	return e
}

// Start launches the loop. It fails if the loop is already running.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.err = nil
	e.stats = RunStats{StartedAt: time.Now(), LastState: StateUnknown}
	e.history = NewStateHistory(e.cfg.HistorySize)

	e.publish(events.NewEngineStartedEvent())
	go e.run(ctx)

	return nil
}

// Stop requests cooperative cancellation and waits for the driver to exit.
// Safe to call when the loop already terminated on its own.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done
}

// Done returns a channel closed when the loop exits, whether by Stop or by
// the terminal abort. Before the first Start there is no run to wait for, so
// the returned channel is already closed.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.done
}

// Err returns the terminal condition after the loop exits: nil for a clean
// stop, an *AbortError when the failure ceiling was exceeded.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Status returns a copy of the current run statistics. The last failure
// cause is always the true cause of the most recent failure, even while the
// loop is degrading gracefully.
func (e *Engine) Status() RunStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// History returns the most recent classifications, newest first
func (e *Engine) History(n int) []StateRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Recent(n)
}

// run is the single driver. It never lets a per-tick failure escape: every
// failure becomes a backoff-and-retry decision until the ceiling is hit.
func (e *Engine) run(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.running = false
		e.phase = phaseIdle
		stats := e.stats
		aborted := e.err != nil
		done := e.done
		e.mu.Unlock()

		// Publish before releasing Stop so the final counters are already on
		// the bus when Stop returns.
		if !aborted {
			e.publish(events.NewEngineStoppedEvent(
				stats.TicksRun, stats.ActionsExecuted, stats.Retries))
		}
		close(done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		err := e.tick(ctx)
		if err == nil {
			e.mu.Lock()
			e.stats.recordSuccess()
			e.setPhase(phaseIdle)
			e.mu.Unlock()

			if sleepCtx(ctx, e.cfg.TickInterval) != nil {
				return
			}
			continue
		}

		if errors.Is(err, context.Canceled) {
			return
		}

		e.mu.Lock()
		e.stats.recordFailure(err, time.Now())
		consecutive := e.stats.ConsecutiveFailures
		e.setPhase(phaseErrorBackoff)
		e.mu.Unlock()

		e.publish(events.NewTickFailedEvent(err.Error(), consecutive))

		if consecutive >= e.cfg.MaxConsecutiveFailures {
			abort := &AbortError{ConsecutiveFailures: consecutive, LastCause: err}
			e.mu.Lock()
			e.err = abort
			stats := e.stats
			e.mu.Unlock()

			e.log.Error("run aborted", abort)
			e.publish(events.NewRunAbortedEvent(consecutive, err.Error(),
				stats.TicksRun, stats.ActionsExecuted, stats.Retries))
			return
		}

		delay := e.cfg.Backoff.Delay(consecutive)
		e.log.WarnWithContext("tick failed, backing off", map[string]interface{}{
			"consecutive": consecutive,
			"delay":       delay.String(),
			"cause":       err.Error(),
		})

		if sleepCtx(ctx, delay) != nil {
			return
		}
	}
}

// tick runs one pipeline pass. Policy failures are downgraded to Noop here;
// capture and dispatch failures propagate to the backoff handling in run.
func (e *Engine) tick(ctx context.Context) error {
	e.mu.Lock()
	e.setPhase(phaseCapturing)
	e.mu.Unlock()

	frame, err := e.source.Capture(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.setPhase(phaseClassifying)
	e.mu.Unlock()

	results := cv.MatchAll(frame, e.templates, e.cfg.Match)
	classification := e.classifier.Classify(frame.Sequence, results)

	e.mu.Lock()
	e.setPhase(phaseDeciding)
	previous := e.stats.LastState
	e.stats.recordTick(classification.State, classification.Sequence)
	e.history.Add(StateRecord{
		State:      classification.State,
		Sequence:   classification.Sequence,
		ObservedAt: frame.Timestamp,
	})
	statsCopy := e.stats
	e.mu.Unlock()

	if classification.State != previous {
		e.publish(events.NewStateChangedEvent(
			string(previous), string(classification.State), classification.Sequence))
	}

	action, err := safeDecide(e.policy, classification.State, statsCopy)
	if err != nil {
		// Policy bugs cost one Noop tick, never the loop
		e.log.Warn(err.Error())
		action = Noop()
	}

	e.mu.Lock()
	e.setPhase(phaseActing)
	e.mu.Unlock()

	report, err := e.executor.Execute(ctx, action)
	if err != nil {
		return err
	}

	if action.Kind != ActionNoop {
		e.mu.Lock()
		e.stats.ActionsExecuted++
		e.mu.Unlock()

		e.publish(events.NewActionExecutedEvent(
			action.String(), string(classification.State), report.Elapsed))
	}

	return nil
}

// setPhase must be called with e.mu held
func (e *Engine) setPhase(phase tickPhase) {
	e.phase = phase
}

func (e *Engine) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}

// WaitForState polls the engine status until the loop observes the wanted
// state or the timeout elapses. Intended for policies and operators driving
// the engine from outside the tick pipeline.
func WaitForState(ctx context.Context, e *Engine, want GameState, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if e.Status().LastState == want {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timeout waiting for state " + string(want))
		}
		if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
			return err
		}
	}
}
