package database

import (
	"time"

	"jordanella.com/screenbot-go/internal/events"
	"jordanella.com/screenbot-go/internal/logging"
)

// Recorder subscribes to the event bus and persists the run history, so the
// engine itself stays decoupled from storage. Handlers run on the bus
// processor goroutine in publish order, which keeps session lifecycle
// writes sequential.
type Recorder struct {
	db   *DB
	log  *logging.Logger
	subs []events.SubscriptionID
	bus  events.EventBus

	sessionID int64
	failures  uint64
}

// NewRecorder creates a recorder over an open database
func NewRecorder(db *DB) *Recorder {
	return &Recorder{
		db:  db,
		log: logging.NewLogger("recorder"),
	}
}

// Attach subscribes the recorder to engine events on the bus
func (r *Recorder) Attach(bus events.EventBus) {
	r.bus = bus
	r.subs = []events.SubscriptionID{
		bus.Subscribe(events.EventTypeEngineStarted, r.onStarted),
		bus.Subscribe(events.EventTypeEngineStopped, r.onStopped),
		bus.Subscribe(events.EventTypeRunAborted, r.onAborted),
		bus.Subscribe(events.EventTypeStateChanged, r.onStateChanged),
		bus.Subscribe(events.EventTypeTickFailed, r.onTickFailed),
	}
}

// Detach removes the recorder's subscriptions
func (r *Recorder) Detach() {
	if r.bus == nil {
		return
	}
	for _, id := range r.subs {
		r.bus.Unsubscribe(id)
	}
	r.subs = nil
}

func (r *Recorder) onStarted(event events.Event) {
	sessionID, err := r.db.StartSession(event.Timestamp)
	if err != nil {
		r.log.Error("failed to start session record", err)
		return
	}
	r.sessionID = sessionID
	r.failures = 0
}

func (r *Recorder) onStopped(event events.Event) {
	if r.sessionID == 0 {
		return
	}
	err := r.db.FinishSession(r.sessionID, SessionStopped,
		asUint64(event.Data["ticks"]), asUint64(event.Data["actions"]), r.failures, "")
	if err != nil {
		r.log.Error("failed to finish session record", err)
	}
	r.sessionID = 0
}

func (r *Recorder) onAborted(event events.Event) {
	if r.sessionID == 0 {
		return
	}
	cause, _ := event.Data["cause"].(string)
	err := r.db.FinishSession(r.sessionID, SessionAborted,
		asUint64(event.Data["ticks"]), asUint64(event.Data["actions"]), r.failures, cause)
	if err != nil {
		r.log.Error("failed to finish aborted session record", err)
	}
	r.sessionID = 0
}

func (r *Recorder) onStateChanged(event events.Event) {
	if r.sessionID == 0 {
		return
	}
	from, _ := event.Data["from"].(string)
	to, _ := event.Data["to"].(string)
	sequence := asUint64(event.Data["sequence"])

	observedAt := event.Timestamp
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	if err := r.db.RecordTransition(r.sessionID, from, to, sequence, observedAt); err != nil {
		r.log.Error("failed to record transition", err)
	}
}

func (r *Recorder) onTickFailed(events.Event) {
	r.failures++
}

func asUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case int:
		return uint64(n)
	case int64:
		return uint64(n)
	default:
		return 0
	}
}
