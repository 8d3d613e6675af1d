package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Engine lifecycle events
	EventTypeEngineStarted EventType = "engine.started"
	EventTypeEngineStopped EventType = "engine.stopped"
	EventTypeRunAborted    EventType = "engine.run_aborted"

	// Tick events
	EventTypeStateChanged   EventType = "engine.state_changed"
	EventTypeActionExecuted EventType = "engine.action_executed"
	EventTypeTickFailed     EventType = "engine.tick_failed"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType
	Source    string
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	Unsubscribe(id SubscriptionID)
	Publish(event Event)
	Stop()
}

// Helper constructors for engine events

// NewEngineStartedEvent creates an engine started event
func NewEngineStartedEvent() Event {
	return Event{
		Type:      EventTypeEngineStarted,
		Source:    "engine",
		Timestamp: time.Now(),
	}
}

// NewEngineStoppedEvent creates an engine stopped event carrying the final
// run counters
func NewEngineStoppedEvent(ticks, actions, retries uint64) Event {
	return Event{
		Type:      EventTypeEngineStopped,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"ticks":   ticks,
			"actions": actions,
			"retries": retries,
		},
	}
}

// NewStateChangedEvent creates a state transition event
func NewStateChangedEvent(from, to string, sequence uint64) Event {
	return Event{
		Type:      EventTypeStateChanged,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"from":     from,
			"to":       to,
			"sequence": sequence,
		},
	}
}

// NewActionExecutedEvent creates an action execution event
func NewActionExecutedEvent(action, state string, elapsed time.Duration) Event {
	return Event{
		Type:      EventTypeActionExecuted,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"action":  action,
			"state":   state,
			"elapsed": elapsed.String(),
		},
	}
}

// NewTickFailedEvent creates a tick failure event
func NewTickFailedEvent(cause string, consecutive int) Event {
	return Event{
		Type:      EventTypeTickFailed,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"cause":       cause,
			"consecutive": consecutive,
		},
	}
}

// NewRunAbortedEvent creates the terminal abort event
func NewRunAbortedEvent(consecutive int, cause string, ticks, actions, retries uint64) Event {
	return Event{
		Type:      EventTypeRunAborted,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"consecutive": consecutive,
			"cause":       cause,
			"ticks":       ticks,
			"actions":     actions,
			"retries":     retries,
		},
	}
}
