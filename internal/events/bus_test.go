package events

import (
	"sync"
	"testing"
	"time"
)

// collector records events delivered to it, safe for concurrent delivery
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func waitForEvents(t *testing.T, c *collector, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := c.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got %d events, want %d", len(c.snapshot()), n)
	return nil
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	c := &collector{}
	bus.Subscribe(EventTypeStateChanged, c.handle)

	bus.Publish(NewStateChangedEvent("Unknown", "MainMenu", 7))

	got := waitForEvents(t, c, 1)
	if got[0].Type != EventTypeStateChanged {
		t.Errorf("Type = %s, want %s", got[0].Type, EventTypeStateChanged)
	}
	if got[0].Data["to"] != "MainMenu" {
		t.Errorf("Data[to] = %v, want MainMenu", got[0].Data["to"])
	}
	if got[0].Data["sequence"] != uint64(7) {
		t.Errorf("Data[sequence] = %v, want 7", got[0].Data["sequence"])
	}
}

func TestHandlersObservePublishOrder(t *testing.T) {
	bus := NewEventBus(64)
	defer bus.Stop()

	c := &collector{}
	bus.Subscribe(EventTypeTickFailed, c.handle)

	for i := 1; i <= 10; i++ {
		bus.Publish(NewTickFailedEvent("capture failed", i))
	}

	got := waitForEvents(t, c, 10)
	for i, event := range got {
		if event.Data["consecutive"] != i+1 {
			t.Fatalf("event %d: consecutive = %v, want %d", i, event.Data["consecutive"], i+1)
		}
	}
}

func TestSubscribersAreTypeFiltered(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	started := &collector{}
	stopped := &collector{}
	bus.Subscribe(EventTypeEngineStarted, started.handle)
	bus.Subscribe(EventTypeEngineStopped, stopped.handle)

	bus.Publish(NewEngineStartedEvent())
	bus.Publish(NewEngineStoppedEvent(12, 4, 1))

	waitForEvents(t, started, 1)
	got := waitForEvents(t, stopped, 1)
	if got[0].Data["ticks"] != uint64(12) {
		t.Errorf("Data[ticks] = %v, want 12", got[0].Data["ticks"])
	}
	if len(started.snapshot()) != 1 {
		t.Errorf("started collector saw %d events, want 1", len(started.snapshot()))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	c := &collector{}
	id := bus.Subscribe(EventTypeEngineStarted, c.handle)

	bus.Publish(NewEngineStartedEvent())
	waitForEvents(t, c, 1)

	bus.Unsubscribe(id)
	if count := bus.SubscriberCount(EventTypeEngineStarted); count != 0 {
		t.Fatalf("SubscriberCount = %d after unsubscribe, want 0", count)
	}

	bus.Publish(NewEngineStartedEvent())
	time.Sleep(20 * time.Millisecond)
	if got := c.snapshot(); len(got) != 1 {
		t.Errorf("got %d events after unsubscribe, want 1", len(got))
	}
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	bus := NewEventBus(16)
	defer bus.Stop()

	c := &collector{}
	bus.Subscribe(EventTypeRunAborted, func(Event) { panic("handler bug") })
	bus.Subscribe(EventTypeRunAborted, c.handle)

	bus.Publish(NewRunAbortedEvent(5, "capture failed", 20, 8, 5))

	got := waitForEvents(t, c, 1)
	if got[0].Data["cause"] != "capture failed" {
		t.Errorf("Data[cause] = %v, want capture failed", got[0].Data["cause"])
	}
}

func TestStopDrainsQueuedEvents(t *testing.T) {
	bus := NewEventBus(64)

	c := &collector{}
	bus.Subscribe(EventTypeActionExecuted, c.handle)

	for i := 0; i < 20; i++ {
		bus.Publish(NewActionExecutedEvent("tap(10,20)", "MainMenu", 5*time.Millisecond))
	}

	bus.Stop()

	if got := c.snapshot(); len(got) != 20 {
		t.Errorf("delivered %d events after Stop, want 20", len(got))
	}
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	bus := NewEventBus(4)
	c := &collector{}
	bus.Subscribe(EventTypeEngineStarted, c.handle)

	bus.Stop()
	bus.Publish(NewEngineStartedEvent())

	if got := c.snapshot(); len(got) != 0 {
		t.Errorf("delivered %d events after Stop, want 0", len(got))
	}
}
