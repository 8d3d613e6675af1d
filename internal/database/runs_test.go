package database

import (
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/screenbot-go/internal/events"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)

	started := time.Now().Add(-time.Minute)
	sessionID, err := db.StartSession(started)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if sessionID == 0 {
		t.Fatal("StartSession returned ID 0")
	}

	s, err := db.GetSession(sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s.Status != SessionRunning {
		t.Errorf("Status = %s, want %s", s.Status, SessionRunning)
	}
	if s.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil while running", s.EndedAt)
	}

	if err := db.FinishSession(sessionID, SessionStopped, 42, 17, 3, ""); err != nil {
		t.Fatalf("FinishSession failed: %v", err)
	}

	s, err = db.GetSession(sessionID)
	if err != nil {
		t.Fatalf("GetSession after finish failed: %v", err)
	}
	if s.Status != SessionStopped {
		t.Errorf("Status = %s, want %s", s.Status, SessionStopped)
	}
	if s.Ticks != 42 || s.Actions != 17 || s.Failures != 3 {
		t.Errorf("counters = %d/%d/%d, want 42/17/3", s.Ticks, s.Actions, s.Failures)
	}
	if s.EndedAt == nil {
		t.Error("EndedAt = nil after finish, want set")
	}
	if s.AbortCause != "" {
		t.Errorf("AbortCause = %q, want empty for a clean stop", s.AbortCause)
	}
}

func TestAbortedSessionKeepsCause(t *testing.T) {
	db := openTestDB(t)

	sessionID, err := db.StartSession(time.Now())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := db.FinishSession(sessionID, SessionAborted, 9, 2, 5, "capture failed"); err != nil {
		t.Fatalf("FinishSession failed: %v", err)
	}

	s, err := db.GetSession(sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s.Status != SessionAborted {
		t.Errorf("Status = %s, want %s", s.Status, SessionAborted)
	}
	if s.AbortCause != "capture failed" {
		t.Errorf("AbortCause = %q, want capture failed", s.AbortCause)
	}
}

func TestRecordTransitions(t *testing.T) {
	db := openTestDB(t)

	sessionID, err := db.StartSession(time.Now())
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	transitions := []struct {
		from, to string
		sequence uint64
	}{
		{"Unknown", "MainMenu", 1},
		{"MainMenu", "BattleSelect", 14},
		{"BattleSelect", "InBattle", 30},
	}
	for _, tr := range transitions {
		if err := db.RecordTransition(sessionID, tr.from, tr.to, tr.sequence, time.Now()); err != nil {
			t.Fatalf("RecordTransition(%s -> %s) failed: %v", tr.from, tr.to, err)
		}
	}

	count, err := db.CountTransitions(sessionID)
	if err != nil {
		t.Fatalf("CountTransitions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountTransitions = %d, want 3", count)
	}

	// Other sessions have their own audit trail
	otherID, err := db.StartSession(time.Now())
	if err != nil {
		t.Fatalf("second StartSession failed: %v", err)
	}
	count, err = db.CountTransitions(otherID)
	if err != nil {
		t.Fatalf("CountTransitions failed: %v", err)
	}
	if count != 0 {
		t.Errorf("CountTransitions for fresh session = %d, want 0", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
}

func TestRecorderPersistsRunThroughBus(t *testing.T) {
	db := openTestDB(t)

	bus := events.NewEventBus(32)
	recorder := NewRecorder(db)
	recorder.Attach(bus)
	defer recorder.Detach()

	bus.Publish(events.NewEngineStartedEvent())
	bus.Publish(events.NewStateChangedEvent("Unknown", "MainMenu", 1))
	bus.Publish(events.NewTickFailedEvent("capture failed", 1))
	bus.Publish(events.NewStateChangedEvent("MainMenu", "InBattle", 9))
	bus.Publish(events.NewEngineStoppedEvent(25, 6, 1))

	// Stop drains the queue; handlers run in publish order on the processor
	bus.Stop()

	var sessionID int64 = 1
	s, err := db.GetSession(sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s.Status != SessionStopped {
		t.Errorf("Status = %s, want %s", s.Status, SessionStopped)
	}
	if s.Ticks != 25 || s.Actions != 6 {
		t.Errorf("counters = %d/%d, want 25/6", s.Ticks, s.Actions)
	}
	if s.Failures != 1 {
		t.Errorf("Failures = %d, want 1", s.Failures)
	}

	count, err := db.CountTransitions(sessionID)
	if err != nil {
		t.Fatalf("CountTransitions failed: %v", err)
	}
	if count != 2 {
		t.Errorf("CountTransitions = %d, want 2", count)
	}
}

func TestRecorderAbortCause(t *testing.T) {
	db := openTestDB(t)

	bus := events.NewEventBus(32)
	recorder := NewRecorder(db)
	recorder.Attach(bus)
	defer recorder.Detach()

	bus.Publish(events.NewEngineStartedEvent())
	bus.Publish(events.NewTickFailedEvent("input dispatch rejected", 1))
	bus.Publish(events.NewTickFailedEvent("input dispatch rejected", 2))
	bus.Publish(events.NewRunAbortedEvent(2, "input dispatch rejected", 7, 3, 2))
	bus.Stop()

	s, err := db.GetSession(1)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s.Status != SessionAborted {
		t.Errorf("Status = %s, want %s", s.Status, SessionAborted)
	}
	if s.AbortCause != "input dispatch rejected" {
		t.Errorf("AbortCause = %q, want input dispatch rejected", s.AbortCause)
	}
	if s.Failures != 2 {
		t.Errorf("Failures = %d, want 2", s.Failures)
	}
}
