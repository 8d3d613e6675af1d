package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Run-history operations

// SessionStatus values for the sessions table
const (
	SessionRunning = "running"
	SessionStopped = "stopped"
	SessionAborted = "aborted"
)

// Session is one engine run from start to stop or abort.
type Session struct {
	ID         int64
	StartedAt  time.Time
	EndedAt    *time.Time
	Ticks      uint64
	Actions    uint64
	Failures   uint64
	Status     string
	AbortCause string
}

// StartSession inserts a new running session and returns its ID
func (db *DB) StartSession(startedAt time.Time) (int64, error) {
	var sessionID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO sessions (started_at, status) VALUES (?, ?)
		`, startedAt, SessionRunning)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		sessionID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}

// FinishSession closes a session with final counters and status
func (db *DB) FinishSession(sessionID int64, status string, ticks, actions, failures uint64, abortCause string) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		var cause interface{}
		if abortCause != "" {
			cause = abortCause
		}
		_, err := tx.Exec(`
			UPDATE sessions
			SET ended_at = ?, status = ?, ticks = ?, actions = ?, failures = ?, abort_cause = ?
			WHERE id = ?
		`, time.Now(), status, ticks, actions, failures, cause, sessionID)
		if err != nil {
			return fmt.Errorf("failed to finish session %d: %w", sessionID, err)
		}
		return nil
	})
}

// RecordTransition appends one state transition to the session audit trail
func (db *DB) RecordTransition(sessionID int64, fromState, toState string, frameSequence uint64, observedAt time.Time) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO transitions (session_id, from_state, to_state, frame_sequence, observed_at)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, fromState, toState, frameSequence, observedAt)
		if err != nil {
			return fmt.Errorf("failed to record transition: %w", err)
		}
		return nil
	})
}

// GetSession loads one session by ID
func (db *DB) GetSession(sessionID int64) (*Session, error) {
	var s Session
	var endedAt sql.NullTime
	var abortCause sql.NullString

	err := db.conn.QueryRow(`
		SELECT id, started_at, ended_at, ticks, actions, failures, status, abort_cause
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&s.ID, &s.StartedAt, &endedAt, &s.Ticks, &s.Actions, &s.Failures, &s.Status, &abortCause)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}

	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	if abortCause.Valid {
		s.AbortCause = abortCause.String
	}
	return &s, nil
}

// CountTransitions returns the number of recorded transitions for a session
func (db *DB) CountTransitions(sessionID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM transitions WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transitions: %w", err)
	}
	return count, nil
}
