package database

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		Up:          migration002Up,
	},
	{
		Version:     3,
		Description: "Create transitions table",
		Up:          migration003Up,
	},
}

// RunMigrations applies every pending migration in order
func (db *DB) RunMigrations() error {
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= version {
			continue
		}
		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
			}
			if m.Version > 1 {
				_, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.Version)
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (db *DB) schemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(
		"SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 1, nil // schema_version exists but empty: only migration 1 applied
	}
	if err != nil {
		// No schema_version table yet
		return 0, nil
	}
	return version, nil
}

func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			ticks INTEGER NOT NULL DEFAULT 0,
			actions INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running',
			abort_cause TEXT
		)
	`)
	return err
}

func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL REFERENCES sessions(id),
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			frame_sequence INTEGER NOT NULL,
			observed_at DATETIME NOT NULL
		)
	`)
	return err
}
