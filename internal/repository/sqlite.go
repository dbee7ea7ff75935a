package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteRepository stores processed tracks in a SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens the SQLite database at path with foreign keys enforced.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases and pragmas consistent
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: enable foreign keys: %w", path, err)
	}

	return db, nil
}

// NewSQLiteRepository creates a SQLite backed track store.
func NewSQLiteRepository(db *sql.DB, log *slog.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, log: log}
}

// InitSchema creates the journeys and journey_readings tables when they are missing.
func (s *SQLiteRepository) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS journeys (
			id               TEXT PRIMARY KEY,
			run_id           TEXT NOT NULL,
			name             TEXT NOT NULL,
			started_at       INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			source_readings  INTEGER NOT NULL,
			kept_readings    INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS journey_readings (
			journey_id TEXT NOT NULL REFERENCES journeys (id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			latitude   REAL NOT NULL,
			longitude  REAL NOT NULL,
			stamp      INTEGER NOT NULL,
			PRIMARY KEY (journey_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_run ON journeys (run_id);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SaveTrack inserts the journey row and its readings in one transaction.
func (s *SQLiteRepository) SaveTrack(ctx context.Context, runID uuid.UUID, track models.Track) error {
	if s.db == nil {
		return errors.New("save track: DB is nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save track %q: begin tx: %w", track.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	journeyID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO journeys (id, run_id, name, started_at, duration_seconds, source_readings, kept_readings)
		VALUES (?, ?, ?, ?, ?, ?, ?);`,
		journeyID, runID.String(), track.Name, track.Start.Unix(),
		int64(track.Duration.Seconds()), track.SourceReadings, len(track.Readings),
	)
	if err != nil {
		return fmt.Errorf("save track %q: insert journey: %w", track.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO journey_readings (journey_id, seq, latitude, longitude, stamp)
		VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("save track %q: prepare readings insert: %w", track.Name, err)
	}
	defer stmt.Close()

	for seq, rdg := range track.Readings {
		if _, err = stmt.ExecContext(ctx, journeyID, seq, rdg.Latitude, rdg.Longitude, rdg.Timestamp.Unix()); err != nil {
			return fmt.Errorf("save track %q: insert reading #%d: %w", track.Name, seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save track %q: commit tx: %w", track.Name, err)
	}

	s.log.DebugContext(ctx, "Journey stored in sqlite",
		"journey", track.Name, "id", journeyID, "readings", len(track.Readings))

	return nil
}
