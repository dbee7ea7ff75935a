package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const readingsTable = "journey_readings"

var readingColumns = []string{"journey_id", "seq", "latitude", "longitude", "stamp"}

// InitSchema creates the journeys and journey_readings tables when they are missing.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS journeys (
			id               UUID PRIMARY KEY,
			run_id           UUID NOT NULL,
			name             TEXT NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL,
			duration_seconds BIGINT NOT NULL,
			source_readings  INTEGER NOT NULL,
			kept_readings    INTEGER NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS journey_readings (
			journey_id UUID NOT NULL REFERENCES journeys (id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			latitude   DOUBLE PRECISION NOT NULL,
			longitude  DOUBLE PRECISION NOT NULL,
			stamp      BIGINT NOT NULL,
			PRIMARY KEY (journey_id, seq)
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveTrack inserts the journey row and copies its readings in one transaction.
// Nothing is stored when any step fails.
func (r *Repository) SaveTrack(ctx context.Context, runID uuid.UUID, track models.Track) error {
	query := `
		INSERT INTO journeys (id, run_id, name, started_at, duration_seconds, source_readings, kept_readings)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	journeyID := uuid.New()
	_, err = tx.Exec(ctx, query,
		journeyID, runID, track.Name, track.Start,
		int64(track.Duration.Seconds()), track.SourceReadings, len(track.Readings),
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to insert journey %q: %w", track.Name, err)
	}

	rows := make([][]any, 0, len(track.Readings))
	for seq, rdg := range track.Readings {
		rows = append(rows, []any{journeyID, seq, rdg.Latitude, rdg.Longitude, rdg.Timestamp.Unix()})
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{readingsTable}, readingColumns, pgx.CopyFromRows(rows))
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to copy readings of journey %q: %w", track.Name, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit journey %q: %w", track.Name, err)
	}

	r.log.DebugContext(ctx, "Journey stored in postgres",
		"journey", track.Name, "id", journeyID, "readings", copied)

	return nil
}
