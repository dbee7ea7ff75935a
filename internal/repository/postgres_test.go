package repository_test

import (
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const insertJourneyQuery = `
		INSERT INTO journeys (id, run_id, name, started_at, duration_seconds, source_readings, kept_readings)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

var readingColumns = []string{"journey_id", "seq", "latitude", "longitude", "stamp"}

func sampleTrack() models.Track {
	start := time.Date(2019, time.March, 12, 12, 30, 0, 0, time.UTC)
	return models.Track{
		Name:           "dbnCpt",
		Start:          start,
		Duration:       90 * time.Minute,
		SourceReadings: 3,
		Readings: []models.TimestampedReading{
			{Reading: models.Reading{Latitude: -29.8587, Longitude: 31.0218}, Timestamp: start},
			{Reading: models.Reading{Latitude: -33.9249, Longitude: 18.4241}, Timestamp: start.Add(time.Hour)},
		},
	}
}

func TestInitSchema(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("error - create schema", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS journeys").WillReturnError(assert.AnError)

		err = repo.InitSchema(ctx)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to create schema")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - create schema", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS journeys").WillReturnResult(pgxmock.NewResult("CREATE", 0))

		require.NoError(t, repo.InitSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveTrack(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	runID := uuid.New()
	track := sampleTrack()
	journeyArgs := []any{
		pgxmock.AnyArg(), runID, track.Name, track.Start, int64(5400), 3, 2,
	}

	t.Run("error - begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		err = repo.SaveTrack(ctx, runID, track)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - insert journey", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertJourneyQuery)).
			WithArgs(journeyArgs...).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err = repo.SaveTrack(ctx, runID, track)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, `failed to insert journey "dbnCpt"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - copy readings", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertJourneyQuery)).
			WithArgs(journeyArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"journey_readings"}, readingColumns).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err = repo.SaveTrack(ctx, runID, track)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to copy readings")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - commit", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertJourneyQuery)).
			WithArgs(journeyArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"journey_readings"}, readingColumns).
			WillReturnResult(2)
		mock.ExpectCommit().WillReturnError(assert.AnError)

		err = repo.SaveTrack(ctx, runID, track)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to commit journey")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - save track", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		writer := repository.NewRunWriter(repository.NewRepository(mock, logger), runID)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insertJourneyQuery)).
			WithArgs(journeyArgs...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCopyFrom(pgx.Identifier{"journey_readings"}, readingColumns).
			WillReturnResult(2)
		mock.ExpectCommit()

		require.NoError(t, writer.Write(ctx, track))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
