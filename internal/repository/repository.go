package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of a pgx pool the repository needs.
type Database interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Repository stores processed tracks in PostgreSQL.
type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is implemented by every track store.
type Interface interface {
	InitSchema(ctx context.Context) error
	SaveTrack(ctx context.Context, runID uuid.UUID, track models.Track) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// NewDatabase opens a connection pool to PostgreSQL and checks it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunWriter saves every track written to it under a single run id.
type RunWriter struct {
	repo  Interface
	runID uuid.UUID
}

// NewRunWriter binds a track store to a run.
func NewRunWriter(repo Interface, runID uuid.UUID) *RunWriter {
	return &RunWriter{repo: repo, runID: runID}
}

// Write saves the track.
func (w *RunWriter) Write(ctx context.Context, track models.Track) error {
	return w.repo.SaveTrack(ctx, w.runID, track)
}
