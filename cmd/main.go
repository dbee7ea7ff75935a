package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/config"
	"github.com/UnknownOlympus/tracksheet/internal/geocoding"
	"github.com/UnknownOlympus/tracksheet/internal/metrics"
	"github.com/UnknownOlympus/tracksheet/internal/publisher"
	"github.com/UnknownOlympus/tracksheet/internal/repository"
	"github.com/UnknownOlympus/tracksheet/internal/service"
	"github.com/UnknownOlympus/tracksheet/internal/starttime"
	"github.com/UnknownOlympus/tracksheet/internal/workbook"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	code := run(ctx, cfg, logger)
	stop()
	os.Exit(code)
}

// run wires the sinks, processes the input directory once and returns the exit code.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	runID := uuid.New()

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	starts, err := newStartGenerator(cfg.Start)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid start time configuration", "error", err)
		return 1
	}

	providerConfig := geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.Provider),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: cfg.Geocoder.RateLimit,
		Logger:    logger,
	}
	geoProvider, err := geocoding.NewProvider(providerConfig)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create geocoding provider", "error", err)
		return 1
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Geocoder.Provider)

	book := workbook.New(cfg.MessageData)
	defer book.Close()

	batch := service.NewBatchService(
		logger,
		service.Options{
			InputDir:    cfg.InputDir,
			Extension:   cfg.Extension,
			OutputPath:  cfg.OutputPath,
			MinDistance: cfg.MinDistance,
			Workers:     cfg.Workers,
			OnError:     cfg.OnError,
			Summary:     cfg.Summary,
		},
		starts,
		book,
		geoProvider,
		cfg.Geocoder.Provider, // Provider name for metrics
		appMetrics,
		runID,
	)

	var dtb *pgxpool.Pool
	if cfg.Database.Host != "" {
		dtb, err = repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to connect to DB", "error", err)
			return 1
		}
		defer dtb.Close()

		repo := repository.NewRepository(dtb, logger)
		if err = repo.InitSchema(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to prepare DB schema", "error", err)
			return 1
		}
		batch.AddSink("postgres", repository.NewRunWriter(repo, runID))
	}

	if cfg.SQLitePath != "" {
		sqlDB, sqlErr := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if sqlErr != nil {
			logger.ErrorContext(ctx, "Failed to open SQLite database", "error", sqlErr)
			return 1
		}
		defer sqlDB.Close()

		sqliteRepo := repository.NewSQLiteRepository(sqlDB, logger)
		if sqlErr = sqliteRepo.InitSchema(ctx); sqlErr != nil {
			logger.ErrorContext(ctx, "Failed to prepare SQLite schema", "error", sqlErr)
			return 1
		}
		batch.AddSink("sqlite", repository.NewRunWriter(sqliteRepo, runID))
	}

	if cfg.NATS.URL != "" {
		pub, natsErr := publisher.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger, appMetrics)
		if natsErr != nil {
			logger.ErrorContext(ctx, "Failed to connect to NATS", "error", natsErr)
			return 1
		}
		defer pub.Close()
		batch.AddSink("nats", pub)
	}

	if cfg.MetricsPort > 0 {
		// Start the monitoring server in a goroutine so it is scraped while the batch runs.
		server := newMonitoringServer(ctx, logger, reg, dtb, cfg.MetricsPort)
		go func() {
			logger.InfoContext(ctx, "Starting monitoring server", "port", cfg.MetricsPort)
			if srvErr := server.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.ErrorContext(ctx, "Monitoring server failed", "error", srvErr)
			}
		}()
		defer shutdownMonitoringServer(logger, server)
	}

	logger.InfoContext(ctx, "Run started", "run", runID, "input", cfg.InputDir, "output", cfg.OutputPath)

	report, err := batch.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Run failed",
			"run", runID, "journeys", report.Journeys, "failed", report.Failed, "error", err)
		return 1
	}

	fmt.Fprintf(os.Stdout, "run %s: %d journeys written to %s, %d of %d readings kept, %d failed\n",
		report.RunID, report.Journeys, cfg.OutputPath, report.Kept, report.Readings, report.Failed)
	return 0
}

// newStartGenerator returns the fixed start when one is configured and a
// uniform draw between the bounds otherwise.
func newStartGenerator(cfg config.StartConfig) (starttime.Generator, error) {
	if !cfg.Fixed.IsZero() {
		return starttime.Fixed(cfg.Fixed), nil
	}
	return starttime.NewUniform(cfg.Min, cfg.Max, nil)
}

// newMonitoringServer builds an HTTP server that provides health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping), nil when Postgres is not configured.
// - port: The port number on which the server will listen.
func newMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	port int,
) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if dtb != nil {
			if err := dtb.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	readTimeout := 5
	writeTimeout := 10
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
}

func shutdownMonitoringServer(log *slog.Logger, server *http.Server) {
	shutdownTimeout := 5
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Monitoring server shutdown failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
