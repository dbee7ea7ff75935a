package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/config"
	"github.com/UnknownOlympus/tracksheet/internal/geocoding"
	"github.com/UnknownOlympus/tracksheet/internal/metrics"
	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/reading"
	"github.com/UnknownOlympus/tracksheet/internal/starttime"
	"github.com/UnknownOlympus/tracksheet/internal/tracklog"
	"github.com/UnknownOlympus/tracksheet/internal/workbook"
	"github.com/google/uuid"
)

// ErrNoInput is returned when the input directory holds no track logs.
var ErrNoInput = errors.New("no track log files found")

// Sink receives every processed journey of a run, in file order.
type Sink interface {
	Write(ctx context.Context, track models.Track) error
}

// Options are the batch settings taken from configuration.
type Options struct {
	InputDir    string               // InputDir is scanned for track logs.
	Extension   string               // Extension selects track log files, including the dot.
	OutputPath  string               // OutputPath is where the workbook is saved.
	MinDistance float64              // MinDistance in meters below which a reading is discarded.
	Workers     int                  // Workers is the size of the processing pool.
	OnError     config.FailurePolicy // OnError decides what a failing journey does to the run.
	Summary     bool                 // Summary adds a "journeys" overview sheet.
}

// Report describes the outcome of a run.
type Report struct {
	RunID    uuid.UUID
	Journeys int // Journeys written to the sinks.
	Failed   int // Failed journeys that could not be parsed or processed.
	Readings int // Readings parsed from the written journeys.
	Kept     int // Kept readings after deduplication.
}

type output struct {
	name string
	sink Sink
}

type job struct {
	idx   int
	path  string
	start time.Time
}

type result struct {
	track models.Track
	err   error
}

// BatchService turns a directory of track logs into a workbook and feeds the
// processed journeys to any additional sinks.
type BatchService struct {
	log          *slog.Logger        // Logger for logging service activities
	opts         Options             // Batch settings
	starts       starttime.Generator // Source of journey start times
	book         *workbook.Workbook  // Workbook every run is saved to
	outputs      []output            // Additional sinks, written after the workbook
	provider     geocoding.Provider  // Reverse geocoder for the summary sheet
	providerName string              // Name of the provider for metrics labeling
	metrics      *metrics.Metrics    // Metrics for tracking service performance
	runID        uuid.UUID           // Identifier of this run
}

// NewBatchService creates a new instance of BatchService. A nil provider
// leaves the place columns of the summary sheet empty.
func NewBatchService(
	log *slog.Logger,
	opts Options,
	starts starttime.Generator,
	book *workbook.Workbook,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	runID uuid.UUID,
) *BatchService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &BatchService{
		log:          log,
		opts:         opts,
		starts:       starts,
		book:         book,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		runID:        runID,
	}
}

// AddSink registers a sink written after the workbook. The name labels sink metrics.
func (bs *BatchService) AddSink(name string, sink Sink) {
	bs.outputs = append(bs.outputs, output{name: name, sink: sink})
}

// Run processes every track log in the input directory and saves the workbook.
// Start times are drawn in file order before any journey is processed, so a
// seeded generator always yields the same workbook.
func (bs *BatchService) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: bs.runID}

	paths, err := tracklog.Scan(bs.opts.InputDir, bs.opts.Extension)
	if err != nil {
		return report, err
	}
	if len(paths) == 0 {
		return report, fmt.Errorf("%w in %s with extension %q", ErrNoInput, bs.opts.InputDir, bs.opts.Extension)
	}

	bs.log.InfoContext(ctx, "Found track logs. Starting worker pool.",
		"run", bs.runID, "jobs", len(paths), "num_workers", bs.opts.Workers)

	results := bs.process(ctx, paths)
	if err = ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled: %w", err)
	}

	tracks := make([]models.Track, 0, len(results))
	for idx, res := range results {
		if res.err != nil {
			report.Failed++
			bs.metrics.JourneysProcessed.WithLabelValues("failure").Inc()
			if bs.opts.OnError != config.FailSkip {
				return report, fmt.Errorf("run aborted: %w", res.err)
			}
			bs.log.WarnContext(ctx, "Skipping journey", "file", paths[idx], "error", res.err)
			continue
		}

		bs.metrics.JourneysProcessed.WithLabelValues("success").Inc()
		bs.metrics.Readings.WithLabelValues("kept").Add(float64(len(res.track.Readings)))
		bs.metrics.Readings.WithLabelValues("discarded").Add(float64(res.track.Discarded()))
		tracks = append(tracks, res.track)
	}

	for _, track := range tracks {
		if err = bs.write(ctx, track); err != nil {
			return report, err
		}
		report.Journeys++
		report.Readings += track.SourceReadings
		report.Kept += len(track.Readings)
	}

	if bs.opts.Summary && len(tracks) > 0 {
		summary, sumErr := bs.summary(ctx, tracks)
		if sumErr != nil {
			return report, sumErr
		}
		if err = bs.book.WriteTable(summary); err != nil {
			return report, fmt.Errorf("failed to write summary sheet: %w", err)
		}
	}

	if err = bs.book.Save(bs.opts.OutputPath); err != nil {
		return report, err
	}

	bs.log.InfoContext(ctx, "Run finished",
		"run", bs.runID,
		"output", bs.opts.OutputPath,
		"journeys", report.Journeys,
		"failed", report.Failed,
		"readings", report.Readings,
		"kept", report.Kept,
		"sheets", bs.book.Sheets(),
	)
	return report, nil
}

// process runs the worker pool and returns one result per path, in path order.
func (bs *BatchService) process(ctx context.Context, paths []string) []result {
	jobs := make(chan job, len(paths))
	for idx, path := range paths {
		jobs <- job{idx: idx, path: path, start: bs.starts.Next()}
	}
	close(jobs)

	results := make([]result, len(paths))
	var wgr sync.WaitGroup

	for i := 1; i <= min(bs.opts.Workers, len(paths)); i++ {
		wgr.Add(1)
		go bs.worker(ctx, i, &wgr, jobs, results)
	}

	wgr.Wait()
	bs.log.DebugContext(ctx, "Processing batch finished", "run", bs.runID)
	return results
}

// worker parses and processes journeys from the jobs channel. Each job owns
// its slot in results, so workers never write the same element.
func (bs *BatchService) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan job,
	results []result,
) {
	defer wg.Done()
	for jb := range jobs {
		if err := ctx.Err(); err != nil {
			results[jb.idx] = result{err: err}
			continue
		}

		bs.metrics.ActiveWorkers.Inc()
		bs.log.DebugContext(ctx, "Processing journey", "worker", idx, "file", jb.path)

		startTime := time.Now()
		track, err := bs.processFile(jb.path, jb.start)
		bs.metrics.ProcessSeconds.Observe(time.Since(startTime).Seconds())

		if err != nil {
			bs.log.ErrorContext(ctx, "Failed to process journey", "worker", idx, "file", jb.path, "error", err)
		} else {
			bs.log.DebugContext(ctx, "Worker successfully processed the journey",
				"worker", idx,
				"journey", track.Name,
				"kept", len(track.Readings),
				"discarded", track.Discarded(),
			)
		}

		results[jb.idx] = result{track: track, err: err}
		bs.metrics.ActiveWorkers.Dec()
	}
}

func (bs *BatchService) processFile(path string, start time.Time) (models.Track, error) {
	journey, err := tracklog.ParseFile(path)
	if err != nil {
		return models.Track{}, err
	}
	return reading.Track(journey, start, bs.opts.MinDistance)
}

// write hands the track to the workbook and then to every registered sink.
func (bs *BatchService) write(ctx context.Context, track models.Track) error {
	if err := bs.book.Write(ctx, track); err != nil {
		bs.metrics.SinkErrors.WithLabelValues("workbook").Inc()
		return fmt.Errorf("failed to write journey %q to workbook: %w", track.Name, err)
	}
	for _, out := range bs.outputs {
		if err := out.sink.Write(ctx, track); err != nil {
			bs.metrics.SinkErrors.WithLabelValues(out.name).Inc()
			return fmt.Errorf("failed to write journey %q to %s: %w", track.Name, out.name, err)
		}
	}
	return nil
}
