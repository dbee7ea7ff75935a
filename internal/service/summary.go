package service

import (
	"context"
	"fmt"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/geocoding"
	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/table"
)

// SummarySheet is the name of the overview sheet.
const SummarySheet = "journeys"

var summaryColumns = []string{
	"journey", "readings", "kept", "duration", "start", "end", "polyline", "start_place", "end_place",
}

// summary builds one overview row per track. Start and end are unix seconds
// like the stamp column of the journey sheets.
func (bs *BatchService) summary(ctx context.Context, tracks []models.Track) (*table.Table, error) {
	tbl := table.New(SummarySheet, summaryColumns...)
	for _, track := range tracks {
		first := track.Readings[0]
		last := track.Readings[len(track.Readings)-1]

		err := tbl.AppendRow(
			track.Name,
			track.SourceReadings,
			len(track.Readings),
			clock(track.Duration),
			first.Timestamp.Unix(),
			last.Timestamp.Unix(),
			geocoding.Polyline(track),
			bs.place(ctx, first.Coordinates()),
			bs.place(ctx, last.Coordinates()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add summary row for journey %q: %w", track.Name, err)
		}
	}
	return tbl, nil
}

// place reverse geocodes coords. Failures are logged and leave the cell empty.
func (bs *BatchService) place(ctx context.Context, coords models.Coordinates) string {
	if bs.provider == nil {
		return ""
	}

	startTime := time.Now()
	address, err := bs.provider.ReverseGeocode(ctx, coords)
	bs.metrics.GeocoderSeconds.WithLabelValues(bs.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		bs.metrics.GeocoderErrors.Inc()
		bs.log.WarnContext(ctx, "Failed to reverse geocode", "provider", bs.providerName, "error", err)
		return ""
	}
	return address
}

// clock formats a duration the way track logs state it, as HH:MM.
func clock(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
