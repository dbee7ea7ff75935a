// Package publisher replays processed journeys onto NATS, one message per kept reading.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/sigbug"
	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// PublisherMetrics receives publish outcomes.
type PublisherMetrics interface {
	PublishedInc()
	PublishErrInc()
}

// NATSPublisher publishes the readings of each written track.
type NATSPublisher struct {
	conn    Conn
	prefix  string
	log     *slog.Logger
	metrics PublisherMetrics
}

// PositionMessage is the JSON body of every published reading.
type PositionMessage struct {
	Journey   string    `json:"journey"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Data      string    `json:"data"` // Data is the hex sigbug GPS payload for the reading.
}

// Connect dials NATS and returns a publisher writing under subject prefix.
func Connect(url, prefix string, log *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("tracksheet"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return New(nc, prefix, log, m), nil
}

// New wraps an established connection.
func New(conn Conn, prefix string, log *slog.Logger, m PublisherMetrics) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, log: log, metrics: m}
}

// Subject returns the subject readings of journey are published to.
func (p *NATSPublisher) Subject(journey string) string {
	if p.prefix == "" {
		return subjectToken(journey)
	}
	return p.prefix + "." + subjectToken(journey)
}

// Write publishes every kept reading of track in order and flushes the connection.
func (p *NATSPublisher) Write(ctx context.Context, track models.Track) error {
	subject := p.Subject(track.Name)

	for seq, rdg := range track.Readings {
		body, err := json.Marshal(PositionMessage{
			Journey:   track.Name,
			Seq:       seq,
			Timestamp: rdg.Timestamp,
			Lat:       rdg.Latitude,
			Lon:       rdg.Longitude,
			Data:      sigbug.Encode(rdg.Latitude, rdg.Longitude),
		})
		if err != nil {
			return fmt.Errorf("failed to encode reading %d of %q: %w", seq, track.Name, err)
		}

		if err = p.conn.Publish(subject, body); err != nil {
			p.observe(err)
			return fmt.Errorf("failed to publish reading %d of %q: %w", seq, track.Name, err)
		}
		p.observe(nil)
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush readings of %q: %w", track.Name, err)
	}

	p.log.DebugContext(ctx, "Journey published", "subject", subject, "readings", len(track.Readings))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

func (p *NATSPublisher) observe(err error) {
	if p.metrics == nil {
		return
	}
	if err != nil {
		p.metrics.PublishErrInc()
		return
	}
	p.metrics.PublishedInc()
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
