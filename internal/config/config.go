package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FailurePolicy decides what a failing journey does to the rest of the batch.
type FailurePolicy string

const (
	// FailAbort stops the run at the first failing journey; nothing is written.
	FailAbort FailurePolicy = "abort"
	// FailSkip logs the failing journey and carries on with the next one.
	FailSkip FailurePolicy = "skip"
)

// Config holds the configuration settings for a tracksheet run.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - InputDir: Directory scanned for track logs.
// - Extension: File extension of track logs.
// - OutputPath: Path of the xlsx workbook written at the end of the run.
// - MinDistance: Readings closer than this many meters to the last kept one are dropped.
// - Start: Bounds for random journey start times, or a fixed start.
// - OnError: Failure policy for malformed journeys.
// - Workers: The number of concurrent workers processing journeys.
// - MessageData: Add the hex sigbug payload column to journey sheets.
// - Summary: Add a "journeys" summary sheet.
// - MetricsPort: Port of the monitoring server, zero disables it.
// - Database, SQLitePath, NATS: Optional extra sinks.
// - Geocoder: Optional reverse geocoding for the summary sheet.
type Config struct {
	Env         string
	InputDir    string
	Extension   string
	OutputPath  string
	MinDistance float64
	Start       StartConfig
	OnError     FailurePolicy
	Workers     int
	MessageData bool
	Summary     bool
	MetricsPort int
	Database    PostgresConfig
	SQLitePath  string
	NATS        NATSConfig
	Geocoder    GeocoderConfig
}

// StartConfig bounds the random start time of each journey. A non-zero Fixed wins.
type StartConfig struct {
	Min   time.Time
	Max   time.Time
	Fixed time.Time
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
// An empty Host disables the Postgres sink.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// NATSConfig configures the NATS replay sink. An empty URL disables it.
type NATSConfig struct {
	URL     string
	Subject string
}

// GeocoderConfig selects the reverse geocoding provider for summary sheets.
type GeocoderConfig struct {
	Provider  string
	APIKey    string
	RateLimit int
}

// MustLoad reads .env, an optional config file named by TRACKSHEET_CONFIG and
// TRACKSHEET_* environment variables, in increasing order of precedence.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRACKSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	minDistance, err := strconv.ParseFloat(v.GetString("min_distance"), 64)
	if err != nil || minDistance < 0 {
		panic("failed to parse min_distance from configuration, must be a non-negative number")
	}

	workers, err := strconv.Atoi(v.GetString("workers"))
	if err != nil || workers < 1 {
		panic("failed to parse workers from configuration, must be a positive integer")
	}

	metricsPort, err := strconv.Atoi(v.GetString("metrics_port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	rateLimit, err := strconv.Atoi(v.GetString("geocoder.rate_limit"))
	if err != nil || rateLimit < 0 {
		panic("failed to parse geocoder rate limit from configuration")
	}

	messageData, errMsg := strconv.ParseBool(v.GetString("message_data"))
	summary, errSum := strconv.ParseBool(v.GetString("summary"))
	if errMsg != nil || errSum != nil {
		panic("failed to parse message_data or summary from configuration, must be a boolean")
	}

	policy := FailurePolicy(v.GetString("on_error"))
	if policy != FailAbort && policy != FailSkip {
		panic("failed to parse on_error from configuration, must be abort or skip")
	}

	return &Config{
		Env:         v.GetString("env"),
		InputDir:    v.GetString("input_dir"),
		Extension:   v.GetString("extension"),
		OutputPath:  v.GetString("output"),
		MinDistance: minDistance,
		Start:       mustLoadStart(v),
		OnError:     policy,
		Workers:     workers,
		MessageData: messageData,
		Summary:     summary,
		MetricsPort: metricsPort,
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		SQLitePath: v.GetString("sqlite_path"),
		NATS: NATSConfig{
			URL:     v.GetString("nats.url"),
			Subject: v.GetString("nats.subject"),
		},
		Geocoder: GeocoderConfig{
			Provider:  v.GetString("geocoder.provider"),
			APIKey:    v.GetString("geocoder.api_key"),
			RateLimit: rateLimit,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("input_dir", ".")
	v.SetDefault("extension", ".rdat")
	v.SetDefault("output", "data.xlsx")
	v.SetDefault("min_distance", "100")
	v.SetDefault("start.min", "2019-02-20")
	v.SetDefault("start.max", "2019-12-25")
	v.SetDefault("start.fixed", "")
	v.SetDefault("on_error", string(FailAbort))
	v.SetDefault("workers", "4")
	v.SetDefault("message_data", "false")
	v.SetDefault("summary", "false")
	v.SetDefault("metrics_port", "0")
	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "sigbug.gps")
	v.SetDefault("geocoder.provider", "none")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.rate_limit", "0")
}

func mustLoadStart(v *viper.Viper) StartConfig {
	lower, errMin := parseInstant(v.GetString("start.min"))
	upper, errMax := parseInstant(v.GetString("start.max"))
	if errMin != nil || errMax != nil || upper.Before(lower) {
		panic("failed to parse start bounds from configuration")
	}

	start := StartConfig{Min: lower, Max: upper}
	if fixed := v.GetString("start.fixed"); fixed != "" {
		instant, err := parseInstant(fixed)
		if err != nil {
			panic("failed to parse fixed start from configuration")
		}
		start.Fixed = instant
	}

	return start
}

// parseInstant accepts RFC 3339 timestamps and plain dates, which are read as UTC midnight.
func parseInstant(value string) (time.Time, error) {
	if instant, err := time.Parse(time.RFC3339, value); err == nil {
		return instant, nil
	}
	return time.Parse(time.DateOnly, value)
}
