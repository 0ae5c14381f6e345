// Package config defines process configuration and its layered loading.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers an optional YAML file and BAB_ environment variables on top.
//   - The pure pipeline never sees Config; it receives the option values
//     derived by WrangleOptions, AnalysisOptions and ChartPalette.
package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/chart"
	"github.com/blue-az/BabAnalysis/internal/logger"
	"github.com/blue-az/BabAnalysis/internal/metrics"
	"github.com/blue-az/BabAnalysis/internal/wrangle"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SessionDB and ShotDB are the sensor SQLite files. They may be the same.
	SessionDB string `koanf:"session_db"`
	ShotDB    string `koanf:"shot_db"`

	// CacheSize bounds the load cache per table. 0 disables caching.
	CacheSize int `koanf:"cache_size"`

	// Timezone is the IANA zone sessions and shots are displayed in.
	Timezone string `koanf:"timezone"`

	// SpeedFactor converts sensor speeds (m/s) to display units.
	SpeedFactor float64 `koanf:"speed_factor"`

	// SpeedUnit labels display speeds.
	SpeedUnit string `koanf:"speed_unit"`

	// RollingWindow is the default rolling average window.
	RollingWindow int `koanf:"rolling_window"`

	// MinSpeed drops shots and speed history points below it.
	MinSpeed float64 `koanf:"min_speed"`

	// SkewTolerance widens each session window when aligning shots.
	SkewTolerance time.Duration `koanf:"skew_tolerance"`

	// AssignUnlinked attaches shots without a session id by time.
	AssignUnlinked bool `koanf:"assign_unlinked"`

	// Palette overrides series colors by key, e.g. serve: "#e74c3c".
	Palette map[string]string `koanf:"palette"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets overrides the latency histogram buckets in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     logger.FormatText,
		Addr:          ":8501",
		SessionDB:     "./playpop_.db",
		ShotDB:        "./BabPopExt.db",
		CacheSize:     32,
		Timezone:      wrangle.DefaultTimezone,
		SpeedFactor:   wrangle.DefaultSpeedFactor,
		SpeedUnit:     "mph",
		RollingWindow: analysis.DefaultRollingWindow,
		MinSpeed:      wrangle.DefaultMinSpeed,
		Palette:       map[string]string{},

		MetricsNamespace: "bab",
		MetricsSubsystem: "analysis",
	}
}

// Validate checks every field and returns an ErrInvalidConfig describing the
// first problem found.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case strings.TrimSpace(c.SessionDB) == "":
		return invalid("session_db must not be empty")
	case strings.TrimSpace(c.ShotDB) == "":
		return invalid("shot_db must not be empty")
	case c.CacheSize < 0:
		return invalid("cache_size must not be negative, got %d", c.CacheSize)
	case !(c.SpeedFactor > 0) || math.IsInf(c.SpeedFactor, 1):
		return invalid("speed_factor must be a finite positive number, got %g", c.SpeedFactor)
	case c.RollingWindow < 1:
		return invalid("rolling_window must be at least 1, got %d", c.RollingWindow)
	case !(c.MinSpeed >= 0) || math.IsInf(c.MinSpeed, 1):
		return invalid("min_speed must be a finite non-negative number, got %g", c.MinSpeed)
	case c.SkewTolerance < 0:
		return invalid("skew_tolerance must not be negative, got %s", c.SkewTolerance)
	}
	if !metricName.MatchString(c.MetricsNamespace) {
		return invalid("metrics_namespace %q is not a valid metric name", c.MetricsNamespace)
	}
	if c.MetricsSubsystem != "" && !metricName.MatchString(c.MetricsSubsystem) {
		return invalid("metrics_subsystem %q is not a valid metric name", c.MetricsSubsystem)
	}
	for i, b := range c.MetricsBuckets {
		if math.IsNaN(b) || math.IsInf(b, 0) || (i > 0 && b <= c.MetricsBuckets[i-1]) {
			return invalid("metrics_buckets must be finite and strictly increasing, got %v", c.MetricsBuckets)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return invalid("timezone %q: %v", c.Timezone, err)
	}
	if _, err := chart.ParsePalette(c.Palette); err != nil {
		return invalid("%v", err)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsOptions derives the metrics manager options.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithSubsystem(c.MetricsSubsystem),
		metrics.WithHistogramBuckets(c.MetricsBuckets),
	}
}

// WrangleOptions derives the wrangler options. Call Validate first.
func (c *Config) WrangleOptions() (wrangle.Options, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return wrangle.Options{}, invalid("timezone %q: %v", c.Timezone, err)
	}
	return wrangle.Options{
		Location:       loc,
		SpeedFactor:    c.SpeedFactor,
		MinSpeed:       c.MinSpeed,
		SkewTolerance:  c.SkewTolerance,
		AssignUnlinked: c.AssignUnlinked,
	}, nil
}

// AnalysisOptions derives the analyzer defaults.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{RollingWindow: c.RollingWindow}
}

// ChartPalette derives the chart palette.
func (c *Config) ChartPalette() (chart.Palette, error) {
	p, err := chart.ParsePalette(c.Palette)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return p, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
