package convlog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/convlog/convlog-go/internal/datefmt"
)

// Default cache capacities.
const (
	DefaultFormatterCacheSize = 10
	DefaultTimestampCacheSize = 1000
)

// Option configures a Decoder using the functional options pattern.
type Option func(*config)

type config struct {
	zone               *time.Location
	name               string
	logger             *slog.Logger
	formatterCacheSize int
	timestampCacheSize int
	clock              func() time.Time
	registerer         prometheus.Registerer
}

func defaultConfig() *config {
	return &config{
		zone:               time.UTC,
		formatterCacheSize: DefaultFormatterCacheSize,
		timestampCacheSize: DefaultTimestampCacheSize,
		clock:              time.Now,
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) validate() error {
	if c.formatterCacheSize <= 0 {
		return fmt.Errorf("formatter cache size must be positive, got %d", c.formatterCacheSize)
	}
	if c.timestampCacheSize <= 0 {
		return fmt.Errorf("timestamp cache size must be positive, got %d", c.timestampCacheSize)
	}
	return nil
}

// WithDefaultZone sets the zone for timestamps whose layout names no zone
// or offset, and the zone in which "today" is computed for time-only
// layouts. Default: UTC. A nil loc keeps the default.
func WithDefaultZone(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.zone = loc
		}
	}
}

// WithName labels the decoder. The name is copied to Event.Layout and
// used as the layout label of metrics.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithFormatterCacheSize sets how many per-day formatters are kept for
// time-only layouts. Default: 10.
func WithFormatterCacheSize(n int) Option {
	return func(c *config) {
		c.formatterCacheSize = n
	}
}

// WithTimestampCacheSize sets how many parsed timestamps are kept for
// layouts without sub-second fields. Default: 1000.
func WithTimestampCacheSize(n int) Option {
	return func(c *config) {
		c.timestampCacheSize = n
	}
}

// WithClock overrides the source of "today" for time-only layouts.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithRegisterer registers line and cache counters on reg.
// Decoders sharing a registerer share the collectors.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// LoadZone resolves a time zone given as a region id ("Asia/Tokyo"), an
// abbreviation ("PST", "JST"), "Z", or an offset ("+09:00", "UTC+9").
func LoadZone(name string) (*time.Location, error) {
	return datefmt.ParseZone(name)
}
