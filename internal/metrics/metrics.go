// Package metrics exposes decoder counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Line results.
const (
	ResultMatched   = "matched"
	ResultUnmatched = "unmatched"
	ResultError     = "error"
)

// Cache names.
const (
	CacheTimestamp = "timestamp"
	CacheFormatter = "formatter"
)

// Recorder counts decode outcomes and cache lookups. A nil *Recorder
// records nothing.
type Recorder struct {
	lines        *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
}

// New registers the decoder collectors on reg. Collectors already
// registered by another decoder are shared. A nil reg returns a nil
// Recorder.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}

	lines, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convlog_lines_total",
			Help: "Total number of lines decoded, by layout and result",
		},
		[]string{"layout", "result"}, // matched, unmatched or error
	))
	if err != nil {
		return nil, err
	}

	lookups, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convlog_cache_lookups_total",
			Help: "Total number of decoder cache lookups, by layout, cache and result",
		},
		[]string{"layout", "cache", "result"}, // hit or miss
	))
	if err != nil {
		return nil, err
	}

	return &Recorder{lines: lines, cacheLookups: lookups}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

// Line counts one decoded line.
func (r *Recorder) Line(layout, result string) {
	if r == nil {
		return
	}
	r.lines.WithLabelValues(layout, result).Inc()
}

// CacheLookup counts one cache lookup.
func (r *Recorder) CacheLookup(layout, cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(layout, cache, result).Inc()
}
