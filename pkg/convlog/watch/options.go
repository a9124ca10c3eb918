package watch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/convlog/convlog-go/internal/logfinder"
)

// Option configures a Watcher using the functional options pattern.
type Option func(*config)

type config struct {
	logDir             string
	file               string
	glob               string
	pollInterval       time.Duration
	poll               bool
	includeRaw         bool
	replay             ReplayConfig
	maxReplayLines     int
	maxReplayBytes     int // 0 = unlimited
	maxReplayLineBytes int // 0 = unlimited
	waitForLogs        bool
	logger             *slog.Logger
	filter             *levelFilter
}

func defaultConfig() *config {
	return &config{
		glob:               logfinder.DefaultGlob,
		pollInterval:       2 * time.Second,
		maxReplayLines:     DefaultMaxReplayLastN,
		maxReplayBytes:     10 * 1024 * 1024,
		maxReplayLineBytes: 512 * 1024,
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
	if c.replay.Mode == ReplayLastN && c.replay.LastN < 0 {
		return fmt.Errorf("replay LastN must be non-negative, got %d", c.replay.LastN)
	}
	if c.replay.Mode == ReplayLastN {
		maxLines := c.maxReplayLines
		if maxLines == 0 {
			maxLines = DefaultMaxReplayLastN
		}
		if maxLines > 0 && c.replay.LastN > maxLines {
			return fmt.Errorf("replay LastN (%d) exceeds maximum of %d", c.replay.LastN, maxLines)
		}
	}
	if c.replay.Mode == ReplaySinceTime && c.replay.Since.IsZero() {
		return fmt.Errorf("replay Since must be set when mode is ReplaySinceTime")
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.maxReplayBytes < 0 {
		return fmt.Errorf("maxReplayBytes must be non-negative, got %d", c.maxReplayBytes)
	}
	if c.maxReplayLineBytes < 0 {
		return fmt.Errorf("maxReplayLineBytes must be non-negative, got %d", c.maxReplayLineBytes)
	}
	if c.file != "" && c.logDir != "" {
		return fmt.Errorf("WithFile and WithLogDir are mutually exclusive")
	}
	return nil
}

// WithLogDir watches the newest file of dir and follows rotation to newer
// files. If neither WithLogDir nor WithFile is given, the directory named
// by the CONVLOG_LOGDIR environment variable is used.
func WithLogDir(dir string) Option {
	return func(c *config) {
		c.logDir = dir
	}
}

// WithFile watches a single file. Rotation is not followed, but a file
// that is truncated or recreated is reopened.
func WithFile(path string) Option {
	return func(c *config) {
		c.file = path
	}
}

// WithGlob selects the log files of the directory; "**" descends into
// subdirectories. Default: "*.log".
func WithGlob(glob string) Option {
	return func(c *config) {
		if glob != "" {
			c.glob = glob
		}
	}
}

// WithPollInterval sets how often to check for new/rotated log files.
// Default: 2 seconds.
func WithPollInterval(interval time.Duration) Option {
	return func(c *config) {
		c.pollInterval = interval
	}
}

// WithPolling detects appended lines by polling the file instead of
// using file system notifications.
func WithPolling(poll bool) Option {
	return func(c *config) {
		c.poll = poll
	}
}

// WithWaitForLogs configures whether to wait for log files to appear.
// When true, if the log directory exists but has no log files yet, the
// watcher polls at the poll interval until one appears.
// When false (default), ErrNoLogFiles is reported immediately.
func WithWaitForLogs(wait bool) Option {
	return func(c *config) {
		c.waitForLogs = wait
	}
}

// WithIncludeRaw copies each line into Event.Raw.
func WithIncludeRaw(include bool) Option {
	return func(c *config) {
		c.includeRaw = include
	}
}

// WithReplay configures replay behavior for existing log lines.
// Default: ReplayNone (only new lines).
func WithReplay(rc ReplayConfig) Option {
	return func(c *config) {
		c.replay = rc
	}
}

// WithReplayFromStart reads from the beginning of the log file.
func WithReplayFromStart() Option {
	return func(c *config) {
		c.replay = ReplayConfig{Mode: ReplayFromStart}
	}
}

// WithReplayLastN reads the last N non-empty lines before tailing.
func WithReplayLastN(n int) Option {
	return func(c *config) {
		c.replay = ReplayConfig{Mode: ReplayLastN, LastN: n}
	}
}

// WithReplaySinceTime reads the whole file but drops events stamped
// before since. Events without a timestamp are kept.
func WithReplaySinceTime(since time.Time) Option {
	return func(c *config) {
		c.replay = ReplayConfig{Mode: ReplaySinceTime, Since: since}
	}
}

// WithMaxReplayLines sets the maximum lines for ReplayLastN mode.
// 0 uses the default (10000). -1 means unlimited.
func WithMaxReplayLines(max int) Option {
	return func(c *config) {
		c.maxReplayLines = max
	}
}

// WithMaxReplayBytes sets the maximum total bytes read during replay.
// Default is 10MB. 0 means unlimited.
func WithMaxReplayBytes(max int) Option {
	return func(c *config) {
		c.maxReplayBytes = max
	}
}

// WithMaxReplayLineBytes sets the maximum bytes per line during replay.
// Default is 512KB. 0 means unlimited.
func WithMaxReplayLineBytes(max int) Option {
	return func(c *config) {
		c.maxReplayLineBytes = max
	}
}

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithIncludeLevels keeps only events whose level is one of levels.
// Levels compare case-insensitively. Events without a level are dropped.
// If called multiple times, only the last call takes effect.
func WithIncludeLevels(levels ...string) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &levelFilter{}
		}
		c.filter.include = levelSet(levels)
	}
}

// WithExcludeLevels drops events whose level is one of levels.
// Exclude takes precedence over include.
func WithExcludeLevels(levels ...string) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &levelFilter{}
		}
		c.filter.exclude = levelSet(levels)
	}
}

type levelFilter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func levelSet(levels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		set[strings.ToUpper(l)] = struct{}{}
	}
	return set
}

// Allows reports whether an event with the given level passes.
// An empty level is passed as "".
func (f *levelFilter) Allows(level string) bool {
	if f == nil {
		return true
	}
	level = strings.ToUpper(level)
	if _, ok := f.exclude[level]; ok {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	_, ok := f.include[level]
	return ok
}
