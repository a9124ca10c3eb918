package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/convlog/convlog-go/internal/logfinder"
	"github.com/convlog/convlog-go/internal/tailer"
	"github.com/convlog/convlog-go/pkg/convlog"
)

// ReplayMode specifies how to handle existing log lines.
type ReplayMode int

const (
	// ReplayNone only watches for new lines (default, tail -f behavior).
	ReplayNone ReplayMode = iota
	// ReplayFromStart reads from the beginning of the file.
	ReplayFromStart
	// ReplayLastN reads the last N lines before tailing.
	ReplayLastN
	// ReplaySinceTime reads from the beginning and drops older events.
	ReplaySinceTime
)

// DefaultMaxReplayLastN is the default maximum lines for ReplayLastN mode.
const DefaultMaxReplayLastN = 10000

// errBuffer is the buffer size of the error channel.
const errBuffer = 16

// ReplayConfig configures replay behavior.
type ReplayConfig struct {
	Mode  ReplayMode
	LastN int       // For ReplayLastN
	Since time.Time // For ReplaySinceTime
}

// Watcher follows a log file and decodes each new line with a parser.
type Watcher struct {
	cfg    config // immutable after New
	parser convlog.Parser
	logDir string // empty in single-file mode
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// New creates a watcher that decodes lines with p.
// Validates options and checks that the log directory exists.
// Does NOT start goroutines.
func New(p convlog.Parser, opts ...Option) (*Watcher, error) {
	if p == nil {
		return nil, ErrNilParser
	}
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}
	w := &Watcher{cfg: *cfg, parser: p, log: log}

	if cfg.file == "" {
		resolved, err := logfinder.FindLogDir(cfg.logDir)
		if err != nil {
			return nil, fmt.Errorf("finding log directory: %w", err)
		}
		w.logDir = resolved
	}
	return w, nil
}

// Watch creates a watcher and starts it. The watcher stops when ctx is
// cancelled; use New and Watcher.Close for synchronous shutdown.
func Watch(ctx context.Context, p convlog.Parser, opts ...Option) (<-chan convlog.Event, <-chan error, error) {
	w, err := New(p, opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// Watch starts watching and returns channels. Both channels are closed
// when ctx is cancelled, Close is called, or a fatal error occurs.
// Watch can only be called once per Watcher.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan convlog.Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan convlog.Event)
	errCh := make(chan error, errBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and waits for its goroutine to exit.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- convlog.Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	logFile, err := w.findLogFileWithWait(ctx, errCh)
	if err != nil {
		return
	}
	w.log.Debug("found log file", "path", logFile)

	cfg := w.tailerConfig()
	cfg.FromStart = w.cfg.replay.Mode == ReplayFromStart || w.cfg.replay.Mode == ReplaySinceTime

	if w.cfg.replay.Mode == ReplayLastN && w.cfg.replay.LastN > 0 {
		w.log.Debug("replaying last N lines", "n", w.cfg.replay.LastN, "path", logFile)
		if err := w.replayLastN(ctx, logFile, eventCh, errCh); err != nil {
			sendError(ctx, errCh, &WatchError{Op: OpReplay, Path: logFile, Err: err})
		}
	}

	t, err := tailer.New(ctx, logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: OpTail, Path: logFile, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Debug("started tailing", "path", logFile, "from_start", cfg.FromStart)

	// Single files are not rotated; nil channels never fire.
	var rotate <-chan time.Time
	var dirEvents <-chan fsnotify.Event
	var dirErrors <-chan error
	if w.logDir != "" {
		ticker := time.NewTicker(w.cfg.pollInterval)
		defer ticker.Stop()
		rotate = ticker.C

		if !w.cfg.poll {
			if fsw, err := newDirWatcher(w.logDir); err != nil {
				w.log.Debug("directory notifications unavailable, polling only", "dir", w.logDir, "error", err)
			} else {
				defer fsw.Close()
				dirEvents, dirErrors = fsw.Events, fsw.Errors
			}
		}
	}

	currentFile := logFile
	checkRotation := func() {
		newFile, err := logfinder.FindLatestLogFile(w.logDir, w.cfg.glob)
		if err != nil {
			sendError(ctx, errCh, &WatchError{Op: OpRotation, Err: err})
			return
		}
		if newFile == currentFile {
			return
		}
		w.log.Debug("log rotation detected", "from", currentFile, "to", newFile)
		cfg := w.tailerConfig()
		cfg.FromStart = true
		next, err := tailer.New(ctx, newFile, cfg)
		if err != nil {
			sendError(ctx, errCh, &WatchError{Op: OpTail, Path: newFile, Err: err})
			return
		}
		_ = t.Stop()
		t = next
		currentFile = newFile
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, currentFile, line, eventCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: OpTail, Path: currentFile, Err: err})
		case <-rotate:
			checkRotation()
		case ev, ok := <-dirEvents:
			if !ok {
				dirEvents = nil
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				checkRotation()
			}
		case err, ok := <-dirErrors:
			if !ok {
				dirErrors = nil
				continue
			}
			w.log.Debug("directory notification error", "dir", w.logDir, "error", err)
		}
	}
}

// newDirWatcher reports file creations in dir. The ticker still runs, so
// rotation is detected even when notifications are lost.
func newDirWatcher(dir string) (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

func (w *Watcher) tailerConfig() tailer.Config {
	cfg := tailer.DefaultConfig()
	cfg.Poll = w.cfg.poll
	return cfg
}

// latest returns the file to follow: the configured file, or the newest
// log file of the directory.
func (w *Watcher) latest() (string, error) {
	if w.logDir != "" {
		return logfinder.FindLatestLogFile(w.logDir, w.cfg.glob)
	}
	if _, err := os.Stat(w.cfg.file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoLogFiles, w.cfg.file)
		}
		return "", err
	}
	return w.cfg.file, nil
}

// findLogFileWithWait finds the file to follow, optionally waiting until
// one exists. Errors are also sent to errCh.
func (w *Watcher) findLogFileWithWait(ctx context.Context, errCh chan<- error) (string, error) {
	logFile, err := w.latest()
	if err == nil {
		return logFile, nil
	}
	if !errors.Is(err, ErrNoLogFiles) || !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: OpFindLatest, Err: err})
		return "", err
	}

	w.log.Debug("no log files found, waiting for logs to appear", "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// sendError gives up on a cancelled context.
			err := ctx.Err()
			select {
			case errCh <- &WatchError{Op: OpFindLatest, Err: err}:
			default:
			}
			return "", err
		case <-ticker.C:
			logFile, err := w.latest()
			if err == nil {
				w.log.Debug("log file appeared", "path", logFile)
				return logFile, nil
			}
			if !errors.Is(err, ErrNoLogFiles) {
				sendError(ctx, errCh, &WatchError{Op: OpFindLatest, Err: err})
				return "", err
			}
		}
	}
}

// processLine decodes line and sends its events. Events are sent even
// when the parser also reports an error, so a chain in continue-on-error
// mode loses nothing.
func (w *Watcher) processLine(ctx context.Context, path, line string, eventCh chan<- convlog.Event, errCh chan<- error) {
	result, err := w.parser.ParseLine(ctx, line)
	if err == nil && !result.Matched {
		return
	}

	for _, ev := range result.Events {
		if !w.keep(&ev) {
			continue
		}
		if w.cfg.includeRaw {
			ev.Raw = line
		}
		select {
		case eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}

	if err != nil {
		w.log.Debug("line rejected", "path", path, "error", err)
		sendError(ctx, errCh, &ParseError{Path: path, Line: line, Err: err})
	}
}

func (w *Watcher) keep(ev *convlog.Event) bool {
	if w.cfg.replay.Mode == ReplaySinceTime && !ev.Timestamp.IsZero() && ev.Timestamp.Before(w.cfg.replay.Since) {
		return false
	}
	if w.cfg.filter == nil {
		return true
	}
	level := ""
	if ev.Level != nil {
		level = ev.Level.Value
	}
	return w.cfg.filter.Allows(level)
}

func (w *Watcher) replayLastN(ctx context.Context, path string, eventCh chan<- convlog.Event, errCh chan<- error) error {
	lines, err := readLastNLines(path, w.cfg.replay.LastN, replayLimits{
		maxBytes:     w.cfg.maxReplayBytes,
		maxLineBytes: w.cfg.maxReplayLineBytes,
	})
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processLine(ctx, path, line, eventCh, errCh)
	}
	return nil
}

// sendError sends err without blocking. Errors are dropped only when the
// buffer is full or ctx is done.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}
