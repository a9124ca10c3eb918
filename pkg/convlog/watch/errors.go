package watch

import (
	"errors"
	"fmt"

	"github.com/convlog/convlog-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("watcher closed")
	// ErrAlreadyWatching is returned when Watch is called twice.
	ErrAlreadyWatching = errors.New("watcher already started")
	// ErrReplayLimitExceeded is reported when replaying the last lines
	// would read more than the configured byte limits.
	ErrReplayLimitExceeded = errors.New("replay limit exceeded")
	// ErrNilParser is returned by New when no parser is given.
	ErrNilParser = errors.New("nil parser")

	ErrLogDirNotFound = logfinder.ErrLogDirNotFound
	ErrNoLogFiles     = logfinder.ErrNoLogFiles
)

// Op names the watcher step that failed.
type Op string

// Watcher steps.
const (
	OpFindLatest Op = "find_latest"
	OpTail       Op = "tail"
	OpReplay     Op = "replay"
	OpRotation   Op = "rotation"
)

// WatchError is an I/O failure of the watcher.
type WatchError struct {
	Op   Op
	Path string // empty when no file is involved
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// ParseError is a line the parser rejected. Err is typically a
// *convlog.DateParseError or *convlog.FieldParseError.
type ParseError struct {
	Path string
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
