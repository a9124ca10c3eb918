// Package tailer follows a growing file and delivers its lines.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config controls how a file is followed.
type Config struct {
	// FromStart reads the existing content before following. Otherwise
	// only lines appended after New are delivered.
	FromStart bool
	// Poll checks the file for changes by polling instead of inotify.
	Poll bool
	// ReOpen reopens the file when it is truncated or recreated.
	ReOpen bool
	// MaxLineSize splits longer lines. 0 means no limit.
	MaxLineSize int
}

// DefaultConfig follows new lines only and reopens recreated files.
func DefaultConfig() Config {
	return Config{ReOpen: true}
}

// Tailer delivers the lines of one file until stopped.
type Tailer struct {
	path  string
	t     *tail.Tail
	lines chan string
	errs  chan error

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopErr  error
}

// New starts following path. The file must exist. Lines are delivered
// without their trailing "\r\n" or "\n". The tailer stops when ctx is
// cancelled or Stop is called; both close the Lines channel.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	tc := tail.Config{
		Follow:      true,
		ReOpen:      cfg.ReOpen,
		MustExist:   true,
		Poll:        cfg.Poll,
		MaxLineSize: cfg.MaxLineSize,
		Logger:      tail.DiscardingLogger,
	}
	if !cfg.FromStart {
		tc.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tc)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}

	tl := &Tailer{
		path:  path,
		t:     t,
		lines: make(chan string),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	tl.wg.Add(1)
	go tl.forward(ctx)
	return tl, nil
}

// Lines returns the channel of lines. It is closed when the tailer stops.
func (tl *Tailer) Lines() <-chan string { return tl.lines }

// Errors returns read errors. It is closed when the tailer stops.
func (tl *Tailer) Errors() <-chan error { return tl.errs }

// Path returns the file being followed.
func (tl *Tailer) Path() string { return tl.path }

// Stop ends following and releases the file. Safe to call multiple times.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		close(tl.done)
		tl.wg.Wait()
		// tail blocks sending to Lines until it notices the kill.
		go func() {
			for range tl.t.Lines {
			}
		}()
		tl.stopErr = tl.t.Stop()
		tl.t.Cleanup()
	})
	return tl.stopErr
}

func (tl *Tailer) forward(ctx context.Context) {
	defer tl.wg.Done()
	defer close(tl.lines)
	defer close(tl.errs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tl.done:
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				if err := tl.t.Wait(); err != nil {
					tl.sendError(ctx, err)
				}
				return
			}
			if line.Err != nil {
				tl.sendError(ctx, fmt.Errorf("tail %s: %w", tl.path, line.Err))
				continue
			}
			select {
			case tl.lines <- strings.TrimSuffix(line.Text, "\r"):
			case <-ctx.Done():
				return
			case <-tl.done:
				return
			}
		}
	}
}

func (tl *Tailer) sendError(ctx context.Context, err error) {
	select {
	case tl.errs <- err:
	case <-ctx.Done():
	case <-tl.done:
	}
}
