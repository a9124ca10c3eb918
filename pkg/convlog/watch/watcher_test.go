package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/convlog/convlog-go/pkg/convlog"
	"github.com/convlog/convlog-go/pkg/convlog/watch"
)

const testPattern = "%d{yyyy-MM-dd HH:mm:ss} %-5p %m%n"

func newDecoder(t *testing.T) *convlog.Decoder {
	t.Helper()
	dec, err := convlog.New(testPattern, convlog.WithName("test"))
	if err != nil {
		t.Fatal(err)
	}
	return dec
}

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatal(err)
		}
	}
}

func nextEvent(t *testing.T, events <-chan convlog.Event, errs <-chan error) convlog.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return convlog.Event{}
}

func nextError(t *testing.T, events <-chan convlog.Event, errs <-chan error) error {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			t.Fatalf("unexpected event: %+v", ev)
		case err, ok := <-errs:
			if !ok {
				t.Fatal("errors channel closed")
			}
			return err
		case <-timeout:
			t.Fatal("timeout waiting for error")
		}
	}
}

// collect reads until it has nEvents events and nErrs errors. The two
// channels are read in whatever order values arrive.
func collect(t *testing.T, events <-chan convlog.Event, errs <-chan error, nEvents, nErrs int) ([]convlog.Event, []error) {
	t.Helper()
	var gotEvents []convlog.Event
	var gotErrs []error
	timeout := time.After(5 * time.Second)
	for len(gotEvents) < nEvents || len(gotErrs) < nErrs {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("events channel closed")
			}
			gotEvents = append(gotEvents, ev)
		case err, ok := <-errs:
			if !ok {
				t.Fatal("errors channel closed")
			}
			gotErrs = append(gotErrs, err)
		case <-timeout:
			t.Fatalf("timeout: got %d events and %d errors", len(gotEvents), len(gotErrs))
		}
	}
	return gotEvents, gotErrs
}

func TestWatcher_LogRotation(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "app-1.log")
	appendLines(t, oldFile)

	w, err := watch.New(newDecoder(t),
		watch.WithLogDir(dir),
		watch.WithPollInterval(100*time.Millisecond),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events, errs, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Give the watcher time to seek to the end.
	time.Sleep(400 * time.Millisecond)
	appendLines(t, oldFile, "2024-01-15 10:00:01 INFO  before rotation")

	ev := nextEvent(t, events, errs)
	if ev.Message.Value != "before rotation" {
		t.Errorf("got message %q, want %q", ev.Message.Value, "before rotation")
	}

	newFile := filepath.Join(dir, "app-2.log")
	appendLines(t, newFile, "2024-01-15 11:00:00 WARN  after rotation")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(newFile, future, future); err != nil {
		t.Fatal(err)
	}

	ev = nextEvent(t, events, errs)
	if ev.Message.Value != "after rotation" {
		t.Errorf("got message %q, want %q", ev.Message.Value, "after rotation")
	}
	if ev.Level.Value != "WARN" {
		t.Errorf("got level %q, want WARN", ev.Level.Value)
	}
}

func TestWatcher_FileReplayFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLines(t, path,
		"2024-01-15 10:00:01 INFO  first",
		"not a log line",
		"2024-13-45 10:00:02 INFO  bad date",
		"2024-01-15 10:00:03 ERROR last",
	)

	w, err := watch.New(newDecoder(t),
		watch.WithFile(path),
		watch.WithReplayFromStart(),
		watch.WithIncludeRaw(true),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got, gotErrs := collect(t, events, errs, 2, 1)

	ev := got[0]
	if ev.Message.Value != "first" || ev.Layout != "test" {
		t.Errorf("got %+v", ev)
	}
	if ev.Raw != "2024-01-15 10:00:01 INFO  first" {
		t.Errorf("Raw = %q", ev.Raw)
	}
	want := time.Date(2024, 1, 15, 10, 0, 1, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", ev.Timestamp, want)
	}
	if got[1].Message.Value != "last" {
		t.Errorf("got message %q, want %q", got[1].Message.Value, "last")
	}

	err = gotErrs[0]
	var pe *watch.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
	if pe.Path != path || pe.Line != "2024-13-45 10:00:02 INFO  bad date" {
		t.Errorf("ParseError = %+v", pe)
	}
	var dpe *convlog.DateParseError
	if !errors.As(err, &dpe) {
		t.Errorf("expected DateParseError cause, got %v", pe.Err)
	}
}

func TestWatcher_ReplayLastN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLines(t, path,
		"2024-01-15 10:00:01 INFO  one",
		"2024-01-15 10:00:02 INFO  two",
		"2024-01-15 10:00:03 INFO  three",
	)

	w, err := watch.New(newDecoder(t),
		watch.WithFile(path),
		watch.WithReplayLastN(2),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"two", "three"} {
		ev := nextEvent(t, events, errs)
		if ev.Message.Value != want {
			t.Errorf("got message %q, want %q", ev.Message.Value, want)
		}
	}
}

func TestWatcher_ReplaySinceTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLines(t, path,
		"2024-01-15 09:59:59 INFO  too old",
		"2024-01-15 10:00:00 INFO  on time",
		"2024-01-15 10:00:05 INFO  later",
	)

	since := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	w, err := watch.New(newDecoder(t),
		watch.WithFile(path),
		watch.WithReplaySinceTime(since),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"on time", "later"} {
		ev := nextEvent(t, events, errs)
		if ev.Message.Value != want {
			t.Errorf("got message %q, want %q", ev.Message.Value, want)
		}
	}
}

func TestWatcher_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLines(t, path,
		"2024-01-15 10:00:01 DEBUG noise",
		"2024-01-15 10:00:02 INFO  kept",
		"2024-01-15 10:00:03 TRACE noise",
		"2024-01-15 10:00:04 ERROR kept too",
	)

	w, err := watch.New(newDecoder(t),
		watch.WithFile(path),
		watch.WithReplayFromStart(),
		watch.WithExcludeLevels("debug", "trace"),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"kept", "kept too"} {
		ev := nextEvent(t, events, errs)
		if ev.Message.Value != want {
			t.Errorf("got message %q, want %q", ev.Message.Value, want)
		}
	}
}

func TestWatcher_WaitForLogs_False(t *testing.T) {
	dir := t.TempDir()

	w, err := watch.New(newDecoder(t), watch.WithLogDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	err = nextError(t, events, errs)
	var we *watch.WatchError
	if !errors.As(err, &we) {
		t.Fatalf("expected WatchError, got %T: %v", err, err)
	}
	if we.Op != watch.OpFindLatest {
		t.Errorf("Op = %q, want %q", we.Op, watch.OpFindLatest)
	}
	if !errors.Is(err, watch.ErrNoLogFiles) {
		t.Errorf("expected ErrNoLogFiles, got: %v", err)
	}
}

func TestWatcher_WaitForLogs_Appear(t *testing.T) {
	dir := t.TempDir()

	w, err := watch.New(newDecoder(t),
		watch.WithLogDir(dir),
		watch.WithWaitForLogs(true),
		watch.WithReplayFromStart(),
		watch.WithPollInterval(50*time.Millisecond),
		watch.WithPolling(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)
	appendLines(t, filepath.Join(dir, "late.log"), "2024-01-15 10:00:01 INFO  finally")

	ev := nextEvent(t, events, errs)
	if ev.Message.Value != "finally" {
		t.Errorf("got message %q, want %q", ev.Message.Value, "finally")
	}
}

func TestWatcher_WaitForLogs_ContextCancel(t *testing.T) {
	dir := t.TempDir()

	w, err := watch.New(newDecoder(t),
		watch.WithLogDir(dir),
		watch.WithWaitForLogs(true),
		watch.WithPollInterval(100*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	events, errs, err := w.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	err = nextError(t, events, errs)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got: %v", err)
	}
}

func TestWatcher_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendLines(t, path)

	w, err := watch.New(newDecoder(t), watch.WithFile(path), watch.WithPolling(true))
	if err != nil {
		t.Fatal(err)
	}

	events, errs, err := w.Watch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := w.Watch(context.Background()); !errors.Is(err, watch.ErrAlreadyWatching) {
		t.Errorf("second Watch() = %v, want ErrAlreadyWatching", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, ok := <-events; ok {
		t.Error("events channel still open after Close")
	}
	for range errs {
	}

	if _, _, err := w.Watch(context.Background()); !errors.Is(err, watch.ErrWatcherClosed) {
		t.Errorf("Watch() after Close = %v, want ErrWatcherClosed", err)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	dec := newDecoder(t)
	t.Setenv("CONVLOG_LOGDIR", "")

	tests := []struct {
		name   string
		parser convlog.Parser
		opts   []watch.Option
		is     error
	}{
		{"nil parser", nil, []watch.Option{watch.WithLogDir(dir)}, watch.ErrNilParser},
		{"no directory", dec, nil, watch.ErrLogDirNotFound},
		{"missing directory", dec, []watch.Option{watch.WithLogDir(filepath.Join(dir, "nope"))}, watch.ErrLogDirNotFound},
		{"negative last n", dec, []watch.Option{watch.WithLogDir(dir), watch.WithReplayLastN(-1)}, nil},
		{"last n over max", dec, []watch.Option{watch.WithLogDir(dir), watch.WithReplayLastN(20), watch.WithMaxReplayLines(10)}, nil},
		{"since without time", dec, []watch.Option{watch.WithLogDir(dir), watch.WithReplay(watch.ReplayConfig{Mode: watch.ReplaySinceTime})}, nil},
		{"zero poll interval", dec, []watch.Option{watch.WithLogDir(dir), watch.WithPollInterval(0)}, nil},
		{"negative max bytes", dec, []watch.Option{watch.WithLogDir(dir), watch.WithMaxReplayBytes(-1)}, nil},
		{"file and dir", dec, []watch.Option{watch.WithLogDir(dir), watch.WithFile(filepath.Join(dir, "a.log"))}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := watch.New(tt.parser, tt.opts...)
			if err == nil {
				w.Close()
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("got %v, want %v", err, tt.is)
			}
		})
	}
}

func TestNew_EnvLogDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONVLOG_LOGDIR", dir)

	w, err := watch.New(newDecoder(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.Close()
}
