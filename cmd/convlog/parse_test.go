package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/convlog/convlog-go/pkg/convlog"
)

const testPattern = "%d{yyyy-MM-dd HH:mm:ss} %-5p %m%n"

func newStreamDecoder(t *testing.T) *streamDecoder {
	t.Helper()
	dec, err := convlog.New(testPattern, convlog.WithName("test"))
	if err != nil {
		t.Fatalf("convlog.New() error = %v", err)
	}
	return &streamDecoder{
		parser: dec,
		format: "jsonl",
		logger: discardLogger(),
		warn:   &rate.Sometimes{First: 1, Interval: time.Minute},
	}
}

func TestDecode(t *testing.T) {
	input := strings.Join([]string{
		"2024-01-15 10:00:00 INFO  first",
		"not a log line",
		"",
		"2024-13-45 10:00:00 INFO  bad date",
		"2024-01-15 10:00:01 WARN  second\r",
	}, "\n")

	d := newStreamDecoder(t)
	var out bytes.Buffer
	stats, err := d.decode(context.Background(), "-", strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}

	want := decodeStats{lines: 5, matched: 2, unmatched: 1, failed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d output lines, want 3:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], `"message":{"value":"first"`) {
		t.Errorf("line 0 = %s", lines[0])
	}
	if lines[1] != `{"unmatched":true,"raw":"not a log line"}` {
		t.Errorf("line 1 = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"message":{"value":"second"`) {
		t.Errorf("line 2 = %s, want the trailing CR trimmed", lines[2])
	}
}

func TestDecode_SkipUnmatchedAndRaw(t *testing.T) {
	d := newStreamDecoder(t)
	d.skipUnmatched = true
	d.includeRaw = true

	var out bytes.Buffer
	input := "junk\n2024-01-15 10:00:00 ERROR boom\n"
	if _, err := d.decode(context.Background(), "-", strings.NewReader(input), &out); err != nil {
		t.Fatalf("decode() error = %v", err)
	}

	got := strings.TrimSpace(out.String())
	if strings.Contains(got, "unmatched") {
		t.Errorf("unmatched line should be skipped: %s", got)
	}
	if !strings.Contains(got, `"raw":"2024-01-15 10:00:00 ERROR boom"`) {
		t.Errorf("raw line missing: %s", got)
	}
}

func TestDecode_StopOnError(t *testing.T) {
	d := newStreamDecoder(t)
	d.stopOnError = true

	var out bytes.Buffer
	input := "2024-01-15 10:00:00 INFO  ok\n2024-02-30 10:00:00 INFO  bad\n2024-01-15 10:00:02 INFO  never\n"
	stats, err := d.decode(context.Background(), "app.log", strings.NewReader(input), &out)
	if err == nil {
		t.Fatal("decode() expected error")
	}
	if !strings.HasPrefix(err.Error(), "app.log:2:") {
		t.Errorf("error = %v, want file and line prefix", err)
	}
	var dpe *convlog.DateParseError
	if !errors.As(err, &dpe) {
		t.Errorf("error = %v, want *convlog.DateParseError in chain", err)
	}
	if stats.matched != 1 {
		t.Errorf("matched = %d, want 1", stats.matched)
	}
}

func TestDecode_ContextCancelled(t *testing.T) {
	d := newStreamDecoder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := d.decode(ctx, "-", strings.NewReader("2024-01-15 10:00:00 INFO  x\n"), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("decode() error = %v, want context.Canceled", err)
	}
}

func TestDecode_PrettyFormat(t *testing.T) {
	d := newStreamDecoder(t)
	d.format = "pretty"

	var out bytes.Buffer
	input := "2024-01-15 10:00:00 INFO  hello\nstray\n"
	if _, err := d.decode(context.Background(), "-", strings.NewReader(input), &out); err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	want := "2024-01-15 10:00:00.000 INFO  hello\n? stray\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDecodeFiles_Order(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, msg := range []string{"one", "two", "three", "four"} {
		name := filepath.Join(dir, string(rune('a'+i))+".log")
		writeFile(t, dir, filepath.Base(name), "2024-01-15 10:00:00 INFO  "+msg+"\n")
		files = append(files, name)
	}

	d := newStreamDecoder(t)
	var out bytes.Buffer
	if err := d.decodeFiles(context.Background(), files, 3, &out); err != nil {
		t.Fatalf("decodeFiles() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, msg := range []string{"one", "two", "three", "four"} {
		if !strings.Contains(lines[i], `"value":"`+msg+`"`) {
			t.Errorf("line %d = %s, want message %q", i, lines[i], msg)
		}
	}
}

func TestDecodeFiles_MissingFile(t *testing.T) {
	d := newStreamDecoder(t)
	var out bytes.Buffer
	err := d.decodeFiles(context.Background(), []string{filepath.Join(t.TempDir(), "gone.log")}, 1, &out)
	if err == nil {
		t.Fatal("decodeFiles() expected error for missing file")
	}
	if out.Len() != 0 {
		t.Errorf("no output expected on failure, got %q", out.String())
	}
}
