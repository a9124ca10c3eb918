package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/convlog/convlog-go/pkg/convlog"
)

const testLayouts = `version: 1
layouts:
  - id: app
    pattern: "%d{yyyy-MM-dd HH:mm:ss} %-5p %m%n"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildParser_NoSource(t *testing.T) {
	_, err := buildParser(parserConfig{timezone: "UTC", logger: discardLogger()})
	if err == nil {
		t.Fatal("buildParser() expected error without --pattern or --layouts")
	}
}

func TestBuildParser_Pattern(t *testing.T) {
	parser, err := buildParser(parserConfig{
		pattern:  "%d{yyyy-MM-dd HH:mm:ss} %-5p %m%n",
		timezone: "Asia/Tokyo",
		logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("buildParser() error = %v", err)
	}

	result, err := parser.ParseLine(context.Background(), "2024-01-15 09:00:00 INFO  hello")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !result.Matched || len(result.Events) != 1 {
		t.Fatalf("ParseLine() = %+v, want one event", result)
	}
	ev := result.Events[0]
	if ev.Layout != "pattern" {
		t.Errorf("Layout = %q, want pattern", ev.Layout)
	}
	if got := ev.Timestamp.UTC().Format("2006-01-02 15:04:05"); got != "2024-01-15 00:00:00" {
		t.Errorf("Timestamp = %s, want 2024-01-15 00:00:00 UTC", got)
	}
}

func TestBuildParser_InvalidPattern(t *testing.T) {
	_, err := buildParser(parserConfig{pattern: "%Q %m", timezone: "UTC", logger: discardLogger()})
	if err == nil {
		t.Fatal("buildParser() expected error for invalid pattern")
	}
	var pse *convlog.PatternSyntaxError
	if !errors.As(err, &pse) {
		t.Errorf("error = %T, want *convlog.PatternSyntaxError in chain", err)
	}
	if !strings.Contains(err.Error(), "--pattern") {
		t.Errorf("error should name the flag: %v", err)
	}
}

func TestBuildParser_InvalidTimezone(t *testing.T) {
	_, err := buildParser(parserConfig{pattern: "%m", timezone: "Mars/Olympus_Mons", logger: discardLogger()})
	if err == nil {
		t.Fatal("buildParser() expected error for unknown zone")
	}
}

func TestBuildParser_LayoutsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "layouts.yaml", testLayouts)

	parser, err := buildParser(parserConfig{layoutFiles: []string{path}, timezone: "UTC", logger: discardLogger()})
	if err != nil {
		t.Fatalf("buildParser() error = %v", err)
	}
	result, err := parser.ParseLine(context.Background(), "2024-01-15 09:00:00 WARN  careful")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !result.Matched || result.Events[0].Layout != "app" {
		t.Errorf("ParseLine() = %+v, want a match from layout app", result)
	}
}

func TestBuildParser_FileNotFound(t *testing.T) {
	_, err := buildParser(parserConfig{
		layoutFiles: []string{"/nonexistent/layouts.yaml"},
		timezone:    "UTC",
		logger:      discardLogger(),
	})
	if err == nil {
		t.Fatal("buildParser() expected error for nonexistent file")
	}
	// The error must not leak the path.
	errStr := err.Error()
	if strings.Contains(errStr, "/nonexistent") {
		t.Errorf("error message should not contain path: %s", errStr)
	}
	if strings.Contains(errStr, "layouts.yaml") {
		t.Errorf("error message should not contain filename: %s", errStr)
	}
	if !strings.Contains(errStr, "layout file 1") {
		t.Errorf("error message should number the file: %s", errStr)
	}
}

func TestBuildParser_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "invalid.yaml", "not: valid: yaml: content")
	if _, err := buildParser(parserConfig{layoutFiles: []string{path}, timezone: "UTC", logger: discardLogger()}); err == nil {
		t.Fatal("buildParser() expected error for invalid YAML")
	}
}

func TestBuildParser_PatternAndLayouts(t *testing.T) {
	path := writeFile(t, t.TempDir(), "layouts.yaml", testLayouts)

	parser, err := buildParser(parserConfig{
		pattern:     "[%t] %m",
		layoutFiles: []string{path},
		timezone:    "UTC",
		logger:      discardLogger(),
		registerer:  prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("buildParser() error = %v", err)
	}
	if _, ok := parser.(*convlog.ParserChain); !ok {
		t.Fatalf("buildParser() = %T, want *convlog.ParserChain", parser)
	}

	tests := []struct {
		line   string
		layout string
	}{
		{"[main] from the pattern", "pattern"},
		{"2024-01-15 09:00:00 INFO  from the file", "app"},
	}
	for _, tt := range tests {
		result, err := parser.ParseLine(context.Background(), tt.line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", tt.line, err)
		}
		if !result.Matched || len(result.Events) != 1 || result.Events[0].Layout != tt.layout {
			t.Errorf("ParseLine(%q) = %+v, want one event from %s", tt.line, result, tt.layout)
		}
	}
}
