package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/convlog/convlog-go/pkg/convlog"
)

func TestOutputCompiled(t *testing.T) {
	dec, err := convlog.New("%d{yyyy-MM-dd HH:mm:ss} [%t] %-5p %m%n")
	if err != nil {
		t.Fatalf("convlog.New() error = %v", err)
	}

	t.Run("jsonl", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputCompiled("jsonl", dec, &buf); err != nil {
			t.Fatalf("outputCompiled() error = %v", err)
		}
		var cp compiledPattern
		if err := json.Unmarshal(buf.Bytes(), &cp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if cp.Regexp != dec.Regexp().String() {
			t.Errorf("Regexp = %q, want %q", cp.Regexp, dec.Regexp().String())
		}
		if len(cp.Fields) != 4 {
			t.Fatalf("got %d fields, want 4", len(cp.Fields))
		}
		if cp.Fields[0].Placeholder != "d" || cp.Fields[0].DateLayout == "" {
			t.Errorf("field 0 = %+v, want a date with a layout", cp.Fields[0])
		}
		if cp.Fields[2].Placeholder != "p" {
			t.Errorf("field 2 = %+v, want the level", cp.Fields[2])
		}
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputCompiled("pretty", dec, &buf); err != nil {
			t.Fatalf("outputCompiled() error = %v", err)
		}
		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if len(lines) != 5 {
			t.Fatalf("got %d lines, want 5:\n%s", len(lines), buf.String())
		}
		if lines[0] != dec.Regexp().String() {
			t.Errorf("first line = %q, want the regexp", lines[0])
		}
		if !strings.HasPrefix(strings.TrimSpace(lines[1]), "0 ") {
			t.Errorf("second line = %q, want field 0", lines[1])
		}
	})

	t.Run("unknown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputCompiled("xml", dec, &buf); err == nil {
			t.Error("outputCompiled() expected error for unknown format")
		}
	})
}
