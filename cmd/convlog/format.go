package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/convlog/convlog-go/pkg/convlog"
)

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, event convlog.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(event, out)
	case "pretty":
		return OutputPretty(event, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as JSON Lines format.
func OutputJSON(event convlog.Event, out io.Writer) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// unmatchedLine is the JSON form of a line no layout matched.
type unmatchedLine struct {
	Unmatched bool   `json:"unmatched"`
	Raw       string `json:"raw"`
}

// OutputUnmatched writes a line no layout matched.
func OutputUnmatched(format, line string, out io.Writer) error {
	switch format {
	case "jsonl":
		data, err := json.Marshal(unmatchedLine{Unmatched: true, Raw: line})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "pretty":
		_, err := fmt.Fprintf(out, "? %s\n", line)
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputPretty writes an event in human-readable format:
//
//	2024-01-15 12:30:45.000 INFO  [main] app.Server: started user=alice
func OutputPretty(event convlog.Event, out io.Writer) error {
	var sb strings.Builder
	if !event.Timestamp.IsZero() {
		sb.WriteString(event.Timestamp.Format("2006-01-02 15:04:05.000"))
		sb.WriteByte(' ')
	}
	if event.Level != nil {
		fmt.Fprintf(&sb, "%-5s ", event.Level.Value)
	}
	if event.Thread != nil {
		fmt.Fprintf(&sb, "[%s] ", event.Thread.Value)
	}
	switch {
	case event.Logger != nil:
		fmt.Fprintf(&sb, "%s: ", event.Logger.Value)
	case event.Class != nil:
		fmt.Fprintf(&sb, "%s: ", event.Class.Value)
	}
	if event.Message != nil {
		sb.WriteString(event.Message.Value)
	}
	if ctx := formatData(event.MDC); ctx != "" {
		sb.WriteByte(' ')
		sb.WriteString(ctx)
	}
	if event.Throwable != nil {
		sb.WriteString("\n    ")
		sb.WriteString(strings.ReplaceAll(event.Throwable.Value, "\n", "\n    "))
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(out, sb.String())
	return err
}

// formatData formats MDC entries as sorted key=value pairs.
// Values are quoted if they contain spaces, equals signs, quotes, or control characters.
func formatData(data map[string]convlog.Entity) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(data))
	for _, k := range keys {
		parts = append(parts, quoteIfNeeded(k)+"="+quoteIfNeeded(data[k].Value))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains special characters or control characters.
// Returns the value unchanged if no quoting is needed.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
