package datefmt

import "fmt"

// LayoutError reports an invalid date layout.
type LayoutError struct {
	Layout  string
	Offset  int
	Message string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("invalid date layout %q at offset %d: %s", e.Layout, e.Offset, e.Message)
}

// ParseError reports text that a Formatter could not turn into an instant.
type ParseError struct {
	Text   string
	Layout string
	// Offset is the byte index in Text where parsing stopped,
	// or -1 when the text was consumed but could not be resolved.
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("text %q with layout %q: %s", e.Text, e.Layout, e.Message)
	}
	return fmt.Sprintf("text %q with layout %q: %s at index %d", e.Text, e.Layout, e.Message, e.Offset)
}
