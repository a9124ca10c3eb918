package conversion

import "fmt"

// SyntaxError reports a conversion pattern that cannot be compiled.
type SyntaxError struct {
	Pattern     string
	Offset      int    // byte offset of the offending directive, -1 if unknown
	Placeholder string // placeholder name, if the error concerns one directive
	Message     string
	Cause       error
}

func (e *SyntaxError) Error() string {
	msg := e.Message
	if e.Placeholder != "" {
		msg = fmt.Sprintf("%%%s: %s", e.Placeholder, msg)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s (offset %d)", msg, e.Offset)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("conversion pattern %q: %s", e.Pattern, msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Cause
}
