package layout

import "fmt"

// ValidationError is a file-level problem such as an unsupported version
// or a missing layouts list.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LayoutError is a problem with one layout of the file.
type LayoutError struct {
	Index   int    // 0-based index of the layout in the file
	ID      string // may be empty if the id field is missing
	Field   string
	Message string
	Cause   error // e.g. a *convlog.PatternSyntaxError
}

func (e *LayoutError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("layout %q: %s: %s", e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("layout[%d]: %s: %s", e.Index, e.Field, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *LayoutError) Unwrap() error {
	return e.Cause
}
