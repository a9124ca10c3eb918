package convlog

import (
	"errors"
	"fmt"

	"github.com/convlog/convlog-go/internal/conversion"
	"github.com/convlog/convlog-go/internal/datefmt"
)

// PatternSyntaxError reports a conversion pattern that cannot be compiled,
// such as an unknown placeholder or a %n that is not at the end.
type PatternSyntaxError = conversion.SyntaxError

// DateParseError reports a captured timestamp that neither the strict nor
// the lenient date layout accepts.
type DateParseError = datefmt.ParseError

// DateLayoutError reports an invalid date layout inside a %d directive.
// It is the cause of the PatternSyntaxError returned by New.
type DateLayoutError = datefmt.LayoutError

// ErrEmptyPattern is returned by New for an empty conversion pattern.
var ErrEmptyPattern = errors.New("convlog: empty conversion pattern")

// FieldParseError reports a captured number that does not fit its field.
type FieldParseError struct {
	Field string
	Text  string
	Start int
	End   int
	Cause error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("field %s: cannot parse %q at [%d,%d): %v", e.Field, e.Text, e.Start, e.End, e.Cause)
}

// Unwrap returns the underlying strconv error.
func (e *FieldParseError) Unwrap() error {
	return e.Cause
}
