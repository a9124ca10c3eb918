package layout

import (
	"errors"
	"fmt"

	"github.com/convlog/convlog-go/pkg/convlog"
)

// NewChain compiles every layout of lf into a decoder named after its id
// and combines them in file order. opts apply to every decoder; the
// layout's id and time zone take precedence over WithName and
// WithDefaultZone.
//
// A pattern that does not compile returns a *LayoutError wrapping the
// *convlog.PatternSyntaxError.
func NewChain(lf *File, opts ...convlog.Option) (*convlog.ParserChain, error) {
	if lf == nil {
		return nil, errors.New("layout file is nil")
	}
	if err := lf.Validate(); err != nil {
		return nil, err
	}
	mode, _ := lf.ChainMode()

	parsers := make([]convlog.Parser, 0, len(lf.Layouts))
	for i, l := range lf.Layouts {
		lopts := append(opts[:len(opts):len(opts)], convlog.WithName(l.ID))
		if l.Timezone != "" {
			zone, err := convlog.LoadZone(l.Timezone)
			if err != nil {
				return nil, &LayoutError{Index: i, ID: l.ID, Field: "timezone", Message: err.Error(), Cause: err}
			}
			lopts = append(lopts, convlog.WithDefaultZone(zone))
		}

		dec, err := convlog.New(l.Pattern, lopts...)
		if err != nil {
			return nil, &LayoutError{
				Index:   i,
				ID:      l.ID,
				Field:   "pattern",
				Message: fmt.Sprintf("invalid conversion pattern: %v", err),
				Cause:   err,
			}
		}
		parsers = append(parsers, dec)
	}

	return &convlog.ParserChain{Mode: mode, Parsers: parsers}, nil
}

// NewChainFromFile loads a layout file and compiles it in one step.
func NewChainFromFile(path string, opts ...convlog.Option) (*convlog.ParserChain, error) {
	lf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewChain(lf, opts...)
}
