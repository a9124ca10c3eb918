package convlog

import (
	"context"
	"errors"
	"fmt"
)

// ParseResult represents the result of parsing a log line.
type ParseResult struct {
	// Events contains the decoded events.
	Events []Event

	// Matched indicates whether the parser matched the input.
	// This can be true even if Events is empty (e.g., a filter that matches but outputs nothing).
	Matched bool
}

// Parser is the interface for log line parsers.
// Decoder implements it; ParserChain combines several.
type Parser interface {
	// ParseLine parses a single log line.
	// Returns ParseResult with Matched=true if the line was recognized.
	// Returns error only for failures on recognized lines (not for unrecognized lines).
	ParseLine(ctx context.Context, line string) (ParseResult, error)
}

// ParserFunc is an adapter to allow ordinary functions to be used as Parsers.
type ParserFunc func(ctx context.Context, line string) (ParseResult, error)

// ParseLine implements the Parser interface.
func (f ParserFunc) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	return f(ctx, line)
}

// ChainMode specifies how ParserChain executes parsers.
type ChainMode int

const (
	// ChainAll executes all parsers and combines results (default).
	ChainAll ChainMode = iota

	// ChainFirst stops at the first parser that matches. Use it to try
	// several layouts in order of preference.
	ChainFirst

	// ChainContinueOnError skips parsers that return errors and continues.
	// Errors are collected and returned together at the end.
	ChainContinueOnError
)

func (m ChainMode) String() string {
	switch m {
	case ChainAll:
		return "all"
	case ChainFirst:
		return "first"
	case ChainContinueOnError:
		return "continue-on-error"
	}
	return "unknown"
}

// ParseChainMode is the inverse of ChainMode.String. An empty string
// selects the zero value, ChainAll.
func ParseChainMode(s string) (ChainMode, error) {
	switch s {
	case "", "all":
		return ChainAll, nil
	case "first":
		return ChainFirst, nil
	case "continue-on-error":
		return ChainContinueOnError, nil
	}
	return 0, fmt.Errorf("unknown chain mode %q (want all, first or continue-on-error)", s)
}

// ParserChain combines multiple parsers.
type ParserChain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine implements the Parser interface.
//
// If the context is cancelled during execution, ParseLine returns
// immediately with the events collected so far and the context error.
func (c *ParserChain) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	var allEvents []Event
	var errs []error
	anyMatched := false

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return ParseResult{Events: allEvents, Matched: anyMatched}, err
		}

		if p == nil {
			continue
		}

		result, err := p.ParseLine(ctx, line)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return ParseResult{}, err
		}
		if result.Matched {
			anyMatched = true
			allEvents = append(allEvents, result.Events...)
			if c.Mode == ChainFirst {
				return ParseResult{Events: allEvents, Matched: true}, nil
			}
		}
	}

	if len(errs) > 0 {
		return ParseResult{Events: allEvents, Matched: anyMatched}, errors.Join(errs...)
	}

	return ParseResult{Events: allEvents, Matched: anyMatched}, nil
}

var (
	_ Parser = (*Decoder)(nil)
	_ Parser = (*ParserChain)(nil)
	_ Parser = ParserFunc(nil)
)
