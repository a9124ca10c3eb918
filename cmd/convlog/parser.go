package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/convlog/convlog-go/pkg/convlog"
	"github.com/convlog/convlog-go/pkg/convlog/layout"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parserConfig collects what buildParser needs from the flags.
type parserConfig struct {
	pattern     string
	layoutFiles []string
	timezone    string
	logger      *slog.Logger
	registerer  prometheus.Registerer // may be nil
}

// buildParser compiles --pattern and every --layouts file. A single source
// is returned as is; several are tried in order, first match wins.
func buildParser(cfg parserConfig) (convlog.Parser, error) {
	if cfg.pattern == "" && len(cfg.layoutFiles) == 0 {
		return nil, errors.New("one of --pattern or --layouts is required")
	}

	zone, err := convlog.LoadZone(cfg.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	opts := []convlog.Option{
		convlog.WithDefaultZone(zone),
		convlog.WithLogger(cfg.logger),
		convlog.WithRegisterer(cfg.registerer),
	}

	var parsers []convlog.Parser
	if cfg.pattern != "" {
		dec, err := convlog.New(cfg.pattern, append(opts, convlog.WithName("pattern"))...)
		if err != nil {
			return nil, fmt.Errorf("--pattern: %w", err)
		}
		parsers = append(parsers, dec)
	}
	for i, path := range cfg.layoutFiles {
		chain, err := layout.NewChainFromFile(path, opts...)
		if err != nil {
			// Errors from the layout package carry no path.
			return nil, fmt.Errorf("layout file %d: %w", i+1, err)
		}
		parsers = append(parsers, chain)
	}

	if len(parsers) == 1 {
		return parsers[0], nil
	}
	return &convlog.ParserChain{Mode: convlog.ChainFirst, Parsers: parsers}, nil
}
