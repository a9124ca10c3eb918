package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/convlog/convlog-go/internal/logfinder"
	"github.com/convlog/convlog-go/internal/safefile"
	"github.com/convlog/convlog-go/pkg/convlog"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1024 * 1024

var (
	// parse flags
	parseJobs     int
	parseGlob     string
	skipUnmatched bool
	parseRaw      bool
	stopOnError   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [FILE|DIR ...]",
	Short: "Decode log files",
	Long: `Decode log files and write one event per line.

Directories expand to the log files they contain, newest first. With no
arguments the standard input is read. Files are decoded in parallel but
written in argument order.

Lines that match no layout are written as {"unmatched":true,"raw":...}
unless --skip-unmatched is given. Lines that match but cannot be decoded
(a bad date, an out-of-range number) are reported on stderr.

Examples:
  # Decode one file
  convlog parse -p "%d{ISO8601} [%t] %-5p %c - %m%n" app.log

  # Decode every *.log file of a directory with several layouts
  convlog parse -l layouts.yaml /var/log/app

  # Only errors, via jq
  convlog parse -p "%d %-5p %m%n" app.log | jq 'select(.level.value == "ERROR")'`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntVarP(&parseJobs, "jobs", "j", runtime.GOMAXPROCS(0),
		"Number of files decoded in parallel")
	parseCmd.Flags().StringVar(&parseGlob, "glob", logfinder.DefaultGlob,
		"Files selected inside a directory argument (** matches subdirectories)")
	parseCmd.Flags().BoolVar(&skipUnmatched, "skip-unmatched", false,
		"Drop lines that match no layout")
	parseCmd.Flags().BoolVar(&parseRaw, "raw", false,
		"Include raw log lines in output")
	parseCmd.Flags().BoolVar(&stopOnError, "stop-on-error", false,
		"Fail on the first line that cannot be decoded")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parser, err := buildParser(parserConfig{
		pattern:     pattern,
		layoutFiles: layoutFiles,
		timezone:    timezone,
		logger:      logger,
	})
	if err != nil {
		return err
	}

	d := &streamDecoder{
		parser:        parser,
		format:        format,
		skipUnmatched: skipUnmatched,
		includeRaw:    parseRaw,
		stopOnError:   stopOnError,
		logger:        logger,
		warn:          &rate.Sometimes{First: 10, Interval: 5 * time.Second},
	}

	if len(args) == 0 {
		if stdinIsTerminal() {
			logger.Warn("reading log lines from the terminal, end with Ctrl-D")
		}
		_, err := d.decode(ctx, "-", cmd.InOrStdin(), cmd.OutOrStdout())
		return err
	}

	files, err := logfinder.Expand(args, parseGlob)
	if err != nil {
		return err
	}
	return d.decodeFiles(ctx, files, parseJobs, cmd.OutOrStdout())
}

// streamDecoder decodes line-oriented input with one parser.
type streamDecoder struct {
	parser        convlog.Parser
	format        string
	skipUnmatched bool
	includeRaw    bool
	stopOnError   bool
	logger        *slog.Logger
	warn          *rate.Sometimes
}

// decodeStats counts the lines of one input.
type decodeStats struct {
	lines     int
	matched   int
	unmatched int
	failed    int
}

// decodeFiles decodes files concurrently, at most jobs at a time, and
// writes their output to out in the order of files.
func (d *streamDecoder) decodeFiles(ctx context.Context, files []string, jobs int, out io.Writer) error {
	if jobs < 1 {
		jobs = 1
	}
	outputs := make([]bytes.Buffer, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			f, _, err := safefile.Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			defer f.Close()

			stats, err := d.decode(gctx, path, f, &outputs[i])
			if err != nil {
				return err
			}
			d.logger.Debug("decoded file", "file", path,
				"lines", stats.lines, "matched", stats.matched,
				"unmatched", stats.unmatched, "failed", stats.failed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range outputs {
		if _, err := outputs[i].WriteTo(out); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}

// decode reads r line by line and writes every decoded event to out.
func (d *streamDecoder) decode(ctx context.Context, name string, r io.Reader, out io.Writer) (decodeStats, error) {
	var stats decodeStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.lines++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		result, err := d.parser.ParseLine(ctx, line)
		if err != nil {
			stats.failed++
			if d.stopOnError {
				return stats, fmt.Errorf("%s:%d: %w", name, stats.lines, err)
			}
			d.warn.Do(func() {
				d.logger.Warn("line not decoded", "file", name, "line", stats.lines, "error", err)
			})
		}
		if !result.Matched {
			if err == nil {
				stats.unmatched++
				if !d.skipUnmatched {
					if err := OutputUnmatched(d.format, line, out); err != nil {
						return stats, fmt.Errorf("output error: %w", err)
					}
				}
			}
			continue
		}

		stats.matched++
		for _, ev := range result.Events {
			if d.includeRaw {
				ev.Raw = line
			}
			if err := OutputEvent(d.format, ev, out); err != nil {
				return stats, fmt.Errorf("output error: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("%s: %w", name, safefile.SanitizePathError(err))
	}
	return stats, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
