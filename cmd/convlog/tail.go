package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/convlog/convlog-go/pkg/convlog/watch"
)

var (
	// tail flags
	tailGlob      string
	tailRaw       bool
	fromStart     bool
	replayLast    int
	replaySince   string
	levels        []string
	excludeLevels []string
	poll          bool
	pollInterval  time.Duration
	waitForLogs   bool
	metricsAddr   string
)

var tailCmd = &cobra.Command{
	Use:   "tail [FILE|DIR]",
	Short: "Follow a log file and output events",
	Long: `Follow a log file and output decoded events as lines are appended.

With a FILE argument that file is followed. With a DIR argument (or none,
in which case $CONVLOG_LOGDIR is used) the newest file matching --glob is
followed and the command switches to newer files as they appear.

Examples:
  # Follow a file
  convlog tail -p "%d{ISO8601} [%t] %-5p %c - %m%n" app.log

  # Follow the newest file of a directory, replaying the last 100 lines
  convlog tail -l layouts.yaml --replay-last 100 /var/log/app

  # Only warnings and errors, human-readable
  convlog tail -p "%d %-5p %m%n" --levels WARN,ERROR -f pretty app.log

  # Expose decode counters for Prometheus
  convlog tail -p "%d %-5p %m%n" --metrics-addr :9100 app.log`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailGlob, "glob", "",
		"Files considered inside a directory (default \"*.log\")")
	tailCmd.Flags().BoolVar(&tailRaw, "raw", false,
		"Include raw log lines in output")

	// Replay options
	tailCmd.Flags().BoolVar(&fromStart, "from-start", false,
		"Replay the whole file before following it")
	tailCmd.Flags().IntVar(&replayLast, "replay-last", 0,
		"Replay the last N lines before following")
	tailCmd.Flags().StringVar(&replaySince, "replay-since", "",
		"Replay events since timestamp (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")

	tailCmd.Flags().StringSliceVar(&levels, "levels", nil,
		"Levels to show (comma-separated, e.g. WARN,ERROR)")
	tailCmd.Flags().StringSliceVar(&excludeLevels, "exclude-levels", nil,
		"Levels to hide (comma-separated, e.g. DEBUG,TRACE)")
	tailCmd.Flags().BoolVar(&poll, "poll", false,
		"Poll the file instead of using filesystem notifications")
	tailCmd.Flags().DurationVar(&pollInterval, "rotation-interval", 2*time.Second,
		"How often a directory is checked for a newer file")
	tailCmd.Flags().BoolVar(&waitForLogs, "wait", false,
		"Wait for a log file to appear instead of failing")
	tailCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address (e.g. :9100)")
	rootCmd.AddCommand(tailCmd)
}

// tailOptions turns the tail flags into watcher options.
func tailOptions(args []string) ([]watch.Option, error) {
	modes := 0
	if fromStart {
		modes++
	}
	if replayLast > 0 {
		modes++
	}
	if replaySince != "" {
		modes++
	}
	if modes > 1 {
		return nil, fmt.Errorf("--from-start, --replay-last and --replay-since are mutually exclusive")
	}
	if replayLast < 0 {
		return nil, fmt.Errorf("--replay-last must be positive")
	}

	opts := []watch.Option{
		watch.WithLogger(logger),
		watch.WithGlob(tailGlob),
		watch.WithIncludeRaw(tailRaw),
		watch.WithPolling(poll),
		watch.WithPollInterval(pollInterval),
		watch.WithWaitForLogs(waitForLogs),
		watch.WithIncludeLevels(levels...),
		watch.WithExcludeLevels(excludeLevels...),
	}

	switch {
	case fromStart:
		opts = append(opts, watch.WithReplayFromStart())
	case replayLast > 0:
		opts = append(opts, watch.WithReplayLastN(replayLast))
	case replaySince != "":
		t, err := time.Parse(time.RFC3339, replaySince)
		if err != nil {
			return nil, fmt.Errorf("invalid --replay-since format: %w", err)
		}
		opts = append(opts, watch.WithReplaySinceTime(t))
	}

	if len(args) == 1 {
		info, err := os.Stat(args[0])
		switch {
		case err == nil && info.IsDir():
			opts = append(opts, watch.WithLogDir(args[0]))
		case err == nil, waitForLogs:
			opts = append(opts, watch.WithFile(args[0]))
		default:
			return nil, fmt.Errorf("%s: no such file or directory", args[0])
		}
	}
	return opts, nil
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := tailOptions(args)
	if err != nil {
		return err
	}

	var metrics *metricsServer
	var reg prometheus.Registerer
	if metricsAddr != "" {
		metrics = newMetricsServer(metricsAddr, logger)
		reg = metrics.registry
	}

	parser, err := buildParser(parserConfig{
		pattern:     pattern,
		layoutFiles: layoutFiles,
		timezone:    timezone,
		logger:      logger,
		registerer:  reg,
	})
	if err != nil {
		return err
	}

	watcher, err := watch.New(parser, opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	g, gctx := errgroup.WithContext(ctx)
	if metrics != nil {
		g.Go(func() error { return metrics.Serve(gctx) })
	}
	g.Go(func() error {
		defer stop()
		return followEvents(gctx, watcher, cmd)
	})
	return g.Wait()
}

// followEvents writes events until the watcher stops or ctx is done. If
// the watcher stops on its own, the last watcher error is returned.
func followEvents(ctx context.Context, watcher *watch.Watcher, cmd *cobra.Command) error {
	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var lastErr error
	record := func(err error) {
		logger.Warn("tail", "error", err)
		var we *watch.WatchError
		if errors.As(err, &we) {
			lastErr = err
		}
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				if errs != nil {
					for err := range errs {
						record(err)
					}
				}
				if ctx.Err() != nil || lastErr == nil {
					return nil
				}
				return lastErr
			}
			if err := OutputEvent(format, event, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			record(err)

		case <-ctx.Done():
			return nil
		}
	}
}
