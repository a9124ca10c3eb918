// Command convlog decodes log files written with a log4j-style conversion
// pattern into JSON Lines or a human-readable summary.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// global flags
	pattern     string
	layoutFiles []string
	timezone    string
	format      string
	verbose     bool

	logger = discardLogger()
)

// validFormats lists all valid output formats.
var validFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

var rootCmd = &cobra.Command{
	Use:   "convlog",
	Short: "Decode log lines written with a conversion pattern",
	Long: `convlog decodes log lines rendered by a log4j-style conversion pattern
such as "%d{ISO8601} [%t] %-5p %c - %m%n" into structured events.

The layout comes either from --pattern or from one or more YAML layout
files (--layouts). When several are given they are tried in order and the
first one that matches a line decodes it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !validFormats[format] {
			return fmt.Errorf("invalid --format %q (want jsonl or pretty)", format)
		}
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&pattern, "pattern", "p", "",
		"Conversion pattern of the input, e.g. \"%d %-5p [%c] %m%n\"")
	rootCmd.PersistentFlags().StringArrayVarP(&layoutFiles, "layouts", "l", nil,
		"YAML layout file (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&timezone, "timezone", "z", "UTC",
		"Zone for timestamps that carry none (region id, abbreviation or offset)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log debug output to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
