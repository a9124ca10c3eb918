package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/convlog/convlog-go/pkg/convlog"
)

var compileCmd = &cobra.Command{
	Use:   "compile PATTERN",
	Short: "Show the regular expression compiled from a pattern",
	Long: `Compile a conversion pattern and print the regular expression that
matches lines rendered by it, followed by one row per directive.

With --format jsonl the result is printed as a single JSON object.

Examples:
  convlog compile "%d{ISO8601} [%t] %-5p %c - %m%n"
  convlog compile -f jsonl "%d %-5p %X{user} %m" | jq .regexp`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, err := convlog.LoadZone(timezone)
		if err != nil {
			return fmt.Errorf("invalid --timezone: %w", err)
		}
		dec, err := convlog.New(args[0], convlog.WithDefaultZone(zone), convlog.WithLogger(logger))
		if err != nil {
			return err
		}
		return outputCompiled(format, dec, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

type compiledField struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder"`
	Modifier    string `json:"modifier,omitempty"`
	DateLayout  string `json:"date_layout,omitempty"`
}

type compiledPattern struct {
	Pattern string          `json:"pattern"`
	Regexp  string          `json:"regexp"`
	Fields  []compiledField `json:"fields"`
}

func outputCompiled(format string, dec *convlog.Decoder, out io.Writer) error {
	fields := dec.Fields()
	switch format {
	case "jsonl":
		cp := compiledPattern{
			Pattern: dec.Pattern(),
			Regexp:  dec.Regexp().String(),
			Fields:  make([]compiledField, 0, len(fields)),
		}
		for i, f := range fields {
			cf := compiledField{
				Index:       i,
				Type:        f.Type.String(),
				Placeholder: f.Placeholder,
				Modifier:    f.Modifier,
			}
			if f.Timestamp != nil {
				cf.DateLayout = f.Timestamp.Layout
			}
			cp.Fields = append(cp.Fields, cf)
		}
		data, err := json.Marshal(cp)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "pretty":
		if _, err := fmt.Fprintln(out, dec.Regexp().String()); err != nil {
			return err
		}
		for i, f := range fields {
			if _, err := fmt.Fprintf(out, "%3d  %s\n", i, f); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
