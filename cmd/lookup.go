package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lookup-bot/internal/bot"
	"github.com/sells-group/lookup-bot/internal/classify"
	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
)

var lookupOutput string

var lookupCmd = &cobra.Command{
	Use:   "lookup <text>",
	Short: "Run one lookup and print the result",
	Long: `Classifies and enriches text exactly as the bot would. The default output is
the Markdown reply; json and yaml print the aggregated report instead. No
Telegram token is needed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		env := initPipeline(cfg)
		text := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		switch lookupOutput {
		case "text":
			reply := bot.NewHandler(nil, env.Enricher, env.Formatter).Answer(cmd.Context(), text)
			_, err := fmt.Fprintln(out, reply)
			return err
		case "json", "yaml":
			r, err := env.Enricher.Enrich(cmd.Context(), classify.Text(strings.TrimSpace(text)))
			return writeResult(out, lookupOutput, newLookupResult(r, err))
		default:
			return eris.Errorf("unknown output format %q (want text, json or yaml)", lookupOutput)
		}
	},
}

// lookupResult is the machine-readable form of one lookup.
type lookupResult struct {
	Report *model.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  *resultError  `json:"error,omitempty" yaml:"error,omitempty"`
}

type resultError struct {
	Kind    lookup.Kind `json:"kind" yaml:"kind"`
	Source  string      `json:"source,omitempty" yaml:"source,omitempty"`
	Message string      `json:"message" yaml:"message"`
	Payload string      `json:"payload,omitempty" yaml:"payload,omitempty"`
}

func newLookupResult(r *model.Report, err error) lookupResult {
	if err == nil {
		return lookupResult{Report: r}
	}
	re := &resultError{Message: err.Error()}
	var le *lookup.Error
	if errors.As(err, &le) {
		re.Kind = le.Kind
		re.Source = le.Source
		re.Payload = string(le.Raw)
	}
	return lookupResult{Error: re}
}

func writeResult(w io.Writer, format string, res lookupResult) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return eris.Wrap(err, "encode json")
	}
	return nil
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(lookupCmd)
}
