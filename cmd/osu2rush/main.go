// Package main is the entry point for the osu2rush CLI
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/james-see/osu2rush/pkg/api"
	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/chart"
	"github.com/james-see/osu2rush/pkg/converter"
	"github.com/james-see/osu2rush/pkg/converter/classifiers"
	"github.com/james-see/osu2rush/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliOptions holds the flags shared by every command
type cliOptions struct {
	outputFile     string
	classifierName string
	configPath     string
	verbose        bool
	asJSON         bool
	serverPort     int
}

func newRootCmd() *cobra.Command {
	o := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "osu2rush",
		Short: "Convert osu! and drum MIDI charts into Rush charts",
		Long: `osu2rush converts osu!standard and osu!taiko beatmaps, or the drum part of a
Standard MIDI File, into two-lane Rush charts.

Every hit is assigned to the ground or air lane and may become a minion, heart,
dual hit, note sheet, sawblade or miniboss. Conversion is deterministic: the same
input and configuration always produce the same chart.

Examples:
  osu2rush convert song.osu -o song.rush.yaml
  osu2rush convert drums.mid --classifier taiko
  osu2rush preview song.osu -o song.rush.mid
  osu2rush stats song.osu --config tuning.yaml
  osu2rush tui
  osu2rush serve --port 8080`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&o.classifierName, "classifier", "c", "", "Classifier override (osu, taiko); defaults to the source ruleset's")
	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "YAML file overriding the engine tuning")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log every conversion decision")

	convertCmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a chart to a YAML Rush chart",
		Long:  `Converts an .osu or .mid file. The output format follows the output extension (.yaml or .mid).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, o, args[0], chart.OutputYAML)
		},
	}
	convertCmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "Output file path (default <input>.rush.yaml)")

	previewCmd := &cobra.Command{
		Use:   "preview <input>",
		Short: "Render the converted chart as a MIDI drum preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, o, args[0], chart.OutputMIDI)
		},
	}
	previewCmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "Output .mid file path (default <input>.rush.mid)")

	statsCmd := &cobra.Command{
		Use:   "stats <input>",
		Short: "Convert in memory and print object statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, o, args[0])
		},
	}
	statsCmd.Flags().BoolVar(&o.asJSON, "json", false, "Print statistics as JSON")

	classifiersCmd := &cobra.Command{
		Use:   "classifiers",
		Short: "List the available classifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, info := range classifiers.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-14s %s\n", info.ID, info.Name, info.Description)
			}
			return nil
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := o.chartOptions(io.Discard)
			if err != nil {
				return err
			}
			return tui.Run(opts)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), o.verbose)
			fmt.Fprintf(cmd.OutOrStdout(), "Starting API server on port %d...\n", o.serverPort)
			return api.StartServer(o.serverPort, logger)
		},
	}
	serveCmd.Flags().IntVarP(&o.serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd, previewCmd, statsCmd, classifiersCmd, tuiCmd, serveCmd)
	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// chartOptions resolves the shared flags into conversion options
func (o *cliOptions) chartOptions(logw io.Writer) (chart.Options, error) {
	opts := chart.Options{
		Classifier: o.classifierName,
		Logger:     newLogger(logw, o.verbose),
	}
	if o.configPath != "" {
		cfg, err := converter.LoadConfig(o.configPath)
		if err != nil {
			return chart.Options{}, err
		}
		opts.Config = &cfg
	}
	return opts, nil
}

func runConvert(cmd *cobra.Command, o *cliOptions, input string, format chart.OutputFormat) error {
	opts, err := o.chartOptions(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	output := o.outputFile
	if output == "" {
		output = chart.DefaultOutputPath(input, format)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Converting %s -> %s\n", input, output)
	res, err := chart.ConvertFile(input, output, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Conversion complete! %d objects over %.1fs\n", res.Summary.Objects, res.Summary.Length()/1000)
	return nil
}

func runStats(cmd *cobra.Command, o *cliOptions, input string) error {
	opts, err := o.chartOptions(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	b, err := beatmap.Load(input)
	if err != nil {
		return err
	}
	res, err := chart.Convert(b, opts)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s - %s [%s]\n", b.Metadata.Artist, b.Metadata.Title, res.Chart.Classifier)
	fmt.Fprint(cmd.OutOrStdout(), res.Summary.String())
	return nil
}
