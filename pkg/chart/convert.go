package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/converter"
	"github.com/james-see/osu2rush/pkg/converter/classifiers"
)

// OutputFormat is the format a converted chart is written in
type OutputFormat string

const (
	OutputYAML    OutputFormat = "yaml"
	OutputMIDI    OutputFormat = "midi"
	OutputUnknown OutputFormat = "unknown"
)

// DetectOutputFormat detects the output format from a file name
func DetectOutputFormat(filename string) OutputFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return OutputYAML
	case ".mid", ".midi":
		return OutputMIDI
	default:
		return OutputUnknown
	}
}

// Options controls a conversion run
type Options struct {
	// Classifier overrides the ruleset's default classifier when set
	Classifier string
	// Config overrides the default engine tuning when set
	Config *converter.Config
	Logger *slog.Logger
}

// Result is a converted chart together with the engine output it was built from
type Result struct {
	Chart   *Chart
	Objects []converter.Object
	Summary Summary
}

// Convert runs a decoded beatmap through the engine
func Convert(b *beatmap.Beatmap, opts Options) (*Result, error) {
	if b == nil {
		return nil, errors.New("nil beatmap")
	}

	cls, err := classifiers.Select(opts.Classifier, b.Ruleset)
	if err != nil {
		return nil, err
	}

	convOpts := []converter.Option{converter.WithLogger(opts.Logger)}
	if opts.Config != nil {
		convOpts = append(convOpts, converter.WithConfig(*opts.Config))
	}

	objects := converter.Convert(cls, b.Events, convOpts...)
	return &Result{
		Chart:   New(b.Metadata, b.Ruleset, cls.Name(), objects),
		Objects: objects,
		Summary: Summarize(objects),
	}, nil
}

// ConvertFile converts a source file and writes the chart or its MIDI preview,
// chosen by the output extension
func ConvertFile(inputPath, outputPath string, opts Options) (*Result, error) {
	outputFormat := DetectOutputFormat(outputPath)
	if outputFormat == OutputUnknown {
		return nil, errors.New("cannot determine output format from filename")
	}

	b, err := beatmap.Load(inputPath)
	if err != nil {
		return nil, err
	}

	res, err := Convert(b, opts)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	switch outputFormat {
	case OutputYAML:
		err = WriteFile(outputPath, res.Chart)
	case OutputMIDI:
		err = NewMIDIRenderer().WriteMIDIFile(outputPath, res.Chart.Title, res.Objects)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}

	return res, nil
}

// DefaultOutputPath replaces the input extension with the output format's
func DefaultOutputPath(inputPath string, format OutputFormat) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	if format == OutputMIDI {
		return base + ".rush.mid"
	}
	return base + ".rush.yaml"
}
