// Package beatmap decodes source charts into ordered hit events
package beatmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/osu2rush/pkg/converter"
)

// Format represents a source file format
type Format string

const (
	FormatOsu     Format = "osu"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

var (
	// ErrUnknownFormat is returned when neither the name nor the content identify the format
	ErrUnknownFormat = errors.New("unknown input format")
	// ErrInvalidHeader is returned for files with a missing or malformed header
	ErrInvalidHeader = errors.New("invalid header")
	// ErrNoNotes is returned for MIDI files without any playable drum note
	ErrNoNotes = errors.New("no notes found")
	// ErrInvalidObject is returned for hit objects whose fields are out of range
	ErrInvalidObject = errors.New("invalid hit object")
)

// Metadata describes the source chart
type Metadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Creator string `json:"creator,omitempty"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Beatmap is a decoded source chart
type Beatmap struct {
	Format   Format
	Ruleset  converter.Ruleset
	Metadata Metadata
	// Events are sorted by start time
	Events []converter.SourceEvent
}

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".osu":
		return FormatOsu
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects the format from the leading bytes
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	head := strings.TrimLeft(string(data[:min(len(data), 64)]), "\ufeff \t\r\n")
	if strings.HasPrefix(strings.ToLower(head), osuHeaderPrefix) {
		return FormatOsu
	}

	return FormatUnknown
}

// Formats lists the supported input formats
func Formats() []Format {
	return []Format{FormatOsu, FormatMIDI}
}

// Decode decodes data, using filename as a format hint. Content sniffing is
// used when the extension is not recognised.
func Decode(data []byte, filename string) (*Beatmap, error) {
	format := DetectFormat(filename)
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}

	switch format {
	case FormatOsu:
		return DecodeOsu(data)
	case FormatMIDI:
		return DecodeMIDI(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(filename))
	}
}

// Load reads and decodes a source file
func Load(path string) (*Beatmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return Decode(data, path)
}
