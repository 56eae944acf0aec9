package converter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the probabilities and cooldowns used by the conversion engine.
// Times are in milliseconds.
type Config struct {
	SkipProbability           float64 `yaml:"skip_probability"`
	SawbladeProbability       float64 `yaml:"sawblade_probability"`
	DualHitProbability        float64 `yaml:"dual_hit_probability"`
	SuggestProbability        float64 `yaml:"suggest_probability"`
	NoteSheetStartProbability float64 `yaml:"note_sheet_start_probability"`
	NoteSheetEndProbability   float64 `yaml:"note_sheet_end_probability"`
	NoteSheetDualProbability  float64 `yaml:"note_sheet_dual_probability"`
	KiaiMultiplier            float64 `yaml:"kiai_multiplier"`

	SawbladeSameLaneSafetyTime float64 `yaml:"sawblade_same_lane_safety_time"`
	MinSawbladeTime            float64 `yaml:"min_sawblade_time"`
	MinHeartTime               float64 `yaml:"min_heart_time"`
	MinDualHitTime             float64 `yaml:"min_dual_hit_time"`
	MaxSheetLength             float64 `yaml:"max_sheet_length"`
	MinRepeatTime              float64 `yaml:"min_repeat_time"`
}

// MinSheetLength is the shortest slider that becomes a note sheet
const MinSheetLength = 120

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		SkipProbability:           0.1,
		SawbladeProbability:       0.1,
		DualHitProbability:        0.2,
		SuggestProbability:        0.1,
		NoteSheetStartProbability: 0.5,
		NoteSheetEndProbability:   0.2,
		NoteSheetDualProbability:  0.1,
		KiaiMultiplier:            4,

		SawbladeSameLaneSafetyTime: 90,
		MinSawbladeTime:            500,
		MinHeartTime:               30000,
		MinDualHitTime:             500,
		MaxSheetLength:             2000,
		MinRepeatTime:              100,
	}
}

// LoadConfig reads a YAML tuning file. Keys missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseConfig(f)
}

// ParseConfig decodes a YAML tuning document on top of DefaultConfig
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type fieldRule int

const (
	ruleProbability fieldRule = iota
	rulePositive
	ruleNonNegative
)

// Validate checks that every value is finite, probabilities are in [0, 1] and
// times are not negative. Errors are reported in field order.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
		rule  fieldRule
	}{
		{"skip_probability", c.SkipProbability, ruleProbability},
		{"sawblade_probability", c.SawbladeProbability, ruleProbability},
		{"dual_hit_probability", c.DualHitProbability, ruleProbability},
		{"suggest_probability", c.SuggestProbability, ruleProbability},
		{"note_sheet_start_probability", c.NoteSheetStartProbability, ruleProbability},
		{"note_sheet_end_probability", c.NoteSheetEndProbability, ruleProbability},
		{"note_sheet_dual_probability", c.NoteSheetDualProbability, ruleProbability},
		{"kiai_multiplier", c.KiaiMultiplier, rulePositive},
		{"sawblade_same_lane_safety_time", c.SawbladeSameLaneSafetyTime, ruleNonNegative},
		{"min_sawblade_time", c.MinSawbladeTime, ruleNonNegative},
		{"min_heart_time", c.MinHeartTime, ruleNonNegative},
		{"min_dual_hit_time", c.MinDualHitTime, ruleNonNegative},
		{"max_sheet_length", c.MaxSheetLength, ruleNonNegative},
		{"min_repeat_time", c.MinRepeatTime, rulePositive},
	}

	var errs []error
	for _, f := range fields {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			errs = append(errs, fmt.Errorf("%s must be finite, got %g", f.name, f.value))
		case f.rule == ruleProbability && (f.value < 0 || f.value > 1):
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %g", f.name, f.value))
		case f.rule == rulePositive && f.value <= 0:
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", f.name, f.value))
		case f.rule == ruleNonNegative && f.value < 0:
			errs = append(errs, fmt.Errorf("%s must not be negative, got %g", f.name, f.value))
		}
	}
	return errors.Join(errs...)
}
