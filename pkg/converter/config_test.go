package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigEmpty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader("sawblade_probability: 0.25\nmin_heart_time: 15000\n"))
	require.NoError(t, err)

	want := DefaultConfig()
	want.SawbladeProbability = 0.25
	want.MinHeartTime = 15000
	assert.Equal(t, want, cfg)
}

func TestParseConfigUnknownKey(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("sawblade_chance: 0.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("skip_probability: 1.5\nmax_sheet_length: -1\nkiai_multiplier: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip_probability must be within [0, 1]")
	assert.Contains(t, err.Error(), "max_sheet_length must not be negative")
	assert.Contains(t, err.Error(), "kiai_multiplier must be positive")
}

func TestParseConfigNonFinite(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"infinite repeat time", "min_repeat_time: .inf\n", "min_repeat_time must be finite"},
		{"nan probability", "skip_probability: .nan\n", "skip_probability must be finite"},
		{"negative infinite time", "min_heart_time: -.inf\n", "min_heart_time must be finite"},
		{"infinite multiplier", "kiai_multiplier: .inf\n", "kiai_multiplier must be finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsFieldsInOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRepeatTime = 0
	cfg.SkipProbability = 2
	cfg.MaxSheetLength = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "skip_probability must be within [0, 1], got 2\n"+
		"max_sheet_length must not be negative, got -1\n"+
		"min_repeat_time must be positive, got 0", err.Error())
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rush.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dual_hit_probability: 0\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.DualHitProbability)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigChangesEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHeartTime = 1000

	out := Convert(fixed(Some(Ground), ForceGround), []SourceEvent{hit(0), hit(500), hit(1000)}, WithConfig(cfg))
	assert.Equal(t, []Kind{KindMinion, KindMinion, KindHeart}, kinds(out))
}
