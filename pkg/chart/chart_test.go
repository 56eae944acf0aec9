package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/converter"
	"github.com/james-see/osu2rush/pkg/converter/classifiers"
)

func sampleObjects() []converter.Object {
	normal := []converter.HitSample{{Name: converter.SampleNormal}}
	return []converter.Object{
		{Kind: converter.KindMinion, StartTime: 0, EndTime: 0, Lane: converter.Ground, Samples: normal},
		{Kind: converter.KindMinion, StartTime: 500, EndTime: 500, Lane: converter.Air, Samples: normal},
		{Kind: converter.KindDualHit, StartTime: 1000, EndTime: 1000},
		{Kind: converter.KindHeart, StartTime: 1500, EndTime: 1500, Lane: converter.Ground},
		{Kind: converter.KindSawblade, StartTime: 2000, EndTime: 2000, Lane: converter.Air},
		{Kind: converter.KindNoteSheet, StartTime: 2500, EndTime: 3500, Lane: converter.Ground},
		{Kind: converter.KindMiniBoss, StartTime: 4000, EndTime: 5000},
	}
}

func sampleChart() *Chart {
	meta := beatmap.Metadata{Title: "Test Song", Artist: "Someone", Version: "Hard"}
	return New(meta, converter.RulesetOsu, "osu", sampleObjects())
}

func TestNewChart(t *testing.T) {
	c := sampleChart()

	assert.Equal(t, "osu", c.SourceRuleset)
	require.Len(t, c.Objects, 7)

	minion := c.Objects[0]
	assert.Equal(t, "minion", minion.Kind)
	assert.Equal(t, "ground", minion.Lane)
	assert.Nil(t, minion.End)
	assert.Equal(t, []string{converter.SampleNormal}, minion.Samples)

	dual := c.Objects[2]
	assert.Empty(t, dual.Lane, "dual hits span both lanes")

	sheet := c.Objects[5]
	require.NotNil(t, sheet.End)
	assert.Equal(t, 3500.0, *sheet.End)
}

func TestChartYAMLRoundTrip(t *testing.T) {
	c := sampleChart()

	data, err := Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source_ruleset: osu")
	assert.Contains(t, string(data), "kind: notesheet")
	assert.Contains(t, string(data), "end: 3500")

	back, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, c, back)

	objects, err := back.ConverterObjects()
	require.NoError(t, err)
	assert.Equal(t, sampleObjects(), objects)
}

func TestConverterObjectsRejectsBadData(t *testing.T) {
	c := &Chart{Objects: []Object{{Kind: "boss", Start: 0}}}
	_, err := c.ConverterObjects()
	assert.Error(t, err)

	c = &Chart{Objects: []Object{{Kind: "minion", Start: 0, Lane: "sky"}}}
	_, err = c.ConverterObjects()
	assert.Error(t, err)
}

func TestChartFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, WriteFile(path, sampleChart()))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Song", back.Title)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	s := Summarize(sampleObjects())

	assert.Equal(t, 7, s.Objects)
	assert.Equal(t, 2, s.Kinds["minion"])
	assert.Equal(t, 3, s.Lanes["ground"])
	assert.Equal(t, 2, s.Lanes["air"])
	assert.Equal(t, 5000.0, s.Length())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "summary", []byte(s.String()))
}

func TestSummaryEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Objects)
	assert.Equal(t, 0, s.Kinds["sawblade"])
	assert.Equal(t, 0.0, s.Length())
}

type noteOn struct {
	tick uint32
	key  uint8
}

func readNoteOns(t *testing.T, data []byte) ([]noteOn, string) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var (
		ons   []noteOn
		title string
		tick  uint32
	)
	for _, ev := range s.Tracks[0] {
		tick += ev.Delta
		msg := ev.Message
		if len(msg) >= 3 && msg[0] == 0xFF && msg[1] == 0x03 {
			title = string(msg[3 : 3+int(msg[2])])
		}
		if len(msg) >= 3 && msg[0]&0xF0 == 0x90 && msg[2] > 0 {
			assert.Equal(t, uint8(beatmap.DrumChannel), msg[0]&0x0F)
			ons = append(ons, noteOn{tick, msg[1]})
		}
	}
	return ons, title
}

func TestMIDIPreview(t *testing.T) {
	data, err := NewMIDIRenderer().Render("Test Song", sampleObjects())
	require.NoError(t, err)
	assert.Equal(t, beatmap.FormatMIDI, beatmap.DetectFormatFromContent(data))

	ons, title := readNoteOns(t, data)
	assert.Equal(t, "Test Song", title)
	assert.Equal(t, []noteOn{
		{0, beatmap.KeyKick},
		{480, beatmap.KeySnare},
		{960, beatmap.KeyKick},
		{960, beatmap.KeySnare},
		{1440, beatmap.KeyCowbell},
		{1920, beatmap.KeyOpenHat},
		{2400, beatmap.KeyLowFloorTom},
		{3840, beatmap.KeyCrash},
	}, ons)
}

func TestMIDIPreviewReadsBack(t *testing.T) {
	data, err := NewMIDIRenderer().Render("", sampleObjects())
	require.NoError(t, err)

	b, err := beatmap.DecodeMIDI(data)
	require.NoError(t, err)
	require.Len(t, b.Events, 7)

	var times []float64
	for _, ev := range b.Events {
		times = append(times, ev.StartTime)
	}
	assert.Equal(t, []float64{0, 500, 1000, 1500, 2000, 2500, 4000}, times)

	sheet := b.Events[5]
	assert.True(t, sheet.HasDuration)
	assert.InDelta(t, 1000, sheet.Duration, 1e-9)
}

func TestMIDIPreviewEmpty(t *testing.T) {
	data, err := NewMIDIRenderer().Render("", nil)
	require.NoError(t, err)

	ons, _ := readNoteOns(t, data)
	assert.Empty(t, ons)
}

func TestDetectOutputFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected OutputFormat
	}{
		{"out.yaml", OutputYAML},
		{"out.YML", OutputYAML},
		{"out.mid", OutputMIDI},
		{"out.midi", OutputMIDI},
		{"out.json", OutputUnknown},
	}
	for _, tt := range tests {
		if got := DetectOutputFormat(tt.filename); got != tt.expected {
			t.Errorf("DetectOutputFormat(%q) = %v, want %v", tt.filename, got, tt.expected)
		}
	}
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "maps/song.rush.yaml", DefaultOutputPath("maps/song.osu", OutputYAML))
	assert.Equal(t, "song.rush.mid", DefaultOutputPath("song.mid", OutputMIDI))
}

func TestConvert(t *testing.T) {
	b, err := beatmap.Load("../beatmap/testdata/sample.osu")
	require.NoError(t, err)

	res, err := Convert(b, Options{})
	require.NoError(t, err)
	assert.Equal(t, "osu", res.Chart.Classifier)
	assert.Equal(t, "Test Song", res.Chart.Title)
	assert.Len(t, res.Chart.Objects, len(res.Objects))
	assert.Equal(t, len(res.Objects), res.Summary.Objects)
	assert.NotEmpty(t, res.Objects)

	again, err := Convert(b, Options{})
	require.NoError(t, err)
	assert.Equal(t, res.Objects, again.Objects)

	_, err = Convert(b, Options{Classifier: "piano"})
	assert.True(t, errors.Is(err, classifiers.ErrUnknownClassifier))

	_, err = Convert(nil, Options{})
	assert.Error(t, err)
}

func TestConvertWithConfig(t *testing.T) {
	b := &beatmap.Beatmap{
		Ruleset: converter.RulesetTaiko,
		Events: []converter.SourceEvent{
			{StartTime: 0, Samples: []converter.HitSample{{Name: converter.SampleNormal}}},
			{StartTime: 100, Samples: []converter.HitSample{{Name: converter.SampleClap}}},
		},
	}
	cfg := converter.DefaultConfig()
	cfg.MinHeartTime = 100

	res, err := Convert(b, Options{Config: &cfg})
	require.NoError(t, err)
	require.Len(t, res.Objects, 2)
	assert.Equal(t, converter.KindHeart, res.Objects[1].Kind)
	assert.Equal(t, "taiko", res.Chart.Classifier)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "out.yaml")

	res, err := ConvertFile("../beatmap/testdata/sample.osu", yamlPath, Options{})
	require.NoError(t, err)

	back, err := ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, res.Chart, back)

	midPath := filepath.Join(dir, "out.mid")
	_, err = ConvertFile("../beatmap/testdata/sample.osu", midPath, Options{})
	require.NoError(t, err)
	data, err := os.ReadFile(midPath)
	require.NoError(t, err)
	assert.Equal(t, "MThd", string(data[:4]))

	_, err = ConvertFile("../beatmap/testdata/sample.osu", filepath.Join(dir, "out.txt"), Options{})
	assert.Error(t, err)
}

func TestTrackNameTruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"short", "Test Song", 9},
		{"ascii at limit", strings.Repeat("a", 127), 127},
		{"ascii over limit", strings.Repeat("a", 200), 127},
		{"two byte runes", strings.Repeat("\u00e9", 100), 126},
		{"three byte runes", strings.Repeat("\u266a", 50), 126},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := trackName(tt.title)
			require.Equal(t, byte(tt.want), msg[2])
			text := msg[3:]
			assert.Len(t, text, tt.want)
			assert.True(t, utf8.Valid(text))
			assert.True(t, strings.HasPrefix(tt.title, string(text)))
		})
	}
}
