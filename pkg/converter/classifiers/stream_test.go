package classifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/james-see/osu2rush/pkg/converter"
)

// generateStream builds a dense, reproducible osu!standard-like event stream
func generateStream(seed int32, count int) []converter.SourceEvent {
	r := converter.NewLegacyRand(seed)
	events := make([]converter.SourceEvent, 0, count)
	t := 1000.0
	for i := 0; i < count; i++ {
		ev := circle(t, r.Float64()*512, r.Float64()*384)
		ev.NewCombo = r.Float64() < 0.125
		ev.Kiai = t > 20000 && t < 40000

		switch roll := r.Float64(); {
		case roll < 0.02:
			ev.HasPosition = false
			ev.HasDuration = true
			ev.Duration = 1000 + r.Float64()*2000
		case roll < 0.2:
			ev.HasDuration = true
			ev.Duration = 80 + r.Float64()*520
			ev.HasDistance = true
			ev.Distance = 100 + r.Float64()*200
			ev.RepeatCount = int(r.Float64() * 4)
			ev.NodeSamples = make([][]converter.HitSample, ev.RepeatCount+2)
		}

		events = append(events, ev)
		t = ev.EndTime() + 60 + r.Float64()*340
	}
	return events
}

func TestOsuOppositeLanesOnNewCombo(t *testing.T) {
	second := circle(1060, 100, 300)
	second.NewCombo = true
	events := []converter.SourceEvent{circle(1000, 100, 300), second}

	out := converter.Convert(NewOsu(), events)
	require.Len(t, out, 2)
	assert.Equal(t, converter.KindMinion, out[0].Kind)
	assert.Equal(t, converter.KindMinion, out[1].Kind)
	assert.Equal(t, converter.Ground, out[0].Lane)
	assert.Equal(t, converter.Air, out[1].Lane)
}

func TestOsuSpinnerOnly(t *testing.T) {
	spinner := converter.SourceEvent{StartTime: 500, HasDuration: true, Duration: 1500}
	out := converter.Convert(NewOsu(), []converter.SourceEvent{spinner})

	require.Len(t, out, 1)
	assert.Equal(t, converter.KindMiniBoss, out[0].Kind)
	assert.Equal(t, 2000.0, out[0].EndTime)
}

func TestConversionIsDeterministic(t *testing.T) {
	events := generateStream(7, 2000)
	first := converter.Convert(NewOsu(), events)
	second := converter.Convert(NewOsu(), events)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestStreamInvariants(t *testing.T) {
	for _, seed := range []int32{1, 2, 3, 42} {
		events := generateStream(seed, 3000)
		cfg := converter.DefaultConfig()
		c := converter.New(NewOsu(), events[0].StartTime)

		hearts := 0
		for _, ev := range events {
			prev := c.State().Previous
			out := c.ConvertHitObject(ev)

			skippedExpiry := false
			var hitLanes []converter.Lane
			for _, o := range out {
				switch o.Kind {
				case converter.KindNoteSheet, converter.KindMiniBoss:
					skippedExpiry = true
				case converter.KindMinion, converter.KindHeart:
					hitLanes = append(hitLanes, o.Lane)
				}
				if o.Kind == converter.KindHeart {
					hearts++
					threshold := events[0].StartTime + float64(hearts)*cfg.MinHeartTime
					assert.GreaterOrEqual(t, o.StartTime, threshold, "heart %d too early", hearts)
				}
			}

			for _, o := range out {
				if o.Kind != converter.KindSawblade {
					continue
				}
				assert.NotContains(t, hitLanes, o.Lane, "hit shares a lane with a sawblade at %v", o.StartTime)
				assert.True(t, prev.Lane.Valid(), "sawblade at %v without a previous lane", o.StartTime)
				if prev.Lane.Is(o.Lane) {
					assert.GreaterOrEqual(t, o.StartTime-prev.StartTime, cfg.SawbladeSameLaneSafetyTime)
				}
				if o.Lane == converter.Air {
					assert.True(t, ev.Kiai, "air sawblade outside kiai at %v", o.StartTime)
				}
			}

			if !skippedExpiry {
				for _, sheet := range c.State().ActiveNoteSheets() {
					assert.Less(t, ev.StartTime-sheet.StartTime, cfg.MaxSheetLength)
				}
			}
			assert.LessOrEqual(t, len(c.State().NoteSheets), 2)
		}
	}
}
