package classifiers

import (
	"testing"

	"github.com/james-see/osu2rush/pkg/converter"
)

func circle(t, x, y float64) converter.SourceEvent {
	return converter.SourceEvent{
		StartTime:   t,
		HasPosition: true,
		Position:    converter.Vec2{X: x, Y: y},
		Samples:     []converter.HitSample{{Name: converter.SampleNormal}},
	}
}

func previous(end, x, y float64) converter.Previous {
	return converter.Previous{
		StartTime:   end,
		EndTime:     end,
		HasPosition: true,
		Position:    converter.Vec2{X: x, Y: y},
		Lane:        converter.Some(converter.Ground),
	}
}

func TestOsuLane(t *testing.T) {
	o := NewOsu()
	tests := []struct {
		name string
		ev   converter.SourceEvent
		want converter.OptLane
	}{
		{"upper half", circle(0, 256, 100), converter.Some(converter.Air)},
		{"lower half", circle(0, 256, 300), converter.Some(converter.Ground)},
		{"exact half", circle(0, 256, OsuHalfHeight), converter.Some(converter.Ground)},
		{"no position", converter.SourceEvent{StartTime: 0}, converter.NoLane},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := o.Classify(tt.ev, converter.Previous{})
			if got != tt.want {
				t.Errorf("lane = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOsuFlags(t *testing.T) {
	o := NewOsu()
	prev := previous(1000, 100, 300)

	slider := circle(2000, 100, 300)
	slider.HasDuration = true
	slider.Duration = 200
	slider.HasDistance = true
	slider.Distance = 150

	shortSlider := slider
	shortSlider.Duration = 100

	spinner := converter.SourceEvent{StartTime: 2000, HasDuration: true, Duration: 1000}

	newCombo := circle(1060, 100, 300)
	newCombo.NewCombo = true

	tests := []struct {
		name string
		ev   converter.SourceEvent
		want converter.Flags
	}{
		{"spinner", spinner, converter.ForceMiniBoss},
		{
			"fast",
			circle(1060, 300, 300),
			converter.ForceSameLane | converter.AllowSawbladeAdd,
		},
		{
			"fast new combo",
			newCombo,
			converter.ForceNotSameLane | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"quick",
			circle(1100, 300, 300),
			converter.SuggestNotSameLane | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"medium",
			circle(1120, 300, 300),
			converter.SuggestNotSameLane | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"stream",
			circle(1130, 110, 300),
			converter.ForceSameLane | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"jump at stream speed",
			circle(1130, 400, 300),
			converter.ForceSameLane | converter.AllowDoubleHit | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"slow",
			circle(1500, 100, 300),
			converter.ForceSameLane | converter.AllowDoubleHit | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
		{
			"long slider",
			slider,
			converter.ForceStartNoteSheet | converter.ForceEndNoteSheet | converter.ForceSameLane |
				converter.AllowDoubleHit | converter.AllowSawbladeAdd,
		},
		{
			"short slider",
			shortSlider,
			converter.ForceSameLane | converter.AllowDoubleHit | converter.AllowSawbladeAdd | converter.ForceEndNoteSheet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := o.Classify(tt.ev, prev)
			if got != tt.want {
				t.Errorf("flags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOsuNeverLowProbability(t *testing.T) {
	o := NewOsu()
	prev := previous(1000, 0, 0)
	for dt := 0.0; dt < 300; dt += 5 {
		_, flags := o.Classify(circle(1000+dt, 0, 0), prev)
		if flags.Has(converter.LowProbability) {
			t.Errorf("dt=%v produced LowProbability", dt)
		}
	}
}
