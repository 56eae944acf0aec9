package classifiers

import (
	"testing"

	"github.com/james-see/osu2rush/pkg/converter"
)

func drum(names ...string) converter.SourceEvent {
	ev := converter.SourceEvent{StartTime: 1000}
	for _, n := range names {
		ev.Samples = append(ev.Samples, converter.HitSample{Name: n})
	}
	return ev
}

func TestTaikoClassify(t *testing.T) {
	roll := drum(converter.SampleNormal)
	roll.HasDuration = true
	roll.Duration = 500
	roll.HasDistance = true
	roll.Distance = 300

	swell := drum(converter.SampleNormal)
	swell.HasDuration = true
	swell.Duration = 2000

	tests := []struct {
		name      string
		ev        converter.SourceEvent
		wantLane  converter.Lane
		wantFlags converter.Flags
	}{
		{"centre", drum(converter.SampleNormal), converter.Ground, converter.ForceGround},
		{"rim clap", drum(converter.SampleNormal, converter.SampleClap), converter.Air, converter.ForceAir},
		{"rim whistle", drum(converter.SampleWhistle), converter.Air, converter.ForceAir},
		{"strong centre", drum(converter.SampleNormal, converter.SampleFinish), converter.Ground, converter.ForceDoubleHit},
		{"strong rim", drum(converter.SampleClap, converter.SampleFinish), converter.Air, converter.ForceDoubleHit},
		{"drum roll", roll, converter.Ground, converter.ForceStartNoteSheet},
		{"swell", swell, converter.Ground, converter.ForceMiniBoss},
	}

	tk := NewTaiko()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lane, flags := tk.Classify(tt.ev, converter.Previous{})
			if !lane.Is(tt.wantLane) {
				t.Errorf("lane = %v, want %v", lane, tt.wantLane)
			}
			if flags != tt.wantFlags {
				t.Errorf("flags = %v, want %v", flags, tt.wantFlags)
			}
		})
	}
}

func TestTaikoConversion(t *testing.T) {
	events := []converter.SourceEvent{
		drum(converter.SampleNormal),
		drum(converter.SampleClap),
		drum(converter.SampleNormal, converter.SampleFinish),
	}
	events[1].StartTime = 1200
	events[2].StartTime = 1400

	out := converter.Convert(NewTaiko(), events)
	if len(out) != 3 {
		t.Fatalf("got %d objects, want 3: %v", len(out), out)
	}
	if out[0].Kind != converter.KindMinion || out[0].Lane != converter.Ground {
		t.Errorf("centre hit = %v", out[0])
	}
	if out[1].Kind != converter.KindMinion || out[1].Lane != converter.Air {
		t.Errorf("rim hit = %v", out[1])
	}
	if out[2].Kind != converter.KindDualHit {
		t.Errorf("finisher = %v", out[2])
	}
}
