package classifiers

import (
	"github.com/james-see/osu2rush/pkg/converter"
)

// Taiko classifies drum-based events by their hit sounds
type Taiko struct{}

// NewTaiko creates the drum-based classifier
func NewTaiko() *Taiko {
	return &Taiko{}
}

// Name returns the classifier name
func (t *Taiko) Name() string {
	return "taiko"
}

// Classify puts rim hits in the air and centre hits on the ground
func (t *Taiko) Classify(ev converter.SourceEvent, _ converter.Previous) (converter.OptLane, converter.Flags) {
	lane := converter.Some(converter.Ground)
	if isRim(ev) {
		lane = converter.Some(converter.Air)
	}

	switch {
	case ev.HasDistance:
		// drum roll
		return lane, converter.ForceStartNoteSheet
	case ev.HasDuration:
		// swell
		return lane, converter.ForceMiniBoss
	case isStrong(ev):
		return lane, converter.ForceDoubleHit
	case isRim(ev):
		return lane, converter.ForceAir
	default:
		return lane, converter.ForceGround
	}
}

func isStrong(ev converter.SourceEvent) bool {
	return converter.HasSample(ev.Samples, converter.SampleFinish)
}

func isRim(ev converter.SourceEvent) bool {
	return converter.HasSample(ev.Samples, converter.SampleClap, converter.SampleWhistle)
}
