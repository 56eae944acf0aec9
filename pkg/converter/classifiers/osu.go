// Package classifiers provides the source-format specific event classifiers
package classifiers

import (
	"github.com/james-see/osu2rush/pkg/converter"
)

// Osu playfield constants
const (
	OsuHalfHeight = 200.0

	// stream detection: objects closer than this are treated as a stream
	streamSeparation = 20.0
)

// Timing tiers between the previous object's end and this object's start
const (
	tierFast   = 80  // faster than ~187 bpm
	tierQuick  = 105 // faster than ~140 bpm
	tierMedium = 125 // faster than ~120 bpm
	tierStream = 135 // faster than ~111 bpm, streams only
)

// Osu classifies position-based (osu!standard and derived) events
type Osu struct{}

// NewOsu creates the position-based classifier
func NewOsu() *Osu {
	return &Osu{}
}

// Name returns the classifier name
func (o *Osu) Name() string {
	return "osu"
}

// Classify derives the lane from the vertical position and the directives from
// the gap to the previous object
func (o *Osu) Classify(ev converter.SourceEvent, prev converter.Previous) (converter.OptLane, converter.Flags) {
	return o.lane(ev), o.flags(ev, prev)
}

func (o *Osu) lane(ev converter.SourceEvent) converter.OptLane {
	if !ev.HasPosition {
		return converter.NoLane
	}
	if ev.Position.Y < OsuHalfHeight {
		return converter.Some(converter.Air)
	}
	return converter.Some(converter.Ground)
}

func (o *Osu) flags(ev converter.SourceEvent, prev converter.Previous) converter.Flags {
	// spinners
	if ev.HasDuration && !ev.HasDistance {
		return converter.ForceMiniBoss
	}

	flags := converter.FlagsNone

	// long sliders start a sheet and close any open one
	if ev.HasDuration && ev.Duration >= converter.MinSheetLength {
		flags |= converter.ForceStartNoteSheet | converter.ForceEndNoteSheet
	}

	var pos, prevPos converter.Vec2
	if ev.HasPosition {
		pos = ev.Position
	}
	if prev.HasPosition {
		prevPos = prev.Position
	}
	positionSeparation := pos.Sub(prevPos).Length()
	timeSeparation := ev.StartTime - prev.EndTime

	sameOr := func(stay converter.Flags) converter.Flags {
		if ev.NewCombo {
			return converter.ForceNotSameLane
		}
		return stay
	}

	switch {
	case timeSeparation <= tierFast:
		flags |= sameOr(converter.ForceSameLane)
		flags |= converter.AllowSawbladeAdd
	case timeSeparation <= tierQuick:
		flags |= sameOr(converter.SuggestNotSameLane)
		flags |= converter.AllowSawbladeAdd
		flags |= converter.ForceEndNoteSheet
	case timeSeparation <= tierMedium:
		flags |= sameOr(converter.SuggestNotSameLane)
		flags |= converter.AllowSawbladeAdd
		flags |= converter.ForceEndNoteSheet
	case timeSeparation <= tierStream && positionSeparation < streamSeparation:
		flags |= sameOr(converter.ForceSameLane)
		flags |= converter.AllowSawbladeAdd
		flags |= converter.ForceEndNoteSheet
	default:
		flags |= sameOr(converter.ForceSameLane)
		flags |= converter.AllowDoubleHit
		flags |= converter.AllowSawbladeAdd
		flags |= converter.ForceEndNoteSheet
	}

	if ev.NewCombo {
		flags = flags.Without(converter.LowProbability)
		flags |= converter.ForceEndNoteSheet
	}

	return flags
}
