package converter

import "strings"

// Flags is the set of conversion directives a classifier attaches to an event
type Flags uint32

const (
	FlagsNone Flags = 0

	// ForceSameLane keeps the event in the previous event's lane
	ForceSameLane Flags = 1 << (iota - 1)
	// ForceNotSameLane moves the event to the opposite of the previous lane
	ForceNotSameLane
	// SuggestSameLane keeps the previous lane with a small probability
	SuggestSameLane
	// SuggestNotSameLane switches lanes with a small probability
	SuggestNotSameLane
	// LowProbability makes the event likely to be dropped
	LowProbability
	// AllowDoubleHit lets the event become a dual hit
	AllowDoubleHit
	// AllowSawbladeReplace lets a sawblade replace the hit entirely. Nothing sets it yet.
	AllowSawbladeReplace
	// AllowSawbladeAdd lets a sawblade be added in the opposite lane
	AllowSawbladeAdd
	ForceStartNoteSheet
	ForceEndNoteSheet
	SuggestStartNoteSheet
	SuggestEndNoteSheet
	ForceMiniBoss
	ForceAir
	ForceGround
	ForceDoubleHit

	AllowSawbladeAddOrReplace = AllowSawbladeAdd | AllowSawbladeReplace
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{ForceSameLane, "ForceSameLane"},
	{ForceNotSameLane, "ForceNotSameLane"},
	{SuggestSameLane, "SuggestSameLane"},
	{SuggestNotSameLane, "SuggestNotSameLane"},
	{LowProbability, "LowProbability"},
	{AllowDoubleHit, "AllowDoubleHit"},
	{AllowSawbladeReplace, "AllowSawbladeReplace"},
	{AllowSawbladeAdd, "AllowSawbladeAdd"},
	{ForceStartNoteSheet, "ForceStartNoteSheet"},
	{ForceEndNoteSheet, "ForceEndNoteSheet"},
	{SuggestStartNoteSheet, "SuggestStartNoteSheet"},
	{SuggestEndNoteSheet, "SuggestEndNoteSheet"},
	{ForceMiniBoss, "ForceMiniBoss"},
	{ForceAir, "ForceAir"},
	{ForceGround, "ForceGround"},
	{ForceDoubleHit, "ForceDoubleHit"},
}

// Has reports whether every flag in mask is set
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Any reports whether at least one flag in mask is set
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// Without clears mask
func (f Flags) Without(mask Flags) Flags {
	return f &^ mask
}

func (f Flags) String() string {
	if f == FlagsNone {
		return "None"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
