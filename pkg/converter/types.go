// Package converter turns osu! hit events into objects for the two-lane Rush ruleset
package converter

import (
	"fmt"
	"math"
	"strings"
)

// Lane is one of the two lanes of the Rush playfield
type Lane uint8

const (
	Ground Lane = iota
	Air
)

// Opposite returns the other lane
func (l Lane) Opposite() Lane {
	if l == Air {
		return Ground
	}
	return Air
}

func (l Lane) String() string {
	if l == Air {
		return "air"
	}
	return "ground"
}

// MarshalText implements encoding.TextMarshaler
func (l Lane) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Lane) UnmarshalText(text []byte) error {
	lane, err := ParseLane(string(text))
	if err != nil {
		return err
	}
	*l = lane
	return nil
}

// ParseLane parses "ground" or "air"
func ParseLane(s string) (Lane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ground":
		return Ground, nil
	case "air":
		return Air, nil
	default:
		return Ground, fmt.Errorf("unknown lane %q", s)
	}
}

// OptLane is a lane that may be absent. Two absent lanes compare equal.
type OptLane struct {
	lane Lane
	set  bool
}

// NoLane is the absent lane
var NoLane = OptLane{}

// Some wraps a lane
func Some(l Lane) OptLane {
	return OptLane{lane: l, set: true}
}

// Get returns the lane and whether it is present
func (o OptLane) Get() (Lane, bool) {
	return o.lane, o.set
}

// Valid reports whether a lane is present
func (o OptLane) Valid() bool {
	return o.set
}

// Or returns the lane, or def when absent
func (o OptLane) Or(def Lane) Lane {
	if o.set {
		return o.lane
	}
	return def
}

// Opposite returns the opposite lane, keeping absence
func (o OptLane) Opposite() OptLane {
	if !o.set {
		return NoLane
	}
	return Some(o.lane.Opposite())
}

// Is reports whether the lane is present and equal to l
func (o OptLane) Is(l Lane) bool {
	return o.set && o.lane == l
}

func (o OptLane) String() string {
	if !o.set {
		return "none"
	}
	return o.lane.String()
}

// Vec2 is a playfield position in osu! pixels
type Vec2 struct {
	X, Y float64
}

// Sub returns v - w
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Length returns the euclidean length of v
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Sample names carried by source events
const (
	SampleNormal  = "hitnormal"
	SampleWhistle = "hitwhistle"
	SampleFinish  = "hitfinish"
	SampleClap    = "hitclap"
)

// HitSample is an audio sample marker attached to an event or object
type HitSample struct {
	Name   string `yaml:"name" json:"name"`
	Bank   string `yaml:"bank,omitempty" json:"bank,omitempty"`
	Volume int    `yaml:"volume,omitempty" json:"volume,omitempty"`
}

// HasSample reports whether any sample in samples is named one of names
func HasSample(samples []HitSample, names ...string) bool {
	for _, s := range samples {
		for _, n := range names {
			if s.Name == n {
				return true
			}
		}
	}
	return false
}

// SourceEvent is a single hit event of the source beatmap
type SourceEvent struct {
	StartTime float64

	HasDuration bool
	Duration    float64

	// HasDistance marks events with spatial extent (sliders, drum rolls)
	HasDistance bool
	Distance    float64

	HasPosition bool
	Position    Vec2

	// RepeatCount is the number of slider repeats; NodeSamples has RepeatCount+2 entries when set
	RepeatCount int
	NodeSamples [][]HitSample

	NewCombo bool
	Kiai     bool
	Samples  []HitSample
}

// EndTime returns the time the event ends
func (e SourceEvent) EndTime() float64 {
	if e.HasDuration {
		return e.StartTime + e.Duration
	}
	return e.StartTime
}

// SpanCount returns the number of spans travelled by a repeating event
func (e SourceEvent) SpanCount() int {
	return e.RepeatCount + 1
}

// Kind identifies the variant of an output object
type Kind uint8

const (
	KindMinion Kind = iota
	KindHeart
	KindMiniBoss
	KindDualHit
	KindNoteSheet
	KindSawblade
)

var kindNames = [...]string{
	KindMinion:    "minion",
	KindHeart:     "heart",
	KindMiniBoss:  "miniboss",
	KindDualHit:   "dualhit",
	KindNoteSheet: "notesheet",
	KindSawblade:  "sawblade",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Laned reports whether objects of this kind occupy a single lane
func (k Kind) Laned() bool {
	switch k {
	case KindMinion, KindHeart, KindNoteSheet, KindSawblade:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind name
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown object kind %q", s)
}

// Kinds lists every object kind in declaration order
func Kinds() []Kind {
	return []Kind{KindMinion, KindHeart, KindMiniBoss, KindDualHit, KindNoteSheet, KindSawblade}
}

// Object is a converted Rush hit object. Lane is only meaningful when Kind.Laned().
type Object struct {
	Kind      Kind
	StartTime float64
	EndTime   float64
	Lane      Lane
	Samples   []HitSample
}

// Duration returns the length of the object
func (o Object) Duration() float64 {
	return o.EndTime - o.StartTime
}

func (o Object) String() string {
	if o.Kind.Laned() {
		return fmt.Sprintf("%s@%g[%s]", o.Kind, o.StartTime, o.Lane)
	}
	return fmt.Sprintf("%s@%g", o.Kind, o.StartTime)
}

// Ruleset identifies the source beatmap format and selects the classifier
type Ruleset int

const (
	RulesetOsu   Ruleset = 0
	RulesetTaiko Ruleset = 1
	RulesetCatch Ruleset = 2
	RulesetMania Ruleset = 3
)

func (r Ruleset) String() string {
	switch r {
	case RulesetOsu:
		return "osu"
	case RulesetTaiko:
		return "taiko"
	case RulesetCatch:
		return "catch"
	case RulesetMania:
		return "mania"
	default:
		return fmt.Sprintf("ruleset(%d)", int(r))
	}
}

// Classifier derives a lane hint and conversion directives for one source event.
// Implementations must not keep mutable state between calls.
type Classifier interface {
	Name() string
	Classify(ev SourceEvent, prev Previous) (OptLane, Flags)
}
