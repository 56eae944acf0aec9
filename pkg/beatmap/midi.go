package beatmap

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/text/unicode/norm"

	"github.com/james-see/osu2rush/pkg/converter"
)

// DrumChannel is the General MIDI percussion channel (channel 10, zero based)
const DrumChannel = 9

// General MIDI percussion keys
const (
	KeyAcousticKick  = 35
	KeyKick          = 36
	KeySideStick     = 37
	KeySnare         = 38
	KeyClap          = 39
	KeyElectricSnare = 40
	KeyLowFloorTom   = 41
	KeyClosedHat     = 42
	KeyHighFloorTom  = 43
	KeyPedalHat      = 44
	KeyLowTom        = 45
	KeyOpenHat       = 46
	KeyLowMidTom     = 47
	KeyHighMidTom    = 48
	KeyCrash         = 49
	KeyHighTom       = 50
	KeyRide          = 51
	KeyChina         = 52
	KeySplash        = 55
	KeyCowbell       = 56
	KeyCrash2        = 57
)

const defaultMicrosecondsPerBeat = 500000

type tempoChange struct {
	tick                int64
	microsecondsPerBeat uint32
}

type noteEvent struct {
	tick     int64
	channel  uint8
	key      uint8
	velocity uint8
	on       bool
}

type drumNote struct {
	tick     int64
	key      uint8
	velocity uint8
	length   int64
}

// DecodeMIDI reads the drum part of a Standard MIDI File as a taiko chart
func DecodeMIDI(data []byte) (*Beatmap, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	// Get ticks per quarter note from time format
	resolution := uint16(480)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok && mt.Resolution() > 0 {
		resolution = mt.Resolution()
	}

	var (
		tempos []tempoChange
		events []noteEvent
		title  string
	)

	for _, track := range s.Tracks {
		var currentTick int64
		for _, ev := range track {
			currentTick += int64(ev.Delta)
			msg := ev.Message

			// Check for tempo meta message (FF 51 03 ...)
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				microsecondsPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if microsecondsPerBeat > 0 {
					tempos = append(tempos, tempoChange{tick: currentTick, microsecondsPerBeat: microsecondsPerBeat})
				}
				continue
			}

			// Track name (FF 03 len text)
			if len(msg) >= 3 && msg[0] == 0xFF && msg[1] == 0x03 {
				if title == "" {
					title = metaText(msg)
				}
				continue
			}

			if len(msg) < 3 {
				continue
			}
			status := msg[0] & 0xF0
			channel := msg[0] & 0x0F
			switch {
			// Note On (0x90-0x9F)
			case status == 0x90 && msg[2] > 0:
				events = append(events, noteEvent{tick: currentTick, channel: channel, key: msg[1], velocity: msg[2], on: true})
			// Note Off (0x80-0x8F) or Note On with velocity 0
			case status == 0x80 || status == 0x90 && msg[2] == 0:
				events = append(events, noteEvent{tick: currentTick, channel: channel, key: msg[1]})
			}
		}
	}

	notes := pairNotes(events)
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}

	tm := tempoMap{resolution: float64(resolution), changes: tempos}
	slices.SortStableFunc(tm.changes, func(a, b tempoChange) int {
		return cmp.Compare(a.tick, b.tick)
	})

	return &Beatmap{
		Format:   FormatMIDI,
		Ruleset:  converter.RulesetTaiko,
		Metadata: Metadata{Title: norm.NFC.String(title)},
		Events:   drumEvents(notes, tm, int64(resolution)),
	}, nil
}

// pairNotes matches note-ons with their note-offs. Notes on the drum channel
// are preferred; other channels are only used when it is empty.
func pairNotes(events []noteEvent) []drumNote {
	// offs first so a retrigger on the same tick closes the previous note
	slices.SortStableFunc(events, func(a, b noteEvent) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		switch {
		case a.on == b.on:
			return 0
		case !a.on:
			return -1
		default:
			return 1
		}
	})

	useDrumChannel := slices.ContainsFunc(events, func(ev noteEvent) bool {
		return ev.on && ev.channel == DrumChannel
	})

	var notes []drumNote
	open := make(map[[2]uint8][]int)
	for _, ev := range events {
		if useDrumChannel && ev.channel != DrumChannel {
			continue
		}
		id := [2]uint8{ev.channel, ev.key}
		if ev.on {
			open[id] = append(open[id], len(notes))
			notes = append(notes, drumNote{tick: ev.tick, key: ev.key, velocity: ev.velocity})
			continue
		}
		if pending := open[id]; len(pending) > 0 {
			i := pending[0]
			notes[i].length = ev.tick - notes[i].tick
			open[id] = pending[1:]
		}
	}
	return notes
}

// drumEvents merges simultaneous notes into single hits and turns held notes
// into drum rolls or swells
func drumEvents(notes []drumNote, tm tempoMap, ticksPerBeat int64) []converter.SourceEvent {
	var out []converter.SourceEvent
	for start := 0; start < len(notes); {
		end := start + 1
		for end < len(notes) && notes[end].tick == notes[start].tick {
			end++
		}
		group := notes[start:end]
		start = end

		held := group[0]
		velocity := uint8(0)
		for _, n := range group {
			if n.length > held.length {
				held = n
			}
			velocity = max(velocity, n.velocity)
		}

		t := tm.ms(group[0].tick)
		ev := converter.SourceEvent{
			StartTime: t,
			Samples:   drumSamples(group, int(velocity)*100/127),
		}
		if held.length >= ticksPerBeat {
			ev.HasDuration = true
			ev.Duration = tm.ms(held.tick+held.length) - t
			// a held china cymbal is a swell, anything else a drum roll
			if held.key != KeyChina {
				ev.HasDistance = true
				ev.Distance = baseScoringDistance * float64(held.length) / float64(ticksPerBeat)
			}
		}
		out = append(out, ev)
	}
	return out
}

func drumSamples(group []drumNote, volume int) []converter.HitSample {
	samples := []converter.HitSample{{Name: converter.SampleNormal, Bank: "drum", Volume: volume}}
	for _, n := range group {
		name := drumSample(n.key)
		if name == "" || converter.HasSample(samples, name) {
			continue
		}
		samples = append(samples, converter.HitSample{Name: name, Bank: "drum", Volume: volume})
	}
	return samples
}

// drumSample returns the addition sample for a percussion key; kicks, snares,
// toms and anything unlisted are plain centre hits
func drumSample(key uint8) string {
	switch key {
	case KeySideStick, KeyClap:
		return converter.SampleClap
	case KeyClosedHat, KeyPedalHat, KeyOpenHat:
		return converter.SampleWhistle
	case KeyCrash, KeyCrash2, KeySplash, KeyChina:
		return converter.SampleFinish
	default:
		return ""
	}
}

// tempoMap converts ticks to milliseconds
type tempoMap struct {
	resolution float64
	changes    []tempoChange
}

func (tm tempoMap) ms(tick int64) float64 {
	var (
		elapsed  float64
		lastTick int64
		perBeat  = float64(defaultMicrosecondsPerBeat)
	)
	for _, c := range tm.changes {
		if c.tick >= tick {
			break
		}
		elapsed += float64(c.tick-lastTick) * perBeat / 1000 / tm.resolution
		lastTick = c.tick
		perBeat = float64(c.microsecondsPerBeat)
	}
	return elapsed + float64(tick-lastTick)*perBeat/1000/tm.resolution
}

// metaText decodes the variable-length text payload of a meta message
func metaText(msg []byte) string {
	n, i := 0, 2
	for i < len(msg) {
		b := msg[i]
		i++
		n = n<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	if i+n > len(msg) {
		n = len(msg) - i
	}
	return string(msg[i : i+n])
}
