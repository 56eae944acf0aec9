package chart

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"os"
	"slices"
	"unicode/utf8"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/converter"
)

// MIDIRenderer renders converted objects as a General MIDI drum track
type MIDIRenderer struct {
	ticksPerQuarter uint16
	tempo           float64
}

// NewMIDIRenderer creates a renderer at 120 BPM and 480 ticks per quarter
func NewMIDIRenderer() *MIDIRenderer {
	return &MIDIRenderer{
		ticksPerQuarter: 480,
		tempo:           120.0,
	}
}

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// keysFor returns the drum keys sounding an object
func keysFor(o converter.Object) []uint8 {
	switch o.Kind {
	case converter.KindMinion:
		if o.Lane == converter.Air {
			return []uint8{beatmap.KeySnare}
		}
		return []uint8{beatmap.KeyKick}
	case converter.KindHeart:
		return []uint8{beatmap.KeyCowbell}
	case converter.KindDualHit:
		return []uint8{beatmap.KeyKick, beatmap.KeySnare}
	case converter.KindSawblade:
		if o.Lane == converter.Air {
			return []uint8{beatmap.KeyOpenHat}
		}
		return []uint8{beatmap.KeyClosedHat}
	case converter.KindNoteSheet:
		if o.Lane == converter.Air {
			return []uint8{beatmap.KeyRide}
		}
		return []uint8{beatmap.KeyLowFloorTom}
	case converter.KindMiniBoss:
		return []uint8{beatmap.KeyCrash}
	default:
		return nil
	}
}

// msToTick converts milliseconds to ticks at the renderer tempo
func (m *MIDIRenderer) msToTick(ms float64) uint32 {
	ticks := ms * m.tempo / 60000 * float64(m.ticksPerQuarter)
	if ticks <= 0 || math.IsNaN(ticks) {
		return 0
	}
	return uint32(math.Round(ticks))
}

// Render creates MIDI data for the objects
func (m *MIDIRenderer) Render(title string, objects []converter.Object) ([]byte, error) {
	if m.tempo <= 0 {
		m.tempo = 120.0
	}

	// Each short hit lasts a 32nd note
	hitLength := uint32(m.ticksPerQuarter) / 8

	var events []midiEvent
	for _, o := range objects {
		start := m.msToTick(o.StartTime)
		length := hitLength
		if o.Kind == converter.KindNoteSheet || o.Kind == converter.KindMiniBoss {
			if end := m.msToTick(o.EndTime); end > start+hitLength {
				length = end - start
			}
		}
		vel := uint8(100)
		if o.Kind == converter.KindHeart || o.Kind == converter.KindDualHit {
			vel = 127
		}
		for _, key := range keysFor(o) {
			events = append(events,
				midiEvent{tick: start, on: true, key: key, vel: vel},
				midiEvent{tick: start + length, key: key})
		}
	}
	// note offs first so repeated keys retrigger cleanly
	slices.SortStableFunc(events, func(a, b midiEvent) int {
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

	// Create SMF with one track
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(m.ticksPerQuarter)

	var track smf.Track

	if title != "" {
		track.Add(0, trackName(title))
	}

	// Add tempo meta event
	microsecondsPerBeat := uint32(60000000.0 / m.tempo)
	tempoData := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	track.Add(0, tempoData)

	// Add time signature (4/4)
	timeSigData := smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08})
	track.Add(0, timeSigData)

	var currentTick uint32
	for _, ev := range events {
		delta := ev.tick - currentTick
		if ev.on {
			track.Add(delta, midi.NoteOn(beatmap.DrumChannel, ev.key, ev.vel))
		} else {
			track.Add(delta, midi.NoteOff(beatmap.DrumChannel, ev.key))
		}
		currentTick = ev.tick
	}

	// Add end of track
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	// Write to buffer
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteMIDIFile renders the objects to filename
func (m *MIDIRenderer) WriteMIDIFile(filename, title string, objects []converter.Object) error {
	data, err := m.Render(title, objects)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// maxTrackNameLength keeps the meta length in a single variable-length byte
const maxTrackNameLength = 127

// trackName builds a sequence/track name meta message (FF 03 len text)
func trackName(text string) smf.Message {
	if len(text) > maxTrackNameLength {
		cut := maxTrackNameLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	msg := []byte{0xFF, 0x03, byte(len(text))}
	return smf.Message(append(msg, text...))
}
