package beatmap

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/james-see/osu2rush/pkg/converter"
)

const (
	osuHeaderPrefix = "osu file format v"

	// files older than v5 are offset by this many milliseconds
	earlyVersionTimingOffset = 24

	// sample control points apply slightly before their time
	sampleLeniency = 5

	baseScoringDistance = 100.0
	defaultBeatLength   = 500.0

	// maxSlides bounds a slider's repeat count
	maxSlides = 10000
)

type osuSection int

const (
	secNone osuSection = iota
	secGeneral
	secMetadata
	secDifficulty
	secTimingPoints
	secHitObjects
)

// Hit object type bits
const (
	typeSlider   = 1 << 1
	typeNewCombo = 1 << 2
	typeSpinner  = 1 << 3
	typeHold     = 1 << 7
)

// Hit sound bits
const (
	soundWhistle = 1 << 1
	soundFinish  = 1 << 2
	soundClap    = 1 << 3
)

type timingPoint struct {
	time        float64
	beatLength  float64
	uninherited bool
	bank        string
	volume      int
	kiai        bool
}

type osuDecoder struct {
	offset           float64
	mode             int
	bank             string
	sliderMultiplier float64
	meta             Metadata
	points           []timingPoint
	objectLines      []string
}

// DecodeOsu decodes a .osu beatmap
func DecodeOsu(data []byte) (*Beatmap, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var header string
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line != "" {
			header = line
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read beatmap: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(header), osuHeaderPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, header)
	}
	version, err := strconv.Atoi(strings.TrimSpace(header[len(osuHeaderPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad version in %q", ErrInvalidHeader, header)
	}

	d := &osuDecoder{
		bank:             "normal",
		sliderMultiplier: 1.4,
	}
	if version < 5 {
		d.offset = earlyVersionTimingOffset
	}

	sec := secNone
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch strings.ToLower(line) {
			case "[general]":
				sec = secGeneral
			case "[metadata]":
				sec = secMetadata
			case "[difficulty]":
				sec = secDifficulty
			case "[timingpoints]":
				sec = secTimingPoints
			case "[hitobjects]":
				sec = secHitObjects
			default:
				sec = secNone
			}
			continue
		}

		switch sec {
		case secGeneral:
			d.general(line)
		case secMetadata:
			d.metadata(line)
		case secDifficulty:
			k, v := splitKeyVal(line)
			if strings.EqualFold(k, "SliderMultiplier") {
				d.sliderMultiplier = clamp(parseFloat(v, 1.4), 0.4, 3.6)
			}
		case secTimingPoints:
			d.timingPoint(line)
		case secHitObjects:
			d.objectLines = append(d.objectLines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read beatmap: %w", err)
	}

	if d.mode < int(converter.RulesetOsu) || d.mode > int(converter.RulesetMania) {
		return nil, fmt.Errorf("unsupported game mode %d", d.mode)
	}

	slices.SortStableFunc(d.points, func(a, b timingPoint) int {
		return cmp.Compare(a.time, b.time)
	})

	events := make([]converter.SourceEvent, 0, len(d.objectLines))
	for i, line := range d.objectLines {
		ev, ok, err := d.hitObject(line)
		if err != nil {
			return nil, fmt.Errorf("hit object %d: %w", i, err)
		}
		if ok {
			events = append(events, ev)
		}
	}
	slices.SortStableFunc(events, func(a, b converter.SourceEvent) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})

	return &Beatmap{
		Format:   FormatOsu,
		Ruleset:  converter.Ruleset(d.mode),
		Metadata: d.meta,
		Events:   events,
	}, nil
}

func (d *osuDecoder) general(line string) {
	k, v := splitKeyVal(line)
	switch strings.ToLower(k) {
	case "mode":
		d.mode = parseInt(v, 0)
	case "sampleset":
		if bank := strings.ToLower(v); bank != "" && bank != "none" {
			d.bank = bank
		}
	}
}

func (d *osuDecoder) metadata(line string) {
	k, v := splitKeyVal(line)
	v = norm.NFC.String(v)
	switch strings.ToLower(k) {
	case "title":
		d.meta.Title = v
	case "titleunicode":
		if d.meta.Title == "" {
			d.meta.Title = v
		}
	case "artist":
		d.meta.Artist = v
	case "artistunicode":
		if d.meta.Artist == "" {
			d.meta.Artist = v
		}
	case "creator":
		d.meta.Creator = v
	case "version":
		d.meta.Version = v
	case "source":
		d.meta.Source = v
	}
}

func (d *osuDecoder) timingPoint(line string) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return
	}
	beatLength := parseFloat(parts[1], math.NaN())
	if math.IsNaN(beatLength) {
		return
	}

	p := timingPoint{
		time:        parseFloat(parts[0], 0) + d.offset,
		beatLength:  beatLength,
		uninherited: true,
	}
	if len(parts) >= 4 {
		p.bank = bankName(parseInt(parts[3], 0))
	}
	if len(parts) >= 6 {
		p.volume = parseInt(parts[5], 0)
	}
	if len(parts) >= 7 {
		p.uninherited = strings.TrimSpace(parts[6]) != "0"
	}
	if len(parts) >= 8 {
		p.kiai = parseInt(parts[7], 0)&1 != 0
	}
	if beatLength < 0 {
		p.uninherited = false
	}
	d.points = append(d.points, p)
}

// timingAt returns the beat length and slider velocity multiplier in effect at t
func (d *osuDecoder) timingAt(t float64) (beatLength, velocity float64) {
	beatLength, velocity = defaultBeatLength, 1
	// the first timing point also applies before its time
	for _, p := range d.points {
		if p.uninherited {
			beatLength = p.beatLength
			break
		}
	}
	for _, p := range d.points {
		if p.time > t {
			break
		}
		if p.uninherited {
			beatLength = p.beatLength
			velocity = 1
		} else {
			velocity = clamp(100/-p.beatLength, 0.1, 10)
		}
	}
	return clamp(beatLength, 6, 60000), velocity
}

// effectsAt returns the sample bank, volume and kiai state in effect at t
func (d *osuDecoder) effectsAt(t float64) (bank string, volume int, kiai bool) {
	bank, volume = d.bank, 100
	for _, p := range d.points {
		if p.time > t+sampleLeniency {
			break
		}
		if p.bank != "" {
			bank = p.bank
		}
		if p.volume > 0 {
			volume = p.volume
		}
		if p.time <= t {
			kiai = p.kiai
		}
	}
	return bank, volume, kiai
}

func (d *osuDecoder) hitObject(line string) (converter.SourceEvent, bool, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 5 {
		return converter.SourceEvent{}, false, nil
	}
	x := parseFloat(parts[0], 0)
	y := parseFloat(parts[1], 0)
	t := parseFloat(parts[2], 0) + d.offset
	typ := parseInt(parts[3], 0)
	sound := parseInt(parts[4], 0)

	bank, volume, kiai := d.effectsAt(t)
	spec := sampleSpec{bank: bank, addition: bank, volume: volume}

	ev := converter.SourceEvent{
		StartTime: t,
		NewCombo:  typ&typeNewCombo != 0,
		Kiai:      kiai,
	}
	// only osu!standard objects are positioned on a 2D playfield
	if converter.Ruleset(d.mode) == converter.RulesetOsu {
		ev.HasPosition = true
		ev.Position = converter.Vec2{X: x, Y: y}
	}

	switch {
	case typ&typeHold != 0:
		// mania hold: "endTime:hitSample"
		if len(parts) >= 6 {
			end, sample, _ := strings.Cut(parts[5], ":")
			ev.HasDuration = true
			ev.Duration = d.durationTo(end, t)
			spec = spec.with(sample)
		}
		ev.HasPosition = false

	case typ&typeSpinner != 0:
		if len(parts) >= 6 {
			ev.HasDuration = true
			ev.Duration = d.durationTo(parts[5], t)
		}
		if len(parts) >= 7 {
			spec = spec.with(parts[6])
		}
		ev.HasPosition = false

	case typ&typeSlider != 0:
		if len(parts) >= 11 {
			spec = spec.with(parts[10])
		}
		if err := d.slider(&ev, parts, x, y, sound, spec); err != nil {
			return converter.SourceEvent{}, false, err
		}

	default:
		if len(parts) >= 6 {
			spec = spec.with(parts[5])
		}
	}

	ev.Samples = spec.samples(sound)
	return ev, true, nil
}

// durationTo returns the time from t to an end time field, never negative
func (d *osuDecoder) durationTo(field string, t float64) float64 {
	end := parseFloat(field, math.NaN())
	if math.IsNaN(end) {
		return 0
	}
	return math.Max(end+d.offset-t, 0)
}

// slider fills in duration, distance and per-node samples
func (d *osuDecoder) slider(ev *converter.SourceEvent, parts []string, x, y float64, sound int, spec sampleSpec) error {
	slides := 1
	if len(parts) >= 7 {
		slides = max(parseInt(parts[6], 1), 1)
	}
	if slides > maxSlides {
		return fmt.Errorf("%w: %d slides at %gms exceeds %d", ErrInvalidObject, slides, ev.StartTime, maxSlides)
	}
	length := 0.0
	if len(parts) >= 8 {
		length = parseFloat(parts[7], 0)
	}
	if length <= 0 && len(parts) >= 6 {
		length = pathLength(converter.Vec2{X: x, Y: y}, parts[5])
	}

	beatLength, velocity := d.timingAt(ev.StartTime)
	pxPerBeat := baseScoringDistance * d.sliderMultiplier * velocity
	spanDuration := length / pxPerBeat * beatLength

	ev.HasDuration = true
	ev.Duration = spanDuration * float64(slides)
	ev.HasDistance = true
	ev.Distance = length
	ev.RepeatCount = slides - 1

	var edgeSounds, edgeSets []string
	if len(parts) >= 9 && strings.TrimSpace(parts[8]) != "" {
		edgeSounds = strings.Split(parts[8], "|")
	}
	if len(parts) >= 10 && strings.TrimSpace(parts[9]) != "" {
		edgeSets = strings.Split(parts[9], "|")
	}

	ev.NodeSamples = make([][]converter.HitSample, slides+1)
	for i := range ev.NodeSamples {
		nodeSound, nodeSpec := sound, spec
		if i < len(edgeSounds) {
			nodeSound = parseInt(edgeSounds[i], sound)
		}
		if i < len(edgeSets) {
			nodeSpec = nodeSpec.with(edgeSets[i])
		}
		ev.NodeSamples[i] = nodeSpec.samples(nodeSound)
	}
	return nil
}

// pathLength approximates a slider's length by its control polygon
func pathLength(head converter.Vec2, spec string) float64 {
	points := strings.Split(spec, "|")
	total := 0.0
	prev := head
	for _, p := range points[1:] {
		xs, ys, ok := strings.Cut(p, ":")
		if !ok {
			continue
		}
		next := converter.Vec2{X: parseFloat(xs, prev.X), Y: parseFloat(ys, prev.Y)}
		total += next.Sub(prev).Length()
		prev = next
	}
	return total
}

// sampleSpec is the bank and volume selection for an object's samples
type sampleSpec struct {
	bank     string
	addition string
	volume   int
}

// with applies a "normalSet:additionSet:index:volume:filename" override
func (s sampleSpec) with(field string) sampleSpec {
	parts := strings.Split(strings.TrimSpace(field), ":")
	if len(parts) >= 1 {
		if bank := bankName(parseInt(parts[0], 0)); bank != "" {
			s.bank = bank
			s.addition = bank
		}
	}
	if len(parts) >= 2 {
		if bank := bankName(parseInt(parts[1], 0)); bank != "" {
			s.addition = bank
		}
	}
	if len(parts) >= 4 {
		if v := parseInt(parts[3], 0); v > 0 {
			s.volume = v
		}
	}
	return s
}

func (s sampleSpec) samples(sound int) []converter.HitSample {
	out := []converter.HitSample{{Name: converter.SampleNormal, Bank: s.bank, Volume: s.volume}}
	if sound&soundFinish != 0 {
		out = append(out, converter.HitSample{Name: converter.SampleFinish, Bank: s.addition, Volume: s.volume})
	}
	if sound&soundWhistle != 0 {
		out = append(out, converter.HitSample{Name: converter.SampleWhistle, Bank: s.addition, Volume: s.volume})
	}
	if sound&soundClap != 0 {
		out = append(out, converter.HitSample{Name: converter.SampleClap, Bank: s.addition, Volume: s.volume})
	}
	return out
}

func bankName(id int) string {
	switch id {
	case 1:
		return "normal"
	case 2:
		return "soft"
	case 3:
		return "drum"
	default:
		return ""
	}
}

func splitKeyVal(line string) (key, val string) {
	k, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(k), strings.TrimSpace(v)
}

func parseInt(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func parseFloat(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
