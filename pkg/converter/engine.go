package converter

import "slices"

// ConvertHitObject converts one source event and advances the state.
// The returned objects are in emission order.
func (c *Converter) ConvertHitObject(ev SourceEvent) []Object {
	s := c.state
	cfg := c.cfg

	hint, flags := c.classifier.Classify(ev, s.Previous)

	// nothing to convert
	if flags == FlagsNone {
		s.update(nil, NoLane, FlagsNone)
		return nil
	}

	if flags.Has(ForceMiniBoss) {
		out := []Object{miniBoss(ev)}
		s.update(&ev, NoLane, flags)
		return out
	}

	rng := c.newRand(seedFor(ev.StartTime))
	kiaiMultiplier := 1.0
	if ev.Kiai {
		kiaiMultiplier = cfg.KiaiMultiplier
	}

	var lane OptLane
	switch {
	case flags.Has(ForceSameLane) || flags.Has(SuggestSameLane) && rng.Float64() < cfg.SuggestProbability:
		lane = s.Lane
	case flags.Has(ForceNotSameLane) || flags.Has(SuggestNotSameLane) && rng.Float64() < cfg.SuggestProbability:
		lane = s.Lane.Opposite()
	}
	if !lane.Valid() {
		switch {
		case flags.Has(ForceAir):
			lane = Some(Air)
		case flags.Has(ForceGround):
			lane = Some(Ground)
		default:
			lane = hint
		}
	}

	if len(s.NoteSheets) > 0 && (flags.Has(ForceEndNoteSheet) || flags.Has(SuggestEndNoteSheet) && rng.Float64() < cfg.NoteSheetEndProbability) {
		// sheets end where they are, no snapping
		s.clearNoteSheets()
	}

	if flags.Has(ForceStartNoteSheet) || flags.Has(SuggestStartNoteSheet) && rng.Float64() < cfg.NoteSheetStartProbability {
		return c.startNoteSheet(ev, lane, flags, rng)
	}

	for l, sheet := range s.NoteSheets {
		if ev.StartTime-sheet.StartTime >= cfg.MaxSheetLength {
			c.logger.Debug("note sheet expired", "lane", l, "start", sheet.StartTime, "at", ev.StartTime)
			delete(s.NoteSheets, l)
		}
	}

	if flags.Has(LowProbability) && rng.Float64() < cfg.SkipProbability {
		c.logger.Debug("event dropped", "time", ev.StartTime)
		if !lane.Valid() {
			lane = s.Lane
		}
		s.update(nil, lane, flags)
		return nil
	}

	timeSinceLastSawblade := ev.StartTime - s.LastSawbladeTime
	if timeSinceLastSawblade >= cfg.SawbladeSameLaneSafetyTime &&
		(flags.Has(ForceDoubleHit) ||
			flags.Has(AllowDoubleHit) && ev.StartTime >= s.NextDualHitTime && rng.Float64() < cfg.DualHitProbability) {
		s.NextDualHitTime = max(s.NextDualHitTime, ev.StartTime+cfg.MinDualHitTime)
		out := []Object{dualHit(ev)}
		s.update(&ev, NoLane, flags)
		return out
	}

	finalLane, ok := lane.Get()
	if !ok {
		finalLane = randomLane(rng)
	}

	blocked := s.blockedLane()
	if blocked.Is(finalLane) {
		finalLane = finalLane.Opposite()
	}

	tooCloseToLastSawblade := lane == s.LastSawbladeLane && timeSinceLastSawblade < cfg.SawbladeSameLaneSafetyTime

	var out []Object
	sawbladeAdded := false

	if flags.Any(AllowSawbladeAddOrReplace) &&
		ev.StartTime >= s.NextSawbladeTime &&
		rng.Float64() < cfg.SawbladeProbability*kiaiMultiplier {
		// the sawblade goes opposite to where the player is expected to hit
		sawbladeLane := finalLane.Opposite()

		// shortly after the cooldown it must alternate with the previous one
		if ev.StartTime-s.NextSawbladeTime < 2*cfg.MinSawbladeTime {
			sawbladeLane = s.LastSawbladeLane.Opposite().Or(Ground)
		}

		sinceLastHit := ev.StartTime - s.StartTime
		tooCloseToSameLane := !s.Lane.Valid() || s.Lane.Is(sawbladeLane) && sinceLastHit < cfg.SawbladeSameLaneSafetyTime

		// a player leaving the air lane may land on a ground sawblade; only matters
		// when the blade replaces the hit
		canFallOntoSawblade := s.Lane.Is(Air) && sawbladeLane == Ground &&
			sinceLastHit > sawbladeFallSafetyNearTime && sinceLastHit < sawbladeFallSafetyFarTime

		switch {
		case blocked.Is(sawbladeLane):
			c.logger.Debug("sawblade rejected: lane blocked by note sheet", "time", ev.StartTime, "lane", sawbladeLane)
		case tooCloseToSameLane:
			c.logger.Debug("sawblade rejected: too close to previous hit", "time", ev.StartTime, "lane", sawbladeLane)
		case sawbladeLane == Air && !ev.Kiai:
			c.logger.Debug("sawblade rejected: air outside kiai", "time", ev.StartTime)
		case flags.Has(AllowSawbladeReplace) && canFallOntoSawblade:
			c.logger.Debug("sawblade rejected: player may fall onto it", "time", ev.StartTime)
		default:
			sawbladeAdded = true
			s.LastSawbladeLane = Some(sawbladeLane)
			s.LastSawbladeTime = ev.StartTime
			s.NextSawbladeTime = ev.StartTime + cfg.MinSawbladeTime
			out = append(out, sawblade(ev, sawbladeLane))

			// never put the hit in the sawblade's lane
			finalLane = sawbladeLane.Opposite()
		}
	}

	// a replacing sawblade takes the place of the hit
	if !blocked.Is(finalLane) && !tooCloseToLastSawblade && (!sawbladeAdded || !flags.Has(AllowSawbladeReplace)) {
		out = append(out, c.normalHit(finalLane, ev.Samples, ev.StartTime))
	}

	s.update(&ev, Some(finalLane), flags)
	return out
}

const (
	sawbladeFallSafetyNearTime = 80
	sawbladeFallSafetyFarTime  = 600
)

func (c *Converter) startNoteSheet(ev SourceEvent, lane OptLane, flags Flags, rng Rand) []Object {
	s := c.state
	s.clearNoteSheets()

	sheetLane, ok := lane.Get()
	if !ok {
		sheetLane = randomLane(rng)
	}

	sheet := noteSheet(ev, sheetLane, ev.Samples)
	s.NoteSheets[sheetLane] = sheet
	out := []Object{sheet}
	otherLane := sheetLane.Opposite()

	if ev.RepeatCount > 0 {
		// repeats become hits in the free lane, thinned until they are at least
		// MinRepeatTime apart; an odd span count can lose its last hit this way
		duration := ev.EndTime() - ev.StartTime
		repeatDuration := duration / float64(ev.SpanCount())
		skip := 1
		if repeatDuration <= 0 {
			skip = max(len(ev.NodeSamples), 1)
		}
		// past one stride per node only the first hit is left
		for repeatDuration > 0 && repeatDuration < c.cfg.MinRepeatTime && skip < len(ev.NodeSamples) {
			repeatDuration *= 2
			skip *= 2
		}

		repeatCurrent := ev.StartTime
		for i, samples := range ev.NodeSamples {
			if i%skip != 0 {
				continue
			}
			out = append(out, c.normalHit(otherLane, samples, repeatCurrent))
			repeatCurrent += repeatDuration
		}
	} else if rng.Float64() < c.cfg.NoteSheetDualProbability {
		dual := noteSheet(ev, otherLane, nil)
		s.NoteSheets[otherLane] = dual
		out = append(out, dual)
	}

	s.update(nil, NoLane, flags)
	return out
}

// normalHit emits a minion, or a heart once the heart cooldown has passed
func (c *Converter) normalHit(lane Lane, samples []HitSample, t float64) Object {
	kind := KindMinion
	if t >= c.state.NextHeartTime {
		c.state.NextHeartTime += c.cfg.MinHeartTime
		kind = KindHeart
	}
	return Object{
		Kind:      kind,
		StartTime: t,
		EndTime:   t,
		Lane:      lane,
		Samples:   slices.Clone(samples),
	}
}

func randomLane(rng Rand) Lane {
	if rng.Float64() < 0.5 {
		return Ground
	}
	return Air
}

func miniBoss(ev SourceEvent) Object {
	return Object{
		Kind:      KindMiniBoss,
		StartTime: ev.StartTime,
		EndTime:   ev.EndTime(),
		Samples:   slices.Clone(ev.Samples),
	}
}

func noteSheet(ev SourceEvent, lane Lane, samples []HitSample) Object {
	if samples == nil {
		samples = []HitSample{}
	}
	return Object{
		Kind:      KindNoteSheet,
		StartTime: ev.StartTime,
		EndTime:   ev.EndTime(),
		Lane:      lane,
		Samples:   slices.Clone(samples),
	}
}

func dualHit(ev SourceEvent) Object {
	return Object{
		Kind:      KindDualHit,
		StartTime: ev.StartTime,
		EndTime:   ev.StartTime,
		Samples:   slices.Clone(ev.Samples),
	}
}

func sawblade(ev SourceEvent, lane Lane) Object {
	return Object{
		Kind:      KindSawblade,
		StartTime: ev.StartTime,
		EndTime:   ev.StartTime,
		Lane:      lane,
	}
}
