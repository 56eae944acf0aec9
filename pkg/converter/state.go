package converter

// Previous is the read-only record of the last accepted event that classifiers consult
type Previous struct {
	HasPosition bool
	Position    Vec2

	HasDuration bool
	Duration    float64

	HasDistance bool
	Distance    float64

	StartTime float64
	EndTime   float64
	Kiai      bool
	Lane      OptLane
	Flags     Flags
}

// State is the memory carried between events of one conversion run
type State struct {
	Previous

	LastSawbladeTime float64
	LastSawbladeLane OptLane
	NextSawbladeTime float64
	NextHeartTime    float64
	NextDualHitTime  float64

	// NoteSheets holds at most one active sheet per lane
	NoteSheets map[Lane]Object
}

func newState(firstStartTime float64, cfg Config) *State {
	return &State{
		NextHeartTime:    firstStartTime + cfg.MinHeartTime,
		NextDualHitTime:  firstStartTime + cfg.MinDualHitTime,
		NextSawbladeTime: firstStartTime + cfg.MinSawbladeTime,
		NoteSheets:       make(map[Lane]Object, 2),
	}
}

// update records the outcome of an event. A nil event keeps the previous timing
// and only replaces the lane and flags.
func (s *State) update(ev *SourceEvent, lane OptLane, flags Flags) {
	if ev != nil {
		s.HasPosition = ev.HasPosition
		s.Position = ev.Position
		s.HasDuration = ev.HasDuration
		s.Duration = ev.Duration
		s.HasDistance = ev.HasDistance
		s.Distance = ev.Distance
		s.StartTime = ev.StartTime
		s.EndTime = ev.EndTime()
		s.Kiai = ev.Kiai
	}
	s.Lane = lane
	s.Flags = flags
}

// blockedLane returns the lane occupied by an active sheet, preferring air
func (s *State) blockedLane() OptLane {
	if _, ok := s.NoteSheets[Air]; ok {
		return Some(Air)
	}
	if _, ok := s.NoteSheets[Ground]; ok {
		return Some(Ground)
	}
	return NoLane
}

func (s *State) clearNoteSheets() {
	clear(s.NoteSheets)
}

// ActiveNoteSheets returns the sheets still open, ground first
func (s *State) ActiveNoteSheets() []Object {
	var out []Object
	for _, l := range []Lane{Ground, Air} {
		if sheet, ok := s.NoteSheets[l]; ok {
			out = append(out, sheet)
		}
	}
	return out
}
