package converter

import "math"

// Rand is the random source consumed while converting a single event
type Rand interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
}

// RandFactory builds the random source for an event from its seed
type RandFactory func(seed int32) Rand

const (
	legacyMBig  = math.MaxInt32
	legacyMSeed = 161803398
)

// LegacyRand is Knuth's subtractive generator as shipped in the .NET runtime's
// seeded System.Random. Charts converted by the game client use this sequence,
// so identical seeds must produce identical values here.
type LegacyRand struct {
	seeds [56]int32
	next  int
	nextp int
}

// NewLegacyRand seeds a generator
func NewLegacyRand(seed int32) *LegacyRand {
	r := &LegacyRand{}

	var sub int32
	switch {
	case seed == math.MinInt32:
		sub = math.MaxInt32
	case seed < 0:
		sub = -seed
	default:
		sub = seed
	}

	mj := int32(legacyMSeed) - sub
	r.seeds[55] = mj
	mk := int32(1)
	for i := 1; i < 55; i++ {
		ii := (21 * i) % 55
		r.seeds[ii] = mk
		mk = mj - mk
		if mk < 0 {
			mk += legacyMBig
		}
		mj = r.seeds[ii]
	}
	for k := 1; k < 5; k++ {
		for i := 1; i < 56; i++ {
			r.seeds[i] -= r.seeds[1+(i+30)%55]
			if r.seeds[i] < 0 {
				r.seeds[i] += legacyMBig
			}
		}
	}
	r.next = 0
	r.nextp = 21
	return r
}

// Int31 returns the next raw sample in [0, MaxInt32)
func (r *LegacyRand) Int31() int32 {
	next := r.next + 1
	if next >= 56 {
		next = 1
	}
	nextp := r.nextp + 1
	if nextp >= 56 {
		nextp = 1
	}

	v := r.seeds[next] - r.seeds[nextp]
	if v == legacyMBig {
		v--
	}
	if v < 0 {
		v += legacyMBig
	}
	r.seeds[next] = v
	r.next = next
	r.nextp = nextp
	return v
}

// Float64 returns the next sample scaled to [0, 1)
func (r *LegacyRand) Float64() float64 {
	return float64(r.Int31()) * (1.0 / legacyMBig)
}

// DefaultRandFactory seeds a LegacyRand per event
func DefaultRandFactory(seed int32) Rand {
	return NewLegacyRand(seed)
}

// seedFor truncates an event time to the generator seed
func seedFor(t float64) int32 {
	if t >= math.MaxInt32 || t <= math.MinInt32 || math.IsNaN(t) {
		return math.MinInt32
	}
	return int32(t)
}
