package chart

import (
	"fmt"
	"strings"

	"github.com/james-see/osu2rush/pkg/converter"
)

// Summary holds statistics about a converted chart
type Summary struct {
	Objects int            `json:"objects"`
	Kinds   map[string]int `json:"kinds"`
	Lanes   map[string]int `json:"lanes"`
	Start   float64        `json:"start"`
	End     float64        `json:"end"`
}

// Summarize counts objects per kind and per lane
func Summarize(objects []converter.Object) Summary {
	s := Summary{
		Objects: len(objects),
		Kinds:   make(map[string]int),
		Lanes: map[string]int{
			converter.Ground.String(): 0,
			converter.Air.String():    0,
		},
	}
	for _, k := range converter.Kinds() {
		s.Kinds[k.String()] = 0
	}

	for i, o := range objects {
		s.Kinds[o.Kind.String()]++
		if o.Kind.Laned() {
			s.Lanes[o.Lane.String()]++
		}
		if i == 0 || o.StartTime < s.Start {
			s.Start = o.StartTime
		}
		if i == 0 || o.EndTime > s.End {
			s.End = o.EndTime
		}
	}
	return s
}

// Length returns the time covered by the chart
func (s Summary) Length() float64 {
	return s.End - s.Start
}

// String renders the summary as an aligned report
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "objects:   %d\n", s.Objects)
	fmt.Fprintf(&b, "span:      %.0fms - %.0fms (%.1fs)\n", s.Start, s.End, s.Length()/1000)
	for _, k := range converter.Kinds() {
		fmt.Fprintf(&b, "%-10s %d\n", k.String()+":", s.Kinds[k.String()])
	}
	fmt.Fprintf(&b, "%-10s %d\n", "ground:", s.Lanes[converter.Ground.String()])
	fmt.Fprintf(&b, "%-10s %d\n", "air:", s.Lanes[converter.Air.String()])
	return b.String()
}
