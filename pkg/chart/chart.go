// Package chart serialises converted Rush charts and renders previews of them
package chart

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/james-see/osu2rush/pkg/beatmap"
	"github.com/james-see/osu2rush/pkg/converter"
)

// Chart is a converted Rush chart
type Chart struct {
	Title         string   `yaml:"title" json:"title"`
	Artist        string   `yaml:"artist" json:"artist"`
	Version       string   `yaml:"version,omitempty" json:"version,omitempty"`
	SourceRuleset string   `yaml:"source_ruleset" json:"source_ruleset"`
	Classifier    string   `yaml:"classifier" json:"classifier"`
	Objects       []Object `yaml:"objects" json:"objects"`
}

// Object is the serialised form of a converted object. End is omitted for
// instantaneous objects and Lane for objects spanning both lanes.
type Object struct {
	Kind    string   `yaml:"kind" json:"kind"`
	Start   float64  `yaml:"start" json:"start"`
	End     *float64 `yaml:"end,omitempty" json:"end,omitempty"`
	Lane    string   `yaml:"lane,omitempty" json:"lane,omitempty"`
	Samples []string `yaml:"samples,omitempty" json:"samples,omitempty"`
}

// New builds a chart from converted objects
func New(meta beatmap.Metadata, ruleset converter.Ruleset, classifier string, objects []converter.Object) *Chart {
	c := &Chart{
		Title:         meta.Title,
		Artist:        meta.Artist,
		Version:       meta.Version,
		SourceRuleset: ruleset.String(),
		Classifier:    classifier,
		Objects:       make([]Object, 0, len(objects)),
	}
	for _, o := range objects {
		c.Objects = append(c.Objects, fromObject(o))
	}
	return c
}

func fromObject(o converter.Object) Object {
	out := Object{Kind: o.Kind.String(), Start: o.StartTime}
	if o.EndTime != o.StartTime {
		end := o.EndTime
		out.End = &end
	}
	if o.Kind.Laned() {
		out.Lane = o.Lane.String()
	}
	for _, s := range o.Samples {
		out.Samples = append(out.Samples, s.Name)
	}
	return out
}

// ConverterObjects parses the chart's objects back into engine values.
// Sample banks and volumes are not stored and come back empty.
func (c *Chart) ConverterObjects() ([]converter.Object, error) {
	out := make([]converter.Object, 0, len(c.Objects))
	for i, o := range c.Objects {
		kind, err := converter.ParseKind(o.Kind)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		obj := converter.Object{Kind: kind, StartTime: o.Start, EndTime: o.Start}
		if o.End != nil {
			obj.EndTime = *o.End
		}
		if kind.Laned() {
			lane, err := converter.ParseLane(o.Lane)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			obj.Lane = lane
		}
		for _, name := range o.Samples {
			obj.Samples = append(obj.Samples, converter.HitSample{Name: name})
		}
		out = append(out, obj)
	}
	return out, nil
}

// Encode writes the chart as YAML
func Encode(w io.Writer, c *Chart) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return enc.Close()
}

// Marshal returns the chart as YAML
func Marshal(c *Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a YAML chart
func Read(r io.Reader) (*Chart, error) {
	var c Chart
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse chart: %w", err)
	}
	return &c, nil
}

// WriteFile writes the chart as YAML to filename
func WriteFile(filename string, c *Chart) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ReadFile reads a YAML chart from filename
func ReadFile(filename string) (*Chart, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open chart: %w", err)
	}
	defer f.Close()
	return Read(f)
}
