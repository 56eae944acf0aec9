package classifiers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/james-see/osu2rush/pkg/converter"
)

// ErrUnknownClassifier is returned by ForName for unsupported names
var ErrUnknownClassifier = errors.New("unknown classifier")

// Info describes a classifier for listings
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ForRuleset selects the classifier for a source ruleset. Drum charts use the
// taiko classifier; every other ruleset is treated as position-based.
func ForRuleset(r converter.Ruleset) converter.Classifier {
	switch r {
	case converter.RulesetTaiko:
		return NewTaiko()
	default:
		return NewOsu()
	}
}

// ForName selects a classifier by name, as given on the command line
func ForName(name string) (converter.Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "osu", "standard", "position":
		return NewOsu(), nil
	case "taiko", "drum":
		return NewTaiko(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
	}
}

// Select returns the named classifier, or the ruleset default when name is empty
func Select(name string, r converter.Ruleset) (converter.Classifier, error) {
	if strings.TrimSpace(name) == "" {
		return ForRuleset(r), nil
	}
	return ForName(name)
}

// List returns every supported classifier
func List() []Info {
	return []Info{
		{ID: "osu", Name: "osu!standard", Description: "Lane from vertical position, directives from timing gaps"},
		{ID: "taiko", Name: "osu!taiko", Description: "Lane from rim/centre hit sounds, finishers become dual hits"},
	}
}
