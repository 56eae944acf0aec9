package converter

import (
	"io"
	"log/slog"
)

// Converter turns an ordered stream of source events into Rush objects.
// It owns its State and must not be shared between runs or goroutines.
type Converter struct {
	classifier Classifier
	cfg        Config
	logger     *slog.Logger
	newRand    RandFactory
	state      *State
}

// Option configures a Converter
type Option func(*Converter)

// WithConfig replaces the default tuning
func WithConfig(cfg Config) Option {
	return func(c *Converter) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRandom replaces the per-event random source
func WithRandom(factory RandFactory) Option {
	return func(c *Converter) {
		if factory != nil {
			c.newRand = factory
		}
	}
}

// New creates a Converter whose cooldowns start from the first event's time
func New(classifier Classifier, firstStartTime float64, opts ...Option) *Converter {
	c := &Converter{
		classifier: classifier,
		cfg:        DefaultConfig(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newRand:    DefaultRandFactory,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = newState(firstStartTime, c.cfg)
	return c
}

// GetClassifier returns the classifier selected for this run
func (c *Converter) GetClassifier() Classifier {
	return c.classifier
}

// State returns the carried conversion state. Callers must treat it as read-only.
func (c *Converter) State() *State {
	return c.state
}

// Convert runs a whole event stream through a fresh Converter.
// Events must be sorted by start time.
func Convert(classifier Classifier, events []SourceEvent, opts ...Option) []Object {
	out := make([]Object, 0, len(events))
	if len(events) == 0 {
		return out
	}

	c := New(classifier, events[0].StartTime, opts...)
	for _, ev := range events {
		out = append(out, c.ConvertHitObject(ev)...)
	}

	c.logger.Debug("conversion finished",
		"classifier", c.GetClassifier().Name(),
		"events", len(events),
		"objects", len(out),
		"open_sheets", len(c.state.NoteSheets))
	return out
}
