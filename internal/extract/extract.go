// Package extract pulls listing fields out of a property details page. Every
// field is resolved through an ordered rule table and degrades to a fixed
// sentinel string when no rule matches.
package extract

import (
	"time"

	"go.uber.org/zap"

	"homie/internal/embedded"
	"homie/internal/enrichment"
)

// DateOrder tells the history sorter how to read numeric dates.
type DateOrder string

const (
	DayFirst   DateOrder = "DMY"
	MonthFirst DateOrder = "MDY"
)

// Extractor runs the field chains over a document. It holds no per-page state.
type Extractor struct {
	log      *zap.Logger
	embedded *embedded.Parser
	dates    DateOrder
	enrich   enrichment.Provider
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDateOrder sets how numeric history dates are parsed.
func WithDateOrder(order DateOrder) Option {
	return func(e *Extractor) {
		if order == MonthFirst {
			e.dates = MonthFirst
		} else {
			e.dates = DayFirst
		}
	}
}

// WithEnrichment replaces the static school and market data provider.
func WithEnrichment(p enrichment.Provider) Option {
	return func(e *Extractor) {
		if p != nil {
			e.enrich = p
		}
	}
}

// WithClock overrides the extraction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// New creates an Extractor. A nil logger discards diagnostics.
func New(log *zap.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Extractor{
		log:      log,
		embedded: embedded.New(log.Named("embedded")),
		dates:    DayFirst,
		enrich:   enrichment.Static{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
