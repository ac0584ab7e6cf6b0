// Package embedded reads listing data out of inline script payloads: JSON-LD
// structured data and the site's client-side query cache.
package embedded

import (
	"go.uber.org/zap"

	"homie/internal/document"
)

// Parser consults embedded payloads. Parse failures are logged and reported
// as "no value"; nothing is returned as an error.
type Parser struct {
	log *zap.Logger
}

// New creates a parser. A nil logger discards diagnostics.
func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

func (p *Parser) parseFailed(source string, err error) {
	p.log.Debug("embedded data parse failed", zap.String("source", source), zap.Error(err))
}

// LandSize tries JSON-LD floorSize first, then the client cache.
func (p *Parser) LandSize(d *document.Document) (string, bool) {
	if v, ok := p.FloorSize(d); ok {
		return v, true
	}
	return p.CachedLandSize(d)
}
