// Package demographics reconciles demographic data from page markup, an
// upstream provider and free text into one normalized profile.
package demographics

import (
	"context"

	"go.uber.org/zap"

	"homie/internal/models"
)

// Profile sources recorded on a Result.
const (
	SourceTrusted  = "trusted"
	SourceCache    = "cache"
	SourceUpstream = "upstream"
	SourceMined    = "mined"
)

// Fetcher looks up a locality's profile from an external provider.
type Fetcher interface {
	FetchDemographics(ctx context.Context, suburb, postcode string) (models.DemographicProfile, error)
}

// Cache stores fetched profiles per postcode.
type Cache interface {
	Demographics(ctx context.Context, postcode string) (models.DemographicProfile, bool, error)
	SaveDemographics(ctx context.Context, postcode, suburb string, profile models.DemographicProfile, source string) error
}

// Input is everything the normalizer may draw on. Every field is optional.
type Input struct {
	Trusted  *models.DemographicProfile
	Suburb   string
	Postcode string
	Text     string
}

// Result is a finalized profile and where it came from. FetchErr records
// an upstream failure that was absorbed by falling through to mining.
type Result struct {
	Profile  models.DemographicProfile
	Source   string
	Defaults []string
	FetchErr error
}

// Normalizer resolves a profile from the first source that yields one.
type Normalizer struct {
	fetcher Fetcher
	cache   Cache
	log     *zap.Logger
}

// NewNormalizer creates a normalizer. fetcher and cache may be nil.
func NewNormalizer(fetcher Fetcher, cache Cache, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{fetcher: fetcher, cache: cache, log: log}
}

// Normalize never fails. It tries, in order, a complete trusted profile, the
// postcode cache, the upstream fetcher and finally text mining with keyword
// defaults for empty categories.
func (n *Normalizer) Normalize(ctx context.Context, in Input) Result {
	if in.Trusted != nil && in.Trusted.Complete() {
		return Result{Profile: Finalize(*in.Trusted), Source: SourceTrusted}
	}

	var fetchErr error
	if in.Postcode != "" || in.Suburb != "" {
		if p, ok := n.cached(ctx, in.Postcode); ok {
			return Result{Profile: p, Source: SourceCache}
		}
		if n.fetcher != nil {
			p, err := n.fetch(ctx, in.Suburb, in.Postcode)
			if err == nil {
				return Result{Profile: p, Source: SourceUpstream}
			}
			fetchErr = err
		}
	}

	profile, applied := FillDefaults(Mine(in.Text), in.Text)
	if len(applied) > 0 {
		n.log.Debug("demographic defaults applied", zap.Strings("rules", applied))
	}
	return Result{Profile: Finalize(profile), Source: SourceMined, Defaults: applied, FetchErr: fetchErr}
}

// FromText mines text and fills empty categories from keyword defaults.
func FromText(text string) models.DemographicProfile {
	profile, _ := FillDefaults(Mine(text), text)
	return Finalize(profile)
}

func (n *Normalizer) cached(ctx context.Context, postcode string) (models.DemographicProfile, bool) {
	if n.cache == nil || postcode == "" {
		return models.DemographicProfile{}, false
	}
	p, ok, err := n.cache.Demographics(ctx, postcode)
	if err != nil {
		n.log.Warn("demographics cache read failed", zap.String("postcode", postcode), zap.Error(err))
		return models.DemographicProfile{}, false
	}
	if !ok || !p.Complete() {
		return models.DemographicProfile{}, false
	}
	return Finalize(p), true
}

func (n *Normalizer) fetch(ctx context.Context, suburb, postcode string) (models.DemographicProfile, error) {
	p, err := n.fetcher.FetchDemographics(ctx, suburb, postcode)
	if err != nil {
		n.log.Warn("demographics fetch failed, mining text",
			zap.String("suburb", suburb), zap.String("postcode", postcode), zap.Error(err))
		return models.DemographicProfile{}, err
	}
	if !p.Complete() {
		return models.DemographicProfile{}, errIncomplete
	}

	p = Finalize(p)
	if n.cache != nil && postcode != "" {
		if err := n.cache.SaveDemographics(ctx, postcode, suburb, p, SourceUpstream); err != nil {
			n.log.Warn("demographics cache write failed", zap.String("postcode", postcode), zap.Error(err))
		}
	}
	return p, nil
}
