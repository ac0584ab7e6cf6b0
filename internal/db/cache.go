package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"homie/internal/models"
)

// Demographics returns the profile cached for postcode.
func (db *DB) Demographics(ctx context.Context, postcode string) (models.DemographicProfile, bool, error) {
	var row models.CachedDemographics
	err := db.GetContext(ctx, &row,
		"SELECT postcode, suburb, profile, source, fetched_at FROM demographics WHERE postcode = ?", postcode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DemographicProfile{}, false, nil
	}
	if err != nil {
		return models.DemographicProfile{}, false, fmt.Errorf("failed to get demographics: %w", err)
	}

	var profile models.DemographicProfile
	if err := json.Unmarshal([]byte(row.Profile), &profile); err != nil {
		return models.DemographicProfile{}, false, fmt.Errorf("failed to decode demographics: %w", err)
	}
	return profile, true, nil
}

// SaveDemographics replaces the profile cached for postcode.
func (db *DB) SaveDemographics(ctx context.Context, postcode, suburb string, profile models.DemographicProfile, source string) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode demographics: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO demographics (postcode, suburb, profile, source, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(postcode) DO UPDATE SET
			suburb = excluded.suburb,
			profile = excluded.profile,
			source = excluded.source,
			fetched_at = excluded.fetched_at`,
		postcode, suburb, string(encoded), source, db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save demographics: %w", err)
	}
	return nil
}

// GrowthRate returns the annual growth rate cached for postcode.
func (db *DB) GrowthRate(ctx context.Context, postcode string) (float64, bool, error) {
	var rate float64
	err := db.GetContext(ctx, &rate, "SELECT rate FROM growth_rates WHERE postcode = ?", postcode)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get growth rate: %w", err)
	}
	return rate, true, nil
}

// SaveGrowthRate replaces the growth rate cached for postcode.
func (db *DB) SaveGrowthRate(ctx context.Context, postcode, suburb string, rate float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO growth_rates (postcode, suburb, rate, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(postcode) DO UPDATE SET
			suburb = excluded.suburb,
			rate = excluded.rate,
			fetched_at = excluded.fetched_at`,
		postcode, suburb, rate, db.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save growth rate: %w", err)
	}
	return nil
}
