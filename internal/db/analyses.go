package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homie/internal/models"
)

// SaveAnalysis replaces the analysis cached for a.URL. The entry keeps its
// original id and creation time.
func (db *DB) SaveAnalysis(ctx context.Context, a *models.SavedAnalysis) error {
	query := `
		INSERT INTO analyses (id, url, address, raw, parsed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			address = excluded.address,
			raw = excluded.raw,
			parsed = excluded.parsed,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		a.ID, a.URL, a.Address, a.Raw, a.Parsed, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Analysis returns the analysis cached for url.
func (db *DB) Analysis(ctx context.Context, url string) (*models.SavedAnalysis, bool, error) {
	var a models.SavedAnalysis
	err := db.GetContext(ctx, &a, `
		SELECT id, url, address, raw, parsed, created_at, updated_at
		FROM analyses WHERE url = ?`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &a, true, nil
}

// GetAnalysis is Analysis with ErrNotFound for a missing entry.
func (db *DB) GetAnalysis(ctx context.Context, url string) (*models.SavedAnalysis, error) {
	a, ok, err := db.Analysis(ctx, url)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", url, ErrNotFound)
	}
	return a, nil
}

// ListAnalyses returns saved analyses, most recently updated first.
func (db *DB) ListAnalyses(ctx context.Context, limit, offset int) ([]models.SavedAnalysis, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	analyses := []models.SavedAnalysis{}
	err := db.SelectContext(ctx, &analyses, `
		SELECT id, url, address, raw, parsed, created_at, updated_at
		FROM analyses ORDER BY updated_at DESC, url LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}
