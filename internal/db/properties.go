package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"homie/internal/models"
)

const defaultListLimit = 100

// SaveProperty inserts or replaces the cached record for rec.URL.
func (db *DB) SaveProperty(ctx context.Context, rec *models.PropertyRecord) error {
	record, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode property: %w", err)
	}

	query := `
		INSERT INTO properties (
			url, title, address, suburb, postcode, price, property_type,
			record, extracted_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			address = excluded.address,
			suburb = excluded.suburb,
			postcode = excluded.postcode,
			price = excluded.price,
			property_type = excluded.property_type,
			record = excluded.record,
			extracted_at = excluded.extracted_at,
			updated_at = excluded.updated_at
	`

	_, err = db.ExecContext(ctx, query,
		rec.URL, rec.Title, rec.Address, rec.Suburb, rec.Postcode, rec.Price, rec.PropertyType,
		string(record), rec.ExtractedAt.UTC(), db.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}
	return nil
}

// GetProperty returns the cached record for url.
func (db *DB) GetProperty(ctx context.Context, url string) (*models.PropertyRecord, error) {
	var raw string
	err := db.GetContext(ctx, &raw, "SELECT record FROM properties WHERE url = ?", url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	var rec models.PropertyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode property: %w", err)
	}
	return &rec, nil
}

// ListProperties returns stored property summaries, newest first.
func (db *DB) ListProperties(ctx context.Context, f models.PropertyFilter) (*models.PropertyListResponse, error) {
	where := " WHERE 1 = 1"
	args := make([]interface{}, 0)
	if f.Suburb != "" {
		where += " AND suburb = ? COLLATE NOCASE"
		args = append(args, f.Suburb)
	}
	if f.Postcode != "" {
		where += " AND postcode = ?"
		args = append(args, f.Postcode)
	}

	var total int
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM properties"+where, args...); err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT url, title, address, suburb, postcode, price, property_type,
			'' AS record, extracted_at, updated_at
		FROM properties` + where + `
		ORDER BY updated_at DESC, url
		LIMIT ? OFFSET ?`

	properties := []models.StoredProperty{}
	if err := db.SelectContext(ctx, &properties, query, append(args, limit, offset)...); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	return &models.PropertyListResponse{
		Properties: properties,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// GetPropertyCount returns total number of properties
func (db *DB) GetPropertyCount(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM properties")
	return count, err
}
