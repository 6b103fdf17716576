package themestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"themeforge/theme"
)

// Record is one stored theme. Site is the canonical lowercase host the
// theme was extracted for; the theme itself is kept as an opaque JSON blob
// so stored records survive Theme field additions.
type Record struct {
	Site        string      `json:"site"`
	Theme       theme.Theme `json:"theme"`
	ExtractedAt time.Time   `json:"extractedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// CanonicalSite normalizes a site key: trimmed, lowercased, no trailing dot.
func CanonicalSite(site string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(site)), ".")
}

// Save upserts the record under its canonical site key.
func (s *Store) Save(ctx context.Context, rec Record) error {
	site := CanonicalSite(rec.Site)
	if site == "" {
		return fmt.Errorf("save theme: empty site")
	}
	blob, err := json.Marshal(rec.Theme)
	if err != nil {
		return fmt.Errorf("marshal theme for %q: %w", site, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO themes (site, theme_json, extracted_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(site) DO UPDATE SET
			theme_json = excluded.theme_json,
			extracted_at = excluded.extracted_at,
			updated_at = excluded.updated_at`,
		site, string(blob), rec.ExtractedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save theme for %q: %w", site, err)
	}
	return nil
}

// Get returns the stored record for a site, or ErrNotFound.
func (s *Store) Get(ctx context.Context, site string) (Record, error) {
	site = CanonicalSite(site)
	var (
		rec  Record
		blob string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT site, theme_json, extracted_at, updated_at
		FROM themes WHERE site = ?`,
		site,
	).Scan(&rec.Site, &blob, &rec.ExtractedAt, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get theme for %q: %w", site, err)
	}
	if err := json.Unmarshal([]byte(blob), &rec.Theme); err != nil {
		return Record{}, fmt.Errorf("decode theme for %q: %w", site, err)
	}
	return rec, nil
}

// List returns every stored record ordered by site.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site, theme_json, extracted_at, updated_at
		FROM themes ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			rec  Record
			blob string
		)
		if err := rows.Scan(&rec.Site, &blob, &rec.ExtractedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan theme row: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &rec.Theme); err != nil {
			return nil, fmt.Errorf("decode theme for %q: %w", rec.Site, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the stored record for a site. Deleting a site that has no
// record returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, site string) error {
	site = CanonicalSite(site)
	res, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE site = ?`, site)
	if err != nil {
		return fmt.Errorf("delete theme for %q: %w", site, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete theme for %q: %w", site, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
