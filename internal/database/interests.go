package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/ideagraph/internal/model"
)

// UpsertInterest stores rec keyed by its id, replacing any previous version.
// It reports whether the id was not stored before.
func (s *Store) UpsertInterest(ctx context.Context, rec *model.InterestRecord) (isNew bool, err error) {
	if rec == nil || rec.ID == "" {
		return false, errors.New("interest record without id")
	}

	breadcrumbs, err := marshalList(rec.Breadcrumbs)
	if err != nil {
		return false, fmt.Errorf("failed to marshal breadcrumbs: %w", err)
	}
	related, err := marshalList(rec.RelatedEdges)
	if err != nil {
		return false, fmt.Errorf("failed to marshal related edges: %w", err)
	}
	pivots, err := marshalList(rec.PivotEdges)
	if err != nil {
		return false, fmt.Errorf("failed to marshal pivot edges: %w", err)
	}
	annotations, err := marshalList(rec.TopAnnotations)
	if err != nil {
		return false, fmt.Errorf("failed to marshal annotations: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM interests WHERE id = ?", rec.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check interest: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interests (
			id, name, url, search_volume, breadcrumbs, related_edges, pivot_edges,
			top_annotations, language_hint, last_update, last_scrape
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			search_volume = excluded.search_volume,
			breadcrumbs = excluded.breadcrumbs,
			related_edges = excluded.related_edges,
			pivot_edges = excluded.pivot_edges,
			top_annotations = excluded.top_annotations,
			language_hint = excluded.language_hint,
			last_update = excluded.last_update,
			last_scrape = excluded.last_scrape,
			scrape_count = interests.scrape_count + 1
	`,
		rec.ID, rec.Name, rec.URL, rec.SearchVolume, breadcrumbs, related, pivots,
		annotations, rec.LanguageHint, nullTimestamp(rec.LastUpdate), formatTimestamp(rec.LastScrape),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert interest: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit interest: %w", err)
	}
	return exists == 0, nil
}

// StoredInterest is an interest row together with bookkeeping columns.
type StoredInterest struct {
	model.InterestRecord

	// ScrapeCount is the number of upserts the id has seen.
	ScrapeCount int `json:"scrape_count"`
}

const interestColumns = `id, name, url, search_volume, breadcrumbs, related_edges, pivot_edges,
	top_annotations, language_hint, last_update, last_scrape, scrape_count`

// GetInterest returns the stored interest with the given id.
// It returns ErrNotFound when the id is unknown.
func (s *Store) GetInterest(ctx context.Context, id string) (*StoredInterest, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+interestColumns+" FROM interests WHERE id = ?", id)
	si, err := scanInterest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interest %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return si, nil
}

// ListInterests returns stored interests, most recently scraped first.
// A limit of 0 or less returns all rows.
func (s *Store) ListInterests(ctx context.Context, limit int) ([]*StoredInterest, error) {
	query := "SELECT " + interestColumns + " FROM interests ORDER BY last_scrape DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer rows.Close()

	var out []*StoredInterest
	for rows.Next() {
		si, err := scanInterest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interests: %w", err)
	}
	return out, nil
}

// CountInterests returns the number of stored interests.
func (s *Store) CountInterests(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interests").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count interests: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterest(row rowScanner) (*StoredInterest, error) {
	var (
		si                                       StoredInterest
		breadcrumbs, related, pivots, annotation string
		lastUpdate                               sql.NullString
		lastScrape                               string
	)
	err := row.Scan(
		&si.ID, &si.Name, &si.URL, &si.SearchVolume, &breadcrumbs, &related, &pivots,
		&annotation, &si.LanguageHint, &lastUpdate, &lastScrape, &si.ScrapeCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan interest: %w", err)
	}

	if si.Breadcrumbs, err = unmarshalList[string](breadcrumbs); err != nil {
		return nil, fmt.Errorf("failed to decode breadcrumbs of %s: %w", si.ID, err)
	}
	if si.RelatedEdges, err = unmarshalList[model.Edge](related); err != nil {
		return nil, fmt.Errorf("failed to decode related edges of %s: %w", si.ID, err)
	}
	if si.PivotEdges, err = unmarshalList[model.Edge](pivots); err != nil {
		return nil, fmt.Errorf("failed to decode pivot edges of %s: %w", si.ID, err)
	}
	if si.TopAnnotations, err = unmarshalList[model.Annotation](annotation); err != nil {
		return nil, fmt.Errorf("failed to decode annotations of %s: %w", si.ID, err)
	}
	si.LastUpdate = scanTimestamp(lastUpdate)
	si.LastScrape = parseTimestamp(lastScrape)

	return &si, nil
}
