package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/ideagraph/internal/model"
)

// UpsertPins replaces the pin set of an interest with pins, in order.
// The interest must already be stored. Old and new sets are swapped in one
// transaction; on any failure the previous set is kept.
func (s *Store) UpsertPins(ctx context.Context, interestID string, pins []model.PinRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM pins WHERE interest_id = ?", interestID); err != nil {
		return fmt.Errorf("failed to clear pins of %s: %w", interestID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pins (
			interest_id, position, pin_id, title, description, image_url, thumbnail_url,
			repin_count, save_count, comment_count, created_at, tags, source_domain, board_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare pin insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pins {
		var tags string
		if tags, err = marshalList(p.Tags); err != nil {
			return fmt.Errorf("failed to marshal tags of pin %s: %w", p.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			interestID, i, p.ID, p.Title, p.Description, p.ImageURL, p.ThumbnailURL,
			p.Engagement.RepinCount, p.Engagement.SaveCount, p.Engagement.CommentCount,
			nullTimestamp(p.CreatedAt), tags, p.SourceDomain, p.BoardName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pin %s: %w", p.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pins: %w", err)
	}
	return nil
}

// ListPins returns the stored pins of an interest in presentation order.
func (s *Store) ListPins(ctx context.Context, interestID string) ([]model.PinRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pin_id, title, description, image_url, thumbnail_url,
			repin_count, save_count, comment_count, created_at, tags, source_domain, board_name
		FROM pins
		WHERE interest_id = ?
		ORDER BY position
	`, interestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pins: %w", err)
	}
	defer rows.Close()

	pins := []model.PinRecord{}
	for rows.Next() {
		var (
			p                                      model.PinRecord
			title, desc, image, thumb, domain, brd sql.NullString
			created                                sql.NullString
			tags                                   string
		)
		err := rows.Scan(
			&p.ID, &title, &desc, &image, &thumb,
			&p.Engagement.RepinCount, &p.Engagement.SaveCount, &p.Engagement.CommentCount,
			&created, &tags, &domain, &brd,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		p.Title = title.String
		p.Description = desc.String
		p.ImageURL = image.String
		p.ThumbnailURL = thumb.String
		p.SourceDomain = domain.String
		p.BoardName = brd.String
		p.CreatedAt = scanTimestamp(created)
		if p.Tags, err = unmarshalList[string](tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags of pin %s: %w", p.ID, err)
		}
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pins: %w", err)
	}
	return pins, nil
}
