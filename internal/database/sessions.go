package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/ideagraph/internal/model"
)

// CrawlSession is a stored snapshot of a crawl tree.
type CrawlSession struct {
	ID        string            `json:"id"`
	RootID    string            `json:"root_id"`
	Timestamp time.Time         `json:"timestamp"`
	Nodes     []*model.TreeNode `json:"nodes"`
}

// SaveCrawlSession stores a snapshot of a crawl tree.
// Saving the same session id again overwrites the previous snapshot.
func (s *Store) SaveCrawlSession(ctx context.Context, session *CrawlSession) error {
	nodesJSON, err := json.Marshal(session.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	ts := session.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crawl_sessions (id, root_id, timestamp, node_count, nodes_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_id = excluded.root_id,
			timestamp = excluded.timestamp,
			node_count = excluded.node_count,
			nodes_json = excluded.nodes_json
	`, session.ID, session.RootID, formatTimestamp(ts), len(session.Nodes), string(nodesJSON))
	if err != nil {
		return fmt.Errorf("failed to save crawl session: %w", err)
	}
	return nil
}

// GetCrawlSession returns the stored session with the given id.
func (s *Store) GetCrawlSession(ctx context.Context, id string) (*CrawlSession, error) {
	var (
		session   CrawlSession
		ts        string
		nodesJSON string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, root_id, timestamp, nodes_json FROM crawl_sessions WHERE id = ?", id,
	).Scan(&session.ID, &session.RootID, &ts, &nodesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl session: %w", err)
	}

	if err := json.Unmarshal([]byte(nodesJSON), &session.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes of session %s: %w", id, err)
	}
	session.Timestamp = parseTimestamp(ts)
	return &session, nil
}

// SessionSummary describes a stored session without its nodes.
type SessionSummary struct {
	ID        string    `json:"id"`
	RootID    string    `json:"root_id"`
	Timestamp time.Time `json:"timestamp"`
	NodeCount int       `json:"node_count"`
}

// ListCrawlSessions returns summaries of stored sessions, newest first.
func (s *Store) ListCrawlSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, root_id, timestamp, node_count FROM crawl_sessions ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			sum SessionSummary
			ts  string
		)
		if err := rows.Scan(&sum.ID, &sum.RootID, &ts, &sum.NodeCount); err != nil {
			return nil, fmt.Errorf("failed to scan crawl session: %w", err)
		}
		sum.Timestamp = parseTimestamp(ts)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crawl sessions: %w", err)
	}
	return out, nil
}
