package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is a single scan over a set of images.
type Run struct {
	ID        string
	StartedAt time.Time
	Cascade   string
	Network   string
	// Params are the detection parameters used, stored as JSON
	Params json.RawMessage
}

// CreateRun inserts a new run, assigning it a UUID and start time when not
// already set.
func (s *Store) CreateRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}

	params := r.Params
	if params == nil {
		params = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (id, started_at, cascade_path, network_path, params)
		 VALUES (?, ?, ?, ?, ?)`),
		r.ID, r.StartedAt, r.Cascade, r.Network, string(params),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// Run retrieves a run by its ID.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	r := &Run{}
	var params string

	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, started_at, cascade_path, network_path, params FROM runs WHERE id = ?`),
		id,
	).Scan(&r.ID, &r.StartedAt, &r.Cascade, &r.Network, &params)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.Params = json.RawMessage(params)
	return r, nil
}

// Runs retrieves all runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, cascade_path, network_path, params FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var params string

		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Cascade, &r.Network, &params); err != nil {
			return nil, err
		}

		r.Params = json.RawMessage(params)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
