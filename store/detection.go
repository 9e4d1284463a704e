package store

import (
	"context"
	"fmt"
	"image"

	"github.com/swdee/go-facedetect/postprocess"
)

// Detection is a face found in a source image during a run.
type Detection struct {
	RunID  string
	Seq    int
	Source string
	Face   postprocess.Face
}

// AddDetections records the faces found in source within a single
// transaction.  A source with no faces stores nothing.
func (s *Store) AddDetections(ctx context.Context, runID, source string, faces []postprocess.Face) error {
	if len(faces) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, s.rebind(
		`SELECT COALESCE(MAX(seq), 0) FROM detections WHERE run_id = ?`),
		runID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to read detection sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO detections (run_id, seq, source, face_id, x_min, y_min, x_max, y_max, score, verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range faces {
		next++

		verified := 0
		if f.Verified {
			verified = 1
		}

		_, err := stmt.ExecContext(ctx, runID, next, source, f.ID,
			f.Box.Min.X, f.Box.Min.Y, f.Box.Max.X, f.Box.Max.Y, f.Score, verified)
		if err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

// Detections retrieves the detections of a run in insertion order.
func (s *Store) Detections(ctx context.Context, runID string) ([]Detection, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT run_id, seq, source, face_id, x_min, y_min, x_max, y_max, score, verified
		 FROM detections WHERE run_id = ? ORDER BY seq`),
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dets []Detection
	for rows.Next() {
		var d Detection
		var x0, y0, x1, y1, verified int

		err := rows.Scan(&d.RunID, &d.Seq, &d.Source, &d.Face.ID,
			&x0, &y0, &x1, &y1, &d.Face.Score, &verified)
		if err != nil {
			return nil, err
		}

		d.Face.Box = image.Rect(x0, y0, x1, y1)
		d.Face.Verified = verified != 0
		dets = append(dets, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dets, nil
}
