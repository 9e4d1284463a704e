package store

import "context"

// runMigrations executes all database migrations.
func (s *Store) runMigrations(ctx context.Context) error {
	migrations := []string{
		// Runs table - one row per scan
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			cascade_path TEXT NOT NULL,
			network_path TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '{}'
		)`,

		// Detections table - faces found in each source image of a run
		`CREATE TABLE IF NOT EXISTS detections (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			source TEXT NOT NULL,
			face_id BIGINT NOT NULL,
			x_min INTEGER NOT NULL,
			y_min INTEGER NOT NULL,
			x_max INTEGER NOT NULL,
			y_max INTEGER NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_detections_source ON detections(run_id, source)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
