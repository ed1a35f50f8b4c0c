package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Image content, referenced from session slots by id.
		`CREATE TABLE IF NOT EXISTS photos (
			id TEXT PRIMARY KEY,
			mime_type TEXT NOT NULL,
			data BLOB NOT NULL,
			source TEXT NOT NULL CHECK(source IN ('upload', 'import')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('full', 'album')),
			photo_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('requested', 'finished', 'failed')),
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
