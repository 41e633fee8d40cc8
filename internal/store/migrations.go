package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Tuning profiles - named sets of gesture mapping constants
		`CREATE TABLE IF NOT EXISTS tuning_profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			extension_ratio REAL NOT NULL,
			open_threshold REAL NOT NULL,
			closed_threshold REAL NOT NULL,
			openness_raw_min REAL NOT NULL,
			openness_raw_max REAL NOT NULL,
			smoothing REAL NOT NULL,
			active INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tuning_profiles_active ON tuning_profiles(active)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
