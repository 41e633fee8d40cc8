package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// SettingEnabled persists whether gesture control is enabled across restarts.
const SettingEnabled = "enabled"

// SettingsStore provides access to key/value settings.
type SettingsStore struct {
	db *sql.DB
}

// Settings returns the settings store.
func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (ss *SettingsStore) Get(key string) (string, error) {
	var value string
	err := ss.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores the value for key, overwriting any previous value.
func (ss *SettingsStore) Set(key, value string) error {
	_, err := ss.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetBool returns the value for key parsed as a bool. A missing or
// unparseable value yields the fallback.
func (ss *SettingsStore) GetBool(key string, fallback bool) bool {
	value, err := ss.Get(key)
	if err != nil {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// SetBool stores a bool value for key.
func (ss *SettingsStore) SetBool(key string, value bool) error {
	return ss.Set(key, strconv.FormatBool(value))
}
