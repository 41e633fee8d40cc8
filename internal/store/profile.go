package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/control"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TuningProfile is a named, persisted set of gesture mapping constants.
// Exactly one profile may be active at a time.
type TuningProfile struct {
	ID        string
	Name      string
	Tunables  control.Tunables
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileStore provides access to tuning profile records.
type ProfileStore struct {
	db *sql.DB
}

// Profiles returns the tuning profile store.
func (s *Store) Profiles() *ProfileStore {
	return &ProfileStore{db: s.db}
}

const profileColumns = `id, name, extension_ratio, open_threshold, closed_threshold,
	openness_raw_min, openness_raw_max, smoothing, active, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*TuningProfile, error) {
	var p TuningProfile
	var active int
	err := row.Scan(&p.ID, &p.Name,
		&p.Tunables.ExtensionRatio, &p.Tunables.OpenThreshold, &p.Tunables.ClosedThreshold,
		&p.Tunables.OpennessRawMin, &p.Tunables.OpennessRawMax, &p.Tunables.Smoothing,
		&active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Active = active != 0
	return &p, nil
}

// List returns all tuning profiles ordered by name.
func (ps *ProfileStore) List() ([]*TuningProfile, error) {
	rows, err := ps.db.Query(`SELECT ` + profileColumns + ` FROM tuning_profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*TuningProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetByID returns a single profile or ErrNotFound.
func (ps *ProfileStore) GetByID(id string) (*TuningProfile, error) {
	row := ps.db.QueryRow(`SELECT `+profileColumns+` FROM tuning_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetActive returns the active profile, or ErrNotFound when none is set.
func (ps *ProfileStore) GetActive() (*TuningProfile, error) {
	row := ps.db.QueryRow(`SELECT ` + profileColumns + ` FROM tuning_profiles WHERE active = 1`)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts a new profile.
func (ps *ProfileStore) Create(p *TuningProfile) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := ps.db.Exec(`INSERT INTO tuning_profiles
		(id, name, extension_ratio, open_threshold, closed_threshold,
		 openness_raw_min, openness_raw_max, smoothing, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name,
		p.Tunables.ExtensionRatio, p.Tunables.OpenThreshold, p.Tunables.ClosedThreshold,
		p.Tunables.OpennessRawMin, p.Tunables.OpennessRawMax, p.Tunables.Smoothing,
		boolToInt(p.Active), p.CreatedAt, p.UpdatedAt)
	return err
}

// Update rewrites an existing profile's name and tunables.
func (ps *ProfileStore) Update(p *TuningProfile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := ps.db.Exec(`UPDATE tuning_profiles SET
		name = ?, extension_ratio = ?, open_threshold = ?, closed_threshold = ?,
		openness_raw_min = ?, openness_raw_max = ?, smoothing = ?, updated_at = ?
		WHERE id = ?`,
		p.Name,
		p.Tunables.ExtensionRatio, p.Tunables.OpenThreshold, p.Tunables.ClosedThreshold,
		p.Tunables.OpennessRawMin, p.Tunables.OpennessRawMax, p.Tunables.Smoothing,
		p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive marks the given profile active and deactivates all others.
func (ps *ProfileStore) SetActive(id string) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE tuning_profiles SET active = 0 WHERE active = 1`); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE tuning_profiles SET active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a profile.
func (ps *ProfileStore) Delete(id string) error {
	res, err := ps.db.Exec(`DELETE FROM tuning_profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
