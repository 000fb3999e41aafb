// Package store persists gesture templates and key bindings, either as the
// JSON files written by the recording tools or in a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Repository loads and saves the records the runtime needs.
type Repository interface {
	LoadGestures() ([]GestureRecord, error)
	LoadMapping() (MappingRecord, error)
	SaveMapping(MappingRecord) error
}

// Store represents a SQLite database connection for storing gestures and key bindings.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
// It opens the database connection, enables foreign keys, and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsEmpty reports whether the database holds neither gestures nor bindings.
func (s *Store) IsEmpty() (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM gestures) + (SELECT COUNT(*) FROM key_bindings)`,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// LoadGestures returns every gesture with its landmarks in insertion order.
func (s *Store) LoadGestures() ([]GestureRecord, error) {
	repo := s.Gestures()

	gestures, err := repo.List()
	if err != nil {
		return nil, fmt.Errorf("list gestures: %w", err)
	}

	records := make([]GestureRecord, 0, len(gestures))
	for _, g := range gestures {
		landmarks, err := repo.GetLandmarks(g.ID)
		if err != nil {
			return nil, fmt.Errorf("landmarks for %s: %w", g.Name, err)
		}
		records = append(records, GestureRecord{Name: g.Name, Landmarks: landmarks})
	}
	return records, nil
}

// ImportGestures appends records as new gestures in order. Records that
// share a name are all kept. A store that already holds gestures is left
// untouched and 0 is returned.
// It returns the number of gestures created.
func (s *Store) ImportGestures(records []GestureRecord) (int, error) {
	var existing int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM gestures`).Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	repo := s.Gestures()
	created := 0
	for _, rec := range records {
		g := &Gesture{Name: rec.Name}
		if err := repo.Create(g); err != nil {
			return created, fmt.Errorf("create gesture %s: %w", rec.Name, err)
		}
		if err := repo.SetLandmarks(g.ID, rec.Landmarks); err != nil {
			return created, fmt.Errorf("landmarks for %s: %w", rec.Name, err)
		}
		created++
	}
	return created, nil
}

// LoadMapping assembles the mapping record from the key bindings.
func (s *Store) LoadMapping() (MappingRecord, error) {
	bindings, err := s.Bindings().List()
	if err != nil {
		return MappingRecord{}, fmt.Errorf("list bindings: %w", err)
	}

	rec := NewMappingRecord()
	for _, b := range bindings {
		if b.Key != "" {
			rec.Mapping[b.Gesture] = b.Key
		}
		if b.Mode != "" {
			rec.Types[b.Gesture] = b.Mode
		}
	}
	return rec, nil
}

// SaveMapping replaces all key bindings with rec in one transaction.
func (s *Store) SaveMapping(rec MappingRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}
	defer tx.Rollback()

	repo := &BindingRepository{db: tx}
	existing, err := repo.List()
	if err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}

	keep := make(map[string]bool)
	for _, b := range rec.Bindings() {
		if err := repo.Put(b); err != nil {
			return fmt.Errorf("save binding %s: %w", b.Gesture, err)
		}
		keep[b.Gesture] = true
	}
	for _, b := range existing {
		if keep[b.Gesture] {
			continue
		}
		if err := repo.Delete(b.Gesture); err != nil {
			return fmt.Errorf("remove binding %s: %w", b.Gesture, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}
	return nil
}
