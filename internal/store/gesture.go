package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Gesture represents a gesture template row stored in the database.
type Gesture struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GestureRepository provides CRUD operations for gestures and their landmarks.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

// Create inserts a new gesture into the database. An empty ID is filled with a new UUID.
func (r *GestureRepository) Create(g *Gesture) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO gestures (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	return r.get(`SELECT id, name, created_at, updated_at FROM gestures WHERE id = ?`, id)
}

func (r *GestureRepository) get(query string, arg string) (*Gesture, error) {
	g := &Gesture{}
	err := r.db.QueryRow(query, arg).Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// List retrieves all gestures in insertion order, which is the matcher's
// tie-break order.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(
		`SELECT id, name, created_at, updated_at FROM gestures ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g := &Gesture{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return gestures, nil
}

// SetLandmarks replaces the landmarks of a gesture.
func (r *GestureRepository) SetLandmarks(gestureID string, landmarks []Landmark) error {
	if _, err := r.GetByID(gestureID); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_landmarks WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range landmarks {
		if _, err := stmt.Exec(gestureID, i, l.X, l.Y, l.Z); err != nil {
			return fmt.Errorf("landmark %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(`UPDATE gestures SET updated_at = ? WHERE id = ?`, time.Now(), gestureID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetLandmarks returns the landmarks of a gesture in index order.
func (r *GestureRepository) GetLandmarks(gestureID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT x, y, z FROM gesture_landmarks WHERE gesture_id = ? ORDER BY landmark_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	landmarks := []Landmark{}
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, l)
	}

	return landmarks, rows.Err()
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
