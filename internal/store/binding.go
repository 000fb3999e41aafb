package store

import (
	"database/sql"
	"time"
)

// Binding maps a gesture name to a key and a raw mode string.
type Binding struct {
	Gesture   string
	Key       string
	Mode      string
	UpdatedAt time.Time
}

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

// BindingRepository provides CRUD operations for key bindings.
type BindingRepository struct {
	db dbtx
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Put inserts or replaces the binding for b.Gesture.
func (r *BindingRepository) Put(b *Binding) error {
	b.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO key_bindings (gesture_name, key, mode, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(gesture_name) DO UPDATE SET key = excluded.key, mode = excluded.mode,
		 updated_at = excluded.updated_at`,
		b.Gesture, b.Key, b.Mode, b.UpdatedAt,
	)
	return err
}

// List retrieves all bindings ordered by gesture name.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT gesture_name, key, mode, updated_at FROM key_bindings ORDER BY gesture_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.Gesture, &b.Key, &b.Mode, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Delete removes the binding for a gesture name.
func (r *BindingRepository) Delete(gesture string) error {
	result, err := r.db.Exec(`DELETE FROM key_bindings WHERE gesture_name = ?`, gesture)
	if err != nil {
		return err
	}
	return requireRow(result)
}
