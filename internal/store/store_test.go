package store

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestStore creates a new Store backed by a database in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"gestures", "gesture_landmarks", "key_bindings"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	var idx string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_gesture_landmarks_gesture_id",
	).Scan(&idx)
	if err != nil {
		t.Errorf("landmark index should exist after migrations: %v", err)
	}
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, err := s.ImportGestures([]GestureRecord{{Name: "fist", Landmarks: []Landmark{{X: 1}}}}); err != nil {
		t.Fatalf("import: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	records, err := s.LoadGestures()
	if err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}
	if len(records) != 1 || records[0].Name != "fist" {
		t.Errorf("unexpected records after reopen: %+v", records)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.db.Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestStore_IsEmpty(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.IsEmpty()
	if err != nil {
		t.Fatalf("IsEmpty() error = %v", err)
	}
	if !empty {
		t.Error("new store should be empty")
	}

	if err := s.Bindings().Put(&Binding{Gesture: "fist", Key: "space"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if empty, _ := s.IsEmpty(); empty {
		t.Error("store with a binding should not be empty")
	}
}

func TestStore_ImportAndLoadGestures(t *testing.T) {
	s := newTestStore(t)

	records := []GestureRecord{
		{Name: "open_palm", Landmarks: []Landmark{{X: 0.1, Y: 0.2, Z: 0.3}, {X: 0.4, Y: 0.5, Z: 0.6}}},
		{Name: "fist", Landmarks: []Landmark{{X: 0.7, Y: 0.8, Z: 0.9}}},
	}

	n, err := s.ImportGestures(records)
	if err != nil {
		t.Fatalf("ImportGestures() error = %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 gestures imported, got %d", n)
	}

	// A seeded store is left alone.
	if n, _ := s.ImportGestures(records); n != 0 {
		t.Errorf("expected re-import into a seeded store to create nothing, got %d", n)
	}

	loaded, err := s.LoadGestures()
	if err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 gestures, got %d", len(loaded))
	}
	// Insertion order is preserved.
	if loaded[0].Name != "open_palm" || loaded[1].Name != "fist" {
		t.Errorf("unexpected order: %s, %s", loaded[0].Name, loaded[1].Name)
	}
	if got := loaded[0].Landmarks[1]; got != (Landmark{X: 0.4, Y: 0.5, Z: 0.6}) {
		t.Errorf("unexpected landmark: %+v", got)
	}
}

func TestStore_ImportGestures_RepeatedNames(t *testing.T) {
	s := newTestStore(t)

	records := []GestureRecord{
		{Name: "fist", Landmarks: []Landmark{{X: 0.1}}},
		{Name: "open_palm", Landmarks: []Landmark{{X: 0.5}}},
		{Name: "fist", Landmarks: []Landmark{{X: 0.9}}},
	}
	n, err := s.ImportGestures(records)
	if err != nil {
		t.Fatalf("ImportGestures() error = %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 gestures imported, got %d", n)
	}

	loaded, err := s.LoadGestures()
	if err != nil {
		t.Fatalf("LoadGestures() error = %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d gestures, got %d", len(records), len(loaded))
	}
	for i, want := range records {
		if loaded[i].Name != want.Name || loaded[i].Landmarks[0] != want.Landmarks[0] {
			t.Errorf("gesture %d = %+v, want %+v", i, loaded[i], want)
		}
	}
}

func TestStore_SaveAndLoadMapping(t *testing.T) {
	s := newTestStore(t)

	rec := MappingRecord{
		Mapping: map[string]string{"fist": "space", "open_palm": "w"},
		Types:   map[string]string{"open_palm": "Hold", "peace": "tap"},
	}
	if err := s.SaveMapping(rec); err != nil {
		t.Fatalf("SaveMapping() error = %v", err)
	}

	loaded, err := s.LoadMapping()
	if err != nil {
		t.Fatalf("LoadMapping() error = %v", err)
	}
	if len(loaded.Mapping) != 2 || loaded.Mapping["open_palm"] != "w" {
		t.Errorf("unexpected mapping: %v", loaded.Mapping)
	}
	if len(loaded.Types) != 2 || loaded.Types["open_palm"] != "Hold" || loaded.Types["peace"] != "tap" {
		t.Errorf("unexpected types: %v", loaded.Types)
	}
	if _, ok := loaded.Mapping["peace"]; ok {
		t.Error("a types-only entry should not produce a key")
	}

	// Saving replaces everything: fist is rebound, the others are removed.
	if err := s.SaveMapping(MappingRecord{Mapping: map[string]string{"fist": "enter"}}); err != nil {
		t.Fatalf("SaveMapping() error = %v", err)
	}
	loaded, _ = s.LoadMapping()
	if len(loaded.Mapping) != 1 || loaded.Mapping["fist"] != "enter" || len(loaded.Types) != 0 {
		t.Errorf("unexpected mapping after replace: %+v", loaded)
	}
	bindings, _ := s.Bindings().List()
	if len(bindings) != 1 || bindings[0].Gesture != "fist" {
		t.Errorf("expected only the fist binding to remain, got %d bindings", len(bindings))
	}

	// An empty record clears the table.
	if err := s.SaveMapping(NewMappingRecord()); err != nil {
		t.Fatalf("SaveMapping() error = %v", err)
	}
	if empty, _ := s.IsEmpty(); !empty {
		t.Error("expected no bindings after saving an empty mapping")
	}
}

func TestStore_ImplementsRepository(t *testing.T) {
	var _ Repository = newTestStore(t)
	var _ Repository = NewFiles("g.json", "m.json")
}
