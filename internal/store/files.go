package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Files reads and writes the JSON files produced by the recording and
// mapping tools.
type Files struct {
	GesturesPath string
	MappingPath  string
}

// NewFiles creates a file repository for the given paths.
func NewFiles(gesturesPath, mappingPath string) *Files {
	return &Files{GesturesPath: gesturesPath, MappingPath: mappingPath}
}

// LoadGestures reads the template list. A missing file yields ErrNotFound.
func (f *Files) LoadGestures() ([]GestureRecord, error) {
	var records []GestureRecord
	if err := readJSON(f.GesturesPath, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadMapping reads the mapping record. A missing file yields ErrNotFound.
// Missing sections come back as empty maps.
func (f *Files) LoadMapping() (MappingRecord, error) {
	rec := NewMappingRecord()
	if err := readJSON(f.MappingPath, &rec); err != nil {
		return NewMappingRecord(), err
	}
	if rec.Mapping == nil {
		rec.Mapping = make(map[string]string)
	}
	if rec.Types == nil {
		rec.Types = make(map[string]string)
	}
	return rec, nil
}

// SaveMapping writes the mapping record.
func (f *Files) SaveMapping(rec MappingRecord) error {
	if rec.Mapping == nil {
		rec.Mapping = make(map[string]string)
	}
	if rec.Types == nil {
		rec.Types = make(map[string]string)
	}
	return writeJSON(f.MappingPath, rec)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces path atomically through a temp file in the same directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
