package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/store"
)

// MappingSaver persists a mapping record.
type MappingSaver interface {
	SaveMapping(store.MappingRecord) error
}

// MappingHandler serves and replaces the gesture to key mapping.
type MappingHandler struct {
	saver    MappingSaver
	onChange func(*action.Mapping)
	logger   *slog.Logger

	mu      sync.RWMutex
	current store.MappingRecord
}

// NewMappingHandler creates a MappingHandler starting from current. After a
// successful save, onChange receives the new mapping. onChange is called with
// the handler locked and must not block.
func NewMappingHandler(saver MappingSaver, current store.MappingRecord, onChange func(*action.Mapping), logger *slog.Logger) *MappingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MappingHandler{
		saver:    saver,
		onChange: onChange,
		logger:   logger,
		current:  cloneRecord(current),
	}
}

type mappingResponse struct {
	Mapping      map[string]string `json:"mapping"`
	Types        map[string]string `json:"types"`
	InvalidModes []string          `json:"invalid_modes,omitempty"`
}

// Get handles GET /api/mapping.
func (h *MappingHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	rec := cloneRecord(h.current)
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, mappingResponse{Mapping: rec.Mapping, Types: rec.Types})
}

// Put handles PUT /api/mapping. The body has the mapping file shape.
func (h *MappingHandler) Put(w http.ResponseWriter, r *http.Request) {
	var rec store.MappingRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	rec = cloneRecord(rec)

	for gesture, key := range rec.Mapping {
		if strings.TrimSpace(gesture) == "" {
			writeError(w, http.StatusBadRequest, "Gesture name is required")
			return
		}
		if strings.TrimSpace(key) == "" {
			writeError(w, http.StatusBadRequest, "Key is required for "+gesture)
			return
		}
	}

	mapping := action.NewMapping(rec.Mapping, rec.Types)

	// Concurrent PUTs are applied in the order they are saved.
	h.mu.Lock()
	if err := h.saver.SaveMapping(rec); err != nil {
		h.mu.Unlock()
		h.logger.Error("save mapping failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save mapping")
		return
	}
	h.current = rec
	if h.onChange != nil {
		h.onChange(mapping)
	}
	h.mu.Unlock()

	h.logger.Info("mapping updated", "bindings", mapping.Len())
	writeJSON(w, http.StatusOK, mappingResponse{
		Mapping:      rec.Mapping,
		Types:        rec.Types,
		InvalidModes: mapping.InvalidModes(),
	})
}

func cloneRecord(rec store.MappingRecord) store.MappingRecord {
	out := store.NewMappingRecord()
	for k, v := range rec.Mapping {
		out.Mapping[k] = v
	}
	for k, v := range rec.Types {
		out.Types[k] = v
	}
	return out
}
