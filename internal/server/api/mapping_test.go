package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/store"
)

type fakeSaver struct {
	saved []store.MappingRecord
	err   error
}

func (f *fakeSaver) SaveMapping(rec store.MappingRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, rec)
	return nil
}

func put(h *MappingHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/mapping", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Put(rec, req)
	return rec
}

func TestMappingHandler_Get(t *testing.T) {
	initial := store.MappingRecord{
		Mapping: map[string]string{"fist": "space"},
		Types:   map[string]string{"fist": "Press Once"},
	}
	h := NewMappingHandler(&fakeSaver{}, initial, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/mapping", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response mappingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Mapping["fist"] != "space" || response.Types["fist"] != "Press Once" {
		t.Errorf("unexpected mapping: %+v", response)
	}
}

func TestMappingHandler_Put(t *testing.T) {
	saver := &fakeSaver{}
	var got *action.Mapping
	h := NewMappingHandler(saver, store.NewMappingRecord(), func(m *action.Mapping) { got = m }, nil)

	rec := put(h, `{"mapping":{"open_palm":"w","fist":"space"},"types":{"open_palm":"hold","fist":"spin"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(saver.saved) != 1 || saver.saved[0].Mapping["open_palm"] != "w" {
		t.Fatalf("expected the record to be saved, got %+v", saver.saved)
	}
	if got == nil || got.Len() != 2 {
		t.Fatalf("expected onChange with 2 bindings, got %v", got)
	}
	if b, _ := got.Lookup("open_palm"); b.Mode != action.ModeHold {
		t.Errorf("open_palm mode = %s, want hold", b.Mode)
	}

	var response mappingResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if len(response.InvalidModes) != 1 || response.InvalidModes[0] != "fist" {
		t.Errorf("expected fist to be reported as an invalid mode, got %v", response.InvalidModes)
	}
}

func TestMappingHandler_Put_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"mapping":`},
		{"empty key", `{"mapping":{"fist":" "}}`},
		{"empty gesture", `{"mapping":{"":"space"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{}
			called := false
			h := NewMappingHandler(saver, store.NewMappingRecord(), func(*action.Mapping) { called = true }, nil)

			rec := put(h, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
			if len(saver.saved) != 0 || called {
				t.Error("an invalid mapping should be neither saved nor applied")
			}
		})
	}
}

func TestMappingHandler_Put_SaveFails(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	called := false
	initial := store.MappingRecord{Mapping: map[string]string{"fist": "space"}}
	h := NewMappingHandler(saver, initial, func(*action.Mapping) { called = true }, nil)

	rec := put(h, `{"mapping":{"fist":"enter"}}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if called {
		t.Error("a mapping that failed to save should not be applied")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mapping", nil)
	get := httptest.NewRecorder()
	h.Get(get, req)
	var response mappingResponse
	json.NewDecoder(get.Body).Decode(&response)
	if response.Mapping["fist"] != "space" {
		t.Errorf("current mapping should be unchanged, got %v", response.Mapping)
	}
}

// slowSaver widens the window between saving and applying.
type slowSaver struct {
	mu    sync.Mutex
	saved []string
}

func (s *slowSaver) SaveMapping(rec store.MappingRecord) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	s.saved = append(s.saved, rec.Mapping["fist"])
	s.mu.Unlock()
	return nil
}

func TestMappingHandler_Put_ConcurrentKeepsSavedAndApplied(t *testing.T) {
	saver := &slowSaver{}
	var (
		mu      sync.Mutex
		applied []string
	)
	h := NewMappingHandler(saver, store.NewMappingRecord(), func(m *action.Mapping) {
		b, _ := m.Lookup("fist")
		mu.Lock()
		applied = append(applied, b.Key)
		mu.Unlock()
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := put(h, fmt.Sprintf(`{"mapping":{"fist":"k%d"}}`, i))
			if rec.Code != http.StatusOK {
				t.Errorf("PUT %d: expected status %d, got %d", i, http.StatusOK, rec.Code)
			}
		}(i)
	}
	wg.Wait()

	if !reflect.DeepEqual(saver.saved, applied) {
		t.Fatalf("applied order %v differs from saved order %v", applied, saver.saved)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mapping", nil)
	get := httptest.NewRecorder()
	h.Get(get, req)
	var response mappingResponse
	json.NewDecoder(get.Body).Decode(&response)
	if last := saver.saved[len(saver.saved)-1]; response.Mapping["fist"] != last {
		t.Errorf("current mapping = %q, want last saved %q", response.Mapping["fist"], last)
	}
}
