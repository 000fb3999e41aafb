package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func newGestureRouter(templates []gesture.Template) http.Handler {
	h := NewGestureHandler(templates)
	r := chi.NewRouter()
	r.Get("/api/gestures", h.List)
	r.Get("/api/gestures/{name}", h.Get)
	return r
}

func TestGestureHandler_List(t *testing.T) {
	templates := []gesture.Template{
		{Name: "open_palm", Pose: detector.OpenPalmLandmarks().Pose},
		{Name: "fist", Pose: detector.FistLandmarks().Pose},
		{Name: "partial", Pose: detector.Pose{{X: 0.1}}},
	}
	router := newGestureRouter(templates)

	req := httptest.NewRequest(http.MethodGet, "/api/gestures", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listGesturesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 3 {
		t.Errorf("expected total 3, got %d", response.Total)
	}
	want := []gestureSummary{
		{Name: "open_palm", Landmarks: detector.NumLandmarks},
		{Name: "fist", Landmarks: detector.NumLandmarks},
		{Name: "partial", Landmarks: 1},
	}
	for i, g := range response.Gestures {
		if g != want[i] {
			t.Errorf("gesture %d = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestGestureHandler_ListEmpty(t *testing.T) {
	router := newGestureRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/gestures", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response listGesturesResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Gestures == nil || len(response.Gestures) != 0 {
		t.Errorf("expected an empty list, got %v", response.Gestures)
	}
}

func TestGestureHandler_Get(t *testing.T) {
	fist := detector.FistLandmarks().Pose
	router := newGestureRouter([]gesture.Template{{Name: "fist", Pose: fist}})

	req := httptest.NewRequest(http.MethodGet, "/api/gestures/fist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response gestureResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Name != "fist" || len(response.Points) != len(fist) {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.Points[detector.IndexTip] != fist[detector.IndexTip] {
		t.Errorf("index tip = %+v, want %+v", response.Points[detector.IndexTip], fist[detector.IndexTip])
	}
}

func TestGestureHandler_Get_NotFound(t *testing.T) {
	router := newGestureRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/gestures/wave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGestureHandler_CopiesTemplates(t *testing.T) {
	pose := detector.Pose{{X: 0.5}}
	router := newGestureRouter([]gesture.Template{{Name: "dot", Pose: pose}})
	pose[0].X = 0.9

	req := httptest.NewRequest(http.MethodGet, "/api/gestures/dot", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response gestureResponse
	json.NewDecoder(rec.Body).Decode(&response)
	if response.Points[0].X != 0.5 {
		t.Errorf("handler should not see later changes to the caller's pose, got %v", response.Points[0].X)
	}
}
