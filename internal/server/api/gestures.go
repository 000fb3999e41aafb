package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// GestureHandler serves the loaded gesture templates. Templates are fixed
// for the life of the process, so the handler keeps its own copy.
type GestureHandler struct {
	templates []gesture.Template
	byName    map[string]int
}

// NewGestureHandler creates a GestureHandler over templates.
func NewGestureHandler(templates []gesture.Template) *GestureHandler {
	h := &GestureHandler{
		templates: make([]gesture.Template, len(templates)),
		byName:    make(map[string]int, len(templates)),
	}
	for i, t := range templates {
		h.templates[i] = gesture.Template{Name: t.Name, Pose: t.Pose.Clone()}
		if _, dup := h.byName[t.Name]; !dup {
			h.byName[t.Name] = i
		}
	}
	return h
}

type gestureSummary struct {
	Name      string `json:"name"`
	Landmarks int    `json:"landmarks"`
}

type listGesturesResponse struct {
	Gestures []gestureSummary `json:"gestures"`
	Total    int              `json:"total"`
}

type gestureResponse struct {
	Name   string        `json:"name"`
	Points detector.Pose `json:"points"`
}

// List handles GET /api/gestures. Templates are listed in matching order.
func (h *GestureHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := listGesturesResponse{
		Gestures: make([]gestureSummary, 0, len(h.templates)),
		Total:    len(h.templates),
	}
	for _, t := range h.templates {
		resp.Gestures = append(resp.Gestures, gestureSummary{Name: t.Name, Landmarks: len(t.Pose)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/gestures/{name}.
func (h *GestureHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	i, ok := h.byName[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}

	t := h.templates[i]
	writeJSON(w, http.StatusOK, gestureResponse{Name: t.Name, Points: t.Pose})
}
