package store

import (
	"sort"

	"github.com/ayusman/mudra/internal/detector"
)

// Landmark is one persisted landmark point.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GestureRecord is a named template as stored in gestures.json.
type GestureRecord struct {
	Name      string     `json:"name"`
	Landmarks []Landmark `json:"landmarks"`
}

// Pose converts the stored landmarks to a detector pose.
func (r GestureRecord) Pose() detector.Pose {
	pose := make(detector.Pose, len(r.Landmarks))
	for i, l := range r.Landmarks {
		pose[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
	}
	return pose
}

// MappingRecord is the gesture to key mapping as stored in
// gesture_key_mapping.json. Types holds the raw mode strings.
type MappingRecord struct {
	Mapping map[string]string `json:"mapping"`
	Types   map[string]string `json:"types"`
}

// NewMappingRecord returns a record with empty, non-nil maps.
func NewMappingRecord() MappingRecord {
	return MappingRecord{
		Mapping: make(map[string]string),
		Types:   make(map[string]string),
	}
}

// Bindings flattens the record into one binding per gesture name, sorted by name.
func (r MappingRecord) Bindings() []*Binding {
	byName := make(map[string]*Binding)
	get := func(name string) *Binding {
		b, ok := byName[name]
		if !ok {
			b = &Binding{Gesture: name}
			byName[name] = b
		}
		return b
	}
	for name, key := range r.Mapping {
		get(name).Key = key
	}
	for name, mode := range r.Types {
		get(name).Mode = mode
	}

	bindings := make([]*Binding, 0, len(byName))
	for _, b := range byName {
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Gesture < bindings[j].Gesture })
	return bindings
}
