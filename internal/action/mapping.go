// Package action turns confirmed gestures into keyboard actions.
package action

import (
	"sort"
	"strings"
)

// Mode is how a gesture drives its key.
type Mode string

const (
	// ModeTap presses and releases the key once, subject to a cooldown.
	ModeTap Mode = "tap"
	// ModeHold keeps the key down for as long as the gesture is confirmed.
	ModeHold Mode = "hold"
)

// ParseMode parses a mode name. Besides "tap" and "hold" it accepts the
// "Press Once" and "Hold" labels used by older mapping files. Matching is
// case-insensitive.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tap", "press", "press once":
		return ModeTap, true
	case "hold":
		return ModeHold, true
	default:
		return ModeTap, false
	}
}

// Binding is the key and mode bound to one gesture.
type Binding struct {
	Key  string
	Mode Mode
}

// Mapping binds gesture names to keys. It is immutable once built; the
// inverse index from key to owning gestures is computed at construction.
type Mapping struct {
	bindings map[string]Binding
	owners   map[string][]string
	invalid  []string
}

// NewMapping builds a Mapping from the gesture→key and gesture→mode tables
// of a mapping file. A gesture without a mode, or with an unknown mode, is
// bound as a tap. Gestures bound to an empty key are skipped.
func NewMapping(keys, modes map[string]string) *Mapping {
	m := &Mapping{
		bindings: make(map[string]Binding, len(keys)),
		owners:   make(map[string][]string),
	}

	for gesture, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		mode := ModeTap
		if raw, ok := modes[gesture]; ok {
			parsed, valid := ParseMode(raw)
			if !valid {
				m.invalid = append(m.invalid, gesture)
			}
			mode = parsed
		}

		m.bindings[gesture] = Binding{Key: key, Mode: mode}
		m.owners[key] = append(m.owners[key], gesture)
	}

	for key := range m.owners {
		sort.Strings(m.owners[key])
	}
	sort.Strings(m.invalid)

	return m
}

// EmptyMapping returns a Mapping with no bindings.
func EmptyMapping() *Mapping {
	return NewMapping(nil, nil)
}

// Lookup returns the binding of a gesture.
func (m *Mapping) Lookup(gesture string) (Binding, bool) {
	b, ok := m.bindings[gesture]
	return b, ok
}

// Owners returns the gestures bound to key, sorted by name.
func (m *Mapping) Owners(key string) []string {
	return m.owners[key]
}

// Len returns the number of bound gestures.
func (m *Mapping) Len() int {
	return len(m.bindings)
}

// InvalidModes lists gestures whose mode could not be parsed and fell back to tap.
func (m *Mapping) InvalidModes() []string {
	return m.invalid
}

// Tables returns the mapping as gesture→key and gesture→mode tables, the
// shape it is persisted in.
func (m *Mapping) Tables() (keys, modes map[string]string) {
	keys = make(map[string]string, len(m.bindings))
	modes = make(map[string]string, len(m.bindings))
	for gesture, b := range m.bindings {
		keys[gesture] = b.Key
		modes[gesture] = string(b.Mode)
	}
	return keys, modes
}
