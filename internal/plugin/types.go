// Package plugin discovers and runs dispatch plugins: external executables
// that inject key and pointer input on behalf of mudra.
package plugin

import "encoding/json"

// Actions understood by dispatch plugins.
const (
	ActionPress      = "press"
	ActionKeyDown    = "key_down"
	ActionKeyUp      = "key_up"
	ActionMove       = "move"
	ActionScreenSize = "screen_size"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest lists action. An empty list
// supports everything.
func (m Manifest) Supports(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// KeyParams are the params of press, key_down and key_up.
type KeyParams struct {
	Key string `json:"key"`
}

// MoveParams are the params of move.
type MoveParams struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// ScreenSize is the data returned by screen_size.
type ScreenSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
