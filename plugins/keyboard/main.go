// Package main provides a keyboard dispatch plugin for macOS.
// It presses, holds and releases keys via AppleScript System Events.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyParams defines parameters for press, key_down and key_up.
type KeyParams struct {
	Key string `json:"key"`
}

// keyCodes maps named keys to macOS virtual key codes.
var keyCodes = map[string]int{
	"space":     49,
	"enter":     36,
	"return":    36,
	"tab":       48,
	"escape":    53,
	"esc":       53,
	"backspace": 51,
	"delete":    51,
	"left":      123,
	"right":     124,
	"down":      125,
	"up":        126,
}

// modifierKeys can be held with "key down".
var modifierKeys = map[string]string{
	"command": "command",
	"cmd":     "command",
	"option":  "option",
	"alt":     "option",
	"control": "control",
	"ctrl":    "control",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var (
		data json.RawMessage
		err  error
	)
	switch req.Action {
	case "press":
		err = withKey(req.Params, pressScript)
	case "key_down":
		err = withKey(req.Params, func(key string) (string, error) { return toggleScript(key, "down") })
	case "key_up":
		err = withKey(req.Params, func(key string) (string, error) { return toggleScript(key, "up") })
	case "screen_size":
		data, err = screenSize()
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}

	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse(data)
}

func withKey(params json.RawMessage, build func(string) (string, error)) error {
	var p KeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	script, err := build(strings.ToLower(p.Key))
	if err != nil {
		return err
	}
	_, err = runAppleScript(script)
	return err
}

// pressScript generates an AppleScript that taps key once.
func pressScript(key string) (string, error) {
	if code, ok := keyCodes[key]; ok {
		return fmt.Sprintf(`tell application "System Events" to key code %d`, code), nil
	}
	if len([]rune(key)) != 1 {
		return "", fmt.Errorf("unsupported key %q", key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q`, key), nil
}

// toggleScript generates an AppleScript that holds or releases key.
// System Events only holds modifiers and single characters.
func toggleScript(key, direction string) (string, error) {
	if mod, ok := modifierKeys[key]; ok {
		return fmt.Sprintf(`tell application "System Events" to key %s %s`, direction, mod), nil
	}
	if len([]rune(key)) != 1 {
		return "", fmt.Errorf("key %q cannot be held", key)
	}
	return fmt.Sprintf(`tell application "System Events" to key %s %q`, direction, key), nil
}

// screenSize reads the desktop bounds, reported as "0, 0, width, height".
func screenSize() (json.RawMessage, error) {
	out, err := runAppleScript(`tell application "Finder" to get bounds of window of desktop`)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("unexpected bounds %q", out)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[2]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[3]))
	if errW != nil || errH != nil {
		return nil, fmt.Errorf("unexpected bounds %q", out)
	}

	return json.Marshal(map[string]int{"width": w, "height": h})
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// runAppleScript executes an AppleScript command and returns its output.
func runAppleScript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, string(output))
	}
	return string(output), nil
}
