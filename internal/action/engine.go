package action

import (
	"log/slog"
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/input"
)

// DefaultCooldown is the minimum spacing between two taps of the same key.
const DefaultCooldown = 500 * time.Millisecond

// Kind identifies a dispatched key action.
type Kind string

const (
	KindPress   Kind = "press"
	KindKeyDown Kind = "key_down"
	KindKeyUp   Kind = "key_up"
)

// Event describes one dispatched key action.
type Event struct {
	Kind    Kind      `json:"kind"`
	Key     string    `json:"key"`
	Gesture string    `json:"gesture,omitempty"`
	Time    time.Time `json:"time"`
}

// Config holds Engine options.
type Config struct {
	// Cooldown between taps of the same key. Zero selects DefaultCooldown.
	Cooldown time.Duration
	Logger   *slog.Logger
	// OnAction, when set, is called after every dispatch.
	OnAction func(Event)
}

// keyState is the runtime state of one key.
type keyState struct {
	held    bool
	heldBy  string
	lastTap time.Time
	tapped  bool
}

// Engine is the per-key Released/Held state machine. It is not safe for
// concurrent use; the detection loop owns it.
type Engine struct {
	keyboard input.Keyboard
	mapping  *Mapping
	keys     map[string]*keyState
	cooldown time.Duration
	logger   *slog.Logger
	onAction func(Event)
}

// NewEngine creates an Engine dispatching to keyboard. A nil mapping is
// treated as empty.
func NewEngine(keyboard input.Keyboard, mapping *Mapping, cfg Config) *Engine {
	if mapping == nil {
		mapping = EmptyMapping()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		keyboard: keyboard,
		mapping:  mapping,
		keys:     make(map[string]*keyState),
		cooldown: cfg.Cooldown,
		logger:   cfg.Logger,
		onAction: cfg.OnAction,
	}
}

// Mapping returns the active mapping.
func (e *Engine) Mapping() *Mapping {
	return e.mapping
}

// SetMapping replaces the mapping. Held keys that no gesture maps to any
// more are released right away; the rest are re-evaluated on the next Apply.
func (e *Engine) SetMapping(m *Mapping) {
	if m == nil {
		m = EmptyMapping()
	}
	e.mapping = m

	for _, key := range e.Held() {
		if len(m.Owners(key)) == 0 {
			e.release(key, time.Now())
		}
	}
}

// Apply processes the gestures confirmed on one tick.
//
// Tap gestures press their key unless it was tapped within the cooldown.
// Hold gestures press and hold their key if it is not held already. Finally
// every held key none of whose gestures is confirmed is released.
func (e *Engine) Apply(confirmed []string, now time.Time) {
	active := make(map[string]bool, len(confirmed))
	for _, g := range confirmed {
		active[g] = true
	}

	names := make([]string, 0, len(active))
	for g := range active {
		names = append(names, g)
	}
	sort.Strings(names)

	for _, gesture := range names {
		b, ok := e.mapping.Lookup(gesture)
		if !ok {
			continue
		}

		switch b.Mode {
		case ModeHold:
			e.hold(b.Key, gesture, now)
		default:
			e.tap(b.Key, gesture, now)
		}
	}

	for _, key := range e.Held() {
		if !e.ownedByAny(key, active) {
			e.release(key, now)
		}
	}
}

// ReleaseAll releases every held key. It is safe to call more than once.
func (e *Engine) ReleaseAll() {
	now := time.Now()
	for _, key := range e.Held() {
		e.release(key, now)
	}
}

// Held returns the currently held keys in sorted order.
func (e *Engine) Held() []string {
	var held []string
	for key, st := range e.keys {
		if st.held {
			held = append(held, key)
		}
	}
	sort.Strings(held)
	return held
}

// IsHeld reports whether key is currently held.
func (e *Engine) IsHeld(key string) bool {
	st, ok := e.keys[key]
	return ok && st.held
}

func (e *Engine) state(key string) *keyState {
	st, ok := e.keys[key]
	if !ok {
		st = &keyState{}
		e.keys[key] = st
	}
	return st
}

func (e *Engine) tap(key, gesture string, now time.Time) {
	st := e.state(key)
	if st.tapped && now.Sub(st.lastTap) <= e.cooldown {
		return
	}

	if err := e.keyboard.Press(key); err != nil {
		e.logger.Warn("key press failed", "key", key, "gesture", gesture, "error", err)
	}
	st.lastTap = now
	st.tapped = true

	e.logger.Info("key pressed", "key", key, "gesture", gesture)
	e.emit(Event{Kind: KindPress, Key: key, Gesture: gesture, Time: now})
}

func (e *Engine) hold(key, gesture string, now time.Time) {
	st := e.state(key)
	if st.held {
		return
	}

	if err := e.keyboard.KeyDown(key); err != nil {
		e.logger.Warn("key down failed", "key", key, "gesture", gesture, "error", err)
	}
	st.held = true
	st.heldBy = gesture

	e.logger.Info("key held", "key", key, "gesture", gesture)
	e.emit(Event{Kind: KindKeyDown, Key: key, Gesture: gesture, Time: now})
}

func (e *Engine) release(key string, now time.Time) {
	st, ok := e.keys[key]
	if !ok || !st.held {
		return
	}

	if err := e.keyboard.KeyUp(key); err != nil {
		e.logger.Warn("key up failed", "key", key, "error", err)
	}
	gesture := st.heldBy
	st.held = false
	st.heldBy = ""

	e.logger.Info("key released", "key", key, "gesture", gesture)
	e.emit(Event{Kind: KindKeyUp, Key: key, Gesture: gesture, Time: now})
}

func (e *Engine) ownedByAny(key string, active map[string]bool) bool {
	for _, g := range e.mapping.Owners(key) {
		if active[g] {
			return true
		}
	}
	return false
}

func (e *Engine) emit(ev Event) {
	if e.onAction != nil {
		e.onAction(ev)
	}
}
