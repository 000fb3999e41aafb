// Package app runs the mudra detection loop: landmarks in, key and pointer
// actions out.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/display"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/pointer"
)

// ErrAcquisition is returned by Run when the landmark source cannot be
// opened. No key is ever dispatched in that case.
var ErrAcquisition = errors.New("landmark source unavailable")

// DefaultMaxFrameFailures is about three seconds of failed ticks at 30 fps.
const DefaultMaxFrameFailures = 90

// Source yields one frame of hand landmarks per tick.
type Source interface {
	Open() error
	Next() (capture.Frame, error)
	Close() error
}

var _ Source = (*capture.Source)(nil)

// Config holds configuration options for the application.
type Config struct {
	Source     Source
	Display    display.Display // Nil selects display.Headless
	Dispatcher input.Dispatcher

	Templates        []gesture.Template
	Mapping          *action.Mapping
	MatchThreshold   float64
	HistorySize      int
	ConfirmThreshold int
	TapCooldown      time.Duration
	SwipeThreshold   float64

	// MaxFrameFailures consecutive failed ticks end the loop with an error.
	// Defaults to DefaultMaxFrameFailures.
	MaxFrameFailures int

	// GestureHand drives keys, PointerHand drives the pointer.
	GestureHand string
	PointerHand string

	Logger *slog.Logger
	// Clock returns the tick time. Defaults to time.Now.
	Clock func() time.Time

	// OnAction observes every key dispatch.
	OnAction func(action.Event)
	// OnGesture is called when the confirmed gesture of the gesture hand
	// changes. An empty name means nothing is confirmed any more.
	OnGesture func(name string)
}

// App owns all runtime state of the detection loop. Run must be called at
// most once; the control methods may be called from any goroutine.
type App struct {
	source      Source
	display     display.Display
	matcher     *gesture.Matcher
	stabilizer  *gesture.Stabilizer
	engine      *action.Engine
	pointer     *pointer.Driver
	gestureHand string
	pointerHand string
	clock       func() time.Time
	onGesture   func(string)
	logger      *slog.Logger

	maxFailures int
	failures    int
	enabled     bool
	confirmed   string

	mu      sync.Mutex // serializes senders below
	reload  chan *action.Mapping
	toggles chan bool
}

// New creates a new App instance with the given configuration.
func New(cfg Config) (*App, error) {
	if cfg.Source == nil {
		return nil, errors.New("app: source is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("app: dispatcher is required")
	}
	if cfg.Display == nil {
		cfg.Display = display.Headless{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = gesture.DefaultHistorySize
	}
	if cfg.ConfirmThreshold == 0 {
		cfg.ConfirmThreshold = gesture.DefaultConfirmThreshold
	}
	if cfg.MaxFrameFailures <= 0 {
		cfg.MaxFrameFailures = DefaultMaxFrameFailures
	}
	if cfg.GestureHand == "" {
		cfg.GestureHand = detector.HandRight
	}
	if cfg.PointerHand == "" {
		cfg.PointerHand = detector.HandLeft
	}

	stabilizer, err := gesture.NewStabilizer(cfg.HistorySize, cfg.ConfirmThreshold)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	return &App{
		source:     cfg.Source,
		display:    cfg.Display,
		matcher:    gesture.NewMatcher(cfg.Templates, cfg.MatchThreshold),
		stabilizer: stabilizer,
		engine: action.NewEngine(cfg.Dispatcher, cfg.Mapping, action.Config{
			Cooldown: cfg.TapCooldown,
			Logger:   cfg.Logger,
			OnAction: cfg.OnAction,
		}),
		pointer:     pointer.NewDriver(cfg.Dispatcher, cfg.SwipeThreshold, cfg.Logger),
		gestureHand: cfg.GestureHand,
		pointerHand: cfg.PointerHand,
		clock:       cfg.Clock,
		onGesture:   cfg.OnGesture,
		logger:      cfg.Logger,
		maxFailures: cfg.MaxFrameFailures,
		enabled:     true,
		reload:      make(chan *action.Mapping, 1),
		toggles:     make(chan bool, 1),
	}, nil
}

// ReloadMapping hands a new mapping to the loop. It is applied between
// ticks; only the latest pending mapping is kept.
func (a *App) ReloadMapping(m *action.Mapping) {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.reload:
	default:
	}
	a.reload <- m
}

// SetEnabled pauses or resumes gesture control between ticks. While paused
// no key is held and frames are only displayed.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-a.toggles:
	default:
	}
	a.toggles <- enabled
}

// Engine returns the key action engine. It must only be used from the loop
// goroutine or after Run returned.
func (a *App) Engine() *action.Engine {
	return a.engine
}

// drainControl applies pending control messages. Called by the loop only.
func (a *App) drainControl() {
	select {
	case m := <-a.reload:
		a.engine.SetMapping(m)
		a.logger.Info("mapping reloaded", "bindings", a.engine.Mapping().Len())
	default:
	}

	select {
	case enabled := <-a.toggles:
		a.setEnabled(enabled)
	default:
	}
}

func (a *App) setEnabled(enabled bool) {
	if enabled == a.enabled {
		return
	}
	a.enabled = enabled

	if !enabled {
		a.engine.ReleaseAll()
		a.stabilizer.ResetAll()
		a.pointer.Reset()
		a.setConfirmed(gesture.NoMatch)
	}
	a.logger.Info("gesture control toggled", "enabled", enabled)
}

func (a *App) setConfirmed(name string) {
	if name == a.confirmed {
		return
	}
	a.confirmed = name
	if a.onGesture != nil {
		a.onGesture(name)
	}
}
