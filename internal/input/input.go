// Package input defines the keyboard and pointer sinks that gesture actions
// are dispatched to.
package input

import (
	"log/slog"
)

// Keyboard receives key actions. Key names follow the robotgo/pyautogui
// vocabulary ("a", "space", "enter", "left", ...).
type Keyboard interface {
	// Press taps the key once (down then up).
	Press(key string) error
	// KeyDown presses the key and leaves it held.
	KeyDown(key string) error
	// KeyUp releases a held key.
	KeyUp(key string) error
}

// Pointer receives relative pointer motion.
type Pointer interface {
	MoveRelative(dx, dy int) error
	// ScreenSize returns the viewport size in pixels.
	ScreenSize() (width, height int)
}

// Dispatcher is a combined keyboard and pointer sink.
type Dispatcher interface {
	Keyboard
	Pointer
}

// Default viewport used by sinks that cannot query the screen.
const (
	DefaultScreenWidth  = 1920
	DefaultScreenHeight = 1080
)

// LogDispatcher logs every action instead of injecting it. Useful for dry
// runs and for platforms without an input backend.
type LogDispatcher struct {
	logger *slog.Logger
	width  int
	height int
}

// NewLogDispatcher creates a LogDispatcher reporting the default viewport.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{
		logger: logger,
		width:  DefaultScreenWidth,
		height: DefaultScreenHeight,
	}
}

func (d *LogDispatcher) Press(key string) error {
	d.logger.Info("dry run press", "key", key)
	return nil
}

func (d *LogDispatcher) KeyDown(key string) error {
	d.logger.Info("dry run key down", "key", key)
	return nil
}

func (d *LogDispatcher) KeyUp(key string) error {
	d.logger.Info("dry run key up", "key", key)
	return nil
}

func (d *LogDispatcher) MoveRelative(dx, dy int) error {
	d.logger.Debug("dry run move", "dx", dx, "dy", dy)
	return nil
}

func (d *LogDispatcher) ScreenSize() (int, int) {
	return d.width, d.height
}
