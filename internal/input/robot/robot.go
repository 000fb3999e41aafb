// Package robot injects keyboard and pointer events into the desktop session
// with robotgo.
package robot

import (
	"github.com/go-vgo/robotgo"
)

// Dispatcher implements input.Dispatcher on top of robotgo.
type Dispatcher struct {
	width  int
	height int
}

// New creates a Dispatcher and reads the main screen size once.
func New() *Dispatcher {
	w, h := robotgo.GetScreenSize()
	return &Dispatcher{width: w, height: h}
}

func (d *Dispatcher) Press(key string) error {
	return robotgo.KeyTap(key)
}

func (d *Dispatcher) KeyDown(key string) error {
	return robotgo.KeyToggle(key, "down")
}

func (d *Dispatcher) KeyUp(key string) error {
	return robotgo.KeyToggle(key, "up")
}

func (d *Dispatcher) MoveRelative(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

func (d *Dispatcher) ScreenSize() (int, int) {
	return d.width, d.height
}
