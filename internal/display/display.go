// Package display shows the annotated camera feed.
package display

import (
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// QuitKey closes the preview window.
const QuitKey = 'q'

// Display presents one frame per tick.
type Display interface {
	// Show presents the frame and reports whether the loop should keep
	// running.
	Show(frame capture.Frame) bool
	Close() error
}

var (
	gestureColor = color.RGBA{G: 255, A: 255}
	pointerColor = color.RGBA{B: 255, R: 255, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Window renders frames in an OpenCV HighGUI window. It must be used from
// the main thread on platforms that require it.
type Window struct {
	window      *gocv.Window
	pointerHand string
	status      string
}

// NewWindow opens a preview window with the given title. Landmarks of the
// pointer hand are drawn in a different color.
func NewWindow(title, pointerHand string) *Window {
	return &Window{
		window:      gocv.NewWindow(title),
		pointerHand: pointerHand,
	}
}

// SetStatus sets the text drawn in the top-left corner.
func (w *Window) SetStatus(s string) {
	w.status = s
}

// Show draws the frame and reports false once the quit key was pressed or
// the window was closed.
func (w *Window) Show(frame capture.Frame) bool {
	if frame.Image != nil && !frame.Image.Empty() {
		annotate(frame.Image, frame.Hands, w.pointerHand)
		if w.status != "" {
			gocv.PutText(frame.Image, w.status, image.Pt(10, 30),
				gocv.FontHersheySimplex, 0.8, textColor, 2)
		}
		w.window.IMShow(*frame.Image)
	}

	if w.window.WaitKey(1) == QuitKey {
		return false
	}
	return w.window.IsOpen()
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

func annotate(img *gocv.Mat, hands []detector.HandLandmarks, pointerHand string) {
	cols, rows := float64(img.Cols()), float64(img.Rows())
	for _, hand := range hands {
		c := gestureColor
		if strings.EqualFold(hand.Handedness, pointerHand) {
			c = pointerColor
		}
		for _, p := range hand.Pose {
			pt := image.Pt(int(p.X*cols), int(p.Y*rows))
			gocv.Circle(img, pt, 4, c, -1)
		}
	}
}

var (
	_ Display = (*Window)(nil)
	_ Display = Headless{}
)

// Headless discards frames. It never asks the loop to stop.
type Headless struct{}

func (Headless) Show(capture.Frame) bool { return true }

func (Headless) Close() error { return nil }
