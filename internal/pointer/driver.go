// Package pointer moves the system pointer with the index fingertip of one hand.
package pointer

import (
	"log/slog"
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/input"
)

// DefaultSwipeThreshold is the minimum per-tick fingertip travel, as a
// fraction of the viewport, that moves the pointer.
const DefaultSwipeThreshold = 0.001

type point struct {
	x, y float64
}

// Driver converts fingertip displacement into relative pointer motion. The
// hand is "pointing" while the index fingertip is above the thumb tip in
// image coordinates. Any tick without pointing clears the baseline so the
// next pointing tick starts fresh instead of jumping.
type Driver struct {
	pointer   input.Pointer
	width     float64
	height    float64
	threshold float64
	prev      *point
	logger    *slog.Logger
}

// NewDriver creates a Driver moving p. The viewport is read from p once.
// A non-positive threshold selects DefaultSwipeThreshold.
func NewDriver(p input.Pointer, threshold float64, logger *slog.Logger) *Driver {
	if threshold <= 0 {
		threshold = DefaultSwipeThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, h := p.ScreenSize()
	return &Driver{
		pointer:   p,
		width:     float64(w),
		height:    float64(h),
		threshold: threshold,
		logger:    logger,
	}
}

// Update processes the pose of the pointer hand for one tick and reports
// whether a move was dispatched.
func (d *Driver) Update(pose detector.Pose) bool {
	tip, ok := pose.Landmark(detector.IndexTip)
	if !ok {
		d.Reset()
		return false
	}
	thumb, _ := pose.Landmark(detector.ThumbTip)

	if tip.Y >= thumb.Y {
		d.Reset()
		return false
	}

	target := point{x: tip.X * d.width, y: tip.Y * d.height}
	prev := d.prev
	d.prev = &target

	if prev == nil {
		return false
	}

	dx := target.x - prev.x
	dy := target.y - prev.y
	if math.Abs(dx) <= d.threshold*d.width && math.Abs(dy) <= d.threshold*d.height {
		return false
	}

	if err := d.pointer.MoveRelative(int(math.Round(dx)), int(math.Round(dy))); err != nil {
		d.logger.Debug("pointer move failed", "error", err)
	}
	return true
}

// Reset clears the baseline. Call it on ticks where the hand is absent.
func (d *Driver) Reset() {
	d.prev = nil
}

// Tracking reports whether a baseline is stored.
func (d *Driver) Tracking() bool {
	return d.prev != nil
}
