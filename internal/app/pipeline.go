package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// statusSetter is implemented by displays that can show a status line.
type statusSetter interface {
	SetStatus(string)
}

// Run opens the landmark source and runs the detection loop until the
// display asks to quit, ctx is cancelled or the source fails for good:
// the camera is closed or too many ticks in a row fail.
//
// Each tick:
//  1. Apply pending mapping reloads and pause toggles
//  2. Read one frame of landmarks
//  3. Match and stabilize the gesture hand, apply confirmed gestures
//  4. Feed the pointer hand to the pointer driver
//  5. Show the frame
//
// On every exit path held keys are released before the source is closed.
func (a *App) Run(ctx context.Context) error {
	if err := a.source.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	a.logger.Info("detection loop started",
		"gesture_hand", a.gestureHand,
		"pointer_hand", a.pointerHand,
		"templates", len(a.matcher.Templates()),
		"bindings", a.engine.Mapping().Len())

	defer func() {
		if err := a.display.Close(); err != nil {
			a.logger.Warn("close display failed", "error", err)
		}
		if err := a.source.Close(); err != nil {
			a.logger.Warn("close landmark source failed", "error", err)
		}
		a.logger.Info("detection loop stopped")
	}()
	defer a.engine.ReleaseAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		a.drainControl()

		keepRunning, err := a.tick()
		if err != nil {
			return err
		}
		if !keepRunning {
			return nil
		}
	}
}

// tick runs one iteration of the loop. It reports whether the loop should
// continue; a non-nil error is fatal.
func (a *App) tick() (bool, error) {
	frame, err := a.source.Next()
	if err != nil {
		if errors.Is(err, capture.ErrCameraNotOpen) {
			return false, fmt.Errorf("read frame: %w", err)
		}
		a.failures++
		if a.failures >= a.maxFailures {
			return false, fmt.Errorf("read frame: %d consecutive failures: %w", a.failures, err)
		}
		if a.failures == 1 {
			a.logger.Warn("tick failed, retrying", "error", err)
		} else {
			a.logger.Debug("tick skipped", "error", err, "consecutive", a.failures)
		}
		return true, nil
	}
	defer frame.Close()
	a.failures = 0

	if a.enabled {
		a.process(frame.Hands, a.clock())
	}

	if s, ok := a.display.(statusSetter); ok {
		s.SetStatus(a.status())
	}
	return a.display.Show(frame), nil
}

// process routes the detected hands by role. The gesture hand feeds the
// matcher, stabilizer and key engine; the pointer hand feeds the pointer
// driver. A role whose hand is absent confirms nothing and loses its
// pointer baseline.
func (a *App) process(hands []detector.HandLandmarks, now time.Time) {
	gestureHand, hasGesture := findHand(hands, a.gestureHand)
	pointerHand, hasPointer := findHand(hands, a.pointerHand)

	var confirmed []string
	name := gesture.NoMatch
	if hasGesture {
		m := a.matcher.Match(gestureHand.Pose)
		if a.stabilizer.Observe(a.gestureHand, m.Name) {
			confirmed = append(confirmed, m.Name)
			name = m.Name
		}
		a.logger.Debug("gesture matched", "name", m.Name, "score", m.Score, "confirmed", name != gesture.NoMatch)
	}
	a.setConfirmed(name)
	a.engine.Apply(confirmed, now)

	if hasPointer {
		a.pointer.Update(pointerHand.Pose)
	} else {
		a.pointer.Reset()
	}
}

func (a *App) status() string {
	if !a.enabled {
		return "paused"
	}

	var b strings.Builder
	if a.confirmed == gesture.NoMatch {
		b.WriteString("gesture: -")
	} else {
		b.WriteString("gesture: " + a.confirmed)
	}
	if held := a.engine.Held(); len(held) > 0 {
		b.WriteString(" | held: " + strings.Join(held, ","))
	}
	return b.String()
}

// findHand returns the first detected hand with the given handedness.
func findHand(hands []detector.HandLandmarks, role string) (detector.HandLandmarks, bool) {
	for _, h := range hands {
		if strings.EqualFold(h.Handedness, role) {
			return h, true
		}
	}
	return detector.HandLandmarks{}, false
}
