package capture

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// Frame is one tick of the landmark source: the captured image, if any, and
// the hands detected in it.
type Frame struct {
	Image     *gocv.Mat
	Hands     []detector.HandLandmarks
	Timestamp time.Time
}

// Close releases the frame image.
func (f *Frame) Close() {
	if f.Image != nil {
		f.Image.Close()
		f.Image = nil
	}
}

// starter is implemented by detectors that can be started eagerly.
type starter interface {
	Start() error
}

// Source reads frames from a camera and runs hand detection on them.
type Source struct {
	camera   Camera
	detector detector.Detector
	mirror   bool
}

// NewSource creates a landmark source. With mirror set, frames are flipped
// horizontally before detection, which gives a selfie view.
func NewSource(camera Camera, det detector.Detector, mirror bool) *Source {
	return &Source{
		camera:   camera,
		detector: det,
		mirror:   mirror,
	}
}

// Open acquires the camera and starts the detector. An error here means the
// landmark source is unavailable.
func (s *Source) Open() error {
	if err := s.camera.Open(); err != nil {
		return err
	}

	if st, ok := s.detector.(starter); ok {
		if err := st.Start(); err != nil {
			s.camera.Close()
			return fmt.Errorf("start detector: %w", err)
		}
	}

	return nil
}

// Next captures one frame and detects hands in it. The caller owns the
// returned frame and must Close it. Errors other than ErrCameraNotOpen
// only affect this tick.
func (s *Source) Next() (Frame, error) {
	mat, err := s.camera.ReadFrame()
	if err != nil {
		return Frame{}, err
	}

	frame := Frame{Image: mat, Timestamp: time.Now()}

	if s.mirror {
		gocv.Flip(*mat, mat, 1)
	}

	hands, err := s.detector.Detect(mat)
	if err != nil {
		frame.Close()
		return Frame{}, fmt.Errorf("detect hands: %w", err)
	}
	frame.Hands = hands

	return frame, nil
}

// Close releases the camera and the detector.
func (s *Source) Close() error {
	return errors.Join(s.camera.Close(), s.detector.Close())
}
