package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls reports how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// FistLandmarks returns a right hand with every finger curled into the palm.
func FistLandmarks() HandLandmarks {
	pose := make(Pose, NumLandmarks)

	pose[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	pose[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: -0.01}
	pose[ThumbMCP] = Point3D{X: 0.58, Y: 0.71, Z: -0.02}
	pose[ThumbIP] = Point3D{X: 0.56, Y: 0.67, Z: -0.03}
	pose[ThumbTip] = Point3D{X: 0.53, Y: 0.66, Z: -0.04}

	pose[IndexMCP] = Point3D{X: 0.55, Y: 0.66, Z: -0.02}
	pose[IndexPIP] = Point3D{X: 0.55, Y: 0.62, Z: -0.05}
	pose[IndexDIP] = Point3D{X: 0.54, Y: 0.66, Z: -0.05}
	pose[IndexTip] = Point3D{X: 0.54, Y: 0.69, Z: -0.03}

	pose[MiddleMCP] = Point3D{X: 0.50, Y: 0.65, Z: -0.02}
	pose[MiddlePIP] = Point3D{X: 0.50, Y: 0.61, Z: -0.05}
	pose[MiddleDIP] = Point3D{X: 0.50, Y: 0.65, Z: -0.05}
	pose[MiddleTip] = Point3D{X: 0.50, Y: 0.68, Z: -0.03}

	pose[RingMCP] = Point3D{X: 0.46, Y: 0.66, Z: -0.02}
	pose[RingPIP] = Point3D{X: 0.46, Y: 0.62, Z: -0.05}
	pose[RingDIP] = Point3D{X: 0.46, Y: 0.66, Z: -0.05}
	pose[RingTip] = Point3D{X: 0.46, Y: 0.69, Z: -0.03}

	pose[PinkyMCP] = Point3D{X: 0.42, Y: 0.68, Z: -0.02}
	pose[PinkyPIP] = Point3D{X: 0.42, Y: 0.65, Z: -0.04}
	pose[PinkyDIP] = Point3D{X: 0.42, Y: 0.68, Z: -0.04}
	pose[PinkyTip] = Point3D{X: 0.42, Y: 0.70, Z: -0.03}

	return HandLandmarks{Pose: pose, Handedness: HandRight, Score: 0.95}
}

// OpenPalmLandmarks returns a right hand with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	pose := make(Pose, NumLandmarks)

	pose[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	pose[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	pose[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	pose[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	pose[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	pose[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	pose[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	pose[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	pose[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	pose[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	pose[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	pose[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	pose[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	pose[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	pose[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	pose[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	pose[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	pose[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	pose[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	pose[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	pose[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return HandLandmarks{Pose: pose, Handedness: HandRight, Score: 0.95}
}

// PointingLandmarks returns a left hand whose index fingertip sits at (x, y)
// above the thumb tip, which the pointer driver reads as pointing.
func PointingLandmarks(x, y float64) HandLandmarks {
	h := OpenPalmLandmarks()
	h.Handedness = HandLeft
	h.Pose[IndexTip] = Point3D{X: x, Y: y, Z: 0.0}
	h.Pose[ThumbTip] = Point3D{X: x + 0.1, Y: y + 0.2, Z: 0.0}
	return h
}
