// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the landmark model.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// X and Y are normalized to the image size, Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is the ordered landmark list of one hand. Index i always denotes the
// same anatomical landmark, so two poses are only comparable when their
// lengths are equal.
type Pose []Point3D

// HandLandmarks represents one detected hand.
type HandLandmarks struct {
	Pose       Pose    `json:"points"`
	Handedness string  `json:"handedness"` // "Left" or "Right"
	Score      float64 `json:"score"`
}

// Distance calculates the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Clone returns a copy of the pose that does not share its backing array.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	out := make(Pose, len(p))
	copy(out, p)
	return out
}

// Landmark returns the point at index i and whether the pose has it.
func (p Pose) Landmark(i int) (Point3D, bool) {
	if i < 0 || i >= len(p) {
		return Point3D{}, false
	}
	return p[i], true
}
