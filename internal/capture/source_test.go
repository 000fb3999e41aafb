package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

type startingDetector struct {
	*detector.MockDetector
	startErr error
	started  bool
}

func (d *startingDetector) Start() error {
	d.started = true
	return d.startErr
}

func newTestFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &m
		t.Cleanup(func() { m.Close() })
	}
	return frames
}

func TestSource_Next(t *testing.T) {
	cam := NewMockCamera(newTestFrames(t, 1), true)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})

	src := NewSource(cam, det, true)
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	frame, err := src.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	defer frame.Close()

	if frame.Image == nil || frame.Image.Empty() {
		t.Error("expected a frame image")
	}
	if len(frame.Hands) != 1 || frame.Hands[0].Handedness != detector.HandRight {
		t.Errorf("unexpected hands: %+v", frame.Hands)
	}
	if frame.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if det.Calls() != 1 {
		t.Errorf("expected 1 detect call, got %d", det.Calls())
	}
}

func TestSource_DetectError(t *testing.T) {
	cam := NewMockCamera(newTestFrames(t, 1), true)
	det := detector.NewMockDetector()
	det.SetError(errors.New("bad frame"))

	src := NewSource(cam, det, false)
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); err == nil {
		t.Fatal("expected detect error")
	}
}

func TestSource_NextBeforeOpen(t *testing.T) {
	src := NewSource(NewMockCamera(nil, false), detector.NewMockDetector(), false)

	if _, err := src.Next(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("Next() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestSource_OpenStartsDetector(t *testing.T) {
	cam := NewMockCamera(nil, false)
	det := &startingDetector{MockDetector: detector.NewMockDetector()}

	src := NewSource(cam, det, false)
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !det.started {
		t.Error("expected detector to be started")
	}
	src.Close()
}

func TestSource_OpenFailures(t *testing.T) {
	t.Run("camera", func(t *testing.T) {
		cam := NewMockCamera(nil, false)
		cam.SetOpenError(errors.New("no device"))
		det := &startingDetector{MockDetector: detector.NewMockDetector()}

		if err := NewSource(cam, det, false).Open(); err == nil {
			t.Fatal("expected open error")
		}
		if det.started {
			t.Error("detector should not start without a camera")
		}
	})

	t.Run("detector", func(t *testing.T) {
		cam := NewMockCamera(nil, false)
		det := &startingDetector{
			MockDetector: detector.NewMockDetector(),
			startErr:     errors.New("python missing"),
		}

		if err := NewSource(cam, det, false).Open(); err == nil {
			t.Fatal("expected open error")
		}
		if cam.IsOpen() {
			t.Error("camera should be released when the detector fails to start")
		}
	})
}
