package detector

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

const epsilon = 1e-9

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point3D
		want float64
	}{
		{"same point", Point3D{1, 2, 3}, Point3D{1, 2, 3}, 0},
		{"3-4-5 triangle", Point3D{0, 0, 0}, Point3D{3, 4, 0}, 5},
		{"depth only", Point3D{0, 0, 1}, Point3D{0, 0, -1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Distance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestPose_Clone(t *testing.T) {
	original := FistLandmarks().Pose
	clone := original.Clone()

	clone[Wrist].X = 42
	if original[Wrist].X == 42 {
		t.Error("modifying the clone changed the original pose")
	}

	var empty Pose
	if empty.Clone() != nil {
		t.Error("clone of nil pose should be nil")
	}
}

func TestPose_Landmark(t *testing.T) {
	pose := OpenPalmLandmarks().Pose

	if _, ok := pose.Landmark(IndexTip); !ok {
		t.Error("expected index tip to be present")
	}
	if _, ok := pose.Landmark(NumLandmarks); ok {
		t.Error("expected out of range index to be reported missing")
	}
	if _, ok := pose.Landmark(-1); ok {
		t.Error("expected negative index to be reported missing")
	}
}

func TestPresetLandmarks(t *testing.T) {
	presets := map[string]HandLandmarks{
		"fist":      FistLandmarks(),
		"open palm": OpenPalmLandmarks(),
		"pointing":  PointingLandmarks(0.5, 0.5),
	}

	for name, hand := range presets {
		t.Run(name, func(t *testing.T) {
			if len(hand.Pose) != NumLandmarks {
				t.Errorf("expected %d landmarks, got %d", NumLandmarks, len(hand.Pose))
			}
		})
	}

	pointing := PointingLandmarks(0.3, 0.4)
	if pointing.Handedness != HandLeft {
		t.Errorf("expected pointing hand to be %q, got %q", HandLeft, pointing.Handedness)
	}
	if pointing.Pose[IndexTip].Y >= pointing.Pose[ThumbTip].Y {
		t.Error("expected index tip above thumb tip for pointing preset")
	}
}

func TestMockDetector(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	m := NewMockDetector()
	m.SetHands([]HandLandmarks{FistLandmarks()})

	hands, err := m.Detect(&frame)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(hands))
	}

	wantErr := errors.New("boom")
	m.SetError(wantErr)
	if _, err := m.Detect(&frame); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}

	if m.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", m.Calls())
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("hands", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0.3},{"x":0.4,"y":0.5,"z":0.6}],"handedness":"Left","score":0.9}]}` + "\n")
		hands, err := parseResponse(line)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != HandLeft {
			t.Errorf("expected handedness Left, got %q", hands[0].Handedness)
		}
		if len(hands[0].Pose) != 2 {
			t.Fatalf("expected 2 points, got %d", len(hands[0].Pose))
		}
		if hands[0].Pose[1] != (Point3D{X: 0.4, Y: 0.5, Z: 0.6}) {
			t.Errorf("unexpected second point %+v", hands[0].Pose[1])
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"error":"model not loaded"}`)); err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := parseResponse([]byte(`not json`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestNewMediaPipeDetector_ScriptPath(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ScriptPath = filepath.Join(t.TempDir(), "missing.py")
		if _, err := NewMediaPipeDetector(cfg); err == nil {
			t.Error("expected error for missing script")
		}
	})

	t.Run("explicit script", func(t *testing.T) {
		script := filepath.Join(t.TempDir(), scriptName)
		if err := os.WriteFile(script, []byte("print('ok')\n"), 0644); err != nil {
			t.Fatalf("failed to write script: %v", err)
		}

		cfg := DefaultConfig()
		cfg.ScriptPath = script
		d, err := NewMediaPipeDetector(cfg)
		if err != nil {
			t.Fatalf("NewMediaPipeDetector() error = %v", err)
		}
		if err := d.Close(); err != nil {
			t.Errorf("Close() on unstarted detector error = %v", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxHands != 2 {
		t.Errorf("expected MaxHands 2, got %d", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("expected MinConfidence 0.7, got %f", cfg.MinConfidence)
	}
}
