package input

import "fmt"

// Op names recorded by Recorder.
const (
	OpPress   = "press"
	OpKeyDown = "key_down"
	OpKeyUp   = "key_up"
	OpMove    = "move"
)

// Call is one recorded dispatch.
type Call struct {
	Op  string
	Key string
	DX  int
	DY  int
}

func (c Call) String() string {
	if c.Op == OpMove {
		return fmt.Sprintf("%s(%d,%d)", c.Op, c.DX, c.DY)
	}
	return fmt.Sprintf("%s(%s)", c.Op, c.Key)
}

// Recorder is a Dispatcher that records calls instead of injecting them.
// It allows tests to assert on the exact dispatch sequence.
type Recorder struct {
	Calls  []Call
	Width  int
	Height int
	// Err, when set, is returned from every dispatch after recording it.
	Err error
}

// NewRecorder creates a Recorder reporting the given viewport.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Press(key string) error {
	r.Calls = append(r.Calls, Call{Op: OpPress, Key: key})
	return r.Err
}

func (r *Recorder) KeyDown(key string) error {
	r.Calls = append(r.Calls, Call{Op: OpKeyDown, Key: key})
	return r.Err
}

func (r *Recorder) KeyUp(key string) error {
	r.Calls = append(r.Calls, Call{Op: OpKeyUp, Key: key})
	return r.Err
}

func (r *Recorder) MoveRelative(dx, dy int) error {
	r.Calls = append(r.Calls, Call{Op: OpMove, DX: dx, DY: dy})
	return r.Err
}

func (r *Recorder) ScreenSize() (int, int) {
	return r.Width, r.Height
}

// Count returns how many calls match op and key. An empty key matches any key.
func (r *Recorder) Count(op, key string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op && (key == "" || c.Key == key) {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}
