package gesture

import "fmt"

// Stabilizer defaults.
const (
	// DefaultHistorySize is the number of recent match results kept per hand.
	DefaultHistorySize = 10
	// DefaultConfirmThreshold is how many of those results must agree.
	DefaultConfirmThreshold = 7
)

// Stabilizer suppresses per-frame misclassifications. It keeps, per hand
// role, the last N match results and confirms a gesture while it appears at
// least K times among them. Confirmation is level-triggered: it is
// re-evaluated on every observation.
type Stabilizer struct {
	size      int
	threshold int
	histories map[string]*history
}

// NewStabilizer creates a Stabilizer keeping size results per role and
// requiring threshold agreeing results. Requires 1 <= threshold <= size.
func NewStabilizer(size, threshold int) (*Stabilizer, error) {
	if size < 1 {
		return nil, fmt.Errorf("history size must be positive, got %d", size)
	}
	if threshold < 1 || threshold > size {
		return nil, fmt.Errorf("confirm threshold must be between 1 and %d, got %d", size, threshold)
	}

	return &Stabilizer{
		size:      size,
		threshold: threshold,
		histories: make(map[string]*history),
	}, nil
}

// Observe records the match result for a hand role and reports whether that
// result is confirmed. NoMatch is recorded but never confirmed.
func (s *Stabilizer) Observe(role, name string) bool {
	h, ok := s.histories[role]
	if !ok {
		h = newHistory(s.size)
		s.histories[role] = h
	}

	h.push(name)

	if name == NoMatch {
		return false
	}
	return h.counts[name] >= s.threshold
}

// Count returns how many times name appears in the role's history.
func (s *Stabilizer) Count(role, name string) int {
	h, ok := s.histories[role]
	if !ok {
		return 0
	}
	return h.counts[name]
}

// Reset forgets the history of one role.
func (s *Stabilizer) Reset(role string) {
	delete(s.histories, role)
}

// ResetAll forgets every role's history.
func (s *Stabilizer) ResetAll() {
	s.histories = make(map[string]*history)
}

// history is a fixed-capacity ring buffer of match results with a running
// count per name, so the agreement check is O(1).
type history struct {
	buf    []string
	next   int
	full   bool
	counts map[string]int
}

func newHistory(size int) *history {
	return &history{
		buf:    make([]string, size),
		counts: make(map[string]int),
	}
}

func (h *history) push(name string) {
	if h.full {
		evicted := h.buf[h.next]
		h.counts[evicted]--
		if h.counts[evicted] == 0 {
			delete(h.counts, evicted)
		}
	}

	h.buf[h.next] = name
	h.counts[name]++

	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

func (h *history) len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}
