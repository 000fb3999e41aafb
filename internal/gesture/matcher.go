// Package gesture provides gesture recognition and matching capabilities.
package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultThreshold is the largest mean landmark distance, in normalized
// image units, still accepted as a match.
const DefaultThreshold = 1.5

// NoMatch is the name reported when no template is close enough.
const NoMatch = ""

// Template represents a recorded gesture used as a matching reference.
type Template struct {
	Name string        // Match key, not required to be unique
	Pose detector.Pose // Landmarks as recorded, no normalization applied
}

// Match represents the outcome of matching one pose against the templates.
type Match struct {
	Name  string  // Template name, or NoMatch
	Score float64 // Mean landmark distance of the best template, +Inf if none was comparable
}

// Matched reports whether the pose was accepted as a gesture.
func (m Match) Matched() bool {
	return m.Name != NoMatch
}

// Matcher is a nearest-neighbour classifier over a fixed template set.
type Matcher struct {
	templates []Template
	threshold float64
}

// NewMatcher creates a Matcher over the given templates. Templates are
// scanned in the given order, so on equal scores the earlier one wins.
// A non-positive threshold selects DefaultThreshold.
func NewMatcher(templates []Template, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	owned := make([]Template, len(templates))
	for i, t := range templates {
		owned[i] = Template{Name: t.Name, Pose: t.Pose.Clone()}
	}

	return &Matcher{
		templates: owned,
		threshold: threshold,
	}
}

// Templates returns a copy of the template list.
func (m *Matcher) Templates() []Template {
	out := make([]Template, len(m.templates))
	copy(out, m.templates)
	return out
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the closest template for the observed pose.
func (m *Matcher) Match(observed detector.Pose) Match {
	best := Match{Name: NoMatch, Score: math.Inf(1)}
	bestName := NoMatch

	for _, t := range m.templates {
		score := Score(observed, t.Pose)
		if score < best.Score {
			best.Score = score
			bestName = t.Name
		}
	}

	if best.Score <= m.threshold {
		best.Name = bestName
	}
	return best
}

// Score returns the mean per-landmark Euclidean distance between two poses.
// Poses of different length, or empty poses, score +Inf.
func Score(observed, template detector.Pose) float64 {
	if len(observed) == 0 || len(observed) != len(template) {
		return math.Inf(1)
	}

	var total float64
	for i := range observed {
		total += detector.Distance(observed[i], template[i])
	}
	return total / float64(len(observed))
}
