// Package schedule classifies timestamps against the two fixed daily capture
// windows. This is pure domain logic - no I/O, no hidden state.
package schedule

import "time"

// Window identifies which capture window a timestamp falls in.
type Window string

const (
	WindowNone    Window = "none"
	WindowTimeIn  Window = "time_in"
	WindowTimeOut Window = "time_out"
)

// Classification is the result of classifying one timestamp.
type Classification struct {
	Window     Window
	CanCapture bool
}

// Policy maps timestamps to capture windows in the institution's time zone.
// The schedule is a compliance rule, fixed at:
//
//	time-in  07:00:00 through 11:30:00 inclusive
//	time-out 13:00:00 through 16:59:59 inclusive
//
// 11:30:00 is inside the time-in window; 11:30:01 is outside both. The
// boundary is exact, not a rounding artifact.
type Policy struct {
	loc *time.Location
}

// NewPolicy builds a policy for the given institution location.
func NewPolicy(loc *time.Location) *Policy {
	if loc == nil {
		loc = time.Local
	}
	return &Policy{loc: loc}
}

// Location exposes the institution time zone for callers that need to derive
// the local calendar date.
func (p *Policy) Location() *time.Location {
	return p.loc
}

// Classify returns the window containing t and whether capture is allowed.
func (p *Policy) Classify(t time.Time) Classification {
	local := t.In(p.loc)
	h, m, s := local.Clock()
	secs := h*3600 + m*60 + s

	const (
		timeInOpen   = 7 * 3600        // 07:00:00
		timeInClose  = 11*3600 + 30*60 // 11:30:00, inclusive
		timeOutOpen  = 13 * 3600       // 13:00:00
		timeOutClose = 17*3600 - 1     // 16:59:59, inclusive
	)

	switch {
	case secs >= timeInOpen && secs <= timeInClose:
		return Classification{Window: WindowTimeIn, CanCapture: true}
	case secs >= timeOutOpen && secs <= timeOutClose:
		return Classification{Window: WindowTimeOut, CanCapture: true}
	default:
		return Classification{Window: WindowNone, CanCapture: false}
	}
}
