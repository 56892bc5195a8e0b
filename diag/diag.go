// Package diag is the structured diagnostics channel for the layout
// pipeline. Optimizers and the overlap resolver publish typed events
// instead of printing; callers subscribe listeners per event type and
// decide presentation themselves. All methods are safe on a nil Sink,
// so library code never has to guard its publishes.
package diag

import "github.com/go-gl/mathgl/mgl64"

type EventType uint8

const (
	BOUNDARY_CONTACT EventType = iota
	RADIUS_CLAMP
	SYMMETRY_DRIFT
	SEGMENT_MERGED
	ITERATION
)

// Event is implemented by every diagnostic event.
type Event interface {
	Type() EventType
}

// BoundaryContactEvent reports that a circle's step pushed it against
// the surface boundary and a counter-force or clamp was applied.
type BoundaryContactEvent struct {
	Circle   int
	Center   mgl64.Vec3
	Distance float64
	Clamped  bool
}

func (e BoundaryContactEvent) Type() EventType { return BOUNDARY_CONTACT }

// RadiusClampEvent reports a radius step truncated by the freedom box.
type RadiusClampEvent struct {
	Circle    int
	Requested float64
	Clamped   float64
}

func (e RadiusClampEvent) Type() EventType { return RADIUS_CLAMP }

// SymmetryDriftEvent reports how far a mirrored pair had drifted from
// exact symmetry before re-averaging.
type SymmetryDriftEvent struct {
	Positive int
	Negative int
	Drift    float64
}

func (e SymmetryDriftEvent) Type() EventType { return SYMMETRY_DRIFT }

// SegmentMergedEvent reports two overlap segments merged into one
// during mousehole resolution.
type SegmentMergedEvent struct {
	Coil     int
	Neighbor int
	Start    int
	End      int
}

func (e SegmentMergedEvent) Type() EventType { return SEGMENT_MERGED }

// IterationEvent reports the objective after one optimizer iteration.
type IterationEvent struct {
	Iteration  int
	Objective  float64
	ClosePairs int
}

func (e IterationEvent) Type() EventType { return ITERATION }

// Listener is a callback for published events.
type Listener func(event Event)

// Sink buffers events and fans them out to subscribed listeners on
// Flush. The session flushes once per iteration so listeners observe
// a consistent snapshot rather than mid-update state.
type Sink struct {
	listeners map[EventType][]Listener
	buffer    []Event
}

func NewSink() *Sink {
	return &Sink{listeners: make(map[EventType][]Listener)}
}

// Subscribe registers a listener for one event type.
func (s *Sink) Subscribe(t EventType, fn Listener) {
	if s == nil {
		return
	}
	s.listeners[t] = append(s.listeners[t], fn)
}

// Publish buffers an event for the next Flush.
func (s *Sink) Publish(e Event) {
	if s == nil {
		return
	}
	s.buffer = append(s.buffer, e)
}

// Flush delivers all buffered events in publish order and empties the
// buffer.
func (s *Sink) Flush() {
	if s == nil {
		return
	}
	for _, e := range s.buffer {
		for _, fn := range s.listeners[e.Type()] {
			fn(e)
		}
	}
	s.buffer = s.buffer[:0]
}
