package model

import "time"

// SegmentKind distinguishes the two kinds of trace segment.
type SegmentKind string

const (
	SegmentActivity SegmentKind = "activity"
	SegmentTrip     SegmentKind = "trip"
)

// LinkTraversal is one link crossed during a trip.
type LinkTraversal struct {
	LinkID    string
	DistanceM float64
	EntryTime time.Time
	ExitTime  time.Time
}

// Activity is a segment where the agent stays at a location.
type Activity struct {
	Type       string
	Location   string
	Start, End time.Time
}

// Duration returns the activity's wall-clock span.
func (a Activity) Duration() time.Duration { return a.End.Sub(a.Start) }

// Trip is a segment made of one or more link traversals.
type Trip struct {
	Links []LinkTraversal
}

// DistanceM sums the trip's link distances.
func (t Trip) DistanceM() float64 {
	total := 0.0
	for _, l := range t.Links {
		total += l.DistanceM
	}
	return total
}

// Segment is a tagged union: exactly one of Activity/Trip is set,
// selected by Kind.
type Segment struct {
	Kind     SegmentKind
	Activity Activity
	Trip     Trip
}

// Trace is an agent's wrapped, cyclic activity/trip sequence. Index 0
// is always the start of the repeating cycle.
type Trace struct {
	Segments []Segment
	Period   time.Duration
}

// Len returns the number of segments in one cycle.
func (t Trace) Len() int { return len(t.Segments) }

// At returns the segment at index i, wrapped modulo the trace length.
// It also reports how many full cycles were wrapped over, which
// callers use to bound lookahead to a single cycle.
func (t Trace) At(i int) (Segment, int) {
	n := t.Len()
	cycles := 0
	for i < 0 {
		i += n
		cycles++
	}
	cycles += i / n
	return t.Segments[i%n], cycles
}

// ActivitySlots returns the indices of every Activity segment.
func (t Trace) ActivitySlots() []int {
	var out []int
	for i, seg := range t.Segments {
		if seg.Kind == SegmentActivity {
			out = append(out, i)
		}
	}
	return out
}

// WrapActivities merges a leading and trailing activity segment of the
// same type into a single overnight activity spanning the boundary,
// per the wrapping rule. raw must be non-empty and already ordered.
// Only the segments are returned; the trace period is left to the
// caller to compute.
func WrapActivities(raw []Segment) []Segment {
	if len(raw) < 2 {
		return raw
	}
	first, last := raw[0], raw[len(raw)-1]
	if first.Kind != SegmentActivity || last.Kind != SegmentActivity {
		return raw
	}
	if first.Activity.Type != last.Activity.Type {
		return raw
	}
	// The merged activity starts where the trailing segment started and
	// runs for the combined duration of both halves, so it always spans
	// forward in time even though first.Activity.End, taken as a
	// wall-clock value, nominally precedes last.Activity.Start.
	mergedDuration := last.Activity.Duration() + first.Activity.Duration()
	merged := Activity{
		Type:     first.Activity.Type,
		Location: last.Activity.Location,
		Start:    last.Activity.Start,
		End:      last.Activity.Start.Add(mergedDuration),
	}
	out := make([]Segment, 0, len(raw)-1)
	out = append(out, Segment{Kind: SegmentActivity, Activity: merged})
	out = append(out, raw[1:len(raw)-1]...)
	return out
}
