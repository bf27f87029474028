// Package population loads the JSON population export consumed by
// batsim — a stand-in for the record stream an upstream transport
// simulator's native output would be transformed into.
package population

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/arup-group/batsim/internal/model"
)

// Document is the top-level population export shape.
type Document struct {
	Agents []AgentRecord `json:"agents"`
}

// AgentRecord is one agent's raw (unwrapped) attributes and trace.
type AgentRecord struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Trace      TraceRecord       `json:"trace"`
}

// TraceRecord is the raw, unwrapped segment sequence.
type TraceRecord struct {
	Segments []SegmentRecord `json:"segments"`
}

// SegmentRecord is one raw segment; Kind selects which of Activity/
// Trip is populated.
type SegmentRecord struct {
	Kind     string          `json:"kind"`
	Activity *ActivityRecord `json:"activity,omitempty"`
	Trip     *TripRecord     `json:"trip,omitempty"`
}

// ActivityRecord mirrors model.Activity with RFC3339 JSON tags, in the
// style of the teacher's time-series structs.
type ActivityRecord struct {
	Type     string    `json:"type"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// TripRecord is an ordered list of link traversals.
type TripRecord struct {
	Links []LinkRecord `json:"links"`
}

// LinkRecord mirrors model.LinkTraversal.
type LinkRecord struct {
	LinkID    string    `json:"link_id"`
	DistanceM float64   `json:"distance_m"`
	EntryTime time.Time `json:"entry_time"`
	ExitTime  time.Time `json:"exit_time"`
}

// Agent is the resolved (id, attributes, wrapped trace) triple ready
// for the driver.
type Agent struct {
	ID         string
	Attributes map[string]string
	Trace      model.Trace
}

// Load reads the population file and converts each record, applying
// the wrapping rule. Load stops at the first malformed record and
// returns a *model.InputError naming the offending agent, with no
// agents (the CLI and HTTP service both treat any InputError as fatal,
// per the error-handling design).
func Load(path string) ([]Agent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	agents := make([]Agent, 0, len(doc.Agents))
	for _, rec := range doc.Agents {
		trace, err := convertTrace(rec)
		if err != nil {
			return nil, err
		}
		agents = append(agents, Agent{ID: rec.ID, Attributes: rec.Attributes, Trace: trace})
	}
	return agents, nil
}

func convertTrace(rec AgentRecord) (model.Trace, error) {
	if len(rec.Trace.Segments) == 0 {
		return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: "trace has no segments"}
	}

	raw := make([]model.Segment, len(rec.Trace.Segments))
	var period time.Duration
	var lastEnd time.Time

	for i, sr := range rec.Trace.Segments {
		switch sr.Kind {
		case "activity":
			if sr.Activity == nil {
				return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: "activity segment missing payload"}
			}
			a := sr.Activity
			if a.End.Before(a.Start) {
				return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: fmt.Sprintf("activity %q has end before start", a.Location)}
			}
			if !lastEnd.IsZero() && a.Start.Before(lastEnd) {
				return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: "segments are not monotone in time"}
			}
			raw[i] = model.Segment{Kind: model.SegmentActivity, Activity: model.Activity{
				Type: a.Type, Location: a.Location, Start: a.Start, End: a.End,
			}}
			period += a.End.Sub(a.Start)
			lastEnd = a.End

		case "trip":
			if sr.Trip == nil {
				return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: "trip segment missing payload"}
			}
			links := make([]model.LinkTraversal, len(sr.Trip.Links))
			for j, lr := range sr.Trip.Links {
				if lr.DistanceM < 0 {
					return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: fmt.Sprintf("link %q has negative distance", lr.LinkID)}
				}
				if lr.ExitTime.Before(lr.EntryTime) {
					return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: fmt.Sprintf("link %q has exit before entry", lr.LinkID)}
				}
				links[j] = model.LinkTraversal{
					LinkID: lr.LinkID, DistanceM: lr.DistanceM,
					EntryTime: lr.EntryTime, ExitTime: lr.ExitTime,
				}
				period += lr.ExitTime.Sub(lr.EntryTime)
				lastEnd = lr.ExitTime
			}
			raw[i] = model.Segment{Kind: model.SegmentTrip, Trip: model.Trip{Links: links}}

		default:
			return model.Trace{}, &model.InputError{AgentID: rec.ID, Msg: fmt.Sprintf("unknown segment kind %q", sr.Kind)}
		}
	}

	wrapped := model.WrapActivities(raw)
	return model.Trace{Segments: wrapped, Period: period}, nil
}
