package model

import "time"

// ChargeKind mirrors the teacher's Action string-enum pattern: a
// small, stable set of values intended for CSV/JSON output.
type ChargeKind string

const (
	ChargeActivity ChargeKind = "ACTIVITY"
	ChargeEnRoute  ChargeKind = "EN_ROUTE"
)

// ChargeEvent is one emitted charge, either at an activity or pinned
// to an en-route trigger crossing.
type ChargeEvent struct {
	AgentID string
	Kind    ChargeKind

	Start, End time.Time

	// DeliveredEnergyWs is the energy added to the battery, in
	// watt-seconds. Always satisfies
	// DeliveredEnergyWs <= rate * (End-Start).Seconds() + precision.
	DeliveredEnergyWs float64

	// LocationKind is "activity" or "link".
	LocationKind string
	LocationID   string

	// ActivityType is set only for Kind == ChargeActivity.
	ActivityType string
}

// Fingerprint is a single pass's identifying SoC sample, used by the
// loop detector.
type Fingerprint struct {
	PassIndex int
	StartSoC  float64
	EndSoC    float64
}

// PassResult is one traversal of the wrapped trace under a fixed plan.
type PassResult struct {
	Fingerprint Fingerprint
	Events      []ChargeEvent
}

// Loop is the realised steady-state (or best-effort) window over a
// stream of passes.
type Loop struct {
	StartPass, EndPass int // inclusive range [StartPass, EndPass]
	Events             []ChargeEvent
	LeakWs             float64
	Closed             bool
}

// PassCount is the number of trace cycles spanned by the loop.
func (l Loop) PassCount() int { return l.EndPass - l.StartPass + 1 }

// ChargingPlan is the subset of activity slot indices (by position in
// the wrapped trace) the agent will attempt to charge at.
type ChargingPlan map[int]bool

// Contains reports whether slot is included in the plan.
func (p ChargingPlan) Contains(slot int) bool { return p[slot] }

// Size returns the number of slots in the plan.
func (p ChargingPlan) Size() int { return len(p) }

// AgentDiagnostic records non-fatal per-agent outcomes (spec §7).
type AgentDiagnostic struct {
	AgentID     string
	Ineligible  bool
	Infeasible  bool
	Reason      string
	LeakWs      float64
	LoopClosed  bool
	LoopPasses  int
}
