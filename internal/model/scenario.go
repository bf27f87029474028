package model

// Filter is a single attribute constraint a specification may carry.
// A specification matches an agent only when every one of its filters
// matches (AND semantics).
type Filter struct {
	Key    string
	Values []string
}

// Matches reports whether the agent's attribute value for f.Key is one
// of f.Values. A missing attribute never matches.
func (f Filter) Matches(attrs map[string]string) bool {
	v, ok := attrs[f.Key]
	if !ok {
		return false
	}
	for _, want := range f.Values {
		if v == want {
			return true
		}
	}
	return false
}

// Specification is one parameterised, filtered, optionally
// probabilistic assignment rule within a scenario group.
type Specification struct {
	Name    string
	Filters []Filter
	P       float64 // Bernoulli probability, default 1.0

	// Payload: only the fields relevant to the owning group are set.
	BatteryCapacityWs float64 // battery group
	BatteryInitialWs  float64 // battery group
	ConsumptionWsPerM float64 // battery group: energy per metre travelled

	TriggerFraction float64 // trigger group, in [0,1]

	EnRouteRateW float64 // en-route group, watts

	ActivityRateW     float64  // activity group, watts
	ActivityTypes     []string // activity group: which activity types this spec covers
}

// Matches reports whether every filter matches the agent's attributes.
// It does not perform the probabilistic draw; callers combine Matches
// with a separate Bernoulli draw keyed on the agent/spec identity.
func (s Specification) Matches(attrs map[string]string) bool {
	for _, f := range s.Filters {
		if !f.Matches(attrs) {
			return false
		}
	}
	return true
}

// Scenario is the immutable, shared-read-only bundle of specification
// groups and run-wide scalars.
type Scenario struct {
	Name string

	BatteryGroup  []Specification
	TriggerGroup  []Specification
	EnRouteGroup  []Specification
	ActivityGroup []Specification

	Scale     float64
	Precision float64 // watt-seconds tolerance for loop closure
	Patience  int     // max passes before the leak-minimising fallback
	Seed      int64
}

// DefaultTriggerFraction is used when a scenario omits the trigger
// group entirely.
const DefaultTriggerFraction = 0.2

// DefaultPrecision and DefaultPatience back scenarios that omit them.
const (
	DefaultPrecision = 1.0
	DefaultPatience  = 100
	DefaultScale     = 1.0
)
