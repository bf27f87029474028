package model

// Capabilities is the resolved per-agent outcome of the capability
// resolver: a concrete battery, trigger, en-route charger, and a
// per-activity-type map of activity chargers.
type Capabilities struct {
	BatteryCapacityWs float64
	BatteryInitialWs  float64
	ConsumptionWsPerM float64

	TriggerFraction float64
	EnRouteRateW    float64

	// ActivityRatesW maps activity type to charge rate in watts. A
	// type absent from this map has no charger.
	ActivityRatesW map[string]float64

	// AssignedNames records, per group, the name of the specification
	// that determined the final value — used for the dry-run
	// diagnostic artifact. Empty string means the winning
	// specification had no name.
	AssignedNames AssignedNames
}

// AssignedNames is the diagnostic record of which specification (by
// name) won each group during resolution.
type AssignedNames struct {
	Battery  string
	Trigger  string
	EnRoute  string
	Activity map[string]string // activity type -> specification name
}

// TriggerLevelWs is the absolute SoC at which an en-route trigger fires.
func (c Capabilities) TriggerLevelWs() float64 {
	return c.TriggerFraction * c.BatteryCapacityWs
}

// HasActivityCharger reports whether activityType has a resolved
// charger, and its rate if so.
func (c Capabilities) HasActivityCharger(activityType string) (float64, bool) {
	r, ok := c.ActivityRatesW[activityType]
	return r, ok
}

// Ineligible records why an agent could not be simulated at all.
type Ineligible struct {
	AgentID string
	Reason  string
}

func (i *Ineligible) Error() string {
	return "agent " + i.AgentID + " ineligible: " + i.Reason
}
