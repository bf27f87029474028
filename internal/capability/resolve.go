// Package capability implements the capability resolver (component A):
// given an agent's attributes and a scenario, it determines the
// concrete battery, trigger, en-route charger, and activity chargers
// the agent will simulate with.
package capability

import (
	"github.com/arup-group/batsim/internal/model"
	"github.com/arup-group/batsim/internal/rng"
)

const (
	groupBattery  = "battery"
	groupTrigger  = "trigger"
	groupEnRoute  = "enroute"
	groupActivity = "activity"
)

// Resolve applies the overwrite-vs-cumulative resolution rules in
// order [battery, trigger, en-route, activity]. It returns an
// Ineligible error if the agent has no battery, trigger, or en-route
// match after resolution.
func Resolve(scn *model.Scenario, agentID string, attrs map[string]string) (model.Capabilities, *model.Ineligible) {
	caps := model.Capabilities{
		ActivityRatesW: map[string]float64{},
		AssignedNames:  model.AssignedNames{Activity: map[string]string{}},
	}

	batteryAssigned := false
	for i, spec := range scn.BatteryGroup {
		if !matches(scn, agentID, groupBattery, i, spec, attrs) {
			continue
		}
		caps.BatteryCapacityWs = spec.BatteryCapacityWs
		caps.BatteryInitialWs = spec.BatteryInitialWs
		caps.ConsumptionWsPerM = spec.ConsumptionWsPerM
		caps.AssignedNames.Battery = spec.Name
		batteryAssigned = true
	}
	if !batteryAssigned {
		return caps, &model.Ineligible{AgentID: agentID, Reason: "no matching battery specification"}
	}

	triggerAssigned := false
	for i, spec := range scn.TriggerGroup {
		if !matches(scn, agentID, groupTrigger, i, spec, attrs) {
			continue
		}
		caps.TriggerFraction = spec.TriggerFraction
		caps.AssignedNames.Trigger = spec.Name
		triggerAssigned = true
	}
	if !triggerAssigned {
		return caps, &model.Ineligible{AgentID: agentID, Reason: "no matching trigger specification"}
	}

	enrouteAssigned := false
	for i, spec := range scn.EnRouteGroup {
		if !matches(scn, agentID, groupEnRoute, i, spec, attrs) {
			continue
		}
		caps.EnRouteRateW = spec.EnRouteRateW
		caps.AssignedNames.EnRoute = spec.Name
		enrouteAssigned = true
	}
	if !enrouteAssigned {
		return caps, &model.Ineligible{AgentID: agentID, Reason: "no matching en-route specification"}
	}

	// Cumulative: every matching specification is attached; on
	// overlap for the same activity type, the later match wins. A
	// failed Bernoulli draw means the specification did not apply,
	// leaving any earlier match for that type untouched.
	for i, spec := range scn.ActivityGroup {
		if !matches(scn, agentID, groupActivity, i, spec, attrs) {
			continue
		}
		for _, t := range spec.ActivityTypes {
			caps.ActivityRatesW[t] = spec.ActivityRateW
			caps.AssignedNames.Activity[t] = spec.Name
		}
	}

	return caps, nil
}

func matches(scn *model.Scenario, agentID, group string, index int, spec model.Specification, attrs map[string]string) bool {
	if !spec.Matches(attrs) {
		return false
	}
	return rng.Bernoulli(scn.Seed, agentID, group, index, spec.P)
}
