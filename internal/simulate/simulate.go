// Package simulate implements the battery-state simulator (component
// B): one traversal ("pass") of an agent's wrapped trace under a fixed
// charging plan, emitting activity and en-route charge events.
package simulate

import (
	"fmt"
	"time"

	"github.com/arup-group/batsim/internal/model"
)

// maxTriggersPerPass guards against a pathological plan where no
// en-route charge ever delivers energy (e.g. the lookahead target is
// unreachable and the battery is already at capacity), which would
// otherwise loop forever re-triggering at the same SoC.
const maxTriggersPerPass = 10000

// Infeasible reports that SoC would have gone negative under the
// candidate plan; the optimiser discards such plans.
type Infeasible struct {
	AgentID string
	Detail  string
}

func (e *Infeasible) Error() string {
	return fmt.Sprintf("agent %s infeasible: %s", e.AgentID, e.Detail)
}

// Simulator replays a fixed trace and plan under a fixed set of
// resolved capabilities.
type Simulator struct {
	AgentID string
	Caps    model.Capabilities
	Trace   model.Trace
	Plan    model.ChargingPlan
}

// RunPass traverses the wrapped trace once, starting from startSoCWs,
// and returns the events produced plus the pass fingerprint. passIndex
// only affects the absolute timestamps stamped on emitted events (pass
// 0 uses the trace's own times; pass N offsets every time by N periods).
func (s *Simulator) RunPass(passIndex int, startSoCWs float64) (model.PassResult, error) {
	soc := startSoCWs
	offset := time.Duration(passIndex) * s.Trace.Period
	triggerLevel := s.Caps.TriggerLevelWs()
	capacity := s.Caps.BatteryCapacityWs

	var events []model.ChargeEvent
	triggerBudget := maxTriggersPerPass

	for idx, seg := range s.Trace.Segments {
		switch seg.Kind {
		case model.SegmentActivity:
			if s.Plan.Contains(idx) {
				if rate, ok := s.Caps.HasActivityCharger(seg.Activity.Type); ok && rate > 0 {
					dur := seg.Activity.Duration()
					maxEnergy := rate * dur.Seconds()
					headroom := capacity - soc
					delivered := maxEnergy
					if headroom < delivered {
						delivered = headroom
					}
					if delivered > 0 {
						deliverSeconds := delivered / rate
						start := seg.Activity.Start.Add(offset)
						end := start.Add(time.Duration(deliverSeconds * float64(time.Second)))
						events = append(events, model.ChargeEvent{
							AgentID:           s.AgentID,
							Kind:              model.ChargeActivity,
							Start:             start,
							End:               end,
							DeliveredEnergyWs: delivered,
							LocationKind:      "activity",
							LocationID:        seg.Activity.Location,
							ActivityType:      seg.Activity.Type,
						})
						soc += delivered
					}
				}
			}

		case model.SegmentTrip:
			for li, link := range seg.Trip.Links {
				traveled := 0.0
				for traveled < link.DistanceM {
					if soc <= triggerLevel {
						triggerBudget--
						if triggerBudget <= 0 {
							return model.PassResult{}, &Infeasible{
								AgentID: s.AgentID,
								Detail:  "trigger budget exhausted: en-route charging never made progress",
							}
						}
						frac := 0.0
						if link.DistanceM > 0 {
							frac = traveled / link.DistanceM
						}
						at := interpolate(link.EntryTime, link.ExitTime, frac).Add(offset)

						needed, found := s.lookahead(idx, seg.Trip, li, traveled)
						target := capacity - soc
						if found && needed < target {
							target = needed
						}
						if target < 0 {
							target = 0
						}
						if target > 0 && s.Caps.EnRouteRateW > 0 {
							durSeconds := target / s.Caps.EnRouteRateW
							events = append(events, model.ChargeEvent{
								AgentID:           s.AgentID,
								Kind:              model.ChargeEnRoute,
								Start:             at,
								End:               at.Add(time.Duration(durSeconds * float64(time.Second))),
								DeliveredEnergyWs: target,
								LocationKind:      "link",
								LocationID:        link.LinkID,
							})
							soc += target
						} else if s.Caps.EnRouteRateW <= 0 {
							return model.PassResult{}, &Infeasible{
								AgentID: s.AgentID,
								Detail:  "SoC at or below trigger level but no en-route charger is resolved",
							}
						}
						continue
					}

					remaining := link.DistanceM - traveled
					if s.Caps.ConsumptionWsPerM <= 0 {
						traveled = link.DistanceM
						continue
					}
					energyToTrigger := soc - triggerLevel
					distanceToTrigger := energyToTrigger / s.Caps.ConsumptionWsPerM
					if distanceToTrigger >= remaining {
						soc -= remaining * s.Caps.ConsumptionWsPerM
						traveled = link.DistanceM
					} else {
						soc -= distanceToTrigger * s.Caps.ConsumptionWsPerM
						traveled += distanceToTrigger
					}
					if soc < -1e-6 {
						return model.PassResult{}, &Infeasible{
							AgentID: s.AgentID,
							Detail:  fmt.Sprintf("SoC went negative on link %s", link.LinkID),
						}
					}
				}
			}
		}
	}

	return model.PassResult{
		Fingerprint: model.Fingerprint{PassIndex: passIndex, StartSoC: startSoCWs, EndSoC: soc},
		Events:      events,
	}, nil
}

// lookahead walks forward from the trip at tripIdx (li-th link, already
// traveled metres into it), bounded to one full cycle, summing the
// consumption of remaining trip distance until it reaches an activity
// slot that is both in the plan and has a resolved charger. It returns
// the energy needed to survive to that point and true; if no such slot
// exists within one cycle it returns (0, false), signalling "charge to
// capacity instead".
func (s *Simulator) lookahead(tripIdx int, trip model.Trip, fromLink int, traveledInLink float64) (float64, bool) {
	needed := 0.0
	for li := fromLink; li < len(trip.Links); li++ {
		dist := trip.Links[li].DistanceM
		if li == fromLink {
			dist -= traveledInLink
		}
		if dist > 0 {
			needed += dist * s.Caps.ConsumptionWsPerM
		}
	}

	n := s.Trace.Len()
	for step := 1; step <= n; step++ {
		seg, cycles := s.Trace.At(tripIdx + step)
		if cycles > 1 {
			break
		}
		switch seg.Kind {
		case model.SegmentTrip:
			needed += seg.Trip.DistanceM() * s.Caps.ConsumptionWsPerM
		case model.SegmentActivity:
			slot := (tripIdx + step) % n
			if s.Plan.Contains(slot) {
				if _, ok := s.Caps.HasActivityCharger(seg.Activity.Type); ok {
					return needed, true
				}
			}
		}
	}
	return 0, false
}

func interpolate(start, end time.Time, frac float64) time.Time {
	d := end.Sub(start)
	return start.Add(time.Duration(float64(d) * frac))
}
