// Package aggregate implements the aggregator and normaliser
// (component F): it normalises each agent's realised loop to a per-day
// rate, scales by the population factor, and combines per-agent
// results into population totals.
package aggregate

import (
	"sort"

	"github.com/arup-group/batsim/internal/model"
)

// AgentSummary is the per-day-normalised, scaled outcome for one agent.
type AgentSummary struct {
	AgentID          string
	EnergyPerDayWs   float64
	LeakPerDayWs     float64
	LoopPasses       int
	LoopClosed       bool
	EventCounts      map[model.ChargeKind]float64 // per-day rate, scaled
	EnergyByKind     map[model.ChargeKind]float64 // per-day rate, scaled
	ActivityEnergy   map[string]float64           // activity type -> energy/day, scaled
	ActivityEvents   map[string]float64           // activity type -> event count/day, scaled
	Ineligible       bool
	Infeasible       bool
	DiagnosticReason string
}

// ActivityTypeBreakdown is the population-level total for one
// activity type.
type ActivityTypeBreakdown struct {
	ActivityType string
	EnergyWs     float64
	EventCount   float64
}

// PopulationSummary is the full per-scenario aggregate.
type PopulationSummary struct {
	TotalEnergyWs    float64
	TotalLeakWs      float64
	TotalEvents      float64
	EnergyByKind     map[model.ChargeKind]float64
	EventsByKind     map[model.ChargeKind]float64
	ByActivityType   []ActivityTypeBreakdown
	AgentsEligible   int
	AgentsIneligible int
	AgentsInfeasible int
}

// Aggregator accumulates per-agent summaries into a population total.
// Callers add one agent result at a time (the driver serialises calls
// behind a mutex); Finalize must run only after every agent has been
// added.
type Aggregator struct {
	scale  float64
	agents []AgentSummary
}

// New creates an Aggregator that scales every agent's normalised rate
// by scale (the scenario's population scale factor).
func New(scale float64) *Aggregator {
	if scale <= 0 {
		scale = model.DefaultScale
	}
	return &Aggregator{scale: scale}
}

// AddIneligible records an agent excluded by the capability resolver.
func (a *Aggregator) AddIneligible(agentID, reason string) {
	a.agents = append(a.agents, AgentSummary{AgentID: agentID, Ineligible: true, DiagnosticReason: reason})
}

// AddInfeasible records an agent with no feasible charging plan.
func (a *Aggregator) AddInfeasible(agentID, reason string) {
	a.agents = append(a.agents, AgentSummary{AgentID: agentID, Infeasible: true, DiagnosticReason: reason})
}

// Add normalises loop to a per-day rate scaled by a.scale and records
// it against agentID.
func (a *Aggregator) Add(agentID string, loop model.Loop) {
	days := float64(loop.PassCount())
	if days <= 0 {
		days = 1
	}

	byKind := map[model.ChargeKind]float64{}
	counts := map[model.ChargeKind]float64{}
	activityEnergy := map[string]float64{}
	activityEvents := map[string]float64{}
	var total float64

	for _, ev := range loop.Events {
		byKind[ev.Kind] += ev.DeliveredEnergyWs
		counts[ev.Kind]++
		total += ev.DeliveredEnergyWs
		if ev.Kind == model.ChargeActivity {
			activityEnergy[ev.ActivityType] += ev.DeliveredEnergyWs
			activityEvents[ev.ActivityType]++
		}
	}
	// Every accumulated total is a raw sum across the loop's passes;
	// normalise to a per-day rate and scale by the population factor,
	// the same treatment for event counts as for energy.
	for k := range byKind {
		byKind[k] = byKind[k] / days * a.scale
	}
	for k := range counts {
		counts[k] = counts[k] / days * a.scale
	}
	for t := range activityEnergy {
		activityEnergy[t] = activityEnergy[t] / days * a.scale
	}
	for t := range activityEvents {
		activityEvents[t] = activityEvents[t] / days * a.scale
	}

	a.agents = append(a.agents, AgentSummary{
		AgentID:        agentID,
		EnergyPerDayWs: total / days * a.scale,
		LeakPerDayWs:   loop.LeakWs / days, // per-day leak in raw units, unscaled
		LoopPasses:     loop.PassCount(),
		LoopClosed:     loop.Closed,
		EventCounts:    counts,
		EnergyByKind:   byKind,
		ActivityEnergy: activityEnergy,
		ActivityEvents: activityEvents,
	})
}

// Agents returns every recorded per-agent summary.
func (a *Aggregator) Agents() []AgentSummary { return a.agents }

// Finalize sums the recorded agent summaries in a stable order (by
// agent id) to keep floating-point totals reproducible irrespective of
// the order agents were processed in.
func (a *Aggregator) Finalize() PopulationSummary {
	ordered := make([]AgentSummary, len(a.agents))
	copy(ordered, a.agents)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AgentID < ordered[j].AgentID })

	out := PopulationSummary{
		EnergyByKind: map[model.ChargeKind]float64{},
		EventsByKind: map[model.ChargeKind]float64{},
	}
	byType := map[string]*ActivityTypeBreakdown{}
	var typeOrder []string

	for _, s := range ordered {
		switch {
		case s.Ineligible:
			out.AgentsIneligible++
			continue
		case s.Infeasible:
			out.AgentsInfeasible++
			continue
		}
		out.AgentsEligible++
		out.TotalEnergyWs += s.EnergyPerDayWs
		out.TotalLeakWs += s.LeakPerDayWs
		for k, v := range s.EnergyByKind {
			out.EnergyByKind[k] += v
		}
		for k, c := range s.EventCounts {
			out.EventsByKind[k] += c
			out.TotalEvents += c
		}
		for t, e := range s.ActivityEnergy {
			b, ok := byType[t]
			if !ok {
				b = &ActivityTypeBreakdown{ActivityType: t}
				byType[t] = b
				typeOrder = append(typeOrder, t)
			}
			b.EnergyWs += e
			b.EventCount += s.ActivityEvents[t]
		}
	}

	sort.Strings(typeOrder)
	for _, t := range typeOrder {
		out.ByActivityType = append(out.ByActivityType, *byType[t])
	}
	return out
}
