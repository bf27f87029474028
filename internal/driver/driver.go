// Package driver orchestrates the per-agent pipeline (component I): a
// bounded worker pool runs the capability resolver and per-agent
// optimiser for every agent, handing winning loops to a single
// aggregation sink.
package driver

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arup-group/batsim/internal/aggregate"
	"github.com/arup-group/batsim/internal/capability"
	"github.com/arup-group/batsim/internal/model"
	"github.com/arup-group/batsim/internal/obslog"
	"github.com/arup-group/batsim/internal/obsmetrics"
	"github.com/arup-group/batsim/internal/optimize"
	"github.com/arup-group/batsim/internal/population"
)

// Driver wires the capability resolver and optimiser across a
// population under a bounded worker pool.
type Driver struct {
	Scenario    *model.Scenario
	Concurrency int
	Log         obslog.Sink
	Metrics     *obsmetrics.Metrics
}

// New builds a Driver. concurrency <= 0 defaults to GOMAXPROCS.
func New(scn *model.Scenario, concurrency int, log obslog.Sink, metrics *obsmetrics.Metrics) *Driver {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = obslog.NewNop()
	}
	return &Driver{Scenario: scn, Concurrency: concurrency, Log: log, Metrics: metrics}
}

// RunResult is the outcome of one population run.
type RunResult struct {
	RunID       string
	Summary     aggregate.PopulationSummary
	Agents      []aggregate.AgentSummary
	Events      []model.ChargeEvent
	Diagnostics []model.AgentDiagnostic
}

// Run resolves and optimises every agent concurrently, then reduces
// the results through a single Aggregator in agent-id order. The
// returned error is non-nil only when ctx is cancelled (or its
// deadline expires) before every agent finished; results accumulated
// up to that point are still returned.
func (d *Driver) Run(ctx context.Context, agents []population.Agent) (RunResult, error) {
	runID := uuid.NewString()
	started := time.Now()

	agg := aggregate.New(d.Scenario.Scale)
	diagnostics := make([]model.AgentDiagnostic, len(agents))
	var events []model.ChargeEvent

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Concurrency)
	var mu sync.Mutex

	for i, agent := range agents {
		i, agent := i, agent
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			caps, ineligible := capability.Resolve(d.Scenario, agent.ID, agent.Attributes)
			if ineligible != nil {
				mu.Lock()
				agg.AddIneligible(agent.ID, ineligible.Reason)
				diagnostics[i] = model.AgentDiagnostic{AgentID: agent.ID, Ineligible: true, Reason: ineligible.Reason}
				if d.Metrics != nil {
					d.Metrics.AgentsIneligible.Inc()
				}
				mu.Unlock()
				return nil
			}

			result := optimize.Optimise(gctx, agent.ID, caps, agent.Trace, d.Scenario.Precision, d.Scenario.Patience)

			mu.Lock()
			defer mu.Unlock()
			if !result.Feasible {
				agg.AddInfeasible(agent.ID, result.Diagnostic.Reason)
				diagnostics[i] = result.Diagnostic
				if d.Metrics != nil {
					d.Metrics.AgentsInfeasible.Inc()
				}
				return nil
			}
			agg.Add(agent.ID, result.Loop)
			diagnostics[i] = result.Diagnostic
			events = append(events, result.Loop.Events...)
			if d.Metrics != nil {
				d.Metrics.AgentsProcessed.Inc()
				for _, ev := range result.Loop.Events {
					d.Metrics.EventsEmitted.WithLabelValues(string(ev.Kind)).Inc()
					d.Metrics.EnergyDeliveredWs.Add(ev.DeliveredEnergyWs)
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	summary := agg.Finalize()
	if d.Metrics != nil {
		d.Metrics.RunDurationSeconds.Observe(time.Since(started).Seconds())
	}
	d.Log.Infof("run %s complete: %d agents eligible, %d ineligible, %d infeasible", runID, summary.AgentsEligible, summary.AgentsIneligible, summary.AgentsInfeasible)

	return RunResult{RunID: runID, Summary: summary, Agents: agg.Agents(), Events: events, Diagnostics: diagnostics}, runErr
}
