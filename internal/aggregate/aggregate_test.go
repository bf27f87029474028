package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arup-group/batsim/internal/model"
)

func sampleLoop(passCount int, leak float64) model.Loop {
	events := []model.ChargeEvent{
		{AgentID: "a", Kind: model.ChargeActivity, ActivityType: "home", DeliveredEnergyWs: 1000},
		{AgentID: "a", Kind: model.ChargeEnRoute, DeliveredEnergyWs: 2000},
	}
	return model.Loop{StartPass: 0, EndPass: passCount - 1, Events: events, LeakWs: leak, Closed: leak == 0}
}

func TestAddNormalisesByPassCountAndScale(t *testing.T) {
	agg := New(2.0)
	agg.Add("agent-1", sampleLoop(2, 0))

	summaries := agg.Agents()
	got := summaries[0]
	// total 3000 Ws over 2 passes, scaled by 2 -> 3000.
	assert.InDelta(t, 3000.0, got.EnergyPerDayWs, 1e-9)
	assert.InDelta(t, 1000.0, got.EnergyByKind[model.ChargeActivity], 1e-9)
	assert.InDelta(t, 2000.0, got.EnergyByKind[model.ChargeEnRoute], 1e-9)
	assert.InDelta(t, 1000.0, got.ActivityEnergy["home"], 1e-9)
}

func TestAddNormalisesEventCountsByPassCountAndScale(t *testing.T) {
	agg := New(3.0)
	agg.Add("agent-1", sampleLoop(2, 0)) // 2 passes: 1 en-route event, 1 activity event total

	got := agg.Agents()[0]
	assert.InDelta(t, 1.5, got.EventCounts[model.ChargeEnRoute], 1e-9, "1 event over 2 passes, scaled by 3 -> 1.5/day")
	assert.InDelta(t, 1.5, got.EventCounts[model.ChargeActivity], 1e-9)
	assert.InDelta(t, 1.5, got.ActivityEvents["home"], 1e-9, "activity-type event counts must be normalised the same way as energy")
}

func TestFinalizeRollsUpEventCountsAsPerDayRates(t *testing.T) {
	agg := New(1.0)
	agg.Add("agent-1", sampleLoop(2, 0)) // 2 passes, 1 en-route + 1 activity event
	summary := agg.Finalize()

	assert.InDelta(t, 0.5, summary.EventsByKind[model.ChargeEnRoute], 1e-9)
	assert.InDelta(t, 0.5, summary.EventsByKind[model.ChargeActivity], 1e-9)
	assert.InDelta(t, 1.0, summary.TotalEvents, 1e-9)
	breakdown := summary.ByActivityType
	assert.Len(t, breakdown, 1)
	assert.InDelta(t, 0.5, breakdown[0].EventCount, 1e-9)
}

func TestLeakReportedUnscaledAndRaw(t *testing.T) {
	agg := New(5.0)
	agg.Add("agent-1", sampleLoop(3, 12.5))
	assert.InDelta(t, 12.5/3, agg.Agents()[0].LeakPerDayWs, 1e-9, "leak is normalised per day but not scaled by population factor")
}

func TestFinalizeStableOrderIndependentOfInsertionOrder(t *testing.T) {
	aggA := New(1.0)
	aggA.Add("z-agent", sampleLoop(1, 0))
	aggA.Add("a-agent", sampleLoop(1, 0))

	aggB := New(1.0)
	aggB.Add("a-agent", sampleLoop(1, 0))
	aggB.Add("z-agent", sampleLoop(1, 0))

	sumA := aggA.Finalize()
	sumB := aggB.Finalize()
	assert.Equal(t, sumA.TotalEnergyWs, sumB.TotalEnergyWs)
	assert.Equal(t, sumA.AgentsEligible, sumB.AgentsEligible)
}

func TestFinalizeExcludesIneligibleAndInfeasibleFromTotals(t *testing.T) {
	agg := New(1.0)
	agg.AddIneligible("a1", "no battery group match")
	agg.AddInfeasible("a2", "no feasible plan")
	agg.Add("a3", sampleLoop(1, 0))

	summary := agg.Finalize()
	assert.Equal(t, 1, summary.AgentsEligible)
	assert.Equal(t, 1, summary.AgentsIneligible)
	assert.Equal(t, 1, summary.AgentsInfeasible)
	assert.InDelta(t, 3000.0, summary.TotalEnergyWs, 1e-9)
}

func TestFinalizeActivityTypeBreakdownSortedByType(t *testing.T) {
	agg := New(1.0)
	agg.Add("a1", model.Loop{
		StartPass: 0, EndPass: 0, Closed: true,
		Events: []model.ChargeEvent{
			{Kind: model.ChargeActivity, ActivityType: "work", DeliveredEnergyWs: 500},
			{Kind: model.ChargeActivity, ActivityType: "home", DeliveredEnergyWs: 300},
		},
	})
	summary := agg.Finalize()
	breakdown := summary.ByActivityType
	assert.Len(t, breakdown, 2)
	assert.Equal(t, "home", breakdown[0].ActivityType)
	assert.Equal(t, "work", breakdown[1].ActivityType)
}
