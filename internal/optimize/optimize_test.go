package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arup-group/batsim/internal/model"
)

func day(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

func commuteTrace() model.Trace {
	segs := []model.Segment{
		{Kind: model.SegmentActivity, Activity: model.Activity{
			Type: "home", Location: "home-1", Start: day(18, 0), End: day(23, 59).Add(9 * time.Hour),
		}},
		{Kind: model.SegmentTrip, Trip: model.Trip{Links: []model.LinkTraversal{
			{LinkID: "l1", DistanceM: 10000, EntryTime: day(9, 0), ExitTime: day(9, 30)},
		}}},
		{Kind: model.SegmentActivity, Activity: model.Activity{
			Type: "work", Location: "work-1", Start: day(9, 30), End: day(17, 30),
		}},
		{Kind: model.SegmentTrip, Trip: model.Trip{Links: []model.LinkTraversal{
			{LinkID: "l2", DistanceM: 10000, EntryTime: day(17, 30), ExitTime: day(18, 0)},
		}}},
	}
	return model.Trace{Segments: segs, Period: 24 * time.Hour}
}

func TestOptimisePrefersHomeChargingOverEnRoute(t *testing.T) {
	caps := model.Capabilities{
		BatteryCapacityWs: 20000,
		BatteryInitialWs:  20000,
		ConsumptionWsPerM: 1,
		TriggerFraction:   0.25,
		EnRouteRateW:      10000,
		ActivityRatesW:    map[string]float64{"home": 3000},
	}
	result := Optimise(context.Background(), "a1", caps, commuteTrace(), 1.0, 20)
	require.True(t, result.Feasible)
	assert.Equal(t, 1.0, scoreOf(result.Loop).enRouteCountPerDay, "charging at home leaves one en-route top-up per day, fewer than the en-route-only plan")
}

func TestOptimiseReportsInfeasibleWhenNoChargerAnywhere(t *testing.T) {
	caps := model.Capabilities{
		BatteryCapacityWs: 20000,
		BatteryInitialWs:  5000,
		ConsumptionWsPerM: 1,
		TriggerFraction:   0.25,
		EnRouteRateW:      0,
		ActivityRatesW:    map[string]float64{},
	}
	result := Optimise(context.Background(), "a1", caps, commuteTrace(), 1.0, 5)
	assert.False(t, result.Feasible)
	assert.True(t, result.Diagnostic.Infeasible)
}

func TestScoreLessIsLexicographic(t *testing.T) {
	a := score{enRouteCountPerDay: 1, enRouteDurationPerDay: 100, activityCountPerDay: 0}
	b := score{enRouteCountPerDay: 2, enRouteDurationPerDay: 0, activityCountPerDay: 0}
	assert.True(t, a.less(b), "fewer en-route events always wins regardless of duration")
}
