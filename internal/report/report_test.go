package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arup-group/batsim/internal/aggregate"
	"github.com/arup-group/batsim/internal/model"
)

func TestWriteEventsCSVRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	events := []model.ChargeEvent{
		{AgentID: "a1", Kind: model.ChargeActivity, Start: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), DeliveredEnergyWs: 1000, LocationKind: "activity", LocationID: "h1", ActivityType: "home"},
	}
	require.NoError(t, WriteEventsCSV(path, events))

	rows := readCSV(t, path)
	require.Len(t, rows, 2) // header + 1 row
	assert.Equal(t, "a1", rows[1][0])
	assert.Equal(t, "ACTIVITY", rows[1][1])
}

func TestWriteAgentSummaryCSVIncludesDiagnostics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.csv")
	agents := []aggregate.AgentSummary{
		{AgentID: "a1", EnergyPerDayWs: 5000, LoopPasses: 3, LoopClosed: true},
		{AgentID: "a2", Ineligible: true, DiagnosticReason: "no battery group match"},
	}
	require.NoError(t, WriteAgentSummaryCSV(path, agents))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "true", rows[2][5]) // ineligible column
	assert.Equal(t, "no battery group match", rows[2][7])
}

func TestWriteScenarioSummaryJSONWritesRunID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.json")
	summary := aggregate.PopulationSummary{TotalEnergyWs: 123}
	require.NoError(t, WriteScenarioSummaryJSON(path, "run-1", summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run-1")
	assert.Contains(t, string(data), "123")
}

func TestFormatActivityMapIsSortedAndDeterministic(t *testing.T) {
	m := map[string]string{"work": "work-charger", "home": "home-charger"}
	assert.Equal(t, "home=home-charger;work=work-charger", formatActivityMap(m))
	assert.Equal(t, "", formatActivityMap(nil))
}

func TestWriteDryRunCSVFormatsIneligibleRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dryrun.csv")
	rows := []DryRunRow{
		{AgentID: "a1", Battery: "default-battery", Activity: map[string]string{"home": "home-charger"}},
		{AgentID: "a2", Reason: "no battery group match"},
	}
	require.NoError(t, WriteDryRunCSV(path, rows))

	got := readCSV(t, path)
	require.Len(t, got, 3)
	assert.Equal(t, "home=home-charger", got[1][4])
	assert.Equal(t, "no battery group match", got[2][5])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
