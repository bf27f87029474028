// Package report writes the per-event, per-agent, per-scenario, and
// capability dry-run artifacts, following the teacher's
// header-plus-row CSV writer style.
package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/arup-group/batsim/internal/aggregate"
	"github.com/arup-group/batsim/internal/model"
)

// WriteEventsCSV writes one row per charge event across every agent's
// realised loop.
func WriteEventsCSV(path string, events []model.ChargeEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"agent_id", "kind", "start_time", "end_time",
		"delivered_energy_watt_seconds", "location_kind", "location_id", "activity_type",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, ev := range events {
		row := []string{
			ev.AgentID,
			string(ev.Kind),
			fmtTime(ev.Start),
			fmtTime(ev.End),
			fmtFloat(ev.DeliveredEnergyWs),
			ev.LocationKind,
			ev.LocationID,
			ev.ActivityType,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteAgentSummaryCSV writes one row per agent with its normalised
// per-day rate and diagnostics.
func WriteAgentSummaryCSV(path string, agents []aggregate.AgentSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"agent_id", "energy_per_day_watt_seconds", "leak_watt_seconds",
		"loop_passes", "loop_closed", "ineligible", "infeasible", "diagnostic_reason",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, a := range agents {
		row := []string{
			a.AgentID,
			fmtFloat(a.EnergyPerDayWs),
			fmtFloat(a.LeakPerDayWs),
			strconv.Itoa(a.LoopPasses),
			strconv.FormatBool(a.LoopClosed),
			strconv.FormatBool(a.Ineligible),
			strconv.FormatBool(a.Infeasible),
			a.DiagnosticReason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteScenarioSummaryJSON writes the population-level aggregate as
// indented JSON.
func WriteScenarioSummaryJSON(path string, runID string, summary aggregate.PopulationSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunID   string                       `json:"run_id"`
		Summary aggregate.PopulationSummary `json:"summary"`
	}{RunID: runID, Summary: summary})
}

// DryRunRow is one agent's capability-resolution outcome.
type DryRunRow struct {
	AgentID  string
	Battery  string
	Trigger  string
	EnRoute  string
	Activity map[string]string
	Reason   string // non-empty when ineligible
}

// WriteDryRunCSV writes the capability dry-run artifact: one row per
// agent naming the specification assigned in each group.
func WriteDryRunCSV(path string, rows []DryRunRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"agent_id", "battery", "trigger", "enroute", "activity_assignments", "ineligible_reason"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{r.AgentID, r.Battery, r.Trigger, r.EnRoute, formatActivityMap(r.Activity), r.Reason}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatActivityMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	out := ""
	for _, t := range types {
		if out != "" {
			out += ";"
		}
		out += t + "=" + m[t]
	}
	return out
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
