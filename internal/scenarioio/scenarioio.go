// Package scenarioio loads the YAML scenario document and resolves it
// into an immutable model.Scenario, following the teacher's two-phase
// LoadUnchecked/Load/Validate pattern.
package scenarioio

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/arup-group/batsim/internal/model"
)

// Document is the on-disk YAML shape.
type Document struct {
	Name string `yaml:"name"`

	BatteryGroup  []SpecDoc `yaml:"battery_group"`
	TriggerGroup  []SpecDoc `yaml:"trigger_group"`
	EnRouteGroup  []SpecDoc `yaml:"enroute_group"`
	ActivityGroup []SpecDoc `yaml:"activity_group"`

	Scale     float64 `yaml:"scale"`
	Precision float64 `yaml:"precision"`
	Patience  int     `yaml:"patience"`
	Seed      int64   `yaml:"seed"`
}

// FilterDoc is one attribute constraint.
type FilterDoc struct {
	Key    string   `yaml:"key"`
	Values []string `yaml:"values"`
}

// SpecDoc is one specification entry within a group. P is a pointer so
// an explicit `p: 0` (a specification that never applies) can be told
// apart from an omitted field, which defaults to 1.0.
type SpecDoc struct {
	Name    string      `yaml:"name"`
	Filters []FilterDoc `yaml:"filters"`
	P       *float64    `yaml:"p"`

	BatteryCapacityWs float64 `yaml:"battery_capacity_ws"`
	BatteryInitialWs  float64 `yaml:"battery_initial_ws"`
	ConsumptionWsPerM float64 `yaml:"consumption_ws_per_m"`

	TriggerFraction float64 `yaml:"trigger_fraction"`

	EnRouteRateW float64 `yaml:"enroute_rate_w"`

	ActivityRateW float64  `yaml:"activity_rate_w"`
	ActivityTypes []string `yaml:"activity_types"`
}

// LoadUnchecked reads and unmarshals the scenario document without
// applying defaults or validation. Useful for a dry-run print path.
func LoadUnchecked(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads the scenario document, applies group defaults, validates
// it, and resolves it into a model.Scenario.
func Load(path string) (*model.Scenario, error) {
	doc, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	applyDefaults(doc)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return Resolve(doc), nil
}

func applyDefaults(doc *Document) {
	if doc.Scale == 0 {
		doc.Scale = model.DefaultScale
	}
	if doc.Precision == 0 {
		doc.Precision = model.DefaultPrecision
	}
	if doc.Patience == 0 {
		doc.Patience = model.DefaultPatience
	}
	if len(doc.TriggerGroup) == 0 {
		doc.TriggerGroup = []SpecDoc{{Name: "default", TriggerFraction: model.DefaultTriggerFraction, P: defaultP()}}
	}
	for i := range doc.BatteryGroup {
		if doc.BatteryGroup[i].P == nil {
			doc.BatteryGroup[i].P = defaultP()
		}
	}
	for i := range doc.TriggerGroup {
		if doc.TriggerGroup[i].P == nil {
			doc.TriggerGroup[i].P = defaultP()
		}
	}
	for i := range doc.EnRouteGroup {
		if doc.EnRouteGroup[i].P == nil {
			doc.EnRouteGroup[i].P = defaultP()
		}
	}
	for i := range doc.ActivityGroup {
		if doc.ActivityGroup[i].P == nil {
			doc.ActivityGroup[i].P = defaultP()
		}
	}
}

func defaultP() *float64 {
	p := 1.0
	return &p
}

// Validate range-checks every payload, returning a *model.ConfigError
// on the first violation.
func Validate(doc *Document) error {
	if len(doc.BatteryGroup) == 0 {
		return &model.ConfigError{Field: "battery_group", Msg: "at least one specification is required"}
	}
	for i, s := range doc.BatteryGroup {
		if s.BatteryCapacityWs <= 0 {
			return &model.ConfigError{Field: fieldIdx("battery_group", i, "battery_capacity_ws"), Msg: "must be > 0"}
		}
		if s.BatteryInitialWs < 0 || s.BatteryInitialWs > s.BatteryCapacityWs {
			return &model.ConfigError{Field: fieldIdx("battery_group", i, "battery_initial_ws"), Msg: "must be within [0, capacity]"}
		}
		if s.ConsumptionWsPerM < 0 {
			return &model.ConfigError{Field: fieldIdx("battery_group", i, "consumption_ws_per_m"), Msg: "must be >= 0"}
		}
		if err := validateP(s.P, "battery_group", i); err != nil {
			return err
		}
	}
	for i, s := range doc.TriggerGroup {
		if s.TriggerFraction < 0 || s.TriggerFraction > 1 {
			return &model.ConfigError{Field: fieldIdx("trigger_group", i, "trigger_fraction"), Msg: "must be in [0,1]"}
		}
		if err := validateP(s.P, "trigger_group", i); err != nil {
			return err
		}
	}
	if len(doc.EnRouteGroup) == 0 {
		return &model.ConfigError{Field: "enroute_group", Msg: "at least one specification is required"}
	}
	for i, s := range doc.EnRouteGroup {
		if s.EnRouteRateW <= 0 {
			return &model.ConfigError{Field: fieldIdx("enroute_group", i, "enroute_rate_w"), Msg: "must be > 0"}
		}
		if err := validateP(s.P, "enroute_group", i); err != nil {
			return err
		}
	}
	for i, s := range doc.ActivityGroup {
		if s.ActivityRateW < 0 {
			return &model.ConfigError{Field: fieldIdx("activity_group", i, "activity_rate_w"), Msg: "must be >= 0"}
		}
		if len(s.ActivityTypes) == 0 {
			return &model.ConfigError{Field: fieldIdx("activity_group", i, "activity_types"), Msg: "at least one activity type is required"}
		}
		if err := validateP(s.P, "activity_group", i); err != nil {
			return err
		}
	}
	if doc.Patience <= 0 {
		return &model.ConfigError{Field: "patience", Msg: "must be > 0"}
	}
	if doc.Precision < 0 {
		return &model.ConfigError{Field: "precision", Msg: "must be >= 0"}
	}
	return nil
}

func validateP(p *float64, group string, i int) error {
	if p == nil || *p < 0 || *p > 1 {
		return &model.ConfigError{Field: fieldIdx(group, i, "p"), Msg: "must be in [0,1]"}
	}
	return nil
}

func fieldIdx(group string, i int, field string) string {
	return group + "[" + strconv.Itoa(i) + "]." + field
}

// Resolve converts a validated Document into an immutable
// model.Scenario.
func Resolve(doc *Document) *model.Scenario {
	return &model.Scenario{
		Name:          doc.Name,
		BatteryGroup:  convert(doc.BatteryGroup),
		TriggerGroup:  convert(doc.TriggerGroup),
		EnRouteGroup:  convert(doc.EnRouteGroup),
		ActivityGroup: convert(doc.ActivityGroup),
		Scale:         doc.Scale,
		Precision:     doc.Precision,
		Patience:      doc.Patience,
		Seed:          doc.Seed,
	}
}

func convert(specs []SpecDoc) []model.Specification {
	out := make([]model.Specification, len(specs))
	for i, s := range specs {
		filters := make([]model.Filter, len(s.Filters))
		for j, f := range s.Filters {
			filters[j] = model.Filter{Key: f.Key, Values: f.Values}
		}
		p := 1.0
		if s.P != nil {
			p = *s.P
		}
		out[i] = model.Specification{
			Name:              s.Name,
			Filters:           filters,
			P:                 p,
			BatteryCapacityWs: s.BatteryCapacityWs,
			BatteryInitialWs:  s.BatteryInitialWs,
			ConsumptionWsPerM: s.ConsumptionWsPerM,
			TriggerFraction:   s.TriggerFraction,
			EnRouteRateW:      s.EnRouteRateW,
			ActivityRateW:     s.ActivityRateW,
			ActivityTypes:     s.ActivityTypes,
		}
	}
	return out
}
