// Package blueprint loads the floor layout: initial agents, producer
// stations, and forbidden zones, from a YAML file. The blueprint only
// describes the starting state; everything dynamic lives in the world.
package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkrogh/shopfloor/components"
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// AgentDef is one agent's initial state. Zero-valued physical fields fall
// back to the configured agent defaults.
type AgentDef struct {
	Name      string       `yaml:"name"`
	Kind      string       `yaml:"kind"` // "transport" or "producer"
	Pos       vmath.Vec2   `yaml:"pos"`
	Radius    float64      `yaml:"radius"`
	Dimension vmath.Vec2   `yaml:"dimension"`
	MaxSpeed  float64      `yaml:"max_speed"`
	MaxForce  float64      `yaml:"max_force"`
	Path      []vmath.Vec2 `yaml:"path"`
}

// StationDef is a fixed production point emitting transport orders.
type StationDef struct {
	Name        string     `yaml:"name"`
	Pos         vmath.Vec2 `yaml:"pos"`
	Dropoff     vmath.Vec2 `yaml:"dropoff"`
	PeriodTicks int        `yaml:"period_ticks"` // 0 means the configured default
}

// ZoneDef is a forbidden polygon on the floor.
type ZoneDef struct {
	Name    string       `yaml:"name"`
	Polygon []vmath.Vec2 `yaml:"polygon"`
}

// Blueprint is the deserialized floor layout.
type Blueprint struct {
	Agents   []AgentDef   `yaml:"agents"`
	Stations []StationDef `yaml:"stations"`
	Zones    []ZoneDef    `yaml:"zones"`
}

// Load reads and validates a blueprint file.
func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blueprint: %w", err)
	}

	bp := &Blueprint{}
	if err := yaml.Unmarshal(data, bp); err != nil {
		return nil, fmt.Errorf("parsing blueprint: %w", err)
	}

	if err := bp.validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

func (bp *Blueprint) validate() error {
	seen := make(map[string]bool, len(bp.Agents))
	for i, a := range bp.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent %d: missing name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agent %q: duplicate name", a.Name)
		}
		seen[a.Name] = true
		if a.Kind != "" && a.Kind != "transport" && a.Kind != "producer" {
			return fmt.Errorf("agent %q: unknown kind %q", a.Name, a.Kind)
		}
	}
	for i, s := range bp.Stations {
		if s.Name == "" {
			return fmt.Errorf("station %d: missing name", i)
		}
		if s.PeriodTicks < 0 {
			return fmt.Errorf("station %q: negative period", s.Name)
		}
	}
	return nil
}

// BuildZones converts zone definitions into validated world zones.
func (bp *Blueprint) BuildZones() ([]world.Zone, error) {
	zones := make([]world.Zone, 0, len(bp.Zones))
	for _, z := range bp.Zones {
		zone, err := world.NewZone(z.Name, z.Polygon)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

// Spec turns an agent definition into an admission spec, filling unset
// physical fields from the configured defaults.
func (a *AgentDef) Spec(defaults *config.AgentConfig) world.AgentSpec {
	spec := world.AgentSpec{
		Name:      a.Name,
		Kind:      parseKind(a.Kind),
		Pos:       a.Pos,
		Radius:    a.Radius,
		Dimension: a.Dimension,
		MaxSpeed:  a.MaxSpeed,
		MaxForce:  a.MaxForce,
		Path:      a.Path,
	}
	if spec.Radius == 0 {
		spec.Radius = defaults.Radius
	}
	if spec.Dimension.IsZero() {
		spec.Dimension = vmath.Vec2{X: defaults.DimensionX, Y: defaults.DimensionY}
	}
	if spec.MaxSpeed == 0 {
		spec.MaxSpeed = defaults.MaxSpeed
	}
	if spec.MaxForce == 0 {
		spec.MaxForce = defaults.MaxForce
	}
	return spec
}

func parseKind(kind string) components.UnitKind {
	if kind == "producer" {
		return components.KindProducer
	}
	return components.KindTransport
}
