// Package components defines ECS components for the simulation.
package components

import "github.com/mkrogh/shopfloor/vmath"

// Status is an agent's lifecycle state.
type Status uint8

const (
	// Alive agents move and compute steering forces.
	Alive Status = iota
	// Blocked agents are frozen in place. They are skipped as force
	// computation targets but still occupy space for collision purposes.
	Blocked
)

func (s Status) String() string {
	if s == Blocked {
		return "blocked"
	}
	return "alive"
}

// UnitKind classifies what role a unit plays on the floor.
type UnitKind uint8

const (
	KindTransport UnitKind = iota
	KindProducer
)

func (k UnitKind) String() string {
	if k == KindProducer {
		return "producer"
	}
	return "transport"
}

// Position is an agent's world position in millimetres.
type Position struct {
	Vec vmath.Vec2
}

// Velocity is an agent's velocity in millimetres per tick.
type Velocity struct {
	Vec vmath.Vec2
}

// Acceleration is an agent's acceleration in millimetres per tick squared.
type Acceleration struct {
	Vec vmath.Vec2
}

// Body describes an agent's collision extent.
type Body struct {
	Radius    float64    // collision circle radius
	Dimension vmath.Vec2 // physical footprint; Dimension.Len() scales waypoint pop radius
}

// Limits holds an agent's physical limits, both per tick.
type Limits struct {
	MaxSpeed float64
	MaxForce float64
}

// Navigation holds the goal state written by the coordination layer.
// A zero Destination with an empty Path means the agent is idle.
type Navigation struct {
	Destination vmath.Vec2
	Path        []vmath.Vec2 // ordered waypoint queue, front = next target
}

// HasGoal reports whether the agent has anywhere to go.
func (n *Navigation) HasGoal() bool {
	return len(n.Path) > 0 || !n.Destination.IsZero()
}

// Unit identifies an agent and its role.
type Unit struct {
	ID     uint64
	Name   string
	Kind   UnitKind
	Status Status
}
