// Package world owns the authoritative simulation state: agents, static
// borders and forbidden zones, and a spatial index for neighbor queries.
// The environment is single-writer: only the scheduler's commit phase
// mutates it. Workers read immutable snapshots.
package world

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/mkrogh/shopfloor/components"
	"github.com/mkrogh/shopfloor/vmath"
)

// AgentState is a read-only copy of one agent's state at snapshot time.
type AgentState struct {
	Entity ecs.Entity
	ID     uint64
	Name   string
	Kind   components.UnitKind
	Status components.Status

	Pos vmath.Vec2
	Vel vmath.Vec2
	Acc vmath.Vec2

	Radius    float64
	Dimension vmath.Vec2
	MaxSpeed  float64
	MaxForce  float64

	Destination vmath.Vec2
	Path        []vmath.Vec2
}

// HasGoal reports whether the agent has anywhere to go.
func (a *AgentState) HasGoal() bool {
	return len(a.Path) > 0 || !a.Destination.IsZero()
}

// Snapshot is an immutable view of the environment at the start of a tick.
// It is owned by the tick that created it and never persists across ticks.
type Snapshot struct {
	Tick    uint64
	Agents  []AgentState
	Borders []Border
	Zones   []Zone

	index *grid
}

// NeighborsInto appends all agents within radius of the agent at selfIdx,
// reusing dst to avoid allocations. For a fixed snapshot the result set is
// deterministic.
func (s *Snapshot) NeighborsInto(dst []Neighbor, selfIdx int, radius float64) []Neighbor {
	self := &s.Agents[selfIdx]
	return s.index.queryRadiusInto(dst, s.Agents, self.Pos.X, self.Pos.Y, radius, selfIdx)
}

// Intent is one agent's computed next state, applied at commit.
type Intent struct {
	Pos     vmath.Vec2
	Vel     vmath.Vec2
	Acc     vmath.Vec2
	Popped  int  // waypoints consumed from the front of the path this tick
	Arrived bool // destination reached; navigation is cleared on commit
	Faulted bool // computation failed; fallback applied
}

// AgentSpec describes an agent to admit to the environment.
type AgentSpec struct {
	Name      string
	Kind      components.UnitKind
	Pos       vmath.Vec2
	Radius    float64
	Dimension vmath.Vec2
	MaxSpeed  float64
	MaxForce  float64
	Path      []vmath.Vec2
}

// Environment owns the canonical agent set and static floor geometry.
// Exactly one instance exists per running simulation.
type Environment struct {
	world  *ecs.World
	mapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Body,
		components.Limits,
		components.Navigation,
		components.Unit,
	]
	filter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Body,
		components.Limits,
		components.Navigation,
		components.Unit,
	]

	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	accMap  *ecs.Map1[components.Acceleration]
	navMap  *ecs.Map1[components.Navigation]
	unitMap *ecs.Map1[components.Unit]

	width    float64
	height   float64
	cellSize float64

	borders []Border
	zones   []Zone

	byID   map[uint64]ecs.Entity
	nextID uint64
	tick   uint64
}

// NewEnvironment creates an empty environment for a rectangular floor.
// Zone edges are added to the floor walls as repelling borders.
func NewEnvironment(width, height, gridCellSize float64, zones []Zone) *Environment {
	e := &Environment{
		world:    ecs.NewWorld(),
		width:    width,
		height:   height,
		cellSize: gridCellSize,
		zones:    zones,
		byID:     make(map[uint64]ecs.Entity),
		nextID:   1,
	}

	e.mapper = ecs.NewMap7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Body,
		components.Limits,
		components.Navigation,
		components.Unit,
	](e.world)
	e.filter = ecs.NewFilter7[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Body,
		components.Limits,
		components.Navigation,
		components.Unit,
	](e.world)
	e.posMap = ecs.NewMap1[components.Position](e.world)
	e.velMap = ecs.NewMap1[components.Velocity](e.world)
	e.accMap = ecs.NewMap1[components.Acceleration](e.world)
	e.navMap = ecs.NewMap1[components.Navigation](e.world)
	e.unitMap = ecs.NewMap1[components.Unit](e.world)

	e.borders = floorBorders(width, height)
	for _, z := range zones {
		e.borders = append(e.borders, z.Edges()...)
	}

	return e
}

// Tick returns the current tick counter.
func (e *Environment) Tick() uint64 { return e.tick }

// Borders returns the static border segments.
func (e *Environment) Borders() []Border { return e.borders }

// Zones returns the forbidden zones.
func (e *Environment) Zones() []Zone { return e.zones }

// Size returns the floor dimensions.
func (e *Environment) Size() (width, height float64) { return e.width, e.height }

// AddAgent validates and admits an agent. Invalid configurations are
// rejected and the agent is not admitted.
func (e *Environment) AddAgent(spec AgentSpec) (uint64, error) {
	if spec.MaxSpeed <= 0 {
		return 0, fmt.Errorf("agent %q: max speed must be positive, got %g", spec.Name, spec.MaxSpeed)
	}
	if spec.MaxForce <= 0 {
		return 0, fmt.Errorf("agent %q: max force must be positive, got %g", spec.Name, spec.MaxForce)
	}
	if spec.Radius <= 0 {
		return 0, fmt.Errorf("agent %q: radius must be positive, got %g", spec.Name, spec.Radius)
	}
	if !e.inBounds(spec.Pos) {
		return 0, fmt.Errorf("agent %q: position %v outside floor", spec.Name, spec.Pos)
	}
	for _, z := range e.zones {
		if z.Contains(spec.Pos) {
			return 0, fmt.Errorf("agent %q: position %v inside forbidden zone %q", spec.Name, spec.Pos, z.Name)
		}
	}
	for i, wp := range spec.Path {
		if !e.inBounds(wp) || math.IsNaN(wp.X) || math.IsNaN(wp.Y) {
			return 0, fmt.Errorf("agent %q: malformed path, waypoint %d at %v", spec.Name, i, wp)
		}
	}

	id := e.nextID
	e.nextID++

	pos := components.Position{Vec: spec.Pos}
	vel := components.Velocity{}
	acc := components.Acceleration{}
	body := components.Body{Radius: spec.Radius, Dimension: spec.Dimension}
	limits := components.Limits{MaxSpeed: spec.MaxSpeed, MaxForce: spec.MaxForce}
	nav := components.Navigation{}
	if len(spec.Path) > 0 {
		nav.Path = append([]vmath.Vec2(nil), spec.Path...)
		nav.Destination = spec.Path[len(spec.Path)-1]
	}
	unit := components.Unit{ID: id, Name: spec.Name, Kind: spec.Kind, Status: components.Alive}

	entity := e.mapper.NewEntity(&pos, &vel, &acc, &body, &limits, &nav, &unit)
	e.byID[id] = entity

	return id, nil
}

// RemoveAgent removes an agent from the environment.
func (e *Environment) RemoveAgent(id uint64) bool {
	entity, ok := e.byID[id]
	if !ok {
		return false
	}
	e.world.RemoveEntity(entity)
	delete(e.byID, id)
	return true
}

// Count returns the number of admitted agents.
func (e *Environment) Count() int {
	return len(e.byID)
}

// SetNavigation replaces an agent's destination and path. This is the
// coordination layer's write path; the scheduler applies it at a tick
// boundary, never mid-tick.
func (e *Environment) SetNavigation(id uint64, dest vmath.Vec2, path []vmath.Vec2) error {
	entity, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("agent %d: not found", id)
	}
	nav := e.navMap.Get(entity)
	nav.Destination = dest
	nav.Path = append(nav.Path[:0], path...)
	return nil
}

// SetStatus toggles an agent between Alive and Blocked.
func (e *Environment) SetStatus(id uint64, status components.Status) error {
	entity, ok := e.byID[id]
	if !ok {
		return fmt.Errorf("agent %d: not found", id)
	}
	e.unitMap.Get(entity).Status = status
	return nil
}

// Snapshot builds the immutable per-tick view used for parallel force
// computation. Blocked agents are included: they occupy space even though
// they are skipped as computation targets.
func (e *Environment) Snapshot() *Snapshot {
	agents := make([]AgentState, 0, len(e.byID))

	query := e.filter.Query()
	for query.Next() {
		pos, vel, acc, body, limits, nav, unit := query.Get()
		agents = append(agents, AgentState{
			Entity:      query.Entity(),
			ID:          unit.ID,
			Name:        unit.Name,
			Kind:        unit.Kind,
			Status:      unit.Status,
			Pos:         pos.Vec,
			Vel:         vel.Vec,
			Acc:         acc.Vec,
			Radius:      body.Radius,
			Dimension:   body.Dimension,
			MaxSpeed:    limits.MaxSpeed,
			MaxForce:    limits.MaxForce,
			Destination: nav.Destination,
			Path:        append([]vmath.Vec2(nil), nav.Path...),
		})
	}

	return NewSnapshot(e.tick, agents, e.borders, e.zones, e.width, e.height, e.cellSize)
}

// NewSnapshot assembles a snapshot and its spatial index from agent states.
func NewSnapshot(tick uint64, agents []AgentState, borders []Border, zones []Zone, width, height, cellSize float64) *Snapshot {
	snap := &Snapshot{
		Tick:    tick,
		Agents:  agents,
		Borders: borders,
		Zones:   zones,
		index:   newGrid(width, height, cellSize),
	}
	for i := range snap.Agents {
		snap.index.insert(i, snap.Agents[i].Pos.X, snap.Agents[i].Pos.Y)
	}
	return snap
}

// Commit replaces every agent's position, velocity, acceleration, and path
// state in one logical step and increments the tick counter. It is the only
// mutator of dynamic state; intents must align index-for-index with the
// snapshot's agents.
func (e *Environment) Commit(snap *Snapshot, intents []Intent) error {
	if len(intents) != len(snap.Agents) {
		return fmt.Errorf("commit: %d intents for %d agents", len(intents), len(snap.Agents))
	}

	for i := range intents {
		agent := &snap.Agents[i]
		intent := &intents[i]

		if !e.world.Alive(agent.Entity) {
			continue // removed since snapshot
		}
		pos := e.posMap.Get(agent.Entity)
		vel := e.velMap.Get(agent.Entity)
		acc := e.accMap.Get(agent.Entity)
		nav := e.navMap.Get(agent.Entity)

		pos.Vec = intent.Pos
		vel.Vec = intent.Vel
		acc.Vec = intent.Acc

		if intent.Arrived {
			nav.Destination = vmath.Zero
			nav.Path = nav.Path[:0]
		} else if intent.Popped > 0 && intent.Popped <= len(nav.Path) {
			nav.Path = nav.Path[intent.Popped:]
		}
	}

	e.tick++
	return nil
}

func (e *Environment) inBounds(p vmath.Vec2) bool {
	return p.X >= 0 && p.X <= e.width && p.Y >= 0 && p.Y <= e.height
}
