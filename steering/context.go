// Package steering implements the composable behaviors that turn a
// read-only view of an agent's neighborhood into a steering force.
// Behaviors hold only tunable constants, never simulation state, so they
// are safe to evaluate from many workers at once.
package steering

import (
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// Context is the ephemeral, per-agent, per-tick view a behavior computes
// from. It is owned exclusively by the tick that created it. Path is the
// agent's working waypoint queue: behaviors may pop consumed waypoints from
// it, and the scheduler reads Popped back into the agent's intent.
type Context struct {
	Snap      *world.Snapshot
	SelfIndex int
	Self      *world.AgentState
	Neighbors []world.Neighbor
	Borders   []world.Border

	Path   []vmath.Vec2
	Popped int
}

// NewContext builds a context for the agent at selfIdx, querying neighbors
// within radius. neighbors is a reusable scratch buffer.
func NewContext(snap *world.Snapshot, selfIdx int, radius float64, neighbors []world.Neighbor) *Context {
	self := &snap.Agents[selfIdx]
	return &Context{
		Snap:      snap,
		SelfIndex: selfIdx,
		Self:      self,
		Neighbors: snap.NeighborsInto(neighbors[:0], selfIdx, radius),
		Borders:   snap.Borders,
		Path:      self.Path,
	}
}

// Behavior turns a navigation context into a steering force. Compute must
// be pure given the context: same context, same force, regardless of the
// order neighbors were enumerated.
type Behavior interface {
	Compute(ctx *Context) vmath.Vec2
}
