// Package sim drives the simulation: a fixed-rate tick scheduler that fans
// force computation out to a worker pool over immutable snapshots and
// commits the results back to the world in a single-threaded phase.
package sim

import (
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// integrate advances one agent by one tick of semi-implicit Euler in
// per-tick units. The clamp order is fixed: force to MaxForce, then the
// updated velocity to MaxSpeed, then the position update. Reordering the
// clamps changes trajectories.
func integrate(a *world.AgentState, force vmath.Vec2) (pos, vel, acc vmath.Vec2) {
	acc = force.Limit(a.MaxForce)
	vel = a.Vel.Add(acc).Limit(a.MaxSpeed)
	pos = a.Pos.Add(vel)
	return pos, vel, acc
}
