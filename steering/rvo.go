package steering

import (
	"math"

	"github.com/mkrogh/shopfloor/vmath"
)

// RVOAvoidance is the predictive core of the pipeline: a tangent-based
// reciprocal velocity obstacle formulation with an exponential angular bias
// that breaks head-on deadlocks, plus a spring term that scales repulsion by
// how deep a neighbor sits inside the interaction range.
//
// The right-hand tangent (phi + theta) is a fixed choice; interacting agents
// never negotiate sides. Symmetric encounters therefore resolve
// asymmetrically, which is intended.
type RVOAvoidance struct {
	LookAhead     float64 // neighbor horizon in ticks of MaxSpeed
	BiasGain      float64 // exponent gain of the angular deadlock bias
	SpringGain    float64 // linear tangent spring gain
	PopFactor     float64 // waypoint pop radius as a fraction of Dimension.Len()
	SlowRadius    float64 // arrive deceleration radius
	CancelEpsilon float64 // squared magnitude below which forces cancel to zero
}

func (r *RVOAvoidance) Compute(ctx *Context) vmath.Vec2 {
	self := ctx.Self
	target, ok := r.advanceWaypoints(ctx)
	if !ok {
		return vmath.Zero // nowhere to go
	}

	toTarget := target.Sub(self.Pos)
	distToTarget := toTarget.Len()
	if distToTarget <= distEps {
		return vmath.Zero
	}

	// F1: unit attraction toward the current waypoint.
	attract := toTarget.Scale(1 / distToTarget)
	desiredHeading := attract.Heading()

	// F2: tangent repulsion accumulated over all neighbors in range.
	var parts []contribution
	for _, n := range ctx.Neighbors {
		other := &ctx.Snap.Agents[n.Index]
		combined := self.Radius + other.Radius
		horizon := combined + self.MaxSpeed*r.LookAhead
		if n.Dist >= horizon || n.Dist <= distEps {
			continue
		}

		phi := math.Atan2(n.DY, n.DX)
		theta := math.Asin(vmath.Clamp(combined/n.Dist, -1, 1))

		// Right-hand tangent on the neighbor's expanded safety circle.
		tangentAngle := phi + theta
		tangentDist := math.Sqrt(math.Max(n.Dist*n.Dist-combined*combined, 0))
		tangent := self.Pos.Add(vmath.FromAngle(tangentAngle).Scale(tangentDist))

		thetaA := vmath.WrapAngle(desiredHeading - tangentAngle)
		bias := math.Exp(r.BiasGain * thetaA)
		spring := r.SpringGain * (horizon - tangentDist)

		away := self.Pos.Sub(tangent).Normalize()
		parts = append(parts, contribution{n.Index, away.Scale(bias * spring)})
	}

	sum := attract.Add(sumCanonical(parts))
	if sum.LenSq() <= r.CancelEpsilon {
		return vmath.Zero // attraction and repulsion cancelled
	}

	// Arrive: on the final leg, slow down linearly inside the slow radius.
	targetSpeed := self.MaxSpeed
	if len(ctx.Path) <= 1 && distToTarget < r.SlowRadius {
		targetSpeed = self.MaxSpeed * distToTarget / r.SlowRadius
	}

	steer := sum.Normalize().Scale(targetSpeed).Sub(self.Vel)
	return steer.Limit(self.MaxForce)
}

// advanceWaypoints pops waypoints the agent has reached and returns the
// current target. The final waypoint is never popped; it is the final leg
// and triggers the arrive profile instead. Pops mutate only the context's
// working path; the commit phase applies ctx.Popped to the real agent.
func (r *RVOAvoidance) advanceWaypoints(ctx *Context) (vmath.Vec2, bool) {
	self := ctx.Self
	popRadius := self.Dimension.Len() * r.PopFactor

	for len(ctx.Path) > 1 && ctx.Path[0].Dist(self.Pos) < popRadius {
		ctx.Path = ctx.Path[1:]
		ctx.Popped++
	}

	if len(ctx.Path) > 0 {
		return ctx.Path[0], true
	}
	if !self.Destination.IsZero() {
		return self.Destination, true
	}
	return vmath.Zero, false
}
