package steering

import (
	"sort"

	"github.com/mkrogh/shopfloor/vmath"
)

// CollisionRepulsion computes pairwise spring repulsion from overlapping or
// near-overlapping neighbor circles. A neighbor at or beyond the combined
// radius contributes nothing.
type CollisionRepulsion struct {
	Gain float64
}

func (c *CollisionRepulsion) Compute(ctx *Context) vmath.Vec2 {
	self := ctx.Self

	var parts []contribution
	for _, n := range ctx.Neighbors {
		other := &ctx.Snap.Agents[n.Index]
		combined := self.Radius + other.Radius
		if n.Dist >= combined || n.Dist <= distEps {
			continue
		}
		// Delta points toward the neighbor; repulsion points away,
		// scaled by penetration depth.
		away := vmath.Vec2{X: -n.DX / n.Dist, Y: -n.DY / n.Dist}
		parts = append(parts, contribution{n.Index, away.Scale(c.Gain * (combined - n.Dist))})
	}

	return sumCanonical(parts)
}

// contribution is one neighbor's share of an accumulated force.
type contribution struct {
	index int
	force vmath.Vec2
}

// sumCanonical sums contributions in snapshot-index order. Float addition
// is not associative, so summing in enumeration order would leak the
// neighbor query's iteration order into the result; sorting first keeps the
// output bit-for-bit identical for a fixed snapshot.
func sumCanonical(parts []contribution) vmath.Vec2 {
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })
	var sum vmath.Vec2
	for _, p := range parts {
		sum = sum.Add(p.force)
	}
	return sum
}
