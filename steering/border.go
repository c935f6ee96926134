package steering

import "github.com/mkrogh/shopfloor/vmath"

// BorderRepulsion repels an agent from static borders and forbidden zone
// edges within Radius. Returns the zero vector when no border is in range.
type BorderRepulsion struct {
	Radius float64
	Gain   float64
}

// distEps guards divisions when an agent sits numerically on top of a
// border or neighbor. Contributions below it are skipped, not errored.
const distEps = 1e-9

func (b *BorderRepulsion) Compute(ctx *Context) vmath.Vec2 {
	pos := ctx.Self.Pos

	var force vmath.Vec2
	for _, border := range ctx.Borders {
		closest := border.Closest(pos)
		away := pos.Sub(closest)
		d := away.Len()
		if d >= b.Radius || d <= distEps {
			continue
		}
		force = force.Add(away.Scale(b.Gain * (b.Radius - d) / (b.Radius * d)))
	}

	return force
}
