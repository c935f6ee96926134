package steering

import (
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/vmath"
)

// Forces is the per-behavior breakdown of one agent's steering output,
// exposed for debug overlays and telemetry.
type Forces struct {
	Border    vmath.Vec2
	Collision vmath.Vec2
	Avoid     vmath.Vec2
	Total     vmath.Vec2
}

// Composite runs all three behaviors and blends them with binary weights:
// a behavior contributes with weight 1.0 if its force is non-zero this tick
// and 0.0 otherwise. This on/off gate is intentional, not a tunable blend;
// smoothing it would change simulated trajectories.
type Composite struct {
	Border    *BorderRepulsion
	Collision *CollisionRepulsion
	Avoid     *RVOAvoidance
}

// NewComposite builds the pipeline from steering config. lookAheadTicks is
// the RVO horizon converted to ticks of MaxSpeed.
func NewComposite(cfg *config.SteeringConfig, lookAheadTicks float64) *Composite {
	return &Composite{
		Border: &BorderRepulsion{
			Radius: cfg.BorderRadius,
			Gain:   cfg.BorderGain,
		},
		Collision: &CollisionRepulsion{
			Gain: cfg.CollisionGain,
		},
		Avoid: &RVOAvoidance{
			LookAhead:     lookAheadTicks,
			BiasGain:      cfg.AngularBiasGain,
			SpringGain:    cfg.SpringGain,
			PopFactor:     cfg.WaypointPopFactor,
			SlowRadius:    cfg.SlowRadius,
			CancelEpsilon: cfg.CancelEpsilon,
		},
	}
}

// QueryRadius returns the neighbor query radius wide enough for every
// behavior's interaction range for the given agent.
func (c *Composite) QueryRadius(maxSpeed, radius float64) float64 {
	horizon := 2*radius + maxSpeed*c.Avoid.LookAhead
	if c.Border.Radius > horizon {
		return c.Border.Radius
	}
	return horizon
}

// Steer runs the full pipeline and returns the gated, clamped force
// breakdown for the context's agent.
func (c *Composite) Steer(ctx *Context) Forces {
	f := Forces{
		Border:    c.Border.Compute(ctx),
		Collision: c.Collision.Compute(ctx),
		Avoid:     c.Avoid.Compute(ctx),
	}

	var sum vmath.Vec2
	for _, part := range []vmath.Vec2{f.Border, f.Collision, f.Avoid} {
		weight := 0.0
		if !part.IsZero() {
			weight = 1.0
		}
		sum = sum.Add(part.Scale(weight))
	}

	f.Total = sum.Limit(ctx.Self.MaxForce)
	return f
}
