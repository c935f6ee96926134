package steering

import (
	"math"
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

func testComposite() *Composite {
	return &Composite{
		Border:    &BorderRepulsion{Radius: 600, Gain: 12},
		Collision: &CollisionRepulsion{Gain: 0.8},
		Avoid:     testAvoid(),
	}
}

func TestBorderRepulsionRange(t *testing.T) {
	b := &BorderRepulsion{Radius: 600, Gain: 12}
	border := world.Border{A: vmath.Vec2{X: 0, Y: 0}, B: vmath.Vec2{X: 0, Y: 5000}}

	tests := []struct {
		name     string
		pos      vmath.Vec2
		wantZero bool
		wantDir  vmath.Vec2
	}{
		{"well inside range", vmath.Vec2{X: 100, Y: 2000}, false, vmath.Vec2{X: 1}},
		{"just inside range", vmath.Vec2{X: 599, Y: 2000}, false, vmath.Vec2{X: 1}},
		{"at range boundary", vmath.Vec2{X: 600, Y: 2000}, true, vmath.Zero},
		{"beyond range", vmath.Vec2{X: 5000, Y: 2000}, true, vmath.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := agent(tt.pos)
			snap := world.NewSnapshot(0, []world.AgentState{a}, []world.Border{border}, nil, testW, testH, testCell)
			ctx := contextFor(snap, 0, 500)

			force := b.Compute(ctx)
			if tt.wantZero {
				if !force.IsZero() {
					t.Errorf("force = %v, want zero", force)
				}
				return
			}
			if force.IsZero() {
				t.Fatal("expected repulsion, got zero")
			}
			if d := force.Normalize().Dist(tt.wantDir); d > 1e-9 {
				t.Errorf("force direction = %v, want %v", force.Normalize(), tt.wantDir)
			}
		})
	}
}

func TestCollisionRepulsionRange(t *testing.T) {
	c := &CollisionRepulsion{Gain: 0.8}

	self := agent(vmath.Vec2{X: 1000, Y: 1000})

	tests := []struct {
		name     string
		otherX   float64
		wantZero bool
	}{
		{"overlapping", 1015, false},      // dist 15 < combined 20
		{"touching", 1020, true},          // dist == combined: contributes nothing
		{"near but separate", 1030, true}, // dist 30 > combined
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := agent(vmath.Vec2{X: tt.otherX, Y: 1000})
			snap := snapshotOf(self, other)
			force := c.Compute(contextFor(snap, 0, 500))

			if tt.wantZero != force.IsZero() {
				t.Errorf("force = %v, wantZero = %v", force, tt.wantZero)
			}
			if !tt.wantZero && force.X >= 0 {
				t.Errorf("repulsion should point away from neighbor (-x), got %v", force)
			}
		})
	}
}

func TestCompositeBinaryGating(t *testing.T) {
	comp := testComposite()

	// Agent alone in the middle of the floor with a destination: only the
	// avoidance behavior fires; border and collision forces are zero and
	// must not perturb the sum.
	a := agent(vmath.Vec2{X: 10000, Y: 6000})
	a.Destination = vmath.Vec2{X: 12000, Y: 6000}

	snap := snapshotOf(a)
	ctx := contextFor(snap, 0, comp.QueryRadius(a.MaxSpeed, a.Radius))
	forces := comp.Steer(ctx)

	if !forces.Border.IsZero() {
		t.Errorf("border force = %v, want zero", forces.Border)
	}
	if !forces.Collision.IsZero() {
		t.Errorf("collision force = %v, want zero", forces.Collision)
	}
	if forces.Avoid.IsZero() {
		t.Fatal("avoid force should be non-zero with a destination set")
	}
	if forces.Total != forces.Avoid.Limit(a.MaxForce) {
		t.Errorf("total = %v, want gated sum %v", forces.Total, forces.Avoid.Limit(a.MaxForce))
	}
}

func TestCompositeClampsToMaxForce(t *testing.T) {
	comp := testComposite()

	// Overlapping neighbor plus a destination produce a large raw sum.
	a := agent(vmath.Vec2{X: 10000, Y: 6000})
	a.Destination = vmath.Vec2{X: 12000, Y: 6000}
	other := agent(vmath.Vec2{X: 10012, Y: 6000})

	snap := snapshotOf(a, other)
	ctx := contextFor(snap, 0, comp.QueryRadius(a.MaxSpeed, a.Radius))
	forces := comp.Steer(ctx)

	if forces.Total.Len() > a.MaxForce+1e-9 {
		t.Errorf("|total| = %v exceeds max force %v", forces.Total.Len(), a.MaxForce)
	}
}

func TestCompositeScenarioTowardDestination(t *testing.T) {
	// Agent at origin-ish, destination 100mm along +x, no neighbors,
	// MaxSpeed=5, MaxForce=1: force points at (1, 0) with magnitude <= 1.
	comp := testComposite()

	a := agent(vmath.Vec2{X: 5000, Y: 5000})
	a.Destination = vmath.Vec2{X: 5100, Y: 5000}

	snap := snapshotOf(a)
	ctx := contextFor(snap, 0, comp.QueryRadius(a.MaxSpeed, a.Radius))
	forces := comp.Steer(ctx)

	dir := forces.Total.Normalize()
	if math.Abs(dir.X-1) > 1e-9 || math.Abs(dir.Y) > 1e-9 {
		t.Errorf("direction = %v, want (1, 0)", dir)
	}
	if forces.Total.Len() > 1+1e-9 {
		t.Errorf("|force| = %v, want <= 1", forces.Total.Len())
	}
}
