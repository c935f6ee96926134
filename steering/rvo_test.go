package steering

import (
	"math"
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

const (
	testW    = 20000.0
	testH    = 12000.0
	testCell = 800.0
)

func testAvoid() *RVOAvoidance {
	return &RVOAvoidance{
		LookAhead:     20,
		BiasGain:      0.1,
		SpringGain:    0.1,
		PopFactor:     0.45,
		SlowRadius:    1000,
		CancelEpsilon: 1e-4,
	}
}

func agent(pos vmath.Vec2) world.AgentState {
	return world.AgentState{
		Pos:       pos,
		Radius:    10,
		Dimension: vmath.Vec2{X: 400, Y: 300},
		MaxSpeed:  5,
		MaxForce:  1,
	}
}

func snapshotOf(agents ...world.AgentState) *world.Snapshot {
	return world.NewSnapshot(0, agents, nil, nil, testW, testH, testCell)
}

func contextFor(snap *world.Snapshot, idx int, radius float64) *Context {
	return NewContext(snap, idx, radius, nil)
}

func TestNoDestinationIsNoOp(t *testing.T) {
	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	snap := snapshotOf(a)

	force := testAvoid().Compute(contextFor(snap, 0, 500))
	if !force.IsZero() {
		t.Errorf("agent without destination: force = %v, want zero", force)
	}
}

func TestStandingOnDestinationIsNoOp(t *testing.T) {
	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	a.Destination = a.Pos
	snap := snapshotOf(a)

	force := testAvoid().Compute(contextFor(snap, 0, 500))
	if !force.IsZero() {
		t.Errorf("agent on its destination: force = %v, want zero", force)
	}
}

func TestAttractionTowardDestination(t *testing.T) {
	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	a.Destination = vmath.Vec2{X: 1100, Y: 1000} // 100mm away, +x
	snap := snapshotOf(a)

	force := testAvoid().Compute(contextFor(snap, 0, 500))
	if force.IsZero() {
		t.Fatal("expected non-zero force toward destination")
	}
	dir := force.Normalize()
	if math.Abs(dir.X-1) > 1e-9 || math.Abs(dir.Y) > 1e-9 {
		t.Errorf("force direction = %v, want (1, 0)", dir)
	}
	if force.Len() > a.MaxForce+1e-9 {
		t.Errorf("|force| = %v exceeds max force %v", force.Len(), a.MaxForce)
	}
}

func TestNeighborBeyondHorizonContributesNothing(t *testing.T) {
	b := testAvoid()

	self := agent(vmath.Vec2{X: 1000, Y: 1000})
	self.Destination = vmath.Vec2{X: 5000, Y: 1000}

	// Horizon = combinedRadius + MaxSpeed*LookAhead = 20 + 100 = 120.
	horizon := (self.Radius + 10) + self.MaxSpeed*b.LookAhead

	alone := b.Compute(contextFor(snapshotOf(self), 0, 2000))

	for _, dist := range []float64{horizon, horizon + 1, horizon * 3} {
		other := agent(vmath.Vec2{X: 1000 + dist, Y: 1000})
		withNeighbor := b.Compute(contextFor(snapshotOf(self, other), 0, 2000))
		if withNeighbor != alone {
			t.Errorf("neighbor at distance %v changed force: %v != %v", dist, withNeighbor, alone)
		}
	}

	// Just inside the horizon the neighbor must contribute.
	other := agent(vmath.Vec2{X: 1000 + horizon - 1, Y: 1000})
	withNeighbor := b.Compute(contextFor(snapshotOf(self, other), 0, 2000))
	if withNeighbor == alone {
		t.Error("neighbor just inside horizon contributed nothing")
	}
}

func TestHeadOnBreaksSymmetryLaterally(t *testing.T) {
	b := testAvoid()

	// Two agents 100mm apart on a head-on course, equal radius 10.
	left := agent(vmath.Vec2{X: 950, Y: 1000})
	left.Destination = vmath.Vec2{X: 2000, Y: 1000}
	left.Vel = vmath.Vec2{X: 2}

	right := agent(vmath.Vec2{X: 1050, Y: 1000})
	right.Destination = vmath.Vec2{X: 100, Y: 1000}
	right.Vel = vmath.Vec2{X: -2}

	snap := snapshotOf(left, right)

	fLeft := b.Compute(contextFor(snap, 0, 2000))
	fRight := b.Compute(contextFor(snap, 1, 2000))

	if fLeft.Y == 0 {
		t.Errorf("left agent force %v has no lateral component", fLeft)
	}
	if fRight.Y == 0 {
		t.Errorf("right agent force %v has no lateral component", fRight)
	}
}

func TestWaypointPoppedSameTick(t *testing.T) {
	b := testAvoid()

	// Pop radius = 0.45 * |(400, 300)| = 225.
	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	first := vmath.Vec2{X: 1100, Y: 1000} // 100mm away: inside pop radius
	second := vmath.Vec2{X: 1000, Y: 3000}
	a.Path = []vmath.Vec2{first, second}
	a.Destination = second

	snap := snapshotOf(a)
	ctx := contextFor(snap, 0, 500)
	force := b.Compute(ctx)

	if ctx.Popped != 1 {
		t.Fatalf("popped = %d, want 1", ctx.Popped)
	}
	// Desired direction must point at the second waypoint (+y), not the first.
	dir := force.Normalize()
	if dir.Y <= 0 {
		t.Errorf("force direction = %v, want toward second waypoint (+y)", dir)
	}
	if math.Abs(dir.X) > 1e-9 {
		t.Errorf("force direction = %v, want purely +y", dir)
	}
}

func TestFinalWaypointNeverPops(t *testing.T) {
	b := testAvoid()

	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	last := vmath.Vec2{X: 1050, Y: 1000} // well inside pop radius
	a.Path = []vmath.Vec2{last}
	a.Destination = last

	snap := snapshotOf(a)
	ctx := contextFor(snap, 0, 500)
	b.Compute(ctx)

	if ctx.Popped != 0 {
		t.Errorf("popped = %d, want 0 (final waypoint is never popped)", ctx.Popped)
	}
	if len(ctx.Path) != 1 {
		t.Errorf("path length = %d, want 1", len(ctx.Path))
	}
}

func TestArriveSlowsOnFinalLeg(t *testing.T) {
	b := testAvoid()
	b.SlowRadius = 1000

	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	a.MaxForce = 100 // don't clamp, we're asserting the arrive profile
	a.Destination = vmath.Vec2{X: 1500, Y: 1000}

	snap := snapshotOf(a)
	force := b.Compute(contextFor(snap, 0, 500))

	// dist=500, slow radius 1000 => target speed = MaxSpeed * 0.5.
	want := a.MaxSpeed * 0.5
	if math.Abs(force.Len()-want) > 1e-9 {
		t.Errorf("|force| = %v, want %v (arrive-scaled target speed)", force.Len(), want)
	}
}

func TestFullSpeedOutsideSlowRadius(t *testing.T) {
	b := testAvoid()
	b.SlowRadius = 100

	a := agent(vmath.Vec2{X: 1000, Y: 1000})
	a.MaxForce = 100
	a.Destination = vmath.Vec2{X: 3000, Y: 1000}

	snap := snapshotOf(a)
	force := b.Compute(contextFor(snap, 0, 500))

	if math.Abs(force.Len()-a.MaxSpeed) > 1e-9 {
		t.Errorf("|force| = %v, want MaxSpeed %v", force.Len(), a.MaxSpeed)
	}
}

func TestDeterministicUnderNeighborOrder(t *testing.T) {
	b := testAvoid()

	self := agent(vmath.Vec2{X: 1000, Y: 1000})
	self.Destination = vmath.Vec2{X: 5000, Y: 1000}
	n1 := agent(vmath.Vec2{X: 1080, Y: 1020})
	n2 := agent(vmath.Vec2{X: 1050, Y: 950})
	n3 := agent(vmath.Vec2{X: 930, Y: 1010})

	snap := snapshotOf(self, n1, n2, n3)
	base := contextFor(snap, 0, 2000)
	if len(base.Neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(base.Neighbors))
	}

	want := b.Compute(base)

	perms := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}, {0, 2, 1}, {1, 0, 2}}
	for _, p := range perms {
		shuffled := make([]world.Neighbor, 3)
		for i, j := range p {
			shuffled[i] = base.Neighbors[j]
		}
		ctx := &Context{
			Snap:      snap,
			SelfIndex: 0,
			Self:      &snap.Agents[0],
			Neighbors: shuffled,
			Path:      snap.Agents[0].Path,
		}
		got := b.Compute(ctx)
		if got != want {
			t.Errorf("permutation %v: force = %v, want %v (bit-for-bit)", p, got, want)
		}
	}
}
