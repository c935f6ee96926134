package route

import (
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

func mustZone(t *testing.T, name string, vertices ...vmath.Vec2) world.Zone {
	t.Helper()
	z, err := world.NewZone(name, vertices)
	if err != nil {
		t.Fatalf("zone %s: %v", name, err)
	}
	return z
}

func TestOpenFloorIsSingleSegment(t *testing.T) {
	grid := NewNavGrid(10000, 10000, 500, 300, nil)
	p := NewPlanner(grid)

	start := vmath.Vec2{X: 1000, Y: 1000}
	goal := vmath.Vec2{X: 9000, Y: 1000}

	path := p.FindPath(start, goal)
	if path == nil {
		t.Fatal("no path on an open floor")
	}
	if got := path[len(path)-1]; got != goal {
		t.Errorf("path ends at %v, want exact goal %v", got, goal)
	}
	// A straight run collapses to at most the goal plus the first cell
	// correction.
	if len(path) > 2 {
		t.Errorf("straight path has %d waypoints: %v", len(path), path)
	}
}

func TestPathRoutesAroundZone(t *testing.T) {
	// A wall-like zone across the middle of the floor with a gap at the
	// bottom.
	zone := mustZone(t, "wall",
		vmath.Vec2{X: 4800, Y: 0},
		vmath.Vec2{X: 5200, Y: 0},
		vmath.Vec2{X: 5200, Y: 8000},
		vmath.Vec2{X: 4800, Y: 8000},
	)
	grid := NewNavGrid(10000, 10000, 250, 200, []world.Zone{zone})
	p := NewPlanner(grid)

	start := vmath.Vec2{X: 2000, Y: 2000}
	goal := vmath.Vec2{X: 8000, Y: 2000}

	path := p.FindPath(start, goal)
	if path == nil {
		t.Fatal("no path around the wall")
	}
	if got := path[len(path)-1]; got != goal {
		t.Errorf("path ends at %v, want %v", got, goal)
	}

	// Every waypoint keeps clear of the zone.
	for _, wp := range path {
		if zone.Contains(wp) {
			t.Errorf("waypoint %v lies inside the zone", wp)
		}
	}

	// The detour must dip below the wall (y > 8000) at some point.
	detoured := false
	for _, wp := range path {
		if wp.Y > 8000 {
			detoured = true
			break
		}
	}
	if !detoured {
		t.Errorf("path did not route through the gap: %v", path)
	}
}

func TestNoPathWhenGoalEnclosed(t *testing.T) {
	// A zone sealing off the floor's right half completely.
	zone := mustZone(t, "sealed",
		vmath.Vec2{X: 4500, Y: -500},
		vmath.Vec2{X: 5500, Y: -500},
		vmath.Vec2{X: 5500, Y: 10500},
		vmath.Vec2{X: 4500, Y: 10500},
	)
	grid := NewNavGrid(10000, 10000, 250, 200, []world.Zone{zone})
	p := NewPlanner(grid)

	path := p.FindPath(vmath.Vec2{X: 1000, Y: 5000}, vmath.Vec2{X: 9000, Y: 5000})
	if path != nil {
		t.Errorf("found a path through a sealed wall: %v", path)
	}
}

func TestGoalInsideZoneSnapsToNearestOpenCell(t *testing.T) {
	zone := mustZone(t, "island",
		vmath.Vec2{X: 4000, Y: 4000},
		vmath.Vec2{X: 6000, Y: 4000},
		vmath.Vec2{X: 6000, Y: 6000},
		vmath.Vec2{X: 4000, Y: 6000},
	)
	grid := NewNavGrid(10000, 10000, 250, 200, []world.Zone{zone})
	p := NewPlanner(grid)

	// Goal at the zone centre: the planner snaps to an open cell near the
	// zone instead of failing.
	path := p.FindPath(vmath.Vec2{X: 1000, Y: 1000}, vmath.Vec2{X: 5000, Y: 5000})
	if path == nil {
		t.Fatal("no path to the snapped goal")
	}
	end := path[len(path)-1]
	if zone.Contains(end) {
		t.Errorf("snapped goal %v is inside the zone", end)
	}
}

func TestSimplifyCollapsesCollinearRuns(t *testing.T) {
	path := []vmath.Vec2{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 200, Y: 0},
		{X: 300, Y: 0},
		{X: 300, Y: 100},
		{X: 300, Y: 200},
	}
	got := simplify(path)
	want := []vmath.Vec2{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 200}}
	if len(got) != len(want) {
		t.Fatalf("simplified to %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("waypoint %d = %v, want %v", i, got[i], want[i])
		}
	}
}
