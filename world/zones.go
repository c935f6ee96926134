package world

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mkrogh/shopfloor/vmath"
)

// Border is a static wall segment agents are repelled from.
type Border struct {
	A, B vmath.Vec2
}

// Closest returns the point on the border closest to p.
func (b Border) Closest(p vmath.Vec2) vmath.Vec2 {
	return vmath.ClosestOnSegment(p, b.A, b.B)
}

// Zone is a forbidden region of the floor, defined as a polygon.
// Agents may not be admitted inside a zone; its edges repel like walls.
type Zone struct {
	Name    string
	Polygon orb.Polygon
}

// NewZone builds a zone from a ring of vertices. The ring is closed
// automatically. Degenerate polygons (fewer than 3 vertices or ~zero area)
// are rejected.
func NewZone(name string, vertices []vmath.Vec2) (Zone, error) {
	if len(vertices) < 3 {
		return Zone{}, fmt.Errorf("zone %q: need at least 3 vertices, got %d", name, len(vertices))
	}

	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.X, v.Y})
	}
	ring = append(ring, ring[0])

	poly := orb.Polygon{ring}
	if a := planar.Area(poly); a < 1 && a > -1 {
		return Zone{}, fmt.Errorf("zone %q: degenerate polygon (area %g)", name, a)
	}

	return Zone{Name: name, Polygon: poly}, nil
}

// Contains reports whether p lies inside the zone.
func (z Zone) Contains(p vmath.Vec2) bool {
	return planar.PolygonContains(z.Polygon, orb.Point{p.X, p.Y})
}

// Edges returns the zone outline as border segments.
func (z Zone) Edges() []Border {
	if len(z.Polygon) == 0 {
		return nil
	}
	ring := z.Polygon[0]
	edges := make([]Border, 0, len(ring)-1)
	for i := 0; i+1 < len(ring); i++ {
		edges = append(edges, Border{
			A: vmath.Vec2{X: ring[i][0], Y: ring[i][1]},
			B: vmath.Vec2{X: ring[i+1][0], Y: ring[i+1][1]},
		})
	}
	return edges
}

// floorBorders returns the four wall segments of a rectangular floor.
func floorBorders(width, height float64) []Border {
	nw := vmath.Vec2{}
	ne := vmath.Vec2{X: width}
	se := vmath.Vec2{X: width, Y: height}
	sw := vmath.Vec2{Y: height}
	return []Border{{nw, ne}, {ne, se}, {se, sw}, {sw, nw}}
}
