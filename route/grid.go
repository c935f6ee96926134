// Package route plans waypoint paths across the floor with A* over a
// coarse navigation grid. Cells inside or near forbidden zones are blocked;
// the grid is inflated by the agent radius so planned paths keep clearance.
package route

import (
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// NavGrid marks floor cells as blocked (true) or open (false). It is built
// once from static geometry and shared read-only between planners.
type NavGrid struct {
	cells    []bool
	cellSize float64
	width    int
	height   int
}

// NewNavGrid rasterizes the zones onto a width x height floor. A cell is
// blocked when its centre lies inside a zone or within inflation of a zone
// edge or the floor boundary.
func NewNavGrid(floorW, floorH, cellSize, inflation float64, zones []world.Zone) *NavGrid {
	w := int(floorW / cellSize)
	h := int(floorH / cellSize)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	grid := &NavGrid{
		cells:    make([]bool, w*h),
		cellSize: cellSize,
		width:    w,
		height:   h,
	}

	var edges []world.Border
	for _, z := range zones {
		edges = append(edges, z.Edges()...)
	}

	for gy := 0; gy < h; gy++ {
		for gx := 0; gx < w; gx++ {
			centre := vmath.Vec2{
				X: (float64(gx) + 0.5) * cellSize,
				Y: (float64(gy) + 0.5) * cellSize,
			}

			blocked := centre.X < inflation || centre.Y < inflation ||
				centre.X > floorW-inflation || centre.Y > floorH-inflation

			for _, z := range zones {
				if blocked {
					break
				}
				blocked = z.Contains(centre)
			}
			for _, e := range edges {
				if blocked {
					break
				}
				blocked = e.Closest(centre).Dist(centre) < inflation
			}

			grid.cells[gy*w+gx] = blocked
		}
	}

	return grid
}

// WorldToGrid converts a floor position to grid coordinates, clamped to the
// grid.
func (g *NavGrid) WorldToGrid(p vmath.Vec2) (int, int) {
	gx := int(p.X / g.cellSize)
	gy := int(p.Y / g.cellSize)
	if gx < 0 {
		gx = 0
	} else if gx >= g.width {
		gx = g.width - 1
	}
	if gy < 0 {
		gy = 0
	} else if gy >= g.height {
		gy = g.height - 1
	}
	return gx, gy
}

// GridToWorld returns the centre of a grid cell in floor coordinates.
func (g *NavGrid) GridToWorld(gx, gy int) vmath.Vec2 {
	return vmath.Vec2{
		X: (float64(gx) + 0.5) * g.cellSize,
		Y: (float64(gy) + 0.5) * g.cellSize,
	}
}

// IsBlocked reports whether a cell is blocked. Out-of-grid cells are
// blocked.
func (g *NavGrid) IsBlocked(gx, gy int) bool {
	if gx < 0 || gx >= g.width || gy < 0 || gy >= g.height {
		return true
	}
	return g.cells[gy*g.width+gx]
}
