package world

import "math"

// Neighbor holds a nearby agent with precomputed spatial data.
type Neighbor struct {
	Index  int     // index into the snapshot's agent slice
	DX, DY float64 // delta from query origin
	Dist   float64
}

// grid provides O(1) neighbor lookups using a cell-based index over a
// snapshot's agent slice. The floor is bounded; out-of-range positions are
// clamped to the edge cells.
type grid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // flat grid of snapshot indices
}

func newGrid(width, height, cellSize float64) *grid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	return &grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

func (g *grid) insert(idx int, x, y float64) {
	ci := g.cellIndex(x, y)
	g.cells[ci] = append(g.cells[ci], idx)
}

// queryRadiusInto finds agents within radius of (x, y) and appends them to
// dst, excluding the querying agent itself. Results follow snapshot order
// within each cell, so a fixed snapshot always yields the same set.
func (g *grid) queryRadiusInto(dst []Neighbor, agents []AgentState, x, y, radius float64, exclude int) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}

			for _, idx := range g.cells[row*g.cols+col] {
				if idx == exclude {
					continue
				}
				dx := agents[idx].Pos.X - x
				dy := agents[idx].Pos.Y - y
				distSq := dx*dx + dy*dy
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{
						Index: idx,
						DX:    dx,
						DY:    dy,
						Dist:  math.Sqrt(distSq),
					})
				}
			}
		}
	}

	return dst
}

func (g *grid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
