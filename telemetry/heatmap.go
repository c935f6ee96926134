package telemetry

import "github.com/mkrogh/shopfloor/vmath"

// Heatmap accumulates agent presence over the run on a coarse grid. Each
// committed tick adds one visit to the cell under every agent.
type Heatmap struct {
	cellSize float64
	cols     int
	rows     int
	visits   []uint64
}

// NewHeatmap covers a width x height floor with cells of cellSize.
func NewHeatmap(width, height, cellSize float64) *Heatmap {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	return &Heatmap{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		visits:   make([]uint64, cols*rows),
	}
}

// Add records one visit at the given position. Out-of-floor positions clamp
// to the edge cells.
func (h *Heatmap) Add(pos vmath.Vec2) {
	cx := int(pos.X / h.cellSize)
	cy := int(pos.Y / h.cellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= h.cols {
		cx = h.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= h.rows {
		cy = h.rows - 1
	}
	h.visits[cy*h.cols+cx]++
}

// At returns the visit count for the cell at column cx, row cy.
func (h *Heatmap) At(cx, cy int) uint64 {
	return h.visits[cy*h.cols+cx]
}

// HeatmapCell is one non-empty heatmap cell for CSV output.
type HeatmapCell struct {
	CellX  int    `csv:"cell_x"`
	CellY  int    `csv:"cell_y"`
	Visits uint64 `csv:"visits"`
}

// Cells returns all non-empty cells in row-major order.
func (h *Heatmap) Cells() []HeatmapCell {
	var cells []HeatmapCell
	for cy := 0; cy < h.rows; cy++ {
		for cx := 0; cx < h.cols; cx++ {
			if v := h.visits[cy*h.cols+cx]; v > 0 {
				cells = append(cells, HeatmapCell{CellX: cx, CellY: cy, Visits: v})
			}
		}
	}
	return cells
}
