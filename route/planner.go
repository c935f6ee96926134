package route

import (
	"container/heap"
	"math"

	"github.com/mkrogh/shopfloor/vmath"
)

// Planner runs A* searches over a shared NavGrid. Search scratch state is
// reused between calls, so each goroutine needs its own Planner.
type Planner struct {
	grid *NavGrid

	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float64
}

// NewPlanner creates a planner over the given grid.
func NewPlanner(grid *NavGrid) *Planner {
	return &Planner{
		grid:      grid,
		openHeap:  &nodeHeap{},
		closedSet: make(map[int]struct{}, 256),
		cameFrom:  make(map[int]int, 256),
		gScore:    make(map[int]float64, 256),
	}
}

type astarNode struct {
	gx, gy int
	f      float64
	index  int
}

type nodeHeap []*astarNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// FindPath plans a waypoint path from start to goal. The final waypoint is
// the exact goal position, not a cell centre. Returns nil when no path
// exists.
func (p *Planner) FindPath(start, goal vmath.Vec2) []vmath.Vec2 {
	grid := p.grid

	startGX, startGY := grid.WorldToGrid(start)
	goalGX, goalGY := grid.WorldToGrid(goal)

	if grid.IsBlocked(startGX, startGY) {
		startGX, startGY = p.nearestOpen(startGX, startGY)
		if startGX < 0 {
			return nil
		}
	}
	if grid.IsBlocked(goalGX, goalGY) {
		goalGX, goalGY = p.nearestOpen(goalGX, goalGY)
		if goalGX < 0 {
			return nil
		}
		// The requested goal is unreachable; aim for the snapped cell.
		goal = grid.GridToWorld(goalGX, goalGY)
	}

	if startGX == goalGX && startGY == goalGY {
		return []vmath.Vec2{goal}
	}

	*p.openHeap = (*p.openHeap)[:0]
	clear(p.closedSet)
	clear(p.cameFrom)
	clear(p.gScore)

	startID := startGY*grid.width + startGX
	goalID := goalGY*grid.width + goalGX

	p.gScore[startID] = 0
	heap.Push(p.openHeap, &astarNode{
		gx: startGX, gy: startGY,
		f: heuristic(startGX, startGY, goalGX, goalGY),
	})

	maxIterations := grid.width * grid.height
	for iterations := 0; p.openHeap.Len() > 0 && iterations < maxIterations; iterations++ {
		current := heap.Pop(p.openHeap).(*astarNode)
		currentID := current.gy*grid.width + current.gx

		if currentID == goalID {
			return p.reconstructPath(startID, goalID, goal)
		}

		p.closedSet[currentID] = struct{}{}

		neighbors := [][2]int{
			{current.gx - 1, current.gy},
			{current.gx + 1, current.gy},
			{current.gx, current.gy - 1},
			{current.gx, current.gy + 1},
			{current.gx - 1, current.gy - 1},
			{current.gx + 1, current.gy - 1},
			{current.gx - 1, current.gy + 1},
			{current.gx + 1, current.gy + 1},
		}

		for i, n := range neighbors {
			ngx, ngy := n[0], n[1]
			if grid.IsBlocked(ngx, ngy) {
				continue
			}

			// Diagonal moves must not cut a blocked corner.
			if i >= 4 {
				if grid.IsBlocked(ngx, current.gy) || grid.IsBlocked(current.gx, ngy) {
					continue
				}
			}

			neighborID := ngy*grid.width + ngx
			if _, ok := p.closedSet[neighborID]; ok {
				continue
			}

			moveCost := 1.0
			if i >= 4 {
				moveCost = math.Sqrt2
			}
			tentativeG := p.gScore[currentID] + moveCost

			existingG, exists := p.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			p.cameFrom[neighborID] = currentID
			p.gScore[neighborID] = tentativeG

			if !exists {
				heap.Push(p.openHeap, &astarNode{
					gx: ngx, gy: ngy,
					f: tentativeG + heuristic(ngx, ngy, goalGX, goalGY),
				})
			}
		}
	}

	return nil
}

func heuristic(gx1, gy1, gx2, gy2 int) float64 {
	dx := float64(gx2 - gx1)
	dy := float64(gy2 - gy1)
	return math.Sqrt(dx*dx + dy*dy)
}

// nearestOpen spirals outward for the closest unblocked cell. Returns
// (-1, -1) when nothing opens within the search ring.
func (p *Planner) nearestOpen(gx, gy int) (int, int) {
	const maxRing = 8
	for ring := 1; ring <= maxRing; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if dx > -ring && dx < ring && dy > -ring && dy < ring {
					continue
				}
				if !p.grid.IsBlocked(gx+dx, gy+dy) {
					return gx + dx, gy + dy
				}
			}
		}
	}
	return -1, -1
}

// reconstructPath walks cameFrom back to the start, reverses, collapses
// straight segments, and replaces the final cell centre with the exact
// goal.
func (p *Planner) reconstructPath(startID, goalID int, goal vmath.Vec2) []vmath.Vec2 {
	grid := p.grid

	var ids []int
	current := goalID
	for current != startID {
		ids = append(ids, current)
		next, ok := p.cameFrom[current]
		if !ok {
			break
		}
		current = next
	}

	path := make([]vmath.Vec2, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		path = append(path, grid.GridToWorld(id%grid.width, id/grid.width))
	}
	path = simplify(path)

	if len(path) > 0 {
		path[len(path)-1] = goal
	}
	return path
}

// simplify drops waypoints that continue the previous segment's direction.
func simplify(path []vmath.Vec2) []vmath.Vec2 {
	if len(path) <= 2 {
		return path
	}

	out := path[:1]
	for i := 1; i < len(path)-1; i++ {
		prev := out[len(out)-1]
		d1 := path[i].Sub(prev).Normalize()
		d2 := path[i+1].Sub(path[i]).Normalize()
		if d1.Dot(d2) > 0.9999 {
			continue
		}
		out = append(out, path[i])
	}
	return append(out, path[len(path)-1])
}
