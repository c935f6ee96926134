// Floor layout checker - validates a blueprint against a config before a run.
//
// Usage: go run ./cmd/floorcheck -blueprint floor.yaml [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mkrogh/shopfloor/blueprint"
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/route"
	"github.com/mkrogh/shopfloor/vmath"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	blueprintPath := flag.String("blueprint", "", "Blueprint YAML file to check")
	flag.Parse()

	if *blueprintPath == "" {
		log.Fatal("-blueprint is required")
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	bp, err := blueprint.Load(*blueprintPath)
	if err != nil {
		log.Fatalf("blueprint rejected: %v", err)
	}

	zones, err := bp.BuildZones()
	if err != nil {
		log.Fatalf("invalid zone: %v", err)
	}

	grid := route.NewNavGrid(cfg.Floor.Width, cfg.Floor.Height, cfg.Floor.GridCellSize, cfg.Agent.Radius*2, zones)
	planner := route.NewPlanner(grid)

	problems := 0
	report := func(format string, args ...any) {
		problems++
		fmt.Printf("PROBLEM: "+format+"\n", args...)
	}

	inFloor := func(p vmath.Vec2) bool {
		return p.X >= 0 && p.X <= cfg.Floor.Width && p.Y >= 0 && p.Y <= cfg.Floor.Height
	}

	for _, a := range bp.Agents {
		if !inFloor(a.Pos) {
			report("agent %q spawns outside the floor at %v", a.Name, a.Pos)
			continue
		}
		gx, gy := grid.WorldToGrid(a.Pos)
		if grid.IsBlocked(gx, gy) {
			report("agent %q spawns on a blocked cell at %v", a.Name, a.Pos)
		}
	}

	// Every station must be reachable from its own dropoff, otherwise no
	// order routed through it can ever complete.
	for _, s := range bp.Stations {
		for _, p := range []struct {
			label string
			pos   vmath.Vec2
		}{{"pickup", s.Pos}, {"dropoff", s.Dropoff}} {
			if !inFloor(p.pos) {
				report("station %q %s outside the floor at %v", s.Name, p.label, p.pos)
			}
		}
		if path := planner.FindPath(s.Pos, s.Dropoff); path == nil {
			report("station %q dropoff is unreachable from its pickup", s.Name)
		}
	}

	// Pairwise station reachability catches floors split in two by zones.
	for i := range bp.Stations {
		for j := i + 1; j < len(bp.Stations); j++ {
			a, b := bp.Stations[i], bp.Stations[j]
			if path := planner.FindPath(a.Pos, b.Pos); path == nil {
				report("no route between stations %q and %q", a.Name, b.Name)
			}
		}
	}

	fmt.Printf("floor %gx%g mm, grid cell %g mm\n", cfg.Floor.Width, cfg.Floor.Height, cfg.Floor.GridCellSize)
	fmt.Printf("%d agents, %d stations, %d zones\n", len(bp.Agents), len(bp.Stations), len(zones))

	if problems > 0 {
		fmt.Printf("%d problem(s) found\n", problems)
		os.Exit(1)
	}
	fmt.Println("layout OK")
}
