package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkrogh/shopfloor/blueprint"
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/coord"
	"github.com/mkrogh/shopfloor/render"
	"github.com/mkrogh/shopfloor/route"
	"github.com/mkrogh/shopfloor/sim"
	"github.com/mkrogh/shopfloor/telemetry"
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	blueprintPath := flag.String("blueprint", "", "Path to floor blueprint YAML (empty = built-in demo floor)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV telemetry and config snapshot")
	headless := flag.Bool("headless", false, "Run without graphics")
	rateHz := flag.Int("rate", 0, "Tick rate override in Hz (0 = use config)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited, headless only)")
	startPaused := flag.Bool("start-paused", false, "Start with the simulation paused")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *rateHz > 0 {
		cfg.Tick.RateHz = *rateHz
		cfg.Derived.TickInterval = time.Second / time.Duration(*rateHz)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	bp, err := loadBlueprint(*blueprintPath)
	if err != nil {
		slog.Error("failed to load blueprint", "error", err)
		os.Exit(1)
	}

	zones, err := bp.BuildZones()
	if err != nil {
		slog.Error("invalid zone in blueprint", "error", err)
		os.Exit(1)
	}

	env := world.NewEnvironment(cfg.Floor.Width, cfg.Floor.Height, cfg.Floor.GridCellSize, zones)

	var transportIDs []uint64
	for _, a := range bp.Agents {
		id, err := env.AddAgent(a.Spec(&cfg.Agent))
		if err != nil {
			slog.Error("agent rejected", "name", a.Name, "error", err)
			os.Exit(1)
		}
		if a.Kind != "producer" {
			transportIDs = append(transportIDs, id)
		}
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}
	collector := telemetry.NewCollector(out,
		cfg.Floor.Width, cfg.Floor.Height,
		cfg.Telemetry.HeatmapCellSize, cfg.Telemetry.DumpEvery)

	sched := sim.NewScheduler(env, cfg, collector, logger)

	grid := route.NewNavGrid(cfg.Floor.Width, cfg.Floor.Height, cfg.Floor.GridCellSize, cfg.Agent.Radius*2, zones)
	dispatcher := coord.NewDispatcher(sched, sched.Events(), sched.Subscribe(), grid, &cfg.Coordination, logger)
	for _, id := range transportIDs {
		dispatcher.AddTransport(id)
	}
	for _, s := range bp.Stations {
		period := s.PeriodTicks
		if period == 0 {
			period = cfg.Coordination.OrderPeriodTicks
		}
		dispatcher.AddProducer(coord.Station{
			Name:    s.Name,
			Pos:     s.Pos,
			Dropoff: s.Dropoff,
		}, period)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go dispatcher.Run(ctx)

	slog.Info("starting simulation",
		"agents", env.Count(),
		"stations", len(bp.Stations),
		"zones", len(zones),
		"rate_hz", cfg.Tick.RateHz,
		"headless", *headless)

	if *headless {
		runHeadless(ctx, sched, collector, *maxTicks, *startPaused)
		slog.Info("run finished", "orders_completed", dispatcher.Completed())
		return
	}

	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(ctx) }()
	if !*startPaused {
		sched.Resume()
	}

	renderer := render.New(sched, sched.Subscribe(), cfg, *startPaused)
	renderer.Run()

	sched.Shutdown()
	if err := <-schedDone; err != nil && err != context.Canceled {
		slog.Error("scheduler failed", "error", err)
		os.Exit(1)
	}
	slog.Info("run finished", "orders_completed", dispatcher.Completed())
}

// runHeadless drives the scheduler without a window, watching frames for
// the tick limit and streaming perf samples.
func runHeadless(ctx context.Context, sched *sim.Scheduler, collector *telemetry.Collector, maxTicks uint64, startPaused bool) {
	frames := sched.Subscribe()

	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(ctx) }()
	if !startPaused {
		sched.Resume()
	}

	for {
		select {
		case fr := <-frames:
			collector.RecordPerf(telemetry.PerfRecord{
				Tick:       fr.Snap.Tick,
				SnapshotUs: us(fr.Perf["snapshot"]),
				ComputeUs:  us(fr.Perf["compute"]),
				CommitUs:   us(fr.Perf["commit"]),
				PublishUs:  us(fr.Perf["publish"]),
			})
			if maxTicks > 0 && fr.Snap.Tick+1 >= maxTicks {
				slog.Info("max ticks reached", "tick", fr.Snap.Tick+1)
				sched.Shutdown()
				if err := <-schedDone; err != nil && err != context.Canceled {
					slog.Error("scheduler failed", "error", err)
					os.Exit(1)
				}
				return
			}

		case err := <-schedDone:
			if err != nil && err != context.Canceled {
				slog.Error("scheduler failed", "error", err)
				os.Exit(1)
			}
			return
		}
	}
}

func us(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e3
}

// loadBlueprint reads the given blueprint, or falls back to a small demo
// floor when no file is given.
func loadBlueprint(path string) (*blueprint.Blueprint, error) {
	if path != "" {
		return blueprint.Load(path)
	}
	return demoBlueprint(), nil
}

func demoBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		Agents: []blueprint.AgentDef{
			{Name: "agv-1", Kind: "transport", Pos: vmath.Vec2{X: 3000, Y: 3000}},
			{Name: "agv-2", Kind: "transport", Pos: vmath.Vec2{X: 3000, Y: 9000}},
			{Name: "agv-3", Kind: "transport", Pos: vmath.Vec2{X: 17000, Y: 6000}},
		},
		Stations: []blueprint.StationDef{
			{
				Name:    "press-1",
				Pos:     vmath.Vec2{X: 2000, Y: 6000},
				Dropoff: vmath.Vec2{X: 18000, Y: 2500},
			},
			{
				Name:    "mill-1",
				Pos:     vmath.Vec2{X: 10000, Y: 10500},
				Dropoff: vmath.Vec2{X: 18000, Y: 9500},
			},
		},
		Zones: []blueprint.ZoneDef{
			{
				Name: "assembly-keepout",
				Polygon: []vmath.Vec2{
					{X: 8500, Y: 4500},
					{X: 11500, Y: 4500},
					{X: 11500, Y: 7500},
					{X: 8500, Y: 7500},
				},
			},
		},
	}
}
