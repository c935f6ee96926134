package telemetry

import (
	"time"

	"github.com/mkrogh/shopfloor/steering"
	"github.com/mkrogh/shopfloor/world"
)

// Collector accumulates per-tick records and run aggregates. The scheduler
// calls RecordTick after every commit and Flush exactly once on shutdown;
// both run on the scheduler goroutine, so no locking is needed.
type Collector struct {
	out       *OutputManager
	heatmap   *Heatmap
	dumpEvery uint64

	started   time.Time
	ticks     uint64
	agentsMax int

	arrivals uint64
	faults   uint64
	pops     uint64
	distance float64
	speeds   []float64

	scratch  []TickRecord
	writeErr error
}

// NewCollector wires a collector to an output manager. out may be nil;
// aggregates are still tracked for the final log line.
func NewCollector(out *OutputManager, floorWidth, floorHeight, heatmapCellSize float64, dumpEvery int) *Collector {
	if dumpEvery < 1 {
		dumpEvery = 1
	}
	return &Collector{
		out:       out,
		heatmap:   NewHeatmap(floorWidth, floorHeight, heatmapCellSize),
		dumpEvery: uint64(dumpEvery),
		started:   time.Now(),
	}
}

// RecordTick folds one committed tick into the run aggregates and, on dump
// ticks, streams the per-agent records.
func (c *Collector) RecordTick(snap *world.Snapshot, intents []world.Intent, forces []steering.Forces) {
	c.ticks++
	if len(snap.Agents) > c.agentsMax {
		c.agentsMax = len(snap.Agents)
	}

	dump := snap.Tick%c.dumpEvery == 0
	c.scratch = c.scratch[:0]

	for i := range snap.Agents {
		a := &snap.Agents[i]
		intent := &intents[i]

		c.heatmap.Add(intent.Pos)
		c.distance += intent.Vel.Len()
		if intent.Arrived {
			c.arrivals++
		}
		if intent.Faulted {
			c.faults++
		}
		c.pops += uint64(intent.Popped)

		if dump {
			c.speeds = append(c.speeds, intent.Vel.Len())
			c.scratch = append(c.scratch, newTickRecord(snap.Tick, a, intent, &forces[i]))
		}
	}

	if dump && c.writeErr == nil {
		c.writeErr = c.out.WriteTicks(c.scratch)
	}
}

// RecordPerf streams one phase-timing sample.
func (c *Collector) RecordPerf(rec PerfRecord) {
	if c.writeErr == nil {
		c.writeErr = c.out.WritePerf(rec)
	}
}

// Summary builds the end-of-run aggregate.
func (c *Collector) Summary() RunSummary {
	mean, std, p50, p90, wall := summarize(c.speeds, c.started)
	return RunSummary{
		Ticks:         c.ticks,
		Agents:        c.agentsMax,
		WallSeconds:   wall,
		Arrivals:      c.arrivals,
		Faults:        c.faults,
		Pops:          c.pops,
		SpeedMean:     mean,
		SpeedStd:      std,
		SpeedP50:      p50,
		SpeedP90:      p90,
		DistanceTotal: c.distance,
	}
}

// Flush writes the heatmap and summary and closes the output files.
func (c *Collector) Flush() error {
	err := c.writeErr
	if herr := c.out.WriteHeatmap(c.heatmap); err == nil {
		err = herr
	}
	if serr := c.out.WriteSummary(c.Summary()); err == nil {
		err = serr
	}
	if cerr := c.out.Close(); err == nil {
		err = cerr
	}
	return err
}
