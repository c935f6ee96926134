package telemetry

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// RunSummary is the end-of-run aggregate written alongside the per-tick
// records.
type RunSummary struct {
	Ticks       uint64  `csv:"ticks"`
	Agents      int     `csv:"agents"`
	WallSeconds float64 `csv:"wall_seconds"`

	Arrivals uint64 `csv:"arrivals"`
	Faults   uint64 `csv:"faults"`
	Pops     uint64 `csv:"waypoint_pops"`

	// Speed distribution across every agent-tick of the run
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	DistanceTotal float64 `csv:"distance_total"`
}

// summarize computes the distribution fields from raw speed samples.
func summarize(speeds []float64, started time.Time) (mean, std, p50, p90, wall float64) {
	wall = time.Since(started).Seconds()
	if len(speeds) == 0 {
		return 0, 0, 0, 0, wall
	}

	mean, std = stat.MeanStdDev(speeds, nil)
	if len(speeds) == 1 {
		std = 0
	}

	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return mean, std, p50, p90, wall
}
