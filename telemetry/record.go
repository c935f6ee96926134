// Package telemetry records per-tick simulation state to structured CSV
// output: one row per agent per recorded tick, a presence heatmap, and an
// end-of-run summary.
package telemetry

import (
	"github.com/mkrogh/shopfloor/steering"
	"github.com/mkrogh/shopfloor/world"
)

// TickRecord is one agent's state at one committed tick.
type TickRecord struct {
	Tick   uint64 `csv:"tick"`
	Agent  uint64 `csv:"agent"`
	Name   string `csv:"name"`
	Status string `csv:"status"`

	PosX  float64 `csv:"pos_x"`
	PosY  float64 `csv:"pos_y"`
	VelX  float64 `csv:"vel_x"`
	VelY  float64 `csv:"vel_y"`
	Speed float64 `csv:"speed"`

	// Per-behavior force breakdown before gating and clamping
	BorderFX    float64 `csv:"border_fx"`
	BorderFY    float64 `csv:"border_fy"`
	CollisionFX float64 `csv:"collision_fx"`
	CollisionFY float64 `csv:"collision_fy"`
	AvoidFX     float64 `csv:"avoid_fx"`
	AvoidFY     float64 `csv:"avoid_fy"`
	TotalFX     float64 `csv:"total_fx"`
	TotalFY     float64 `csv:"total_fy"`

	Popped  int  `csv:"popped"`
	Arrived bool `csv:"arrived"`
	Faulted bool `csv:"faulted"`
}

func newTickRecord(tick uint64, a *world.AgentState, intent *world.Intent, f *steering.Forces) TickRecord {
	return TickRecord{
		Tick:   tick,
		Agent:  a.ID,
		Name:   a.Name,
		Status: a.Status.String(),

		PosX:  intent.Pos.X,
		PosY:  intent.Pos.Y,
		VelX:  intent.Vel.X,
		VelY:  intent.Vel.Y,
		Speed: intent.Vel.Len(),

		BorderFX:    f.Border.X,
		BorderFY:    f.Border.Y,
		CollisionFX: f.Collision.X,
		CollisionFY: f.Collision.Y,
		AvoidFX:     f.Avoid.X,
		AvoidFY:     f.Avoid.Y,
		TotalFX:     f.Total.X,
		TotalFY:     f.Total.Y,

		Popped:  intent.Popped,
		Arrived: intent.Arrived,
		Faulted: intent.Faulted,
	}
}

// PerfRecord is one phase-timing sample, in microseconds.
type PerfRecord struct {
	Tick       uint64  `csv:"tick"`
	SnapshotUs float64 `csv:"snapshot_us"`
	ComputeUs  float64 `csv:"compute_us"`
	CommitUs   float64 `csv:"commit_us"`
	PublishUs  float64 `csv:"publish_us"`
}
