package render

import (
	"testing"

	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

func TestNearestAgentPicksClosest(t *testing.T) {
	tr := Transform{Scale: 1}
	agents := []world.AgentState{
		{ID: 1, Pos: vmath.Vec2{X: 105, Y: 100}}, // 5 px from the cursor
		{ID: 2, Pos: vmath.Vec2{X: 110, Y: 100}}, // 10 px, listed after the closer one
		{ID: 3, Pos: vmath.Vec2{X: 100, Y: 115}}, // 15 px
	}

	idx, ok := nearestAgent(agents, tr, 100, 100, pickRadiusPx)
	if !ok {
		t.Fatal("no agent picked inside the pick radius")
	}
	if agents[idx].ID != 1 {
		t.Errorf("picked agent %d, want the closest (1)", agents[idx].ID)
	}
}

func TestNearestAgentRespectsPickRadius(t *testing.T) {
	tr := Transform{Scale: 1}
	agents := []world.AgentState{
		{ID: 1, Pos: vmath.Vec2{X: 200, Y: 200}},
	}

	if _, ok := nearestAgent(agents, tr, 100, 100, pickRadiusPx); ok {
		t.Error("picked an agent far outside the pick radius")
	}
}

func TestNewRendererMatchesSchedulerPauseState(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if r := New(nil, nil, cfg, true); !r.paused {
		t.Error("renderer built for a paused scheduler reports running")
	}
	if r := New(nil, nil, cfg, false); r.paused {
		t.Error("renderer built for a running scheduler reports paused")
	}
}
