package sim

import (
	"math"
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

func TestIntegrateClampOrder(t *testing.T) {
	a := &world.AgentState{
		Pos:      vmath.Vec2{X: 1000, Y: 1000},
		Vel:      vmath.Vec2{X: 4, Y: 0},
		MaxSpeed: 5,
		MaxForce: 1,
	}

	// Force far above MaxForce: acceleration clamps to 1 along +x, then
	// velocity 4+1 = 5 sits exactly at MaxSpeed.
	pos, vel, acc := integrate(a, vmath.Vec2{X: 100, Y: 0})

	if acc != (vmath.Vec2{X: 1}) {
		t.Errorf("acc = %v, want (1, 0)", acc)
	}
	if vel != (vmath.Vec2{X: 5}) {
		t.Errorf("vel = %v, want (5, 0)", vel)
	}
	if pos != (vmath.Vec2{X: 1005, Y: 1000}) {
		t.Errorf("pos = %v, want (1005, 1000)", pos)
	}
}

func TestIntegrateSpeedNeverExceedsMax(t *testing.T) {
	a := &world.AgentState{
		Pos:      vmath.Vec2{X: 500, Y: 500},
		Vel:      vmath.Vec2{X: 3, Y: 4}, // speed 5, already at the cap
		MaxSpeed: 5,
		MaxForce: 2,
	}

	angles := []float64{0, math.Pi / 4, math.Pi / 2, math.Pi, -math.Pi / 3}
	for _, ang := range angles {
		force := vmath.FromAngle(ang).Scale(50)
		_, vel, _ := integrate(a, force)
		if s := vel.Len(); s > a.MaxSpeed+1e-9 {
			t.Errorf("force angle %g: speed %g exceeds max %g", ang, s, a.MaxSpeed)
		}
	}
}

func TestIntegrateZeroForceIsInertial(t *testing.T) {
	a := &world.AgentState{
		Pos:      vmath.Vec2{X: 100, Y: 200},
		Vel:      vmath.Vec2{X: 2, Y: -1},
		MaxSpeed: 5,
		MaxForce: 1,
	}

	pos, vel, acc := integrate(a, vmath.Zero)
	if !acc.IsZero() {
		t.Errorf("acc = %v, want zero", acc)
	}
	if vel != a.Vel {
		t.Errorf("vel = %v, want unchanged %v", vel, a.Vel)
	}
	if pos != a.Pos.Add(a.Vel) {
		t.Errorf("pos = %v, want %v", pos, a.Pos.Add(a.Vel))
	}
}

func TestIntegrateAtRestStaysAtRest(t *testing.T) {
	a := &world.AgentState{
		Pos:      vmath.Vec2{X: 100, Y: 200},
		MaxSpeed: 5,
		MaxForce: 1,
	}

	pos, vel, _ := integrate(a, vmath.Zero)
	if pos != a.Pos || !vel.IsZero() {
		t.Errorf("pos = %v vel = %v, want no motion", pos, vel)
	}
}
