package render

import (
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
)

func TestTransformFitsWideFloor(t *testing.T) {
	// 20000x12000 floor into a 1000x800 viewport: width-limited, scale
	// 0.05, floor height 600px centered with 100px top margin.
	tr := NewTransform(20000, 12000, 1000, 800)

	if tr.Scale != 0.05 {
		t.Errorf("scale = %g, want 0.05", tr.Scale)
	}

	x, y := tr.ToScreen(vmath.Vec2{})
	if x != 0 || y != 100 {
		t.Errorf("origin maps to (%g, %g), want (0, 100)", x, y)
	}

	x, y = tr.ToScreen(vmath.Vec2{X: 20000, Y: 12000})
	if x != 1000 || y != 700 {
		t.Errorf("far corner maps to (%g, %g), want (1000, 700)", x, y)
	}
}

func TestTransformFitsTallFloor(t *testing.T) {
	tr := NewTransform(5000, 10000, 1000, 500)

	if tr.Scale != 0.05 {
		t.Errorf("scale = %g, want 0.05", tr.Scale)
	}
	x, _ := tr.ToScreen(vmath.Vec2{})
	if x != 375 {
		t.Errorf("left edge at %g, want 375", x)
	}
	if got := tr.Px(1000); got != 50 {
		t.Errorf("Px(1000) = %g, want 50", got)
	}
}
