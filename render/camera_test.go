package render

import (
	"math"
	"testing"

	"github.com/mkrogh/shopfloor/vmath"
)

func testCamera() *Camera {
	return NewCamera(20000, 12000, 1000, 710)
}

func TestCameraFitsFloorAtDefaultZoom(t *testing.T) {
	c := testCamera()
	tr := c.Transform()

	// 1000/20000 = 0.05 is tighter than 710/12000.
	if math.Abs(tr.Scale-0.05) > 1e-9 {
		t.Errorf("Scale = %v, want 0.05", tr.Scale)
	}

	x, y := tr.ToScreen(vmath.Vec2{X: 10000, Y: 6000})
	if x != 500 || y != 355 {
		t.Errorf("floor centre maps to (%v, %v), want viewport centre (500, 355)", x, y)
	}
}

func TestCameraScreenWorldRoundTrip(t *testing.T) {
	c := testCamera()
	c.ZoomAt(500, 355, 3.0)
	c.Pan(120, -40)

	tr := c.Transform()
	want := vmath.Vec2{X: 7300, Y: 5100}
	sx, sy := tr.ToScreen(want)
	got := c.ScreenToWorld(sx, sy)

	// ToScreen narrows to float32, so allow a sub-millimetre slop.
	if math.Abs(got.X-want.X) > 1e-2 || math.Abs(got.Y-want.Y) > 1e-2 {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}

func TestCameraZoomKeepsCursorAnchored(t *testing.T) {
	c := testCamera()
	sx, sy := float32(800), float32(200)

	before := c.ScreenToWorld(sx, sy)
	c.ZoomAt(sx, sy, 2.0)
	after := c.ScreenToWorld(sx, sy)

	if math.Abs(after.X-before.X) > 1e-6 || math.Abs(after.Y-before.Y) > 1e-6 {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestCameraZoomIsClamped(t *testing.T) {
	c := testCamera()

	c.ZoomAt(500, 355, 0.01)
	if c.Zoom != 1.0 {
		t.Errorf("Zoom = %v after zooming out, want floor of 1.0", c.Zoom)
	}

	c.ZoomAt(500, 355, 1000)
	if c.Zoom != c.maxZoom {
		t.Errorf("Zoom = %v after zooming in, want ceiling of %v", c.Zoom, c.maxZoom)
	}
}

func TestCameraPanClampsToFloor(t *testing.T) {
	c := testCamera()
	c.ZoomAt(500, 355, 4.0)

	// A huge pan must stop at the floor edge, not run past it.
	c.Pan(1e9, 1e9)

	scale := c.baseScale * c.Zoom
	halfW := c.viewW / (2 * scale)
	if math.Abs(c.X-(c.floorW-halfW)) > 1e-6 {
		t.Errorf("X = %v, want clamped to %v", c.X, c.floorW-halfW)
	}

	c.Pan(-1e9, -1e9)
	if math.Abs(c.X-halfW) > 1e-6 {
		t.Errorf("X = %v, want clamped to %v", c.X, halfW)
	}
}

func TestCameraResetRestoresDefaultView(t *testing.T) {
	c := testCamera()
	c.ZoomAt(100, 100, 5.0)
	c.Pan(300, 300)

	c.Reset()

	if c.Zoom != 1.0 || c.X != 10000 || c.Y != 6000 {
		t.Errorf("after Reset: zoom %v centre (%v, %v), want 1.0 (10000, 6000)", c.Zoom, c.X, c.Y)
	}
}

func TestCameraCentresShortAxis(t *testing.T) {
	// At zoom 1 the vertical axis is letterboxed; the centre must stay
	// pinned to the floor middle no matter the pan.
	c := testCamera()
	c.Pan(0, 1e6)
	if c.Y != 6000 {
		t.Errorf("Y = %v, want centred 6000", c.Y)
	}
}
