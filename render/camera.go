package render

import "github.com/mkrogh/shopfloor/vmath"

// Camera pans and zooms the floor view. Zoom 1.0 fits the whole floor in
// the viewport; the centre is clamped so the view never drifts off the
// floor. Unlike Transform it is mutable and owned by the renderer.
type Camera struct {
	// Centre of the view in floor coordinates.
	X, Y float64

	// Zoom is a magnification on top of the fit-to-viewport scale.
	Zoom float64

	floorW, floorH float64
	viewW, viewH   float64
	baseScale      float64
	maxZoom        float64
}

// NewCamera builds a camera centred on the floor at fit-to-viewport zoom.
func NewCamera(floorW, floorH, viewW, viewH float64) *Camera {
	base := viewW / floorW
	if s := viewH / floorH; s < base {
		base = s
	}
	return &Camera{
		X:         floorW / 2,
		Y:         floorH / 2,
		Zoom:      1.0,
		floorW:    floorW,
		floorH:    floorH,
		viewW:     viewW,
		viewH:     viewH,
		baseScale: base,
		maxZoom:   8.0,
	}
}

// Transform returns the floor-to-screen mapping for the current view.
func (c *Camera) Transform() Transform {
	scale := c.baseScale * c.Zoom
	return Transform{
		Scale:   scale,
		OffsetX: c.viewW/2 - c.X*scale,
		OffsetY: c.viewH/2 - c.Y*scale,
	}
}

// ScreenToWorld converts a screen position to floor coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) vmath.Vec2 {
	scale := c.baseScale * c.Zoom
	return vmath.Vec2{
		X: (float64(sx) - (c.viewW/2 - c.X*scale)) / scale,
		Y: (float64(sy) - (c.viewH/2 - c.Y*scale)) / scale,
	}
}

// Pan moves the view by a screen-pixel delta.
func (c *Camera) Pan(dxPx, dyPx float32) {
	scale := c.baseScale * c.Zoom
	c.X += float64(dxPx) / scale
	c.Y += float64(dyPx) / scale
	c.clamp()
}

// ZoomAt changes the zoom by the given factor while keeping the floor
// point under (sx, sy) fixed on screen.
func (c *Camera) ZoomAt(sx, sy float32, factor float64) {
	anchor := c.ScreenToWorld(sx, sy)

	c.Zoom *= factor
	if c.Zoom < 1.0 {
		c.Zoom = 1.0
	}
	if c.Zoom > c.maxZoom {
		c.Zoom = c.maxZoom
	}

	// Re-centre so the anchor lands back under the cursor.
	scale := c.baseScale * c.Zoom
	c.X = anchor.X - (float64(sx)-c.viewW/2)/scale
	c.Y = anchor.Y - (float64(sy)-c.viewH/2)/scale
	c.clamp()
}

// Reset returns to the initial fit-to-viewport view.
func (c *Camera) Reset() {
	c.X = c.floorW / 2
	c.Y = c.floorH / 2
	c.Zoom = 1.0
}

// clamp keeps the visible area on the floor. When an axis of the floor is
// smaller than the view, that axis stays centred instead.
func (c *Camera) clamp() {
	scale := c.baseScale * c.Zoom
	halfW := c.viewW / (2 * scale)
	halfH := c.viewH / (2 * scale)

	c.X = clampAxis(c.X, halfW, c.floorW)
	c.Y = clampAxis(c.Y, halfH, c.floorH)
}

func clampAxis(v, half, extent float64) float64 {
	if 2*half >= extent {
		return extent / 2
	}
	if v < half {
		return half
	}
	if v > extent-half {
		return extent - half
	}
	return v
}
