// Package render draws published simulation frames in a raylib window and
// feeds UI control input back to the scheduler. It only ever reads frames;
// the simulation does not depend on it.
package render

import "github.com/mkrogh/shopfloor/vmath"

// Transform maps floor millimetres to screen pixels, preserving aspect
// ratio and centering the floor in the available area.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NewTransform fits a floorW x floorH floor into a viewW x viewH viewport.
func NewTransform(floorW, floorH, viewW, viewH float64) Transform {
	scale := viewW / floorW
	if s := viewH / floorH; s < scale {
		scale = s
	}
	return Transform{
		Scale:   scale,
		OffsetX: (viewW - floorW*scale) / 2,
		OffsetY: (viewH - floorH*scale) / 2,
	}
}

// ToScreen converts a floor position to screen coordinates.
func (t Transform) ToScreen(p vmath.Vec2) (float32, float32) {
	return float32(p.X*t.Scale + t.OffsetX), float32(p.Y*t.Scale + t.OffsetY)
}

// Px converts a floor-space length to pixels.
func (t Transform) Px(mm float64) float32 {
	return float32(mm * t.Scale)
}
