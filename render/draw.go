package render

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mkrogh/shopfloor/components"
	"github.com/mkrogh/shopfloor/sim"
	"github.com/mkrogh/shopfloor/steering"
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// forceScale stretches per-tick forces (a few mm) into visible overlay
// lines.
const forceScale = 40

var (
	colorFloor     = rl.Color{R: 34, G: 38, B: 44, A: 255}
	colorZone      = rl.Color{R: 140, G: 40, B: 40, A: 255}
	colorTransport = rl.Color{R: 80, G: 170, B: 240, A: 255}
	colorProducer  = rl.Color{R: 180, G: 140, B: 60, A: 255}
	colorBlocked   = rl.Color{R: 110, G: 110, B: 110, A: 255}
	colorPath      = rl.Color{R: 70, G: 90, B: 70, A: 255}

	colorBorderF    = rl.Red
	colorCollisionF = rl.Orange
	colorAvoidF     = rl.Green
	colorTotalF     = rl.White
)

func (r *Renderer) drawFloor() {
	x0, y0 := r.tr.ToScreen(vmath.Vec2{})
	rl.DrawRectangle(int32(x0), int32(y0),
		int32(r.tr.Px(r.cfg.Floor.Width)), int32(r.tr.Px(r.cfg.Floor.Height)), colorFloor)

	for _, z := range r.last.Snap.Zones {
		r.drawZone(z)
	}

	for _, b := range r.last.Snap.Borders {
		ax, ay := r.tr.ToScreen(b.A)
		bx, by := r.tr.ToScreen(b.B)
		rl.DrawLine(int32(ax), int32(ay), int32(bx), int32(by), rl.DarkGray)
	}
}

func (r *Renderer) drawZone(z world.Zone) {
	for _, e := range z.Edges() {
		ax, ay := r.tr.ToScreen(e.A)
		bx, by := r.tr.ToScreen(e.B)
		rl.DrawLineEx(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, 2, colorZone)
	}
	if len(z.Polygon) > 0 && len(z.Polygon[0]) > 0 {
		p := z.Polygon[0][0]
		x, y := r.tr.ToScreen(vmath.Vec2{X: p[0], Y: p[1]})
		rl.DrawText(z.Name, int32(x)+4, int32(y)+4, 12, colorZone)
	}
}

func (r *Renderer) drawFrame(fr *sim.Frame) {
	for i := range fr.Snap.Agents {
		a := &fr.Snap.Agents[i]

		if r.showPaths {
			r.drawPath(a)
		}

		x, y := r.tr.ToScreen(a.Pos)
		radius := r.tr.Px(a.Radius)
		if radius < 2 {
			radius = 2
		}

		c := colorTransport
		switch {
		case a.Status == components.Blocked:
			c = colorBlocked
		case a.Kind == components.KindProducer:
			c = colorProducer
		}
		rl.DrawCircle(int32(x), int32(y), radius, c)

		// Velocity tail
		if !a.Vel.IsZero() {
			tip := a.Pos.Add(a.Vel.Scale(8))
			tx, ty := r.tr.ToScreen(tip)
			rl.DrawLine(int32(x), int32(y), int32(tx), int32(ty), rl.SkyBlue)
		}

		if r.showForces && i < len(fr.Forces) {
			r.drawForces(a.Pos, &fr.Forces[i])
		}
	}
}

func (r *Renderer) drawPath(a *world.AgentState) {
	if len(a.Path) == 0 {
		return
	}

	prev := a.Pos
	for _, wp := range a.Path {
		ax, ay := r.tr.ToScreen(prev)
		bx, by := r.tr.ToScreen(wp)
		rl.DrawLine(int32(ax), int32(ay), int32(bx), int32(by), colorPath)
		rl.DrawCircle(int32(bx), int32(by), 3, colorPath)
		prev = wp
	}
}

func (r *Renderer) drawForces(pos vmath.Vec2, f *steering.Forces) {
	r.drawForce(pos, f.Border, colorBorderF)
	r.drawForce(pos, f.Collision, colorCollisionF)
	r.drawForce(pos, f.Avoid, colorAvoidF)
	r.drawForce(pos, f.Total, colorTotalF)
}

func (r *Renderer) drawForce(pos, force vmath.Vec2, c rl.Color) {
	if force.IsZero() {
		return
	}
	ax, ay := r.tr.ToScreen(pos)
	bx, by := r.tr.ToScreen(pos.Add(force.Scale(forceScale)))
	rl.DrawLine(int32(ax), int32(ay), int32(bx), int32(by), c)
}
