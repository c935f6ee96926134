package render

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/mkrogh/shopfloor/components"
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/sim"
	"github.com/mkrogh/shopfloor/world"
)

const (
	windowWidth  = 1280
	windowHeight = 800
	hudHeight    = 90
)

// Control is what the UI needs from the scheduler.
type Control interface {
	Pause()
	Resume()
	Step() error
	SetRate(hz int) error
	SetStatus(id uint64, status components.Status) error
}

// Renderer owns the window loop. It consumes published frames, never the
// environment itself, so a slow or paused renderer cannot stall a tick.
type Renderer struct {
	ctrl   Control
	frames <-chan *sim.Frame
	cfg    *config.Config
	cam    *Camera
	tr     Transform

	last       *sim.Frame
	paused     bool
	rateHz     float32
	showForces bool
	showPaths  bool
}

// New builds a renderer reading from the given frame subscription. paused
// must match the scheduler's state at startup so the HUD and the space
// toggle stay in sync with it.
func New(ctrl Control, frames <-chan *sim.Frame, cfg *config.Config, paused bool) *Renderer {
	cam := NewCamera(cfg.Floor.Width, cfg.Floor.Height, windowWidth, windowHeight-hudHeight)
	return &Renderer{
		ctrl:      ctrl,
		frames:    frames,
		cfg:       cfg,
		cam:       cam,
		tr:        cam.Transform(),
		paused:    paused,
		rateHz:    float32(cfg.Tick.RateHz),
		showPaths: true,
	}
}

// Run opens the window and draws until it is closed. The simulation keeps
// its own cadence; frames the renderer misses are simply skipped.
func (r *Renderer) Run() {
	rl.InitWindow(windowWidth, windowHeight, "Shop Floor")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(r.cfg.Tick.RenderFPS))

	for !rl.WindowShouldClose() {
		select {
		case fr := <-r.frames:
			r.last = fr
		default:
		}

		r.handleInput()
		r.tr = r.cam.Transform()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 24, G: 26, B: 30, A: 255})
		if r.last != nil {
			r.drawFloor()
			r.drawFrame(r.last)
		}
		r.drawHUD()
		rl.EndDrawing()
	}
}

func (r *Renderer) handleInput() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		if r.paused {
			r.ctrl.Resume()
		} else {
			r.ctrl.Pause()
		}
		r.paused = !r.paused

	case rl.IsKeyPressed(rl.KeyS):
		if !r.paused {
			r.ctrl.Pause()
			r.paused = true
		}
		r.ctrl.Step()

	case rl.IsKeyPressed(rl.KeyF):
		r.showForces = !r.showForces

	case rl.IsKeyPressed(rl.KeyP):
		r.showPaths = !r.showPaths

	case rl.IsKeyPressed(rl.KeyB):
		r.toggleNearestAgent()

	case rl.IsKeyPressed(rl.KeyR):
		r.cam.Reset()
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		factor := 1.0 + 0.1*float64(wheel)
		r.cam.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		r.cam.Pan(-delta.X, -delta.Y)
	}
}

// pickRadiusPx is how close, in pixels, the cursor must be to select an
// agent.
const pickRadiusPx = 20

// toggleNearestAgent flips the Alive/Blocked status of the agent under the
// mouse cursor.
func (r *Renderer) toggleNearestAgent() {
	if r.last == nil {
		return
	}
	mouse := rl.GetMousePosition()

	idx, ok := nearestAgent(r.last.Snap.Agents, r.tr, mouse.X, mouse.Y, pickRadiusPx)
	if !ok {
		return
	}

	a := &r.last.Snap.Agents[idx]
	next := components.Blocked
	if a.Status == components.Blocked {
		next = components.Alive
	}
	r.ctrl.SetStatus(a.ID, next)
}

// nearestAgent returns the index of the agent whose screen position is
// closest to (mx, my), or false if none is within maxPx.
func nearestAgent(agents []world.AgentState, tr Transform, mx, my, maxPx float32) (int, bool) {
	bestDistSq := maxPx * maxPx
	best := -1
	for i := range agents {
		x, y := tr.ToScreen(agents[i].Pos)
		dx, dy := mx-x, my-y
		if d := dx*dx + dy*dy; d < bestDistSq {
			bestDistSq = d
			best = i
		}
	}
	return best, best >= 0
}

func (r *Renderer) drawHUD() {
	y := int32(windowHeight - hudHeight)
	rl.DrawRectangle(0, y, windowWidth, hudHeight, rl.Color{R: 16, G: 16, B: 18, A: 255})

	if r.last != nil {
		rl.DrawText(fmt.Sprintf("Tick: %d | Agents: %d | FPS: %d",
			r.last.Snap.Tick, len(r.last.Snap.Agents), rl.GetFPS()),
			10, y+8, 16, rl.LightGray)

		perf := ""
		for _, phase := range []string{"snapshot", "compute", "commit", "publish"} {
			if d, ok := r.last.Perf[phase]; ok {
				perf += fmt.Sprintf("%s %s  ", phase, d.Round(10e3))
			}
		}
		rl.DrawText(perf, 10, y+28, 14, rl.Gray)
	}

	statusText := "Running"
	statusColor := rl.Green
	if r.paused {
		statusText = "PAUSED"
		statusColor = rl.Yellow
	}
	rl.DrawText(statusText, windowWidth-130, y+8, 16, statusColor)

	// Tick rate slider
	rl.DrawText("rate", 10, y+52, 14, rl.Gray)
	newRate := gui.SliderBar(
		rl.Rectangle{X: 50, Y: float32(y + 50), Width: 220, Height: 18},
		"1", "120",
		r.rateHz, 1, 120,
	)
	rl.DrawText(fmt.Sprintf("%.0f/s", r.rateHz), 280, y+52, 14, rl.LightGray)
	if int(newRate) != int(r.rateHz) {
		r.rateHz = newRate
		r.ctrl.SetRate(int(newRate))
	}

	rl.DrawText("[space] pause  [s] step  [f] forces  [p] paths  [b] block  [r] reset view  wheel zoom  rmb pan",
		windowWidth-700, y+52, 14, rl.Gray)
}
