package viewer

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/systems"
	"github.com/pthm-cable/danger/telemetry"
)

var (
	backgroundColor = rl.Color{R: 40, G: 42, B: 54, A: 255}
	cellLineColor   = rl.Color{R: 70, G: 72, B: 90, A: 255}
	cellFillColor   = rl.Color{R: 120, G: 120, B: 160, A: 0}
	pendingColor    = rl.Color{R: 140, G: 140, B: 150, A: 160}
	playerColor     = rl.Color{R: 80, G: 220, B: 120, A: 255}
)

// actionColor is the debug color for a live danger's current action.
func actionColor(kind brain.ActionKind) rl.Color {
	switch kind {
	case brain.KindResting:
		return rl.Blue
	case brain.KindChasing:
		return rl.Orange
	case brain.KindMeandering:
		return rl.White
	default:
		return rl.Black
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	v.g.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	v.drawWorldBounds()
	if v.showCells {
		v.drawCells()
	}
	v.drawDangers()
	v.drawShots()
	v.drawPlayers()
	v.drawHUD()
	if v.showPanel {
		v.drawPanel()
	}

	rl.EndDrawing()
}

func (v *Viewer) drawWorldBounds() {
	w, h := v.scenario.Size()
	x0, y0 := v.camera.WorldToScreen(0, 0)
	x1, y1 := v.camera.WorldToScreen(w, h)
	rl.DrawRectangleLines(int32(x0), int32(y0), int32(x1-x0), int32(y1-y0), rl.Gray)
}

// drawCells shades cells holding pending records and draws the grid lines
// over the visible area.
func (v *Viewer) drawCells() {
	grid := v.g.Grid()
	size := grid.CellSize()
	minX, minY, maxX, maxY := v.camera.VisibleWorldBounds()

	clear(v.occupied)
	grid.Each(func(r systems.PendingRecord) {
		v.occupied[systems.CellOf(r.X, r.Y, size)]++
	})
	for key, n := range v.occupied {
		x0, y0 := float32(key.X)*size, float32(key.Y)*size
		if x0 > maxX || y0 > maxY || x0+size < minX || y0+size < minY {
			continue
		}
		sx, sy := v.camera.WorldToScreen(x0, y0)
		side := size * v.camera.Zoom
		shade := cellFillColor
		shade.A = uint8(min(20+n*8, 120))
		rl.DrawRectangleV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: side, Y: side}, shade)
	}

	startX := float32(math.Floor(float64(minX/size))) * size
	startY := float32(math.Floor(float64(minY/size))) * size
	for x := startX; x <= maxX; x += size {
		sx, sy0 := v.camera.WorldToScreen(x, minY)
		_, sy1 := v.camera.WorldToScreen(x, maxY)
		rl.DrawLineV(rl.Vector2{X: sx, Y: sy0}, rl.Vector2{X: sx, Y: sy1}, cellLineColor)
	}
	for y := startY; y <= maxY; y += size {
		sx0, sy := v.camera.WorldToScreen(minX, y)
		sx1, _ := v.camera.WorldToScreen(maxX, y)
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy}, rl.Vector2{X: sx1, Y: sy}, cellLineColor)
	}
}

func (v *Viewer) drawDangers() {
	maxRest := float32(v.g.Config().Decision.MaxRestlessness)
	zoom := v.camera.Zoom

	for _, d := range v.views {
		radius := max(d.Radius, 4)
		if !v.camera.IsVisible(d.X, d.Y, radius) {
			continue
		}
		sx, sy := v.camera.WorldToScreen(d.X, d.Y)
		r := max(radius*zoom, 2)

		if !d.Live {
			if v.showPending {
				s := max(3*zoom, 2)
				rl.DrawLineV(rl.Vector2{X: sx - s, Y: sy - s}, rl.Vector2{X: sx + s, Y: sy + s}, pendingColor)
				rl.DrawLineV(rl.Vector2{X: sx - s, Y: sy + s}, rl.Vector2{X: sx + s, Y: sy - s}, pendingColor)
			}
			continue
		}

		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, actionColor(d.Action))
		if d.Lethal {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, r+1, rl.Red)
		}
		if d.Exempt {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, r+3, rl.Yellow)
		}
		if v.showRestless && maxRest > 0 {
			frac := d.Restlessness / maxRest
			if frac > 1 {
				frac = 1
			}
			if frac > 0 {
				rl.DrawRing(rl.Vector2{X: sx, Y: sy}, r+4, r+6, -90, -90+360*frac, 24, rl.Purple)
			}
		}
	}
}

func (v *Viewer) drawShots() {
	for _, t := range v.trails {
		x0, y0 := v.camera.WorldToScreen(t.shot.X, t.shot.Y)
		x1, y1 := v.camera.WorldToScreen(t.shot.TargetX, t.shot.TargetY)
		c := rl.Red
		c.A = uint8(255 * min(t.ttl/0.4, 1))
		rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 2, c)
	}
}

func (v *Viewer) drawPlayers() {
	for i, p := range v.scenario.Players() {
		x, y, err := v.g.PlayerPosition(p)
		if err != nil {
			continue
		}
		sx, sy := v.camera.WorldToScreen(x, y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, max(12*v.camera.Zoom, 4), playerColor)

		// Despawn radius
		rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, v.g.Config().Derived.DespawnDistance32*v.camera.Zoom, cellLineColor)
		if i == v.follow {
			rl.DrawText("P", int32(sx)-4, int32(sy)-24, 16, playerColor)
		}
	}
}

func (v *Viewer) drawHUD() {
	var live, pending int
	for _, d := range v.views {
		if d.Live {
			live++
		} else {
			pending++
		}
	}

	rl.DrawText(fmt.Sprintf("Tick: %d  t=%.1fs", v.g.Tick(), v.g.Now()), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Live: %d  Pending: %d  Contacts: %d", live, pending, v.contacts), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]  Follow: [Tab]", v.stepsPerUpdate), 10, 60, 20, rl.White)
	if v.paused {
		rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
	}

	legendY := int32(v.screenHeight) - 30
	x := int32(10)
	for _, k := range []brain.ActionKind{brain.KindResting, brain.KindChasing, brain.KindMeandering, brain.KindShooting} {
		rl.DrawCircle(x+6, legendY+8, 6, actionColor(k))
		rl.DrawText(k.String(), x+16, legendY, 16, rl.LightGray)
		x += 130
	}
}

// drawPanel renders the overlay controls.
func (v *Viewer) drawPanel() {
	panelW := float32(220)
	panelX := v.screenWidth - panelW - 10
	panelY := float32(10)

	panelH := float32(250 + 16*len(telemetry.Phases))
	rl.DrawRectangle(int32(panelX), int32(panelY), int32(panelW), int32(panelH), rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawRectangleLines(int32(panelX), int32(panelY), int32(panelW), int32(panelH), rl.Yellow)
	rl.DrawText("DEBUG [D to close]", int32(panelX)+10, int32(panelY)+8, 14, rl.Yellow)

	x := panelX + 10
	y := panelY + 32
	v.showPending = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Pending markers", v.showPending)
	y += 24
	v.showCells = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Grid cells", v.showCells)
	y += 24
	v.showRestless = gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Restlessness", v.showRestless)
	y += 30

	rl.DrawText("Steps per frame", int32(x), int32(y), 12, rl.Gray)
	y += 16
	steps := gui.SliderBar(rl.Rectangle{X: x + 16, Y: y, Width: panelW - 70, Height: 16}, "1", "10", float32(v.stepsPerUpdate), 1, 10)
	v.stepsPerUpdate = int(steps + 0.5)
	y += 28

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 95, Height: 24}, pauseLabel(v.paused)) {
		v.paused = !v.paused
	}
	if gui.Button(rl.Rectangle{X: x + 105, Y: y, Width: 95, Height: 24}, "Teardown") {
		v.g.Teardown()
	}
	y += 34

	stats := v.g.PerfStats()
	rl.DrawText(fmt.Sprintf("Tick: %v  TPS: %.0f", stats.AvgTickDuration, stats.TicksPerSecond), int32(x), int32(y), 12, rl.White)
	y += 16
	rl.DrawText(fmt.Sprintf("FPS: %.0f", stats.FPS), int32(x), int32(y), 12, rl.White)
	y += 20

	for _, ph := range telemetry.Phases {
		if stats.PhaseAvg[ph] == 0 {
			continue
		}
		name := v.systems.GetName(ph.String())
		rl.DrawText(fmt.Sprintf("%-14s %5.1f%%", name, stats.PhasePct[ph]), int32(x), int32(y), 12, rl.LightGray)
		y += 16
	}
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}
