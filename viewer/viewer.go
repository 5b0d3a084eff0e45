// Package viewer is the raylib debug view of a running danger engine.
package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/danger/camera"
	"github.com/pthm-cable/danger/game"
	"github.com/pthm-cable/danger/systems"
)

// shotTrail is a drained shot kept on screen for a short while.
type shotTrail struct {
	shot game.ShotEvent
	ttl  float32
}

// Viewer steps a game and draws it.
type Viewer struct {
	g        *game.Game
	scenario *game.Scenario
	camera   *camera.Camera
	systems  *systems.SystemRegistry

	paused         bool
	stepsPerUpdate int
	follow         int // index into the scenario players, -1 = free camera

	// Overlays
	showPending  bool
	showCells    bool
	showRestless bool
	showPanel    bool

	screenWidth, screenHeight float32

	views    []game.DangerView
	trails   []shotTrail
	contacts int
	occupied map[systems.CellKey]int
}

// New creates a viewer. The raylib window must already be open.
func New(g *game.Game, s *game.Scenario, stepsPerUpdate int) *Viewer {
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	worldW, worldH := s.Size()

	v := &Viewer{
		g:              g,
		scenario:       s,
		camera:         camera.New(w, h, worldW, worldH),
		systems:        systems.NewSystemRegistry(),
		stepsPerUpdate: stepsPerUpdate,
		showPending:    true,
		showPanel:      true,
		screenWidth:    w,
		screenHeight:   h,
		occupied:       make(map[systems.CellKey]int),
	}
	if len(s.Players()) > 0 {
		v.follow = 0
	} else {
		v.follow = -1
	}
	return v
}

// Update handles input and advances the simulation.
func (v *Viewer) Update() {
	v.handleInput()

	frameDT := rl.GetFrameTime()
	for i := range v.trails {
		v.trails[i].ttl -= frameDT
	}
	live := v.trails[:0]
	for _, t := range v.trails {
		if t.ttl > 0 {
			live = append(live, t)
		}
	}
	v.trails = live

	if !v.paused {
		dt := v.g.Config().Derived.DT32
		for i := 0; i < v.stepsPerUpdate; i++ {
			v.scenario.Advance(dt)
			v.g.Step()
			for _, s := range v.g.DrainShots() {
				v.trails = append(v.trails, shotTrail{shot: s, ttl: 0.4})
			}
			v.contacts += len(v.g.LethalContacts())
		}
	}

	if v.follow >= 0 {
		players := v.scenario.Players()
		if v.follow < len(players) {
			if x, y, err := v.g.PlayerPosition(players[v.follow]); err == nil {
				v.camera.Follow(x, y, frameDT)
			}
		}
	}

	v.views = v.g.DangersInto(v.views[:0])
}

// Unload releases viewer resources.
func (v *Viewer) Unload() {
	v.views = nil
	v.trails = nil
}
