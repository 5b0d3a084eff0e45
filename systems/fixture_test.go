package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
	"github.com/pthm-cable/danger/config"
)

// fixture wires the systems over a fresh world, the way the game does.
type fixture struct {
	w    *ecs.World
	grid *DangerGrid
	reg  *brain.Registry

	act  *ActivationSystem
	rest *RestlessnessSystem
	dec  *DecisionSystem
	mov  *MovementSystem
	view *PlayerView

	dangerMap  *ecs.Map3[components.Position, components.DangerType, components.Danger]
	playerMap  *ecs.Map2[components.Position, components.Player]
	posMap     *ecs.Map[components.Position]
	pendingMap *ecs.Map[components.Pending]
	liveMap    *ecs.Map[components.Live]
	restMap    *ecs.Map[components.Restlessness]
	brainMap   *ecs.Map[components.Brain]
	movingMap  *ecs.Map[components.Moving]
	shotMap    *ecs.Map[components.Shot]
	lethalMap  *ecs.Map[components.LethalTouch]
	canMoveMap *ecs.Map[components.CanMove]
	visualMap  *ecs.Map[components.Visual]
}

func newFixture(t *testing.T, parallelThreshold int) *fixture {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	reg, err := brain.NewRegistry(cfg.Archetypes)
	require.NoError(t, err)

	w := ecs.NewWorld()
	grid := NewDangerGrid(500)
	f := &fixture{
		w:    w,
		grid: grid,
		reg:  reg,
		act:  NewActivationSystem(w, grid, reg, nil),
		rest: NewRestlessnessSystem(w),
		dec:  NewDecisionSystem(w, 4, parallelThreshold),
		mov:  NewMovementSystem(w),
		view: NewPlayerView(w),

		dangerMap:  ecs.NewMap3[components.Position, components.DangerType, components.Danger](w),
		playerMap:  ecs.NewMap2[components.Position, components.Player](w),
		posMap:     ecs.NewMap[components.Position](w),
		pendingMap: ecs.NewMap[components.Pending](w),
		liveMap:    ecs.NewMap[components.Live](w),
		restMap:    ecs.NewMap[components.Restlessness](w),
		brainMap:   ecs.NewMap[components.Brain](w),
		movingMap:  ecs.NewMap[components.Moving](w),
		shotMap:    ecs.NewMap[components.Shot](w),
		lethalMap:  ecs.NewMap[components.LethalTouch](w),
		canMoveMap: ecs.NewMap[components.CanMove](w),
		visualMap:  ecs.NewMap[components.Visual](w),
	}
	t.Cleanup(f.dec.Stop)
	return f
}

func (f *fixture) danger(t *testing.T, name string, x, y float32) ecs.Entity {
	t.Helper()
	arch, err := f.reg.ByName(name)
	require.NoError(t, err)
	return f.dangerMap.NewEntity(
		&components.Position{X: x, Y: y},
		&components.DangerType{Index: arch.Index},
		&components.Danger{Radius: arch.Radius},
	)
}

func (f *fixture) player(x, y float32) ecs.Entity {
	return f.playerMap.NewEntity(&components.Position{X: x, Y: y}, &components.Player{})
}

func (f *fixture) players() []brain.Player {
	return f.view.CollectInto(nil)
}

func (f *fixture) ctx(now float32) *brain.Context {
	return &brain.Context{
		Now:               now,
		DT:                0.1,
		Players:           f.players(),
		ArrivalTolerance:  10,
		RestlessnessScale: 100,
		Rand:              rand.New(rand.NewSource(1)),
	}
}

// requireExactlyOneState checks the pending/live exclusivity invariant.
func (f *fixture) requireExactlyOneState(t *testing.T, e ecs.Entity) {
	t.Helper()
	pending := f.pendingMap.Has(e)
	live := f.liveMap.Has(e)
	require.True(t, pending != live, "entity must be exactly one of pending (%v) or live (%v)", pending, live)
	require.Equal(t, pending, f.grid.Contains(e), "pending entities and only they have a grid record")
	require.Equal(t, live, f.brainMap.Has(e))
	require.Equal(t, live, f.restMap.Has(e))
}
