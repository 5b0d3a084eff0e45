package brain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playerTag struct{ n int }

// newPlayers creates real entities so target caching can tell players apart.
func newPlayers(t *testing.T, n int) []ecs.Entity {
	t.Helper()
	w := ecs.NewWorld()
	m := ecs.NewMap[playerTag](w)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = m.NewEntity(&playerTag{n: i})
	}
	return out
}

func TestRestingLifecycle(t *testing.T) {
	r := &Resting{}
	r.Reset()
	r.Step(&Context{}, &Actor{})
	assert.Equal(t, Executing, r.State())
	r.Step(&Context{}, &Actor{})
	assert.Equal(t, Success, r.State())

	r.Reset()
	r.Step(&Context{}, &Actor{})
	r.Cancel(&Context{}, &Actor{})
	assert.Equal(t, Cancelled, r.State())
	assert.True(t, r.State().Terminal())
}

func TestChasingLifecycle(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{{Entity: ents[0], X: 200, Y: 0}}}
	c := &Chasing{MaxDistance: 300, TargetDistance: 0}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	require.Equal(t, Executing, c.State())
	assert.False(t, a.Moving, "entering execution emits no intent")

	c.Step(ctx, a)
	assert.Equal(t, Executing, c.State())
	assert.True(t, a.Moving)
	assert.InDelta(t, 1, a.DirX, 1e-6)
	assert.InDelta(t, 0, a.DirY, 1e-6)

	// Arrive within tolerance.
	a.X = 195
	c.Step(ctx, a)
	assert.Equal(t, Success, c.State())
	assert.False(t, a.Moving, "success clears the movement intent")
}

func TestChasingBacksOffInsideTargetRing(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{{Entity: ents[0], X: 0, Y: 50}}}
	c := &Chasing{MaxDistance: 600, TargetDistance: 150}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	require.True(t, a.Moving)
	assert.InDelta(t, -1, a.DirY, 1e-6, "moves away from a player closer than the target distance")
}

func TestChasingFailsBeyondMaxDistance(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{{Entity: ents[0], X: 400, Y: 0}}}
	c := &Chasing{MaxDistance: 300}
	a := &Actor{Moving: true, DirX: 1}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	assert.Equal(t, Failure, c.State())
	assert.False(t, a.Moving)
}

func TestChasingWithoutPlayersSkipsTick(t *testing.T) {
	ctx := &Context{DT: 0.1}
	c := &Chasing{MaxDistance: 300}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	c.Step(ctx, a)
	assert.Equal(t, Executing, c.State())
	assert.False(t, a.Moving)
}

func TestChasingFailsWhenCachedTargetDisappears(t *testing.T) {
	ents := newPlayers(t, 2)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{
		{Entity: ents[0], X: 100, Y: 0},
		{Entity: ents[1], X: 250, Y: 0},
	}}
	c := &Chasing{MaxDistance: 300}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	require.Equal(t, Executing, c.State())

	// The locked player leaves; the other one is not picked up.
	ctx.Players = ctx.Players[1:]
	c.Step(ctx, a)
	assert.Equal(t, Failure, c.State())
	assert.False(t, a.Moving)
}

func TestChasingKeepsCachedTarget(t *testing.T) {
	ents := newPlayers(t, 2)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{
		{Entity: ents[0], X: 100, Y: 0},
		{Entity: ents[1], X: -250, Y: 0},
	}}
	c := &Chasing{MaxDistance: 300}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	require.InDelta(t, 1, a.DirX, 1e-6)

	// The other player is now closer but the chase stays on its target.
	ctx.Players[1].X = -20
	c.Step(ctx, a)
	assert.InDelta(t, 1, a.DirX, 1e-6)
}

func TestChasingDrainsRestlessness(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{DT: 0.5, ArrivalTolerance: 10, Players: []Player{{Entity: ents[0], X: 200, Y: 0}}}
	a := &Actor{Restlessness: 40, RestlessnessRate: 20}

	drain := &Chasing{MaxDistance: 300, DrainsRestlessness: true}
	drain.Reset()
	drain.Step(ctx, a)
	drain.Step(ctx, a)
	assert.InDelta(t, 30, a.Restlessness, 1e-5)

	keep := &Chasing{MaxDistance: 300}
	keep.Reset()
	keep.Step(ctx, a)
	keep.Step(ctx, a)
	assert.InDelta(t, 30, a.Restlessness, 1e-5)
}

func TestChasingCancelClearsIntent(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, Players: []Player{{Entity: ents[0], X: 200, Y: 0}}}
	c := &Chasing{MaxDistance: 300}
	a := &Actor{}

	c.Reset()
	c.Step(ctx, a)
	c.Step(ctx, a)
	require.True(t, a.Moving)

	c.Cancel(ctx, a)
	assert.False(t, a.Moving)
	assert.Equal(t, Cancelled, c.State())
	assert.True(t, c.State().Terminal())
}

func TestShootingCooldown(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{Now: 0, DT: 0.1, Players: []Player{{Entity: ents[0], X: 0, Y: 150}}}
	s := &Shooting{MaxRange: 300, TooClose: 100, Cooldown: 6}
	a := &Actor{}

	s.Reset()
	s.Step(ctx, a)
	require.Equal(t, Executing, s.State())

	// Never shot before, so the first shot fires immediately.
	s.Step(ctx, a)
	require.True(t, a.ShotPending)
	assert.InDelta(t, 1, a.Shot.DirY, 1e-6)
	assert.Equal(t, float32(150), a.Shot.TargetY)

	// A pending shot blocks the action without restarting the cooldown.
	ctx.Now = 10
	s.Step(ctx, a)
	assert.True(t, a.ShotPending)
	assert.Equal(t, float32(150), a.Shot.TargetY)

	// Projectile system consumes the shot.
	a.ClearShot()
	ctx.Now = 3
	s.Step(ctx, a)
	assert.False(t, a.ShotPending, "still cooling down")

	ctx.Now = 6
	s.Step(ctx, a)
	assert.True(t, a.ShotPending)
	assert.Equal(t, Executing, s.State(), "shooting keeps executing after firing")
}

func TestShootingCooldownSurvivesReRequest(t *testing.T) {
	ents := newPlayers(t, 1)
	ctx := &Context{Now: 1, Players: []Player{{Entity: ents[0], X: 150, Y: 0}}}
	s := &Shooting{MaxRange: 300, TooClose: 100, Cooldown: 6}
	a := &Actor{}

	s.Reset()
	s.Step(ctx, a)
	s.Step(ctx, a)
	require.True(t, a.ShotPending)
	a.ClearShot()

	s.Reset()
	ctx.Now = 2
	s.Step(ctx, a)
	s.Step(ctx, a)
	assert.False(t, a.ShotPending)
}

func TestShootingFailsOutOfRange(t *testing.T) {
	ents := newPlayers(t, 1)
	for _, x := range []float32{50, 400} {
		ctx := &Context{Players: []Player{{Entity: ents[0], X: x, Y: 0}}}
		s := &Shooting{MaxRange: 300, TooClose: 100, Cooldown: 6}
		a := &Actor{}
		s.Reset()
		s.Step(ctx, a)
		s.Step(ctx, a)
		assert.Equal(t, Failure, s.State(), "x=%v", x)
		assert.False(t, a.ShotPending)
	}
}

func TestShootingCancelClearsPendingShot(t *testing.T) {
	a := &Actor{ShotPending: true, Shot: Shot{DirX: 1}}
	s := &Shooting{MaxRange: 300, Cooldown: 6}
	s.Reset()
	s.Cancel(&Context{}, a)
	assert.False(t, a.ShotPending)
	assert.Equal(t, Shot{}, a.Shot)
	assert.Equal(t, Cancelled, s.State())
}

func TestMeanderingLifecycle(t *testing.T) {
	ctx := &Context{DT: 0.1, Rand: rand.New(rand.NewSource(7))}
	m := &Meandering{Recovery: 35}
	a := &Actor{Restlessness: 12, RestlessnessRate: 25}

	m.Reset()
	m.Step(ctx, a)
	require.Equal(t, Executing, m.State())
	require.True(t, a.Moving)
	assert.InDelta(t, 1, math.Hypot(float64(a.DirX), float64(a.DirY)), 1e-5, "direction is a unit vector")

	// (35+25)*0.1 = 6 per tick.
	m.Step(ctx, a)
	assert.InDelta(t, 6, a.Restlessness, 1e-4)
	assert.Equal(t, Executing, m.State())

	m.Step(ctx, a)
	assert.InDelta(t, 0, a.Restlessness, 1e-4)
	assert.Equal(t, Success, m.State())
	assert.False(t, a.Moving)
}

// Restlessness has no floor: a meander can overshoot below zero, which delays
// the next time the actor becomes restless.
func TestMeanderingOvershootsBelowZero(t *testing.T) {
	ctx := &Context{DT: 0.1, Rand: rand.New(rand.NewSource(1))}
	m := &Meandering{Recovery: 35}
	a := &Actor{Restlessness: 1, RestlessnessRate: 25}

	m.Reset()
	m.Step(ctx, a)
	m.Step(ctx, a)
	assert.Equal(t, Success, m.State())
	assert.InDelta(t, -5, a.Restlessness, 1e-4)
}

func TestMeanderingCancelClearsIntent(t *testing.T) {
	ctx := &Context{DT: 0.1, Rand: rand.New(rand.NewSource(1))}
	m := &Meandering{Recovery: 35}
	a := &Actor{Restlessness: 100}
	m.Reset()
	m.Step(ctx, a)
	require.True(t, a.Moving)

	m.Cancel(ctx, a)
	assert.False(t, a.Moving)
	assert.Equal(t, Cancelled, m.State())
}
