package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/danger/brain"
)

func activateAll(t *testing.T, f *fixture) {
	t.Helper()
	f.act.Discover()
	f.act.Activate(f.players(), 0)
}

func TestDecisionChasesNearbyPlayer(t *testing.T) {
	f := newFixture(t, 0)
	e := f.danger(t, "holy_hulk", 0, 0)
	f.player(100, 0)
	activateAll(t, f)

	stats := f.dec.Update(f.ctx(0))
	assert.Equal(t, 1, stats.Actors)
	assert.Equal(t, 1, stats.Requests)
	assert.Equal(t, brain.KindChasing, f.brainMap.Get(e).Thinker.Current())
	assert.False(t, f.movingMap.Has(e))

	f.dec.Update(f.ctx(0.1))
	require.True(t, f.movingMap.Has(e))
	assert.InDelta(t, 1, f.movingMap.Get(e).X, 1e-6)

	f.mov.Update(0.1)
	assert.InDelta(t, 5, f.posMap.Get(e).X, 1e-4, "moves speed*dt toward the player")
}

func TestDecisionEmitsShot(t *testing.T) {
	f := newFixture(t, 0)
	e := f.danger(t, "angelic_archer", 0, 0)
	f.player(0, 150)
	activateAll(t, f)

	f.dec.Update(f.ctx(0))
	assert.Equal(t, brain.KindShooting, f.brainMap.Get(e).Thinker.Current())

	stats := f.dec.Update(f.ctx(0.1))
	assert.Equal(t, 1, stats.Shots)
	require.True(t, f.shotMap.Has(e))
	shot := f.shotMap.Get(e)
	assert.InDelta(t, 1, shot.DirY, 1e-6)
	assert.Equal(t, float32(150), shot.TargetY)
	assert.Equal(t, float32(0.1), shot.FiredAt)

	// Unconsumed shot: the archer keeps committing and does not fire again.
	stats = f.dec.Update(f.ctx(0.2))
	assert.Zero(t, stats.Shots)
	assert.Equal(t, brain.KindShooting, f.brainMap.Get(e).Thinker.Current())
}

func TestDecisionMeandersWhenRestless(t *testing.T) {
	f := newFixture(t, 0)
	e := f.danger(t, "holy_hulk", 0, 0)
	f.player(1000, 0)
	activateAll(t, f)
	f.restMap.Get(e).Current = 150

	f.dec.Update(f.ctx(0))
	assert.Equal(t, brain.KindMeandering, f.brainMap.Get(e).Thinker.Current())
	assert.True(t, f.movingMap.Has(e))
}

func TestDecisionSwitchCancelsMeander(t *testing.T) {
	f := newFixture(t, 0)
	e := f.danger(t, "holy_hulk", 0, 0)
	p := f.player(1000, 0)
	activateAll(t, f)
	f.restMap.Get(e).Current = 150

	f.dec.Update(f.ctx(0))
	require.Equal(t, brain.KindMeandering, f.brainMap.Get(e).Thinker.Current())

	f.posMap.Get(p).X = 50
	stats := f.dec.Update(f.ctx(0.1))
	assert.Equal(t, 1, stats.Cancels)
	assert.Equal(t, brain.KindChasing, f.brainMap.Get(e).Thinker.Current())
	assert.False(t, f.movingMap.Has(e), "the cancelled meander leaves no intent behind")
}

func TestDecisionWithoutPlayersRests(t *testing.T) {
	f := newFixture(t, 0)
	e := f.danger(t, "angelic_archer", 0, 0)
	p := f.player(0, 0)
	activateAll(t, f)
	f.w.RemoveEntity(p)

	stats := f.dec.Update(f.ctx(0))
	assert.Equal(t, brain.KindResting, f.brainMap.Get(e).Thinker.Current())
	assert.Equal(t, brain.Executing, f.brainMap.Get(e).Thinker.CurrentState())
	assert.Zero(t, stats.Successes)

	stats = f.dec.Update(f.ctx(0.1))
	assert.Equal(t, 1, stats.Successes)
}

// Scoring on the worker pool must give the same results as scoring serially.
func TestDecisionParallelMatchesSerial(t *testing.T) {
	names := []string{"holy_hulk", "lumbering_devil", "angelic_archer", "stealthy_seraphim", "divine_detonator"}
	build := func(threshold int) (*fixture, []ecs.Entity) {
		f := newFixture(t, threshold)
		var ents []ecs.Entity
		for i := 0; i < 150; i++ {
			x := float32(i%15)*60 - 450
			y := float32(i/15)*60 - 300
			ents = append(ents, f.danger(t, names[i%len(names)], x, y))
		}
		f.player(0, 0)
		f.player(200, -100)
		activateAll(t, f)
		for _, e := range ents {
			f.restMap.Get(e).Current = float32(len(ents)) // everyone restless
		}
		return f, ents
	}

	serial, se := build(1 << 20)
	parallel, pe := build(1)

	for tick := 0; tick < 5; tick++ {
		now := float32(tick) * 0.1
		s1 := serial.dec.Update(serial.ctx(now))
		s2 := parallel.dec.Update(parallel.ctx(now))
		require.Equal(t, s1, s2, "tick %d", tick)
		serial.mov.Update(0.1)
		parallel.mov.Update(0.1)
	}

	for i := range se {
		assert.Equal(t,
			serial.brainMap.Get(se[i]).Thinker.Current(),
			parallel.brainMap.Get(pe[i]).Thinker.Current(), "actor %d", i)
		assert.Equal(t, *serial.posMap.Get(se[i]), *parallel.posMap.Get(pe[i]), "actor %d", i)
	}
}

func TestRestlessnessAccumulates(t *testing.T) {
	f := newFixture(t, 0)
	live := f.danger(t, "holy_hulk", 0, 0)
	exempt := f.danger(t, "holy_hulk", 10, 0)
	pending := f.danger(t, "holy_hulk", 5000, 0)
	f.player(0, 0)
	activateAll(t, f)
	f.act.SetExempt(exempt, true, 0)

	for i := 0; i < 10; i++ {
		f.rest.Update(0.1)
	}
	assert.InDelta(t, 25, f.restMap.Get(live).Current, 1e-4)
	assert.Zero(t, f.restMap.Get(exempt).Current, "exempt dangers do not grow restless")
	assert.False(t, f.restMap.Has(pending))
}
