package brain

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
)

func ctxWithPlayers(pts ...[2]float32) *Context {
	ctx := &Context{DT: 0.1, ArrivalTolerance: 10, RestlessnessScale: 100}
	for _, p := range pts {
		ctx.Players = append(ctx.Players, Player{X: p[0], Y: p[1]})
	}
	return ctx
}

func TestChaseScorer(t *testing.T) {
	tests := []struct {
		name   string
		scorer ChaseScorer
		dist   float32
		want   float32
	}{
		// Player 50 away, well inside the trigger distance.
		{"inside trigger", ChaseScorer{TriggerDistance: 150, MaxDistance: 200, TargetDistance: 0}, 50, 1},
		{"at trigger", ChaseScorer{TriggerDistance: 150, MaxDistance: 200, TargetDistance: 0}, 150, 1},
		{"halfway past trigger", ChaseScorer{TriggerDistance: 150, MaxDistance: 200, TargetDistance: 0}, 250, 0.5},
		{"far away", ChaseScorer{TriggerDistance: 150, MaxDistance: 200, TargetDistance: 0}, 1000, 0},
		{"on target ring", ChaseScorer{TriggerDistance: 600, MaxDistance: 700, TargetDistance: 150}, 150, 1},
		{"inside target ring", ChaseScorer{TriggerDistance: 600, MaxDistance: 700, TargetDistance: 150}, 75, 0.5},
		{"on top of player", ChaseScorer{TriggerDistance: 600, MaxDistance: 700, TargetDistance: 150}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ctxWithPlayers([2]float32{tt.dist, 0})
			got := tt.scorer.Score(ctx, &Actor{})
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestShootScorer(t *testing.T) {
	s := ShootScorer{MaxRange: 300, TooClose: 100, PreferredDistance: 150}
	tests := []struct {
		name string
		dist float32
		want float32
	}{
		{"too close", 50, 0},
		{"beyond range", 350, 0},
		{"preferred", 150, 1},
		{"between too close and preferred", 125, 0.5},
		{"between preferred and max", 225, 0.5},
		{"at max range", 300, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ctxWithPlayers([2]float32{tt.dist, 0})
			assert.InDelta(t, tt.want, s.Score(ctx, &Actor{}), 1e-4)
		})
	}
}

func TestShootScorerCommitsToPendingShot(t *testing.T) {
	s := ShootScorer{MaxRange: 300, TooClose: 100, PreferredDistance: 150}
	ctx := ctxWithPlayers([2]float32{5000, 0})
	assert.Equal(t, float32(1), s.Score(ctx, &Actor{ShotPending: true}))

	// Even without players.
	assert.Equal(t, float32(1), s.Score(&Context{}, &Actor{ShotPending: true}))
}

func TestRestlessScorer(t *testing.T) {
	ctx := ctxWithPlayers()
	tests := []struct {
		current float32
		want    float32
	}{
		{0, 0},
		{50, 0.5},
		{150, 1},
		{-40, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RestlessScorer{}.Score(ctx, &Actor{Restlessness: tt.current}), 1e-6)
	}
}

func TestScorersWithoutPlayers(t *testing.T) {
	ctx := ctxWithPlayers()
	assert.Zero(t, ChaseScorer{TriggerDistance: 1, MaxDistance: 2}.Score(ctx, &Actor{}))
	assert.Zero(t, ShootScorer{MaxRange: 300}.Score(ctx, &Actor{}))
}

// Degenerate geometry must never produce NaN, Inf or values outside [0, 1].
func TestScorersStayInUnitInterval(t *testing.T) {
	scorers := []Scorer{
		ChaseScorer{TriggerDistance: 0, MaxDistance: 0, TargetDistance: 0},
		ChaseScorer{TriggerDistance: 100, MaxDistance: 150, TargetDistance: 150},
		ChaseScorer{TriggerDistance: 600, MaxDistance: 700, TargetDistance: 150},
		ShootScorer{MaxRange: 0, TooClose: 0, PreferredDistance: 0},
		ShootScorer{MaxRange: 90, TooClose: 90, PreferredDistance: 90},
		ShootScorer{MaxRange: 250, TooClose: 0, PreferredDistance: 90},
		RestlessScorer{},
	}
	distances := []float32{0, 1e-7, 0.5, 10, 89.9, 90, 90.1, 150, 1e4, 1e30}
	restless := []float32{-1e9, -1, 0, 99, 1e9}

	for _, s := range scorers {
		for _, d := range distances {
			for _, r := range restless {
				ctx := ctxWithPlayers([2]float32{d, 0})
				got := s.Score(ctx, &Actor{Restlessness: r})
				assert.False(t, math.IsNaN(float64(got)), "%s d=%v r=%v", s.Kind(), d, r)
				assert.GreaterOrEqual(t, got, float32(0), "%s d=%v", s.Kind(), d)
				assert.LessOrEqual(t, got, float32(1), "%s d=%v", s.Kind(), d)
			}
		}
	}
}

func TestNearestPlayer(t *testing.T) {
	ctx := &Context{Players: []Player{
		{Entity: ecs.Entity{}, X: 300, Y: 0},
		{X: 0, Y: 100},
		{X: -500, Y: -500},
	}}
	p, d, ok := ctx.Nearest(0, 0)
	assert.True(t, ok)
	assert.Equal(t, float32(100), p.Y)
	assert.InDelta(t, 100, d, 1e-4)
}
