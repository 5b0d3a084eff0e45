// Package brain implements utility-based decision making for hostile actors:
// scorers rate candidate behaviors, a picker selects one, and each behavior
// runs as an explicit action state machine.
package brain

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// minDenominator keeps scorer divisions finite for degenerate ranges.
const minDenominator = 1e-6

// Player is a read-only snapshot of one player for the current tick.
type Player struct {
	Entity ecs.Entity
	X, Y   float32
}

// Shot is a fire request waiting for the projectile system.
type Shot struct {
	DirX, DirY       float32 // unit direction from shooter to target
	TargetX, TargetY float32 // target position at fire time
}

// Actor is the per-tick working state of one live actor. The decision system
// loads it from components, actions mutate it, and the system writes it back.
type Actor struct {
	X, Y float32

	Restlessness     float32
	RestlessnessRate float32

	Moving     bool
	DirX, DirY float32

	ShotPending bool
	Shot        Shot
}

// SetMoving sets the movement intent to the given direction, normalised.
// A zero vector falls back to +X so the intent is always a unit vector.
func (a *Actor) SetMoving(dx, dy float32) {
	l := length(dx, dy)
	if l < minDenominator {
		dx, dy, l = 1, 0, 1
	}
	a.Moving = true
	a.DirX = dx / l
	a.DirY = dy / l
}

// StopMoving clears the movement intent.
func (a *Actor) StopMoving() {
	a.Moving = false
	a.DirX, a.DirY = 0, 0
}

// ClearShot drops a pending shot.
func (a *Actor) ClearShot() {
	a.ShotPending = false
	a.Shot = Shot{}
}

// Context is the shared, read-only view of the world for one tick.
type Context struct {
	Now float32
	DT  float32

	Players []Player

	// ArrivalTolerance is the band around a chase target distance that counts as arrived.
	ArrivalTolerance float32
	// RestlessnessScale normalises restlessness for the Restless scorer.
	RestlessnessScale float32

	// Rand is only used while driving actions, which happens serially.
	Rand *rand.Rand
}

// Nearest returns the closest player to (x, y) and its distance.
func (c *Context) Nearest(x, y float32) (Player, float32, bool) {
	best := float32(math.MaxFloat32)
	idx := -1
	for i := range c.Players {
		d := distance(x, y, c.Players[i].X, c.Players[i].Y)
		if d < best {
			best = d
			idx = i
		}
	}
	if idx < 0 {
		return Player{}, 0, false
	}
	return c.Players[idx], best, true
}

// Player looks up a player by entity.
func (c *Context) Player(e ecs.Entity) (Player, bool) {
	for i := range c.Players {
		if c.Players[i].Entity == e {
			return c.Players[i], true
		}
	}
	return Player{}, false
}

func length(x, y float32) float32 {
	fx, fy := float64(x), float64(y)
	return float32(math.Sqrt(fx*fx + fy*fy))
}

func distance(x1, y1, x2, y2 float32) float32 {
	return length(x2-x1, y2-y1)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// safeDiv divides by d clamped away from zero. d is never negative in callers
// that pass a valid range; a negative d is treated like zero.
func safeDiv(n, d float32) float32 {
	if d < minDenominator {
		d = minDenominator
	}
	return n / d
}
