package brain

import (
	"math"

	"github.com/mlange-42/ark/ecs"
)

// ActionState is the lifecycle of one action instance.
type ActionState uint8

const (
	Requested ActionState = iota
	Executing
	Cancelled
	Success
	Failure
)

func (s ActionState) String() string {
	switch s {
	case Requested:
		return "requested"
	case Executing:
		return "executing"
	case Cancelled:
		return "cancelled"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the action. A cancelled action
// is settled: it is not stepped again until it is requested anew.
func (s ActionState) Terminal() bool {
	return s == Success || s == Failure || s == Cancelled
}

// ActionKind labels an action for debug drawing and telemetry.
type ActionKind uint8

const (
	KindNone ActionKind = iota
	KindResting
	KindChasing
	KindShooting
	KindMeandering
)

func (k ActionKind) String() string {
	switch k {
	case KindResting:
		return "Resting"
	case KindChasing:
		return "Chasing"
	case KindShooting:
		return "Shooting"
	case KindMeandering:
		return "Meandering"
	default:
		return "None"
	}
}

// Action is one behavior's state machine. Step drives it one tick; Cancel
// clears any side state it owns and leaves it Cancelled; Reset re-requests it.
type Action interface {
	Kind() ActionKind
	State() ActionState
	Step(ctx *Context, a *Actor)
	Cancel(ctx *Context, a *Actor)
	Reset()
}

// Resting does nothing. It executes for one tick and then succeeds.
type Resting struct {
	state ActionState
}

func (r *Resting) Kind() ActionKind   { return KindResting }
func (r *Resting) State() ActionState { return r.state }
func (r *Resting) Reset()             { r.state = Requested }

func (r *Resting) Step(ctx *Context, a *Actor) {
	switch r.state {
	case Requested:
		r.state = Executing
	case Executing:
		r.state = Success
	}
}

func (r *Resting) Cancel(ctx *Context, a *Actor) {
	r.state = Cancelled
}

// Chasing moves toward the nearest player until it is within the arrival
// tolerance of TargetDistance, backing off when closer than that.
type Chasing struct {
	MaxDistance        float32
	TargetDistance     float32
	DrainsRestlessness bool

	state  ActionState
	target ecs.Entity
	locked bool
}

func (c *Chasing) Kind() ActionKind   { return KindChasing }
func (c *Chasing) State() ActionState { return c.state }

func (c *Chasing) Reset() {
	c.state = Requested
	c.target = ecs.Entity{}
	c.locked = false
}

func (c *Chasing) Step(ctx *Context, a *Actor) {
	switch c.state {
	case Requested:
		c.state = Executing
	case Executing:
		if c.DrainsRestlessness {
			a.Restlessness -= a.RestlessnessRate * ctx.DT
		}

		player, ok := resolveTarget(ctx, a, &c.target, &c.locked)
		if !ok {
			if c.locked {
				c.finish(a, Failure)
			}
			return
		}

		dx, dy := player.X-a.X, player.Y-a.Y
		d := length(dx, dy)
		tolerance := ctx.ArrivalTolerance
		if tolerance <= 0 {
			tolerance = 10
		}

		if float32(math.Abs(float64(d-c.TargetDistance))) < tolerance {
			c.finish(a, Success)
			return
		}
		if d > c.MaxDistance {
			c.finish(a, Failure)
			return
		}
		if d < c.TargetDistance {
			dx, dy = -dx, -dy
		}
		a.SetMoving(dx, dy)
	}
}

func (c *Chasing) Cancel(ctx *Context, a *Actor) {
	c.finish(a, Cancelled)
}

func (c *Chasing) finish(a *Actor, s ActionState) {
	a.StopMoving()
	c.state = s
}

// Shooting fires at the nearest player while it stays within range,
// at most once per Cooldown seconds.
type Shooting struct {
	MaxRange float32
	TooClose float32
	Cooldown float32

	state    ActionState
	target   ecs.Entity
	locked   bool
	lastShot float32
	fired    bool
}

func (s *Shooting) Kind() ActionKind   { return KindShooting }
func (s *Shooting) State() ActionState { return s.state }

// Reset re-requests the action. The cooldown clock is kept so an actor
// cannot bypass it by switching behaviors.
func (s *Shooting) Reset() {
	s.state = Requested
	s.target = ecs.Entity{}
	s.locked = false
}

func (s *Shooting) Step(ctx *Context, a *Actor) {
	switch s.state {
	case Requested:
		s.state = Executing
	case Executing:
		if a.ShotPending {
			return
		}

		player, ok := resolveTarget(ctx, a, &s.target, &s.locked)
		if !ok {
			if s.locked {
				s.finish(a, Failure)
			}
			return
		}

		dx, dy := player.X-a.X, player.Y-a.Y
		d := length(dx, dy)
		if d > s.MaxRange || d < s.TooClose {
			s.finish(a, Failure)
			return
		}
		if s.fired && ctx.Now-s.lastShot < s.Cooldown {
			return
		}

		s.lastShot = ctx.Now
		s.fired = true
		if d < minDenominator {
			dx, dy, d = 1, 0, 1
		}
		a.ShotPending = true
		a.Shot = Shot{DirX: dx / d, DirY: dy / d, TargetX: player.X, TargetY: player.Y}
	}
}

func (s *Shooting) Cancel(ctx *Context, a *Actor) {
	a.ClearShot()
	s.finish(a, Cancelled)
}

func (s *Shooting) finish(a *Actor, st ActionState) {
	a.StopMoving()
	s.state = st
}

// Meandering wanders in a random direction until restlessness is spent.
// Each tick it drains (Recovery + accumulation rate) * dt, which nets out
// the passive accumulation and leaves Recovery per second. There is no floor.
type Meandering struct {
	Recovery float32

	state ActionState
}

func (m *Meandering) Kind() ActionKind   { return KindMeandering }
func (m *Meandering) State() ActionState { return m.state }
func (m *Meandering) Reset()             { m.state = Requested }

func (m *Meandering) Step(ctx *Context, a *Actor) {
	switch m.state {
	case Requested:
		m.state = Executing
		angle := 0.0
		if ctx.Rand != nil {
			angle = ctx.Rand.Float64() * 2 * math.Pi
		}
		a.SetMoving(float32(math.Cos(angle)), float32(math.Sin(angle)))
	case Executing:
		a.Restlessness -= (m.Recovery + a.RestlessnessRate) * ctx.DT
		if a.Restlessness <= 0 {
			a.StopMoving()
			m.state = Success
		}
	}
}

func (m *Meandering) Cancel(ctx *Context, a *Actor) {
	a.StopMoving()
	m.state = Cancelled
}

// resolveTarget returns the cached target, locking onto the nearest player
// the first time it is called after a request. It reports false when no
// player exists yet (locked stays false) or the locked player is gone.
func resolveTarget(ctx *Context, a *Actor, target *ecs.Entity, locked *bool) (Player, bool) {
	if *locked {
		return ctx.Player(*target)
	}
	p, _, ok := ctx.Nearest(a.X, a.Y)
	if !ok {
		return Player{}, false
	}
	*target = p.Entity
	*locked = true
	return p, true
}
