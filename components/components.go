// Package components defines ECS components for the danger engine.
package components

import "github.com/pthm-cable/danger/brain"

// Position represents an entity's world position.
type Position struct {
	X, Y float32
}

// Player marks a player entity. Dangers react to the nearest one.
type Player struct {
	ID uint32
}

// DangerType is the archetype index of a danger. It is set when the danger
// is spawned and never changes.
type DangerType struct {
	Index uint8
}

// Danger holds attributes a danger has in both activation states.
type Danger struct {
	Radius float32 // lethal-touch and drawing radius
}

// Pending marks a danger that exists only as a grid record.
type Pending struct{}

// Live marks an activated danger.
type Live struct {
	ActivatedAt float32 // sim time of activation, refreshed while teleport-exempt
}

// Restlessness accumulates while live and gates meandering.
type Restlessness struct {
	Rate    float32 // per second
	Current float32 // unbounded in both directions
}

// Brain owns a live danger's decision state.
type Brain struct {
	Thinker *brain.Thinker
}

// Moving is a movement intent: a unit direction for the integrator.
type Moving struct {
	X, Y float32
}

// Shot is a fire request waiting for the projectile system.
type Shot struct {
	DirX, DirY       float32
	TargetX, TargetY float32
	FiredAt          float32
}

// CanMove gives a live danger its speed.
type CanMove struct {
	Speed float32
}

// LethalTouch marks a live danger that kills players on contact.
type LethalTouch struct{}

// TeleportExempt suspends retirement and restlessness while set.
type TeleportExempt struct{}

// Visual tells the renderer which mesh to attach to a live danger.
type Visual struct {
	Mesh string
}
