package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/danger/components"
)

// MovementSystem integrates movement intents into positions.
type MovementSystem struct {
	filter ecs.Filter3[components.Position, components.Moving, components.CanMove]
}

// NewMovementSystem creates a movement system.
func NewMovementSystem(w *ecs.World) *MovementSystem {
	return &MovementSystem{
		filter: *ecs.NewFilter3[components.Position, components.Moving, components.CanMove](w),
	}
}

// Update moves every danger with an intent by speed*dt along it.
func (s *MovementSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, mov, can := query.Get()
		dx, dy := normalize(mov.X, mov.Y)
		pos.X += dx * can.Speed * dt
		pos.Y += dy * can.Speed * dt
	}
}
