package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/danger/components"
)

// AddPlayer creates a player at (x, y).
func (g *Game) AddPlayer(x, y float32) ecs.Entity {
	g.nextPlayerID++
	return g.playerMap.NewEntity(
		&components.Position{X: x, Y: y},
		&components.Player{ID: g.nextPlayerID},
	)
}

// MovePlayer sets a player's position. Players may jump any distance;
// activation only looks at where they are at the start of a tick.
func (g *Game) MovePlayer(e ecs.Entity, x, y float32) error {
	if !g.isPlayer(e) {
		return fmt.Errorf("moving entity %d: %w", e.ID(), ErrNotPlayer)
	}
	pos := g.posMap.Get(e)
	pos.X, pos.Y = x, y
	return nil
}

// RemovePlayer deletes a player. Dangers that were chasing or aiming at it
// fail their action on their next tick.
func (g *Game) RemovePlayer(e ecs.Entity) error {
	if !g.isPlayer(e) {
		return fmt.Errorf("removing entity %d: %w", e.ID(), ErrNotPlayer)
	}
	g.world.RemoveEntity(e)
	return nil
}

// PlayerPosition returns a player's position.
func (g *Game) PlayerPosition(e ecs.Entity) (x, y float32, err error) {
	if !g.isPlayer(e) {
		return 0, 0, fmt.Errorf("reading entity %d: %w", e.ID(), ErrNotPlayer)
	}
	pos := g.posMap.Get(e)
	return pos.X, pos.Y, nil
}

func (g *Game) isPlayer(e ecs.Entity) bool {
	return g.world.Alive(e) && g.idMap.Has(e)
}
