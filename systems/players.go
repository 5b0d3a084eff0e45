package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
)

// PlayerView snapshots player positions once per tick.
type PlayerView struct {
	filter ecs.Filter2[components.Position, components.Player]
}

// NewPlayerView creates a player view.
func NewPlayerView(w *ecs.World) *PlayerView {
	return &PlayerView{
		filter: *ecs.NewFilter2[components.Position, components.Player](w),
	}
}

// CollectInto appends every player to dst and returns it.
func (v *PlayerView) CollectInto(dst []brain.Player) []brain.Player {
	query := v.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		dst = append(dst, brain.Player{Entity: query.Entity(), X: pos.X, Y: pos.Y})
	}
	return dst
}
