package game

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
	"github.com/pthm-cable/danger/telemetry"
)

// ShotEvent is a fire request drained from a shooting danger.
type ShotEvent struct {
	Danger           ecs.Entity
	X, Y             float32 // muzzle position
	DirX, DirY       float32 // unit direction
	TargetX, TargetY float32
	FiredAt          float32
}

// DangerView is a read-only snapshot of one danger for hosts and renderers.
type DangerView struct {
	Entity       ecs.Entity
	Archetype    string
	X, Y         float32
	Radius       float32
	Live         bool // false = pending
	Lethal       bool
	Exempt       bool
	Action       brain.ActionKind // KindNone while pending
	State        brain.ActionState
	Restlessness float32
}

// Label is the debug label of the danger's current action.
func (v DangerView) Label() string {
	if !v.Live {
		return "Pending"
	}
	return v.Action.String()
}

// Contact is a lethal danger touching a player.
type Contact struct {
	Danger ecs.Entity
	Player ecs.Entity
}

// SpawnDanger creates a pending danger of the named archetype at (x, y).
func (g *Game) SpawnDanger(archetype string, x, y float32) (ecs.Entity, error) {
	arch, err := g.registry.ByName(archetype)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("spawning danger: %w", err)
	}
	e := g.dangerMap.NewEntity(
		&components.Position{X: x, Y: y},
		&components.DangerType{Index: arch.Index},
		&components.Danger{Radius: arch.Radius},
	)
	g.activation.Park(e)
	return e, nil
}

// ScatterDangers spawns n dangers of random archetypes uniformly over the
// w by h field.
func (g *Game) ScatterDangers(n int, w, h float32) []ecs.Entity {
	all := g.registry.All()
	if len(all) == 0 {
		return nil
	}
	out := make([]ecs.Entity, 0, n)
	for i := 0; i < n; i++ {
		arch := all[g.rng.Intn(len(all))]
		e, err := g.SpawnDanger(arch.Name, g.rng.Float32()*w, g.rng.Float32()*h)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// RemoveDanger deletes a danger in either state.
func (g *Game) RemoveDanger(e ecs.Entity) error {
	if !g.isDanger(e) {
		return fmt.Errorf("removing entity %d: %w", e.ID(), ErrNotDanger)
	}
	ev := telemetry.NewDespawnEvent(g.tick, e.ID(), g.archetypeName(e))
	g.activation.Forget(e)
	g.world.RemoveEntity(e)
	g.collector.Record(ev)
	g.logEvent(ev)
	return nil
}

// SetTeleportExempt sets or clears a danger's teleport exemption.
// While exempt a live danger never retires and its restlessness is frozen.
// Clearing the flag restarts its grace period.
func (g *Game) SetTeleportExempt(e ecs.Entity, exempt bool) error {
	if !g.isDanger(e) {
		return fmt.Errorf("exempting entity %d: %w", e.ID(), ErrNotDanger)
	}
	g.activation.SetExempt(e, exempt, g.now)
	g.logEvent(telemetry.NewExemptEvent(g.tick, e.ID(), exempt))
	return nil
}

// DrainShots returns every pending shot and clears them, which lets the
// shooting dangers start their cooldown. The slice is reused by the next call.
func (g *Game) DrainShots() []ShotEvent {
	g.shots = g.shots[:0]
	g.doomed = g.doomed[:0]

	query := g.shotFilter.Query()
	for query.Next() {
		pos, shot := query.Get()
		g.shots = append(g.shots, ShotEvent{
			Danger:  query.Entity(),
			X:       pos.X,
			Y:       pos.Y,
			DirX:    shot.DirX,
			DirY:    shot.DirY,
			TargetX: shot.TargetX,
			TargetY: shot.TargetY,
			FiredAt: shot.FiredAt,
		})
		g.doomed = append(g.doomed, query.Entity())
	}
	for _, e := range g.doomed {
		g.shotMap.Remove(e)
	}
	return g.shots
}

// LethalContacts returns every live lethal danger overlapping a player.
func (g *Game) LethalContacts() []Contact {
	var out []Contact
	players := g.playerView.CollectInto(nil)
	if len(players) == 0 {
		return nil
	}
	query := g.lethalFilter.Query()
	for query.Next() {
		pos, d, _ := query.Get()
		r2 := d.Radius * d.Radius
		for _, p := range players {
			dx, dy := p.X-pos.X, p.Y-pos.Y
			if dx*dx+dy*dy <= r2 {
				out = append(out, Contact{Danger: query.Entity(), Player: p.Entity})
			}
		}
	}
	return out
}

// Dangers returns a snapshot of every danger.
func (g *Game) Dangers() []DangerView {
	return g.DangersInto(nil)
}

// DangersInto appends a snapshot of every danger to dst.
func (g *Game) DangersInto(dst []DangerView) []DangerView {
	query := g.dangerFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, dt := query.Get()
		v := DangerView{
			Entity: e,
			X:      pos.X,
			Y:      pos.Y,
			Live:   g.liveMap.Has(e),
			Lethal: g.lethalMap.Has(e),
			Exempt: g.exemptMap.Has(e),
		}
		if arch, ok := g.registry.Get(dt.Index); ok {
			v.Archetype = arch.Name
		}
		if g.infoMap.Has(e) {
			v.Radius = g.infoMap.Get(e).Radius
		}
		if g.brainMap.Has(e) {
			if t := g.brainMap.Get(e).Thinker; t != nil {
				v.Action = t.Current()
				v.State = t.CurrentState()
			}
		}
		if g.restMap.Has(e) {
			v.Restlessness = g.restMap.Get(e).Current
		}
		dst = append(dst, v)
	}
	return dst
}

// Teardown removes every danger and clears the grid. Players stay.
func (g *Game) Teardown() {
	g.logWorldState()

	g.doomed = g.doomed[:0]
	query := g.dangerFilter.Query()
	for query.Next() {
		g.doomed = append(g.doomed, query.Entity())
	}
	for _, e := range g.doomed {
		g.world.RemoveEntity(e)
	}
	g.grid.Clear()
	g.logger.Info("teardown", zap.Int("dangers", len(g.doomed)))
}

func (g *Game) isDanger(e ecs.Entity) bool {
	return g.world.Alive(e) && g.typeMap.Has(e)
}
