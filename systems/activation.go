package systems

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
)

// ActivationStats counts what one activation pass did.
type ActivationStats struct {
	Discovered int
	Promoted   int
	Dropped    int // stale grid records whose entity no longer exists
}

// ActivationSystem moves dangers between the pending and live states.
// Pending dangers live only in the grid; promotion attaches behavior,
// movement and visual components, retirement strips them again.
type ActivationSystem struct {
	world    *ecs.World
	grid     *DangerGrid
	registry *brain.Registry
	logger   *zap.Logger

	dangerFilter ecs.Filter2[components.Position, components.DangerType]
	liveFilter   ecs.Filter2[components.Position, components.Live]
	exemptFilter ecs.Filter2[components.Live, components.TeleportExempt]

	posMap     *ecs.Map[components.Position]
	typeMap    *ecs.Map[components.DangerType]
	pendingMap *ecs.Map[components.Pending]
	liveMap    *ecs.Map[components.Live]
	restMap    *ecs.Map[components.Restlessness]
	brainMap   *ecs.Map[components.Brain]
	movingMap  *ecs.Map[components.Moving]
	shotMap    *ecs.Map[components.Shot]
	canMoveMap *ecs.Map[components.CanMove]
	lethalMap  *ecs.Map[components.LethalTouch]
	exemptMap  *ecs.Map[components.TeleportExempt]
	visualMap  *ecs.Map[components.Visual]

	// Reused buffers
	cells    map[CellKey]struct{}
	records  []PendingRecord
	promote  []PendingRecord
	promoted []ecs.Entity
	retire   []ecs.Entity
	discover []ecs.Entity
}

// NewActivationSystem creates an activation system over the given grid.
func NewActivationSystem(w *ecs.World, grid *DangerGrid, registry *brain.Registry, logger *zap.Logger) *ActivationSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivationSystem{
		world:    w,
		grid:     grid,
		registry: registry,
		logger:   logger,

		dangerFilter: *ecs.NewFilter2[components.Position, components.DangerType](w),
		liveFilter:   *ecs.NewFilter2[components.Position, components.Live](w),
		exemptFilter: *ecs.NewFilter2[components.Live, components.TeleportExempt](w),

		posMap:     ecs.NewMap[components.Position](w),
		typeMap:    ecs.NewMap[components.DangerType](w),
		pendingMap: ecs.NewMap[components.Pending](w),
		liveMap:    ecs.NewMap[components.Live](w),
		restMap:    ecs.NewMap[components.Restlessness](w),
		brainMap:   ecs.NewMap[components.Brain](w),
		movingMap:  ecs.NewMap[components.Moving](w),
		shotMap:    ecs.NewMap[components.Shot](w),
		canMoveMap: ecs.NewMap[components.CanMove](w),
		lethalMap:  ecs.NewMap[components.LethalTouch](w),
		exemptMap:  ecs.NewMap[components.TeleportExempt](w),
		visualMap:  ecs.NewMap[components.Visual](w),

		cells: make(map[CellKey]struct{}),
	}
}

// Discover parks every danger that has no activation state yet in the grid.
// Returns the number of dangers discovered.
func (s *ActivationSystem) Discover() int {
	s.discover = s.discover[:0]

	query := s.dangerFilter.Query()
	for query.Next() {
		e := query.Entity()
		if s.pendingMap.Has(e) || s.liveMap.Has(e) {
			continue
		}
		s.discover = append(s.discover, e)
	}

	for _, e := range s.discover {
		s.park(e)
	}
	return len(s.discover)
}

// Park makes a freshly spawned danger pending right away.
// Returns false if the entity is not a danger or already has an activation state.
func (s *ActivationSystem) Park(e ecs.Entity) bool {
	if !s.world.Alive(e) || !s.posMap.Has(e) || !s.typeMap.Has(e) {
		return false
	}
	if s.pendingMap.Has(e) || s.liveMap.Has(e) {
		return false
	}
	s.park(e)
	return true
}

func (s *ActivationSystem) park(e ecs.Entity) {
	pos := s.posMap.Get(e)
	dt := s.typeMap.Get(e)
	s.grid.Insert(e, pos.X, pos.Y, dt.Index)
	s.pendingMap.Add(e, &components.Pending{})
}

// Activate promotes every pending danger in the 3x3 cell block around any
// player. Returns the promoted entities; the slice is reused by the next call.
func (s *ActivationSystem) Activate(players []brain.Player, now float32) ([]ecs.Entity, ActivationStats) {
	var stats ActivationStats
	s.promoted = s.promoted[:0]
	if len(players) == 0 {
		return s.promoted, stats
	}

	// Read phase: union of candidate cells, then their records.
	clear(s.cells)
	for _, p := range players {
		c := CellOf(p.X, p.Y, s.grid.CellSize())
		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				s.cells[CellKey{X: c.X + dx, Y: c.Y + dy}] = struct{}{}
			}
		}
	}
	s.promote = s.promote[:0]
	for key := range s.cells {
		s.records = s.grid.CellRecordsInto(s.records[:0], key)
		s.promote = append(s.promote, s.records...)
	}
	slices.SortFunc(s.promote, func(a, b PendingRecord) int {
		return cmp.Compare(a.Entity.ID(), b.Entity.ID())
	})

	// Commit phase.
	for _, rec := range s.promote {
		s.grid.Remove(rec.Entity)

		if !s.world.Alive(rec.Entity) || !s.posMap.Has(rec.Entity) {
			stats.Dropped++
			s.logger.Debug("dropping stale pending record",
				zap.Uint32("entity", rec.Entity.ID()),
				zap.Float32("x", rec.X),
				zap.Float32("y", rec.Y),
			)
			continue
		}
		arch, ok := s.registry.Get(rec.Type)
		if !ok {
			stats.Dropped++
			s.logger.Warn("pending record has unknown archetype",
				zap.Uint32("entity", rec.Entity.ID()),
				zap.Uint8("type", rec.Type),
			)
			continue
		}

		s.promoteEntity(rec.Entity, arch, now)
		s.promoted = append(s.promoted, rec.Entity)
		stats.Promoted++
	}
	return s.promoted, stats
}

func (s *ActivationSystem) promoteEntity(e ecs.Entity, arch *brain.Archetype, now float32) {
	if s.pendingMap.Has(e) {
		s.pendingMap.Remove(e)
	}
	s.liveMap.Add(e, &components.Live{ActivatedAt: now})
	s.restMap.Add(e, &components.Restlessness{Rate: arch.RestlessnessRate})
	s.brainMap.Add(e, &components.Brain{Thinker: arch.NewThinker()})
	s.canMoveMap.Add(e, &components.CanMove{Speed: arch.MoveSpeed})
	s.visualMap.Add(e, &components.Visual{Mesh: arch.Mesh})
	if arch.LethalTouch {
		s.lethalMap.Add(e, &components.LethalTouch{})
	}
}

// RefreshExempt restarts the grace period of every live, teleport-exempt danger.
func (s *ActivationSystem) RefreshExempt(now float32) {
	query := s.exemptFilter.Query()
	for query.Next() {
		live, _ := query.Get()
		live.ActivatedAt = now
	}
}

// Retire demotes every live, non-exempt danger that has been live for at
// least gracePeriod and is farther than despawnDistance from every player.
// With no players every such danger is far from all of them.
// Returns the retired entities; the slice is reused by the next call.
func (s *ActivationSystem) Retire(players []brain.Player, now, despawnDistance, gracePeriod float32) []ecs.Entity {
	s.retire = s.retire[:0]
	limitSq := despawnDistance * despawnDistance

	query := s.liveFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, live := query.Get()

		if s.exemptMap.Has(e) {
			continue
		}
		if now-live.ActivatedAt < gracePeriod {
			continue
		}
		far := true
		for _, p := range players {
			if distanceSq(pos.X, pos.Y, p.X, p.Y) <= limitSq {
				far = false
				break
			}
		}
		if far {
			s.retire = append(s.retire, e)
		}
	}

	for _, e := range s.retire {
		pos := s.posMap.Get(e)
		dt := s.typeMap.Get(e)
		s.stripLive(e)
		s.pendingMap.Add(e, &components.Pending{})
		s.grid.Insert(e, pos.X, pos.Y, dt.Index)
	}
	return s.retire
}

// stripLive removes every live-only component.
func (s *ActivationSystem) stripLive(e ecs.Entity) {
	if s.liveMap.Has(e) {
		s.liveMap.Remove(e)
	}
	if s.restMap.Has(e) {
		s.restMap.Remove(e)
	}
	if s.brainMap.Has(e) {
		s.brainMap.Remove(e)
	}
	if s.movingMap.Has(e) {
		s.movingMap.Remove(e)
	}
	if s.shotMap.Has(e) {
		s.shotMap.Remove(e)
	}
	if s.canMoveMap.Has(e) {
		s.canMoveMap.Remove(e)
	}
	if s.lethalMap.Has(e) {
		s.lethalMap.Remove(e)
	}
	if s.visualMap.Has(e) {
		s.visualMap.Remove(e)
	}
}

// SetExempt sets or clears a danger's teleport exemption. Clearing an
// exemption restarts the grace period of a live danger; clearing a danger
// that was never exempt changes nothing.
func (s *ActivationSystem) SetExempt(e ecs.Entity, exempt bool, now float32) {
	if exempt {
		if !s.exemptMap.Has(e) {
			s.exemptMap.Add(e, &components.TeleportExempt{})
		}
		return
	}
	if !s.exemptMap.Has(e) {
		return
	}
	s.exemptMap.Remove(e)
	if s.liveMap.Has(e) {
		s.liveMap.Get(e).ActivatedAt = now
	}
}

// Forget drops a danger from the grid, for dangers removed from the world.
func (s *ActivationSystem) Forget(e ecs.Entity) {
	s.grid.Remove(e)
}
