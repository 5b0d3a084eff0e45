package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
)

// DecisionStats counts action transitions during one decision pass.
type DecisionStats struct {
	Actors    int
	Requests  int
	Cancels   int
	Successes int
	Failures  int
	Shots     int
}

// decisionItem captures one live danger for the decision pass.
type decisionItem struct {
	entity  ecs.Entity
	actor   brain.Actor
	thinker *brain.Thinker
}

// DecisionSystem scores and drives every live danger.
//
// Scoring reads only the snapshot and the shared context, so it runs on a
// worker pool for large populations. Picking and driving actions mutates
// actor state and uses the shared rng, so it runs serially in snapshot order.
type DecisionSystem struct {
	filter    ecs.Filter4[components.Position, components.Live, components.Restlessness, components.Brain]
	movingMap *ecs.Map[components.Moving]
	shotMap   *ecs.Map[components.Shot]
	restMap   *ecs.Map[components.Restlessness]

	pool              *workerPool
	parallelThreshold int

	items []decisionItem
}

// NewDecisionSystem creates a decision system. workers <= 0 uses GOMAXPROCS;
// parallelThreshold <= 0 uses DefaultParallelThreshold.
func NewDecisionSystem(w *ecs.World, workers, parallelThreshold int) *DecisionSystem {
	if parallelThreshold <= 0 {
		parallelThreshold = DefaultParallelThreshold
	}
	return &DecisionSystem{
		filter:            *ecs.NewFilter4[components.Position, components.Live, components.Restlessness, components.Brain](w),
		movingMap:         ecs.NewMap[components.Moving](w),
		shotMap:           ecs.NewMap[components.Shot](w),
		restMap:           ecs.NewMap[components.Restlessness](w),
		pool:              newWorkerPool(workers),
		parallelThreshold: parallelThreshold,
		items:             make([]decisionItem, 0, 256),
	}
}

// Update runs one decision pass.
func (s *DecisionSystem) Update(ctx *brain.Context) DecisionStats {
	// Phase A: snapshot (single-threaded)
	s.items = s.items[:0]
	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, rest, br := query.Get()
		if br.Thinker == nil {
			continue
		}

		item := decisionItem{
			entity:  e,
			thinker: br.Thinker,
			actor: brain.Actor{
				X:                pos.X,
				Y:                pos.Y,
				Restlessness:     rest.Current,
				RestlessnessRate: rest.Rate,
			},
		}
		if s.movingMap.Has(e) {
			m := s.movingMap.Get(e)
			item.actor.Moving = true
			item.actor.DirX, item.actor.DirY = m.X, m.Y
		}
		if s.shotMap.Has(e) {
			sh := s.shotMap.Get(e)
			item.actor.ShotPending = true
			item.actor.Shot = brain.Shot{DirX: sh.DirX, DirY: sh.DirY, TargetX: sh.TargetX, TargetY: sh.TargetY}
		}
		s.items = append(s.items, item)
	}

	stats := DecisionStats{Actors: len(s.items)}
	if len(s.items) == 0 {
		return stats
	}

	// Phase B: score
	if len(s.items) < s.parallelThreshold {
		s.evaluate(ctx, 0, len(s.items))
	} else {
		s.pool.Run(len(s.items), func(start, end int) {
			s.evaluate(ctx, start, end)
		})
	}

	// Phase C: pick, drive and apply (single-threaded, preserves determinism)
	for i := range s.items {
		item := &s.items[i]
		hadShot := item.actor.ShotPending

		out := item.thinker.Think(ctx, &item.actor)
		if out.Requested != brain.KindNone {
			stats.Requests++
		}
		if out.Cancelled != brain.KindNone {
			stats.Cancels++
		}
		switch out.Finished {
		case brain.Success:
			stats.Successes++
		case brain.Failure:
			stats.Failures++
		}
		if item.actor.ShotPending && !hadShot {
			stats.Shots++
		}

		s.apply(item, ctx.Now, hadShot)
	}
	return stats
}

func (s *DecisionSystem) evaluate(ctx *brain.Context, start, end int) {
	for i := start; i < end; i++ {
		s.items[i].thinker.Evaluate(ctx, &s.items[i].actor)
	}
}

// apply writes the actor's working state back to its components.
func (s *DecisionSystem) apply(item *decisionItem, now float32, hadShot bool) {
	e := item.entity
	a := &item.actor

	s.restMap.Get(e).Current = a.Restlessness

	switch {
	case a.Moving && s.movingMap.Has(e):
		m := s.movingMap.Get(e)
		m.X, m.Y = a.DirX, a.DirY
	case a.Moving:
		s.movingMap.Add(e, &components.Moving{X: a.DirX, Y: a.DirY})
	case s.movingMap.Has(e):
		s.movingMap.Remove(e)
	}

	switch {
	case a.ShotPending && !hadShot:
		s.shotMap.Add(e, &components.Shot{
			DirX: a.Shot.DirX, DirY: a.Shot.DirY,
			TargetX: a.Shot.TargetX, TargetY: a.Shot.TargetY,
			FiredAt: now,
		})
	case !a.ShotPending && s.shotMap.Has(e):
		s.shotMap.Remove(e)
	}
}

// Stop shuts down the worker pool.
func (s *DecisionSystem) Stop() {
	s.pool.Stop()
}
