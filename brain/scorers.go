package brain

// ScorerKind identifies a scorer implementation.
type ScorerKind uint8

const (
	ScorerChase ScorerKind = iota
	ScorerShoot
	ScorerRestless
)

func (k ScorerKind) String() string {
	switch k {
	case ScorerChase:
		return "chase"
	case ScorerShoot:
		return "shoot"
	case ScorerRestless:
		return "restless"
	default:
		return "unknown"
	}
}

// Scorer rates how desirable a behavior is for an actor, in [0, 1].
// Scorers are pure and may run concurrently for different actors.
type Scorer interface {
	Kind() ScorerKind
	Score(ctx *Context, a *Actor) float32
}

// ChaseScorer prefers being on a ring of TargetDistance around the nearest
// player. Beyond the ring the score only starts dropping past TriggerDistance
// and reaches zero at MaxDistance-TargetDistance past the trigger.
type ChaseScorer struct {
	TriggerDistance float32
	MaxDistance     float32
	TargetDistance  float32
}

func (s ChaseScorer) Kind() ScorerKind { return ScorerChase }

func (s ChaseScorer) Score(ctx *Context, a *Actor) float32 {
	_, d, ok := ctx.Nearest(a.X, a.Y)
	if !ok {
		return 0
	}
	var raw float32
	if d > s.TargetDistance {
		raw = safeDiv(max(d-s.TriggerDistance, 0), s.MaxDistance-s.TargetDistance)
	} else {
		raw = safeDiv(max(s.TargetDistance-d, 0), s.TargetDistance)
	}
	return 1 - clamp01(raw)
}

// ShootScorer peaks at PreferredDistance and is zero outside [TooClose, MaxRange].
// A pending shot scores 1 so the shooter commits until it is fired.
type ShootScorer struct {
	MaxRange          float32
	TooClose          float32
	PreferredDistance float32
}

func (s ShootScorer) Kind() ScorerKind { return ScorerShoot }

func (s ShootScorer) Score(ctx *Context, a *Actor) float32 {
	if a.ShotPending {
		return 1
	}
	_, d, ok := ctx.Nearest(a.X, a.Y)
	if !ok {
		return 0
	}
	if d < s.TooClose || d > s.MaxRange {
		return 0
	}
	off := d - s.PreferredDistance
	if off < 0 {
		off = -off
	}
	var raw float32
	if d > s.PreferredDistance {
		raw = safeDiv(off, s.MaxRange-s.PreferredDistance)
	} else {
		raw = safeDiv(off, s.PreferredDistance-s.TooClose)
	}
	return 1 - clamp01(raw)
}

// RestlessScorer rises with accumulated restlessness.
type RestlessScorer struct{}

func (RestlessScorer) Kind() ScorerKind { return ScorerRestless }

func (RestlessScorer) Score(ctx *Context, a *Actor) float32 {
	scale := ctx.RestlessnessScale
	if scale <= 0 {
		scale = 100
	}
	return clamp01(a.Restlessness / scale)
}
