package brain

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/danger/config"
)

var (
	// ErrInvalidArchetype marks an authoring error in an archetype table.
	ErrInvalidArchetype = errors.New("invalid archetype")
	// ErrUnknownArchetype is returned when looking up an unregistered archetype.
	ErrUnknownArchetype = errors.New("unknown archetype")
)

// Archetype is a validated, immutable behavior table for one kind of danger.
type Archetype struct {
	Name             string
	Index            uint8
	Radius           float32
	MoveSpeed        float32
	RestlessnessRate float32
	Threshold        float32
	LethalTouch      bool
	Mesh             string

	behaviors []config.BehaviorConfig
}

// Priority returns the scorer kinds in the order the picker checks them.
func (a *Archetype) Priority() []ScorerKind {
	kinds := make([]ScorerKind, len(a.behaviors))
	for i, b := range a.behaviors {
		kinds[i], _ = parseScorer(b.Scorer.Kind)
	}
	return kinds
}

// NewThinker builds a fresh thinker with new action instances.
func (a *Archetype) NewThinker() *Thinker {
	choices := make([]Choice, len(a.behaviors))
	for i, b := range a.behaviors {
		choices[i] = Choice{Scorer: buildScorer(b.Scorer), Action: buildAction(b.Action)}
	}
	return NewThinker(a.Name, FirstToScore{Threshold: a.Threshold}, choices, &Resting{})
}

// Registry holds the archetypes known to the engine, indexed by name and position.
type Registry struct {
	list   []*Archetype
	byName map[string]*Archetype
}

// NewRegistry validates and registers archetypes. Any authoring error is
// returned wrapped in ErrInvalidArchetype; callers treat it as fatal.
func NewRegistry(cfgs []config.ArchetypeConfig) (*Registry, error) {
	if len(cfgs) > 255 {
		return nil, fmt.Errorf("%w: %d archetypes, at most 255 supported", ErrInvalidArchetype, len(cfgs))
	}
	r := &Registry{byName: make(map[string]*Archetype, len(cfgs))}
	var errs []error
	for i, c := range cfgs {
		if err := validateArchetype(c); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byName[c.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate archetype %q", ErrInvalidArchetype, c.Name))
			continue
		}
		arch := &Archetype{
			Name:             c.Name,
			Index:            uint8(i),
			Radius:           float32(c.Radius),
			MoveSpeed:        float32(c.MoveSpeed),
			RestlessnessRate: float32(c.RestlessnessRate),
			Threshold:        float32(c.Threshold),
			LethalTouch:      c.LethalTouch,
			Mesh:             c.Mesh,
			behaviors:        append([]config.BehaviorConfig(nil), c.Priority...),
		}
		r.list = append(r.list, arch)
		r.byName[c.Name] = arch
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Get returns an archetype by index.
func (r *Registry) Get(index uint8) (*Archetype, bool) {
	if int(index) >= len(r.list) {
		return nil, false
	}
	return r.list[index], true
}

// ByName returns an archetype by name.
func (r *Registry) ByName(name string) (*Archetype, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, name)
	}
	return a, nil
}

// All returns the archetypes in registration order.
func (r *Registry) All() []*Archetype { return r.list }

func validateArchetype(c config.ArchetypeConfig) error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: archetype %q: %s", ErrInvalidArchetype, c.Name, fmt.Sprintf(format, args...))
	}

	if c.Name == "" {
		return fmt.Errorf("%w: archetype with empty name", ErrInvalidArchetype)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fail("threshold must be in (0, 1], got %v", c.Threshold)
	}
	if c.Radius < 0 || c.MoveSpeed < 0 || c.RestlessnessRate < 0 {
		return fail("radius, move_speed and restlessness_rate must not be negative")
	}
	if c.Fallback != "resting" {
		return fail("fallback must be resting, got %q", c.Fallback)
	}

	for i, b := range c.Priority {
		kind, ok := parseScorer(b.Scorer.Kind)
		if !ok {
			return fail("priority[%d]: unknown scorer %q", i, b.Scorer.Kind)
		}
		if b.Action.Kind == "" {
			return fail("priority[%d]: scorer %q has no matching action", i, b.Scorer.Kind)
		}
		if _, ok := parseAction(b.Action.Kind); !ok {
			return fail("priority[%d]: unknown action %q", i, b.Action.Kind)
		}
		if err := validateScorer(kind, b.Scorer); err != nil {
			return fail("priority[%d]: %v", i, err)
		}
		if err := validateAction(b.Action); err != nil {
			return fail("priority[%d]: %v", i, err)
		}
	}
	return nil
}

func validateScorer(kind ScorerKind, s config.ScorerConfig) error {
	switch kind {
	case ScorerChase:
		if s.TriggerDistance < 0 || s.TargetDistance < 0 {
			return errors.New("chase distances must not be negative")
		}
		if s.MaxDistance < s.TargetDistance {
			return fmt.Errorf("chase max_distance %v is below target_distance %v", s.MaxDistance, s.TargetDistance)
		}
	case ScorerShoot:
		if s.TooClose < 0 {
			return errors.New("shoot too_close must not be negative")
		}
		if s.TooClose > s.PreferredDistance || s.PreferredDistance > s.MaxRange {
			return fmt.Errorf("shoot needs too_close <= preferred_distance <= max_range, got %v, %v, %v",
				s.TooClose, s.PreferredDistance, s.MaxRange)
		}
	}
	return nil
}

func validateAction(a config.ActionConfig) error {
	switch a.Kind {
	case "chasing":
		if a.MaxDistance <= 0 || a.TargetDistance < 0 {
			return errors.New("chasing needs a positive max_distance and non-negative target_distance")
		}
	case "shooting":
		if a.MaxRange <= 0 || a.TooClose < 0 || a.TooClose > a.MaxRange {
			return errors.New("shooting needs 0 <= too_close <= max_range and a positive max_range")
		}
		if a.Cooldown < 0 {
			return errors.New("shooting cooldown must not be negative")
		}
	case "meandering":
		if a.Recovery <= 0 {
			return errors.New("meandering recovery must be positive")
		}
	}
	return nil
}

func parseScorer(name string) (ScorerKind, bool) {
	switch name {
	case "chase":
		return ScorerChase, true
	case "shoot":
		return ScorerShoot, true
	case "restless":
		return ScorerRestless, true
	}
	return 0, false
}

func parseAction(name string) (ActionKind, bool) {
	switch name {
	case "chasing":
		return KindChasing, true
	case "shooting":
		return KindShooting, true
	case "meandering":
		return KindMeandering, true
	case "resting":
		return KindResting, true
	}
	return KindNone, false
}

func buildScorer(s config.ScorerConfig) Scorer {
	kind, _ := parseScorer(s.Kind)
	switch kind {
	case ScorerChase:
		return ChaseScorer{
			TriggerDistance: float32(s.TriggerDistance),
			MaxDistance:     float32(s.MaxDistance),
			TargetDistance:  float32(s.TargetDistance),
		}
	case ScorerShoot:
		return ShootScorer{
			MaxRange:          float32(s.MaxRange),
			TooClose:          float32(s.TooClose),
			PreferredDistance: float32(s.PreferredDistance),
		}
	default:
		return RestlessScorer{}
	}
}

func buildAction(a config.ActionConfig) Action {
	kind, _ := parseAction(a.Kind)
	switch kind {
	case KindChasing:
		return &Chasing{
			MaxDistance:        float32(a.MaxDistance),
			TargetDistance:     float32(a.TargetDistance),
			DrainsRestlessness: a.DrainsRestlessness,
		}
	case KindShooting:
		return &Shooting{
			MaxRange: float32(a.MaxRange),
			TooClose: float32(a.TooClose),
			Cooldown: float32(a.Cooldown),
		}
	case KindMeandering:
		return &Meandering{Recovery: float32(a.Recovery)}
	default:
		return &Resting{}
	}
}
