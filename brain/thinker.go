package brain

// Picker selects a winning choice from this tick's scores.
// It returns -1 when no choice qualifies and the fallback should run.
type Picker interface {
	Pick(scores []float32) int
}

// FirstToScore picks the first choice, in priority order, whose score
// reaches Threshold.
type FirstToScore struct {
	Threshold float32
}

func (p FirstToScore) Pick(scores []float32) int {
	for i, s := range scores {
		if s >= p.Threshold {
			return i
		}
	}
	return -1
}

// Choice pairs a scorer with the action it selects.
type Choice struct {
	Scorer Scorer
	Action Action
}

// Outcome describes what a Think call did, for telemetry.
type Outcome struct {
	Requested ActionKind  // action (re)requested this tick, KindNone if none
	Cancelled ActionKind  // action cancelled this tick, KindNone if none
	Finished  ActionState // terminal state reached this tick, or Requested if none
	Kind      ActionKind  // action that finished
}

// Thinker owns one actor's choices and drives its current action.
// A Thinker is not safe for concurrent use, but Evaluate on distinct
// Thinkers may run in parallel.
type Thinker struct {
	label    string
	picker   Picker
	choices  []Choice
	fallback Action

	scores  []float32
	current Action
}

// NewThinker builds a thinker. Choices are evaluated in the given order.
func NewThinker(label string, picker Picker, choices []Choice, fallback Action) *Thinker {
	return &Thinker{
		label:    label,
		picker:   picker,
		choices:  choices,
		fallback: fallback,
		scores:   make([]float32, len(choices)),
	}
}

// Label returns the archetype label the thinker was built for.
func (t *Thinker) Label() string { return t.label }

// Evaluate runs every scorer for this tick. It reads ctx and a only.
func (t *Thinker) Evaluate(ctx *Context, a *Actor) {
	for i, c := range t.choices {
		t.scores[i] = c.Scorer.Score(ctx, a)
	}
}

// Scores returns the scores from the last Evaluate, in priority order.
func (t *Thinker) Scores() []float32 { return t.scores }

// Winner returns the action the picker selects from the last Evaluate.
func (t *Thinker) Winner() Action {
	if i := t.picker.Pick(t.scores); i >= 0 {
		return t.choices[i].Action
	}
	return t.fallback
}

// Think picks a winner from the last Evaluate and drives it one tick.
// Switching away from a running action cancels it first, leaving it
// Cancelled; a winner that already settled is requested again.
func (t *Thinker) Think(ctx *Context, a *Actor) Outcome {
	out := Outcome{Finished: Requested}
	winner := t.Winner()

	switch {
	case t.current == nil:
		winner.Reset()
		out.Requested = winner.Kind()
	case winner != t.current:
		if !t.current.State().Terminal() {
			t.current.Cancel(ctx, a)
			out.Cancelled = t.current.Kind()
		}
		winner.Reset()
		out.Requested = winner.Kind()
	case t.current.State().Terminal():
		winner.Reset()
		out.Requested = winner.Kind()
	}
	t.current = winner

	before := winner.State()
	winner.Step(ctx, a)
	if after := winner.State(); after.Terminal() && !before.Terminal() {
		out.Finished = after
		out.Kind = winner.Kind()
	}
	return out
}

// Current returns the label of the action being driven.
func (t *Thinker) Current() ActionKind {
	if t.current == nil {
		return KindNone
	}
	return t.current.Kind()
}

// CurrentState returns the state of the action being driven.
func (t *Thinker) CurrentState() ActionState {
	if t.current == nil {
		return Requested
	}
	return t.current.State()
}
