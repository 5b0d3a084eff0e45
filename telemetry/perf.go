package telemetry

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Phase identifies one timed section of the engine tick.
type Phase uint8

// Phases of the engine tick, in execution order.
const (
	PhaseDiscover Phase = iota
	PhaseActivate
	PhaseRestlessness
	PhaseDecision
	PhaseMovement
	PhaseRetire
	PhaseTelemetry

	NumPhases
)

var phaseNames = [NumPhases]string{
	"discover", "activate", "restlessness", "decision", "movement", "retire", "telemetry",
}

// Phases lists every phase in tick order.
var Phases = []Phase{
	PhaseDiscover, PhaseActivate, PhaseRestlessness,
	PhaseDecision, PhaseMovement, PhaseRetire, PhaseTelemetry,
}

func (p Phase) String() string {
	if p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseTimes holds one duration per phase.
type PhaseTimes [NumPhases]time.Duration

// perfSample is the timing of a single tick.
type perfSample struct {
	tick   time.Duration
	phases PhaseTimes
}

// PerfCollector keeps per-phase tick timings over a rolling window of ticks.
// Samples live in a fixed ring so timing a tick never allocates.
type PerfCollector struct {
	samples []perfSample
	next    int
	filled  int

	current    perfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]perfSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = perfSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = phase < NumPhases
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick closes the last phase and stores the tick in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.tick = now.Sub(p.tickStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	if p.filled < len(p.samples) {
		p.filled++
	}
}

// RecordFrame marks a rendered frame; the gap to the previous one gives FPS.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of the average tick, per phase.
	// Phases that never ran are zero.
	PhaseAvg PhaseTimes
	PhasePct [NumPhases]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var phaseSum PhaseTimes
	for i, sample := range p.samples[:p.filled] {
		total += sample.tick
		if i == 0 || sample.tick < s.MinTickDuration {
			s.MinTickDuration = sample.tick
		}
		s.MaxTickDuration = max(s.MaxTickDuration, sample.tick)
		for ph, d := range sample.phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgTickDuration = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs the window at info level, skipping phases under 0.1%.
func (s PerfStats) LogStats(logger *zap.Logger) {
	fields := []zap.Field{
		zap.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		zap.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		zap.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		zap.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		fields = append(fields, zap.Int("fps", int(s.FPS)))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			fields = append(fields, zap.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	logger.Info("perf", fields...)
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s PerfStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("avg_tick_us", s.AvgTickDuration.Microseconds())
	enc.AddInt64("min_tick_us", s.MinTickDuration.Microseconds())
	enc.AddInt64("max_tick_us", s.MaxTickDuration.Microseconds())
	enc.AddFloat64("ticks_per_sec", s.TicksPerSecond)
	if s.FPS > 0 {
		enc.AddFloat64("fps", s.FPS)
	}
	for _, ph := range Phases {
		if s.PhaseAvg[ph] > 0 {
			enc.AddFloat64(ph.String()+"_pct", s.PhasePct[ph])
		}
	}
	return nil
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	DiscoverPct     float64 `csv:"discover_pct"`
	ActivatePct     float64 `csv:"activate_pct"`
	RestlessnessPct float64 `csv:"restlessness_pct"`
	DecisionPct     float64 `csv:"decision_pct"`
	MovementPct     float64 `csv:"movement_pct"`
	RetirePct       float64 `csv:"retire_pct"`
	TelemetryPct    float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		DiscoverPct:     s.PhasePct[PhaseDiscover],
		ActivatePct:     s.PhasePct[PhaseActivate],
		RestlessnessPct: s.PhasePct[PhaseRestlessness],
		DecisionPct:     s.PhasePct[PhaseDecision],
		MovementPct:     s.PhasePct[PhaseMovement],
		RetirePct:       s.PhasePct[PhaseRetire],
		TelemetryPct:    s.PhasePct[PhaseTelemetry],
	}
}
