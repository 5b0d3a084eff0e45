package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseActivate)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseDecision)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Positive(t, stats.AvgTickDuration)
	assert.Positive(t, stats.PhaseAvg[PhaseActivate])
	assert.Positive(t, stats.PhaseAvg[PhaseDecision])
	assert.Zero(t, stats.PhaseAvg[PhaseRetire], "phase never started")
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseMovement)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Positive(t, stats.AvgTickDuration)
	assert.Positive(t, stats.TicksPerSecond)
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseDiscover)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseDecision)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Greater(t, stats.PhasePct[PhaseDecision], stats.PhasePct[PhaseDiscover])
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	assert.Zero(t, stats.AvgTickDuration)
	assert.Zero(t, stats.TicksPerSecond)
	assert.Equal(t, PhaseTimes{}, stats.PhaseAvg)
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	assert.GreaterOrEqual(t, stats.FrameDuration, 15*time.Millisecond)
	assert.Positive(t, stats.FPS)
	assert.LessOrEqual(t, stats.FPS, 67.0)
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		TicksPerSecond:  4000,
		PhasePct: [NumPhases]float64{
			PhaseDecision: 60,
			PhaseActivate: 25,
			PhaseRetire:   15,
		},
	}

	row := stats.ToCSV(1200)
	assert.Equal(t, int32(1200), row.WindowEnd)
	assert.Equal(t, int64(250), row.AvgTickUS)
	assert.Equal(t, 60.0, row.DecisionPct)
	assert.Equal(t, 25.0, row.ActivatePct)
	assert.Equal(t, 15.0, row.RetirePct)
	assert.Zero(t, row.MovementPct)
}

func TestPerfStats_LogStats(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	stats := PerfStats{
		AvgTickDuration: time.Millisecond,
		TicksPerSecond:  1000,
		PhasePct:        [NumPhases]float64{PhaseDecision: 80, PhaseMovement: 0.05},
	}

	stats.LogStats(zap.New(core))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(1000), fields["avg_tick_us"])
	assert.Contains(t, fields, "decision_pct")
	assert.NotContains(t, fields, "movement_pct")
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "discover", PhaseDiscover.String())
	assert.Equal(t, "telemetry", PhaseTelemetry.String())
	assert.Equal(t, "unknown", NumPhases.String())
	assert.Len(t, Phases, int(NumPhases))
}
