package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	discovered  int
	promotions  int
	retirements int
	dropped     int
	despawns    int
	requests    int
	cancels     int
	successes   int
	failures    int
	shots       int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record counts a single lifecycle event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventDiscover:
		c.discovered++
	case EventPromote:
		c.promotions++
	case EventRetire:
		c.retirements++
	case EventDrop:
		c.dropped++
	case EventDespawn:
		c.despawns++
	case EventShot:
		c.shots++
	}
}

// RecordActivation adds the counts from one activation pass.
func (c *Collector) RecordActivation(discovered, promoted, dropped int) {
	c.discovered += discovered
	c.promotions += promoted
	c.dropped += dropped
}

// RecordRetirements adds n retirements.
func (c *Collector) RecordRetirements(n int) {
	c.retirements += n
}

// RecordDecision adds the counts from one decision pass.
func (c *Collector) RecordDecision(requests, cancels, successes, failures, shots int) {
	c.requests += requests
	c.cancels += cancels
	c.successes += successes
	c.failures += failures
	c.shots += shots
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population is the danger census taken at window end.
type Population struct {
	Live       int
	Pending    int
	LethalLive int
	Exempt     int
	Actions    ActionCounts
	// Restlessness of every live danger; sorted in place by Flush.
	Restlessness []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	rest := ComputeRestlessnessStats(pop.Restlessness)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Live:       pop.Live,
		Pending:    pop.Pending,
		LethalLive: pop.LethalLive,
		Exempt:     pop.Exempt,

		Discovered:  c.discovered,
		Promotions:  c.promotions,
		Retirements: c.retirements,
		Dropped:     c.dropped,
		Despawns:    c.despawns,

		Requests:  c.requests,
		Cancels:   c.cancels,
		Successes: c.successes,
		Failures:  c.failures,
		Shots:     c.shots,

		Resting:    pop.Actions.Resting,
		Chasing:    pop.Actions.Chasing,
		Shooting:   pop.Actions.Shooting,
		Meandering: pop.Actions.Meandering,

		RestlessMean: rest.Mean,
		RestlessStd:  rest.Std,
		RestlessP50:  rest.P50,
		RestlessP90:  rest.P90,
		RestlessMax:  rest.Max,
	}

	c.windowStartTick = currentTick
	c.discovered = 0
	c.promotions = 0
	c.retirements = 0
	c.dropped = 0
	c.despawns = 0
	c.requests = 0
	c.cancels = 0
	c.successes = 0
	c.failures = 0
	c.shots = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
