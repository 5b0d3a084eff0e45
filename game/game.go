// Package game hosts the danger engine: it owns the ECS world, the pending
// grid and the systems, and advances them one fixed tick at a time.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/components"
	"github.com/pthm-cable/danger/config"
	"github.com/pthm-cable/danger/systems"
	"github.com/pthm-cable/danger/telemetry"
)

var (
	// ErrNotPlayer is returned when a handle does not name a live player.
	ErrNotPlayer = errors.New("not a player")
	// ErrNotDanger is returned when a handle does not name a live danger.
	ErrNotDanger = errors.New("not a danger")
)

// Options configures game initialization.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Logger         *zap.Logger    // nil = no-op logger
	Seed           int64
	LogStats       bool    // log telemetry windows and perf at info level
	StatsWindowSec float64 // 0 = cfg.Telemetry.StatsWindow
	OutputDir      string  // empty = no CSV output
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete engine state.
type Game struct {
	cfg    *config.Config
	world  *ecs.World
	rng    *rand.Rand
	logger *zap.Logger

	registry *brain.Registry
	grid     *systems.DangerGrid

	activation   *systems.ActivationSystem
	restlessness *systems.RestlessnessSystem
	decision     *systems.DecisionSystem
	movement     *systems.MovementSystem
	playerView   *systems.PlayerView

	// Entity mappers
	dangerMap  *ecs.Map3[components.Position, components.DangerType, components.Danger]
	playerMap  *ecs.Map2[components.Position, components.Player]
	posMap     *ecs.Map[components.Position]
	typeMap    *ecs.Map[components.DangerType]
	infoMap    *ecs.Map[components.Danger]
	idMap      *ecs.Map[components.Player]
	pendingMap *ecs.Map[components.Pending]
	liveMap    *ecs.Map[components.Live]
	restMap    *ecs.Map[components.Restlessness]
	brainMap   *ecs.Map[components.Brain]
	shotMap    *ecs.Map[components.Shot]
	lethalMap  *ecs.Map[components.LethalTouch]
	exemptMap  *ecs.Map[components.TeleportExempt]

	dangerFilter ecs.Filter2[components.Position, components.DangerType]
	shotFilter   ecs.Filter2[components.Position, components.Shot]
	lethalFilter ecs.Filter3[components.Position, components.Danger, components.LethalTouch]

	// Clock
	tick int32
	now  float32
	dt   float32

	// Per-tick scratch
	players []brain.Player
	ctx     brain.Context
	shots   []ShotEvent
	doomed  []ecs.Entity

	nextPlayerID uint32

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
}

// NewGame creates a game with default options.
func NewGame() (*Game, error) {
	return NewGameWithOptions(Options{})
}

// NewGameWithOptions creates a game. Archetype validation errors are
// returned here and never surface during a tick.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, err := brain.NewRegistry(cfg.Archetypes)
	if err != nil {
		return nil, fmt.Errorf("registering archetypes: %w", err)
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	grid := systems.NewDangerGrid(cfg.Derived.CellSize32)

	g := &Game{
		cfg:      cfg,
		world:    world,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		logger:   logger,
		registry: registry,
		grid:     grid,
		dt:       cfg.Derived.DT32,

		activation:   systems.NewActivationSystem(world, grid, registry, logger.Named("activation")),
		restlessness: systems.NewRestlessnessSystem(world),
		decision:     systems.NewDecisionSystem(world, cfg.Sim.Workers, cfg.Sim.ParallelThreshold),
		movement:     systems.NewMovementSystem(world),
		playerView:   systems.NewPlayerView(world),

		dangerMap:  ecs.NewMap3[components.Position, components.DangerType, components.Danger](world),
		playerMap:  ecs.NewMap2[components.Position, components.Player](world),
		posMap:     ecs.NewMap[components.Position](world),
		typeMap:    ecs.NewMap[components.DangerType](world),
		infoMap:    ecs.NewMap[components.Danger](world),
		idMap:      ecs.NewMap[components.Player](world),
		pendingMap: ecs.NewMap[components.Pending](world),
		liveMap:    ecs.NewMap[components.Live](world),
		restMap:    ecs.NewMap[components.Restlessness](world),
		brainMap:   ecs.NewMap[components.Brain](world),
		shotMap:    ecs.NewMap[components.Shot](world),
		lethalMap:  ecs.NewMap[components.LethalTouch](world),
		exemptMap:  ecs.NewMap[components.TeleportExempt](world),

		dangerFilter: *ecs.NewFilter2[components.Position, components.DangerType](world),
		shotFilter:   *ecs.NewFilter2[components.Position, components.Shot](world),
		lethalFilter: *ecs.NewFilter3[components.Position, components.Danger, components.LethalTouch](world),

		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
	}

	g.ctx = brain.Context{
		DT:                g.dt,
		ArrivalTolerance:  float32(cfg.Decision.ArrivalTolerance),
		RestlessnessScale: float32(cfg.Decision.MaxRestlessness),
		Rand:              g.rng,
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			g.decision.Stop()
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			g.decision.Stop()
			return nil, fmt.Errorf("writing config snapshot: %w", err)
		}
		g.outputManager = om
	}

	logger.Info("danger engine ready",
		zap.Int("archetypes", len(registry.All())),
		zap.Float32("cell_size", cfg.Derived.CellSize32),
		zap.Float32("despawn_distance", cfg.Derived.DespawnDistance32),
		zap.Float32("grace_period", cfg.Derived.GracePeriod32),
		zap.Int64("seed", opts.Seed),
	)
	return g, nil
}

// Step advances the engine by one tick.
//
// Order: discover, activate (with the exemption refresh), restlessness,
// decision, movement, retire, telemetry. Retirement sees the positions
// produced by this tick's movement.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	g.tick++
	g.now = float32(g.tick) * g.dt
	g.players = g.playerView.CollectInto(g.players[:0])

	g.perfCollector.StartPhase(telemetry.PhaseDiscover)
	discovered := g.activation.Discover()

	g.perfCollector.StartPhase(telemetry.PhaseActivate)
	promoted, astats := g.activation.Activate(g.players, g.now)
	for _, e := range promoted {
		g.logEvent(g.lifecycleEvent(telemetry.NewPromoteEvent, e))
	}
	g.activation.RefreshExempt(g.now)
	g.collector.RecordActivation(discovered, astats.Promoted, astats.Dropped)

	g.perfCollector.StartPhase(telemetry.PhaseRestlessness)
	g.restlessness.Update(g.dt)

	g.perfCollector.StartPhase(telemetry.PhaseDecision)
	g.ctx.Now = g.now
	g.ctx.Players = g.players
	dstats := g.decision.Update(&g.ctx)
	g.collector.RecordDecision(dstats.Requests, dstats.Cancels, dstats.Successes, dstats.Failures, dstats.Shots)

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(g.dt)

	g.perfCollector.StartPhase(telemetry.PhaseRetire)
	retired := g.activation.Retire(g.players, g.now, g.cfg.Derived.DespawnDistance32, g.cfg.Derived.GracePeriod32)
	for _, e := range retired {
		g.logEvent(g.lifecycleEvent(telemetry.NewRetireEvent, e))
	}
	g.collector.RecordRetirements(len(retired))

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

func (g *Game) lifecycleEvent(mk func(int32, uint32, string, float32, float32) telemetry.Event, e ecs.Entity) telemetry.Event {
	pos := g.posMap.Get(e)
	return mk(g.tick, e.ID(), g.archetypeName(e), pos.X, pos.Y)
}

func (g *Game) archetypeName(e ecs.Entity) string {
	if !g.typeMap.Has(e) {
		return ""
	}
	arch, ok := g.registry.Get(g.typeMap.Get(e).Index)
	if !ok {
		return ""
	}
	return arch.Name
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Now returns the simulation time of the last tick in seconds.
func (g *Game) Now() float32 {
	return g.now
}

// Registry returns the archetype registry.
func (g *Game) Registry() *brain.Registry {
	return g.registry
}

// Grid returns the pending-danger grid.
func (g *Game) Grid() *systems.DangerGrid {
	return g.grid
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// PerfStats returns the rolling performance statistics.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// RecordFrame records frame timing for the viewer.
func (g *Game) RecordFrame() {
	g.perfCollector.RecordFrame()
}

// Unload stops the worker pool and closes output files.
func (g *Game) Unload() {
	g.decision.Stop()
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("closing output", zap.Error(err))
	}
	_ = g.logger.Sync()
}
