package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/config"
	"github.com/pthm-cable/danger/game"
	"github.com/pthm-cable/danger/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Log telemetry windows and perf stats")
	logLevel := flag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame in graphical mode")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := game.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:         cfg,
		Logger:         logger,
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	}

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}
	defer g.Unload()

	scenario := game.NewScenario(g, cfg.Scenario)

	if *headless {
		logger.Info("starting headless run",
			zap.Int64("seed", rngSeed),
			zap.Int("max_ticks", *maxTicks),
		)
		runHeadless(g, scenario, logger, *maxTicks)
		return
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Danger")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := viewer.New(g, scenario, *stepsPerUpdate)
	defer v.Unload()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless advances the scenario as fast as possible, draining shots
// and lethal contacts every tick.
func runHeadless(g *game.Game, s *game.Scenario, logger *zap.Logger, maxTicks int) {
	dt := g.Config().Derived.DT32
	var shots, contacts int
	for {
		s.Advance(dt)
		g.Step()
		shots += len(g.DrainShots())
		contacts += len(g.LethalContacts())

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			logger.Info("max ticks reached",
				zap.Int32("tick", g.Tick()),
				zap.Int("shots", shots),
				zap.Int("lethal_contacts", contacts),
			)
			return
		}
	}
}
