package game

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pthm-cable/danger/config"
	"github.com/pthm-cable/danger/telemetry"
)

// NewLogger builds a zap logger from the logging config.
// Development mode uses the console encoder; otherwise JSON to stdout.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stdout"}
	if cfg.SampleInitial > 0 && cfg.SampleThereafter > 0 {
		zc.Sampling = &zap.SamplingConfig{
			Initial:    cfg.SampleInitial,
			Thereafter: cfg.SampleThereafter,
		}
	} else {
		zc.Sampling = nil
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// logEvent writes a lifecycle event at debug level.
func (g *Game) logEvent(ev telemetry.Event) {
	if ce := g.logger.Check(zapcore.DebugLevel, "danger"); ce != nil {
		ce.Write(zap.Object("event", ev))
	}
}

// logWorldState logs a census of the danger population.
func (g *Game) logWorldState() {
	pop := g.census()
	g.logger.Info("world",
		zap.Int32("tick", g.tick),
		zap.Float32("sim_time", g.now),
		zap.Int("players", len(g.players)),
		zap.Int("live", pop.Live),
		zap.Int("pending", pop.Pending),
		zap.Int("grid_records", g.grid.Len()),
		zap.Int("lethal_live", pop.LethalLive),
		zap.Int("exempt", pop.Exempt),
		zap.Int("chasing", pop.Actions.Chasing),
		zap.Int("shooting", pop.Actions.Shooting),
		zap.Int("meandering", pop.Actions.Meandering),
		zap.Int("resting", pop.Actions.Resting),
	)
}
