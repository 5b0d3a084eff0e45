package game

import (
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/brain"
	"github.com/pthm-cable/danger/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.census())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		g.logger.Info("telemetry", zap.Object("stats", stats))
		perfStats.LogStats(g.logger)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", zap.Error(err))
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.logger.Error("failed to write perf", zap.Error(err))
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark(g.logger)
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				g.logger.Error("failed to write bookmark", zap.Error(err))
			}
		}
	}
}

// census counts dangers by state and samples live restlessness.
func (g *Game) census() telemetry.Population {
	var pop telemetry.Population

	query := g.dangerFilter.Query()
	for query.Next() {
		e := query.Entity()
		if g.pendingMap.Has(e) {
			pop.Pending++
			continue
		}
		if !g.liveMap.Has(e) {
			continue
		}
		pop.Live++
		if g.lethalMap.Has(e) {
			pop.LethalLive++
		}
		if g.exemptMap.Has(e) {
			pop.Exempt++
		}
		if g.restMap.Has(e) {
			pop.Restlessness = append(pop.Restlessness, float64(g.restMap.Get(e).Current))
		}
		if g.brainMap.Has(e) && g.brainMap.Get(e).Thinker != nil {
			switch g.brainMap.Get(e).Thinker.Current() {
			case brain.KindResting:
				pop.Actions.Resting++
			case brain.KindChasing:
				pop.Actions.Chasing++
			case brain.KindShooting:
				pop.Actions.Shooting++
			case brain.KindMeandering:
				pop.Actions.Meandering++
			}
		}
	}
	return pop
}
