package game

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"

	"github.com/pthm-cable/danger/config"
)

// scriptedPlayer walks a closed loop of waypoints.
type scriptedPlayer struct {
	entity    ecs.Entity
	speed     float32
	waypoints []config.PointConfig
	next      int
}

// Scenario drives scripted players across a field of scattered dangers.
type Scenario struct {
	g       *Game
	players []scriptedPlayer
	width   float32
	height  float32
}

// NewScenario scatters the configured dangers and places each scripted
// player on its first waypoint.
func NewScenario(g *Game, cfg config.ScenarioConfig) *Scenario {
	s := &Scenario{
		g:      g,
		width:  float32(cfg.Width),
		height: float32(cfg.Height),
	}
	g.ScatterDangers(cfg.Dangers, s.width, s.height)

	for _, pc := range cfg.Players {
		if len(pc.Waypoints) == 0 {
			continue
		}
		start := pc.Waypoints[0]
		s.players = append(s.players, scriptedPlayer{
			entity:    g.AddPlayer(float32(start.X), float32(start.Y)),
			speed:     float32(pc.Speed),
			waypoints: pc.Waypoints,
			next:      1 % len(pc.Waypoints),
		})
	}

	g.logger.Info("scenario ready",
		zap.Int("dangers", cfg.Dangers),
		zap.Int("players", len(s.players)),
		zap.Float32("width", s.width),
		zap.Float32("height", s.height),
	)
	return s
}

// Size returns the field dimensions.
func (s *Scenario) Size() (w, h float32) {
	return s.width, s.height
}

// Players returns the scripted player entities.
func (s *Scenario) Players() []ecs.Entity {
	out := make([]ecs.Entity, len(s.players))
	for i := range s.players {
		out[i] = s.players[i].entity
	}
	return out
}

// Advance moves every scripted player dt seconds along its route.
func (s *Scenario) Advance(dt float32) {
	for i := range s.players {
		p := &s.players[i]
		x, y, err := s.g.PlayerPosition(p.entity)
		if err != nil {
			continue
		}
		budget := p.speed * dt
		for steps := 0; budget > 0 && steps <= len(p.waypoints); steps++ {
			wp := p.waypoints[p.next]
			dx, dy := float32(wp.X)-x, float32(wp.Y)-y
			d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if d <= budget {
				x, y = float32(wp.X), float32(wp.Y)
				budget -= d
				p.next = (p.next + 1) % len(p.waypoints)
				continue
			}
			x += dx / d * budget
			y += dy / d * budget
			budget = 0
		}
		_ = s.g.MovePlayer(p.entity, x, y)
	}
}
