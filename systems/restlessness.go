package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/danger/components"
)

// RestlessnessSystem accumulates restlessness on live dangers.
type RestlessnessSystem struct {
	filter    ecs.Filter2[components.Live, components.Restlessness]
	exemptMap *ecs.Map[components.TeleportExempt]
}

// NewRestlessnessSystem creates a restlessness system.
func NewRestlessnessSystem(w *ecs.World) *RestlessnessSystem {
	return &RestlessnessSystem{
		filter:    *ecs.NewFilter2[components.Live, components.Restlessness](w),
		exemptMap: ecs.NewMap[components.TeleportExempt](w),
	}
}

// Update adds rate*dt to every live danger that is not teleport-exempt.
// There is no cap.
func (s *RestlessnessSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		if s.exemptMap.Has(query.Entity()) {
			continue
		}
		_, r := query.Get()
		Accumulate(r, dt)
	}
}

// Accumulate applies one tick of passive accumulation.
func Accumulate(r *components.Restlessness, dt float32) {
	r.Current += r.Rate * dt
}
