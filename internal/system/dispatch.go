package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/core/event"
	coresys "github.com/orrery/orbitviz/internal/core/system"
)

// DispatchSystem delivers the events emitted last frame. Phase 1 (Dispatch).
type DispatchSystem struct {
	bus *event.Bus
	log *zap.Logger
}

func NewDispatchSystem(bus *event.Bus, log *zap.Logger) *DispatchSystem {
	return &DispatchSystem{bus: bus, log: log}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	if n := s.bus.DispatchAll(); n > 0 {
		s.log.Debug("events dispatched", zap.Int("count", n))
	}
}
