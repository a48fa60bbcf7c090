package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/world"
)

// PhysicsSystem advances the world by a fixed simulated step per frame.
// Phase 2 (Simulate). After a rejected step the simulation stays frozen at
// the last good state; the visualisation keeps running.
type PhysicsSystem struct {
	world    *world.State
	timeStep float64 // simulated seconds per frame
	substeps int
	halted   bool
	log      *zap.Logger
}

func NewPhysicsSystem(ws *world.State, timeStep float64, substeps int, log *zap.Logger) *PhysicsSystem {
	return &PhysicsSystem{world: ws, timeStep: timeStep, substeps: substeps, log: log}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseSimulate }

func (s *PhysicsSystem) Update(_ time.Duration) {
	if s.halted {
		return
	}
	if err := s.world.Step(s.timeStep, s.substeps); err != nil {
		s.halted = true
		s.log.Error("physics halted", zap.Error(err))
	}
}

// Halted reports whether a rejected step froze the simulation.
func (s *PhysicsSystem) Halted() bool { return s.halted }
