package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/data"
	"github.com/orrery/orbitviz/internal/orbits"
	"github.com/orrery/orbitviz/internal/world"
)

// ReportSystem logs a status line every few frames. It stands in for the
// terminal when running headless. Phase 6 (Cleanup).
type ReportSystem struct {
	world    *world.State
	manager  *orbits.Manager
	throttle *orbits.Throttle
	log      *zap.Logger
}

func NewReportSystem(ws *world.State, m *orbits.Manager, every int, log *zap.Logger) *ReportSystem {
	return &ReportSystem{world: ws, manager: m, throttle: orbits.NewThrottle(every), log: log}
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *ReportSystem) Update(_ time.Duration) {
	if !s.throttle.ShouldRun() {
		return
	}
	m := s.manager
	s.log.Info("simulation status",
		zap.Float64("day", s.world.Time()/data.Day),
		zap.Stringer("mode", m.Mode()),
		zap.Int("orbits", m.Keplerian().Len()),
		zap.Int("trails", m.Trails().Len()),
		zap.Int("predictions", m.Predictions().Len()),
		zap.String("highlighted", m.Highlighted()),
	)
}
