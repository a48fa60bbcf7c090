package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/core/event"
	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/orbits"
)

// VisualizationSystem drives the orbits manager once per frame and applies
// user requests from the bus. Phase 4 (Visualize).
type VisualizationSystem struct {
	manager *orbits.Manager
	log     *zap.Logger
}

func NewVisualizationSystem(m *orbits.Manager, bus *event.Bus, log *zap.Logger) *VisualizationSystem {
	s := &VisualizationSystem{manager: m, log: log}
	event.Subscribe(bus, s.onSettings)
	event.Subscribe(bus, s.onHighlight)
	event.Subscribe(bus, s.onVisibility)
	return s
}

func (s *VisualizationSystem) Phase() coresys.Phase { return coresys.PhaseVisualize }

func (s *VisualizationSystem) Update(_ time.Duration) {
	s.manager.UpdateAllVisualizations()
}

func (s *VisualizationSystem) onSettings(e event.SettingsChanged) {
	s.manager.ApplySettings(orbits.Settings{
		PhysicsEngine:         e.PhysicsEngine,
		TrailLengthMultiplier: e.TrailLengthMultiplier,
	})
}

func (s *VisualizationSystem) onHighlight(e event.HighlightRequested) {
	s.manager.HighlightVisualization(e.BodyID)
}

func (s *VisualizationSystem) onVisibility(event.VisibilityToggled) {
	s.manager.ToggleVisualization()
	s.log.Debug("visualization visibility", zap.Bool("visible", s.manager.IsVisualizationVisible()))
}
