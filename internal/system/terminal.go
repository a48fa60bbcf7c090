package system

import (
	"time"

	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/data"
	"github.com/orrery/orbitviz/internal/orbits"
	"github.com/orrery/orbitviz/internal/render/term"
	"github.com/orrery/orbitviz/internal/scene"
	"github.com/orrery/orbitviz/internal/world"
)

// TerminalInputSystem turns queued key presses into bus events. Phase 0
// (Input).
type TerminalInputSystem struct {
	term *term.Terminal
}

func NewTerminalInputSystem(t *term.Terminal) *TerminalInputSystem {
	return &TerminalInputSystem{term: t}
}

func (s *TerminalInputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *TerminalInputSystem) Update(_ time.Duration) {
	s.term.HandleInput()
}

// RenderSystem draws the scene graph. Phase 5 (Render).
type RenderSystem struct {
	term    *term.Terminal
	graph   *scene.Graph
	manager *orbits.Manager
	world   *world.State
}

func NewRenderSystem(t *term.Terminal, g *scene.Graph, m *orbits.Manager, ws *world.State) *RenderSystem {
	return &RenderSystem{term: t, graph: g, manager: m, world: ws}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *RenderSystem) Update(_ time.Duration) {
	s.term.Draw(s.graph, term.HUD{
		Mode:                  s.manager.Mode().String(),
		TrailLengthMultiplier: s.manager.TrailLengthMultiplier(),
		Highlighted:           s.manager.Highlighted(),
		Visible:               s.manager.IsVisualizationVisible(),
		SimDays:               s.world.Time() / data.Day,
	})
}
