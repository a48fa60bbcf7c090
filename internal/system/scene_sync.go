package system

import (
	"time"

	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/scene"
	"github.com/orrery/orbitviz/internal/world"
)

// SceneSyncSystem mirrors body positions into the scene graph and drops
// nodes of removed bodies. Phase 3 (SceneSync).
type SceneSyncSystem struct {
	world *world.State
	graph *scene.Graph
	keep  map[string]struct{}
}

func NewSceneSyncSystem(ws *world.State, g *scene.Graph) *SceneSyncSystem {
	return &SceneSyncSystem{world: ws, graph: g, keep: make(map[string]struct{})}
}

func (s *SceneSyncSystem) Phase() coresys.Phase { return coresys.PhaseSceneSync }

func (s *SceneSyncSystem) Update(_ time.Duration) {
	clear(s.keep)
	for _, r := range s.world.Renderables() {
		s.graph.SyncBody(r.ID, r.Position, r.Radius)
		s.keep[r.ID] = struct{}{}
	}
	s.graph.PruneBodies(s.keep)
}
