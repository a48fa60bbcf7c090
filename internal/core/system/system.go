package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput     Phase = iota // 0: poll terminal input
	PhaseDispatch               // 1: deliver last frame's events
	PhaseSimulate               // 2: advance physics
	PhaseSceneSync              // 3: move body nodes in the scene graph
	PhaseVisualize              // 4: orbits, trails, predictions
	PhaseRender                 // 5: draw the frame
	PhaseCleanup                // 6: end-of-frame bookkeeping
)

var phaseNames = [...]string{"input", "dispatch", "simulate", "scene_sync", "visualize", "render", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is one unit of per-frame work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
