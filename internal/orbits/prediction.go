package orbits

import (
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/nbody"
	"github.com/orrery/orbitviz/internal/scene"
)

// PhysicsSource is the live body-state store.
type PhysicsSource interface {
	PhysicsState(id string) (body.PhysicsState, bool)
	// PhysicsStates returns a snapshot in a stable order.
	PhysicsStates() []body.PhysicsState
}

// PredictionOptions sizes the forward simulation.
type PredictionOptions struct {
	Duration float64 // seconds
	Steps    int
	NBody    nbody.Options
}

type prediction struct {
	node line.Renderable
	meta lineMeta
}

// PredictionManager draws the forward-simulated path of bodies. At most one
// prediction line is visible at a time.
type PredictionManager struct {
	scene     scene.Registry
	builder   *line.Builder
	materials line.MaterialFactory
	physics   PhysicsSource
	opts      PredictionOptions
	obs       Observer
	log       *zap.Logger

	visible     bool
	highlighted string

	lines map[string]*prediction
	cache map[string][]r3.Vec
}

func NewPredictionManager(reg scene.Registry, b *line.Builder, materials line.MaterialFactory, physics PhysicsSource, opts PredictionOptions, obs Observer, log *zap.Logger) *PredictionManager {
	if obs == nil {
		obs = NopObserver{}
	}
	return &PredictionManager{
		scene:     reg,
		builder:   b,
		materials: materials,
		physics:   physics,
		opts:      opts,
		obs:       obs,
		log:       log,
		visible:   true,
		lines:     make(map[string]*prediction),
		cache:     make(map[string][]r3.Vec),
	}
}

// UpdatePrediction refreshes the prediction line of id and reports whether
// one is drawn. The trajectory is recomputed when force is set or nothing is
// cached; otherwise the cached points are redrawn.
func (m *PredictionManager) UpdatePrediction(id string, force bool) bool {
	if _, ok := m.physics.PhysicsState(id); !ok {
		if _, tracked := m.lines[id]; tracked {
			m.log.Warn("no physics state, removing prediction", zap.String("body", id))
		}
		m.Remove(id)
		return false
	}

	pts, cached := m.cache[id]
	if force || !cached {
		pts = m.compute(id)
		m.cache[id] = pts
	}
	if len(pts) < 2 {
		m.removeLine(id)
		return false
	}

	p := m.lines[id]
	if p == nil {
		mat := m.materials.Material(line.KindPrediction, id)
		capacity := max(m.opts.Steps+1, len(pts))
		p = &prediction{
			node: m.builder.CreateLine(capacity, mat, scene.PredictionLinePrefix+id),
			meta: lineMeta{BodyID: id, DefaultColor: mat.Color},
		}
		m.lines[id] = p
		m.scene.AddRawObjectToScene(p.node)
		m.log.Debug("prediction line created", zap.String("body", id))
	}
	if len(pts) > p.node.Capacity() {
		m.builder.ResizeLineBuffer(p.node, len(pts))
	}
	m.builder.UpdateLine(p.node, pts, len(pts))
	p.node.SetVisible(m.visible && id == m.highlighted)
	return true
}

func (m *PredictionManager) compute(id string) []r3.Vec {
	start := time.Now()
	pts, err := nbody.PredictTrajectory(id, m.physics.PhysicsStates(), m.opts.Duration, m.opts.Steps, m.opts.NBody)
	m.obs.PredictionComputed(len(pts), time.Since(start), err)
	if err != nil {
		var ie *nbody.InstabilityError
		if errors.As(err, &ie) {
			m.log.Warn("prediction truncated",
				zap.String("body", id),
				zap.Int("step", ie.Step),
				zap.String("unstable", ie.BodyID),
				zap.Int("points", len(pts)))
		} else {
			m.log.Warn("prediction failed", zap.String("body", id), zap.Error(err))
		}
	}
	return pts
}

// HighlightPrediction makes the line of id the only visible prediction.
// An empty id hides them all.
func (m *PredictionManager) HighlightPrediction(id string) {
	m.highlighted = id
	for bodyID, p := range m.lines {
		p.node.SetVisible(m.visible && bodyID == id && id != "")
	}
}

func (m *PredictionManager) SetVisibility(visible bool) {
	m.visible = visible
	m.HighlightPrediction(m.highlighted)
}

// CachedPoints returns the last computed trajectory of id.
func (m *PredictionManager) CachedPoints(id string) ([]r3.Vec, bool) {
	pts, ok := m.cache[id]
	return pts, ok
}

func (m *PredictionManager) removeLine(id string) {
	p, ok := m.lines[id]
	if !ok {
		return
	}
	m.scene.RemoveRawObjectFromScene(p.node)
	m.builder.DisposeLine(p.node)
	delete(m.lines, id)
}

// Remove disposes the line of id and drops its cached trajectory.
func (m *PredictionManager) Remove(id string) {
	m.removeLine(id)
	delete(m.cache, id)
}

// ClearAllPredictions disposes every prediction line and cache entry.
func (m *PredictionManager) ClearAllPredictions() {
	for id := range m.lines {
		m.removeLine(id)
	}
	clear(m.cache)
}

// IDs returns the body ids with a prediction line, sorted.
func (m *PredictionManager) IDs() []string {
	ids := make([]string, 0, len(m.lines))
	for id := range m.lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *PredictionManager) Line(id string) (line.Renderable, bool) {
	p, ok := m.lines[id]
	if !ok {
		return nil, false
	}
	return p.node, true
}

func (m *PredictionManager) Len() int { return len(m.lines) }
