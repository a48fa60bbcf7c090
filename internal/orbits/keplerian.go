package orbits

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/orbit"
	"github.com/orrery/orbitviz/internal/scene"
)

// lineMeta is the per-line bookkeeping a manager keeps next to each node.
type lineMeta struct {
	BodyID       string
	DefaultColor colorful.Color
	Highlighted  bool
}

// applyHighlight swaps the line colour to c, or back to the default colour
// recorded at creation.
func applyHighlight(l line.Renderable, meta *lineMeta, on bool, c colorful.Color) {
	switch {
	case on:
		l.SetColor(c)
		meta.Highlighted = true
	case meta.Highlighted:
		l.SetColor(meta.DefaultColor)
		meta.Highlighted = false
	}
}

type keplerianLine struct {
	node   line.Renderable
	meta   lineMeta
	params body.OrbitalParameters // elements the drawn ellipse was computed from
}

// KeplerianManager draws one static ellipse per orbiting body, anchored at
// the parent's current scene position.
type KeplerianManager struct {
	scene     scene.Registry
	builder   *line.Builder
	materials line.MaterialFactory
	scale     float64
	segments  int
	log       *zap.Logger

	lines map[string]*keplerianLine
}

func NewKeplerianManager(reg scene.Registry, b *line.Builder, materials line.MaterialFactory, scale float64, log *zap.Logger) *KeplerianManager {
	if scale <= 0 {
		scale = 1
	}
	return &KeplerianManager{
		scene:     reg,
		builder:   b,
		materials: materials,
		scale:     scale,
		segments:  orbit.DefaultSegments,
		log:       log,
		lines:     make(map[string]*keplerianLine),
	}
}

// CreateOrUpdate draws or refreshes the orbit of id around parentID.
// A missing parent or a degenerate orbit removes the line; both are retried
// on the next call.
func (m *KeplerianManager) CreateOrUpdate(id string, params body.OrbitalParameters, parentID string, visible bool, highlightedID string, highlightColor colorful.Color) {
	parent, ok := m.scene.GetObject(parentID)
	if !ok {
		if _, tracked := m.lines[id]; tracked {
			m.log.Warn("orbit parent missing, removing line",
				zap.String("body", id), zap.String("parent", parentID))
		}
		m.Remove(id)
		return
	}

	kl := m.lines[id]
	fresh := kl == nil || kl.params != params
	var points []r3.Vec
	if fresh {
		points = orbit.CalculatePoints(params, m.segments, m.scale)
		if len(points) == 0 {
			m.log.Debug("degenerate orbit skipped", zap.String("body", id))
			m.Remove(id)
			return
		}
	}

	if kl == nil {
		mat := m.materials.Material(line.KindOrbit, id)
		node := m.builder.CreateLine(len(points), mat, scene.OrbitLinePrefix+id)
		kl = &keplerianLine{node: node, meta: lineMeta{BodyID: id, DefaultColor: mat.Color}}
		m.lines[id] = kl
		m.scene.AddRawObjectToScene(node)
		m.log.Debug("orbit line created", zap.String("body", id), zap.Int("points", len(points)))
	}
	if fresh {
		if kl.node.Capacity() < len(points) {
			m.builder.ResizeLineBuffer(kl.node, len(points))
		}
		m.builder.UpdateLine(kl.node, points, len(points))
		kl.params = params
	}

	kl.node.SetPosition(parent.WorldPosition())
	applyHighlight(kl.node, &kl.meta, id == highlightedID && highlightedID != "", highlightColor)
	kl.node.SetVisible(visible)
}

// Highlight recolours lines immediately, without waiting for the next frame.
func (m *KeplerianManager) Highlight(id string, c colorful.Color) {
	for bodyID, kl := range m.lines {
		applyHighlight(kl.node, &kl.meta, bodyID == id && id != "", c)
	}
}

// Remove disposes the line of id, if any.
func (m *KeplerianManager) Remove(id string) {
	kl, ok := m.lines[id]
	if !ok {
		return
	}
	m.scene.RemoveRawObjectFromScene(kl.node)
	m.builder.DisposeLine(kl.node)
	delete(m.lines, id)
}

func (m *KeplerianManager) SetVisibility(visible bool) {
	for _, kl := range m.lines {
		kl.node.SetVisible(visible)
	}
}

// Clear disposes every orbit line.
func (m *KeplerianManager) Clear() {
	for id := range m.lines {
		m.Remove(id)
	}
}

// IDs returns the tracked body ids in sorted order.
func (m *KeplerianManager) IDs() []string {
	ids := make([]string, 0, len(m.lines))
	for id := range m.lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *KeplerianManager) Line(id string) (line.Renderable, bool) {
	kl, ok := m.lines[id]
	if !ok {
		return nil, false
	}
	return kl.node, true
}

func (m *KeplerianManager) Len() int { return len(m.lines) }
