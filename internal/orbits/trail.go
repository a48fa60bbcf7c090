package orbits

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/scene"
)

// TrailOptions controls trail smoothing.
type TrailOptions struct {
	Smooth       bool
	Subdivisions int // spline points per history segment
}

type trail struct {
	node    line.Renderable
	meta    lineMeta
	history []r3.Vec // oldest first
}

// TrailManager records recent positions per body and draws them as a line.
type TrailManager struct {
	scene     scene.Registry
	builder   *line.Builder
	materials line.MaterialFactory
	opts      TrailOptions
	log       *zap.Logger

	visible        bool
	highlighted    string
	highlightColor colorful.Color

	trails map[string]*trail
}

func NewTrailManager(reg scene.Registry, b *line.Builder, materials line.MaterialFactory, opts TrailOptions, log *zap.Logger) *TrailManager {
	if opts.Subdivisions < 1 {
		opts.Subdivisions = 1
	}
	return &TrailManager{
		scene:     reg,
		builder:   b,
		materials: materials,
		opts:      opts,
		log:       log,
		visible:   true,
		trails:    make(map[string]*trail),
	}
}

// capacityFor is the worst-case point count of a trail of maxHistory entries.
func (m *TrailManager) capacityFor(maxHistory int) int {
	if m.opts.Smooth && maxHistory >= 3 {
		return (maxHistory - 1) * m.opts.Subdivisions
	}
	return maxHistory
}

// UpdateTrail appends r's current position to the history of id. The drawn
// geometry is only recomputed when updateGeometry is set, the line is new,
// or the line was hidden.
func (m *TrailManager) UpdateTrail(id string, r *body.Renderable, maxHistory int, updateGeometry bool) {
	if maxHistory < 1 {
		maxHistory = 1
	}
	t := m.trails[id]
	created := false
	if t == nil {
		mat := m.materials.Material(line.KindTrail, id)
		node := m.builder.CreateLine(m.capacityFor(maxHistory), mat, scene.TrailLinePrefix+id)
		t = &trail{
			node:    node,
			meta:    lineMeta{BodyID: id, DefaultColor: mat.Color},
			history: make([]r3.Vec, 0, maxHistory),
		}
		m.trails[id] = t
		m.scene.AddRawObjectToScene(node)
		created = true
		m.log.Debug("trail line created", zap.String("body", id))
	}

	t.history = append(t.history, r.Position)
	t.history = trimHistory(t.history, maxHistory)

	if updateGeometry || created || !t.node.Visible() {
		m.redraw(t)
	}
	applyHighlight(t.node, &t.meta, id == m.highlighted && id != "", m.highlightColor)
	t.node.SetVisible(m.visible)
}

func (m *TrailManager) redraw(t *trail) {
	pts := t.history
	if m.opts.Smooth && len(pts) >= 3 {
		pts = smoothCentripetal(pts, (len(pts)-1)*m.opts.Subdivisions)
	}
	if len(pts) > t.node.Capacity() {
		m.builder.ResizeLineBuffer(t.node, len(pts))
	}
	m.builder.UpdateLine(t.node, pts, len(pts))
}

// trimHistory drops the oldest entries beyond limit, reusing the backing array.
func trimHistory(h []r3.Vec, limit int) []r3.Vec {
	if len(h) <= limit {
		return h
	}
	n := copy(h, h[len(h)-limit:])
	clear(h[n:])
	return h[:n]
}

// LimitHistoryMemory trims every history to limit entries and shrinks
// backing arrays left oversized by a lowered trail length.
func (m *TrailManager) LimitHistoryMemory(limit int) {
	if limit < 1 {
		limit = 1
	}
	for _, t := range m.trails {
		t.history = trimHistory(t.history, limit)
		if cap(t.history) > 2*limit {
			t.history = append(make([]r3.Vec, 0, limit), t.history...)
		}
	}
}

// History returns a copy of the recorded positions of id, oldest first.
func (m *TrailManager) History(id string) []r3.Vec {
	t, ok := m.trails[id]
	if !ok {
		return nil
	}
	out := make([]r3.Vec, len(t.history))
	copy(out, t.history)
	return out
}

// SetHighlight recolours the trail of id and restores the previous one.
func (m *TrailManager) SetHighlight(id string, c colorful.Color) {
	m.highlighted = id
	m.highlightColor = c
	for bodyID, t := range m.trails {
		applyHighlight(t.node, &t.meta, bodyID == id && id != "", c)
	}
}

func (m *TrailManager) SetVisibility(visible bool) {
	m.visible = visible
	for _, t := range m.trails {
		t.node.SetVisible(visible)
	}
}

// Remove disposes the trail of id and forgets its history.
func (m *TrailManager) Remove(id string) {
	t, ok := m.trails[id]
	if !ok {
		return
	}
	m.scene.RemoveRawObjectFromScene(t.node)
	m.builder.DisposeLine(t.node)
	delete(m.trails, id)
}

func (m *TrailManager) Clear() {
	for id := range m.trails {
		m.Remove(id)
	}
}

// IDs returns the tracked body ids in sorted order.
func (m *TrailManager) IDs() []string {
	ids := make([]string, 0, len(m.trails))
	for id := range m.trails {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *TrailManager) Line(id string) (line.Renderable, bool) {
	t, ok := m.trails[id]
	if !ok {
		return nil, false
	}
	return t.node, true
}

func (m *TrailManager) Len() int { return len(m.trails) }
