package orbits

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/scene"
)

// Mode selects which visualisation the manager maintains.
type Mode int

const (
	ModeKeplerian Mode = iota // static ellipses from orbital elements
	ModeVerlet                // trails plus the highlighted body's prediction
)

func (m Mode) String() string {
	if m == ModeVerlet {
		return "verlet"
	}
	return "keplerian"
}

// ModeForEngine maps a physics engine setting to a mode. Anything other than
// "verlet" is Keplerian.
func ModeForEngine(engine string) Mode {
	if engine == "verlet" {
		return ModeVerlet
	}
	return ModeKeplerian
}

// Settings is the subset of user settings the manager reacts to.
type Settings struct {
	PhysicsEngine         string
	TrailLengthMultiplier float64
}

// BaseTrailLength is the history cap at a trail length multiplier of 1.
const BaseTrailLength = 100

// StateSource is the physics/body-state store the manager reads every frame.
type StateSource interface {
	PhysicsSource
	// Renderables returns the current body snapshots in a stable order.
	Renderables() []body.Renderable
}

// Config holds the manager's tunables.
type Config struct {
	Mode                  Mode
	Visible               bool
	TrailLengthMultiplier float64
	HighlightColor        colorful.Color
	Scale                 float64 // metres to scene units

	TrailEvery      int // frames between trail geometry uploads
	PredictionEvery int // frames between full prediction recalculations
	TrimEvery       int // frames between history trims

	Trail      TrailOptions
	Prediction PredictionOptions
}

// Manager is the per-frame orchestrator over the Keplerian, trail and
// prediction managers. All methods must be called from the frame loop.
type Manager struct {
	src  StateSource
	pool *line.Pool
	obs  Observer
	log  *zap.Logger

	keplerian   *KeplerianManager
	trails      *TrailManager
	predictions *PredictionManager

	trailThrottle      *Throttle
	predictionThrottle *Throttle
	trimThrottle       *Throttle

	mode           Mode
	visible        bool
	highlighted    string
	highlightColor colorful.Color
	multiplier     float64
	disposed       bool
}

func NewManager(cfg Config, src StateSource, reg scene.Registry, b *line.Builder, materials line.MaterialFactory, obs Observer, log *zap.Logger) *Manager {
	if obs == nil {
		obs = NopObserver{}
	}
	if cfg.TrailLengthMultiplier <= 0 {
		cfg.TrailLengthMultiplier = 1
	}
	m := &Manager{
		src:                src,
		pool:               b.Pool(),
		obs:                obs,
		log:                log,
		keplerian:          NewKeplerianManager(reg, b, materials, cfg.Scale, log),
		trails:             NewTrailManager(reg, b, materials, cfg.Trail, log),
		predictions:        NewPredictionManager(reg, b, materials, src, cfg.Prediction, obs, log),
		trailThrottle:      NewThrottle(cfg.TrailEvery),
		predictionThrottle: NewThrottle(cfg.PredictionEvery),
		trimThrottle:       NewThrottle(cfg.TrimEvery),
		mode:               cfg.Mode,
		visible:            cfg.Visible,
		highlightColor:     cfg.HighlightColor,
		multiplier:         cfg.TrailLengthMultiplier,
	}
	// Sub-managers start visible; lines they create must honour the
	// configured flag whichever mode is entered first.
	m.trails.SetVisibility(m.visible)
	m.predictions.SetVisibility(m.visible)
	return m
}

func (m *Manager) Mode() Mode { return m.mode }

func (m *Manager) Keplerian() *KeplerianManager    { return m.keplerian }
func (m *Manager) Trails() *TrailManager           { return m.trails }
func (m *Manager) Predictions() *PredictionManager { return m.predictions }

// Highlighted returns the highlighted body id, or "".
func (m *Manager) Highlighted() string { return m.highlighted }

// MaxHistoryLength is the trail history cap for the current multiplier.
func (m *Manager) MaxHistoryLength() int {
	return max(1, int(math.Round(BaseTrailLength*m.multiplier)))
}

func (m *Manager) TrailLengthMultiplier() float64 { return m.multiplier }

// SetVisualizationMode switches modes, disposing the lines of the mode being
// left, and rebuilds immediately.
func (m *Manager) SetVisualizationMode(mode Mode) {
	if m.disposed || mode == m.mode {
		return
	}
	switch mode {
	case ModeVerlet:
		m.keplerian.Clear()
	default:
		m.trails.Clear()
		m.predictions.ClearAllPredictions()
	}
	m.trailThrottle.Reset()
	m.predictionThrottle.Reset()
	m.trimThrottle.Reset()

	m.log.Info("visualization mode changed",
		zap.Stringer("from", m.mode), zap.Stringer("to", mode))
	m.mode = mode
	m.obs.ModeChanged(mode)

	m.applyHighlight()
	m.applyVisibility()
	m.UpdateAllVisualizations()
}

// UpdateAllVisualizations brings the active mode's lines up to date with the
// state store. Call once per frame.
func (m *Manager) UpdateAllVisualizations() {
	if m.disposed {
		return
	}
	start := time.Now()
	objs := m.src.Renderables()
	var lines int
	if m.mode == ModeVerlet {
		lines = m.updateVerlet(objs)
	} else {
		lines = m.updateKeplerian(objs)
	}
	m.obs.FrameUpdated(m.mode, lines, time.Since(start))
	m.obs.PoolSampled(m.pool.Stats())
}

func (m *Manager) updateKeplerian(objs []body.Renderable) int {
	seen := make(map[string]struct{}, len(objs))
	for i := range objs {
		o := &objs[i]
		if !o.HasOrbit() {
			continue
		}
		seen[o.ID] = struct{}{}
		m.keplerian.CreateOrUpdate(o.ID, *o.Orbit, o.ParentID, m.visible, m.highlighted, m.highlightColor)
	}
	for _, id := range m.keplerian.IDs() {
		if _, ok := seen[id]; !ok {
			m.keplerian.Remove(id)
		}
	}
	return m.keplerian.Len()
}

func (m *Manager) updateVerlet(objs []body.Renderable) int {
	maxLen := m.MaxHistoryLength()
	upload := m.trailThrottle.ShouldRun()
	seen := make(map[string]struct{}, len(objs))
	for i := range objs {
		o := &objs[i]
		seen[o.ID] = struct{}{}
		m.trails.UpdateTrail(o.ID, o, maxLen, upload)
	}
	for _, id := range m.trails.IDs() {
		if _, ok := seen[id]; !ok {
			m.trails.Remove(id)
		}
	}

	recalc := m.predictionThrottle.ShouldRun()
	for _, id := range m.predictions.IDs() {
		if id != m.highlighted {
			m.predictions.Remove(id)
		}
	}
	if m.highlighted != "" {
		m.predictions.UpdatePrediction(m.highlighted, recalc)
	}

	if m.trimThrottle.ShouldRun() {
		m.trails.LimitHistoryMemory(maxLen)
	}
	return m.trails.Len() + m.predictions.Len()
}

// ToggleVisualization flips the global visibility.
func (m *Manager) ToggleVisualization() {
	m.SetVisibility(!m.visible)
}

// SetVisibility shows or hides the active mode's lines.
func (m *Manager) SetVisibility(visible bool) {
	m.visible = visible
	m.applyVisibility()
}

func (m *Manager) applyVisibility() {
	if m.mode == ModeVerlet {
		m.trails.SetVisibility(m.visible)
		m.predictions.SetVisibility(m.visible)
		return
	}
	m.keplerian.SetVisibility(m.visible)
}

func (m *Manager) IsVisualizationVisible() bool { return m.visible }

// HighlightVisualization moves the highlight to id; "" clears it. In Verlet
// mode the new body's prediction is computed right away.
func (m *Manager) HighlightVisualization(id string) {
	if m.disposed || id == m.highlighted {
		return
	}
	prev := m.highlighted
	m.highlighted = id
	m.log.Debug("highlight changed", zap.String("from", prev), zap.String("to", id))

	m.applyHighlight()
	if m.mode == ModeVerlet {
		if prev != "" {
			m.predictions.Remove(prev)
		}
		if id != "" {
			m.predictions.UpdatePrediction(id, true)
			m.predictionThrottle.Reset()
		}
	}
}

func (m *Manager) applyHighlight() {
	if m.mode == ModeVerlet {
		m.trails.SetHighlight(m.highlighted, m.highlightColor)
		m.predictions.HighlightPrediction(m.highlighted)
		return
	}
	m.keplerian.Highlight(m.highlighted, m.highlightColor)
}

// ApplySettings reacts to a settings change: trail length first, then mode.
func (m *Manager) ApplySettings(s Settings) {
	if m.disposed {
		return
	}
	if s.TrailLengthMultiplier > 0 && s.TrailLengthMultiplier != m.multiplier {
		m.multiplier = s.TrailLengthMultiplier
		m.trails.LimitHistoryMemory(m.MaxHistoryLength())
		m.log.Debug("trail length changed", zap.Int("max_history", m.MaxHistoryLength()))
	}
	m.SetVisualizationMode(ModeForEngine(s.PhysicsEngine))
}

// Dispose releases every line and the pooled buffers. The manager is inert
// afterwards.
func (m *Manager) Dispose() {
	if m.disposed {
		return
	}
	m.keplerian.Clear()
	m.trails.Clear()
	m.predictions.ClearAllPredictions()
	m.pool.Clear()
	m.disposed = true
	m.log.Debug("orbits manager disposed")
}
