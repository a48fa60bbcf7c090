package world

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/nbody"
	"github.com/orrery/orbitviz/internal/scene"
)

// Body is the static description of a simulated body.
type Body struct {
	ID       string
	Name     string
	ParentID string                  // "" for the system root
	Radius   float64                 // metres
	Orbit    *body.OrbitalParameters // elements drawn in Keplerian mode, nil if none
}

// State owns the live physics of every body and produces the snapshots the
// visualisation reads. Single-goroutine access only (frame loop).
type State struct {
	bodies []Body
	states []body.PhysicsState // parallel to bodies
	index  map[string]int

	integrator *nbody.Integrator
	scale      float64 // metres to scene units
	simTime    float64 // seconds since start
	log        *zap.Logger
}

func NewState(scale float64, opts nbody.Options, log *zap.Logger) *State {
	if scale <= 0 {
		scale = 1
	}
	return &State{
		index:      make(map[string]int, 16),
		integrator: nbody.NewIntegrator(opts),
		scale:      scale,
		log:        log,
	}
}

// AddBody registers a body with its initial state. IDs must be unique.
func (s *State) AddBody(b Body, ps body.PhysicsState) error {
	if b.ID == "" {
		return errors.New("body without id")
	}
	if scene.IsLineID(b.ID) {
		return fmt.Errorf("body id %q collides with line node names", b.ID)
	}
	if _, dup := s.index[b.ID]; dup {
		return fmt.Errorf("duplicate body %q", b.ID)
	}
	ps.ID = b.ID
	s.index[b.ID] = len(s.bodies)
	s.bodies = append(s.bodies, b)
	s.states = append(s.states, ps)
	return nil
}

// RemoveBody drops a body. Children keep their parent id; while the parent is
// absent their snapshots carry no parent, and the link returns if a body
// with that id is added again.
func (s *State) RemoveBody(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
	s.states = append(s.states[:i], s.states[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.bodies); j++ {
		s.index[s.bodies[j].ID] = j
	}
	s.log.Debug("body removed", zap.String("body", id))
	return true
}

// Step advances the simulation by dt seconds split into substeps. An
// unstable step leaves the state at the last good step.
func (s *State) Step(dt float64, substeps int) error {
	if len(s.states) == 0 || !(dt > 0) || math.IsInf(dt, 0) {
		return nil
	}
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float64(substeps)
	for i := 0; i < substeps; i++ {
		if err := s.integrator.Advance(s.states, h); err != nil {
			s.log.Warn("simulation step rejected", zap.Float64("time", s.simTime), zap.Error(err))
			return fmt.Errorf("step at t=%.0fs: %w", s.simTime, err)
		}
		s.simTime += h
	}
	return nil
}

// Time returns simulated seconds since start.
func (s *State) Time() float64 { return s.simTime }

func (s *State) Len() int { return len(s.bodies) }

// IDs returns body ids in insertion order.
func (s *State) IDs() []string {
	ids := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		ids[i] = b.ID
	}
	return ids
}

func (s *State) PhysicsState(id string) (body.PhysicsState, bool) {
	i, ok := s.index[id]
	if !ok {
		return body.PhysicsState{}, false
	}
	return s.states[i], true
}

// PhysicsStates returns a copy of every body's state in insertion order.
func (s *State) PhysicsStates() []body.PhysicsState {
	out := make([]body.PhysicsState, len(s.states))
	copy(out, s.states)
	return out
}

// Renderables returns scene-unit snapshots in insertion order. A parent that
// is not in the store is reported as none.
func (s *State) Renderables() []body.Renderable {
	out := make([]body.Renderable, len(s.bodies))
	for i, b := range s.bodies {
		parent := b.ParentID
		if _, ok := s.index[parent]; !ok {
			parent = ""
		}
		out[i] = body.Renderable{
			ID:       b.ID,
			ParentID: parent,
			Position: r3.Scale(s.scale, s.states[i].Position),
			Orbit:    b.Orbit,
			Radius:   b.Radius * s.scale,
		}
	}
	return out
}
