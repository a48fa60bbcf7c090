package world

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/nbody"
)

const au = 1.495978707e11

func sunEarth(t *testing.T) *State {
	t.Helper()
	s := NewState(1/au, nbody.DefaultOptions(), zap.NewNop())
	v := math.Sqrt(nbody.G * 1.989e30 / au)
	orbit := &body.OrbitalParameters{SemiMajorAxis: au, Period: 365.25 * 86400}
	if err := s.AddBody(Body{ID: "sun", Radius: 6.96e8}, body.PhysicsState{MassKg: 1.989e30}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddBody(Body{ID: "earth", ParentID: "sun", Orbit: orbit},
		body.PhysicsState{MassKg: 5.97e24, Position: r3.Vec{X: au}, Velocity: r3.Vec{Y: v}}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddBodyRejectsDuplicates(t *testing.T) {
	s := sunEarth(t)
	if err := s.AddBody(Body{ID: "earth"}, body.PhysicsState{}); err == nil {
		t.Error("duplicate id accepted")
	}
	if err := s.AddBody(Body{}, body.PhysicsState{}); err == nil {
		t.Error("empty id accepted")
	}
}

func TestRenderablesAreScaled(t *testing.T) {
	s := sunEarth(t)
	r := s.Renderables()
	if len(r) != 2 || r[0].ID != "sun" || r[1].ID != "earth" {
		t.Fatalf("unexpected renderables %+v", r)
	}
	if math.Abs(r[1].Position.X-1) > 1e-12 {
		t.Errorf("earth at %v, want x=1", r[1].Position)
	}
	if !r[1].HasOrbit() || r[0].HasOrbit() {
		t.Error("orbit flags wrong")
	}
}

func TestStepMovesBodies(t *testing.T) {
	s := sunEarth(t)
	if err := s.Step(86400, 4); err != nil {
		t.Fatal(err)
	}
	e, _ := s.PhysicsState("earth")
	if e.Position.Y <= 0 {
		t.Errorf("earth did not move along its velocity: %v", e.Position)
	}
	if math.Abs(s.Time()-86400) > 1e-6 {
		t.Errorf("time %g, want 86400", s.Time())
	}
}

func TestStepRejectsInstability(t *testing.T) {
	s := NewState(1, nbody.DefaultOptions(), zap.NewNop())
	_ = s.AddBody(Body{ID: "a"}, body.PhysicsState{MassKg: 1e300})
	_ = s.AddBody(Body{ID: "b"}, body.PhysicsState{MassKg: 1e300, Position: r3.Vec{X: 1e-10, Y: 1e-10}})

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = s.Step(10, 1)
	}
	if !errors.Is(err, nbody.ErrNumericalInstability) {
		t.Fatalf("expected instability, got %v", err)
	}
	for _, ps := range s.PhysicsStates() {
		if math.IsNaN(ps.Position.X) || math.IsInf(ps.Position.X, 0) {
			t.Errorf("non-finite state committed for %s", ps.ID)
		}
	}
}

func TestRemoveBodyOrphansChildren(t *testing.T) {
	s := sunEarth(t)
	if !s.RemoveBody("sun") {
		t.Fatal("sun not removed")
	}
	if s.Len() != 1 {
		t.Fatalf("len %d, want 1", s.Len())
	}
	earth := s.Renderables()[0]
	if earth.ParentID != "" || earth.HasOrbit() {
		t.Errorf("earth still parented: %+v", earth)
	}
	if ps, ok := s.PhysicsState("earth"); !ok || ps.ID != "earth" {
		t.Error("index not rebuilt after removal")
	}
	if s.RemoveBody("sun") {
		t.Error("second removal reported success")
	}
}

func TestReaddedParentRestoresOrbit(t *testing.T) {
	s := sunEarth(t)
	s.RemoveBody("sun")
	if err := s.AddBody(Body{ID: "sun"}, body.PhysicsState{MassKg: 1.989e30}); err != nil {
		t.Fatal(err)
	}
	r := s.Renderables()
	if r[0].ID != "earth" || r[0].ParentID != "sun" || !r[0].HasOrbit() {
		t.Errorf("earth not re-linked to the sun: %+v", r[0])
	}
}

func TestAddBodyRejectsLineIDs(t *testing.T) {
	s := NewState(1, nbody.DefaultOptions(), zap.NewNop())
	for _, id := range []string{"orbit-x", "trail-earth", "prediction-moon"} {
		if err := s.AddBody(Body{ID: id}, body.PhysicsState{}); err == nil {
			t.Errorf("body id %q accepted", id)
		}
	}
	if err := s.AddBody(Body{ID: "orbiter"}, body.PhysicsState{}); err != nil {
		t.Errorf("orbiter rejected: %v", err)
	}
}

func TestPhysicsStatesIsACopy(t *testing.T) {
	s := sunEarth(t)
	states := s.PhysicsStates()
	states[1].Position.X = 0
	if e, _ := s.PhysicsState("earth"); e.Position.X != au {
		t.Error("snapshot aliases internal state")
	}
}
