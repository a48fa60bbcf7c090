package data

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/nbody"
)

const twoBody = `
name: test
bodies:
  - id: star
    mass_kg: 2.0e30
  - id: planet
    parent: star
    mass_kg: 0
    orbit:
      semi_major_axis_au: 1
      eccentricity: 0
  - id: voyager
    parent: planet
    position_m: [1000, 0, 0]
    velocity_ms: [0, 10, 0]
`

func TestParseScenarioResolvesOrbits(t *testing.T) {
	s, err := ParseScenario([]byte(twoBody))
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "test" || s.Count() != 3 {
		t.Fatalf("unexpected scenario %+v", s)
	}

	planet := s.Bodies[1]
	if planet.ParentID != "star" || planet.Orbit == nil {
		t.Fatalf("planet not parented to an orbit: %+v", planet)
	}
	if r := r3.Norm(planet.State.Position); math.Abs(r-AU)/AU > 1e-9 {
		t.Errorf("planet at %g m, want 1 AU", r)
	}
	wantV := math.Sqrt(nbody.G * 2e30 / AU)
	if v := r3.Norm(planet.State.Velocity); math.Abs(v-wantV)/wantV > 1e-9 {
		t.Errorf("planet speed %g, want %g", v, wantV)
	}
	// Period derived from the masses.
	wantT := 2 * math.Pi * math.Sqrt(AU*AU*AU/(nbody.G*2e30))
	if math.Abs(planet.Orbit.Period-wantT)/wantT > 1e-9 {
		t.Errorf("period %g, want %g", planet.Orbit.Period, wantT)
	}

	craft := s.Bodies[2]
	if got := r3.Sub(craft.State.Position, planet.State.Position); r3.Norm(r3.Sub(got, r3.Vec{X: 1000})) > 1e-3 {
		t.Errorf("craft offset %v, want (1000,0,0)", got)
	}
	if got := r3.Sub(craft.State.Velocity, planet.State.Velocity); r3.Norm(r3.Sub(got, r3.Vec{Y: 10})) > 1e-9 {
		t.Errorf("craft relative velocity %v", got)
	}
	if craft.Name != "voyager" {
		t.Errorf("name defaulted to %q", craft.Name)
	}
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "name: x\nbodies: []", "no bodies"},
		{"missing id", "bodies:\n  - mass_kg: 1", "missing id"},
		{"duplicate", "bodies:\n  - id: a\n  - id: a", "duplicate"},
		{"parent order", "bodies:\n  - id: a\n    parent: b\n  - id: b", "not declared"},
		{"orphan orbit", "bodies:\n  - id: a\n    orbit:\n      semi_major_axis_au: 1", "without a parent"},
		{"hyperbolic", "bodies:\n  - id: s\n    mass_kg: 1e30\n  - id: a\n    parent: s\n    orbit:\n      semi_major_axis_au: 1\n      eccentricity: 1.5", "invalid orbit"},
		{"short vector", "bodies:\n  - id: a\n    position_m: [1, 2]", "3 components"},
		{"negative mass", "bodies:\n  - id: a\n    mass_kg: -1", "invalid mass"},
		{"syntax", "bodies: [", "parse scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	if _, err := LoadScenario("does/not/exist.yaml"); err == nil {
		t.Error("expected an error")
	}
}
