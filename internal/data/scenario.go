package data

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/orrery/orbitviz/internal/body"
	"github.com/orrery/orbitviz/internal/nbody"
	"github.com/orrery/orbitviz/internal/orbit"
)

const (
	AU  = 1.495978707e11 // metres
	Day = 86400.0        // seconds
)

const deg = math.Pi / 180

// OrbitEntry is a body's classical orbital elements in file units.
// Exactly one of the semi-major axis fields is used; AU wins if both are set.
type OrbitEntry struct {
	SemiMajorAxisAU  float64 `yaml:"semi_major_axis_au"`
	SemiMajorAxisM   float64 `yaml:"semi_major_axis_m"`
	Eccentricity     float64 `yaml:"eccentricity"`
	InclinationDeg   float64 `yaml:"inclination_deg"`
	AscendingNodeDeg float64 `yaml:"longitude_of_ascending_node_deg"`
	PeriapsisArgDeg  float64 `yaml:"argument_of_periapsis_deg"`
	MeanAnomalyDeg   float64 `yaml:"mean_anomaly_deg"`
	PeriodDays       float64 `yaml:"period_days"` // 0 = derive from masses
}

// BodyEntry is one body of a scenario file. A body is placed either by orbit
// or by parent-relative state vectors; orbit wins if both are given.
type BodyEntry struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Parent     string      `yaml:"parent"`
	MassKg     float64     `yaml:"mass_kg"`
	RadiusM    float64     `yaml:"radius_m"`
	PositionM  []float64   `yaml:"position_m"`  // parent-relative
	VelocityMS []float64   `yaml:"velocity_ms"` // parent-relative
	Orbit      *OrbitEntry `yaml:"orbit"`
}

type scenarioFile struct {
	Name   string      `yaml:"name"`
	Bodies []BodyEntry `yaml:"bodies"`
}

// BodyInit is a resolved body: absolute state vectors plus the elements the
// Keplerian view draws.
type BodyInit struct {
	ID       string
	Name     string
	ParentID string
	RadiusM  float64
	Orbit    *body.OrbitalParameters
	State    body.PhysicsState
}

// Scenario is a loaded star system in declaration order.
type Scenario struct {
	Name   string
	Bodies []BodyInit
}

// LoadScenario loads and resolves a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario resolves scenario YAML. Parents must be declared before
// their children.
func ParseScenario(raw []byte) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(f.Bodies) == 0 {
		return nil, fmt.Errorf("scenario %q has no bodies", f.Name)
	}

	s := &Scenario{Name: f.Name, Bodies: make([]BodyInit, 0, len(f.Bodies))}
	index := make(map[string]int, len(f.Bodies))
	for i := range f.Bodies {
		e := &f.Bodies[i]
		if e.ID == "" {
			return nil, fmt.Errorf("body #%d: missing id", i)
		}
		if _, dup := index[e.ID]; dup {
			return nil, fmt.Errorf("body %s: duplicate id", e.ID)
		}
		if e.MassKg < 0 || math.IsNaN(e.MassKg) || math.IsInf(e.MassKg, 0) {
			return nil, fmt.Errorf("body %s: invalid mass %g", e.ID, e.MassKg)
		}

		var parent *BodyInit
		if e.Parent != "" {
			pi, ok := index[e.Parent]
			if !ok {
				return nil, fmt.Errorf("body %s: parent %s not declared before it", e.ID, e.Parent)
			}
			parent = &s.Bodies[pi]
		}

		b, err := resolve(e, parent)
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", e.ID, err)
		}
		index[e.ID] = len(s.Bodies)
		s.Bodies = append(s.Bodies, b)
	}
	return s, nil
}

func resolve(e *BodyEntry, parent *BodyInit) (BodyInit, error) {
	b := BodyInit{
		ID:      e.ID,
		Name:    e.Name,
		RadiusM: e.RadiusM,
		State:   body.PhysicsState{ID: e.ID, MassKg: e.MassKg},
	}
	if b.Name == "" {
		b.Name = e.ID
	}

	var relPos, relVel r3.Vec
	switch {
	case e.Orbit != nil:
		if parent == nil {
			return b, errors.New("orbit without a parent")
		}
		params, mu := elements(e.Orbit, parent.State.MassKg, e.MassKg)
		pos, vel, ok := orbit.StateAt(params, mu)
		if !ok {
			return b, fmt.Errorf("invalid orbit %+v", *e.Orbit)
		}
		relPos, relVel = pos, vel
		b.Orbit = &params
	default:
		var err error
		if relPos, err = vec(e.PositionM, "position_m"); err != nil {
			return b, err
		}
		if relVel, err = vec(e.VelocityMS, "velocity_ms"); err != nil {
			return b, err
		}
	}

	if parent != nil {
		b.ParentID = parent.ID
		relPos = r3.Add(relPos, parent.State.Position)
		relVel = r3.Add(relVel, parent.State.Velocity)
	}
	b.State.Position, b.State.Velocity = relPos, relVel
	return b, nil
}

// elements converts file units to SI and derives the gravitational parameter.
// A missing period is derived from the two masses; a missing parent mass
// falls back to the period.
func elements(o *OrbitEntry, parentMass, mass float64) (body.OrbitalParameters, float64) {
	a := o.SemiMajorAxisM
	if o.SemiMajorAxisAU != 0 {
		a = o.SemiMajorAxisAU * AU
	}
	p := body.OrbitalParameters{
		SemiMajorAxis:            a,
		Eccentricity:             o.Eccentricity,
		Inclination:              o.InclinationDeg * deg,
		LongitudeOfAscendingNode: o.AscendingNodeDeg * deg,
		ArgumentOfPeriapsis:      o.PeriapsisArgDeg * deg,
		MeanAnomaly:              o.MeanAnomalyDeg * deg,
		Period:                   o.PeriodDays * Day,
	}
	mu := nbody.G * (parentMass + mass)
	if mu <= 0 {
		mu = orbit.GravitationalParameter(p)
	}
	if p.Period == 0 && mu > 0 && a > 0 {
		p.Period = 2 * math.Pi * math.Sqrt(a*a*a/mu)
	}
	return p, mu
}

func vec(v []float64, field string) (r3.Vec, error) {
	switch len(v) {
	case 0:
		return r3.Vec{}, nil
	case 3:
		out := r3.Vec{X: v[0], Y: v[1], Z: v[2]}
		if math.IsNaN(out.X+out.Y+out.Z) || math.IsInf(out.X+out.Y+out.Z, 0) {
			return r3.Vec{}, fmt.Errorf("%s is not finite", field)
		}
		return out, nil
	default:
		return r3.Vec{}, fmt.Errorf("%s needs 3 components, got %d", field, len(v))
	}
}

// Count returns the number of bodies.
func (s *Scenario) Count() int {
	return len(s.Bodies)
}
