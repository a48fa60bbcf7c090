package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase            { return r.phase }
func (r recorder) Update(_ time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"render", PhaseRender, &log})
	r.Register(recorder{"physics", PhaseSimulate, &log})
	r.Register(recorder{"dispatch", PhaseDispatch, &log})
	r.Register(recorder{"orbits", PhaseVisualize, &log})
	r.Register(recorder{"physics-2", PhaseSimulate, &log})

	r.Tick(time.Millisecond)
	want := []string{"dispatch", "physics", "physics-2", "orbits", "render"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("position %d: %s, want %s", i, log[i], want[i])
		}
	}
	if r.Frames() != 1 {
		t.Errorf("frames %d, want 1", r.Frames())
	}
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"input", PhaseInput, &log})
	r.Register(recorder{"physics", PhaseSimulate, &log})

	r.TickPhase(PhaseInput, 0)
	if len(log) != 1 || log[0] != "input" {
		t.Errorf("ran %v", log)
	}
	if r.Frames() != 0 {
		t.Error("TickPhase counted as a frame")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseVisualize.String() != "visualize" || Phase(42).String() != "unknown" {
		t.Error("unexpected phase names")
	}
}
