package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner calls every registered system once per frame, lowest phase first.
// Systems sharing a phase keep their registration order.
type Runner struct {
	systems []System
	dirty   bool // registration since the last ordering
	frames  uint64
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 8)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.dirty = true
}

// Tick runs one frame.
func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.ordered() {
		s.Update(dt)
	}
	r.frames++
}

// TickPhase runs the systems of a single phase without counting a frame,
// e.g. to drain input between frames.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.ordered() {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Frames returns the number of completed Tick calls.
func (r *Runner) Frames() uint64 { return r.frames }

func (r *Runner) ordered() []System {
	if r.dirty {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return cmp.Compare(a.Phase(), b.Phase())
		})
		r.dirty = false
	}
	return r.systems
}
