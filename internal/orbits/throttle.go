package orbits

// Throttle gates periodic work on a frame count instead of wall time.
// ShouldRun is true on every `every`-th call.
type Throttle struct {
	every int
	n     int
}

func NewThrottle(every int) *Throttle {
	if every < 1 {
		every = 1
	}
	return &Throttle{every: every}
}

// ShouldRun advances the counter and reports whether this frame is due.
func (t *Throttle) ShouldRun() bool {
	t.n++
	if t.n >= t.every {
		t.n = 0
		return true
	}
	return false
}

// Reset makes the next due frame `every` calls away.
func (t *Throttle) Reset() { t.n = 0 }
