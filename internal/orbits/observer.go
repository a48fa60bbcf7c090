package orbits

import (
	"time"

	"github.com/orrery/orbitviz/internal/line"
)

// Observer receives visualisation events for instrumentation.
// Implemented by metrics.Collector; NopObserver discards everything.
type Observer interface {
	ModeChanged(mode Mode)
	FrameUpdated(mode Mode, lines int, elapsed time.Duration)
	PredictionComputed(points int, elapsed time.Duration, err error)
	PoolSampled(stats line.PoolStats)
}

type NopObserver struct{}

func (NopObserver) ModeChanged(Mode)                             {}
func (NopObserver) FrameUpdated(Mode, int, time.Duration)        {}
func (NopObserver) PredictionComputed(int, time.Duration, error) {}
func (NopObserver) PoolSampled(line.PoolStats)                   {}
