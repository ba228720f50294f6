package terminal

import (
	"math"
	"time"

	"github.com/mpapenbr/snailrace/pkg/control"
)

const (
	shakeDecay = 0.9 // per control.ReferenceTick
	shakeSnap  = 0.01
	shakeMax   = 1.0
)

// Shake accumulates camera shake requests and lets them fade out
type Shake struct {
	v float64
}

func (s *Shake) Add(intensity float64) {
	if intensity <= 0 {
		return
	}
	s.v = math.Min(s.v+intensity, shakeMax)
}

// Decay applies the per tick decay scaled to dt. Values below 0.01 snap to 0.
func (s *Shake) Decay(dt time.Duration) {
	if dt <= 0 {
		return
	}
	s.v *= math.Pow(shakeDecay, float64(dt)/float64(control.ReferenceTick))
	if s.v < shakeSnap {
		s.v = 0
	}
}

func (s *Shake) Value() float64 {
	return s.v
}
