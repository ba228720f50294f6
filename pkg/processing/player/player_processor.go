package player

import (
	"math"
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

const (
	LapBurstCount = 15
	burstLift     = 2.0
)

// Tuning holds the player motion constants. Factors are per control.ReferenceTick.
type Tuning struct {
	ForceScale        float64 `mapstructure:"forceScale"`
	TurnScale         float64 `mapstructure:"turnScale"`
	Friction          float64 `mapstructure:"friction"`
	MaxSpeed          float64 `mapstructure:"maxSpeed"`
	ApplyAcceleration bool    `mapstructure:"applyAcceleration"`
	BoostShake        float64 `mapstructure:"boostShake"`
	BoostThreshold    float64 `mapstructure:"boostThreshold"`
}

func DefaultTuning() Tuning {
	return Tuning{
		ForceScale:     0.25,
		TurnScale:      0.007,
		Friction:       0.92,
		MaxSpeed:       12,
		BoostShake:     0.3,
		BoostThreshold: 1.0,
	}
}

type (
	PlayerProcessor struct {
		tuning Tuning
		track  *track.Track
		sink   effects.Sink
		log    *log.Logger
	}
	PlayerProcessorOption func(pp *PlayerProcessor)
)

func WithTuning(t Tuning) PlayerProcessorOption {
	return func(pp *PlayerProcessor) {
		pp.tuning = t
	}
}

func WithTrack(t *track.Track) PlayerProcessorOption {
	return func(pp *PlayerProcessor) {
		pp.track = t
	}
}

func WithSink(s effects.Sink) PlayerProcessorOption {
	return func(pp *PlayerProcessor) {
		pp.sink = s
	}
}

func WithLogger(l *log.Logger) PlayerProcessorOption {
	return func(pp *PlayerProcessor) {
		pp.log = l
	}
}

func NewPlayerProcessor(opts ...PlayerProcessorOption) *PlayerProcessor {
	ret := &PlayerProcessor{
		tuning: DefaultTuning(),
		sink:   effects.Nop{},
		log:    log.Default().Named("race.player"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.track == nil {
		ret.track = track.Default()
	}
	return ret
}

func (pp *PlayerProcessor) Tuning() Tuning {
	return pp.tuning
}

func (pp *PlayerProcessor) SetTuning(t Tuning) {
	pp.tuning = t
}

// Integrate applies the control velocity to the player and moves it by dt
//
//nolint:whitespace // can't make both editor and linter happy
func (pp *PlayerProcessor) Integrate(
	p *racer.Player, v control.Velocity, dt time.Duration,
) {
	if dt <= 0 {
		return
	}
	k := float64(dt) / float64(control.ReferenceTick)
	c := p.Character

	force := v.Forward * c.Speed * pp.tuning.ForceScale * k
	if pp.tuning.ApplyAcceleration {
		force *= c.Acceleration
	}
	p.Velocity = p.Velocity.Add(model.Forward(p.Heading).Scale(force))
	p.Heading += v.Turn * c.Handling * pp.tuning.TurnScale * k

	p.Velocity = p.Velocity.Scale(math.Pow(pp.tuning.Friction, k))
	if speed := p.Velocity.PlanarLen(); speed > pp.tuning.MaxSpeed {
		f := pp.tuning.MaxSpeed / speed
		p.Velocity.X *= f
		p.Velocity.Z *= f
	}
	p.Position = p.Position.Add(p.Velocity.Scale(dt.Seconds()))
}

// CheckGates updates the gate flags and returns true if a lap was completed.
// The halfway gate is evaluated first, a lap only counts after halfway.
func (pp *PlayerProcessor) CheckGates(p *racer.Player) bool {
	if !p.PassedHalfway && pp.track.Halfway.Passed(p.Position) {
		p.PassedHalfway = true
		pp.log.Debug("halfway passed", log.Int("lap", p.Lap))
	}
	if p.PassedHalfway && pp.track.Start.Passed(p.Position) {
		p.PassedStart = true
	}
	if !(p.PassedHalfway && p.PassedStart) {
		return false
	}
	p.Lap++
	p.PassedHalfway = false
	p.PassedStart = false
	pp.log.Info("lap completed", log.String("racer", p.ID()), log.Int("lap", p.Lap))
	pp.sink.Burst(p.Position.Add(model.V(0, burstLift, 0)), model.ColorLap, LapBurstCount)
	return true
}

// ProcessInput triggers the boost feedback for strong key presses
func (pp *PlayerProcessor) ProcessInput(p *racer.Player, ev control.InputEvent) {
	if ev.Boost <= pp.tuning.BoostThreshold {
		return
	}
	pp.sink.CameraShake(pp.tuning.BoostShake)
	speed := p.Velocity.PlanarLen()
	pp.sink.SpeedTrail(p.Position, p.Velocity.Scale(-1), speed/5)
}
