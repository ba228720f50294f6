package ai

import (
	"math"
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

// Tuning holds the constants of the spline driven racers
type Tuning struct {
	ProgressScale   float64 `mapstructure:"progressScale"`
	WanderAmplitude float64 `mapstructure:"wanderAmplitude"`
	Smoothing       float64 `mapstructure:"smoothing"`
	BaseSpeed       float64 `mapstructure:"baseSpeed"`
	SpeedJitter     float64 `mapstructure:"speedJitter"`
}

func DefaultTuning() Tuning {
	return Tuning{
		ProgressScale:   0.01,
		WanderAmplitude: 2,
		Smoothing:       3,
		BaseSpeed:       2.6,
		SpeedJitter:     0.4,
	}
}

type (
	AIProcessor struct {
		tuning Tuning
		path   *track.Path
		log    *log.Logger
	}
	AIProcessorOption func(ap *AIProcessor)
)

func WithTuning(t Tuning) AIProcessorOption {
	return func(ap *AIProcessor) {
		ap.tuning = t
	}
}

func WithPath(p *track.Path) AIProcessorOption {
	return func(ap *AIProcessor) {
		ap.path = p
	}
}

func WithLogger(l *log.Logger) AIProcessorOption {
	return func(ap *AIProcessor) {
		ap.log = l
	}
}

func NewAIProcessor(opts ...AIProcessorOption) *AIProcessor {
	ret := &AIProcessor{
		tuning: DefaultTuning(),
		log:    log.Default().Named("race.ai"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.path == nil {
		ret.path = track.Default().Path
	}
	return ret
}

func (ap *AIProcessor) Tuning() Tuning {
	return ap.tuning
}

func (ap *AIProcessor) SetTuning(t Tuning) {
	ap.tuning = t
}

// Speed derives the racer speed from its personality in [0,1)
func (ap *AIProcessor) Speed(personality float64) float64 {
	return ap.tuning.BaseSpeed + personality*ap.tuning.SpeedJitter
}

// Advance moves the racer along the track. simTime drives the sideways wander.
// Returns true if the progress wrapped, the lap counter is already updated then.
//
//nolint:whitespace // can't make both editor and linter happy
func (ap *AIProcessor) Advance(
	a *racer.AI, dt, simTime time.Duration,
) (lapped bool) {
	if dt <= 0 {
		return false
	}
	prev := a.Progress
	a.Progress = track.Wrap(a.Progress + a.Speed*dt.Seconds()*ap.tuning.ProgressScale)
	if a.Progress < prev {
		a.Lap++
		lapped = true
		ap.log.Debug("lap completed", log.String("racer", a.ID()), log.Int("lap", a.Lap))
	}

	heading := ap.path.HeadingAt(a.Progress)
	wander := math.Sin(simTime.Seconds()*a.Personality) * ap.tuning.WanderAmplitude
	target := ap.path.PointAt(a.Progress).Add(model.Perpendicular(heading).Scale(wander))

	a.Heading = heading
	a.Position = a.Position.Lerp(target, math.Min(1, dt.Seconds()*ap.tuning.Smoothing))
	return lapped
}

// Pin keeps the racer on its grid slot
func (ap *AIProcessor) Pin(a *racer.AI) {
	a.Position = a.StartPosition
	a.Heading = a.StartHeading
}
