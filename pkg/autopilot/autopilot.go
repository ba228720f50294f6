package autopilot

import (
	"math"
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

const (
	DefaultLookAhead = 0.03
	DefaultDeadband  = 0.25
	DefaultCadence   = 150 * time.Millisecond
)

type (
	// Typist produces key presses that keep the player on the racing line.
	// It steers towards a point ahead on the path and types two adjacent keys
	// of the row matching the required turn direction.
	Typist struct {
		path      *track.Path
		layout    *control.Layout
		lookAhead float64
		deadband  float64
		cadence   time.Duration
		log       *log.Logger

		last    time.Time
		hasLast bool
		alt     int
	}
	Option func(t *Typist)
)

func WithPath(p *track.Path) Option {
	return func(t *Typist) {
		t.path = p
	}
}

func WithLayout(l *control.Layout) Option {
	return func(t *Typist) {
		t.layout = l
	}
}

// WithLookAhead sets the progress offset of the steering target
func WithLookAhead(u float64) Option {
	return func(t *Typist) {
		t.lookAhead = u
	}
}

// WithDeadband sets the heading error (radians) below which no turn is typed
func WithDeadband(rad float64) Option {
	return func(t *Typist) {
		t.deadband = rad
	}
}

func WithCadence(d time.Duration) Option {
	return func(t *Typist) {
		t.cadence = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(t *Typist) {
		t.log = l
	}
}

func NewTypist(opts ...Option) *Typist {
	ret := &Typist{
		lookAhead: DefaultLookAhead,
		deadband:  DefaultDeadband,
		cadence:   DefaultCadence,
		log:       log.Default().Named("autopilot"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.path == nil {
		ret.path = track.Default().Path
	}
	if ret.layout == nil {
		ret.layout = control.DefaultLayout()
	}
	return ret
}

// HeadingError returns the signed angle between the player heading and the
// direction to the steering target, normalized to [-pi, pi).
func (t *Typist) HeadingError(p *racer.Player) float64 {
	u := t.path.Nearest(p.Position)
	target := t.path.PointAt(u + t.lookAhead)
	desired := math.Atan2(target.Z-p.Position.Z, target.X-p.Position.X)
	return normalizeAngle(desired - p.Heading)
}

// Steer selects the row to type on. The top row turns towards increasing heading.
func (t *Typist) Steer(p *racer.Player) model.Row {
	e := t.HeadingError(p)
	switch {
	case e > t.deadband:
		return model.RowTop
	case e < -t.deadband:
		return model.RowBottom
	default:
		return model.RowMiddle
	}
}

// Next returns the key to press at now. ok is false while the cadence has not
// elapsed since the previous key.
func (t *Typist) Next(p *racer.Player, now time.Time) (key string, ok bool) {
	if t.hasLast && now.Sub(t.last) < t.cadence {
		return "", false
	}
	row := t.layout.Row(t.Steer(p))
	if len(row) == 0 {
		return "", false
	}
	idx := min(max(len(row)/2-1+t.alt, 0), len(row)-1)
	t.alt ^= 1
	t.last = now
	t.hasLast = true
	t.log.Debug("typing", log.String("key", row[idx]))
	return row[idx], true
}

// Reset forgets the cadence state
func (t *Typist) Reset() {
	t.hasLast = false
	t.alt = 0
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
