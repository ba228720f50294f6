package simulate

import (
	"context"
	"errors"
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/autopilot"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/session"
)

const (
	DefaultFrame   = 16 * time.Millisecond
	DefaultMaxTime = 10 * time.Minute
)

var ErrTimeLimit = errors.New("race not finished within time limit")

type (
	// runner ticks a session with a fixed frame time while the typist
	// provides the key presses of the player
	runner struct {
		sess      *session.Session
		typist    *autopilot.Typist
		frame     time.Duration
		maxTime   time.Duration
		realtime  bool
		waitAll   bool
		observers []func(model.RaceSnapshot)
		log       *log.Logger

		startedAt  time.Duration
		finishedAt time.Duration
	}
	runnerOption func(r *runner)
)

func withFrame(d time.Duration) runnerOption {
	return func(r *runner) {
		r.frame = d
	}
}

func withMaxTime(d time.Duration) runnerOption {
	return func(r *runner) {
		r.maxTime = d
	}
}

// withRealtime paces the frames with the wall clock
func withRealtime(b bool) runnerOption {
	return func(r *runner) {
		r.realtime = b
	}
}

// withWaitAll keeps ticking after the player finished until all racers did
func withWaitAll(b bool) runnerOption {
	return func(r *runner) {
		r.waitAll = b
	}
}

func withObserver(f func(model.RaceSnapshot)) runnerOption {
	return func(r *runner) {
		r.observers = append(r.observers, f)
	}
}

func withLogger(l *log.Logger) runnerOption {
	return func(r *runner) {
		r.log = l
	}
}

func newRunner(sess *session.Session, typist *autopilot.Typist, opts ...runnerOption) *runner {
	ret := &runner{
		sess:    sess,
		typist:  typist,
		frame:   DefaultFrame,
		maxTime: DefaultMaxTime,
		log:     log.Default().Named("simulate"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.frame <= 0 {
		ret.frame = DefaultFrame
	}
	return ret
}

// run starts the session and ticks until the race is done, ctx is cancelled
// or maxTime of session time has elapsed
//
//nolint:cyclop // by design
func (r *runner) run(ctx context.Context) error {
	var ticker *time.Ticker
	if r.realtime {
		ticker = time.NewTicker(r.frame)
		defer ticker.Stop()
	}
	base := time.Now()
	r.startedAt, r.finishedAt = 0, 0
	r.typist.Reset()
	r.sess.Start()
	r.notify()

	for elapsed := time.Duration(0); ; elapsed += r.frame {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if r.done() {
			return nil
		}
		if elapsed >= r.maxTime {
			return ErrTimeLimit
		}
		now := base.Add(elapsed)
		if r.sess.Phase() == model.PhaseRacing {
			if key, ok := r.typist.Next(r.sess.Simulation().Player(), now); ok {
				r.sess.KeyPress(key, now)
			}
		}
		phase := r.sess.Phase()
		r.sess.Tick(r.frame)
		r.observePhase(phase)
		r.notify()
	}
}

// observePhase records the session time of the phase transitions
func (r *runner) observePhase(before model.Phase) {
	after := r.sess.Phase()
	if before == after {
		return
	}
	simTime := r.sess.Simulation().SimTime()
	switch after {
	case model.PhaseRacing:
		r.startedAt = simTime
	case model.PhaseFinished:
		r.finishedAt = simTime
		r.log.Info("player finished",
			log.Duration("raceTime", r.raceTime()),
			log.Int("place", r.sess.Simulation().PlayerPlace()))
	default:
	}
}

// raceTime is the time from the start signal to the finish of the player
func (r *runner) raceTime() time.Duration {
	if r.finishedAt <= r.startedAt {
		return 0
	}
	return r.finishedAt - r.startedAt
}

func (r *runner) done() bool {
	if r.sess.Phase() != model.PhaseFinished {
		return false
	}
	return !r.waitAll || r.sess.Simulation().AllFinished()
}

func (r *runner) notify() {
	if len(r.observers) == 0 {
		return
	}
	snap := r.sess.Snapshot()
	for _, o := range r.observers {
		o(snap)
	}
}
