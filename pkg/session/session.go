package session

import (
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/processing"
)

const (
	DefaultCountdown  = 3
	DefaultStartDelay = 3 * time.Second
)

// TuningSource provides the tuning applied on each reset
type TuningSource interface {
	Current() config.Tuning
}

type (
	// Session drives a Simulation through the race lifecycle
	// NotStarted -> Countdown -> Racing -> Finished.
	// All methods must be called from the same goroutine.
	Session struct {
		sim        *processing.Simulation
		sched      *Scheduler
		ui         effects.UI
		tuning     TuningSource
		log        *log.Logger
		countFrom  int
		startDelay time.Duration

		phase          model.Phase
		countdown      int
		countdownStart time.Duration
		startTask      *Task
		closed         bool
	}
	Option func(s *Session)
)

func WithSimulation(sim *processing.Simulation) Option {
	return func(s *Session) {
		s.sim = sim
	}
}

func WithUI(ui effects.UI) Option {
	return func(s *Session) {
		s.ui = ui
	}
}

func WithTuning(src TuningSource) Option {
	return func(s *Session) {
		s.tuning = src
	}
}

// WithCountdown sets the displayed start value and the delay until the race starts
func WithCountdown(from int, delay time.Duration) Option {
	return func(s *Session) {
		s.countFrom = from
		s.startDelay = delay
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

func NewSession(opts ...Option) *Session {
	ret := &Session{
		sched:      NewScheduler(),
		ui:         effects.Nop{},
		log:        log.Default().Named("session"),
		countFrom:  DefaultCountdown,
		startDelay: DefaultStartDelay,
		phase:      model.PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.sim == nil {
		ret.sim = processing.NewSimulation()
	}
	return ret
}

// Start resets the race and begins the countdown. The race starts after
// the configured delay of session time.
func (s *Session) Start() {
	if s.closed {
		return
	}
	s.reset()
	s.countdown = s.countFrom
	s.countdownStart = s.sched.Now()
	s.setPhase(model.PhaseCountdown)
	s.ui.Countdown(s.countdown)
	s.startTask = s.sched.After(s.startDelay, s.beginRace)
	s.log.Debug("countdown started",
		log.Int("from", s.countFrom),
		log.Duration("delay", s.startDelay))
}

func (s *Session) beginRace() {
	s.startTask = nil
	if s.countdown != 0 {
		s.countdown = 0
		s.ui.Countdown(0)
	}
	s.sim.Start()
	s.setPhase(model.PhaseRacing)
}

// Reset cancels a pending start and returns to NotStarted
func (s *Session) Reset() {
	if s.closed {
		return
	}
	s.reset()
	s.setPhase(model.PhaseNotStarted)
}

func (s *Session) reset() {
	s.startTask.Cancel()
	s.startTask = nil
	s.sched.CancelAll()
	s.sim.Reset()
	if s.tuning != nil {
		t := s.tuning.Current()
		s.sim.SetTuning(t.Player, t.AI)
		s.sim.Controls().SetParams(t.Controls)
	}
	s.countdown = 0
}

// Close cancels pending tasks. A closed session ignores all further calls.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.startTask.Cancel()
	s.startTask = nil
	s.sched.CancelAll()
	s.sim.Controls().Deactivate()
	s.closed = true
	s.log.Debug("session closed")
}

// KeyPress forwards a key press. It is ignored unless the race is running.
func (s *Session) KeyPress(key string, ts time.Time) (control.InputEvent, bool) {
	if s.closed {
		return control.InputEvent{}, false
	}
	return s.sim.KeyPress(key, ts)
}

// Tick advances session time, runs due tasks and the simulation
func (s *Session) Tick(dt time.Duration) {
	if s.closed || dt <= 0 {
		return
	}
	s.sched.Advance(dt)
	if s.phase == model.PhaseCountdown {
		s.updateCountdown()
	}
	s.sim.Tick(dt)
	if s.phase == model.PhaseRacing && s.sim.Finished() {
		s.setPhase(model.PhaseFinished)
	}
}

func (s *Session) updateCountdown() {
	elapsed := int((s.sched.Now() - s.countdownStart) / time.Second)
	n := max(s.countFrom-elapsed, 0)
	if n != s.countdown {
		s.countdown = n
		s.ui.Countdown(n)
	}
}

func (s *Session) setPhase(p model.Phase) {
	if s.phase == p {
		return
	}
	s.log.Info("phase changed",
		log.Stringer("from", s.phase),
		log.Stringer("to", p),
		log.Duration("simTime", s.sim.SimTime()))
	s.phase = p
	s.ui.PhaseChanged(p)
}

func (s *Session) Phase() model.Phase {
	return s.phase
}

// Countdown returns the displayed countdown value
func (s *Session) Countdown() int {
	return s.countdown
}

// StartPending reports whether the start task is scheduled
func (s *Session) StartPending() bool {
	return s.startTask != nil && !s.startTask.Cancelled() && !s.startTask.Done()
}

func (s *Session) Closed() bool {
	return s.closed
}

func (s *Session) Simulation() *processing.Simulation {
	return s.sim
}

// Snapshot returns the simulation snapshot with the session phase
func (s *Session) Snapshot() model.RaceSnapshot {
	ret := s.sim.Snapshot()
	ret.Phase = s.phase
	ret.Countdown = s.countdown
	return ret
}
