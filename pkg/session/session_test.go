//nolint:thelper,whitespace,lll,funlen // ok for tests
package session

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/processing"
	"github.com/mpapenbr/snailrace/testsupport/recorder"
)

const frame = 16 * time.Millisecond

func newSession(rec *recorder.Recorder, opts ...Option) *Session {
	sim := processing.NewSimulation(
		processing.WithRandom(rand.New(rand.NewPCG(3, 4))),
		processing.WithEffects(rec),
		processing.WithUI(rec),
		processing.WithLogger(log.NewNop()),
	)
	base := []Option{
		WithSimulation(sim),
		WithUI(rec),
		WithLogger(log.NewNop()),
	}
	return NewSession(append(base, opts...)...)
}

func run(s *Session, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		s.Tick(frame)
	}
}

func countdownValues(rec *recorder.Recorder) []int {
	return lo.Map(rec.ByType(model.MTCountdown), func(ev effects.Event, _ int) int { return ev.Value })
}

func phases(rec *recorder.Recorder) []string {
	return lo.Map(rec.ByType(model.MTPhase), func(ev effects.Event, _ int) string { return ev.Phase })
}

func TestSession_Lifecycle(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec)
	assert.Equal(t, model.PhaseNotStarted, s.Phase())

	s.Start()
	assert.Equal(t, model.PhaseCountdown, s.Phase())
	assert.Equal(t, 3, s.Countdown())
	assert.True(t, s.StartPending())
	assert.False(t, s.Simulation().Started())

	run(s, 2900*time.Millisecond)
	assert.Equal(t, model.PhaseCountdown, s.Phase())
	assert.Equal(t, 1, s.Countdown())
	_, ok := s.KeyPress("a", time.Now())
	assert.False(t, ok, "controls inactive during countdown")

	run(s, 200*time.Millisecond)
	assert.Equal(t, model.PhaseRacing, s.Phase())
	assert.Equal(t, 0, s.Countdown())
	assert.False(t, s.StartPending())
	assert.True(t, s.Simulation().Started())
	_, ok = s.KeyPress("a", time.Now())
	assert.True(t, ok)

	assert.Equal(t, []int{3, 2, 1, 0}, countdownValues(rec))
	assert.Equal(t, []string{"Countdown", "Racing"}, phases(rec))
}

func TestSession_Finish(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec)
	s.Start()
	run(s, 3100*time.Millisecond)
	require.Equal(t, model.PhaseRacing, s.Phase())

	sim := s.Simulation()
	tr := sim.Track()
	for lap := 0; lap < tr.Laps; lap++ {
		for _, pos := range []model.Vec3{tr.Halfway.Position, tr.Start.Position} {
			sim.Player().Position = pos
			sim.Player().Velocity = model.Vec3{}
			s.Tick(time.Millisecond)
		}
	}
	assert.Equal(t, model.PhaseFinished, s.Phase())
	snap := s.Snapshot()
	assert.Equal(t, model.PhaseFinished, snap.Phase)
	assert.Equal(t, 1, snap.PlayerPlace)
	assert.Equal(t, []string{"player"}, snap.FinishOrder)

	// finished is terminal until reset
	run(s, time.Second)
	assert.Equal(t, model.PhaseFinished, s.Phase())

	s.Reset()
	assert.Equal(t, model.PhaseNotStarted, s.Phase())
	assert.Empty(t, s.Snapshot().FinishOrder)
	assert.Equal(t, []string{"Countdown", "Racing", "Finished", "NotStarted"}, phases(rec))
}

func TestSession_ResetCancelsStart(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec)
	s.Start()
	run(s, time.Second)
	s.Reset()
	assert.False(t, s.StartPending())
	run(s, 5*time.Second)
	assert.Equal(t, model.PhaseNotStarted, s.Phase())
	assert.False(t, s.Simulation().Started())
}

func TestSession_CloseCancelsStart(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec)
	s.Start()
	s.Close()
	assert.True(t, s.Closed())
	assert.False(t, s.StartPending())
	run(s, 5*time.Second)
	assert.False(t, s.Simulation().Started())
	assert.Equal(t, model.PhaseCountdown, s.Phase())

	// no-ops after close
	s.Start()
	s.Reset()
	_, ok := s.KeyPress("a", time.Now())
	assert.False(t, ok)
	assert.Equal(t, model.PhaseCountdown, s.Phase())
}

func TestSession_Restart(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec)
	s.Start()
	run(s, 4*time.Second)
	require.Equal(t, model.PhaseRacing, s.Phase())

	s.Start()
	assert.Equal(t, model.PhaseCountdown, s.Phase())
	assert.False(t, s.Simulation().Started())
	run(s, 3100*time.Millisecond)
	assert.Equal(t, model.PhaseRacing, s.Phase())
}

func TestSession_CustomCountdown(t *testing.T) {
	rec := recorder.New()
	s := newSession(rec, WithCountdown(1, 500*time.Millisecond))
	s.Start()
	run(s, 600*time.Millisecond)
	assert.Equal(t, model.PhaseRacing, s.Phase())
	assert.Equal(t, []int{1, 0}, countdownValues(rec))
}

func TestSession_AppliesTuningOnReset(t *testing.T) {
	tuning := config.DefaultTuning()
	tuning.AI.BaseSpeed = 5
	tuning.AI.SpeedJitter = 0
	tuning.Controls.MaxVelocity = 3
	s := newSession(recorder.New(), WithTuning(config.NewStaticTuning(tuning)))

	s.Reset()
	for _, a := range s.Simulation().AIs() {
		assert.Equal(t, 5.0, a.Speed)
	}
	assert.Equal(t, 3.0, s.Simulation().Controls().Params().MaxVelocity)
}
