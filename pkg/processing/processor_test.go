//nolint:thelper,whitespace,lll,funlen // ok for tests
package processing

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/processing/ai"
	"github.com/mpapenbr/snailrace/pkg/processing/player"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/testsupport/recorder"
)

const step = time.Millisecond

func newSim(rec *recorder.Recorder, opts ...Option) *Simulation {
	base := []Option{
		WithRandom(rand.New(rand.NewPCG(1, 2))),
		WithLogger(log.NewNop()),
		WithEffects(rec),
		WithUI(rec),
	}
	return NewSimulation(append(base, opts...)...)
}

// moves the player through the given positions, one tick each
func drive(s *Simulation, positions ...model.Vec3) {
	for _, pos := range positions {
		s.Player().Position = pos
		s.Player().Velocity = model.Vec3{}
		s.Tick(step)
	}
}

func completeLap(s *Simulation) {
	tr := s.Track()
	drive(s, tr.Halfway.Position, tr.Start.Position)
}

func finishAI(s *Simulation, idx int) {
	a := s.AIs()[idx]
	a.Lap = s.Track().Laps - 1
	a.Progress = 0.9999
	s.Tick(16 * time.Millisecond)
}

func TestSimulation_Initial(t *testing.T) {
	s := newSim(recorder.New())
	require.Len(t, s.Racers(), 5)
	assert.Equal(t, racer.PlayerID, s.Racers()[0].ID())

	s.Tick(16 * time.Millisecond)
	for i, a := range s.AIs() {
		assert.Equal(t, racer.AIID(i), a.ID())
		assert.Equal(t, s.Track().GridPosition(i), a.Position)
		assert.GreaterOrEqual(t, a.Speed, 2.6)
		assert.Less(t, a.Speed, 3.0)
		assert.Equal(t, AIColors[i], a.Color)
	}
	assert.Equal(t, s.Track().PlayerStart, s.Player().Position)

	snap := s.Snapshot()
	assert.Equal(t, model.PhaseNotStarted, snap.Phase)
	assert.Len(t, snap.Racers, 5)
	assert.Empty(t, snap.FinishOrder)
	assert.Equal(t, 16*time.Millisecond, snap.SimTime)
}

func TestSimulation_Deterministic(t *testing.T) {
	speeds := func() []float64 {
		s := newSim(recorder.New())
		return lo.Map(s.AIs(), func(a *racer.AI, _ int) float64 { return a.Speed })
	}
	if diff := cmp.Diff(speeds(), speeds()); diff != "" {
		t.Errorf("AI speeds differ (-first +second):\n%s", diff)
	}
}

func TestSimulation_InputBeforeStart(t *testing.T) {
	s := newSim(recorder.New(), WithAICount(0))
	_, ok := s.KeyPress("a", time.Unix(0, 0))
	assert.False(t, ok)

	s.Start()
	_, ok = s.KeyPress("a", time.Unix(0, 0))
	assert.True(t, ok)
}

func TestSimulation_PlayerMoves(t *testing.T) {
	s := newSim(recorder.New(), WithAICount(0))
	s.Start()
	start := s.Player().Position
	ts := time.Unix(0, 0)
	for i := 0; i < 60; i++ {
		if i%10 == 0 {
			s.KeyPress("a", ts)
		}
		s.Tick(16 * time.Millisecond)
		ts = ts.Add(16 * time.Millisecond)
	}
	// heading pi/2 means +z
	assert.Greater(t, s.Player().Position.Z, start.Z+1)
	assert.InDelta(t, start.X, s.Player().Position.X, 1e-6)
}

func TestSimulation_NoLapWithoutHalfway(t *testing.T) {
	s := newSim(recorder.New())
	s.Start()
	tr := s.Track()
	drive(s, tr.Start.Position, model.V(0, 0, 30), tr.Start.Position)
	assert.Equal(t, 0, s.Player().Lap)

	completeLap(s)
	assert.Equal(t, 1, s.Player().Lap)
}

func TestSimulation_PlayerFinishesFirst(t *testing.T) {
	rec := recorder.New()
	s := newSim(rec, WithRunOut(true))
	s.Start()

	completeLap(s)
	assert.False(t, s.Finished())
	completeLap(s)
	require.True(t, s.Finished())
	assert.Equal(t, 1, s.PlayerPlace())
	assert.True(t, s.Player().Finished)
	assert.False(t, s.Controls().Active())

	finishAI(s, 2)
	assert.Equal(t, []string{"player", "ai_2"}, s.FinishOrder())
	assert.Len(t, rec.Bursts(model.ColorFinish), 1)
	assert.Len(t, rec.Bursts(model.ColorLap), 2)

	// further ticks must not record anyone twice
	for i := 0; i < 100; i++ {
		s.Tick(16 * time.Millisecond)
	}
	assert.Equal(t, lo.Uniq(s.FinishOrder()), s.FinishOrder())
	assert.Equal(t, "player", s.FinishOrder()[0])

	finishes := rec.ByType(model.MTFinish)
	require.Len(t, finishes, 1)
	assert.Equal(t, 1, finishes[0].Value)

	snap := s.Snapshot()
	assert.Equal(t, model.PhaseFinished, snap.Phase)
	assert.Equal(t, 1, snap.PlayerPlace)
}

func TestSimulation_AIFrozenAfterFinish(t *testing.T) {
	s := newSim(recorder.New())
	s.Start()
	completeLap(s)
	completeLap(s)
	require.True(t, s.Finished())

	a := s.AIs()[2]
	pos := a.Position
	finishAI(s, 2)
	assert.Equal(t, []string{"player"}, s.FinishOrder())
	assert.Equal(t, pos, a.Position)
	assert.False(t, a.Finished)
}

func TestSimulation_AIFinishesFirst(t *testing.T) {
	rec := recorder.New()
	s := newSim(rec)
	s.Start()
	finishAI(s, 1)
	assert.True(t, s.AIs()[1].Finished)
	assert.False(t, s.Finished())

	completeLap(s)
	completeLap(s)
	assert.Equal(t, []string{"ai_1", "player"}, s.FinishOrder())
	assert.Equal(t, 2, s.PlayerPlace())
	finishes := rec.ByType(model.MTFinish)
	require.Len(t, finishes, 1)
	assert.Equal(t, 2, finishes[0].Value)
}

func TestSimulation_Collision(t *testing.T) {
	rec := recorder.New()
	s := newSim(rec, WithAICount(1))
	s.Start()
	p := s.Player()
	a := s.AIs()[0]
	a.Position = p.Position.Add(model.V(0.5, 0, 0))

	s.Tick(step)
	assert.InDelta(t, 1.0, p.Position.PlanarDist(a.Position), 1e-9)
	bursts := rec.Bursts(model.ColorCollision)
	require.Len(t, bursts, 1)
	assert.Equal(t, 1, bursts[0].Count)
	shakes := rec.ByType(model.MTCameraShake)
	require.Len(t, shakes, 1)
	assert.InDelta(t, CollisionShake, shakes[0].Intensity, 1e-12)
}

func TestSimulation_NoCollisionBeforeStart(t *testing.T) {
	rec := recorder.New()
	s := newSim(rec, WithAICount(1))
	a := s.AIs()[0]
	a.Position = s.Player().Position.Add(model.V(0.5, 0, 0))
	s.Tick(step)
	assert.Empty(t, rec.Bursts(model.ColorCollision))
	assert.Equal(t, s.Track().GridPosition(0), a.Position)
}

func TestSimulation_BoostFeedback(t *testing.T) {
	rec := recorder.New()
	s := newSim(rec, WithAICount(0))
	s.Start()
	ts := time.Unix(0, 0)
	for _, k := range []string{"q", "a", "z"} {
		_, ok := s.KeyPress(k, ts)
		require.True(t, ok)
		ts = ts.Add(150 * time.Millisecond)
	}
	assert.Len(t, rec.ByType(model.MTKeyFeedback), 3)
	shakes := rec.ByType(model.MTCameraShake)
	require.Len(t, shakes, 1)
	assert.InDelta(t, 0.3, shakes[0].Intensity, 1e-12)
	assert.Len(t, rec.ByType(model.MTSpeedTrail), 1)
}

func TestSimulation_Reset(t *testing.T) {
	s := newSim(recorder.New(), WithRunOut(true))
	speeds := lo.Map(s.AIs(), func(a *racer.AI, _ int) float64 { return a.Speed })
	s.Start()
	completeLap(s)
	completeLap(s)
	finishAI(s, 0)
	require.Len(t, s.FinishOrder(), 2)

	s.Reset()
	assert.False(t, s.Started())
	assert.False(t, s.Finished())
	assert.Empty(t, s.FinishOrder())
	assert.Equal(t, 0, s.PlayerPlace())
	assert.Equal(t, time.Duration(0), s.SimTime())
	assert.Equal(t, 0, s.Player().Lap)
	assert.False(t, s.Player().Finished)
	assert.Equal(t, s.Track().PlayerStart, s.Player().Position)
	for i, a := range s.AIs() {
		assert.Equal(t, 0, a.Lap)
		assert.False(t, a.Finished)
		assert.Equal(t, s.Track().GridPosition(i), a.Position)
		assert.Equal(t, speeds[i], a.Speed)
	}
	assert.False(t, s.Controls().Active())
}

func TestSimulation_SetTuning(t *testing.T) {
	s := newSim(recorder.New())
	at := ai.DefaultTuning()
	at.BaseSpeed = 10
	at.SpeedJitter = 0
	s.SetTuning(player.DefaultTuning(), at)
	for _, a := range s.AIs() {
		assert.Equal(t, 10.0, a.Speed)
	}
}
