//nolint:thelper,whitespace,lll,funlen // ok for tests
package player

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

type recorder struct {
	effects.Nop
	bursts []model.Color
	shakes []float64
	trails int
}

func (r *recorder) Burst(_ model.Vec3, c model.Color, _ int) { r.bursts = append(r.bursts, c) }
func (r *recorder) CameraShake(i float64)                    { r.shakes = append(r.shakes, i) }
func (r *recorder) SpeedTrail(_, _ model.Vec3, _ float64)    { r.trails++ }

func newProcessor(sink effects.Sink) *PlayerProcessor {
	return NewPlayerProcessor(
		WithTrack(track.Default()),
		WithSink(sink),
		WithLogger(log.NewNop()))
}

func TestIntegrate_ForwardAlongHeading(t *testing.T) {
	pp := newProcessor(effects.Nop{})
	p := racer.NewPlayer(model.Neutral, model.Vec3{}, 0)
	pp.Integrate(p, control.Velocity{Forward: 4}, control.ReferenceTick)

	// force 4*0.25 = 1 along +x, then friction
	assert.InDelta(t, 0.92, p.Velocity.X, 1e-9)
	assert.InDelta(t, 0.0, p.Velocity.Z, 1e-9)
	assert.InDelta(t, 0.92*0.016, p.Position.X, 1e-9)
	assert.Equal(t, 0.0, p.Heading)
}

func TestIntegrate_Turn(t *testing.T) {
	pp := newProcessor(effects.Nop{})
	c := model.Neutral
	c.Handling = 2
	p := racer.NewPlayer(c, model.Vec3{}, 0)
	pp.Integrate(p, control.Velocity{Turn: 1.6}, 2*control.ReferenceTick)
	assert.InDelta(t, 1.6*2*0.007*2, p.Heading, 1e-12)
}

func TestIntegrate_Acceleration(t *testing.T) {
	c := model.Neutral
	c.Acceleration = 0.5

	pp := newProcessor(effects.Nop{})
	p := racer.NewPlayer(c, model.Vec3{}, 0)
	pp.Integrate(p, control.Velocity{Forward: 4}, control.ReferenceTick)
	assert.InDelta(t, 0.92, p.Velocity.X, 1e-9, "acceleration ignored by default")

	tuning := DefaultTuning()
	tuning.ApplyAcceleration = true
	pp.SetTuning(tuning)
	p = racer.NewPlayer(c, model.Vec3{}, 0)
	pp.Integrate(p, control.Velocity{Forward: 4}, control.ReferenceTick)
	assert.InDelta(t, 0.46, p.Velocity.X, 1e-9)
}

func TestIntegrate_SpeedCap(t *testing.T) {
	pp := newProcessor(effects.Nop{})
	p := racer.NewPlayer(model.Character{Speed: 100, Acceleration: 1, Handling: 1}, model.Vec3{}, math.Pi/4)
	for i := 0; i < 50; i++ {
		pp.Integrate(p, control.Velocity{Forward: 15}, control.ReferenceTick)
		assert.LessOrEqual(t, p.Velocity.PlanarLen(), 12.0+1e-9)
	}
	assert.InDelta(t, 12.0, p.Velocity.PlanarLen(), 1e-9)
}

func TestIntegrate_FrameRateIndependentFriction(t *testing.T) {
	pp := newProcessor(effects.Nop{})
	a := racer.NewPlayer(model.Neutral, model.Vec3{}, 0)
	b := racer.NewPlayer(model.Neutral, model.Vec3{}, 0)
	a.Velocity = model.V(5, 0, 0)
	b.Velocity = model.V(5, 0, 0)
	pp.Integrate(a, control.Velocity{}, 2*control.ReferenceTick)
	pp.Integrate(b, control.Velocity{}, control.ReferenceTick)
	pp.Integrate(b, control.Velocity{}, control.ReferenceTick)
	assert.InDelta(t, a.Velocity.X, b.Velocity.X, 1e-12)
}

func TestIntegrate_ZeroDt(t *testing.T) {
	pp := newProcessor(effects.Nop{})
	p := racer.NewPlayer(model.Neutral, model.V(1, 0, 1), 0)
	pp.Integrate(p, control.Velocity{Forward: 10}, 0)
	assert.Equal(t, model.V(1, 0, 1), p.Position)
	assert.Equal(t, model.Vec3{}, p.Velocity)
}

func TestCheckGates(t *testing.T) {
	tr := track.Default()
	start := tr.Start.Position
	halfway := tr.Halfway.Position
	away := model.V(0, 0, 30)

	tests := []struct {
		name     string
		path     []model.Vec3
		wantLaps int
	}{
		{name: "start twice without halfway", path: []model.Vec3{start, away, start}, wantLaps: 0},
		{name: "halfway then start", path: []model.Vec3{halfway, away, start}, wantLaps: 1},
		{name: "start, halfway, start", path: []model.Vec3{start, halfway, start}, wantLaps: 1},
		{name: "halfway twice", path: []model.Vec3{halfway, away, halfway}, wantLaps: 0},
		{name: "two laps", path: []model.Vec3{halfway, start, away, halfway, start}, wantLaps: 2},
		{name: "flags reset after lap", path: []model.Vec3{halfway, start, away, start}, wantLaps: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			pp := newProcessor(rec)
			p := racer.NewPlayer(model.Neutral, away, 0)
			for _, pos := range tt.path {
				p.Position = pos
				pp.CheckGates(p)
			}
			assert.Equal(t, tt.wantLaps, p.Lap)
			assert.Len(t, rec.bursts, tt.wantLaps)
			for _, c := range rec.bursts {
				assert.Equal(t, model.ColorLap, c)
			}
		})
	}
}

func TestProcessInput(t *testing.T) {
	rec := &recorder{}
	pp := newProcessor(rec)
	p := racer.NewPlayer(model.Neutral, model.Vec3{}, 0)
	p.Velocity = model.V(5, 0, 0)

	pp.ProcessInput(p, control.InputEvent{Boost: 1.0})
	assert.Empty(t, rec.shakes)
	pp.ProcessInput(p, control.InputEvent{Boost: 1.3})
	assert.Equal(t, []float64{0.3}, rec.shakes)
	assert.Equal(t, 1, rec.trails)
}
