//nolint:thelper,whitespace,lll,funlen // ok for tests
package sound

import (
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/snailrace/pkg/model"
)

type recordingOutput struct {
	played []beep.Streamer
}

func (o *recordingOutput) Play(s beep.Streamer) {
	o.played = append(o.played, s)
}

func drain(s beep.Streamer) (total int, maxAbs float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if v := buf[i][0]; v > maxAbs {
				maxAbs = v
			} else if -v > maxAbs {
				maxAbs = -v
			}
		}
		total += n
		if !ok {
			return total, maxAbs
		}
	}
}

func TestGeneratorsTerminate(t *testing.T) {
	sr := beep.SampleRate(8000)
	tests := []struct {
		name string
		s    beep.Streamer
		want int
	}{
		{name: "lap", s: Lap(sr), want: sr.N(90e6) + sr.N(160e6)},
		{name: "collision", s: Collision(sr), want: sr.N(120e6)},
		{name: "boost", s: Boost(sr, 2), want: sr.N(60e6)},
		{name: "go", s: Countdown(sr, 0), want: sr.N(250e6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, maxAbs := drain(tt.s)
			assert.Equal(t, tt.want, total)
			assert.LessOrEqual(t, maxAbs, 1.0)
			assert.Greater(t, maxAbs, 0.0)
		})
	}
}

func TestPlayerMapping(t *testing.T) {
	out := &recordingOutput{}
	p := NewPlayer(out, WithSampleRate(8000))

	p.Burst(model.Vec3{}, model.ColorLap, 15)
	p.Burst(model.Vec3{}, model.ColorCollision, 1)
	p.SpeedTrail(model.Vec3{}, model.Vec3{}, 0.5)
	p.CameraShake(0.3) // silent
	p.KeyFeedback(model.KeyInfo{}, model.ColorTopRow)
	p.PhaseChanged(model.PhaseCountdown) // silent
	p.PhaseChanged(model.PhaseRacing)
	assert.Len(t, out.played, 4)

	p.SetMuted(true)
	p.Finish(1)
	assert.Len(t, out.played, 4)
}

func TestPlayerWithoutOutput(t *testing.T) {
	p := NewPlayer(nil)
	assert.NotPanics(t, func() { p.Finish(1) })
}
