package sound

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

const sampleRate = beep.SampleRate(44100)

// tone is a sine oscillator with a linear attack and an exponential decay
type tone struct {
	sr       beep.SampleRate
	freq     float64
	decay    float64
	attack   int
	pos      int
	duration int
}

func newTone(sr beep.SampleRate, freq float64, d time.Duration, decay float64) *tone {
	return &tone{
		sr:       sr,
		freq:     freq,
		decay:    decay,
		attack:   sr.N(5 * time.Millisecond),
		duration: sr.N(d),
	}
}

func (g *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if g.pos >= g.duration {
			return i, i > 0
		}
		t := float64(g.pos) / float64(g.sr)
		env := math.Exp(-t * g.decay)
		if g.pos < g.attack {
			env *= float64(g.pos) / float64(g.attack)
		}
		v := env * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *tone) Err() error {
	return nil
}

// noise burst used for collisions
type thud struct {
	sr       beep.SampleRate
	pos      int
	duration int
	seed     uint32
}

func newThud(sr beep.SampleRate, d time.Duration) *thud {
	return &thud{sr: sr, duration: sr.N(d), seed: 2463534242}
}

func (g *thud) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if g.pos >= g.duration {
			return i, i > 0
		}
		t := float64(g.pos) / float64(g.sr)
		// xorshift
		g.seed ^= g.seed << 13
		g.seed ^= g.seed >> 17
		g.seed ^= g.seed << 5
		noise := float64(g.seed)/float64(math.MaxUint32)*2 - 1
		v := math.Exp(-t*20) * (0.4*noise + 0.6*math.Sin(2*math.Pi*70*t))
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *thud) Err() error {
	return nil
}

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// Lap is a rising two note chime
func Lap(sr beep.SampleRate) beep.Streamer {
	return beep.Seq(
		newTone(sr, 659.25, 90*time.Millisecond, 8),
		newTone(sr, 987.77, 160*time.Millisecond, 8),
	)
}

// Finish is a major arpeggio
func Finish(sr beep.SampleRate) beep.Streamer {
	return beep.Seq(
		newTone(sr, 523.25, 110*time.Millisecond, 6),
		newTone(sr, 659.25, 110*time.Millisecond, 6),
		newTone(sr, 783.99, 110*time.Millisecond, 6),
		newTone(sr, 1046.5, 300*time.Millisecond, 4),
	)
}

func Collision(sr beep.SampleRate) beep.Streamer {
	return newThud(sr, 120*time.Millisecond)
}

// Boost pitch rises with the boost intensity
func Boost(sr beep.SampleRate, intensity float64) beep.Streamer {
	return newTone(sr, 300+400*math.Min(intensity, 1), 60*time.Millisecond, 25)
}

func Countdown(sr beep.SampleRate, n int) beep.Streamer {
	if n <= 0 {
		return newTone(sr, 880, 250*time.Millisecond, 6)
	}
	return newTone(sr, 440, 120*time.Millisecond, 10)
}
