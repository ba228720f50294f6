package sound

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
)

// Output plays streamers. The speaker output is the only production
// implementation.
type Output interface {
	Play(s beep.Streamer)
}

type speakerOutput struct {
	mixer *beep.Mixer
}

func (o *speakerOutput) Play(s beep.Streamer) {
	speaker.Lock()
	o.mixer.Add(s)
	speaker.Unlock()
}

// InitSpeaker initializes the sound device and returns an Output mixing
// all streamers into it
func InitSpeaker() (Output, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)
	return &speakerOutput{mixer: mixer}, nil
}

func CloseSpeaker() {
	speaker.Clear()
	speaker.Close()
}

type (
	// Player maps race notifications to short sound effects
	Player struct {
		effects.Nop
		mu     sync.Mutex
		out    Output
		sr     beep.SampleRate
		volume float64
		muted  bool
	}
	Option func(*Player)
)

var (
	_ effects.Sink = (*Player)(nil)
	_ effects.UI   = (*Player)(nil)
)

func NewPlayer(out Output, opts ...Option) *Player {
	ret := &Player{out: out, sr: sampleRate, volume: 0.5}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithVolume(v float64) Option {
	return func(p *Player) {
		p.volume = v
	}
}

func WithSampleRate(sr beep.SampleRate) Option {
	return func(p *Player) {
		p.sr = sr
	}
}

func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

func (p *Player) play(s beep.Streamer, vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted || p.out == nil {
		return
	}
	p.out.Play(withVolume(s, p.volume*vol))
}

// Burst plays the lap chime or the finish fanfare depending on the color.
// Other colors are collisions.
func (p *Player) Burst(_ model.Vec3, color model.Color, _ int) {
	switch color {
	case model.ColorLap:
		p.play(Lap(p.sr), 0.8)
	case model.ColorFinish:
		p.play(Finish(p.sr), 0.6)
	default:
		p.play(Collision(p.sr), 1)
	}
}

func (p *Player) SpeedTrail(_, _ model.Vec3, intensity float64) {
	p.play(Boost(p.sr, intensity), 0.4)
}

func (p *Player) Countdown(n int) {
	p.play(Countdown(p.sr, n), 0.7)
}

func (p *Player) Finish(int) {
	p.play(Finish(p.sr), 1)
}

func (p *Player) PhaseChanged(phase model.Phase) {
	if phase == model.PhaseRacing {
		p.play(Countdown(p.sr, 0), 0.7)
	}
}
