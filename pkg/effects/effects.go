package effects

import (
	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/model"
)

// Sink receives fire-and-forget cosmetic notifications from the simulation.
// Implementations must not block.
type Sink interface {
	Burst(pos model.Vec3, color model.Color, count int)
	CameraShake(intensity float64)
	KeyFeedback(info model.KeyInfo, color model.Color)
	SpeedTrail(pos, vel model.Vec3, intensity float64)
}

// UI receives values meant for display only
type UI interface {
	Countdown(n int)
	Finish(place int)
	PhaseChanged(phase model.Phase)
}

type (
	Nop       struct{}
	MultiSink []Sink
	MultiUI   []UI
)

var (
	_ Sink = Nop{}
	_ UI   = Nop{}
	_ Sink = MultiSink{}
	_ UI   = MultiUI{}
)

func (Nop) Burst(model.Vec3, model.Color, int)         {}
func (Nop) CameraShake(float64)                        {}
func (Nop) KeyFeedback(model.KeyInfo, model.Color)     {}
func (Nop) SpeedTrail(model.Vec3, model.Vec3, float64) {}
func (Nop) Countdown(int)                              {}
func (Nop) Finish(int)                                 {}
func (Nop) PhaseChanged(model.Phase)                   {}

func (m MultiSink) Burst(pos model.Vec3, color model.Color, count int) {
	for _, s := range m {
		s.Burst(pos, color, count)
	}
}

func (m MultiSink) CameraShake(intensity float64) {
	for _, s := range m {
		s.CameraShake(intensity)
	}
}

func (m MultiSink) KeyFeedback(info model.KeyInfo, color model.Color) {
	for _, s := range m {
		s.KeyFeedback(info, color)
	}
}

func (m MultiSink) SpeedTrail(pos, vel model.Vec3, intensity float64) {
	for _, s := range m {
		s.SpeedTrail(pos, vel, intensity)
	}
}

func (m MultiUI) Countdown(n int) {
	for _, u := range m {
		u.Countdown(n)
	}
}

func (m MultiUI) Finish(place int) {
	for _, u := range m {
		u.Finish(place)
	}
}

func (m MultiUI) PhaseChanged(phase model.Phase) {
	for _, u := range m {
		u.PhaseChanged(phase)
	}
}

// LogSink writes all notifications to a logger. Cosmetic notifications are
// logged on debug level, UI values on info level.
type LogSink struct {
	l *log.Logger
}

func NewLogSink(l *log.Logger) *LogSink {
	return &LogSink{l: l}
}

func (s *LogSink) Burst(pos model.Vec3, color model.Color, count int) {
	s.l.Debug("burst",
		log.Any("pos", pos), log.Stringer("color", color), log.Int("count", count))
}

func (s *LogSink) CameraShake(intensity float64) {
	s.l.Debug("camera shake", log.Float64("intensity", intensity))
}

func (s *LogSink) KeyFeedback(info model.KeyInfo, color model.Color) {
	s.l.Debug("key feedback", log.String("key", info.Key), log.Stringer("color", color))
}

func (s *LogSink) SpeedTrail(pos, vel model.Vec3, intensity float64) {
	s.l.Debug("speed trail", log.Any("pos", pos), log.Float64("intensity", intensity))
}

func (s *LogSink) Countdown(n int) {
	s.l.Info("countdown", log.Int("value", n))
}

func (s *LogSink) Finish(place int) {
	s.l.Info("FINISH!", log.String("place", model.Ordinal(place)))
}

func (s *LogSink) PhaseChanged(phase model.Phase) {
	s.l.Info("phase changed", log.Stringer("phase", phase))
}
