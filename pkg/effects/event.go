package effects

import (
	"github.com/mpapenbr/snailrace/pkg/model"
)

// Event is the serializable form of a Sink or UI notification
type Event struct {
	Type      model.MessageType `json:"type"`
	Position  *model.Vec3       `json:"position,omitempty"`
	Velocity  *model.Vec3       `json:"velocity,omitempty"`
	Color     model.Color       `json:"color,omitempty"`
	Count     int               `json:"count,omitempty"`
	Intensity float64           `json:"intensity,omitempty"`
	Key       *model.KeyInfo    `json:"key,omitempty"`
	Value     int               `json:"value,omitempty"` // countdown value or finish place
	Phase     string            `json:"phase,omitempty"`
}

// Emitter converts notifications into Events and passes them to Emit
type Emitter struct {
	Emit func(ev Event)
}

var (
	_ Sink = (*Emitter)(nil)
	_ UI   = (*Emitter)(nil)
)

func NewEmitter(emit func(ev Event)) *Emitter {
	return &Emitter{Emit: emit}
}

func (e *Emitter) Burst(pos model.Vec3, color model.Color, count int) {
	e.Emit(Event{Type: model.MTBurst, Position: &pos, Color: color, Count: count})
}

func (e *Emitter) CameraShake(intensity float64) {
	e.Emit(Event{Type: model.MTCameraShake, Intensity: intensity})
}

func (e *Emitter) KeyFeedback(info model.KeyInfo, color model.Color) {
	e.Emit(Event{Type: model.MTKeyFeedback, Key: &info, Color: color})
}

func (e *Emitter) SpeedTrail(pos, vel model.Vec3, intensity float64) {
	e.Emit(Event{Type: model.MTSpeedTrail, Position: &pos, Velocity: &vel, Intensity: intensity})
}

func (e *Emitter) Countdown(n int) {
	e.Emit(Event{Type: model.MTCountdown, Value: n})
}

func (e *Emitter) Finish(place int) {
	e.Emit(Event{Type: model.MTFinish, Value: place})
}

func (e *Emitter) PhaseChanged(phase model.Phase) {
	e.Emit(Event{Type: model.MTPhase, Phase: phase.String()})
}
