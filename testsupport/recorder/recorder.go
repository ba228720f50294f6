package recorder

import (
	"sync"

	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
)

// Recorder collects all sink and UI notifications for later inspection
type Recorder struct {
	*effects.Emitter
	mu     sync.Mutex
	events []effects.Event
}

var (
	_ effects.Sink = (*Recorder)(nil)
	_ effects.UI   = (*Recorder)(nil)
)

func New() *Recorder {
	ret := &Recorder{}
	ret.Emitter = effects.NewEmitter(ret.add)
	return ret
}

func (r *Recorder) add(ev effects.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []effects.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]effects.Event, len(r.events))
	copy(ret, r.events)
	return ret
}

func (r *Recorder) ByType(mt model.MessageType) []effects.Event {
	ret := []effects.Event{}
	for _, ev := range r.Events() {
		if ev.Type == mt {
			ret = append(ret, ev)
		}
	}
	return ret
}

// Bursts returns the burst events with the given color
func (r *Recorder) Bursts(c model.Color) []effects.Event {
	ret := []effects.Event{}
	for _, ev := range r.ByType(model.MTBurst) {
		if ev.Color == c {
			ret = append(ret, ev)
		}
	}
	return ret
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
