package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
)

const DefaultPrefix = "snailrace"

// Conn is the part of *nats.Conn used by the publisher
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

type (
	// Publisher forwards race events to NATS subjects
	// <prefix>.<type>.<raceKey>
	Publisher struct {
		*effects.Emitter
		conn    Conn
		raceKey string
		prefix  string
		l       *log.Logger
	}
	Option func(*Publisher)
)

var (
	_ effects.Sink = (*Publisher)(nil)
	_ effects.UI   = (*Publisher)(nil)
)

func NewPublisher(conn Conn, raceKey string, opts ...Option) *Publisher {
	ret := &Publisher{
		conn:    conn,
		raceKey: raceKey,
		prefix:  DefaultPrefix,
		l:       log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.Emitter = effects.NewEmitter(ret.publishEvent)
	return ret
}

func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

func (p *Publisher) Subject(mt model.MessageType) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, mt.Subject(), p.raceKey)
}

// PublishSnapshot sends the full race snapshot on the snapshot subject
func (p *Publisher) PublishSnapshot(s *model.RaceSnapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(model.MTSnapshot), data)
}

// errors are logged only, sinks must not fail the simulation
func (p *Publisher) publishEvent(ev effects.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.l.Error("error marshalling event", log.ErrorField(err))
		return
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		p.l.Warn("error publishing event",
			log.String("subject", p.Subject(ev.Type)),
			log.ErrorField(err))
	}
}
