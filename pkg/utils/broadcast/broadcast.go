// Package broadcast fans out values of a single channel to many subscribers.
package broadcast

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/snailrace/log"
)

// DefaultBuffer is the number of values kept for a subscriber that does not
// keep up.
const DefaultBuffer = 1

type (
	// Hub delivers every value of its source to all subscribers. A subscriber
	// that falls behind loses its oldest pending values, the source is never
	// blocked by subscribers.
	Hub[T any] struct {
		name   string
		source <-chan T
		buffer int
		attrs  []attribute.KeyValue
		log    *log.Logger

		join  chan chan T
		leave chan (<-chan T)
		ctx   context.Context
		stop  context.CancelFunc

		received  atomic.Int64
		delivered atomic.Int64
		dropped   atomic.Int64
	}
	Option[T any] func(h *Hub[T])
)

// WithTelemetry adds the event attribute to the hub gauges
func WithTelemetry[T any](event string) Option[T] {
	return func(h *Hub[T]) {
		h.attrs = append(h.attrs, attribute.String("event", event))
	}
}

func WithBuffer[T any](n int) Option[T] {
	return func(h *Hub[T]) {
		h.buffer = max(n, 1)
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(h *Hub[T]) {
		h.log = l
	}
}

// New starts a hub reading from source until source is closed or Close is called
func New[T any](name string, source <-chan T, opts ...Option[T]) *Hub[T] {
	ctx, stop := context.WithCancel(context.Background())
	h := &Hub[T]{
		name:   name,
		source: source,
		buffer: DefaultBuffer,
		attrs:  []attribute.KeyValue{attribute.String("name", name)},
		log:    log.Default().Named("broadcast"),
		join:   make(chan chan T),
		leave:  make(chan (<-chan T)),
		ctx:    ctx,
		stop:   stop,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registerGauges()
	go h.run()
	return h
}

// Subscribe returns a channel receiving the values published from now on.
// It is closed by Unsubscribe, Close or when the source ends.
func (h *Hub[T]) Subscribe() <-chan T {
	ch := make(chan T, h.buffer)
	select {
	case h.join <- ch:
	case <-h.ctx.Done():
		close(ch)
	}
	return ch
}

func (h *Hub[T]) Unsubscribe(ch <-chan T) {
	select {
	case h.leave <- ch:
	case <-h.ctx.Done():
	}
}

func (h *Hub[T]) Close() {
	h.stop()
}

func (h *Hub[T]) registerGauges() {
	meter := otel.GetMeterProvider().Meter("snailrace.broadcast")
	gauge := func(name, desc string, v *atomic.Int64) {
		_, err := meter.Int64ObservableGauge(name,
			metric.WithDescription(desc),
			metric.WithUnit("{message}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(v.Load(), metric.WithAttributes(h.attrs...))
				return nil
			}))
		if err != nil {
			h.log.Warn("could not register gauge", log.String("gauge", name), log.ErrorField(err))
		}
	}
	gauge("snailrace.broadcast.received", "Values read from the source", &h.received)
	gauge("snailrace.broadcast.delivered", "Values handed to subscribers", &h.delivered)
	gauge("snailrace.broadcast.dropped", "Values discarded for slow subscribers", &h.dropped)
}

func (h *Hub[T]) run() {
	subs := map[<-chan T]chan T{}
	defer func() {
		for _, ch := range subs {
			close(ch)
		}
		h.log.Debug("hub stopped",
			log.String("name", h.name),
			log.Int64("received", h.received.Load()),
			log.Int64("delivered", h.delivered.Load()),
			log.Int64("dropped", h.dropped.Load()))
	}()
	for {
		select {
		case <-h.ctx.Done():
			return
		case ch := <-h.join:
			subs[ch] = ch
		case ch := <-h.leave:
			if sub, ok := subs[ch]; ok {
				delete(subs, ch)
				close(sub)
			}
		case v, ok := <-h.source:
			if !ok {
				return
			}
			h.received.Add(1)
			for _, ch := range subs {
				h.deliver(ch, v)
			}
		}
	}
}

// deliver replaces the oldest pending value if ch is full. The hub is the
// only sender so the second send cannot block.
func (h *Hub[T]) deliver(ch chan T, v T) {
	select {
	case ch <- v:
		h.delivered.Add(1)
		return
	default:
	}
	select {
	case <-ch:
		h.dropped.Add(1)
	default:
	}
	ch <- v
	h.delivered.Add(1)
}
