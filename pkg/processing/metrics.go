package processing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/racer"
)

var meter = otel.Meter("snailrace.race")

type raceMetrics struct {
	laps       metric.Int64Counter
	collisions metric.Int64Counter
	finishes   metric.Int64Counter
	tick       metric.Float64Histogram
}

// counters fall back to noop instruments if registration fails
func newRaceMetrics(l *log.Logger) *raceMetrics {
	ret := &raceMetrics{}
	var err error
	if ret.laps, err = meter.Int64Counter("snailrace.race.laps",
		metric.WithDescription("Number of completed laps"),
		metric.WithUnit("{lap}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "laps"), log.ErrorField(err))
	}
	if ret.collisions, err = meter.Int64Counter("snailrace.race.collisions",
		metric.WithDescription("Number of racer collisions"),
		metric.WithUnit("{count}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "collisions"), log.ErrorField(err))
	}
	if ret.finishes, err = meter.Int64Counter("snailrace.race.finishes",
		metric.WithDescription("Number of racers crossing the finish"),
		metric.WithUnit("{count}")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "finishes"), log.ErrorField(err))
	}
	if ret.tick, err = meter.Float64Histogram("snailrace.race.tick",
		metric.WithDescription("processing of a simulation tick"),
		metric.WithUnit("s")); err != nil {
		l.Warn("failed to register metric", log.String("metric", "tick"), log.ErrorField(err))
	}
	return ret
}

func kindAttr(k racer.Kind) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", k.String()))
}

func (m *raceMetrics) lap(k racer.Kind) {
	if m.laps != nil {
		m.laps.Add(context.Background(), 1, kindAttr(k))
	}
}

func (m *raceMetrics) collision(playerInvolved bool) {
	if m.collisions != nil {
		m.collisions.Add(context.Background(), 1,
			metric.WithAttributes(attribute.Bool("player", playerInvolved)))
	}
}

func (m *raceMetrics) finish(k racer.Kind, place int) {
	if m.finishes != nil {
		m.finishes.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("kind", k.String()), attribute.Int("place", place)))
	}
}

func (m *raceMetrics) tickDuration(seconds float64) {
	if m.tick != nil {
		m.tick.Record(context.Background(), seconds)
	}
}
