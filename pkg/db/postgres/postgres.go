package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxtrace"

	"github.com/mpapenbr/snailrace/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

// WithTracer installs the given tracer. Use pgxtrace.CompositeQueryTracer
// to combine several tracers.
func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

// WithOtlpTracer combines the sql logger with open telemetry tracing
func WithOtlpTracer(l *log.Logger, level log.Level) PoolConfigOption {
	return WithTracer(pgxtrace.CompositeQueryTracer{
		NewMyTracer(l, level),
		NewOtlpTracer(),
	})
}

// Connect creates the pool and verifies the connection
func Connect(url string, opts ...PoolConfigOption) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
}

type myQueryTracer struct {
	log   *log.Logger
	level log.Level
}

// NewMyTracer logs every statement with its arguments on the given level
func NewMyTracer(l *log.Logger, level log.Level) pgx.QueryTracer {
	return &myQueryTracer{log: l, level: level}
}

//nolint:whitespace // can't make both editor and linter happy
func (tracer *myQueryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	tracer.log.Log(tracer.level, "Executing",
		log.String("sql", data.SQL), log.Any("args", data.Args))
	return ctx
}

//nolint:whitespace // can't make both editor and linter happy
func (tracer *myQueryTracer) TraceQueryEnd(
	ctx context.Context,
	conn *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	if data.Err != nil {
		tracer.log.Log(tracer.level, "Query failed", log.ErrorField(data.Err))
	}
}
