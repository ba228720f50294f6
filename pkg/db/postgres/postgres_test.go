//nolint:thelper,whitespace // ok for tests
package postgres

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxtrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/snailrace/log"
)

func TestMyTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewMyTracer(log.New(&buf, log.DebugLevel), log.DebugLevel)
	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL:  "select 1 where $1",
		Args: []any{true},
	})
	assert.NotNil(t, ctx)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, `"sql":"select 1 where $1"`)
	assert.Contains(t, out, "Query failed")
	assert.Contains(t, out, "boom")
}

func TestMyTracer_LevelFiltered(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewMyTracer(log.New(&buf, log.InfoLevel), log.DebugLevel)
	tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "select 1"})
	assert.Empty(t, buf.String())
}

func TestWithOtlpTracer(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgresql://user:pw@localhost:5432/db")
	require.NoError(t, err)
	WithOtlpTracer(log.NewNop(), log.DebugLevel)(cfg)
	composite, ok := cfg.ConnConfig.Tracer.(pgxtrace.CompositeQueryTracer)
	require.True(t, ok)
	assert.Len(t, composite, 2)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect("postgres://%zz")
	assert.Error(t, err)
}
