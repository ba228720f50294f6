// Package testdb provides migrated, empty databases for repository tests
package testdb

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"

	"github.com/mpapenbr/snailrace/pkg/db/migrate"
	"github.com/mpapenbr/snailrace/pkg/db/postgres"
	"github.com/mpapenbr/snailrace/testsupport/tcpostgres"
)

// ExternalURLEnv names the variable pointing to an existing test database
const ExternalURLEnv = "TESTDB_URL"

var (
	once   sync.Once
	dbURL  string
	urlErr error
)

// tables lists everything a test may write to
var tables = []string{"race_result"}

// InitTestDb returns a pool to an empty, migrated database. Without TESTDB_URL
// a postgres container is used, the test is skipped if docker is not available.
// The pool is closed when the test ends.
func InitTestDb(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	if os.Getenv(ExternalURLEnv) == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}
	url, err := prepare(ctx)
	if err != nil {
		t.Fatalf("prepare test database: %v", err)
	}
	pool, err := postgres.Connect(url)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "truncate table "+table); err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}
	return pool
}

// prepare resolves and migrates the test database once per test binary
func prepare(ctx context.Context) (string, error) {
	once.Do(func() {
		dbURL = os.Getenv(ExternalURLEnv)
		if dbURL == "" {
			var inst *tcpostgres.Instance
			if inst, urlErr = tcpostgres.Start(ctx); urlErr != nil {
				return
			}
			if dbURL, urlErr = inst.URL(ctx); urlErr != nil {
				return
			}
		}
		urlErr = migrate.MigrateDb(dbURL)
	})
	return dbURL, urlErr
}
