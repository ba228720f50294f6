package migrate

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"postgresql", "postgresql://u:p@host:5432/db", "pgx5://u:p@host:5432/db"},
		{"postgres", "postgres://u:p@host/db?sslmode=disable", "pgx5://u:p@host/db?sslmode=disable"},
		{"already converted", "pgx5://u:p@host/db", "pgx5://u:p@host/db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DatabaseURL(tt.in))
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	up, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, up)
	assert.Len(t, down, len(up))
}
