//nolint:thelper,whitespace // ok for tests
package utils

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:5433/snail", "db.local:5433"},
		{"default port", "postgresql://user:pw@db.local/snail", "db.local:5432"},
		{"postgres scheme", "postgres://user@localhost:5432/snail?sslmode=disable", "localhost:5432"},
		{"no credentials", "postgresql://localhost/snail", "localhost:5432"},
		{"other scheme", "mysql://user@localhost/snail", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromDBURL(tt.url))
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "nats://localhost:4223", "localhost:4223"},
		{"default port", "nats://broker", "broker:4222"},
		{"credentials", "nats://user:pw@broker:4222", "broker:4222"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFromNatsURL(tt.url))
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	assert.NoError(t, WaitForTCP(context.Background(), l.Addr().String(), time.Second))
}

func TestWaitForTCP_Timeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	assert.Error(t, WaitForTCP(context.Background(), addr, 300*time.Millisecond))
}
