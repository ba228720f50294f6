// Package tcpostgres runs a throwaway postgres server for repository tests
package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultImage         = "postgres:17-alpine"
	DefaultContainerName = "snailrace-testdb"

	readyLog = "database system is ready to accept connections"
)

type (
	settings struct {
		image    string
		name     string
		user     string
		password string
		database string
		startup  time.Duration
	}
	Option func(s *settings)

	// Instance is a started postgres container
	Instance struct {
		container testcontainers.Container
		settings  settings
	}
)

func WithImage(image string) Option {
	return func(s *settings) {
		s.image = image
	}
}

// WithName sets the container name. Containers with the same name are reused
// between test packages.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

func WithCredentials(user, password string) Option {
	return func(s *settings) {
		s.user = user
		s.password = password
	}
}

func WithDatabase(name string) Option {
	return func(s *settings) {
		s.database = name
	}
}

func WithStartupTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.startup = d
	}
}

var pgPort = nat.Port("5432/tcp")

// Start starts (or reuses) the postgres container. fsync is disabled.
func Start(ctx context.Context, opts ...Option) (*Instance, error) {
	s := settings{
		image:    DefaultImage,
		name:     DefaultContainerName,
		user:     "postgres",
		password: "password",
		database: "snailrace",
		startup:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&s)
	}
	req := testcontainers.ContainerRequest{
		Image:        s.image,
		Name:         s.name,
		ExposedPorts: []string{string(pgPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		Env: map[string]string{
			"POSTGRES_USER":     s.user,
			"POSTGRES_PASSWORD": s.password,
			"POSTGRES_DB":       s.database,
		},
		// the server logs readiness once during init and once after restart
		WaitingFor: wait.ForAll(
			wait.ForLog(readyLog).WithOccurrence(2),
			wait.ForListeningPort(pgPort),
		).WithDeadline(s.startup),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	return &Instance{container: c, settings: s}, nil
}

// URL returns the connection url of the configured database
func (i *Instance) URL(ctx context.Context) (string, error) {
	host, err := i.container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := i.container.MappedPort(ctx, pgPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		i.settings.user, i.settings.password, host, port.Port(), i.settings.database), nil
}

// Terminate removes the container
func (i *Instance) Terminate(ctx context.Context) error {
	return i.container.Terminate(ctx)
}
