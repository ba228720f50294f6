package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/utils"
)

const defaultWait = 60 * time.Second

// Loggers holds the application and the sql logger configured from the
// CLI values
type Loggers struct {
	Logger    *log.Logger
	SQLLogger *log.Logger
	closer    io.Closer
}

func (l *Loggers) Close() {
	_ = l.Logger.Sync()
	if l.closer != nil {
		_ = l.closer.Close()
	}
}

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogging creates the loggers and installs the application logger as
// default. Output goes to config.LogFile if set, otherwise to fallback.
//
//nolint:funlen // by design
func SetupLogging(fallback io.Writer) (*Loggers, error) {
	ret := &Loggers{}
	writer := fallback
	if config.LogFile != "" {
		f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		ret.closer = f
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		filter, err := log.WithFilter(config.LogFilter)
		if err != nil {
			if ret.closer != nil {
				_ = ret.closer.Close()
			}
			return nil, fmt.Errorf("log filter: %w", err)
		}
		opts = append(opts, filter)
	}
	switch config.LogFormat {
	case "json":
		ret.Logger = log.New(
			writer,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			opts...)
		ret.SQLLogger = log.New(
			writer,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			opts...)
	default:
		ret.Logger = log.DevLogger(
			writer,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			opts...)
		ret.SQLLogger = log.DevLogger(
			writer,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
			opts...)
	}
	log.ResetDefault(ret.Logger)
	return ret, nil
}

// StartTelemetry sets up telemetry if enabled. A failed setup is logged
// and returns nil.
func StartTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry")
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

func StartProfiling() {
	if config.ProfilingPort <= 0 {
		return
	}
	log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
	go func() {
		//nolint:gosec // by design
		err := http.ListenAndServe(
			fmt.Sprintf("localhost:%d", config.ProfilingPort),
			nil)
		if err != nil {
			log.Error("Profiling server stopped", log.ErrorField(err))
		}
	}()
}

// WaitTimeout parses config.WaitForServices
func WaitTimeout() time.Duration {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		return defaultWait
	}
	return timeout
}

// WaitForDB waits until the database configured by config.DB accepts
// connections
func WaitForDB(ctx context.Context) error {
	addr := utils.ExtractFromDBURL(config.DB)
	if err := utils.WaitForTCP(ctx, addr, WaitTimeout()); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}

// WaitForNats waits until the NATS server configured by config.NatsURL
// accepts connections
func WaitForNats(ctx context.Context) error {
	addr := utils.ExtractFromNatsURL(config.NatsURL)
	if err := utils.WaitForTCP(ctx, addr, WaitTimeout()); err != nil {
		return fmt.Errorf("nats not ready: %w", err)
	}
	return nil
}
