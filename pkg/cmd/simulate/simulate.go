package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/autopilot"
	"github.com/mpapenbr/snailrace/pkg/cmd/common"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/db/postgres"
	"github.com/mpapenbr/snailrace/pkg/effects"
	natspub "github.com/mpapenbr/snailrace/pkg/effects/nats"
	"github.com/mpapenbr/snailrace/pkg/endpoints/spectate"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/repository/result"
)

const natsSnapshotInterval = 250 * time.Millisecond

type options struct {
	frame    time.Duration
	maxTime  time.Duration
	realtime bool
}

func NewSimulateCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "runs a race with an autopilot driving the player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	common.AddRaceFlags(cmd)
	cmd.Flags().DurationVar(&opts.frame,
		"frame",
		DefaultFrame,
		"simulation time per tick")
	cmd.Flags().DurationVar(&opts.maxTime,
		"max-time",
		DefaultMaxTime,
		"abort if the race is not finished after this simulation time")
	cmd.Flags().BoolVar(&opts.realtime,
		"realtime",
		false,
		"pace the ticks with the wall clock")
	cmd.Flags().StringVar(&config.SpectateAddr,
		"spectate-addr",
		"",
		"listen address of the spectator endpoint (e.g. localhost:8090)")
	cmd.Flags().StringVar(&config.SpectateTLSCert,
		"spectate-tls-cert",
		"",
		"certificate file of the spectator endpoint")
	cmd.Flags().StringVar(&config.SpectateTLSKey,
		"spectate-tls-key",
		"",
		"key file of the spectator endpoint")
	cmd.Flags().StringVar(&config.SpectateAcmeFile,
		"spectate-acme-file",
		"",
		"acme json file (e.g. traefik acme.json) holding the spectator certificate")
	cmd.Flags().StringVar(&config.SpectateAcmeDomain,
		"spectate-acme-domain",
		"",
		"domain of the spectator certificate in the acme file")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"publish race events to this NATS server")
	cmd.Flags().StringVar(&config.NatsPrefix,
		"nats-prefix",
		natspub.DefaultPrefix,
		"subject prefix for race events")
	cmd.Flags().BoolVar(&config.StoreResult,
		"store-result",
		false,
		"store the race result in the database")
	return cmd
}

//nolint:funlen,cyclop // by design
func simulate(ctx context.Context, out io.Writer, opts options) error {
	loggers, err := common.SetupLogging(os.Stderr)
	if err != nil {
		return err
	}
	defer loggers.Close()
	logger := loggers.Logger

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.StartProfiling()
	if telemetry := common.StartTelemetry(ctx); telemetry != nil {
		defer telemetry.Shutdown()
	}

	raceID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	tuning, err := common.LoadTuning(viper.GetViper(), logger.Named("tuning"))
	if err != nil {
		return err
	}

	logSink := effects.NewLogSink(logger.Named("effects"))
	sinks := effects.MultiSink{logSink}
	uis := effects.MultiUI{logSink}
	var observers []func(model.RaceSnapshot)

	if config.NatsURL != "" {
		publisher, closeNats, err := connectNats(ctx, raceID.String(), logger)
		if err != nil {
			return err
		}
		defer closeNats()
		sinks = append(sinks, publisher)
		uis = append(uis, publisher)
		observers = append(observers, throttled(natsSnapshotInterval,
			func(snap model.RaceSnapshot) {
				if err := publisher.PublishSnapshot(&snap); err != nil {
					logger.Warn("could not publish snapshot", log.ErrorField(err))
				}
			}))
	}

	if config.SpectateAddr != "" {
		srv, err := newSpectateServer(ctx, logger.Named("spectate"))
		if err != nil {
			return err
		}
		if !opts.realtime {
			logger.Warn("spectating without --realtime, the race is over in a moment")
		}
		defer srv.Close()
		go func() {
			if err := srv.ListenAndServe(ctx, config.SpectateAddr); err != nil {
				logger.Error("spectate server stopped", log.ErrorField(err))
			}
		}()
		observers = append(observers, srv.Publish)
	}

	tr, err := common.LoadTrack()
	if err != nil {
		return err
	}
	race := common.NewRace(tr, tuning, sinks, uis, logger)
	typist := autopilot.NewTypist(
		autopilot.WithPath(race.Track.Path),
		autopilot.WithLayout(race.Sim.Controls().Layout()),
		autopilot.WithLogger(logger.Named("autopilot")))

	runOpts := []runnerOption{
		withFrame(opts.frame),
		withMaxTime(opts.maxTime),
		withRealtime(opts.realtime),
		withWaitAll(tuning.Current().RunOut),
		withLogger(logger.Named("simulate")),
	}
	for _, o := range observers {
		runOpts = append(runOpts, withObserver(o))
	}
	r := newRunner(race.Session, typist, runOpts...)

	tracer := otel.Tracer("snailrace")
	traceCtx, span := tracer.Start(ctx, "simulate race")
	span.SetAttributes(
		attribute.String("raceId", raceID.String()),
		attribute.String("track", race.Track.Name),
		attribute.String("character", race.Character.Name),
		attribute.Int("ai", len(race.Sim.AIs())),
	)
	defer span.End()

	err = r.run(traceCtx)
	race.Session.Close()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	res := race.Result(r.raceTime())
	res.ID = raceID
	printResult(out, race, res)

	if config.StoreResult {
		storeCtx, storeSpan := tracer.Start(traceCtx, "store race result")
		defer storeSpan.End()
		if err := storeResult(storeCtx, loggers, res); err != nil {
			storeSpan.SetStatus(codes.Error, err.Error())
			return err
		}
		logger.Info("result stored", log.String("id", res.ID.String()))
	}
	return nil
}

func newSpectateServer(ctx context.Context, l *log.Logger) (*spectate.Server, error) {
	opts := []spectate.Option{spectate.WithLogger(l)}
	src := spectate.CertSource{
		CertFile:   config.SpectateTLSCert,
		KeyFile:    config.SpectateTLSKey,
		AcmeFile:   config.SpectateAcmeFile,
		AcmeDomain: config.SpectateAcmeDomain,
	}
	if src.Enabled() {
		certs, err := spectate.NewCertProvider(ctx, src, l.Named("certs"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, spectate.WithTLS(certs.TLSConfig()))
	}
	return spectate.NewServer(opts...), nil
}

//nolint:whitespace // can't make both editor and linter happy
func connectNats(ctx context.Context, raceKey string, l *log.Logger) (
	*natspub.Publisher, func(), error,
) {
	if err := common.WaitForNats(ctx); err != nil {
		return nil, nil, err
	}
	nc, err := nats.Connect(config.NatsURL, nats.Name("snailrace"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	l.Info("publishing race events", log.String("url", config.NatsURL),
		log.String("raceKey", raceKey))
	publisher := natspub.NewPublisher(nc, raceKey,
		natspub.WithPrefix(config.NatsPrefix),
		natspub.WithLogger(l.Named("nats")))
	return publisher, func() {
		if err := nc.Drain(); err != nil {
			l.Warn("nats drain", log.ErrorField(err))
		}
	}, nil
}

func storeResult(ctx context.Context, loggers *common.Loggers, res *model.RaceResult) error {
	if err := common.WaitForDB(ctx); err != nil {
		return err
	}
	tracer := postgres.WithTracer(postgres.NewMyTracer(loggers.SQLLogger, log.DebugLevel))
	if config.EnableTelemetry {
		tracer = postgres.WithOtlpTracer(loggers.SQLLogger, log.DebugLevel)
	}
	pool, err := postgres.Connect(config.DB, tracer)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := result.Create(ctx, pool, res); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// throttled forwards snapshots at most once per interval of simulation time
func throttled(interval time.Duration, f func(model.RaceSnapshot)) func(model.RaceSnapshot) {
	var last time.Duration
	sent := false
	return func(snap model.RaceSnapshot) {
		if sent && snap.SimTime >= last && snap.SimTime-last < interval {
			return
		}
		last = snap.SimTime
		sent = true
		f(snap)
	}
}

func printResult(out io.Writer, race *common.Race, res *model.RaceResult) {
	fmt.Fprintf(out, "%s, %d laps, %s (seed %d)\n",
		res.Track, res.Laps, res.Character, res.Seed)
	fmt.Fprintf(out, "race time %ss, player finished %s\n",
		res.RaceTime.StringFixed(3), model.Ordinal(res.PlayerPlace))
	lines := lo.Map(res.FinishOrder, func(id string, i int) string {
		return fmt.Sprintf("%5s  %s", model.Ordinal(i+1), id)
	})
	if unfinished := len(race.Sim.Racers()) - len(res.FinishOrder); unfinished > 0 {
		lines = append(lines, fmt.Sprintf("%5s  %d racer(s) still on track", "-", unfinished))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}
