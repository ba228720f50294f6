package play

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/cmd/common"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/effects/sound"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/session"
	"github.com/mpapenbr/snailrace/pkg/terminal"
)

const (
	frameTime = 16 * time.Millisecond
	// longer gaps (e.g. a suspended process) are not simulated
	maxFrameTime = 100 * time.Millisecond
)

type options struct {
	sound bool
}

func NewPlayCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "starts an interactive race in the terminal",
		Long: `Type on the keyboard to move your snail.
Keys of the top row turn left, the bottom row turns right, the middle row
moves straight on. A steady rhythm is faster than hammering the keys.

ENTER/SPACE starts the countdown, BACKSPACE resets, ESC quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd.Context(), opts)
		},
	}
	common.AddRaceFlags(cmd)
	cmd.Flags().BoolVar(&opts.sound, "sound", false, "enable sound effects")
	return cmd
}

//nolint:funlen // by design
func play(ctx context.Context, opts options) error {
	// the terminal belongs to the screen, log output is dropped unless
	// a log file is configured
	loggers, err := common.SetupLogging(io.Discard)
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

	tuning, err := common.LoadTuning(viper.GetViper(), logger.Named("tuning"))
	if err != nil {
		return err
	}
	tuning.OnChange(func(config.Tuning) {
		logger.Info("tuning changed, applied on next reset")
	})
	tr, err := common.LoadTrack()
	if err != nil {
		return err
	}

	screen, err := terminal.NewScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()
	renderer := terminal.NewRenderer(screen, terminal.WithTrack(tr))

	sinks := effects.MultiSink{renderer}
	uis := effects.MultiUI{renderer, effects.NewLogSink(logger.Named("effects"))}
	if opts.sound {
		if out, err := sound.InitSpeaker(); err != nil {
			logger.Warn("sound disabled", log.ErrorField(err))
		} else {
			defer sound.CloseSpeaker()
			player := sound.NewPlayer(out)
			sinks = append(sinks, player)
			uis = append(uis, player)
		}
	}

	race := common.NewRace(tr, tuning, sinks, uis, logger)
	defer race.Session.Close()

	h := &host{
		sess:     race.Session,
		renderer: renderer,
		screen:   screen,
		log:      logger.Named("play"),
	}
	return h.loop(ctx, terminal.PollEvents(ctx, screen))
}

// host connects terminal events and frame ticks with the session
type host struct {
	sess     *session.Session
	renderer *terminal.Renderer
	screen   tcell.Screen
	log      *log.Logger
}

func (h *host) loop(ctx context.Context, events <-chan tcell.Event) error {
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	h.renderer.PhaseChanged(model.PhaseNotStarted)
	h.renderer.Draw(h.sess.Snapshot())
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !h.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			h.frame(min(now.Sub(last), maxFrameTime))
			last = now
		}
	}
}

// handle processes a terminal event. It returns false if the player quits.
func (h *host) handle(ev tcell.Event) bool {
	action, key := terminal.Translate(ev)
	switch action {
	case terminal.ActionQuit:
		h.log.Info("quit requested")
		return false
	case terminal.ActionStart:
		h.sess.Start()
	case terminal.ActionReset:
		h.sess.Reset()
	case terminal.ActionKey:
		h.sess.KeyPress(key, ev.When())
	case terminal.ActionResize:
		h.screen.Sync()
	case terminal.ActionNone:
	}
	return true
}

func (h *host) frame(dt time.Duration) {
	h.sess.Tick(dt)
	h.renderer.Update(dt)
	h.renderer.Draw(h.sess.Snapshot())
}
