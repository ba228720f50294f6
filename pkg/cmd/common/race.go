package common

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/collision"
	"github.com/mpapenbr/snailrace/pkg/config"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/processing"
	"github.com/mpapenbr/snailrace/pkg/session"
	"github.com/mpapenbr/snailrace/pkg/track"
)

// AddRaceFlags registers the flags shared by all commands running a race
func AddRaceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&config.Character,
		"character",
		"",
		"player character (slick, wally, baphomet)")
	cmd.Flags().StringVar(&config.TrackFile,
		"track",
		"",
		"track definition file (default uses the built-in track)")
	cmd.Flags().IntVar(&config.AICount,
		"ai",
		processing.DefaultAICount,
		"number of AI racers")
	cmd.Flags().Uint64Var(&config.Seed,
		"seed",
		0,
		"seed for AI personalities (0 picks a random seed)")
	cmd.Flags().BoolVar(&config.WatchTuning,
		"watch-tuning",
		false,
		"reload the tuning section when the config file changes")
}

// Race bundles the components of a configured race
type Race struct {
	Track     *track.Track
	Character model.Character
	Seed      uint64
	Tuning    session.TuningSource
	Sim       *processing.Simulation
	Session   *session.Session
}

// LoadTrack returns the track of config.TrackFile or the built-in one
func LoadTrack() (*track.Track, error) {
	if config.TrackFile == "" {
		return track.Default(), nil
	}
	def, err := track.LoadDefinition(config.TrackFile)
	if err != nil {
		return nil, fmt.Errorf("load track: %w", err)
	}
	return def.Build()
}

// LoadTuning reads the tuning section of v. With config.WatchTuning the
// returned source follows changes of the config file.
func LoadTuning(v *viper.Viper, l *log.Logger) (*config.TuningWatcher, error) {
	if config.WatchTuning && v.ConfigFileUsed() != "" {
		return config.WatchTuning(v, l)
	}
	if config.WatchTuning {
		l.Warn("no config file in use, tuning is not watched")
	}
	t, err := config.LoadTuning(v)
	if err != nil {
		return nil, err
	}
	return config.NewStaticTuning(t), nil
}

// NewRace creates simulation and session on tr from the CLI values.
// sink and ui receive the notifications of both.
//
//nolint:whitespace // can't make both editor and linter happy
func NewRace(
	tr *track.Track,
	tuning *config.TuningWatcher,
	sink effects.Sink,
	ui effects.UI,
	l *log.Logger,
) *Race {
	character, found := model.LookupCharacter(config.Character)
	if !found && config.Character != "" {
		l.Warn("unknown character, using neutral values",
			log.String("character", config.Character))
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // any value will do
	}
	t := tuning.Current()
	simLogger := l.Named("race")
	sim := processing.NewSimulation(
		processing.WithTrack(tr),
		processing.WithCharacter(character),
		processing.WithAICount(max(config.AICount, 0)),
		processing.WithRandom(rand.New(rand.NewPCG(seed, seed>>1))),
		processing.WithControls(control.NewScheme(
			control.WithParams(t.Controls),
			control.WithLogger(simLogger.Named("control")))),
		processing.WithResolver(collision.NewResolver(
			collision.WithParams(t.Collision),
			collision.WithBounds(tr.Bounds))),
		processing.WithPlayerTuning(t.Player),
		processing.WithAITuning(t.AI),
		processing.WithRunOut(t.RunOut),
		processing.WithEffects(sink),
		processing.WithUI(ui),
		processing.WithLogger(simLogger),
	)
	sess := session.NewSession(
		session.WithSimulation(sim),
		session.WithUI(ui),
		session.WithTuning(tuning),
		session.WithLogger(l.Named("session")),
	)
	l.Info("race prepared",
		log.String("track", tr.Name),
		log.String("character", character.Name),
		log.Int("ai", len(sim.AIs())),
		log.Any("seed", seed))
	return &Race{
		Track:     tr,
		Character: character,
		Seed:      seed,
		Tuning:    tuning,
		Sim:       sim,
		Session:   sess,
	}
}

// Result converts the outcome of the finished race. raceTime excludes
// the countdown.
func (r *Race) Result(raceTime time.Duration) *model.RaceResult {
	return &model.RaceResult{
		Track:       r.Track.Name,
		Character:   r.Character.Name,
		Laps:        r.Track.Laps,
		Seed:        r.Seed,
		PlayerPlace: r.Sim.PlayerPlace(),
		RaceTime:    model.RaceTimeFromDuration(raceTime),
		FinishOrder: r.Sim.FinishOrder(),
	}
}
