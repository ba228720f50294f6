package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/collision"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/processing/ai"
	"github.com/mpapenbr/snailrace/pkg/processing/player"
)

const TuningKey = "tuning"

// Tuning collects the gameplay constants which may be overridden in the
// tuning section of the config file
type Tuning struct {
	Controls  control.Params   `mapstructure:"controls"`
	Player    player.Tuning    `mapstructure:"player"`
	AI        ai.Tuning        `mapstructure:"ai"`
	Collision collision.Params `mapstructure:"collision"`
	RunOut    bool             `mapstructure:"runOut"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Controls:  control.DefaultParams(),
		Player:    player.DefaultTuning(),
		AI:        ai.DefaultTuning(),
		Collision: collision.DefaultParams(),
	}
}

// LoadTuning reads the tuning section of v. Keys not present keep their defaults.
func LoadTuning(v *viper.Viper) (Tuning, error) {
	ret := DefaultTuning()
	if !v.IsSet(TuningKey) {
		return ret, nil
	}
	if err := v.UnmarshalKey(TuningKey, &ret); err != nil {
		return DefaultTuning(), fmt.Errorf("tuning: %w", err)
	}
	return ret, nil
}

// TuningWatcher keeps the latest tuning of a watched config file
type TuningWatcher struct {
	mu       sync.RWMutex
	current  Tuning
	v        *viper.Viper
	l        *log.Logger
	onChange func(t Tuning)
}

// WatchTuning loads the tuning and reloads it whenever the config file of v
// changes. v must have been read from a file.
func WatchTuning(v *viper.Viper, l *log.Logger) (*TuningWatcher, error) {
	t, err := LoadTuning(v)
	if err != nil {
		return nil, err
	}
	w := &TuningWatcher{current: t, v: v, l: l}
	v.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	v.WatchConfig()
	return w, nil
}

// NewStaticTuning returns a watcher which never changes
func NewStaticTuning(t Tuning) *TuningWatcher {
	return &TuningWatcher{current: t, l: log.NewNop()}
}

func (w *TuningWatcher) reload(name string) {
	t, err := LoadTuning(w.v)
	if err != nil {
		w.l.Warn("could not reload tuning, keeping previous values",
			log.String("file", name), log.ErrorField(err))
		return
	}
	w.mu.Lock()
	w.current = t
	cb := w.onChange
	w.mu.Unlock()
	w.l.Info("tuning reloaded", log.String("file", name))
	if cb != nil {
		cb(t)
	}
}

func (w *TuningWatcher) Current() Tuning {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
// It runs on the watcher goroutine.
func (w *TuningWatcher) OnChange(cb func(t Tuning)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = cb
}
