package control

import (
	"math"
	"time"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/model"
)

const (
	// ReferenceTick is the frame length the per tick decay factor refers to
	ReferenceTick = 16 * time.Millisecond

	snapThreshold  = 0.01
	waveBonusCap   = 2.0
	idealRhythmMs  = 150.0
	waveSpanFactor = 1.3
	waveStepFactor = 1.2
	waveMaxStep    = 3
)

type Params struct {
	DecayFactor     float64 `mapstructure:"decayFactor"`
	BaseBoost       float64 `mapstructure:"baseBoost"`
	MaxVelocity     float64 `mapstructure:"maxVelocity"`
	TurnSensitivity float64 `mapstructure:"turnSensitivity"`
	VelocityDecay   float64 `mapstructure:"velocityDecay"` // per ReferenceTick
	HistorySize     int     `mapstructure:"historySize"`
}

func DefaultParams() Params {
	return Params{
		DecayFactor:     2.0,
		BaseBoost:       1.0,
		MaxVelocity:     15,
		TurnSensitivity: 1.6,
		VelocityDecay:   0.95,
		HistorySize:     5,
	}
}

// Velocity is the accumulated drive intent
type Velocity struct {
	Forward float64 `json:"forward"`
	Turn    float64 `json:"turn"`
}

// InputEvent is emitted for every accepted key press
type InputEvent struct {
	Key       model.KeyInfo
	Boost     float64
	Turn      float64
	Velocity  Velocity
	Timestamp time.Time
}

type (
	Listener func(ev InputEvent)
	// FeedbackSink receives cosmetic key press notifications
	FeedbackSink interface {
		KeyFeedback(info model.KeyInfo, color model.Color)
	}
)

type keyPress struct {
	info model.KeyInfo
	time time.Time
}

// Scheme converts key press rhythm into a decaying forward/turn velocity.
// It is not safe for concurrent use, callers serialize key presses and ticks.
type Scheme struct {
	params   Params
	layout   *Layout
	listener Listener
	feedback FeedbackSink
	log      *log.Logger

	active   bool
	last     *keyPress
	history  []keyPress // most recent first
	velocity Velocity
}

type Option func(s *Scheme)

func WithParams(p Params) Option {
	return func(s *Scheme) {
		s.params = p
	}
}

func WithLayout(l *Layout) Option {
	return func(s *Scheme) {
		s.layout = l
	}
}

func WithListener(l Listener) Option {
	return func(s *Scheme) {
		s.listener = l
	}
}

func WithFeedback(f FeedbackSink) Option {
	return func(s *Scheme) {
		s.feedback = f
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scheme) {
		s.log = l
	}
}

func NewScheme(opts ...Option) *Scheme {
	ret := &Scheme{
		params: DefaultParams(),
		layout: DefaultLayout(),
		log:    log.Default().Named("control"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.params.HistorySize < 1 {
		ret.params.HistorySize = 1
	}
	ret.history = make([]keyPress, 0, ret.params.HistorySize)
	return ret
}

// SetListener replaces the input listener. nil removes it.
func (s *Scheme) SetListener(l Listener) {
	s.listener = l
}

func (s *Scheme) SetFeedback(f FeedbackSink) {
	s.feedback = f
}

// SetParams replaces the tuning. Accumulated state is kept.
func (s *Scheme) SetParams(p Params) {
	if p.HistorySize < 1 {
		p.HistorySize = 1
	}
	s.params = p
	if len(s.history) > p.HistorySize {
		s.history = s.history[:p.HistorySize]
	}
}

func (s *Scheme) Params() Params {
	return s.params
}

func (s *Scheme) Layout() *Layout {
	return s.layout
}

// Activate enables key processing and resets all accumulated state
func (s *Scheme) Activate() {
	s.Reset()
	s.active = true
	s.log.Debug("controls activated")
}

func (s *Scheme) Deactivate() {
	s.active = false
	s.log.Debug("controls deactivated")
}

func (s *Scheme) Active() bool {
	return s.active
}

// Reset clears velocity, last key and history
func (s *Scheme) Reset() {
	s.velocity = Velocity{}
	s.last = nil
	s.history = s.history[:0]
}

func (s *Scheme) Velocity() Velocity {
	return s.velocity
}

// OnKeyPress processes a key press. The returned bool is false if the key was
// ignored (inactive scheme or key not part of the layout).
func (s *Scheme) OnKeyPress(key string, ts time.Time) (InputEvent, bool) {
	if !s.active {
		return InputEvent{}, false
	}
	info, ok := s.layout.Lookup(key)
	if !ok {
		return InputEvent{}, false
	}

	s.pushHistory(keyPress{info: info, time: ts})
	boost := s.boost(info, ts)
	turn := s.turn(info.Row)

	s.velocity.Forward = math.Min(s.velocity.Forward+boost, s.params.MaxVelocity)
	s.velocity.Turn = clamp(s.velocity.Turn+turn, -s.params.MaxVelocity, s.params.MaxVelocity)
	s.last = &keyPress{info: info, time: ts}

	ev := InputEvent{
		Key:       info,
		Boost:     boost,
		Turn:      turn,
		Velocity:  s.velocity,
		Timestamp: ts,
	}
	if s.log.Enabled(log.DebugLevel) {
		s.log.Debug("key press",
			log.String("key", info.Key),
			log.Stringer("row", info.Row),
			log.Float64("boost", boost),
			log.Float64("forward", s.velocity.Forward),
			log.Float64("turn", s.velocity.Turn))
	}
	if s.listener != nil {
		s.listener(ev)
	}
	if s.feedback != nil {
		s.feedback.KeyFeedback(info, info.Row.Color())
	}
	return ev, true
}

// Tick decays the velocity. The per tick factor refers to ReferenceTick and is
// scaled for other frame lengths. Components below a small threshold snap to 0.
func (s *Scheme) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	f := math.Pow(s.params.VelocityDecay, float64(dt)/float64(ReferenceTick))
	s.velocity.Forward = snap(s.velocity.Forward * f)
	s.velocity.Turn = snap(s.velocity.Turn * f)
}

func (s *Scheme) pushHistory(kp keyPress) {
	if len(s.history) < s.params.HistorySize {
		s.history = append(s.history, keyPress{})
	}
	copy(s.history[1:], s.history)
	s.history[0] = kp
}

func (s *Scheme) boost(info model.KeyInfo, ts time.Time) float64 {
	if s.last == nil {
		return s.params.BaseBoost
	}
	dt := math.Max(0, ts.Sub(s.last.time).Seconds())
	timeDecay := math.Exp(-s.params.DecayFactor * dt)

	distanceBonus := 1.0
	if s.last.info.Row == info.Row {
		dist := absInt(info.Index - s.last.info.Index)
		distanceBonus = math.Pow(0.5, float64(dist-1))
	}
	return s.params.BaseBoost * timeDecay * distanceBonus * s.waveBonus()
}

// waveBonus rewards alternating rows, small index steps and a steady rhythm
// around idealRhythmMs. Requires at least 3 entries in history.
func (s *Scheme) waveBonus() float64 {
	if len(s.history) < 3 {
		return 1.0
	}
	recent := s.history[:3]
	bonus := 1.0

	if recent[0].info.Row != recent[1].info.Row || recent[1].info.Row != recent[2].info.Row {
		bonus *= waveSpanFactor
	}
	wave := true
	for i := 1; i < len(recent); i++ {
		if absInt(recent[i].info.Index-recent[i-1].info.Index) > waveMaxStep {
			wave = false
			break
		}
	}
	if wave {
		bonus *= waveStepFactor
	}
	bonus *= rhythmBonus(s.averageInterKeyMs())
	return math.Min(bonus, waveBonusCap)
}

func (s *Scheme) averageInterKeyMs() float64 {
	if len(s.history) < 2 {
		return 0
	}
	total := s.history[0].time.Sub(s.history[len(s.history)-1].time)
	return float64(total) / float64(time.Millisecond) / float64(len(s.history)-1)
}

func rhythmBonus(avgMs float64) float64 {
	return math.Max(0.8, 1.5-math.Abs(avgMs-idealRhythmMs)/200)
}

func (s *Scheme) turn(r model.Row) float64 {
	switch r {
	case model.RowTop:
		return s.params.TurnSensitivity
	case model.RowBottom:
		return -s.params.TurnSensitivity
	default:
		return 0
	}
}

func snap(v float64) float64 {
	if math.Abs(v) < snapThreshold {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
