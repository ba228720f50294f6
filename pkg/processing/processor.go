package processing

import (
	"math/rand/v2"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/collision"
	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/processing/ai"
	"github.com/mpapenbr/snailrace/pkg/processing/player"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

const (
	DefaultAICount      = 4
	AIFinishBurstCount  = 12
	CollisionShake      = 0.1
	collisionBurstLift  = 0.5
	finishBurstLift     = 2.0
	collisionBurstCount = 1
)

var AIColors = []model.Color{0xFF6B6B, 0x4ECDC4, 0xFFE66D, 0xFF8B94}

// Simulation owns the racers of one race and advances them tick by tick.
// It is not safe for concurrent use.
type Simulation struct {
	track      *track.Track
	controls   *control.Scheme
	resolver   *collision.Resolver
	character  model.Character
	aiCount    int
	rnd        *rand.Rand
	sink       effects.Sink
	ui         effects.UI
	playerProc *player.PlayerProcessor
	aiProc     *ai.AIProcessor
	runOut     bool
	log        *log.Logger
	metrics    *raceMetrics

	playerTuning *player.Tuning
	aiTuning     *ai.Tuning

	player      *racer.Player
	ais         []*racer.AI
	racers      []racer.Racer
	finishOrder *racer.FinishOrder
	started     bool
	finished    bool
	simTime     time.Duration
	playerPlace int
}

type Option func(s *Simulation)

func WithTrack(t *track.Track) Option {
	return func(s *Simulation) {
		s.track = t
	}
}

// WithControls uses an externally created scheme. The simulation registers
// itself as listener.
func WithControls(c *control.Scheme) Option {
	return func(s *Simulation) {
		s.controls = c
	}
}

func WithResolver(r *collision.Resolver) Option {
	return func(s *Simulation) {
		s.resolver = r
	}
}

// WithCharacter selects the player character. Missing multipliers are neutral.
func WithCharacter(c model.Character) Option {
	return func(s *Simulation) {
		s.character = c
	}
}

func WithAICount(n int) Option {
	return func(s *Simulation) {
		s.aiCount = n
	}
}

// WithRandom sets the source for the AI personalities
func WithRandom(r *rand.Rand) Option {
	return func(s *Simulation) {
		s.rnd = r
	}
}

func WithEffects(sink effects.Sink) Option {
	return func(s *Simulation) {
		s.sink = sink
	}
}

func WithUI(ui effects.UI) Option {
	return func(s *Simulation) {
		s.ui = ui
	}
}

func WithPlayerTuning(t player.Tuning) Option {
	return func(s *Simulation) {
		s.playerTuning = &t
	}
}

func WithAITuning(t ai.Tuning) Option {
	return func(s *Simulation) {
		s.aiTuning = &t
	}
}

// WithRunOut keeps the AI racers moving after the player has finished so
// that they can complete their race distance.
func WithRunOut(b bool) Option {
	return func(s *Simulation) {
		s.runOut = b
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		s.log = l
	}
}

func NewSimulation(opts ...Option) *Simulation {
	ret := &Simulation{
		character: model.Neutral,
		aiCount:   DefaultAICount,
		sink:      effects.Nop{},
		ui:        effects.Nop{},
		log:       log.Default().Named("race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.track == nil {
		ret.track = track.Default()
	}
	if ret.rnd == nil {
		now := uint64(time.Now().UnixNano())
		ret.rnd = rand.New(rand.NewPCG(now, now>>1))
	}
	if ret.controls == nil {
		ret.controls = control.NewScheme(control.WithLogger(ret.log.Named("control")))
	}
	ret.controls.SetFeedback(ret.sink)
	ret.controls.SetListener(ret.onInput)
	if ret.resolver == nil {
		ret.resolver = collision.NewResolver(collision.WithBounds(ret.track.Bounds))
	}
	ret.metrics = newRaceMetrics(ret.log)

	playerOpts := []player.PlayerProcessorOption{
		player.WithTrack(ret.track),
		player.WithSink(ret.sink),
		player.WithLogger(ret.log.Named("player")),
	}
	if ret.playerTuning != nil {
		playerOpts = append(playerOpts, player.WithTuning(*ret.playerTuning))
	}
	ret.playerProc = player.NewPlayerProcessor(playerOpts...)

	aiOpts := []ai.AIProcessorOption{
		ai.WithPath(ret.track.Path),
		ai.WithLogger(ret.log.Named("ai")),
	}
	if ret.aiTuning != nil {
		aiOpts = append(aiOpts, ai.WithTuning(*ret.aiTuning))
	}
	ret.aiProc = ai.NewAIProcessor(aiOpts...)

	ret.createRacers()
	return ret
}

func (s *Simulation) createRacers() {
	s.player = racer.NewPlayer(s.character, s.track.PlayerStart, s.track.PlayerHeading)
	s.ais = make([]*racer.AI, 0, s.aiCount)
	for i := 0; i < s.aiCount; i++ {
		personality := s.rnd.Float64()
		s.ais = append(s.ais, racer.NewAI(
			i,
			s.aiProc.Speed(personality),
			personality,
			s.track.GridPosition(i),
			s.track.PlayerHeading,
			AIColors[i%len(AIColors)],
		))
	}
	s.racers = make([]racer.Racer, 0, len(s.ais)+1)
	s.racers = append(s.racers, s.player)
	for _, a := range s.ais {
		s.racers = append(s.racers, a)
	}
	s.finishOrder = racer.NewFinishOrder()
	s.log.Debug("racers created",
		log.String("character", s.player.Character.Name),
		log.Int("ai", len(s.ais)))
}

// Reset puts all racers back to the grid and clears the race state.
// AI speeds and personalities are kept.
func (s *Simulation) Reset() {
	s.controls.Deactivate()
	s.controls.Reset()
	s.player.Reset(s.track.PlayerStart, s.track.PlayerHeading)
	for _, a := range s.ais {
		a.Reset()
	}
	s.finishOrder.Reset()
	s.started = false
	s.finished = false
	s.simTime = 0
	s.playerPlace = 0
}

// Start releases the racers and activates the controls
func (s *Simulation) Start() {
	if s.started {
		return
	}
	s.started = true
	s.controls.Activate()
	s.log.Info("race started",
		log.String("track", s.track.Name),
		log.Int("laps", s.track.Laps),
		log.Duration("simTime", s.simTime))
}

// KeyPress forwards a key press to the controls. Ignored keys return false.
func (s *Simulation) KeyPress(key string, ts time.Time) (control.InputEvent, bool) {
	return s.controls.OnKeyPress(key, ts)
}

func (s *Simulation) onInput(ev control.InputEvent) {
	if !s.started || s.finished {
		return
	}
	s.playerProc.ProcessInput(s.player, ev)
}

// Tick advances the simulation by dt
func (s *Simulation) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	begin := time.Now()
	s.simTime += dt
	s.controls.Tick(dt)

	for _, r := range s.racers {
		switch v := r.(type) {
		case *racer.Player:
			s.updatePlayer(v, dt)
		case *racer.AI:
			s.updateAI(v, dt)
		}
	}
	if s.started && !s.finished {
		s.resolveCollisions()
	}
	s.metrics.tickDuration(time.Since(begin).Seconds())
}

func (s *Simulation) updatePlayer(p *racer.Player, dt time.Duration) {
	if !s.started || s.finished {
		return
	}
	s.playerProc.Integrate(p, s.controls.Velocity(), dt)
	if !s.playerProc.CheckGates(p) {
		return
	}
	s.metrics.lap(racer.KindPlayer)
	if p.Lap >= s.track.Laps && !p.Finished {
		p.Finished = true
		place, _ := s.finishOrder.Append(p.ID())
		s.playerPlace = place
		s.finished = true
		s.controls.Deactivate()
		s.metrics.finish(racer.KindPlayer, place)
		s.log.Info("player finished",
			log.String("place", model.Ordinal(place)),
			log.Duration("simTime", s.simTime))
		s.ui.Finish(place)
	}
}

func (s *Simulation) updateAI(a *racer.AI, dt time.Duration) {
	if !s.started {
		s.aiProc.Pin(a)
		return
	}
	if s.finished && !s.runOut {
		return
	}
	if !s.aiProc.Advance(a, dt, s.simTime) {
		return
	}
	s.metrics.lap(racer.KindAI)
	if a.Lap >= s.track.Laps && !a.Finished {
		a.Finished = true
		place, _ := s.finishOrder.Append(a.ID())
		s.metrics.finish(racer.KindAI, place)
		s.log.Info("ai finished",
			log.String("racer", a.ID()),
			log.String("place", model.Ordinal(place)),
			log.Duration("simTime", s.simTime))
		s.sink.Burst(a.Position.Add(model.V(0, finishBurstLift, 0)), model.ColorFinish, AIFinishBurstCount)
	}
}

func (s *Simulation) resolveCollisions() {
	others := lo.Map(s.ais, func(a *racer.AI, _ int) collision.Body { return a })
	for _, pair := range s.resolver.ResolveAll(s.player, others) {
		involved := pair.Involves(racer.PlayerID)
		s.metrics.collision(involved)
		s.sink.Burst(pair.Midpoint().Add(model.V(0, collisionBurstLift, 0)),
			model.ColorCollision, collisionBurstCount)
		if involved {
			s.sink.CameraShake(CollisionShake)
		}
	}
}

// Snapshot returns a value copy of the current race state
func (s *Simulation) Snapshot() model.RaceSnapshot {
	phase := model.PhaseNotStarted
	switch {
	case s.finished:
		phase = model.PhaseFinished
	case s.started:
		phase = model.PhaseRacing
	}
	return model.RaceSnapshot{
		Phase:       phase,
		SimTime:     s.simTime,
		Racers:      lo.Map(s.racers, func(r racer.Racer, _ int) model.RacerSnapshot { return r.Snapshot() }),
		FinishOrder: s.finishOrder.IDs(),
		PlayerPlace: s.playerPlace,
	}
}

// SetTuning replaces the motion constants. AI speeds are derived again from
// the personalities.
func (s *Simulation) SetTuning(pt player.Tuning, at ai.Tuning) {
	s.playerProc.SetTuning(pt)
	s.aiProc.SetTuning(at)
	for _, a := range s.ais {
		a.Speed = s.aiProc.Speed(a.Personality)
	}
}

func (s *Simulation) FinishOrder() []string {
	return s.finishOrder.IDs()
}

// PlayerPlace is 0 until the player has finished
func (s *Simulation) PlayerPlace() int {
	return s.playerPlace
}

func (s *Simulation) Finished() bool {
	return s.finished
}

// AllFinished reports whether every racer completed the race distance
func (s *Simulation) AllFinished() bool {
	return s.finishOrder.Len() == len(s.racers)
}

func (s *Simulation) Started() bool {
	return s.started
}

func (s *Simulation) SimTime() time.Duration {
	return s.simTime
}

func (s *Simulation) Player() *racer.Player {
	return s.player
}

func (s *Simulation) AIs() []*racer.AI {
	return s.ais
}

func (s *Simulation) Racers() []racer.Racer {
	return s.racers
}

func (s *Simulation) Controls() *control.Scheme {
	return s.controls
}

func (s *Simulation) Track() *track.Track {
	return s.track
}
