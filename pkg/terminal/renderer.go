package terminal

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mpapenbr/snailrace/pkg/control"
	"github.com/mpapenbr/snailrace/pkg/effects"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/racer"
	"github.com/mpapenbr/snailrace/pkg/track"
)

const (
	hudLines       = 1
	keyboardLines  = 3
	maxShakeCells  = 4
	particleTTL    = 600 * time.Millisecond
	trailTTL       = 300 * time.Millisecond
	keyFlashTTL    = 200 * time.Millisecond
	goBannerTTL    = time.Second
	maxParticles   = 200
	particleSpread = 3.0
)

var (
	_ effects.Sink = (*Renderer)(nil)
	_ effects.UI   = (*Renderer)(nil)

	playerKind = racer.KindPlayer.String()
)

type (
	particle struct {
		pos   model.Vec3
		color model.Color
		glyph rune
		ttl   time.Duration
	}
	keyFlash struct {
		info  model.KeyInfo
		color model.Color
		ttl   time.Duration
	}

	// Renderer draws race snapshots to a tcell screen. It also receives the
	// cosmetic notifications of the simulation and keeps them alive for a
	// short time. Not safe for concurrent use.
	Renderer struct {
		screen tcell.Screen
		track  *track.Track
		layout *control.Layout
		rnd    *rand.Rand

		shake     Shake
		particles []particle
		flashes   []keyFlash
		banner    string
		bannerTTL time.Duration // 0 means until replaced
		place     int
	}
	RendererOption func(r *Renderer)
)

func WithTrack(t *track.Track) RendererOption {
	return func(r *Renderer) {
		r.track = t
	}
}

func WithLayout(l *control.Layout) RendererOption {
	return func(r *Renderer) {
		r.layout = l
	}
}

// WithRandom sets the source for shake offsets and particle spread
func WithRandom(rnd *rand.Rand) RendererOption {
	return func(r *Renderer) {
		r.rnd = rnd
	}
}

func NewRenderer(screen tcell.Screen, opts ...RendererOption) *Renderer {
	ret := &Renderer{screen: screen}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.track == nil {
		ret.track = track.Default()
	}
	if ret.layout == nil {
		ret.layout = control.DefaultLayout()
	}
	if ret.rnd == nil {
		ret.rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 7))
	}
	return ret
}

// NewScreen creates and initializes the terminal screen
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()
	return screen, nil
}

func (r *Renderer) Burst(pos model.Vec3, color model.Color, count int) {
	for i := 0; i < count && len(r.particles) < maxParticles; i++ {
		offset := model.V(
			(r.rnd.Float64()*2-1)*particleSpread, 0, (r.rnd.Float64()*2-1)*particleSpread)
		if count == 1 {
			offset = model.Vec3{}
		}
		r.particles = append(r.particles, particle{
			pos: pos.Add(offset), color: color, glyph: '*', ttl: particleTTL,
		})
	}
}

func (r *Renderer) CameraShake(intensity float64) {
	r.shake.Add(intensity)
}

func (r *Renderer) KeyFeedback(info model.KeyInfo, color model.Color) {
	r.flashes = append(r.flashes, keyFlash{info: info, color: color, ttl: keyFlashTTL})
}

func (r *Renderer) SpeedTrail(pos, vel model.Vec3, intensity float64) {
	n := min(int(math.Ceil(intensity*2)), 6)
	dir := vel.Normalize()
	for i := 1; i <= n && len(r.particles) < maxParticles; i++ {
		r.particles = append(r.particles, particle{
			pos:   pos.Add(dir.Scale(float64(i))),
			color: 0xAAAAAA,
			glyph: '~',
			ttl:   trailTTL,
		})
	}
}

func (r *Renderer) Countdown(n int) {
	if n > 0 {
		r.setBanner(fmt.Sprintf("%d", n), 0)
		return
	}
	r.setBanner("GO!", goBannerTTL)
}

func (r *Renderer) Finish(place int) {
	r.place = place
	r.setBanner(fmt.Sprintf("FINISH! %s place", model.Ordinal(place)), 0)
}

func (r *Renderer) PhaseChanged(phase model.Phase) {
	if phase == model.PhaseNotStarted {
		r.place = 0
		r.setBanner("press ENTER to start", 0)
	}
}

func (r *Renderer) setBanner(s string, ttl time.Duration) {
	r.banner = s
	r.bannerTTL = ttl
}

// Banner returns the currently displayed banner text
func (r *Renderer) Banner() string {
	return r.banner
}

func (r *Renderer) ShakeValue() float64 {
	return r.shake.Value()
}

// Update ages all transient effects by dt
func (r *Renderer) Update(dt time.Duration) {
	r.shake.Decay(dt)
	r.particles = age(r.particles, dt, func(p *particle) *time.Duration { return &p.ttl })
	r.flashes = age(r.flashes, dt, func(f *keyFlash) *time.Duration { return &f.ttl })
	if r.bannerTTL > 0 {
		r.bannerTTL -= dt
		if r.bannerTTL <= 0 {
			r.setBanner("", 0)
		}
	}
}

func age[T any](items []T, dt time.Duration, ttl func(*T) *time.Duration) []T {
	ret := items[:0]
	for i := range items {
		t := ttl(&items[i])
		*t -= dt
		if *t > 0 {
			ret = append(ret, items[i])
		}
	}
	return ret
}

// Draw renders the snapshot and shows the screen
func (r *Renderer) Draw(snap model.RaceSnapshot) {
	r.screen.Clear()
	w, h := r.screen.Size()
	v := r.viewport(w, h)

	pathStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	samples := 2 * (w + h)
	for i := 0; i < samples; i++ {
		r.plot(v, r.track.Path.PointAt(float64(i)/float64(samples)), '.', pathStyle)
	}
	r.plot(v, r.track.Start.Position, 'S', tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	r.plot(v, r.track.Halfway.Position, 'H', tcell.StyleDefault.Foreground(tcell.ColorWhite))

	for _, p := range r.particles {
		r.plot(v, p.pos, p.glyph, tcell.StyleDefault.Foreground(toTcell(p.color)))
	}
	for _, rs := range snap.Racers {
		glyph := 'o'
		if rs.Kind == playerKind {
			glyph = '@'
		}
		r.plot(v, rs.Position, glyph, tcell.StyleDefault.Foreground(toTcell(rs.Color)).Bold(true))
	}

	r.drawHUD(snap, w)
	r.drawKeyboard(w, h)
	if r.banner != "" {
		r.text((w-len(r.banner))/2, h/2, r.banner, tcell.StyleDefault.Reverse(true).Bold(true))
	}
	r.screen.Show()
}

type viewport struct {
	x0, y0, w, h int
	dx, dy       int
	bounds       model.Bounds
}

func (r *Renderer) viewport(w, h int) viewport {
	ret := viewport{
		x0: 0, y0: hudLines,
		w: w, h: max(h-hudLines-keyboardLines, 1),
		bounds: r.track.Bounds,
	}
	if s := r.shake.Value(); s > 0 {
		cells := s * maxShakeCells
		ret.dx = int(math.Round((r.rnd.Float64()*2 - 1) * cells))
		ret.dy = int(math.Round((r.rnd.Float64()*2 - 1) * cells / 2))
	}
	return ret
}

// Cell maps a world position to screen coordinates of the race area.
// Larger z values are drawn further up.
func (v viewport) Cell(pos model.Vec3) (x, y int, ok bool) {
	b := v.bounds
	if b.MaxX <= b.MinX || b.MaxZ <= b.MinZ {
		return 0, 0, false
	}
	fx := (pos.X - b.MinX) / (b.MaxX - b.MinX)
	fz := (b.MaxZ - pos.Z) / (b.MaxZ - b.MinZ)
	x = v.x0 + int(math.Round(fx*float64(v.w-1))) + v.dx
	y = v.y0 + int(math.Round(fz*float64(v.h-1))) + v.dy
	ok = x >= v.x0 && x < v.x0+v.w && y >= v.y0 && y < v.y0+v.h
	return x, y, ok
}

func (r *Renderer) plot(v viewport, pos model.Vec3, glyph rune, style tcell.Style) {
	if x, y, ok := v.Cell(pos); ok {
		r.screen.SetContent(x, y, glyph, nil, style)
	}
}

func (r *Renderer) drawHUD(snap model.RaceSnapshot, w int) {
	var hud string
	for _, rs := range snap.Racers {
		if rs.Kind != playerKind {
			continue
		}
		hud = fmt.Sprintf("Lap %d/%d  Speed %4.1f  %s",
			min(rs.Lap+1, r.track.Laps), r.track.Laps, rs.Speed, snap.Phase)
	}
	if r.place > 0 {
		hud += "  Place " + model.Ordinal(r.place)
	}
	if len(hud) > w {
		hud = hud[:w]
	}
	r.text(0, 0, hud, tcell.StyleDefault.Foreground(tcell.ColorWhite))
}

func (r *Renderer) drawKeyboard(w, h int) {
	lit := map[string]model.Color{}
	for _, f := range r.flashes {
		lit[f.info.Key] = f.color
	}
	for row := model.RowTop; row <= model.RowBottom; row++ {
		y := h - keyboardLines + int(row)
		x := (w-20)/2 + int(row)
		for i, k := range r.layout.Row(row) {
			style := tcell.StyleDefault.Foreground(tcell.ColorGray)
			if c, ok := lit[k]; ok {
				style = tcell.StyleDefault.Background(toTcell(c)).Foreground(tcell.ColorBlack)
			}
			r.screen.SetContent(x+2*i, y, []rune(k)[0], nil, style)
		}
	}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for i, c := range []rune(s) {
		r.screen.SetContent(x+i, y, c, nil, style)
	}
}

func toTcell(c model.Color) tcell.Color {
	cr, cg, cb := c.RGB()
	return tcell.NewRGBColor(int32(cr), int32(cg), int32(cb))
}
