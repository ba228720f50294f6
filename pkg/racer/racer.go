package racer

import (
	"fmt"

	"github.com/mpapenbr/snailrace/pkg/model"
)

const PlayerID = "player"

type Kind int

const (
	KindPlayer Kind = iota
	KindAI
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAI:
		return "ai"
	}
	return "unknown"
}

// Racer is implemented by *Player and *AI
type Racer interface {
	ID() string
	Kind() Kind
	State() *Base
	// Pos gives mutable access to the position (used by collision handling)
	Pos() *model.Vec3
	// Kinetic returns the velocity of racers driven by velocity integration.
	// Spline driven racers return false.
	Kinetic() (*model.Vec3, bool)
	Snapshot() model.RacerSnapshot
}

// Base holds the state shared by all racers
type Base struct {
	id       string
	Position model.Vec3
	Heading  float64
	Lap      int
	Finished bool
}

func (b *Base) ID() string       { return b.id }
func (b *Base) State() *Base     { return b }
func (b *Base) Pos() *model.Vec3 { return &b.Position }
func (b *Base) resetLaps()       { b.Lap, b.Finished = 0, false }
func (b *Base) snapshot() model.RacerSnapshot {
	return model.RacerSnapshot{
		ID:       b.id,
		Position: b.Position,
		Heading:  b.Heading,
		Lap:      b.Lap,
		Finished: b.Finished,
	}
}

// Player is the racer controlled by key presses
type Player struct {
	Base
	Velocity      model.Vec3
	PassedHalfway bool
	PassedStart   bool
	Character     model.Character
}

func NewPlayer(c model.Character, pos model.Vec3, heading float64) *Player {
	ret := &Player{
		Base:      Base{id: PlayerID},
		Character: c.Sanitized(),
	}
	ret.Reset(pos, heading)
	return ret
}

func (p *Player) Kind() Kind { return KindPlayer }

func (p *Player) Kinetic() (*model.Vec3, bool) {
	return &p.Velocity, true
}

// Reset puts the player back to the grid
func (p *Player) Reset(pos model.Vec3, heading float64) {
	p.resetLaps()
	p.Position = pos
	p.Heading = heading
	p.Velocity = model.Vec3{}
	p.PassedHalfway = false
	p.PassedStart = false
}

func (p *Player) Snapshot() model.RacerSnapshot {
	ret := p.snapshot()
	ret.Kind = KindPlayer.String()
	ret.Speed = p.Velocity.PlanarLen()
	ret.Color = p.Character.Color
	return ret
}

// AI follows the track spline
type AI struct {
	Base
	Index         int
	Progress      float64
	Speed         float64
	Personality   float64
	StartPosition model.Vec3
	StartHeading  float64
	Color         model.Color
}

func AIID(idx int) string {
	return fmt.Sprintf("ai_%d", idx)
}

//nolint:whitespace // can't make both editor and linter happy
func NewAI(
	idx int, speed, personality float64, start model.Vec3, heading float64, color model.Color,
) *AI {
	ret := &AI{
		Base:          Base{id: AIID(idx)},
		Index:         idx,
		Speed:         speed,
		Personality:   personality,
		StartPosition: start,
		StartHeading:  heading,
		Color:         color,
	}
	ret.Reset()
	return ret
}

func (a *AI) Kind() Kind { return KindAI }

func (a *AI) Kinetic() (*model.Vec3, bool) {
	return nil, false
}

// Reset puts the racer back to its start position. Speed and personality are kept.
func (a *AI) Reset() {
	a.resetLaps()
	a.Progress = 0
	a.Position = a.StartPosition
	a.Heading = a.StartHeading
}

func (a *AI) Snapshot() model.RacerSnapshot {
	ret := a.snapshot()
	ret.Kind = KindAI.String()
	ret.Speed = a.Speed
	ret.Progress = a.Progress
	ret.Color = a.Color
	return ret
}

var (
	_ Racer = (*Player)(nil)
	_ Racer = (*AI)(nil)
)
