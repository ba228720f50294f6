package collision

import (
	"math"

	"github.com/mpapenbr/snailrace/pkg/model"
)

// Body is anything the resolver can push around
type Body interface {
	ID() string
	Pos() *model.Vec3
	// Kinetic returns the velocity if the body is moved by velocity integration
	Kinetic() (*model.Vec3, bool)
}

type Params struct {
	Radius           float64      `mapstructure:"radius"`
	Epsilon          float64      `mapstructure:"epsilon"`
	Bounds           model.Bounds `mapstructure:"bounds"`
	Bounce           float64      `mapstructure:"bounce"`
	Dampening        float64      `mapstructure:"dampening"`
	Impulse          float64      `mapstructure:"impulse"`
	ImpulseDampening float64      `mapstructure:"impulseDampening"`
}

func DefaultParams() Params {
	return Params{
		Radius:           1.0,
		Epsilon:          0.1,
		Bounds:           model.Bounds{MinX: -50, MaxX: 50, MinZ: -50, MaxZ: 50},
		Bounce:           0.8,
		Dampening:        0.9,
		Impulse:          2.0,
		ImpulseDampening: 0.8,
	}
}

// Pair describes a detected racer/racer collision
type Pair struct {
	A, B Body
}

// Midpoint between both bodies after resolution
func (p Pair) Midpoint() model.Vec3 {
	return p.A.Pos().Add(*p.B.Pos()).Scale(0.5)
}

// Involves reports whether one of the bodies has the given id
func (p Pair) Involves(id string) bool {
	return p.A.ID() == id || p.B.ID() == id
}

// Resolver handles racer/racer and racer/world collisions.
// Its parameters are fixed after construction.
type Resolver struct {
	params Params
}

type Option func(r *Resolver)

func WithParams(p Params) Option {
	return func(r *Resolver) {
		r.params = p
	}
}

func WithBounds(b model.Bounds) Option {
	return func(r *Resolver) {
		r.params.Bounds = b
	}
}

func NewResolver(opts ...Option) *Resolver {
	ret := &Resolver{params: DefaultParams()}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (r *Resolver) Params() Params {
	return r.params
}

// ResolveBoundary clamps pos to the world rectangle. A clamped velocity component
// is turned inwards and scaled by Bounce, afterwards the whole velocity is
// dampened. Returns true if a clamp happened.
func (r *Resolver) ResolveBoundary(pos, vel *model.Vec3) bool {
	b := r.params.Bounds
	collided := false
	inward := func(v float64, sign float64) float64 {
		return sign * math.Abs(v) * r.params.Bounce
	}
	switch {
	case pos.X < b.MinX:
		pos.X = b.MinX
		vel.X = inward(vel.X, 1)
		collided = true
	case pos.X > b.MaxX:
		pos.X = b.MaxX
		vel.X = inward(vel.X, -1)
		collided = true
	}
	switch {
	case pos.Z < b.MinZ:
		pos.Z = b.MinZ
		vel.Z = inward(vel.Z, 1)
		collided = true
	case pos.Z > b.MaxZ:
		pos.Z = b.MaxZ
		vel.Z = inward(vel.Z, -1)
		collided = true
	}
	if collided {
		*vel = vel.Scale(r.params.Dampening)
	}
	return collided
}

// ResolvePair separates a and b if they overlap. Both are pushed half the overlap
// along the normal pointing from b to a, so they end up exactly Radius apart.
// Only a receives an impulse, and only if it is kinetic and moving.
// Distances at or below Epsilon are treated as no collision.
func (r *Resolver) ResolvePair(a, b Body) bool {
	pa, pb := a.Pos(), b.Pos()
	dist := pa.PlanarDist(*pb)
	if dist >= r.params.Radius || dist <= r.params.Epsilon {
		return false
	}
	normal := model.Vec3{X: (pa.X - pb.X) / dist, Z: (pa.Z - pb.Z) / dist}
	half := normal.Scale((r.params.Radius - dist) / 2)
	*pa = pa.Add(half)
	*pb = pb.Sub(half)

	if vel, ok := a.Kinetic(); ok && vel.Len() > 0 {
		*vel = vel.Add(normal.Scale(r.params.Impulse)).Scale(r.params.ImpulseDampening)
	}
	return true
}

// ResolveAll checks every unique pair of {player} and others, then keeps the
// player within the world bounds. Other racers are not bounds checked.
func (r *Resolver) ResolveAll(player Body, others []Body) []Pair {
	all := make([]Body, 0, len(others)+1)
	if player != nil {
		all = append(all, player)
	}
	for _, o := range others {
		if o != nil {
			all = append(all, o)
		}
	}

	var ret []Pair
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if r.ResolvePair(all[i], all[j]) {
				ret = append(ret, Pair{A: all[i], B: all[j]})
			}
		}
	}
	if player == nil {
		return ret
	}
	if vel, ok := player.Kinetic(); ok {
		r.ResolveBoundary(player.Pos(), vel)
	}
	return ret
}
