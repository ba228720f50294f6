//nolint:thelper,whitespace,lll,funlen // ok for tests
package collision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/snailrace/pkg/model"
)

type body struct {
	id  string
	pos model.Vec3
	vel *model.Vec3
}

func (b *body) ID() string       { return b.id }
func (b *body) Pos() *model.Vec3 { return &b.pos }
func (b *body) Kinetic() (*model.Vec3, bool) {
	return b.vel, b.vel != nil
}

func kinetic(id string, pos, vel model.Vec3) *body {
	return &body{id: id, pos: pos, vel: &vel}
}

func static(id string, pos model.Vec3) *body {
	return &body{id: id, pos: pos}
}

func TestResolvePair_Separation(t *testing.T) {
	r := NewResolver()
	a := kinetic("player", model.V(0.5, 0, 0), model.V(3, 0, 0))
	b := static("ai_0", model.V(0, 0.5, 0))

	preSpeed := a.vel.Len()
	require.True(t, r.ResolvePair(a, b))

	assert.InDelta(t, 1.0, a.pos.PlanarDist(b.pos), 1e-12)
	assert.InDelta(t, 0.75, a.pos.X, 1e-12)
	assert.InDelta(t, -0.25, b.pos.X, 1e-12)
	assert.Equal(t, 0.5, b.pos.Y, "height untouched")

	postSpeed := a.vel.Len()
	assert.Less(t, postSpeed, preSpeed+r.Params().Impulse)
	// (3 + 2) * 0.8
	assert.InDelta(t, 4.0, a.vel.X, 1e-12)
}

func TestResolvePair_Diagonal(t *testing.T) {
	r := NewResolver()
	a := kinetic("player", model.V(0.3, 0, 0.4), model.V(-1, 0, -1))
	b := static("ai_1", model.V(0, 0, 0))
	require.True(t, r.ResolvePair(a, b))
	assert.InDelta(t, 1.0, a.pos.PlanarDist(b.pos), 1e-12)
	// impulse points away from b
	assert.InDelta(t, (-1+2*0.6)*0.8, a.vel.X, 1e-12)
	assert.InDelta(t, (-1+2*0.8)*0.8, a.vel.Z, 1e-12)
}

func TestResolvePair_NoImpulse(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name string
		a, b *body
	}{
		{"standing player", kinetic("player", model.V(0.5, 0, 0), model.Vec3{}), static("ai_0", model.Vec3{})},
		{"two ai", static("ai_0", model.V(0.5, 0, 0)), static("ai_1", model.Vec3{})},
		{"impulse only for first", static("ai_0", model.V(0.5, 0, 0)), kinetic("player", model.Vec3{}, model.V(1, 0, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before *model.Vec3
			if tt.b.vel != nil {
				v := *tt.b.vel
				before = &v
			}
			require.True(t, r.ResolvePair(tt.a, tt.b))
			assert.InDelta(t, 1.0, tt.a.pos.PlanarDist(tt.b.pos), 1e-12)
			if tt.a.vel != nil {
				assert.Equal(t, model.Vec3{}, *tt.a.vel)
			}
			if before != nil {
				assert.Equal(t, *before, *tt.b.vel)
			}
		})
	}
}

func TestResolvePair_NoCollision(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name string
		dist float64
	}{
		{"far apart", 5},
		{"exactly radius", 1.0},
		{"degenerate", 0.05},
		{"exactly epsilon", 0.1},
		{"same position", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := kinetic("player", model.V(tt.dist, 0, 0), model.V(1, 0, 1))
			b := static("ai_0", model.Vec3{})
			assert.False(t, r.ResolvePair(a, b))
			assert.Equal(t, model.V(tt.dist, 0, 0), a.pos)
			assert.Equal(t, model.V(1, 0, 1), *a.vel)
			assert.False(t, math.IsNaN(a.pos.X))
		})
	}
}

func TestResolveBoundary(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		name     string
		pos, vel model.Vec3
		wantPos  model.Vec3
		wantVel  model.Vec3
		want     bool
	}{
		{
			name: "inside", pos: model.V(10, 0, 10), vel: model.V(5, 0, 5),
			wantPos: model.V(10, 0, 10), wantVel: model.V(5, 0, 5), want: false,
		},
		{
			name: "beyond maxX", pos: model.V(52, 0, 0), vel: model.V(5, 0, 1),
			wantPos: model.V(50, 0, 0), wantVel: model.V(-5*0.8*0.9, 0, 0.9), want: true,
		},
		{
			name: "beyond minX moving inwards already", pos: model.V(-51, 0, 0), vel: model.V(2, 0, 0),
			wantPos: model.V(-50, 0, 0), wantVel: model.V(2*0.8*0.9, 0, 0), want: true,
		},
		{
			name: "corner", pos: model.V(-60, 0, 70), vel: model.V(-10, 0, 10),
			wantPos: model.V(-50, 0, 50), wantVel: model.V(10*0.8*0.9, 0, -10*0.8*0.9), want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, vel := tt.pos, tt.vel
			assert.Equal(t, tt.want, r.ResolveBoundary(&pos, &vel))
			assert.Equal(t, tt.wantPos, pos)
			assert.InDelta(t, tt.wantVel.X, vel.X, 1e-12)
			assert.InDelta(t, tt.wantVel.Z, vel.Z, 1e-12)
		})
	}
}

func TestResolveBoundary_Containment(t *testing.T) {
	r := NewResolver()
	bounds := r.Params().Bounds
	for _, dir := range []model.Vec3{model.V(1, 0, 0), model.V(-1, 0, 0), model.V(0, 0, 1), model.V(-1, 0, -1), model.V(0.3, 0, -0.9)} {
		pos := model.Vec3{}
		vel := model.Vec3{}
		for tick := 0; tick < 2000; tick++ {
			// sustained outward thrust
			vel = vel.Add(dir.Scale(2))
			pos = pos.Add(vel.Scale(0.016))
			r.ResolveBoundary(&pos, &vel)
			require.True(t, bounds.Contains(pos), "tick %d pos %+v", tick, pos)
		}
	}
}

func TestResolveAll(t *testing.T) {
	r := NewResolver()
	player := kinetic("player", model.V(55, 0, 0), model.V(1, 0, 0))
	ai0 := static("ai_0", model.V(49.5, 0, 0))
	ai1 := static("ai_1", model.V(-10, 0, -10))
	ai2 := static("ai_2", model.V(-10.4, 0, -10))

	pairs := r.ResolveAll(player, []Body{ai0, ai1, ai2, nil})
	require.Len(t, pairs, 1)
	assert.Equal(t, "ai_1", pairs[0].A.ID())
	assert.Equal(t, "ai_2", pairs[0].B.ID())
	assert.False(t, pairs[0].Involves("player"))
	assert.InDelta(t, -10.2, pairs[0].Midpoint().X, 1e-12)

	// player was clamped, ai are not bounds checked
	assert.Equal(t, 50.0, player.pos.X)
	ai3 := static("ai_3", model.V(80, 0, 0))
	assert.Empty(t, r.ResolveAll(player, []Body{ai3}))
	assert.Equal(t, 80.0, ai3.pos.X)

	assert.Empty(t, r.ResolveAll(nil, nil))
}

func TestResolveAll_PlayerFirst(t *testing.T) {
	r := NewResolver()
	player := kinetic("player", model.V(0, 0, 0.5), model.V(0, 0, 2))
	ai := static("ai_0", model.Vec3{})
	pairs := r.ResolveAll(player, []Body{ai})
	require.Len(t, pairs, 1)
	assert.True(t, pairs[0].Involves("player"))
	assert.Equal(t, "player", pairs[0].A.ID())
	assert.InDelta(t, (2+2)*0.8, player.vel.Z, 1e-12)
}
