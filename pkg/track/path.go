package track

import (
	"errors"
	"math"
	"sort"

	"github.com/mpapenbr/snailrace/pkg/model"
)

const (
	// DefaultDivisions is the number of samples used for the arc length table
	DefaultDivisions = 200
	// TangentEpsilon is the progress offset used for finite difference tangents
	TangentEpsilon = 0.01

	minSegmentLen = 1e-4
)

var ErrTooFewPoints = errors.New("a track needs at least 4 distinct control points")

// Path is a closed centripetal Catmull-Rom curve through a set of control points.
// Queries take a progress value which is normalized by arc length, so equal steps
// of progress cover equal distances on the track.
// A Path is immutable after construction.
type Path struct {
	points    []model.Vec3
	divisions int
	arcLens   []float64    // cumulative length at t = i/divisions
	samples   []model.Vec3 // PointAt(i/divisions), used for Nearest
}

type PathOption func(p *Path)

func WithDivisions(n int) PathOption {
	return func(p *Path) {
		if n > 0 {
			p.divisions = n
		}
	}
}

// NewPath creates a closed path. A trailing control point equal to the first one
// is dropped since the curve closes itself.
func NewPath(points []model.Vec3, opts ...PathOption) (*Path, error) {
	work := make([]model.Vec3, len(points))
	copy(work, points)
	if len(work) > 1 && work[0] == work[len(work)-1] {
		work = work[:len(work)-1]
	}
	if countDistinct(work) < 4 {
		return nil, ErrTooFewPoints
	}
	ret := &Path{points: work, divisions: DefaultDivisions}
	for _, opt := range opts {
		opt(ret)
	}
	ret.computeLengths()
	ret.samples = make([]model.Vec3, ret.divisions)
	for i := range ret.samples {
		ret.samples[i] = ret.PointAt(float64(i) / float64(ret.divisions))
	}
	return ret, nil
}

// MustPath is NewPath for well known point sets. Panics on error.
func MustPath(points []model.Vec3, opts ...PathOption) *Path {
	p, err := NewPath(points, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func countDistinct(points []model.Vec3) int {
	seen := map[model.Vec3]struct{}{}
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Length is the (approximated) total arc length of the closed curve
func (p *Path) Length() float64 {
	return p.arcLens[len(p.arcLens)-1]
}

// ControlPoints returns a copy of the control points
func (p *Path) ControlPoints() []model.Vec3 {
	ret := make([]model.Vec3, len(p.points))
	copy(ret, p.points)
	return ret
}

// PointAt returns the point at progress u. u is taken modulo 1.
func (p *Path) PointAt(u float64) model.Vec3 {
	return p.pointAtT(p.uToT(Wrap(u)))
}

// TangentAt returns the unit direction of travel at progress u
func (p *Path) TangentAt(u float64) model.Vec3 {
	return p.PointAt(u + TangentEpsilon).Sub(p.PointAt(u)).Normalize()
}

// HeadingAt returns the heading angle in the x/z plane at progress u
func (p *Path) HeadingAt(u float64) float64 {
	a := p.PointAt(u)
	b := p.PointAt(u + TangentEpsilon)
	return math.Atan2(b.Z-a.Z, b.X-a.X)
}

// Nearest returns the progress of the sampled point closest to pos (planar)
func (p *Path) Nearest(pos model.Vec3) float64 {
	best := 0
	bestDist := math.MaxFloat64
	for i, s := range p.samples {
		if d := s.PlanarDist(pos); d < bestDist {
			best, bestDist = i, d
		}
	}
	return float64(best) / float64(p.divisions)
}

// Wrap maps u into [0,1)
func Wrap(u float64) float64 {
	ret := math.Mod(u, 1)
	if ret < 0 {
		ret += 1
	}
	if ret >= 1 {
		ret = 0
	}
	return ret
}

func (p *Path) computeLengths() {
	p.arcLens = make([]float64, p.divisions+1)
	last := p.pointAtT(0)
	sum := 0.0
	for i := 1; i <= p.divisions; i++ {
		cur := p.pointAtT(float64(i) / float64(p.divisions))
		sum += cur.Sub(last).Len()
		p.arcLens[i] = sum
		last = cur
	}
}

// uToT maps arc length progress u to the curve parameter t
func (p *Path) uToT(u float64) float64 {
	il := len(p.arcLens)
	target := u * p.Length()
	// first index with arcLens[i] > target
	i := sort.Search(il, func(i int) bool { return p.arcLens[i] > target }) - 1
	if i < 0 {
		i = 0
	}
	if i >= il-1 {
		return 1
	}
	before := p.arcLens[i]
	if before == target {
		return float64(i) / float64(il-1)
	}
	segLen := p.arcLens[i+1] - before
	frac := (target - before) / segLen
	return (float64(i) + frac) / float64(il-1)
}

// pointAtT evaluates the curve at the raw parameter t in [0,1]
func (p *Path) pointAtT(t float64) model.Vec3 {
	l := len(p.points)
	pos := float64(l) * t
	idx := int(math.Floor(pos))
	weight := pos - float64(idx)
	if idx >= l {
		idx = l - 1
		weight = 1
	}
	idx = ((idx % l) + l) % l

	p0 := p.points[(idx-1+l)%l]
	p1 := p.points[idx]
	p2 := p.points[(idx+1)%l]
	p3 := p.points[(idx+2)%l]

	// centripetal: knot spacing is the square root of the chord length
	dt0 := math.Pow(p0.DistSq(p1), 0.25)
	dt1 := math.Pow(p1.DistSq(p2), 0.25)
	dt2 := math.Pow(p2.DistSq(p3), 0.25)
	if dt1 < minSegmentLen {
		dt1 = 1.0
	}
	if dt0 < minSegmentLen {
		dt0 = dt1
	}
	if dt2 < minSegmentLen {
		dt2 = dt1
	}
	return model.Vec3{
		X: nonUniform(p0.X, p1.X, p2.X, p3.X, dt0, dt1, dt2).at(weight),
		Y: nonUniform(p0.Y, p1.Y, p2.Y, p3.Y, dt0, dt1, dt2).at(weight),
		Z: nonUniform(p0.Z, p1.Z, p2.Z, p3.Z, dt0, dt1, dt2).at(weight),
	}
}

type cubic struct{ c0, c1, c2, c3 float64 }

func (c cubic) at(t float64) float64 {
	t2 := t * t
	return c.c0 + c.c1*t + c.c2*t2 + c.c3*t2*t
}

func hermite(x0, x1, t0, t1 float64) cubic {
	return cubic{
		c0: x0,
		c1: t0,
		c2: -3*x0 + 3*x1 - 2*t0 - t1,
		c3: 2*x0 - 2*x1 + t0 + t1,
	}
}

func nonUniform(x0, x1, x2, x3, dt0, dt1, dt2 float64) cubic {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	return hermite(x1, x2, t1*dt1, t2*dt1)
}
