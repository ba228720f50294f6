package model

import "math"

// Vec3 is a point or direction in world space. Racing happens in the x/z plane,
// y is height.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PlanarLen is the length of the x/z projection
func (v Vec3) PlanarLen() float64 {
	return math.Hypot(v.X, v.Z)
}

func (v Vec3) PlanarDist(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

func (v Vec3) DistSq(o Vec3) float64 {
	d := v.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// Normalize returns the unit vector. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Lerp moves v towards o by fraction f (0 keeps v, 1 yields o)
func (v Vec3) Lerp(o Vec3, f float64) Vec3 {
	return Vec3{
		v.X + (o.X-v.X)*f,
		v.Y + (o.Y-v.Y)*f,
		v.Z + (o.Z-v.Z)*f,
	}
}

// Forward returns the unit direction for heading h in the x/z plane
func Forward(h float64) Vec3 {
	return Vec3{X: math.Cos(h), Z: math.Sin(h)}
}

// Perpendicular returns the unit vector left of heading h in the x/z plane
func Perpendicular(h float64) Vec3 {
	return Vec3{X: -math.Sin(h), Z: math.Cos(h)}
}
