package model

// Gate is a checkpoint crossed by proximity
type Gate struct {
	Name     string  `json:"name"`
	Position Vec3    `json:"position"`
	Width    float64 `json:"width"`
}

// Passed reports whether pos is within half the gate width (planar distance)
func (g Gate) Passed(pos Vec3) bool {
	return pos.PlanarDist(g.Position) < g.Width/2
}

// Bounds is the axis aligned world rectangle in the x/z plane
type Bounds struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MinZ float64 `json:"minZ" yaml:"minZ"`
	MaxZ float64 `json:"maxZ" yaml:"maxZ"`
}

func (b Bounds) Contains(pos Vec3) bool {
	return pos.X >= b.MinX && pos.X <= b.MaxX && pos.Z >= b.MinZ && pos.Z <= b.MaxZ
}
