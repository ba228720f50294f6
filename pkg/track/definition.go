package track

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/snailrace/pkg/model"
)

//go:embed default.yml
var defaultDefinition []byte

type (
	GateDef struct {
		X     float64 `yaml:"x"`
		Z     float64 `yaml:"z"`
		Width float64 `yaml:"width"`
	}
	StartDef struct {
		X       float64 `yaml:"x"`
		Z       float64 `yaml:"z"`
		Heading float64 `yaml:"heading"`
	}
	GridDef struct {
		X       float64 `yaml:"x"`
		Y       float64 `yaml:"y"`
		Z       float64 `yaml:"z"`
		Spacing float64 `yaml:"spacing"`
	}
	// Definition is the file representation of a track
	Definition struct {
		Name    string       `yaml:"name"`
		Width   float64      `yaml:"width"`
		Laps    int          `yaml:"laps"`
		Points  [][2]float64 `yaml:"points"` // x,z pairs
		Start   GateDef      `yaml:"start"`
		Halfway GateDef      `yaml:"halfway"`
		Player  StartDef     `yaml:"player"`
		Grid    GridDef      `yaml:"grid"`
		Bounds  model.Bounds `yaml:"bounds"`
	}
)

// Track is the runtime representation of a Definition
type Track struct {
	Name          string
	Width         float64
	Laps          int
	Path          *Path
	Start         model.Gate
	Halfway       model.Gate
	PlayerStart   model.Vec3
	PlayerHeading float64
	Grid          GridDef
	Bounds        model.Bounds
}

func DefaultDefinition() *Definition {
	def, err := ParseDefinition(defaultDefinition)
	if err != nil {
		panic(err)
	}
	return def
}

// Default returns the built in track
func Default() *Track {
	t, err := DefaultDefinition().Build()
	if err != nil {
		panic(err)
	}
	return t
}

func LoadDefinition(fn string) (*Definition, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}
	return ParseDefinition(data)
}

func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse track definition: %w", err)
	}
	return &def, nil
}

func (d *Definition) Build(opts ...PathOption) (*Track, error) {
	points := make([]model.Vec3, len(d.Points))
	for i, p := range d.Points {
		points[i] = model.Vec3{X: p[0], Z: p[1]}
	}
	path, err := NewPath(points, opts...)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", d.Name, err)
	}
	laps := d.Laps
	if laps <= 0 {
		laps = 2
	}
	bounds := d.Bounds
	if bounds == (model.Bounds{}) {
		bounds = model.Bounds{MinX: -50, MaxX: 50, MinZ: -50, MaxZ: 50}
	}
	return &Track{
		Name:          d.Name,
		Width:         d.Width,
		Laps:          laps,
		Path:          path,
		Start:         model.Gate{Name: "start", Position: model.V(d.Start.X, 0, d.Start.Z), Width: d.Start.Width},
		Halfway:       model.Gate{Name: "halfway", Position: model.V(d.Halfway.X, 0, d.Halfway.Z), Width: d.Halfway.Width},
		PlayerStart:   model.V(d.Player.X, 0, d.Player.Z),
		PlayerHeading: d.Player.Heading,
		Grid:          d.Grid,
		Bounds:        bounds,
	}, nil
}

// GridPosition returns the start position of the AI racer with index idx
func (t *Track) GridPosition(idx int) model.Vec3 {
	return model.V(t.Grid.X+float64(idx+1)*t.Grid.Spacing, t.Grid.Y, t.Grid.Z)
}
