package model

import (
	"sort"
	"strings"
)

// Character holds the multipliers of a selectable snail.
// Acceleration is carried for completeness, the motion integrator only uses it
// when explicitly enabled.
type Character struct {
	Name         string  `json:"name"         yaml:"name"`
	Description  string  `json:"description"  yaml:"description"`
	Speed        float64 `json:"speed"        yaml:"speed"`
	Acceleration float64 `json:"acceleration" yaml:"acceleration"`
	Handling     float64 `json:"handling"     yaml:"handling"`
	Color        Color   `json:"color"        yaml:"color"`
}

// Neutral is used whenever no (or an unknown) character is configured
var Neutral = Character{
	Name:         "Neutral",
	Speed:        1.0,
	Acceleration: 1.0,
	Handling:     1.0,
	Color:        0xFFFFFF,
}

var roster = map[string]Character{
	"slick": {
		Name:         "Slick",
		Description:  "He was a sprinter before he got SNAILED",
		Speed:        1.2,
		Acceleration: 1.1,
		Handling:     1.3,
		Color:        0x32CD32,
	},
	"wally": {
		Name:         "Wally",
		Description:  "He's been eating a lot of grass",
		Speed:        1.0,
		Acceleration: 0.7,
		Handling:     0.9,
		Color:        0x8B4513,
	},
	"baphomet": {
		Name:         "Baphomet",
		Description:  "He was SNAILED as a punishment for evil doing",
		Speed:        1.5,
		Acceleration: 1.0,
		Handling:     1.0,
		Color:        0x4169E1,
	},
}

// LookupCharacter resolves a character by name (case insensitive).
// The second return value is false if the neutral fallback was used.
func LookupCharacter(name string) (Character, bool) {
	c, ok := roster[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Neutral, false
	}
	return c, true
}

// Characters returns the roster sorted by name
func Characters() []Character {
	ret := make([]Character, 0, len(roster))
	for _, c := range roster {
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// Sanitized replaces non-positive multipliers by the neutral value
func (c Character) Sanitized() Character {
	fix := func(v float64) float64 {
		if v <= 0 {
			return 1.0
		}
		return v
	}
	c.Speed = fix(c.Speed)
	c.Acceleration = fix(c.Acceleration)
	c.Handling = fix(c.Handling)
	return c
}
