package model

import (
	"fmt"
	"time"
)

// Phase of a race session
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCountdown
	PhaseRacing
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhaseCountdown:
		return "Countdown"
	case PhaseRacing:
		return "Racing"
	case PhaseFinished:
		return "Finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// RacerSnapshot is the read-only projection of a racer used for rendering
type RacerSnapshot struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Position Vec3    `json:"position"`
	Heading  float64 `json:"heading"`
	Lap      int     `json:"lap"`
	Finished bool    `json:"finished"`
	Speed    float64 `json:"speed"`
	Progress float64 `json:"progress"`
	Color    Color   `json:"color"`
}

// RaceSnapshot is a value copy of the race at a given simulation time
type RaceSnapshot struct {
	Phase       Phase           `json:"phase"`
	Countdown   int             `json:"countdown"`
	SimTime     time.Duration   `json:"simTime"`
	Racers      []RacerSnapshot `json:"racers"`
	FinishOrder []string        `json:"finishOrder"`
	PlayerPlace int             `json:"playerPlace,omitempty"`
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th, 11th, 21st, ...
func Ordinal(n int) string {
	suffix := "th"
	switch v := n % 100; {
	case v >= 11 && v <= 13:
	case v%10 == 1:
		suffix = "st"
	case v%10 == 2:
		suffix = "nd"
	case v%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
