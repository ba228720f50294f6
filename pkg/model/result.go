package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// RaceResult is the stored outcome of a finished race
type RaceResult struct {
	ID          uuid.UUID       `json:"id"`
	Track       string          `json:"track"`
	Character   string          `json:"character"`
	Laps        int             `json:"laps"`
	Seed        uint64          `json:"seed"`
	PlayerPlace int             `json:"playerPlace"`
	RaceTime    decimal.Decimal `json:"raceTime"` // seconds
	FinishOrder []string        `json:"finishOrder"`
	RecordStamp time.Time       `json:"recordStamp"`
}

// RaceTimeFromDuration converts a simulation time to seconds with ms precision
func RaceTimeFromDuration(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Milliseconds()).Shift(-3)
}
