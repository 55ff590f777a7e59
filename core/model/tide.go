package model

import "time"

// TideType represents whether a tide is high or low.
type TideType string

const (
	TideHigh TideType = "H"
	TideLow  TideType = "L"
)

// TideEvent is a single predicted high or low tide. Time carries the station
// wall clock stamped as UTC.
type TideEvent struct {
	Station string    `json:"station"`
	Time    time.Time `json:"time"`
	Type    TideType  `json:"type"`
	Height  float64   `json:"height"` // feet relative to MLLW
}
