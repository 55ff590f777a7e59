package model

import "time"

// SearchPhase tells which phase of the search produced a slot.
type SearchPhase string

const (
	PhasePiggyback SearchPhase = "piggyback"
	PhaseFallback  SearchPhase = "fallback"
)

// Slot is a schedulable proposal produced by the engine. It is never stored.
type Slot struct {
	Date         time.Time   `json:"date"`
	Start        time.Time   `json:"start"`
	TruckID      int64       `json:"truck_id"`
	TruckName    string      `json:"truck_name"`
	CraneTruckID int64       `json:"crane_truck_id,omitempty"`
	RampID       int64       `json:"ramp_id"`
	Service      Service     `json:"service"`
	NeedsCrane   bool        `json:"needs_crane"`
	HaulerEnd    time.Time   `json:"hauler_end"`
	CraneEnd     time.Time   `json:"crane_end,omitempty"`
	TideRule     string      `json:"tide_rule"`
	HighTides    []time.Time `json:"high_tides,omitempty"`
	Score        float64     `json:"score"`
	Phase        SearchPhase `json:"phase"`
}
