package engine

import (
	"fmt"
	"time"

	"github.com/kilianp07/haulplan/core/tide"
)

// Config defines slot engine settings.
type Config struct {
	CraneTruckName   string `json:"crane_truck_name"`
	Suggestions      int    `json:"suggestions"`
	PiggybackDays    int    `json:"piggyback_days"`
	FallbackDays     int    `json:"fallback_days"`
	TickMinutes      int    `json:"tick_minutes"`
	ConflictDays     int    `json:"conflict_days"`
	SeasonFirstMonth int    `json:"season_first_month"`
	SeasonLastMonth  int    `json:"season_last_month"`
	LaunchFirstMonth int    `json:"launch_first_month"`
	LaunchLastMonth  int    `json:"launch_last_month"`
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.CraneTruckName == "" {
		c.CraneTruckName = "S17"
	}
	if c.Suggestions <= 0 {
		c.Suggestions = 3
	}
	if c.PiggybackDays <= 0 {
		c.PiggybackDays = 7
	}
	if c.FallbackDays <= 0 {
		c.FallbackDays = 14
	}
	if c.TickMinutes <= 0 {
		c.TickMinutes = 15
	}
	if c.ConflictDays <= 0 {
		c.ConflictDays = ConflictWindowDays
	}
	if c.SeasonFirstMonth == 0 {
		c.SeasonFirstMonth = int(time.April)
	}
	if c.SeasonLastMonth == 0 {
		c.SeasonLastMonth = int(time.October)
	}
	if c.LaunchFirstMonth == 0 {
		c.LaunchFirstMonth = int(time.April)
	}
	if c.LaunchLastMonth == 0 {
		c.LaunchLastMonth = int(time.July)
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.CraneTruckName == "" {
		return fmt.Errorf("engine: crane_truck_name is required")
	}
	if c.Suggestions < 1 {
		return fmt.Errorf("engine: suggestions must be >= 1")
	}
	if c.FallbackDays < 1 {
		return fmt.Errorf("engine: fallback_days must be >= 1")
	}
	if c.TickMinutes < 1 || c.TickMinutes > 60 {
		return fmt.Errorf("engine: tick_minutes must be within 1..60")
	}
	for name, m := range map[string]int{
		"season_first_month": c.SeasonFirstMonth,
		"season_last_month":  c.SeasonLastMonth,
		"launch_first_month": c.LaunchFirstMonth,
		"launch_last_month":  c.LaunchLastMonth,
	} {
		if m < 1 || m > 12 {
			return fmt.Errorf("engine: %s %d out of range 1..12", name, m)
		}
	}
	return nil
}

// Tick returns the candidate start step.
func (c Config) Tick() time.Duration { return time.Duration(c.TickMinutes) * time.Minute }

// Season returns the months over which ideal days are computed.
func (c Config) Season() tide.Season {
	return tide.Season{First: time.Month(c.SeasonFirstMonth), Last: time.Month(c.SeasonLastMonth)}
}

// LaunchSeason returns the months during which days are walked forward.
func (c Config) LaunchSeason() tide.Season {
	return tide.Season{First: time.Month(c.LaunchFirstMonth), Last: time.Month(c.LaunchLastMonth)}
}
