// Package simulator replays a synthetic stream of slot requests against the
// engine and reports how densely the resulting schedule packs trucks.
package simulator

import (
	"fmt"
	"time"

	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/model"
)

// Config holds parameters for a simulation run.
type Config struct {
	Requests int   `json:"requests"`
	Seed     int64 `json:"seed"`
	Year     int   `json:"year"`
	// Boats is the size of the generated fleet; zero means one boat per request.
	Boats int `json:"boats"`
	// SailShare is the fraction of generated boats that are sailboats.
	SailShare float64 `json:"sail_share"`
	// BusyShare is the fraction of requests dated inside the busy week.
	BusyShare float64 `json:"busy_share"`
	// BusyWeek is the first day of the busy week (YYYY-MM-DD). Empty picks
	// the first Monday of May for launches and of October for hauls.
	BusyWeek string        `json:"busy_week"`
	Service  model.Service `json:"service"`
	// FleetFile loads trucks, ramps and boats from a fixture instead of
	// generating them.
	FleetFile string        `json:"fleet_file"`
	Engine    engine.Config `json:"engine"`
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Requests <= 0 {
		c.Requests = 100
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Year == 0 {
		c.Year = time.Now().UTC().Year()
	}
	if c.Boats <= 0 {
		c.Boats = c.Requests
	}
	if c.SailShare == 0 {
		c.SailShare = 0.3
	}
	if c.BusyShare == 0 {
		c.BusyShare = 0.5
	}
	if c.Service == "" {
		c.Service = model.Launch
	}
	c.Engine.SetDefaults()
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.SailShare < 0 || c.SailShare > 1 {
		return fmt.Errorf("sail_share must be within [0,1], got %g", c.SailShare)
	}
	if c.BusyShare < 0 || c.BusyShare > 1 {
		return fmt.Errorf("busy_share must be within [0,1], got %g", c.BusyShare)
	}
	if _, err := model.ParseService(string(c.Service)); err != nil {
		return err
	}
	if c.BusyWeek != "" {
		if _, err := model.ParseDay(c.BusyWeek); err != nil {
			return fmt.Errorf("busy_week: %w", err)
		}
	}
	return c.Engine.Validate()
}

// window returns the request date range and the busy week start.
func (c Config) window() (from, to, busy time.Time) {
	first, last := time.April, time.June
	busyMonth := time.May
	if c.Service == model.Haul {
		first, last = time.September, time.October
		busyMonth = time.October
	}
	from = time.Date(c.Year, first, 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(c.Year, last+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	if c.BusyWeek != "" {
		busy, _ = model.ParseDay(c.BusyWeek)
		return from, to, busy
	}
	busy = time.Date(c.Year, busyMonth, 1, 0, 0, 0, 0, time.UTC)
	for busy.Weekday() != time.Monday {
		busy = busy.AddDate(0, 0, 1)
	}
	return from, to, busy
}
