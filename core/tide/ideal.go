package tide

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/haulplan/core/logger"
	"github.com/kilianp07/haulplan/core/model"
)

// The crane works best when high tide falls within [IdealFrom, IdealTo).
const (
	IdealFrom = 10 * time.Hour
	IdealTo   = 14 * time.Hour
)

// Season is an inclusive month range. Last before First wraps the new year.
type Season struct {
	First time.Month `json:"first"`
	Last  time.Month `json:"last"`
}

// DefaultSeason is April through October.
var DefaultSeason = Season{First: time.April, Last: time.October}

// Contains reports whether month m is in the season.
func (s Season) Contains(m time.Month) bool {
	if s.First <= s.Last {
		return m >= s.First && m <= s.Last
	}
	return m >= s.First || m <= s.Last
}

// Range returns the first and last day of the season starting in year.
func (s Season) Range(year int) (time.Time, time.Time) {
	from := time.Date(year, s.First, 1, 0, 0, 0, 0, time.UTC)
	endYear := year
	if s.Last < s.First {
		endYear++
	}
	to := time.Date(endYear, s.Last+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return from, to
}

// IsIdeal reports whether a high tide of day falls within the crane window.
func IsIdeal(day time.Time, events []model.TideEvent) bool {
	lo := model.At(day, IdealFrom)
	hi := model.At(day, IdealTo)
	for _, ht := range HighTides(day, events) {
		if !ht.Before(lo) && ht.Before(hi) {
			return true
		}
	}
	return false
}

// IdealDays is the precomputed set of (ramp, day) pairs with a midday high
// tide. It is rebuilt at startup and on season change, and read concurrently
// by searches.
type IdealDays struct {
	mu      sync.RWMutex
	byRamp  map[int64]map[string]struct{}
	missing map[int64]struct{}
	year    int
}

// NewIdealDays returns an empty set.
func NewIdealDays() *IdealDays {
	return &IdealDays{byRamp: map[int64]map[string]struct{}{}, missing: map[int64]struct{}{}}
}

// Compute replaces the set with the ideal days of year for every ramp that
// accepts a sailboat. Predictions are fetched once per station. Ramps without
// a station have no ideal day. A station whose fetch fails is logged and its
// ramps are left missing until the next Compute.
func (d *IdealDays) Compute(ctx context.Context, p Provider, ramps []model.Ramp, year int, season Season, log logger.Logger) error {
	if log == nil {
		log = logger.Nop{}
	}
	from, to := season.Range(year)
	byStation := map[string][]model.Ramp{}
	for _, r := range ramps {
		if r.AcceptsSailboats() && r.StationID != "" {
			byStation[r.StationID] = append(byStation[r.StationID], r)
		}
	}

	next := map[int64]map[string]struct{}{}
	missing := map[int64]struct{}{}
	for station, rs := range byStation {
		if err := ctx.Err(); err != nil {
			return err
		}
		daily, err := p.Tides(ctx, station, from, to)
		if err != nil {
			log.Warnf("ideal days: station %s: %v", station, err)
			for _, r := range rs {
				missing[r.ID] = struct{}{}
			}
			continue
		}
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if !IsIdeal(day, daily.On(day)) {
				continue
			}
			for _, r := range rs {
				if next[r.ID] == nil {
					next[r.ID] = map[string]struct{}{}
				}
				next[r.ID][model.DayKey(day)] = struct{}{}
			}
		}
	}
	for id, days := range next {
		log.Debugw("ideal days computed", map[string]any{"ramp_id": id, "days": len(days), "year": year})
	}

	d.mu.Lock()
	d.byRamp = next
	d.missing = missing
	d.year = year
	d.mu.Unlock()
	return nil
}

// Complete reports whether the last Compute got predictions for every station.
func (d *IdealDays) Complete() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.year != 0 && len(d.missing) == 0
}

// Missing reports whether the ramp's station failed during the last Compute.
func (d *IdealDays) Missing(rampID int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.missing[rampID]
	return ok
}

// Merge copies the days of prev for ramps still missing in d, so a failed
// refresh does not drop days an earlier Compute found.
func (d *IdealDays) Merge(prev *IdealDays) {
	if prev == nil || prev == d {
		return
	}
	prev.mu.RLock()
	defer prev.mu.RUnlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.missing {
		if _, gone := prev.missing[id]; gone {
			continue
		}
		days := make(map[string]struct{}, len(prev.byRamp[id]))
		for k := range prev.byRamp[id] {
			days[k] = struct{}{}
		}
		d.byRamp[id] = days
	}
}

// Add marks day as ideal for the ramp.
func (d *IdealDays) Add(rampID int64, day time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.byRamp[rampID] == nil {
		d.byRamp[rampID] = map[string]struct{}{}
	}
	d.byRamp[rampID][model.DayKey(day)] = struct{}{}
}

// Contains reports whether day is ideal for the ramp.
func (d *IdealDays) Contains(rampID int64, day time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byRamp[rampID][model.DayKey(day)]
	return ok
}

// From returns up to n ideal days of the ramp on or after from, ascending.
func (d *IdealDays) From(rampID int64, from time.Time, n int) []time.Time {
	d.mu.RLock()
	keys := make([]string, 0, len(d.byRamp[rampID]))
	for k := range d.byRamp[rampID] {
		keys = append(keys, k)
	}
	d.mu.RUnlock()

	sort.Strings(keys)
	start := model.DayKey(from)
	var out []time.Time
	for _, k := range keys {
		if k < start {
			continue
		}
		if len(out) == n {
			break
		}
		day, err := model.ParseDay(k)
		if err != nil {
			continue
		}
		out = append(out, day)
	}
	return out
}

// Count returns the number of ideal days stored for the ramp.
func (d *IdealDays) Count(rampID int64) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byRamp[rampID])
}

// Year returns the season year of the last Compute.
func (d *IdealDays) Year() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.year
}
