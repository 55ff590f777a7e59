// Package schedule compiles booked jobs into per-truck busy intervals and
// answers availability questions during a search.
package schedule

import (
	"sort"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// Busy is one interval a truck is committed to.
type Busy struct {
	model.Interval
	JobID int64
	// From is where the truck starts the interval, To where it ends it.
	From model.LatLon
	To   model.LatLon
}

// Stop is the last known end point of a truck on a day.
type Stop struct {
	End      time.Time
	Location model.LatLon
}

// Index is a read-only snapshot of the booked schedule. A search builds one
// and holds it for its whole duration; commits never mutate it.
type Index struct {
	busy   map[int64][]Busy
	last   map[int64]map[string]Stop
	active map[string]int
	crane  map[string]map[int64]bool
}

// Build compiles the Scheduled jobs among jobs.
func Build(jobs []model.Job) *Index {
	ix := &Index{
		busy:   map[int64][]Busy{},
		last:   map[int64]map[string]Stop{},
		active: map[string]int{},
		crane:  map[string]map[int64]bool{},
	}
	for _, j := range jobs {
		if j.Status != model.StatusScheduled || j.Start.IsZero() {
			continue
		}
		ix.add(j)
	}
	for id := range ix.busy {
		b := ix.busy[id]
		sort.Slice(b, func(i, j int) bool { return b[i].Start.Before(b[j].Start) })
	}
	return ix
}

func (ix *Index) add(j model.Job) {
	day := model.DayKey(j.Start)
	ix.active[day]++
	ix.insert(j.HaulerTruckID, day, Busy{
		Interval: model.Interval{Start: model.UTC(j.Start), End: model.UTC(j.End)},
		JobID:    j.ID,
		From:     j.Pickup.Location,
		To:       j.Dropoff.Location,
	})
	if j.HasCrane() {
		ramp := j.RampLocation()
		ix.insert(j.CraneTruckID, day, Busy{
			Interval: model.Interval{Start: model.UTC(j.Start), End: model.UTC(j.CraneBusyEnd)},
			JobID:    j.ID,
			From:     ramp,
			To:       ramp,
		})
		if ix.crane[day] == nil {
			ix.crane[day] = map[int64]bool{}
		}
		ix.crane[day][j.RampID()] = true
	}
}

func (ix *Index) insert(truckID int64, day string, b Busy) {
	ix.busy[truckID] = append(ix.busy[truckID], b)
	if ix.last[truckID] == nil {
		ix.last[truckID] = map[string]Stop{}
	}
	if cur, ok := ix.last[truckID][day]; !ok || b.End.After(cur.End) {
		ix.last[truckID][day] = Stop{End: b.End, Location: b.To}
	}
}

// Available reports whether the truck is free over [start, end]. Intervals
// that only touch the candidate do not conflict.
func (ix *Index) Available(truckID int64, start, end time.Time) bool {
	for _, b := range ix.busy[truckID] {
		if b.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// Intervals returns the sorted busy intervals of the truck.
func (ix *Index) Intervals(truckID int64) []Busy { return ix.busy[truckID] }

// LastStop returns where the truck ends its latest interval on day.
func (ix *Index) LastStop(truckID int64, day time.Time) (Stop, bool) {
	s, ok := ix.last[truckID][model.DayKey(day)]
	return s, ok
}

// Previous returns the latest interval of the truck on the same day that
// ends at or before t.
func (ix *Index) Previous(truckID int64, t time.Time) (Busy, bool) {
	key := model.DayKey(t)
	var (
		best  Busy
		found bool
	)
	for _, b := range ix.busy[truckID] {
		if model.DayKey(b.End) != key || b.End.After(t) {
			continue
		}
		if !found || b.End.After(best.End) {
			best, found = b, true
		}
	}
	return best, found
}

// Next returns the earliest interval of the truck on the same day that
// starts at or after t.
func (ix *Index) Next(truckID int64, t time.Time) (Busy, bool) {
	key := model.DayKey(t)
	for _, b := range ix.busy[truckID] {
		if model.DayKey(b.Start) == key && !b.Start.Before(t) {
			return b, true
		}
	}
	return Busy{}, false
}

// ActiveDays returns the days in [from, to] with at least one scheduled job,
// in ascending order.
func (ix *Index) ActiveDays(from, to time.Time) []time.Time {
	var out []time.Time
	for day := model.Day(from); !day.After(model.Day(to)); day = day.AddDate(0, 0, 1) {
		if ix.active[model.DayKey(day)] > 0 {
			out = append(out, day)
		}
	}
	return out
}

// JobsOn returns the number of scheduled jobs on day.
func (ix *Index) JobsOn(day time.Time) int { return ix.active[model.DayKey(day)] }

// CraneAt reports whether the crane is already booked at the ramp on day.
func (ix *Index) CraneAt(day time.Time, rampID int64) bool {
	return ix.crane[model.DayKey(day)][rampID]
}
