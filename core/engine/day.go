package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/schedule"
	"github.com/kilianp07/haulplan/core/tide"
	"github.com/kilianp07/haulplan/core/travel"
)

// search is the per-request state. It is used by a single goroutine.
type search struct {
	ctx    context.Context
	cfg    Config
	tides  tide.Provider
	boat   model.Boat
	ramp   model.Ramp
	svc    model.Service
	rule   BookingRule
	crane  *model.Truck
	trucks []model.Truck
	hours  schedule.Hours
	ix     *schedule.Index
	ideal  *tide.IdealDays
	target time.Time

	// same-service bookings of the boat; days inside their window are skipped
	booked   []model.Job
	override bool

	pickup  model.Stop
	dropoff model.Stop

	events     map[string][]model.TideEvent
	tideMisses []string

	// outcome accounting for the final reason
	examined    int
	conflictDay int
	fitted      bool
	onDuty      bool
	longest     time.Duration
}

// conflicts reports whether a booking on day would fall inside the
// same-service window of an existing job of the boat.
func (s *search) conflicts(day time.Time) bool {
	if s.override {
		return false
	}
	if findConflict(s.boat.ID, s.svc, day, s.booked, s.cfg.ConflictDays, 0) == nil {
		return false
	}
	s.conflictDay++
	return true
}

// dayTides returns the tide events of the ramp station on day, memoised per request.
func (s *search) dayTides(day time.Time) ([]model.TideEvent, error) {
	key := model.DayKey(day)
	if evs, ok := s.events[key]; ok {
		return evs, nil
	}
	if s.ramp.StationID == "" {
		return nil, nil
	}
	daily, err := s.tides.Tides(s.ctx, s.ramp.StationID, day, day)
	if err != nil {
		s.events[key] = nil
		s.tideMisses = append(s.tideMisses, key)
		return nil, fmt.Errorf("tides %s %s: %w", s.ramp.StationID, key, err)
	}
	evs := daily.On(day)
	s.events[key] = evs
	return evs, nil
}

// windows returns the usable intervals of day and its high tides.
func (s *search) windows(day time.Time) ([]model.Interval, []time.Time) {
	day = model.Day(day)
	if !s.svc.UsesRamp() {
		return []model.Interval{{Start: day, End: day.Add(24 * time.Hour)}}, nil
	}
	evs, _ := s.dayTides(day)
	return tide.Windows(s.ramp.Rule, s.boat.DraftFt, day, evs), tide.HighTides(day, evs)
}

// findOnDay returns the first feasible slot on day.
func (s *search) findOnDay(day time.Time) (model.Slot, bool) {
	day = model.Day(day)
	s.examined++
	windows, highs := s.windows(day)
	if l := tide.Longest(windows); l > s.longest {
		s.longest = l
	}
	plan := s.cfg.planFor(day, s.boat.IsECM)
	edge := model.At(day, plan.edge)
	tick := s.cfg.Tick()

	ordered := windows
	if !plan.forward {
		ordered = make([]model.Interval, len(windows))
		for i, w := range windows {
			ordered[len(windows)-1-i] = w
		}
	}

	for _, truck := range s.trucks {
		shift, ok := s.hours.ShiftOn(truck.ID, day)
		if !ok {
			continue
		}
		s.onDuty = true
		for _, w := range ordered {
			lo := latest(w.Start, shift.Start)
			hi := earliest(w.End, shift.End).Add(-s.rule.Hauler)
			if hi.Before(lo) {
				continue
			}
			if plan.forward {
				lo = latest(lo, edge)
			} else {
				hi = earliest(hi, edge)
			}
			if hi.Before(lo) {
				continue
			}
			s.fitted = true
			if plan.forward {
				for start := lo; !start.After(hi); start = start.Add(tick) {
					if slot, ok := s.try(truck, start, day, highs); ok {
						return slot, true
					}
				}
			} else {
				for start := hi; !start.Before(lo); start = start.Add(-tick) {
					if slot, ok := s.try(truck, start, day, highs); ok {
						return slot, true
					}
				}
			}
		}
	}
	return model.Slot{}, false
}

// try checks one candidate start for the hauler and, when needed, the crane.
func (s *search) try(truck model.Truck, start, day time.Time, highs []time.Time) (model.Slot, bool) {
	end := start.Add(s.rule.Hauler)
	if !s.hours.OnDuty(truck.ID, start, end) || !s.ix.Available(truck.ID, start, end) {
		return model.Slot{}, false
	}
	if !s.reachable(truck.ID, start, end, s.pickup.Location, s.dropoff.Location) {
		return model.Slot{}, false
	}
	slot := model.Slot{
		Date:      day,
		Start:     start,
		TruckID:   truck.ID,
		TruckName: truck.Name,
		RampID:    s.ramp.ID,
		Service:   s.svc,
		HaulerEnd: end,
		TideRule:  s.tideRule(),
		HighTides: highs,
		Score:     score(s.target, day),
	}
	if s.crane != nil {
		craneEnd := start.Add(s.rule.Crane)
		if !s.hours.OnDuty(s.crane.ID, start, craneEnd) || !s.ix.Available(s.crane.ID, start, craneEnd) {
			return model.Slot{}, false
		}
		if !s.reachable(s.crane.ID, start, craneEnd, s.ramp.Location, s.ramp.Location) {
			return model.Slot{}, false
		}
		slot.NeedsCrane = true
		slot.CraneTruckID = s.crane.ID
		slot.CraneEnd = craneEnd
	}
	return slot, true
}

// reachable checks the truck can drive from its previous stop and on to its next one.
func (s *search) reachable(truckID int64, start, end time.Time, from, to model.LatLon) bool {
	if prev, ok := s.ix.Previous(truckID, start); ok {
		if prev.End.Add(travel.Estimate(prev.To, from)).After(start) {
			return false
		}
	}
	if next, ok := s.ix.Next(truckID, end); ok {
		if end.Add(travel.Estimate(to, next.From)).After(next.Start) {
			return false
		}
	}
	return true
}

func (s *search) tideRule() string {
	if !s.svc.UsesRamp() {
		return "n/a"
	}
	return s.ramp.Rule.String()
}

// score rates proximity to the requested date.
func score(target, day time.Time) float64 {
	return 100 - 10*float64(absInt(model.DaysBetween(target, day)))
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
