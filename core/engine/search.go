package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/schedule"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
)

// Request asks for hauling slots for one boat.
type Request struct {
	CustomerID      int64         `json:"customer_id"`
	BoatID          int64         `json:"boat_id"`
	Service         model.Service `json:"service"`
	RequestedDate   time.Time     `json:"requested_date"`
	RampID          int64         `json:"ramp_id"`
	Suggestions     int           `json:"suggestions"`
	ManagerOverride bool          `json:"manager_override"`
	PreferredTruck  string        `json:"preferred_truck,omitempty"`
	ForcePreferred  bool          `json:"force_preferred,omitempty"`
}

// Result is the outcome of a slot search. Slots are in production order:
// nearest active day first for piggyback, ascending date for fallback.
type Result struct {
	RequestID   string           `json:"request_id"`
	Slots       []model.Slot     `json:"slots"`
	Message     string           `json:"message"`
	Warnings    []string         `json:"warnings,omitempty"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
	Forced      bool             `json:"forced"`
	Conflict    *ConflictWarning `json:"conflict,omitempty"`
	Reason      error            `json:"-"`
}

// FindSlots runs the conflict check and the two-phase search.
// Errors are returned only for invalid requests and storage failures; an
// unschedulable request yields an empty Result with diagnostics and a Reason.
func (e *Engine) FindSlots(ctx context.Context, req Request) (Result, error) {
	started := e.now()
	res := Result{RequestID: uuid.NewString()}
	if err := validate(req); err != nil {
		return res, err
	}
	target := model.Day(req.RequestedDate)
	n := req.Suggestions
	if n <= 0 {
		n = e.cfg.Suggestions
	}

	boat, err := e.repo.GetBoat(ctx, req.BoatID)
	if err != nil {
		return res, fmt.Errorf("boat %d: %w", req.BoatID, err)
	}
	if req.CustomerID != 0 && boat.CustomerID != req.CustomerID {
		return res, fmt.Errorf("%w: boat %d does not belong to customer %d", ErrInvalidRequest, boat.ID, req.CustomerID)
	}

	jobs, err := e.repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled})
	if err != nil {
		return res, fmt.Errorf("list jobs: %w", err)
	}
	if c := findConflict(boat.ID, req.Service, target, jobs, e.cfg.ConflictDays, 0); c != nil {
		cw := &ConflictWarning{Job: *c}
		if !req.ManagerOverride {
			res.Conflict = cw
			res.Reason = cw
			res.Message = "Conflict: " + cw.Error()
			e.finish(req, &res, started)
			return res, nil
		}
		res.Warnings = append(res.Warnings, "manager override: "+cw.Error())
	}

	s, err := e.prepare(ctx, req, boat, jobs, &res)
	if err != nil {
		return res, err
	}
	if s == nil {
		e.finish(req, &res, started)
		return res, nil
	}
	s.target = target
	s.override = req.ManagerOverride
	for _, j := range jobs {
		if j.BoatID == boat.ID && j.Service == req.Service {
			s.booked = append(s.booked, j)
		}
	}

	if s.crane != nil {
		if s.ideal, err = e.idealFor(ctx, target.Year()); err != nil {
			e.log.Warnf("ideal days unavailable: %v", err)
		}
		if s.ideal.Missing(s.ramp.ID) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("ideal crane days unavailable: no tides for station %s", s.ramp.StationID))
		}
	}

	res.Slots = e.piggyback(s, target, n)
	if len(res.Slots) == 0 {
		res.Forced = true
		res.Slots = e.fallback(s, target, n)
	}
	for i := range res.Slots {
		if res.Forced {
			res.Slots[i].Phase = model.PhaseFallback
		} else {
			res.Slots[i].Phase = model.PhasePiggyback
		}
	}
	if len(s.tideMisses) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("tide data unavailable for station %s on %s",
			s.ramp.StationID, strings.Join(s.tideMisses, ", ")))
	}

	switch {
	case len(res.Slots) > 0 && res.Forced:
		res.Message = fmt.Sprintf("Found %d slot(s) by searching ahead of %s", len(res.Slots), model.DayKey(target))
	case len(res.Slots) > 0:
		res.Message = fmt.Sprintf("Found %d slot(s) on days already in use", len(res.Slots))
	default:
		res.Reason = s.reason()
		res.Message = "No slots found: " + res.Reason.Error()
		res.Diagnostics = s.diagnose(target, res.Reason)
	}
	e.finish(req, &res, started)
	return res, nil
}

func validate(req Request) error {
	if req.BoatID == 0 {
		return fmt.Errorf("%w: boat id is required", ErrInvalidRequest)
	}
	if _, err := model.ParseService(string(req.Service)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.RequestedDate.IsZero() {
		return fmt.Errorf("%w: requested date is required", ErrInvalidRequest)
	}
	return nil
}

// prepare resolves ramp, trucks, crane and schedule. A nil search with a nil
// error means the request cannot be served and res already explains why.
func (e *Engine) prepare(ctx context.Context, req Request, boat model.Boat, jobs []model.Job, res *Result) (*search, error) {
	s := &search{
		ctx:    ctx,
		cfg:    e.cfg,
		tides:  e.tides,
		boat:   boat,
		svc:    req.Service,
		rule:   RuleFor(boat.Type),
		events: map[string][]model.TideEvent{},
	}

	if req.Service.UsesRamp() {
		rampID := req.RampID
		if rampID == 0 {
			rampID = boat.PreferredRampID
		}
		if rampID == 0 {
			return nil, fmt.Errorf("%w: ramp id is required for %s", ErrInvalidRequest, req.Service)
		}
		ramp, err := e.repo.GetRamp(ctx, rampID)
		if err != nil {
			return nil, fmt.Errorf("ramp %d: %w", rampID, err)
		}
		s.ramp = ramp
		if !ramp.Accepts(boat.Type) {
			ramps, err := e.repo.ListRamps(ctx)
			if err != nil {
				return nil, fmt.Errorf("list ramps: %w", err)
			}
			if !req.ManagerOverride && !containsRamp(EligibleRamps(boat, ramps), ramp.ID) {
				res.Reason = ErrRampNotAllowed
				res.Message = fmt.Sprintf("No slots found: %s does not accept %s", ramp.Name, boat.Type)
				return nil, nil
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s does not list %s; proceeding as manual override", ramp.Name, boat.Type))
		}
	}
	s.pickup, s.dropoff = route(boat, s.ramp, req.Service)

	all, err := e.repo.ListTrucks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trucks: %w", err)
	}
	preferred := req.PreferredTruck
	if preferred == "" && boat.PreferredTruckID != 0 {
		for _, t := range all {
			if t.ID == boat.PreferredTruckID {
				preferred = t.Name
			}
		}
	}
	s.trucks = SuitableTrucks(all, boat.LengthFt, preferred, req.ForcePreferred)
	if req.ForcePreferred && preferred != "" && (len(s.trucks) == 0 || !strings.EqualFold(s.trucks[0].Name, preferred)) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("preferred truck %s cannot carry a %.0f ft boat", preferred, boat.LengthFt))
	}
	if len(s.trucks) == 0 {
		res.Reason = ErrNoTrucks
		res.Message = "No slots found: " + ErrNoTrucks.Error()
		res.Diagnostics = []string{fmt.Sprintf("suitable trucks: none for a %.0f ft boat", boat.LengthFt)}
		return nil, nil
	}
	if NeedsCrane(boat, req.Service) {
		crane, ok := craneTruck(all, e.cfg.CraneTruckName)
		if !ok {
			res.Reason = ErrNoTrucks
			res.Message = "No slots found: no crane truck in the fleet"
			res.Diagnostics = []string{"suitable trucks: " + truckNames(s.trucks), "crane truck: none"}
			return nil, nil
		}
		s.crane = &crane
	}

	hours, err := e.repo.ListTruckHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("list truck hours: %w", err)
	}
	s.hours = schedule.Hours(hours)
	s.ix = schedule.Build(jobs)
	return s, nil
}

func containsRamp(ramps []model.Ramp, id int64) bool {
	for _, r := range ramps {
		if r.ID == id {
			return true
		}
	}
	return false
}

// piggyback searches days that already carry work near the requested date.
func (e *Engine) piggyback(s *search, target time.Time, n int) []model.Slot {
	radius := e.cfg.PiggybackDays
	days := s.ix.ActiveDays(target.AddDate(0, 0, -radius), target.AddDate(0, 0, radius))
	sort.SliceStable(days, func(i, j int) bool {
		di := absInt(model.DaysBetween(target, days[i]))
		dj := absInt(model.DaysBetween(target, days[j]))
		if di != dj {
			return di < dj
		}
		if s.crane != nil {
			ci, cj := s.ix.CraneAt(days[i], s.ramp.ID), s.ix.CraneAt(days[j], s.ramp.ID)
			if ci != cj {
				return ci
			}
		}
		return days[i].Before(days[j])
	})

	var out []model.Slot
	for _, day := range days {
		if len(out) >= n || s.ctx.Err() != nil {
			break
		}
		if s.crane != nil && !s.ideal.Contains(s.ramp.ID, day) {
			continue
		}
		if s.conflicts(day) {
			continue
		}
		if slot, ok := s.findOnDay(day); ok {
			out = append(out, slot)
		}
	}
	return out
}

// fallback searches ideal days for crane work, otherwise consecutive days.
func (e *Engine) fallback(s *search, target time.Time, n int) []model.Slot {
	var days []time.Time
	if s.crane != nil {
		days = s.ideal.From(s.ramp.ID, target, e.cfg.FallbackDays)
	} else {
		for i := 0; i < e.cfg.FallbackDays; i++ {
			days = append(days, target.AddDate(0, 0, i))
		}
	}
	var out []model.Slot
	for _, day := range days {
		if len(out) >= n || s.ctx.Err() != nil {
			break
		}
		if s.conflicts(day) {
			continue
		}
		if slot, ok := s.findOnDay(day); ok {
			out = append(out, slot)
		}
	}
	return out
}

func (s *search) reason() error {
	switch {
	case s.fitted:
		return ErrAllBusy
	case s.examined == 0 && s.conflictDay > 0:
		return ErrNoCandidateDays
	case s.examined == 0 && s.crane != nil:
		return ErrNoIdealDays
	case s.longest > 0 && s.longest < s.rule.Hauler:
		return ErrNoWindows
	case !s.onDuty:
		return ErrOffDuty
	default:
		return ErrNoWindows
	}
}

// diagnose explains an empty result in terms of the requested day.
func (s *search) diagnose(day time.Time, reason error) []string {
	out := []string{"suitable trucks: " + truckNames(s.trucks)}
	var duty []string
	for _, t := range s.trucks {
		if shift, ok := s.hours.ShiftOn(t.ID, day); ok {
			duty = append(duty, fmt.Sprintf("%s %s-%s", t.Name, shift.Start.Format("15:04"), shift.End.Format("15:04")))
		} else {
			duty = append(duty, t.Name+" off")
		}
	}
	if s.crane != nil {
		if shift, ok := s.hours.ShiftOn(s.crane.ID, day); ok {
			duty = append(duty, fmt.Sprintf("%s (crane) %s-%s", s.crane.Name, shift.Start.Format("15:04"), shift.End.Format("15:04")))
		} else {
			duty = append(duty, s.crane.Name+" (crane) off")
		}
	}
	out = append(out, fmt.Sprintf("duty status on %s: %s", model.DayKey(day), strings.Join(duty, ", ")))
	windows, _ := s.windows(day)
	out = append(out, fmt.Sprintf("tide windows found on %s: %d (%s)", model.DayKey(day), len(windows), s.tideRule()))
	out = append(out, fmt.Sprintf("longest window vs required duration: %s vs %s", tide.Longest(windows), s.rule.Hauler))
	if s.conflictDay > 0 {
		out = append(out, fmt.Sprintf("days skipped for a same-service booking: %d", s.conflictDay))
	}
	out = append(out, "reason: "+reason.Error())
	return out
}

func (e *Engine) finish(req Request, res *Result, started time.Time) {
	elapsed := e.now().Sub(started)
	ev := metrics.SearchEvent{
		RequestID: res.RequestID,
		BoatID:    req.BoatID,
		RampID:    req.RampID,
		Service:   req.Service,
		Slots:     len(res.Slots),
		Forced:    res.Forced,
		Conflict:  res.Conflict != nil,
		Duration:  elapsed,
		Time:      e.now().UTC(),
	}
	if err := e.sink.RecordSearch(ev); err != nil {
		e.log.Errorf("search metrics error: %v", err)
	}
	fields := map[string]any{
		"request_id": res.RequestID,
		"boat_id":    req.BoatID,
		"service":    string(req.Service),
		"date":       model.DayKey(req.RequestedDate),
		"slots":      len(res.Slots),
		"forced":     res.Forced,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if res.Reason != nil && !errors.Is(res.Reason, ErrConflict) {
		fields["reason"] = res.Reason.Error()
	}
	e.log.Debugw("slot search", fields)
}
