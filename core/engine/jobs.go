package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/haulplan/core/events"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// ParkJob takes a scheduled job off the schedule while keeping its identity.
func (e *Engine) ParkJob(ctx context.Context, id int64) error {
	job, err := e.repo.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("job %d: %w", id, err)
	}
	if err := e.repo.ParkJob(ctx, id); err != nil {
		return fmt.Errorf("park job %d: %w", id, err)
	}
	e.log.Infof("parked job %d (%s, boat %d)", id, job.Service, job.BoatID)
	e.publish(events.KindParked, job, "")
	return nil
}

// CancelJob permanently removes a job.
func (e *Engine) CancelJob(ctx context.Context, id int64) error {
	job, err := e.repo.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("job %d: %w", id, err)
	}
	if err := e.repo.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("cancel job %d: %w", id, err)
	}
	e.log.Infof("cancelled job %d (%s, boat %d)", id, job.Service, job.BoatID)
	e.publish(events.KindCancelled, job, "")
	return nil
}

// UpdateTruckSchedule replaces the weekly working hours of a truck.
// Weekdays missing from hours become off days.
func (e *Engine) UpdateTruckSchedule(ctx context.Context, truckName string, hours model.WeekHours) error {
	trucks, err := e.repo.ListTrucks(ctx)
	if err != nil {
		return fmt.Errorf("list trucks: %w", err)
	}
	for _, t := range trucks {
		if !strings.EqualFold(t.Name, truckName) {
			continue
		}
		for day, shift := range hours {
			if shift.Close <= shift.Open {
				return fmt.Errorf("%w: %s hours for %s close before they open", ErrInvalidRequest, t.Name, day)
			}
		}
		if err := e.repo.SetTruckHours(ctx, t.ID, hours); err != nil {
			return fmt.Errorf("set hours for %s: %w", t.Name, err)
		}
		e.log.Infof("updated working hours for %s", t.Name)
		e.publish(events.KindHoursUpdated, model.Job{}, t.Name)
		return nil
	}
	return fmt.Errorf("truck %q: %w", truckName, store.ErrNotFound)
}

// RequestFromJob rebuilds the request that produced a job, for a new date.
func RequestFromJob(job model.Job, date time.Time) Request {
	return Request{
		CustomerID:      job.CustomerID,
		BoatID:          job.BoatID,
		Service:         job.Service,
		RequestedDate:   model.Day(date),
		RampID:          job.RampID(),
		ManagerOverride: job.OverrideConflict,
	}
}

// Reschedule books a parked job into slot, replacing the parked row.
func (e *Engine) Reschedule(ctx context.Context, parkedID int64, slot model.Slot) (int64, string, error) {
	job, err := e.repo.GetJob(ctx, parkedID)
	if err != nil {
		return 0, "", fmt.Errorf("job %d: %w", parkedID, err)
	}
	if job.Status != model.StatusParked {
		return 0, "", fmt.Errorf("job %d is %s: %w", parkedID, job.Status, store.ErrInvalidState)
	}
	return e.Confirm(ctx, RequestFromJob(job, slot.Date), slot, parkedID)
}
