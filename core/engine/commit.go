package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/haulplan/core/events"
	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// BuildJob turns a confirmed slot into a scheduled job.
func BuildJob(req Request, boat model.Boat, ramp model.Ramp, slot model.Slot) model.Job {
	pickup, dropoff := route(boat, ramp, req.Service)
	job := model.Job{
		CustomerID:       boat.CustomerID,
		BoatID:           boat.ID,
		Service:          req.Service,
		Start:            model.UTC(slot.Start),
		End:              model.UTC(slot.HaulerEnd),
		HaulerTruckID:    slot.TruckID,
		Pickup:           pickup,
		Dropoff:          dropoff,
		Status:           model.StatusScheduled,
		OverrideConflict: req.ManagerOverride,
	}
	if slot.NeedsCrane {
		job.CraneTruckID = slot.CraneTruckID
		job.CraneBusyEnd = model.UTC(slot.CraneEnd)
	}
	return job
}

// Confirm persists a slot as a job, removing parkedID in the same transaction
// when it is non-zero. It returns the new job id and a human readable message.
// A lost race yields ErrSlotTaken; callers should search again.
func (e *Engine) Confirm(ctx context.Context, req Request, slot model.Slot, parkedID int64) (int64, string, error) {
	if err := validate(req); err != nil {
		return 0, "", err
	}
	boat, err := e.repo.GetBoat(ctx, req.BoatID)
	if err != nil {
		return 0, "", fmt.Errorf("boat %d: %w", req.BoatID, err)
	}
	var ramp model.Ramp
	if req.Service.UsesRamp() {
		rampID := slot.RampID
		if rampID == 0 {
			rampID = req.RampID
		}
		if ramp, err = e.repo.GetRamp(ctx, rampID); err != nil {
			return 0, "", fmt.Errorf("ramp %d: %w", rampID, err)
		}
	}
	if slot.NeedsCrane && slot.CraneTruckID == 0 {
		trucks, err := e.repo.ListTrucks(ctx)
		if err != nil {
			return 0, "", fmt.Errorf("list trucks: %w", err)
		}
		crane, ok := craneTruck(trucks, e.cfg.CraneTruckName)
		if !ok {
			return 0, "", fmt.Errorf("%w: no crane truck in the fleet", ErrNoTrucks)
		}
		slot.CraneTruckID = crane.ID
	}

	job := BuildJob(req, boat, ramp, slot)
	if err := job.Validate(); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if !req.ManagerOverride {
		jobs, err := e.repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled, BoatID: boat.ID})
		if err != nil {
			return 0, "", fmt.Errorf("%w: %w", ErrCommitFailed, err)
		}
		if c := findConflict(boat.ID, req.Service, job.Start, jobs, e.cfg.ConflictDays, parkedID); c != nil {
			cw := &ConflictWarning{Job: *c}
			return 0, "Conflict: " + cw.Error(), cw
		}
	}

	id, err := e.repo.CommitJob(ctx, job, parkedID)
	outcome := metrics.OutcomeCommitted
	switch {
	case errors.Is(err, store.ErrSlotTaken):
		outcome = metrics.OutcomeSlotTaken
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	job.ID = id
	e.recordCommit(job, outcome)
	if outcome == metrics.OutcomeSlotTaken {
		e.log.Warnf("slot taken for boat %d at %s on truck %d", boat.ID, job.Start.Format("2006-01-02 15:04"), job.HaulerTruckID)
		return 0, "Slot was just taken, please search again", ErrSlotTaken
	}
	if err != nil {
		e.log.Errorf("commit failed for boat %d: %v", boat.ID, err)
		return 0, "", fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	msg := fmt.Sprintf("Scheduled %s for %s on %s at %s with %s", job.Service, boatLabel(boat),
		model.DayKey(job.Start), job.Start.Format("15:04"), slotTruck(slot))
	if parkedID != 0 {
		msg += fmt.Sprintf(" (replaces parked job %d)", parkedID)
	}
	e.log.Infof("%s (job %d)", msg, id)
	e.publish(events.KindCommitted, job, slot.TruckName)
	return id, msg, nil
}

func (e *Engine) recordCommit(job model.Job, outcome string) {
	ev := metrics.CommitEvent{
		JobID:        job.ID,
		Service:      job.Service,
		TruckID:      job.HaulerTruckID,
		CraneTruckID: job.CraneTruckID,
		Start:        job.Start,
		Outcome:      outcome,
		Time:         e.now().UTC(),
	}
	if err := e.sink.RecordCommit(ev); err != nil {
		e.log.Errorf("commit metrics error: %v", err)
	}
}

func boatLabel(b model.Boat) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("boat %d", b.ID)
}

func slotTruck(s model.Slot) string {
	if s.TruckName != "" {
		return s.TruckName
	}
	return fmt.Sprintf("truck %d", s.TruckID)
}
