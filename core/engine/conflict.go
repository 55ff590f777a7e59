package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// ConflictWindowDays is how close two bookings of the same service may be.
const ConflictWindowDays = 30

// FindSameServiceConflict returns a scheduled job for the same boat and
// service starting within ConflictWindowDays of date, or nil.
func FindSameServiceConflict(boatID int64, svc model.Service, date time.Time, jobs []model.Job) *model.Job {
	return findConflict(boatID, svc, date, jobs, ConflictWindowDays, 0)
}

func findConflict(boatID int64, svc model.Service, date time.Time, jobs []model.Job, days int, ignoreID int64) *model.Job {
	var best *model.Job
	bestDiff := days + 1
	for i := range jobs {
		j := &jobs[i]
		if j.Status != model.StatusScheduled || j.BoatID != boatID || j.Service != svc || j.ID == ignoreID {
			continue
		}
		if j.Start.IsZero() {
			continue
		}
		diff := absInt(model.DaysBetween(date, j.Start))
		if diff <= days && diff < bestDiff {
			best, bestDiff = j, diff
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// FindSameServiceConflict looks up the stored schedule for a conflicting booking.
func (e *Engine) FindSameServiceConflict(ctx context.Context, boatID int64, svc model.Service, date time.Time) (*model.Job, error) {
	jobs, err := e.repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled, BoatID: boatID})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return findConflict(boatID, svc, date, jobs, e.cfg.ConflictDays, 0), nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
