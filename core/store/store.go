// Package store defines the typed repository the engine reads its snapshot
// from and commits jobs through.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken is returned by CommitJob when another scheduled job already
	// holds one of the truck intervals.
	ErrSlotTaken = errors.New("slot taken")
	// ErrInvalidState is returned when a job transition is not allowed.
	ErrInvalidState = errors.New("invalid job state")
)

// JobFilter narrows ListJobs. Zero fields do not filter.
type JobFilter struct {
	Status model.JobStatus
	BoatID int64
	// TruckID matches hauler or crane assignments.
	TruckID int64
	// From and To bound the job start (inclusive).
	From time.Time
	To   time.Time
}

// Match reports whether j satisfies the filter.
func (f JobFilter) Match(j model.Job) bool {
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	if f.BoatID != 0 && j.BoatID != f.BoatID {
		return false
	}
	if f.TruckID != 0 && j.HaulerTruckID != f.TruckID && j.CraneTruckID != f.TruckID {
		return false
	}
	if !f.From.IsZero() && (j.Start.IsZero() || j.Start.Before(f.From)) {
		return false
	}
	if !f.To.IsZero() && (j.Start.IsZero() || j.Start.After(f.To)) {
		return false
	}
	return true
}

// Repository is the persistence contract. Implementations serialize
// CommitJob so that two commits racing for the same truck time cannot both
// succeed.
type Repository interface {
	ListTrucks(ctx context.Context) ([]model.Truck, error)
	SaveTruck(ctx context.Context, t *model.Truck) error

	ListRamps(ctx context.Context) ([]model.Ramp, error)
	GetRamp(ctx context.Context, id int64) (model.Ramp, error)
	SaveRamp(ctx context.Context, r *model.Ramp) error

	ListCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (model.Customer, error)
	SaveCustomer(ctx context.Context, c *model.Customer) error

	ListBoats(ctx context.Context) ([]model.Boat, error)
	GetBoat(ctx context.Context, id int64) (model.Boat, error)
	SaveBoat(ctx context.Context, b *model.Boat) error

	// ListTruckHours returns the weekly hours keyed by truck id.
	ListTruckHours(ctx context.Context) (map[int64]model.WeekHours, error)
	// SetTruckHours replaces every row of the truck.
	SetTruckHours(ctx context.Context, truckID int64, hours model.WeekHours) error

	ListJobs(ctx context.Context, f JobFilter) ([]model.Job, error)
	GetJob(ctx context.Context, id int64) (model.Job, error)
	// CommitJob re-checks truck availability and inserts job in one
	// transaction. When removeParkedID is non-zero that parked job is deleted
	// in the same transaction.
	CommitJob(ctx context.Context, job model.Job, removeParkedID int64) (int64, error)
	// ParkJob moves a scheduled job to Parked and clears its times.
	ParkJob(ctx context.Context, id int64) error
	// DeleteJob removes a job permanently.
	DeleteJob(ctx context.Context, id int64) error

	Close() error
}

// Clashes reports whether job would overlap a truck interval of existing.
// Only scheduled jobs are considered.
func Clashes(job model.Job, existing []model.Job) bool {
	for _, other := range existing {
		if other.Status != model.StatusScheduled || other.ID == job.ID {
			continue
		}
		for _, mine := range busy(job) {
			for _, theirs := range busy(other) {
				if mine.truck == theirs.truck && theirs.iv.Overlaps(mine.iv.Start, mine.iv.End) {
					return true
				}
			}
		}
	}
	return false
}

type truckInterval struct {
	truck int64
	iv    model.Interval
}

func busy(j model.Job) []truckInterval {
	out := []truckInterval{{truck: j.HaulerTruckID, iv: j.Interval()}}
	if j.HasCrane() {
		out = append(out, truckInterval{truck: j.CraneTruckID, iv: j.CraneInterval()})
	}
	return out
}
