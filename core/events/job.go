package events

import (
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// Kind names a lifecycle transition.
type Kind string

const (
	KindCommitted    Kind = "committed"
	KindParked       Kind = "parked"
	KindCancelled    Kind = "cancelled"
	KindHoursUpdated Kind = "hours_updated"
)

// JobEvent is published after a job or truck schedule change has been stored.
// Job is the zero value for KindHoursUpdated; TruckName is set instead.
type JobEvent struct {
	Kind      Kind
	Job       model.Job
	TruckName string
	Time      time.Time
}

// TruckIDs returns the trucks affected by the event.
func (e JobEvent) TruckIDs() []int64 {
	var ids []int64
	if e.Job.HaulerTruckID != 0 {
		ids = append(ids, e.Job.HaulerTruckID)
	}
	if e.Job.CraneTruckID != 0 && e.Job.CraneTruckID != e.Job.HaulerTruckID {
		ids = append(ids, e.Job.CraneTruckID)
	}
	return ids
}
