package metrics

import (
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// SearchEvent describes one slot search.
type SearchEvent struct {
	RequestID string
	BoatID    int64
	RampID    int64
	Service   model.Service
	Slots     int
	Forced    bool
	Conflict  bool
	Duration  time.Duration
	Time      time.Time
}

// Commit outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeSlotTaken = "slot_taken"
	OutcomeFailed    = "failed"
)

// CommitEvent describes one commit attempt.
type CommitEvent struct {
	JobID        int64
	Service      model.Service
	TruckID      int64
	CraneTruckID int64
	Start        time.Time
	Outcome      string
	Time         time.Time
}

// MetricsSink records engine events for observability purposes.
type MetricsSink interface {
	RecordSearch(ev SearchEvent) error
	RecordCommit(ev CommitEvent) error
}

// IdealDaysRecorder records the size of the ideal-day set per ramp.
type IdealDaysRecorder interface {
	RecordIdealDays(rampID int64, days int) error
}

// JobStateEvent records a lifecycle change outside commit (park, cancel).
type JobStateEvent struct {
	JobID  int64
	Status model.JobStatus
	Time   time.Time
}

// JobStateRecorder records lifecycle changes.
type JobStateRecorder interface {
	RecordJobState(ev JobStateEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSearch(SearchEvent) error     { return nil }
func (NopSink) RecordCommit(CommitEvent) error     { return nil }
func (NopSink) RecordIdealDays(int64, int) error   { return nil }
func (NopSink) RecordJobState(JobStateEvent) error { return nil }
