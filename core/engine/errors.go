package engine

import (
	"errors"
	"fmt"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
)

var (
	// ErrTideUnavailable is returned by tide providers when no source has data.
	ErrTideUnavailable = tide.ErrTideUnavailable
	// ErrNoTrucks means no truck can carry the boat.
	ErrNoTrucks = errors.New("no suitable trucks")
	// ErrNoWindows means the ramp, boat and day yield no workable interval.
	ErrNoWindows = errors.New("no workable tide windows")
	// ErrAllBusy means every feasible start clashes with booked work.
	ErrAllBusy = errors.New("all trucks busy")
	// ErrOffDuty means no suitable truck works on any searched day.
	ErrOffDuty = errors.New("no suitable truck on duty")
	// ErrNoIdealDays means a crane job had no ideal crane day to try.
	ErrNoIdealDays = errors.New("no ideal crane days available")
	// ErrNoCandidateDays means every searched day falls inside the window of a
	// same-service booking of the boat.
	ErrNoCandidateDays = errors.New("every candidate day is too close to a same-service booking")
	// ErrRampNotAllowed means the chosen ramp does not accept the boat type.
	ErrRampNotAllowed = errors.New("ramp does not accept boat type")
	// ErrConflict marks a same-service booking within the conflict window.
	ErrConflict = errors.New("same service already scheduled")
	// ErrSlotTaken means another commit won the race for the slot.
	ErrSlotTaken = store.ErrSlotTaken
	// ErrCommitFailed wraps storage failures during commit.
	ErrCommitFailed = errors.New("commit failed")
	// ErrInvalidRequest rejects malformed requests.
	ErrInvalidRequest = errors.New("invalid request")
)

// ConflictWarning carries the job that conflicts with a request.
type ConflictWarning struct {
	Job model.Job `json:"job"`
}

func (w *ConflictWarning) Error() string {
	return fmt.Sprintf("%s already scheduled for boat %d on %s (job %d)",
		w.Job.Service, w.Job.BoatID, model.DayKey(w.Job.Start), w.Job.ID)
}

func (w *ConflictWarning) Unwrap() error { return ErrConflict }
