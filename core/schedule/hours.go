package schedule

import (
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// Hours holds the weekly working hours of every truck. A truck or weekday
// without an entry is off duty.
type Hours map[int64]model.WeekHours

// ShiftOn returns the working interval of the truck on day.
func (h Hours) ShiftOn(truckID int64, day time.Time) (model.Interval, bool) {
	s, ok := h[truckID].ShiftOn(day)
	if !ok {
		return model.Interval{}, false
	}
	return s.On(day), true
}

// OnDuty reports whether [start, end] lies inside the truck shift of the day
// of start.
func (h Hours) OnDuty(truckID int64, start, end time.Time) bool {
	shift, ok := h.ShiftOn(truckID, start)
	return ok && shift.Contains(start, end)
}
