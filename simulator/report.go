package simulator

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/model"
)

// Report summarizes a simulation run.
type Report struct {
	RunID        string        `json:"run_id"`
	Seed         int64         `json:"seed"`
	Service      model.Service `json:"service"`
	Requests     int           `json:"requests"`
	BusyRequests int           `json:"busy_requests"`
	Scheduled    int           `json:"scheduled"`
	Conflicts    int           `json:"conflicts"`
	Unscheduled  int           `json:"unscheduled"`
	SlotTaken    int           `json:"slot_taken"`
	Failed       int           `json:"failed"`
	// Forced counts requests answered by the fallback phase.
	Forced int `json:"forced"`
	// Reasons counts unschedulable requests by cause.
	Reasons map[string]int `json:"reasons,omitempty"`

	TruckDays        int           `json:"truck_days"`
	CraneDays        int           `json:"crane_days"`
	AvgJobsPerTruck  float64       `json:"avg_jobs_per_truck_day"`
	StdDevJobsPerDay float64       `json:"stddev_jobs_per_truck_day"`
	MaxJobsPerTruck  int           `json:"max_jobs_per_truck_day"`
	Elapsed          time.Duration `json:"elapsed"`
}

// record tallies a search outcome and returns the slot to accept, if any.
func (r *Report) record(res engine.Result, err error) (model.Slot, bool) {
	switch {
	case err != nil:
		r.Failed++
		return model.Slot{}, false
	case res.Conflict != nil:
		r.Conflicts++
		return model.Slot{}, false
	case len(res.Slots) == 0:
		r.Unscheduled++
		reason := "unknown"
		if res.Reason != nil {
			reason = res.Reason.Error()
			var cw *engine.ConflictWarning
			if errors.As(res.Reason, &cw) {
				reason = engine.ErrConflict.Error()
			}
		}
		r.Reasons[reason]++
		return model.Slot{}, false
	}
	if res.Forced {
		r.Forced++
	}
	return res.Slots[0], true
}

type truckDay struct {
	truck int64
	day   string
}

// summarize computes truck-day statistics over the scheduled jobs.
func (r *Report) summarize(jobs []model.Job) {
	perTruckDay := map[truckDay]int{}
	craneDays := map[truckDay]struct{}{}
	for _, j := range jobs {
		if j.Start.IsZero() {
			continue
		}
		day := model.DayKey(j.Start)
		perTruckDay[truckDay{j.HaulerTruckID, day}]++
		if j.HasCrane() {
			craneDays[truckDay{j.CraneTruckID, day}] = struct{}{}
		}
	}
	r.TruckDays = len(perTruckDay)
	r.CraneDays = len(craneDays)
	if len(perTruckDay) == 0 {
		return
	}
	counts := make([]float64, 0, len(perTruckDay))
	for _, n := range perTruckDay {
		counts = append(counts, float64(n))
		if n > r.MaxJobsPerTruck {
			r.MaxJobsPerTruck = n
		}
	}
	sort.Float64s(counts)
	if len(counts) < 2 {
		r.AvgJobsPerTruck = counts[0]
		return
	}
	r.AvgJobsPerTruck, r.StdDevJobsPerDay = stat.MeanStdDev(counts, nil)
}

// WriteText renders the report for a terminal.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (seed %d, %s)\n", r.RunID, r.Seed, r.Service)
	fmt.Fprintf(&b, "requests:           %d (%d in busy week)\n", r.Requests, r.BusyRequests)
	fmt.Fprintf(&b, "scheduled:          %d (%d by fallback)\n", r.Scheduled, r.Forced)
	fmt.Fprintf(&b, "conflicts:          %d\n", r.Conflicts)
	fmt.Fprintf(&b, "unscheduled:        %d\n", r.Unscheduled)
	keys := make([]string, 0, len(r.Reasons))
	for k := range r.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-18s%d\n", k+":", r.Reasons[k])
	}
	if r.SlotTaken+r.Failed > 0 {
		fmt.Fprintf(&b, "slot taken/failed:  %d/%d\n", r.SlotTaken, r.Failed)
	}
	fmt.Fprintf(&b, "truck-days:         %d\n", r.TruckDays)
	fmt.Fprintf(&b, "crane-days:         %d\n", r.CraneDays)
	fmt.Fprintf(&b, "jobs/truck-day:     %.2f avg, %.2f stddev, %d max\n", r.AvgJobsPerTruck, r.StdDevJobsPerDay, r.MaxJobsPerTruck)
	fmt.Fprintf(&b, "elapsed:            %s\n", r.Elapsed.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}
