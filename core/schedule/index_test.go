package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
)

var (
	yard  = model.LatLon{Lat: 42.15, Lon: -70.80}
	ramp  = model.LatLon{Lat: 42.20, Lon: -70.72}
	day   = time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	nineA = day.Add(9 * time.Hour)
)

func job(id, truck int64, start time.Time, d time.Duration) model.Job {
	return model.Job{
		ID: id, HaulerTruckID: truck, Start: start, End: start.Add(d), Status: model.StatusScheduled,
		Service: model.Launch,
		Pickup:  model.Stop{Address: "12 Yard Rd", Location: yard},
		Dropoff: model.Stop{RampID: 4, Location: ramp},
	}
}

func TestAvailability(t *testing.T) {
	ix := Build([]model.Job{job(1, 10, nineA, 90*time.Minute)})

	assert.False(t, ix.Available(10, nineA.Add(30*time.Minute), nineA.Add(2*time.Hour)))
	assert.False(t, ix.Available(10, nineA.Add(-time.Hour), nineA.Add(time.Minute)))
	assert.True(t, ix.Available(10, nineA.Add(90*time.Minute), nineA.Add(3*time.Hour)), "touching intervals do not conflict")
	assert.True(t, ix.Available(10, nineA.Add(-time.Hour), nineA))
	assert.True(t, ix.Available(11, nineA, nineA.Add(time.Hour)))
}

func TestBuildSkipsNonScheduled(t *testing.T) {
	parked := job(2, 10, nineA, time.Hour)
	parked.Status = model.StatusParked
	ix := Build([]model.Job{parked})
	assert.True(t, ix.Available(10, nineA, nineA.Add(time.Hour)))
	assert.Empty(t, ix.ActiveDays(day, day))
}

func TestCraneIntervals(t *testing.T) {
	j := job(3, 10, nineA, 3*time.Hour)
	j.CraneTruckID = 17
	j.CraneBusyEnd = nineA.Add(90 * time.Minute)
	ix := Build([]model.Job{j})

	assert.False(t, ix.Available(17, nineA.Add(time.Hour), nineA.Add(2*time.Hour)))
	assert.True(t, ix.Available(17, nineA.Add(90*time.Minute), nineA.Add(2*time.Hour)))
	assert.True(t, ix.CraneAt(day, 4))
	assert.False(t, ix.CraneAt(day, 5))

	stop, ok := ix.LastStop(17, day)
	require.True(t, ok)
	assert.Equal(t, ramp, stop.Location)
}

func TestLastStopAndNeighbours(t *testing.T) {
	early := job(1, 10, nineA, time.Hour)
	late := job(2, 10, nineA.Add(4*time.Hour), time.Hour)
	late.Dropoff = model.Stop{Address: "Home", Location: yard}
	ix := Build([]model.Job{late, early})

	stop, ok := ix.LastStop(10, day)
	require.True(t, ok)
	assert.Equal(t, nineA.Add(5*time.Hour), stop.End)
	assert.Equal(t, yard, stop.Location)

	prev, ok := ix.Previous(10, nineA.Add(2*time.Hour))
	require.True(t, ok)
	assert.Equal(t, int64(1), prev.JobID)

	next, ok := ix.Next(10, nineA.Add(2*time.Hour))
	require.True(t, ok)
	assert.Equal(t, int64(2), next.JobID)

	_, ok = ix.Previous(10, nineA)
	assert.False(t, ok)
	_, ok = ix.LastStop(10, day.AddDate(0, 0, 1))
	assert.False(t, ok)

	intervals := ix.Intervals(10)
	require.Len(t, intervals, 2)
	assert.True(t, intervals[0].Start.Before(intervals[1].Start))
}

func TestActiveDays(t *testing.T) {
	ix := Build([]model.Job{
		job(1, 10, nineA, time.Hour),
		job(2, 11, nineA.AddDate(0, 0, 3), time.Hour),
		job(3, 11, nineA.AddDate(0, 0, 30), time.Hour),
	})
	got := ix.ActiveDays(day.AddDate(0, 0, -7), day.AddDate(0, 0, 7))
	assert.Equal(t, []time.Time{day, day.AddDate(0, 0, 3)}, got)
	assert.Equal(t, 1, ix.JobsOn(day))
}

func TestHours(t *testing.T) {
	h := Hours{10: model.WeekHours{time.Monday: {Open: 7 * time.Hour, Close: 15 * time.Hour}}}
	assert.True(t, h.OnDuty(10, day.Add(7*time.Hour), day.Add(15*time.Hour)))
	assert.False(t, h.OnDuty(10, day.Add(14*time.Hour), day.Add(15*time.Hour+time.Minute)))
	assert.False(t, h.OnDuty(10, day.AddDate(0, 0, 1).Add(9*time.Hour), day.AddDate(0, 0, 1).Add(10*time.Hour)))
	assert.False(t, h.OnDuty(99, day.Add(9*time.Hour), day.Add(10*time.Hour)), "missing schedule means off duty")
}
