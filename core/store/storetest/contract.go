// Package storetest holds the behaviour every store.Repository must share.
// Backends run it from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// Open returns an empty repository. Cleanup is registered by the caller.
type Open func(t *testing.T) store.Repository

// Run executes the repository contract against fresh repositories.
func Run(t *testing.T, open Open) {
	t.Run("Entities", func(t *testing.T) { entities(t, open(t)) })
	t.Run("CommitRejectsOverlap", func(t *testing.T) { commitRejectsOverlap(t, open(t)) })
	t.Run("CraneClash", func(t *testing.T) { craneClash(t, open(t)) })
	t.Run("ConcurrentCommit", func(t *testing.T) { concurrentCommit(t, open(t)) })
	t.Run("ParkAndReplace", func(t *testing.T) { parkAndReplace(t, open(t)) })
	t.Run("ListJobsFilter", func(t *testing.T) { listJobsFilter(t, open(t)) })
}

var base = time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)

type fleet struct {
	hauler, other, crane model.Truck
	ramp                 model.Ramp
	customer             model.Customer
	boat                 model.Boat
}

func seed(t *testing.T, r store.Repository) fleet {
	t.Helper()
	ctx := context.Background()
	f := fleet{
		hauler:   model.Truck{Name: "S20/33", MaxBoatLength: 40},
		other:    model.Truck{Name: "S23/55", MaxBoatLength: 60},
		crane:    model.Truck{Name: "S17", IsCrane: true},
		ramp:     model.Ramp{Name: "Scituate", StationID: "8445138", Location: model.LatLon{Lat: 42.19, Lon: -70.72}, Rule: model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 3}, AllowedBoatTypes: []model.BoatType{model.Powerboat, model.SailboatMT}},
		customer: model.Customer{Name: "Avery"},
	}
	for _, tr := range []*model.Truck{&f.hauler, &f.other, &f.crane} {
		require.NoError(t, r.SaveTruck(ctx, tr))
	}
	require.NoError(t, r.SaveRamp(ctx, &f.ramp))
	require.NoError(t, r.SaveCustomer(ctx, &f.customer))
	draft := 5.5
	f.boat = model.Boat{CustomerID: f.customer.ID, Name: "Osprey", Type: model.SailboatMT, LengthFt: 34, DraftFt: &draft,
		StorageAddress: "12 Elm St", Storage: model.LatLon{Lat: 42.1, Lon: -70.8}, PreferredRampID: f.ramp.ID}
	require.NoError(t, r.SaveBoat(ctx, &f.boat))
	return f
}

func job(f fleet, truck int64, start time.Time, d time.Duration) model.Job {
	return model.Job{
		CustomerID: f.customer.ID, BoatID: f.boat.ID, Service: model.Launch, Status: model.StatusScheduled,
		HaulerTruckID: truck, Start: start, End: start.Add(d),
		Pickup:  model.Stop{Address: f.boat.StorageAddress, Location: f.boat.Storage},
		Dropoff: model.Stop{RampID: f.ramp.ID, Location: f.ramp.Location},
	}
}

func entities(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	assert.Error(t, r.SaveTruck(ctx, &model.Truck{Name: "S20/33", MaxBoatLength: 1}), "truck names are unique")
	trucks, err := r.ListTrucks(ctx)
	require.NoError(t, err)
	require.Len(t, trucks, 3)
	assert.True(t, trucks[2].IsCrane)

	f.hauler.MaxBoatLength = 42
	require.NoError(t, r.SaveTruck(ctx, &f.hauler))
	trucks, _ = r.ListTrucks(ctx)
	assert.Equal(t, 42.0, trucks[0].MaxBoatLength)

	ramp, err := r.GetRamp(ctx, f.ramp.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ramp, ramp)
	_, err = r.GetRamp(ctx, f.ramp.ID+100)
	assert.ErrorIs(t, err, store.ErrNotFound)

	boat, err := r.GetBoat(ctx, f.boat.ID)
	require.NoError(t, err)
	assert.Equal(t, f.boat, boat)
	bare := model.Boat{CustomerID: f.customer.ID, Name: "Skiff", Type: model.Powerboat, LengthFt: 16}
	require.NoError(t, r.SaveBoat(ctx, &bare))
	got, err := r.GetBoat(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DraftFt)
	assert.ErrorIs(t, r.SaveBoat(ctx, &model.Boat{CustomerID: 4242, Type: model.Powerboat}), store.ErrNotFound)
	boats, err := r.ListBoats(ctx)
	require.NoError(t, err)
	assert.Len(t, boats, 2)

	_, err = r.GetCustomer(ctx, 4242)
	assert.ErrorIs(t, err, store.ErrNotFound)
	customers, err := r.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Customer{f.customer}, customers)

	hours := model.WeekHours{
		time.Monday:   {Open: 7 * time.Hour, Close: 15 * time.Hour},
		time.Saturday: {Open: 8 * time.Hour, Close: 12*time.Hour + 30*time.Minute},
	}
	require.NoError(t, r.SetTruckHours(ctx, f.hauler.ID, hours))
	require.NoError(t, r.SetTruckHours(ctx, f.other.ID, model.WeekHours{time.Sunday: {Open: 9 * time.Hour, Close: 10 * time.Hour}}))
	assert.ErrorIs(t, r.SetTruckHours(ctx, 4242, hours), store.ErrNotFound)
	all, err := r.ListTruckHours(ctx)
	require.NoError(t, err)
	assert.Equal(t, hours, all[f.hauler.ID])

	delete(hours, time.Saturday)
	require.NoError(t, r.SetTruckHours(ctx, f.hauler.ID, hours))
	all, _ = r.ListTruckHours(ctx)
	assert.Equal(t, hours, all[f.hauler.ID], "hours are replaced, not merged")
}

func commitRejectsOverlap(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	id, err := r.CommitJob(ctx, job(f, f.hauler.ID, base, 90*time.Minute), 0)
	require.NoError(t, err)
	stored, err := r.GetJob(ctx, id)
	require.NoError(t, err)
	want := job(f, f.hauler.ID, base, 90*time.Minute)
	want.ID = id
	assert.Equal(t, want, stored)

	_, err = r.CommitJob(ctx, job(f, f.hauler.ID, base.Add(time.Hour), time.Hour), 0)
	assert.ErrorIs(t, err, store.ErrSlotTaken)
	_, err = r.CommitJob(ctx, job(f, f.hauler.ID, base, time.Hour), 0)
	assert.ErrorIs(t, err, store.ErrSlotTaken, "same truck and start")

	_, err = r.CommitJob(ctx, job(f, f.other.ID, base, time.Hour), 0)
	assert.NoError(t, err, "other trucks are free")
	_, err = r.CommitJob(ctx, job(f, f.hauler.ID, base.Add(90*time.Minute), time.Hour), 0)
	assert.NoError(t, err, "back-to-back intervals are allowed")
}

func craneClash(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	a := job(f, f.hauler.ID, base, 3*time.Hour)
	a.CraneTruckID = f.crane.ID
	a.CraneBusyEnd = base.Add(90 * time.Minute)
	_, err := r.CommitJob(ctx, a, 0)
	require.NoError(t, err)

	b := job(f, f.other.ID, base.Add(time.Hour), 3*time.Hour)
	b.CraneTruckID = f.crane.ID
	b.CraneBusyEnd = base.Add(2 * time.Hour)
	_, err = r.CommitJob(ctx, b, 0)
	assert.ErrorIs(t, err, store.ErrSlotTaken)

	b.Start = base.Add(90 * time.Minute)
	b.End = b.Start.Add(3 * time.Hour)
	b.CraneBusyEnd = b.Start.Add(90 * time.Minute)
	_, err = r.CommitJob(ctx, b, 0)
	assert.NoError(t, err, "crane is free once the first launch is done")
}

func concurrentCommit(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.CommitJob(ctx, job(f, f.hauler.ID, base.Add(time.Duration(i)*15*time.Minute), 2*time.Hour), 0)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, store.ErrSlotTaken)
		}
	}
	jobs, err := r.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	assert.Equal(t, ok, len(jobs))
	for i := range jobs {
		for k := i + 1; k < len(jobs); k++ {
			assert.False(t, jobs[i].Interval().Overlaps(jobs[k].Start, jobs[k].End), "committed jobs overlap")
		}
	}
}

func parkAndReplace(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	a := job(f, f.hauler.ID, base, time.Hour)
	a.CraneTruckID = f.crane.ID
	a.CraneBusyEnd = base.Add(30 * time.Minute)
	id, err := r.CommitJob(ctx, a, 0)
	require.NoError(t, err)

	require.NoError(t, r.ParkJob(ctx, id))
	parked, err := r.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusParked, parked.Status)
	assert.True(t, parked.Start.IsZero())
	assert.True(t, parked.CraneBusyEnd.IsZero())
	assert.Zero(t, parked.HaulerTruckID)
	assert.Zero(t, parked.CraneTruckID)
	assert.Equal(t, f.boat.ID, parked.BoatID)
	assert.Equal(t, f.ramp.ID, parked.Dropoff.RampID)

	assert.ErrorIs(t, r.ParkJob(ctx, id), store.ErrInvalidState)
	assert.ErrorIs(t, r.ParkJob(ctx, id+100), store.ErrNotFound)

	newID, err := r.CommitJob(ctx, job(f, f.hauler.ID, base, time.Hour), id)
	require.NoError(t, err)
	_, err = r.GetJob(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = r.CommitJob(ctx, job(f, f.other.ID, base, time.Hour), newID)
	assert.ErrorIs(t, err, store.ErrInvalidState, "only parked jobs can be replaced")
	_, err = r.CommitJob(ctx, job(f, f.other.ID, base, time.Hour), newID+100)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, r.DeleteJob(ctx, newID))
	assert.ErrorIs(t, r.DeleteJob(ctx, newID), store.ErrNotFound)
}

func listJobsFilter(t *testing.T, r store.Repository) {
	ctx := context.Background()
	f := seed(t, r)

	crane := job(f, f.other.ID, base, time.Hour)
	crane.CraneTruckID = f.crane.ID
	crane.CraneBusyEnd = base.Add(30 * time.Minute)
	late := job(f, f.hauler.ID, base.AddDate(0, 0, 3), time.Hour)
	early := job(f, f.hauler.ID, base.AddDate(0, 0, -3), time.Hour)
	var ids []int64
	for _, j := range []model.Job{crane, late, early} {
		id, err := r.CommitJob(ctx, j, 0)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, r.ParkJob(ctx, ids[1]))

	all, err := r.ListJobs(ctx, store.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[1], all[0].ID, "parked jobs without a start sort first")
	assert.Equal(t, ids[2], all[1].ID)

	byCrane, err := r.ListJobs(ctx, store.JobFilter{TruckID: f.crane.ID})
	require.NoError(t, err)
	require.Len(t, byCrane, 1)
	assert.Equal(t, ids[0], byCrane[0].ID)

	window, err := r.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled, From: base.AddDate(0, 0, -1), To: base})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, ids[0], window[0].ID)

	parked, err := r.ListJobs(ctx, store.JobFilter{Status: model.StatusParked, BoatID: f.boat.ID})
	require.NoError(t, err)
	assert.Len(t, parked, 1)
}
