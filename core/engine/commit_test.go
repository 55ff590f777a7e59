package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/events"
	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
)

func TestBuildJobDirections(t *testing.T) {
	boat := model.Boat{ID: 1, CustomerID: 2, StorageAddress: "Yard", Storage: model.LatLon{Lat: 1, Lon: 1}}
	ramp := model.Ramp{ID: 3, Name: "Ramp", Location: model.LatLon{Lat: 2, Lon: 2}}
	start := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	slot := model.Slot{Start: start, HaulerEnd: start.Add(3 * time.Hour), TruckID: 5,
		NeedsCrane: true, CraneTruckID: 17, CraneEnd: start.Add(90 * time.Minute)}

	launch := BuildJob(Request{Service: model.Launch}, boat, ramp, slot)
	assert.Equal(t, "Yard", launch.Pickup.Address)
	assert.Equal(t, ramp.ID, launch.Dropoff.RampID)
	assert.Equal(t, int64(17), launch.CraneTruckID)
	assert.Equal(t, start.Add(90*time.Minute), launch.CraneBusyEnd)
	assert.Equal(t, model.StatusScheduled, launch.Status)
	assert.NoError(t, launch.Validate())

	haul := BuildJob(Request{Service: model.Haul}, boat, ramp, slot)
	assert.Equal(t, ramp.ID, haul.Pickup.RampID)
	assert.Equal(t, "Yard", haul.Dropoff.Address)
	assert.Equal(t, ramp.ID, haul.RampID())

	slot.NeedsCrane = false
	paint := BuildJob(Request{Service: model.Paint}, boat, model.Ramp{}, slot)
	assert.False(t, paint.Pickup.IsRamp())
	assert.False(t, paint.Dropoff.IsRamp())
	assert.False(t, paint.HasCrane())
}

func TestConfirmPublishesAndRecords(t *testing.T) {
	f := newFixture(t)
	sub := f.bus.Subscribe()
	req := f.request(boatSailMT, model.Launch, date(2025, 5, 10), rampScituate)

	id, slot := f.book(t, req)
	assert.NotZero(t, id)

	job, err := f.repo.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, slot.Start, job.Start)
	assert.Equal(t, slot.HaulerEnd, job.End)
	assert.Equal(t, truckCrane, job.CraneTruckID)
	assert.Equal(t, slot.CraneEnd, job.CraneBusyEnd)
	assert.Equal(t, rampScituate, job.Dropoff.RampID)

	select {
	case ev := <-sub:
		assert.Equal(t, events.KindCommitted, ev.Kind)
		assert.Equal(t, id, ev.Job.ID)
		assert.ElementsMatch(t, []int64{slot.TruckID, truckCrane}, ev.TruckIDs())
	case <-time.After(time.Second):
		t.Fatal("no committed event")
	}
	require.Len(t, f.sink.commits, 1)
	assert.Equal(t, metrics.OutcomeCommitted, f.sink.commits[0].Outcome)
}

func TestConcurrentCommitsSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	apr15 := date(2025, 4, 15)
	res, err := f.eng.FindSlots(ctx, f.request(boatPower, model.Launch, apr15, rampDuxbury))
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots)
	slot := res.Slots[0]

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     []int64
		lostErr []error
	)
	for _, boat := range []int64{boatPower, boatPower2} {
		wg.Add(1)
		go func(boat int64) {
			defer wg.Done()
			id, _, err := f.eng.Confirm(ctx, f.request(boat, model.Launch, apr15, rampDuxbury), slot, 0)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lostErr = append(lostErr, err)
				return
			}
			ids = append(ids, id)
		}(boat)
	}
	wg.Wait()

	require.Len(t, ids, 1)
	require.Len(t, lostErr, 1)
	assert.ErrorIs(t, lostErr[0], ErrSlotTaken)

	jobs, err := f.repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled, TruckID: slot.TruckID})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, slot.Start, jobs[0].Start)

	outcomes := map[string]int{}
	for _, c := range f.sink.commits {
		outcomes[c.Outcome]++
	}
	assert.Equal(t, map[string]int{metrics.OutcomeCommitted: 1, metrics.OutcomeSlotTaken: 1}, outcomes)
}

func TestConfirmRechecksConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request(boatPower, model.Launch, date(2025, 4, 15), rampDuxbury)
	res, err := f.eng.FindSlots(ctx, req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 3)

	_, _, err = f.eng.Confirm(ctx, req, res.Slots[0], 0)
	require.NoError(t, err)
	_, msg, err := f.eng.Confirm(ctx, req, res.Slots[1], 0)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, msg, "Conflict")

	req.ManagerOverride = true
	id, _, err := f.eng.Confirm(ctx, req, res.Slots[1], 0)
	require.NoError(t, err)
	job, err := f.repo.GetJob(ctx, id)
	require.NoError(t, err)
	assert.True(t, job.OverrideConflict)
}

func TestCommitParkRescheduleRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.request(boatSailMT, model.Launch, date(2025, 5, 10), rampScituate)
	id, slot := f.book(t, req)
	original, err := f.repo.GetJob(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.eng.ParkJob(ctx, id))
	parked, err := f.repo.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusParked, parked.Status)
	assert.True(t, parked.Start.IsZero())
	assert.Zero(t, parked.HaulerTruckID)

	newID, msg, err := f.eng.Reschedule(ctx, id, slot)
	require.NoError(t, err)
	assert.Contains(t, msg, fmt.Sprintf("replaces parked job %d", id))
	assert.NotEqual(t, id, newID)

	_, err = f.repo.GetJob(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound, "parked row removed in the same commit")

	again, err := f.repo.GetJob(ctx, newID)
	require.NoError(t, err)
	again.ID = original.ID
	assert.Equal(t, original, again)

	_, _, err = f.eng.Reschedule(ctx, newID, slot)
	assert.ErrorIs(t, err, store.ErrInvalidState)
}

func TestCancelJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.book(t, f.request(boatPower, model.Launch, date(2025, 4, 15), rampDuxbury))
	sub := f.bus.Subscribe()

	require.NoError(t, f.eng.CancelJob(ctx, id))
	_, err := f.repo.GetJob(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	ev := <-sub
	assert.Equal(t, events.KindCancelled, ev.Kind)
	assert.Equal(t, id, ev.Job.ID)

	assert.ErrorIs(t, f.eng.CancelJob(ctx, id), store.ErrNotFound)
	assert.ErrorIs(t, f.eng.ParkJob(ctx, id), store.ErrNotFound)
}

func TestConflictSymmetry(t *testing.T) {
	base := date(2025, 6, 15)
	jobs := []model.Job{{ID: 1, BoatID: 7, Service: model.Haul, Status: model.StatusScheduled,
		Start: at(base, "10:00"), End: at(base, "11:30"), HaulerTruckID: 1}}
	for d := -35; d <= 35; d++ {
		got := FindSameServiceConflict(7, model.Haul, base.AddDate(0, 0, d), jobs)
		if d >= -30 && d <= 30 {
			assert.NotNil(t, got, "offset %d", d)
		} else {
			assert.Nil(t, got, "offset %d", d)
		}
	}
	assert.Nil(t, FindSameServiceConflict(7, model.Launch, base, jobs), "different service")
	assert.Nil(t, FindSameServiceConflict(8, model.Haul, base, jobs), "different boat")
	parked := jobs[0]
	parked.Status = model.StatusParked
	assert.Nil(t, FindSameServiceConflict(7, model.Haul, base, []model.Job{parked}))
}

// TestCommittedJobsHoldInvariants books a mixed request stream and checks
// every stored job against truck hours, overlap, tide windows and ramp types.
func TestCommittedJobsHoldInvariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	types := []model.BoatType{model.Powerboat, model.Powerboat, model.SailboatDT, model.Powerboat, model.SailboatMT}
	for i := 0; i < 20; i++ {
		draft := 3.0 + float64(i%4)
		b := model.Boat{CustomerID: customerID, Name: fmt.Sprintf("Boat %d", i), Type: types[i%len(types)],
			LengthFt: 20 + float64(i%5)*4, DraftFt: &draft, Storage: model.LatLon{Lat: 42.1, Lon: -70.7}}
		require.NoError(t, f.repo.SaveBoat(ctx, &b))
		ramp := rampDuxbury
		if i%2 == 0 {
			ramp = rampScituate
		}
		req := f.request(b.ID, model.Launch, date(2025, 5, 8+i%6), ramp)
		res, err := f.eng.FindSlots(ctx, req)
		require.NoError(t, err)
		if len(res.Slots) == 0 {
			continue
		}
		_, _, err = f.eng.Confirm(ctx, req, res.Slots[0], 0)
		require.NoError(t, err)
	}

	jobs, err := f.repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	hours, err := f.repo.ListTruckHours(ctx)
	require.NoError(t, err)

	for i, j := range jobs {
		require.NoError(t, j.Validate())
		shift, ok := hours[j.HaulerTruckID].ShiftOn(j.Start)
		require.True(t, ok)
		assert.True(t, shift.On(j.Start).Contains(j.Start, j.End), "job %d outside hauler hours", j.ID)
		if j.HasCrane() {
			cs, ok := hours[j.CraneTruckID].ShiftOn(j.Start)
			require.True(t, ok)
			assert.True(t, cs.On(j.Start).Contains(j.Start, j.CraneBusyEnd), "job %d outside crane hours", j.ID)
		}

		boat, err := f.repo.GetBoat(ctx, j.BoatID)
		require.NoError(t, err)
		ramp, err := f.repo.GetRamp(ctx, j.RampID())
		require.NoError(t, err)
		assert.True(t, ramp.Accepts(boat.Type))
		if ramp.Rule.Tidal() {
			daily, err := f.tides.Tides(ctx, ramp.StationID, j.Start, j.Start)
			require.NoError(t, err)
			inside := false
			for _, w := range tide.Windows(ramp.Rule, boat.DraftFt, j.Start, daily.On(j.Start)) {
				if w.Contains(j.Start, j.End) {
					inside = true
				}
			}
			assert.True(t, inside, "job %d outside tide windows", j.ID)
		}

		for _, k := range jobs[i+1:] {
			for _, a := range busyOf(j) {
				for _, b := range busyOf(k) {
					if a.truck == b.truck {
						assert.False(t, a.iv.Overlaps(b.iv.Start, b.iv.End), "jobs %d and %d overlap on truck %d", j.ID, k.ID, a.truck)
					}
				}
			}
		}
	}
}

type truckUse struct {
	truck int64
	iv    model.Interval
}

func busyOf(j model.Job) []truckUse {
	out := []truckUse{{truck: j.HaulerTruckID, iv: j.Interval()}}
	if j.HasCrane() {
		out = append(out, truckUse{truck: j.CraneTruckID, iv: j.CraneInterval()})
	}
	return out
}
