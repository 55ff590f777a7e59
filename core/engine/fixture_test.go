package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/events"
	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
	"github.com/kilianp07/haulplan/internal/eventbus"
)

const (
	truckS20   int64 = 1
	truckS23   int64 = 2
	truckCrane int64 = 17

	rampDuxbury   int64 = 10
	rampScituate  int64 = 11
	rampPowerOnly int64 = 12

	customerID int64 = 100

	boatPower    int64 = 200
	boatECM      int64 = 201
	boatSailMT   int64 = 202
	boatPower2   int64 = 203
	boatHuge     int64 = 204
	boatSailDeep int64 = 205
)

const scituateStation = "8445138"

type recordingSink struct {
	mu       sync.Mutex
	searches []metrics.SearchEvent
	commits  []metrics.CommitEvent
}

func (r *recordingSink) RecordSearch(ev metrics.SearchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, ev)
	return nil
}

func (r *recordingSink) RecordCommit(ev metrics.CommitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, ev)
	return nil
}

type fixture struct {
	eng   *Engine
	repo  *store.MemoryStore
	tides tide.Static
	sink  *recordingSink
	bus   *eventbus.Bus[events.JobEvent]
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(day time.Time, clock string) time.Time {
	d, err := model.ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return model.At(day, d)
}

func high(day time.Time, clock string) model.TideEvent {
	return model.TideEvent{Station: scituateStation, Time: at(day, clock), Type: model.TideHigh, Height: 9.5}
}

func low(day time.Time, clock string) model.TideEvent {
	return model.TideEvent{Station: scituateStation, Time: at(day, clock), Type: model.TideLow, Height: 0.3}
}

func everyDay(shift model.Shift) model.WeekHours {
	w := model.WeekHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		w[d] = shift
	}
	return w
}

// scituateTides returns a May 2025 tide table: May 10 has high tides at
// 02:30 and 14:30, May 12 at 11:00 and every other day at 04:00 and 16:30.
func scituateTides() tide.Daily {
	var evs []model.TideEvent
	for day := date(2025, 5, 1); day.Month() == time.May; day = day.AddDate(0, 0, 1) {
		switch day.Day() {
		case 10:
			evs = append(evs, high(day, "02:30"), low(day, "08:40"), high(day, "14:30"), low(day, "20:50"))
		case 12:
			evs = append(evs, low(day, "05:00"), high(day, "11:00"), low(day, "17:10"), high(day, "23:20"))
		default:
			evs = append(evs, high(day, "04:00"), low(day, "10:10"), high(day, "16:30"), low(day, "22:40"))
		}
	}
	return tide.GroupByDay(evs)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := store.NewMemoryStore()

	shift := model.Shift{Open: 7 * time.Hour, Close: 15 * time.Hour}
	for _, tr := range []model.Truck{
		{ID: truckS20, Name: "S20/33", MaxBoatLength: 40},
		{ID: truckS23, Name: "S23/55", MaxBoatLength: 60},
		{ID: truckCrane, Name: "S17", MaxBoatLength: 60, IsCrane: true},
	} {
		tr := tr
		require.NoError(t, repo.SaveTruck(ctx, &tr))
		require.NoError(t, repo.SetTruckHours(ctx, tr.ID, everyDay(shift)))
	}

	all := []model.BoatType{model.Powerboat, model.SailboatDT, model.SailboatMT}
	for _, r := range []model.Ramp{
		{ID: rampDuxbury, Name: "Duxbury", Location: model.LatLon{Lat: 42.04, Lon: -70.67},
			Rule: model.TideRule{Kind: model.AnyTide}, AllowedBoatTypes: all},
		{ID: rampScituate, Name: "Scituate", StationID: scituateStation, Location: model.LatLon{Lat: 42.19, Lon: -70.72},
			Rule: model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 3}, AllowedBoatTypes: all},
		{ID: rampPowerOnly, Name: "Green Harbor", Location: model.LatLon{Lat: 42.08, Lon: -70.65},
			Rule: model.TideRule{Kind: model.AnyTide}, AllowedBoatTypes: []model.BoatType{model.Powerboat}},
	} {
		r := r
		require.NoError(t, repo.SaveRamp(ctx, &r))
	}

	require.NoError(t, repo.SaveCustomer(ctx, &model.Customer{ID: customerID, Name: "Harbor Customer"}))
	draft := 4.5
	deep := 6.0
	storage := model.LatLon{Lat: 42.10, Lon: -70.70}
	for _, b := range []model.Boat{
		{ID: boatPower, Name: "Sea Breeze", Type: model.Powerboat, LengthFt: 25},
		{ID: boatECM, Name: "Priority One", Type: model.Powerboat, LengthFt: 25, IsECM: true},
		{ID: boatSailMT, Name: "Windward", Type: model.SailboatMT, LengthFt: 32, DraftFt: &draft},
		{ID: boatPower2, Name: "Second Wind", Type: model.Powerboat, LengthFt: 22},
		{ID: boatHuge, Name: "Leviathan", Type: model.Powerboat, LengthFt: 80},
		{ID: boatSailDeep, Name: "Keel Deep", Type: model.SailboatDT, LengthFt: 36, DraftFt: &deep},
	} {
		b := b
		b.CustomerID = customerID
		b.StorageAddress = "12 Yard Rd"
		b.Storage = storage
		require.NoError(t, repo.SaveBoat(ctx, &b))
	}

	tides := tide.Static{scituateStation: scituateTides()}
	sink := &recordingSink{}
	bus := eventbus.New[events.JobEvent]()
	t.Cleanup(bus.Close)
	eng, err := New(Config{}, repo, tides, nil, sink, bus)
	require.NoError(t, err)
	require.NoError(t, eng.Init(ctx, 2025))
	return &fixture{eng: eng, repo: repo, tides: tides, sink: sink, bus: bus}
}

func (f *fixture) request(boat int64, svc model.Service, day time.Time, ramp int64) Request {
	return Request{CustomerID: customerID, BoatID: boat, Service: svc, RequestedDate: day, RampID: ramp}
}

// book searches and confirms the first slot.
func (f *fixture) book(t *testing.T, req Request) (int64, model.Slot) {
	t.Helper()
	ctx := context.Background()
	res, err := f.eng.FindSlots(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots, "no slots: %s %v", res.Message, res.Diagnostics)
	id, _, err := f.eng.Confirm(ctx, req, res.Slots[0], 0)
	require.NoError(t, err)
	return id, res.Slots[0]
}

func (f *fixture) scheduled(t *testing.T) []model.Job {
	t.Helper()
	jobs, err := f.repo.ListJobs(context.Background(), store.JobFilter{Status: model.StatusScheduled})
	require.NoError(t, err)
	return jobs
}
