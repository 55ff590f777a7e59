package simulator

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/tide"
)

func TestHarmonicTidesAlternate(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	daily := HarmonicTides("X", from, to, 2*time.Hour)

	assert.Len(t, daily, 31)
	first := daily.On(from)
	require.NotEmpty(t, first)
	assert.Equal(t, model.TideHigh, first[0].Type)
	assert.Equal(t, time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC), first[0].Time)

	var highs int
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		evs := daily.On(day)
		for i := 1; i < len(evs); i++ {
			assert.NotEqual(t, evs[i-1].Type, evs[i].Type, "tides alternate on %s", model.DayKey(day))
		}
		for _, ev := range evs {
			if ev.Type == model.TideHigh {
				highs++
				assert.Greater(t, ev.Height, meanLevel)
			} else {
				assert.Less(t, ev.Height, meanLevel)
			}
		}
	}
	// 31 days at one high tide per 12h25m
	assert.InDelta(t, 60, highs, 1)

	var ideal int
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if tide.IsIdeal(day, daily.On(day)) {
			ideal++
		}
	}
	assert.Positive(t, ideal)
	assert.Less(t, ideal, 31, "midday high tides drift through the month")
}

func TestGenerateFleet(t *testing.T) {
	cfg := Config{Boats: 40, SailShare: 0.5}
	cfg.SetDefaults()
	fx := GenerateFleet(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, fx.Validate())
	assert.Len(t, fx.Trucks, 3)
	assert.Len(t, fx.Customers, 40)

	var sail int
	for _, c := range fx.Customers {
		require.Len(t, c.Boats, 1)
		b := c.Boats[0]
		bt, err := model.ParseBoatType(b.Type)
		require.NoError(t, err)
		if bt.IsSailboat() {
			sail++
			assert.NotNil(t, b.DraftFt)
		}
		if bt == model.SailboatDT {
			assert.NotEqual(t, "Green Harbor", b.PreferredRamp)
		}
	}
	assert.Greater(t, sail, 5)
	assert.Less(t, sail, 35)

	again := GenerateFleet(cfg, rand.New(rand.NewSource(7)))
	assert.Equal(t, fx, again)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := Config{Requests: 60, Seed: 42, Year: 2025}
	a, err := Run(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	a.RunID, b.RunID = "", ""
	a.Elapsed, b.Elapsed = 0, 0
	assert.Equal(t, a, b)

	assert.Equal(t, 60, a.Requests)
	assert.Equal(t, a.Requests, a.Scheduled+a.Conflicts+a.Unscheduled+a.SlotTaken+a.Failed)
	assert.Positive(t, a.Scheduled)
	assert.Positive(t, a.BusyRequests)
	assert.Positive(t, a.TruckDays)
	assert.LessOrEqual(t, a.TruckDays, a.Scheduled)
	assert.GreaterOrEqual(t, a.AvgJobsPerTruck, 1.0)
	assert.GreaterOrEqual(t, float64(a.MaxJobsPerTruck), a.AvgJobsPerTruck)
	assert.Zero(t, a.Failed)
}

func TestRunHaulSeason(t *testing.T) {
	rep, err := Run(context.Background(), Config{Requests: 20, Seed: 3, Year: 2025, Service: model.Haul}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Haul, rep.Service)
	assert.Positive(t, rep.Scheduled)
}

func TestRunWithFleetFile(t *testing.T) {
	cfg := Config{Requests: 4, Seed: 5, Year: 2025, FleetFile: "../core/fleet/testdata/yard.yaml"}
	rep, err := Run(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Requests)
	assert.Equal(t, 4, rep.Scheduled+rep.Conflicts+rep.Unscheduled+rep.SlotTaken+rep.Failed)
	assert.Positive(t, rep.Scheduled)
}

func TestRunRejectsBadConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{BusyShare: 2}, nil, nil)
	assert.Error(t, err)
	_, err = Run(context.Background(), Config{Service: "Polish"}, nil, nil)
	assert.Error(t, err)
}

func TestRunHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{Requests: 5, Year: 2025}, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	day := time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)
	jobs := []model.Job{
		{HaulerTruckID: 1, Start: day},
		{HaulerTruckID: 1, Start: day.Add(2 * time.Hour)},
		{HaulerTruckID: 1, Start: day.Add(4 * time.Hour), CraneTruckID: 17},
		{HaulerTruckID: 2, Start: day, CraneTruckID: 17},
		{HaulerTruckID: 2, Start: day.AddDate(0, 0, 1)},
	}
	var r Report
	r.summarize(jobs)
	assert.Equal(t, 3, r.TruckDays)
	assert.Equal(t, 1, r.CraneDays)
	assert.Equal(t, 3, r.MaxJobsPerTruck)
	assert.InDelta(t, 5.0/3, r.AvgJobsPerTruck, 1e-9)
	assert.InDelta(t, 1.1547, r.StdDevJobsPerDay, 1e-4)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), "truck-days:         3")
	assert.Contains(t, buf.String(), "crane-days:         1")
}
