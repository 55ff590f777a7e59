package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/fleet"
	"github.com/kilianp07/haulplan/core/logger"
	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
)

// Run generates (or loads) a fleet into an in-memory store, submits
// cfg.Requests synthetic requests, accepts the first slot of each and
// reports the resulting schedule. Identical configs give identical reports
// apart from RunID and Elapsed.
func Run(ctx context.Context, cfg Config, log logger.Logger, sink metrics.MetricsSink) (Report, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	started := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))
	rep := Report{RunID: uuid.NewString(), Seed: cfg.Seed, Service: cfg.Service, Reasons: map[string]int{}}

	fx := GenerateFleet(cfg, rng)
	if cfg.FleetFile != "" {
		loaded, err := fleet.Load(cfg.FleetFile)
		if err != nil {
			return rep, err
		}
		fx = loaded
	}
	repo := store.NewMemoryStore()
	defer func() { _ = repo.Close() }()
	sum, err := fleet.Apply(ctx, repo, fx)
	if err != nil {
		return rep, fmt.Errorf("apply fleet: %w", err)
	}
	log.Infof("simulation %s: %s", rep.RunID, sum)

	tides := tide.Static{}
	yearStart := time.Date(cfg.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(cfg.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	for _, r := range fx.Ramps {
		if r.StationID == "" {
			continue
		}
		if _, ok := tides[r.StationID]; !ok {
			phase := time.Duration(rng.Int63n(int64(semidiurnal)))
			tides[r.StationID] = HarmonicTides(r.StationID, yearStart, yearEnd, phase)
		}
	}

	eng, err := engine.New(cfg.Engine, repo, tides, log, sink, nil)
	if err != nil {
		return rep, err
	}
	if err := eng.Init(ctx, cfg.Year); err != nil {
		return rep, err
	}

	boats, err := repo.ListBoats(ctx)
	if err != nil {
		return rep, err
	}
	if len(boats) == 0 {
		return rep, fmt.Errorf("simulation needs at least one boat")
	}
	ramps, err := repo.ListRamps(ctx)
	if err != nil {
		return rep, err
	}

	from, to, busy := cfg.window()
	span := model.DaysBetween(from, to) + 1
	order := rng.Perm(len(boats))
	for i := 0; i < cfg.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		b := boats[order[i%len(boats)]]
		day := from.AddDate(0, 0, rng.Intn(span))
		if rng.Float64() < cfg.BusyShare {
			day = busy.AddDate(0, 0, rng.Intn(7))
			rep.BusyRequests++
		}
		req := engine.Request{CustomerID: b.CustomerID, BoatID: b.ID, Service: cfg.Service, RequestedDate: day}
		if cfg.Service.UsesRamp() && b.PreferredRampID == 0 {
			if eligible := engine.EligibleRamps(b, ramps); len(eligible) > 0 {
				req.RampID = eligible[rng.Intn(len(eligible))].ID
			}
		}
		rep.Requests++
		slot, ok := rep.record(eng.FindSlots(ctx, req))
		if !ok {
			continue
		}
		_, _, err := eng.Confirm(ctx, req, slot, 0)
		switch {
		case errors.Is(err, engine.ErrSlotTaken):
			rep.SlotTaken++
		case err != nil:
			log.Warnf("confirm boat %d: %v", b.ID, err)
			rep.Failed++
		default:
			rep.Scheduled++
		}
	}

	jobs, err := repo.ListJobs(ctx, store.JobFilter{Status: model.StatusScheduled})
	if err != nil {
		return rep, err
	}
	rep.summarize(jobs)
	rep.Elapsed = time.Since(started)
	log.Infof("simulation %s: %d/%d scheduled over %d truck-days", rep.RunID, rep.Scheduled, rep.Requests, rep.TruckDays)
	return rep, nil
}
