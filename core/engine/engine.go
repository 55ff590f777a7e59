// Package engine finds, books and manages hauling slots.
//
// An Engine owns the shared caches a search depends on (tide provider, ideal
// days) and reads a fresh schedule snapshot from the repository for every
// request. Nothing shared is mutated until a slot is confirmed.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/haulplan/core/events"
	"github.com/kilianp07/haulplan/core/logger"
	"github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/tide"
	"github.com/kilianp07/haulplan/internal/eventbus"
)

// IdealRetry is how long an incomplete ideal-day season is served before a
// crane search recomputes it.
const IdealRetry = time.Minute

// Engine is the slot-finding and booking service.
type Engine struct {
	cfg   Config
	repo  store.Repository
	tides tide.Provider
	log   logger.Logger
	sink  metrics.MetricsSink
	bus   *eventbus.Bus[events.JobEvent]
	now   func() time.Time

	// Published seasons are never mutated; a recompute swaps in a new set.
	idealMu sync.Mutex
	ideal   map[int]idealSeason
}

type idealSeason struct {
	days *tide.IdealDays
	at   time.Time
}

// New creates an engine. log, sink and bus are optional.
func New(cfg Config, repo store.Repository, tides tide.Provider, log logger.Logger, sink metrics.MetricsSink, bus *eventbus.Bus[events.JobEvent]) (*Engine, error) {
	if repo == nil || tides == nil {
		return nil, fmt.Errorf("engine: nil repository or tide provider")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		cfg:   cfg,
		repo:  repo,
		tides: tides,
		log:   log,
		sink:  sink,
		bus:   bus,
		now:   time.Now,
		ideal: map[int]idealSeason{},
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Init computes the ideal-day set for the given season year.
func (e *Engine) Init(ctx context.Context, year int) error {
	_, err := e.computeIdeal(ctx, year, true)
	return err
}

// computeIdeal builds a fresh set for year. When publish is set it replaces
// the cached season, keeping days of stations that failed this time.
func (e *Engine) computeIdeal(ctx context.Context, year int, publish bool) (*tide.IdealDays, error) {
	ramps, err := e.repo.ListRamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ramps: %w", err)
	}
	next := tide.NewIdealDays()
	if err := next.Compute(ctx, e.tides, ramps, year, e.cfg.Season(), e.log); err != nil {
		return nil, fmt.Errorf("compute ideal days: %w", err)
	}
	if !publish {
		return next, nil
	}

	e.idealMu.Lock()
	if prev, ok := e.ideal[year]; ok {
		next.Merge(prev.days)
	}
	e.ideal[year] = idealSeason{days: next, at: e.now()}
	e.idealMu.Unlock()

	if rec, ok := e.sink.(metrics.IdealDaysRecorder); ok {
		for _, r := range ramps {
			if !r.AcceptsSailboats() {
				continue
			}
			if err := rec.RecordIdealDays(r.ID, next.Count(r.ID)); err != nil {
				e.log.Errorf("ideal days metrics error: %v", err)
			}
		}
	}
	if next.Complete() {
		e.log.Infof("engine initialised for season %d", year)
	} else {
		e.log.Warnf("season %d initialised without tides for some stations; retrying after %s", year, IdealRetry)
	}
	return next, nil
}

// idealFor returns the cached season of year, computing it on first use and
// again once IdealRetry has passed on an incomplete set.
func (e *Engine) idealFor(ctx context.Context, year int) (*tide.IdealDays, error) {
	e.idealMu.Lock()
	cur, ok := e.ideal[year]
	e.idealMu.Unlock()
	if ok && (cur.days.Complete() || e.now().Sub(cur.at) < IdealRetry) {
		return cur.days, nil
	}
	next, err := e.computeIdeal(ctx, year, true)
	if err != nil {
		if ok {
			return cur.days, err
		}
		return tide.NewIdealDays(), err
	}
	return next, nil
}

// IdealDays lists the ideal crane days of a ramp for a season year. Years
// never searched are computed on the side and not cached.
func (e *Engine) IdealDays(ctx context.Context, rampID int64, year int) ([]time.Time, error) {
	e.idealMu.Lock()
	_, cached := e.ideal[year]
	e.idealMu.Unlock()

	var set *tide.IdealDays
	var err error
	if cached {
		set, err = e.idealFor(ctx, year)
	} else {
		set, err = e.computeIdeal(ctx, year, false)
	}
	if err != nil {
		return nil, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := set.From(rampID, from, set.Count(rampID))
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func (e *Engine) publish(kind events.Kind, job model.Job, truck string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.JobEvent{Kind: kind, Job: job, TruckName: truck, Time: e.now().UTC()})
}
