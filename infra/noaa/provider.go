// Package noaa provides tide predictions from local annual files and the
// NOAA CO-OPS service.
package noaa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kilianp07/haulplan/core/logger"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/tide"
)

// Remote is the source consulted when no annual file covers a range.
type Remote interface {
	Predictions(ctx context.Context, station string, from, to time.Time) ([]model.TideEvent, error)
}

// CachedProvider implements tide.Provider. Lookups try the station's annual
// file first and fall back to the remote service; both are cached in memory.
type CachedProvider struct {
	dir    string
	remote Remote
	log    logger.Logger

	mu      sync.Mutex
	annual  map[string]tide.Daily // station_year; nil when no file exists
	fetched map[string]tide.Daily // station -> remote days
	covered map[string]map[string]bool
}

// NewCachedProvider creates a provider reading annual files from dir.
// remote may be nil for offline operation.
func NewCachedProvider(dir string, remote Remote, log logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.Nop{}
	}
	return &CachedProvider{
		dir:     dir,
		remote:  remote,
		log:     log,
		annual:  map[string]tide.Daily{},
		fetched: map[string]tide.Daily{},
		covered: map[string]map[string]bool{},
	}
}

// Tides returns the events of station between from and to, grouped by day.
func (p *CachedProvider) Tides(ctx context.Context, station string, from, to time.Time) (tide.Daily, error) {
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("tides: range end %s before start %s", model.DayKey(to), model.DayKey(from))
	}

	p.mu.Lock()
	local := tide.Daily{}
	for year := from.Year(); year <= to.Year(); year++ {
		for k, evs := range p.annualLocked(station, year) {
			local[k] = evs
		}
	}
	if out := local.Between(from, to); len(out) > 0 {
		p.mu.Unlock()
		return out, nil
	}
	if p.coveredLocked(station, from, to) {
		out := p.fetched[station].Between(from, to)
		p.mu.Unlock()
		if len(out) == 0 {
			return nil, tide.ErrTideUnavailable
		}
		return out, nil
	}
	p.mu.Unlock()

	if p.remote == nil {
		return nil, tide.ErrTideUnavailable
	}
	// Whole months are fetched so neighbouring days hit the cache.
	fetchFrom := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	fetchTo := time.Date(to.Year(), to.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	evs, err := p.remote.Predictions(ctx, station, fetchFrom, fetchTo)
	if err != nil {
		p.log.Warnf("tide fetch for station %s %s..%s failed: %v", station, model.DayKey(fetchFrom), model.DayKey(fetchTo), err)
		return nil, fmt.Errorf("%w: %v", tide.ErrTideUnavailable, err)
	}
	p.log.Debugw("tide predictions fetched", map[string]any{
		"station": station, "from": model.DayKey(fetchFrom), "to": model.DayKey(fetchTo), "events": len(evs),
	})

	p.mu.Lock()
	if p.fetched[station] == nil {
		p.fetched[station] = tide.Daily{}
		p.covered[station] = map[string]bool{}
	}
	for k, dayEvs := range tide.GroupByDay(evs) {
		p.fetched[station][k] = dayEvs
	}
	for day := fetchFrom; !day.After(fetchTo); day = day.AddDate(0, 0, 1) {
		p.covered[station][model.DayKey(day)] = true
	}
	out := p.fetched[station].Between(from, to)
	p.mu.Unlock()

	if len(out) == 0 {
		return nil, tide.ErrTideUnavailable
	}
	return out, nil
}

func (p *CachedProvider) annualLocked(station string, year int) tide.Daily {
	key := fmt.Sprintf("%s_%d", station, year)
	if d, ok := p.annual[key]; ok {
		return d
	}
	if p.dir == "" {
		p.annual[key] = nil
		return nil
	}
	evs, err := ReadAnnualFile(p.dir, station, year)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.log.Warnf("annual tide file %s: %v", AnnualPath(p.dir, station, year), err)
		}
		p.annual[key] = nil
		return nil
	}
	d := tide.GroupByDay(evs)
	p.annual[key] = d
	p.log.Debugw("annual tide file loaded", map[string]any{"station": station, "year": year, "events": len(evs)})
	return d
}

func (p *CachedProvider) coveredLocked(station string, from, to time.Time) bool {
	days := p.covered[station]
	if days == nil {
		return false
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !days[model.DayKey(day)] {
			return false
		}
	}
	return true
}

// Download fetches a whole year of predictions and stores it as the station's
// annual file, replacing the cached copy. It returns the number of events written.
func (p *CachedProvider) Download(ctx context.Context, station string, year int) (int, error) {
	if p.remote == nil {
		return 0, fmt.Errorf("download %s %d: no remote configured", station, year)
	}
	if p.dir == "" {
		return 0, fmt.Errorf("download %s %d: no tide data dir configured", station, year)
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	evs, err := p.remote.Predictions(ctx, station, from, to)
	if err != nil {
		return 0, fmt.Errorf("download %s %d: %w", station, year, err)
	}
	if len(evs) == 0 {
		return 0, fmt.Errorf("download %s %d: %w", station, year, tide.ErrTideUnavailable)
	}
	if err := WriteAnnualFile(p.dir, station, year, evs); err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.annual[fmt.Sprintf("%s_%d", station, year)] = tide.GroupByDay(evs)
	p.mu.Unlock()
	p.log.Infof("stored %d tide events for station %s in %s", len(evs), station, AnnualPath(p.dir, station, year))
	return len(evs), nil
}
