package tide

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// ErrTideUnavailable is returned when no source yields predictions for the
// requested range. Callers treat it as "no tidal windows that day".
var ErrTideUnavailable = errors.New("tide predictions unavailable")

// Daily groups tide events by calendar day (model.DayLayout keys).
type Daily map[string][]model.TideEvent

// On returns the events of the given day.
func (d Daily) On(day time.Time) []model.TideEvent { return d[model.DayKey(day)] }

// Len returns the total number of events.
func (d Daily) Len() int {
	n := 0
	for _, evs := range d {
		n += len(evs)
	}
	return n
}

// GroupByDay buckets events by day, keeping each bucket in time order.
func GroupByDay(events []model.TideEvent) Daily {
	out := Daily{}
	for _, ev := range events {
		k := model.DayKey(ev.Time)
		out[k] = append(out[k], ev)
	}
	for _, evs := range out {
		sort.Slice(evs, func(i, j int) bool { return evs[i].Time.Before(evs[j].Time) })
	}
	return out
}

// Between returns the subset of d within [from, to] (calendar days, inclusive).
func (d Daily) Between(from, to time.Time) Daily {
	out := Daily{}
	for day := model.Day(from); !day.After(model.Day(to)); day = day.AddDate(0, 0, 1) {
		if evs := d.On(day); len(evs) > 0 {
			out[model.DayKey(day)] = evs
		}
	}
	return out
}

// Provider returns tide predictions for a station over [from, to].
type Provider interface {
	Tides(ctx context.Context, station string, from, to time.Time) (Daily, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, station string, from, to time.Time) (Daily, error)

// Tides calls f.
func (f ProviderFunc) Tides(ctx context.Context, station string, from, to time.Time) (Daily, error) {
	return f(ctx, station, from, to)
}

// Static serves a fixed set of events per station. It is used by tests and
// by deployments that preload predictions.
type Static map[string]Daily

// Tides returns the stored events of station within the range.
func (s Static) Tides(_ context.Context, station string, from, to time.Time) (Daily, error) {
	d, ok := s[station]
	if !ok {
		return nil, ErrTideUnavailable
	}
	out := d.Between(from, to)
	if len(out) == 0 {
		return nil, ErrTideUnavailable
	}
	return out, nil
}
