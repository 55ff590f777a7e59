package tide

import (
	"sort"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// DeepDraftFt is the draft from which draft rules tighten the window.
const DeepDraftFt = 5.0

const (
	deepDraftOffset    = 3 * time.Hour
	shallowDraftOffset = 3*time.Hour + 30*time.Minute
)

// HighTides returns the high tide times falling on day, in order.
func HighTides(day time.Time, events []model.TideEvent) []time.Time {
	key := model.DayKey(day)
	var out []time.Time
	for _, ev := range events {
		if ev.Type == model.TideHigh && model.DayKey(ev.Time) == key {
			out = append(out, model.UTC(ev.Time))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Windows returns the intervals of day during which the ramp can be used by
// a boat with the given draft. A nil draft counts as shallow. Windows are
// clipped to the day and merged when they overlap. A tidal rule without
// events yields no window.
func Windows(rule model.TideRule, draft *float64, day time.Time, events []model.TideEvent) []model.Interval {
	day = model.Day(day)
	dayEnd := day.Add(24 * time.Hour)
	deep := draft != nil && *draft >= DeepDraftFt

	var offset time.Duration
	switch rule.Kind {
	case model.AnyTide:
		return []model.Interval{{Start: day, End: dayEnd}}
	case model.AnyTideWithDraftRule:
		if !deep {
			return []model.Interval{{Start: day, End: dayEnd}}
		}
		offset = deepDraftOffset
	case model.HoursAroundHighTide:
		offset = time.Duration(rule.OffsetHours * float64(time.Hour))
	case model.HoursAroundHighTideWithDraftRule:
		offset = shallowDraftOffset
		if deep {
			offset = deepDraftOffset
		}
	default:
		return nil
	}

	var out []model.Interval
	for _, ht := range HighTides(day, events) {
		w := model.Interval{Start: ht.Add(-offset), End: ht.Add(offset)}
		if w.Start.Before(day) {
			w.Start = day
		}
		if w.End.After(dayEnd) {
			w.End = dayEnd
		}
		if n := len(out); n > 0 && !w.Start.After(out[n-1].End) {
			if w.End.After(out[n-1].End) {
				out[n-1].End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// Longest returns the longest window duration.
func Longest(windows []model.Interval) time.Duration {
	var best time.Duration
	for _, w := range windows {
		if d := w.Duration(); d > best {
			best = d
		}
	}
	return best
}
