package simulator

import (
	"math"
	"time"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/tide"
)

const (
	// semidiurnal is the principal lunar (M2) period.
	semidiurnal = 12*time.Hour + 25*time.Minute + 14*time.Second
	// springNeap is the spring/neap modulation period.
	springNeap = 14*24*time.Hour + 18*time.Hour + 22*time.Minute

	meanLevel = 4.8
	amplitude = 4.5
)

// HarmonicTides produces alternating high and low tides for every day of
// [from, to], starting phase after from. Heights follow a spring/neap cycle.
func HarmonicTides(station string, from, to time.Time, phase time.Duration) tide.Daily {
	from, to = model.Day(from), model.Day(to).AddDate(0, 0, 1)
	var evs []model.TideEvent
	half := semidiurnal / 2
	for t, high := from.Add(phase%semidiurnal), true; t.Before(to); t, high = t.Add(half), !high {
		elapsed := t.Sub(from)
		a := amplitude * (1 + 0.25*math.Cos(2*math.Pi*float64(elapsed)/float64(springNeap)))
		ev := model.TideEvent{Station: station, Time: t.Truncate(time.Minute), Type: model.TideHigh, Height: round1(meanLevel + a)}
		if !high {
			ev.Type = model.TideLow
			ev.Height = round1(meanLevel - a)
		}
		evs = append(evs, ev)
	}
	return tide.GroupByDay(evs)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
