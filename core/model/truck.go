package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Truck is a hauling truck or the crane truck of the fleet.
type Truck struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	MaxBoatLength float64 `json:"max_boat_length"` // feet
	IsCrane       bool    `json:"is_crane"`
}

// Fits reports whether the truck can haul a boat of the given length.
func (t Truck) Fits(lengthFt float64) bool { return t.MaxBoatLength >= lengthFt }

// Shift is a daily working window expressed as offsets from midnight.
type Shift struct {
	Open  time.Duration `json:"open"`
	Close time.Duration `json:"close"`
}

// On returns the shift as an interval on day.
func (s Shift) On(day time.Time) Interval {
	return Interval{Start: At(day, s.Open), End: At(day, s.Close)}
}

func (s Shift) String() string { return FormatClock(s.Open) + "-" + FormatClock(s.Close) }

// WeekHours maps weekdays to the truck shift. A missing weekday means the
// truck is off duty that day.
type WeekHours map[time.Weekday]Shift

// ShiftOn returns the shift for the weekday of day.
func (w WeekHours) ShiftOn(day time.Time) (Shift, bool) {
	s, ok := w[day.UTC().Weekday()]
	return s, ok
}

// WeekdayIndex converts a weekday to the storage index where Monday is 0.
func WeekdayIndex(d time.Weekday) int { return (int(d) + 6) % 7 }

// WeekdayFromIndex converts a storage index (Monday is 0) to a weekday.
func WeekdayFromIndex(i int) (time.Weekday, error) {
	if i < 0 || i > 6 {
		return 0, fmt.Errorf("day_of_week %d out of range 0..6", i)
	}
	return time.Weekday((i + 1) % 7), nil
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseWeekHours builds WeekHours from day names mapped to "HH:MM-HH:MM".
// Empty values and "off" mark a day off.
func ParseWeekHours(in map[string]string) (WeekHours, error) {
	out := WeekHours{}
	for name, span := range in {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		span = strings.TrimSpace(span)
		if span == "" || strings.EqualFold(span, "off") {
			continue
		}
		open, closing, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("invalid hours %q for %s", span, name)
		}
		o, err := ParseClock(open)
		if err != nil {
			return nil, err
		}
		c, err := ParseClock(closing)
		if err != nil {
			return nil, err
		}
		if c <= o {
			return nil, fmt.Errorf("hours %q for %s close before they open", span, name)
		}
		out[day] = Shift{Open: o, Close: c}
	}
	return out, nil
}

// Format renders the hours keyed by lower-case weekday name, in week order.
func (w WeekHours) Format() map[string]string {
	out := make(map[string]string, 7)
	days := make([]time.Weekday, 0, len(w))
	for d := range w {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return WeekdayIndex(days[i]) < WeekdayIndex(days[j]) })
	for _, d := range days {
		out[strings.ToLower(d.String())] = w[d].String()
	}
	return out
}
