package tide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
)

func ht(day time.Time, clock string) model.TideEvent {
	c, err := model.ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return model.TideEvent{Station: "8445138", Time: model.At(day, c), Type: model.TideHigh, Height: 9.5}
}

func lt(day time.Time, clock string) model.TideEvent {
	ev := ht(day, clock)
	ev.Type = model.TideLow
	ev.Height = 0.4
	return ev
}

func draft(ft float64) *float64 { return &ft }

func TestWindowsRules(t *testing.T) {
	day := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	events := []model.TideEvent{ht(day, "02:30"), lt(day, "08:40"), ht(day, "14:30"), lt(day, "20:50")}
	wholeDay := []model.Interval{{Start: day, End: day.Add(24 * time.Hour)}}
	at := func(c string) time.Time {
		d, _ := model.ParseClock(c)
		return day.Add(d)
	}

	tests := []struct {
		name  string
		rule  model.TideRule
		draft *float64
		want  []model.Interval
	}{
		{"any tide", model.TideRule{Kind: model.AnyTide}, draft(6), wholeDay},
		{"draft rule shallow", model.TideRule{Kind: model.AnyTideWithDraftRule}, draft(4.9), wholeDay},
		{"draft rule unknown draft", model.TideRule{Kind: model.AnyTideWithDraftRule}, nil, wholeDay},
		{"draft rule deep", model.TideRule{Kind: model.AnyTideWithDraftRule}, draft(5.0), []model.Interval{
			{Start: day, End: at("05:30")}, {Start: at("11:30"), End: at("17:30")},
		}},
		{"hours around HT", model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 3}, nil, []model.Interval{
			{Start: day, End: at("05:30")}, {Start: at("11:30"), End: at("17:30")},
		}},
		{"hours around HT with draft rule shallow", model.TideRule{Kind: model.HoursAroundHighTideWithDraftRule}, draft(3), []model.Interval{
			{Start: day, End: at("06:00")}, {Start: at("11:00"), End: at("18:00")},
		}},
		{"hours around HT with draft rule deep", model.TideRule{Kind: model.HoursAroundHighTideWithDraftRule}, draft(6), []model.Interval{
			{Start: day, End: at("05:30")}, {Start: at("11:30"), End: at("17:30")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Windows(tt.rule, tt.draft, day, events))
		})
	}
}

func TestWindowsZeroOffsetIsZeroWidth(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	w := Windows(model.TideRule{Kind: model.HoursAroundHighTide}, nil, day, []model.TideEvent{ht(day, "11:00")})
	require.Len(t, w, 1)
	assert.Equal(t, time.Duration(0), w[0].Duration())
	assert.Equal(t, day.Add(11*time.Hour), w[0].Start)
}

func TestWindowsTidalWithoutEvents(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Windows(model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 3}, nil, day, nil))
}

func TestWindowsIgnoreOtherDays(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TideEvent{ht(day.AddDate(0, 0, 1), "01:00"), ht(day, "23:00")}
	w := Windows(model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 3}, nil, day, events)
	require.Len(t, w, 1)
	assert.Equal(t, day.Add(20*time.Hour), w[0].Start)
	assert.Equal(t, day.Add(24*time.Hour), w[0].End)
}

func TestWindowsMergeOverlaps(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []model.TideEvent{ht(day, "10:00"), ht(day, "12:00")}
	w := Windows(model.TideRule{Kind: model.HoursAroundHighTide, OffsetHours: 2}, nil, day, events)
	require.Len(t, w, 1)
	assert.Equal(t, day.Add(8*time.Hour), w[0].Start)
	assert.Equal(t, day.Add(14*time.Hour), w[0].End)
	assert.Equal(t, 6*time.Hour, Longest(w))
}
