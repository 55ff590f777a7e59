package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/haulplan/core/model"
)

func TestSuitableTrucks(t *testing.T) {
	trucks := []model.Truck{
		{ID: 1, Name: "S23/55", MaxBoatLength: 60},
		{ID: 2, Name: "S20/33", MaxBoatLength: 40},
		{ID: 3, Name: "S17", MaxBoatLength: 70, IsCrane: true},
		{ID: 4, Name: "S21/77", MaxBoatLength: 28},
	}

	got := SuitableTrucks(trucks, 30, "", false)
	assert.Equal(t, []string{"S20/33", "S23/55"}, names(got), "tightest fit first, crane excluded")

	got = SuitableTrucks(trucks, 25, "s23/55", false)
	assert.Equal(t, []string{"S23/55", "S21/77", "S20/33"}, names(got))

	got = SuitableTrucks(trucks, 25, "S23/55", true)
	assert.Equal(t, []string{"S23/55"}, names(got))

	got = SuitableTrucks(trucks, 35, "S21/77", true)
	assert.Equal(t, []string{"S20/33", "S23/55"}, names(got), "forced preference that does not fit is ignored")

	assert.Empty(t, SuitableTrucks(trucks, 65, "", false))
}

func TestEligibleRamps(t *testing.T) {
	ramps := []model.Ramp{
		{ID: 1, AllowedBoatTypes: []model.BoatType{model.Powerboat}},
		{ID: 2, AllowedBoatTypes: []model.BoatType{model.Powerboat, model.SailboatDT}},
	}
	got := EligibleRamps(model.Boat{Type: model.SailboatDT}, ramps)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	got = EligibleRamps(model.Boat{Type: model.SailboatMT}, ramps)
	assert.Len(t, got, 2, "falls back to every ramp")
}

func TestCraneTruck(t *testing.T) {
	trucks := []model.Truck{{ID: 1, Name: "S20"}, {ID: 2, Name: "C9", IsCrane: true}, {ID: 3, Name: "S17", IsCrane: true}}
	c, ok := craneTruck(trucks, "S17")
	assert.True(t, ok)
	assert.Equal(t, int64(3), c.ID)

	c, ok = craneTruck(trucks, "missing")
	assert.True(t, ok)
	assert.Equal(t, int64(2), c.ID)

	_, ok = craneTruck(trucks[:1], "S17")
	assert.False(t, ok)
}

func TestRulesAndPlan(t *testing.T) {
	assert.Equal(t, BookingRule{Hauler: 90 * time.Minute}, RuleFor(model.Powerboat))
	assert.Equal(t, 60*time.Minute, RuleFor(model.SailboatDT).Crane)
	assert.Equal(t, 90*time.Minute, RuleFor(model.SailboatMT).Crane)

	sail := model.Boat{Type: model.SailboatDT}
	assert.True(t, NeedsCrane(sail, model.Launch))
	assert.True(t, NeedsCrane(sail, model.Haul))
	assert.False(t, NeedsCrane(sail, model.Paint))
	assert.False(t, NeedsCrane(model.Boat{Type: model.Powerboat}, model.Launch))

	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, dayPlan{forward: true, edge: 9 * time.Hour}, cfg.planFor(date(2025, 7, 31), false))
	assert.Equal(t, dayPlan{forward: true, edge: 7 * time.Hour}, cfg.planFor(date(2025, 4, 1), true))
	assert.Equal(t, dayPlan{edge: 15 * time.Hour}, cfg.planFor(date(2025, 8, 1), false))
	assert.Equal(t, dayPlan{edge: 16 * time.Hour}, cfg.planFor(date(2025, 3, 20), true))
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "S17", cfg.CraneTruckName)
	assert.Equal(t, 15*time.Minute, cfg.Tick())

	bad := cfg
	bad.LaunchLastMonth = 13
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.TickMinutes = 0
	assert.Error(t, bad.Validate())
}

func names(ts []model.Truck) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
