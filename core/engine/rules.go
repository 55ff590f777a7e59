package engine

import (
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// BookingRule holds how long a job keeps the hauler and the crane busy.
type BookingRule struct {
	Hauler time.Duration
	Crane  time.Duration
}

var bookingRules = map[model.BoatType]BookingRule{
	model.Powerboat:  {Hauler: 90 * time.Minute},
	model.SailboatDT: {Hauler: 180 * time.Minute, Crane: 60 * time.Minute},
	model.SailboatMT: {Hauler: 180 * time.Minute, Crane: 90 * time.Minute},
}

// RuleFor returns the booking rule for a boat type. Unknown types book as powerboats.
func RuleFor(t model.BoatType) BookingRule {
	if r, ok := bookingRules[t]; ok {
		return r
	}
	return bookingRules[model.Powerboat]
}

// NeedsCrane reports whether the job requires the crane at the ramp.
func NeedsCrane(b model.Boat, svc model.Service) bool {
	return svc.UsesRamp() && b.Type.IsSailboat() && RuleFor(b.Type).Crane > 0
}

// Day edges. ECM boats get the earliest launch and the latest haul starts.
const (
	launchStart    = 9 * time.Hour
	launchStartECM = 7 * time.Hour
	haulStart      = 15 * time.Hour
	haulStartECM   = 16 * time.Hour
)

// dayPlan is the walking direction and the edge that bounds candidate starts.
type dayPlan struct {
	forward bool
	edge    time.Duration
}

func (c Config) planFor(day time.Time, ecm bool) dayPlan {
	if c.LaunchSeason().Contains(day.Month()) {
		if ecm {
			return dayPlan{forward: true, edge: launchStartECM}
		}
		return dayPlan{forward: true, edge: launchStart}
	}
	if ecm {
		return dayPlan{edge: haulStartECM}
	}
	return dayPlan{edge: haulStart}
}

// route resolves pickup and dropoff for the service direction.
func route(b model.Boat, r model.Ramp, svc model.Service) (model.Stop, model.Stop) {
	storage := model.Stop{Address: b.StorageAddress, Location: b.Storage}
	ramp := model.Stop{RampID: r.ID, Address: r.Name, Location: r.Location}
	switch svc {
	case model.Launch:
		return storage, ramp
	case model.Haul:
		return ramp, storage
	default:
		return storage, storage
	}
}
