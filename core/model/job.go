package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service is the kind of work order.
type Service string

const (
	Launch    Service = "Launch"
	Haul      Service = "Haul"
	Sandblast Service = "Sandblast"
	Paint     Service = "Paint"
)

// Services lists every known service.
var Services = []Service{Launch, Haul, Sandblast, Paint}

// ParseService parses a service name case-insensitively.
func ParseService(s string) (Service, error) {
	for _, svc := range Services {
		if strings.EqualFold(string(svc), strings.TrimSpace(s)) {
			return svc, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", s)
}

// UsesRamp reports whether the service moves the boat through a ramp. Yard
// work happens at the storage address and ignores tides.
func (s Service) UsesRamp() bool { return s == Launch || s == Haul }

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	StatusScheduled JobStatus = "Scheduled"
	StatusParked    JobStatus = "Parked"
	StatusCancelled JobStatus = "Cancelled"
)

// ParseJobStatus parses a stored status.
func ParseJobStatus(s string) (JobStatus, error) {
	for _, st := range []JobStatus{StatusScheduled, StatusParked, StatusCancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Stop is a pickup or dropoff point: either a ramp or a street address.
type Stop struct {
	RampID   int64  `json:"ramp_id,omitempty"`
	Address  string `json:"address,omitempty"`
	Location LatLon `json:"location"`
}

// IsRamp reports whether the stop is a ramp.
func (s Stop) IsRamp() bool { return s.RampID != 0 }

// Job is a work order assigned to a hauler and optionally the crane.
type Job struct {
	ID               int64     `json:"id"`
	CustomerID       int64     `json:"customer_id"`
	BoatID           int64     `json:"boat_id"`
	Service          Service   `json:"service"`
	Start            time.Time `json:"start,omitempty"`
	End              time.Time `json:"end,omitempty"`
	HaulerTruckID    int64     `json:"hauler_truck_id,omitempty"`
	CraneTruckID     int64     `json:"crane_truck_id,omitempty"`
	CraneBusyEnd     time.Time `json:"crane_busy_end,omitempty"`
	Pickup           Stop      `json:"pickup"`
	Dropoff          Stop      `json:"dropoff"`
	Status           JobStatus `json:"status"`
	OverrideConflict bool      `json:"override_conflict,omitempty"`
}

// HasCrane reports whether the crane truck is assigned.
func (j Job) HasCrane() bool { return j.CraneTruckID != 0 }

// RampID returns the ramp the job goes through, or 0 for yard work.
func (j Job) RampID() int64 {
	if j.Dropoff.IsRamp() {
		return j.Dropoff.RampID
	}
	return j.Pickup.RampID
}

// RampLocation returns the coordinates of the ramp stop.
func (j Job) RampLocation() LatLon {
	if j.Dropoff.IsRamp() {
		return j.Dropoff.Location
	}
	return j.Pickup.Location
}

// Interval returns the hauler interval.
func (j Job) Interval() Interval { return Interval{Start: j.Start, End: j.End} }

// CraneInterval returns the crane interval. It is empty without a crane.
func (j Job) CraneInterval() Interval {
	if !j.HasCrane() {
		return Interval{}
	}
	return Interval{Start: j.Start, End: j.CraneBusyEnd}
}

// Validate checks the timing invariants of a scheduled job.
func (j Job) Validate() error {
	if j.Status != StatusScheduled {
		return nil
	}
	if j.HaulerTruckID == 0 {
		return errors.New("scheduled job requires a hauling truck")
	}
	if !j.Start.Before(j.End) {
		return fmt.Errorf("job start %s not before end %s", j.Start, j.End)
	}
	if j.HasCrane() && j.CraneBusyEnd.Before(j.Start) {
		return fmt.Errorf("crane busy end %s before start %s", j.CraneBusyEnd, j.Start)
	}
	return nil
}
