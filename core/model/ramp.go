package model

import (
	"fmt"
	"strings"
)

// TideRuleKind is the closed set of ramp usability rules.
type TideRuleKind int

const (
	AnyTide TideRuleKind = iota
	AnyTideWithDraftRule
	HoursAroundHighTide
	HoursAroundHighTideWithDraftRule
)

var tideRuleNames = map[TideRuleKind]string{
	AnyTide:                          "AnyTide",
	AnyTideWithDraftRule:             "AnyTideWithDraftRule",
	HoursAroundHighTide:              "HoursAroundHighTide",
	HoursAroundHighTideWithDraftRule: "HoursAroundHighTide_WithDraftRule",
}

func (k TideRuleKind) String() string {
	if s, ok := tideRuleNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TideRuleKind(%d)", int(k))
}

// ParseTideRuleKind parses the stored rule name. Matching ignores case and
// underscores.
func ParseTideRuleKind(s string) (TideRuleKind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for k, name := range tideRuleNames {
		if strings.ToLower(strings.ReplaceAll(name, "_", "")) == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown tide rule %q", s)
}

// TideRule decides when a ramp is usable. OffsetHours only applies to
// HoursAroundHighTide.
type TideRule struct {
	Kind        TideRuleKind `json:"kind"`
	OffsetHours float64      `json:"offset_hours,omitempty"`
}

// Tidal reports whether the rule can restrict usage to tide windows.
func (r TideRule) Tidal() bool { return r.Kind != AnyTide }

// String describes the rule for dispatchers reading a slot.
func (r TideRule) String() string {
	switch r.Kind {
	case AnyTide:
		return "Any tide"
	case AnyTideWithDraftRule:
		return "Any tide (draft >= 5.0 ft: HT +/- 3h)"
	case HoursAroundHighTide:
		return fmt.Sprintf("HT +/- %gh", r.OffsetHours)
	case HoursAroundHighTideWithDraftRule:
		return "HT +/- 3.5h (draft >= 5.0 ft: 3h)"
	}
	return r.Kind.String()
}

// Ramp is a launch ramp attached to a tide station.
type Ramp struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	StationID        string     `json:"station_id"`
	Location         LatLon     `json:"location"`
	Rule             TideRule   `json:"rule"`
	AllowedBoatTypes []BoatType `json:"allowed_boat_types"`
}

// Accepts reports whether boats of type t may use the ramp.
func (r Ramp) Accepts(t BoatType) bool {
	for _, a := range r.AllowedBoatTypes {
		if a == t {
			return true
		}
	}
	return false
}

// AcceptsSailboats reports whether any sailboat type may use the ramp.
func (r Ramp) AcceptsSailboats() bool {
	for _, a := range r.AllowedBoatTypes {
		if a.IsSailboat() {
			return true
		}
	}
	return false
}
