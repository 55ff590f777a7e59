package model

import (
	"fmt"
	"strings"
)

// BoatType classifies a boat for truck, ramp and crane rules.
type BoatType string

const (
	Powerboat BoatType = "Powerboat"
	// SailboatDT is a deck-stepped sailboat.
	SailboatDT BoatType = "Sailboat DT"
	// SailboatMT is a mast-through sailboat.
	SailboatMT BoatType = "Sailboat MT"
)

// BoatTypes lists every known boat type.
var BoatTypes = []BoatType{Powerboat, SailboatDT, SailboatMT}

// IsSailboat reports whether the type needs the crane for launch and haul.
func (t BoatType) IsSailboat() bool { return t == SailboatDT || t == SailboatMT }

// ParseBoatType accepts the canonical names case-insensitively, with "_" or
// "-" in place of the space.
func ParseBoatType(s string) (BoatType, error) {
	norm := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s)))
	for _, t := range BoatTypes {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown boat type %q", s)
}

// Boat is a customer's boat.
type Boat struct {
	ID               int64    `json:"id"`
	CustomerID       int64    `json:"customer_id"`
	Name             string   `json:"name"`
	Type             BoatType `json:"type"`
	LengthFt         float64  `json:"length_ft"`
	DraftFt          *float64 `json:"draft_ft,omitempty"`
	StorageAddress   string   `json:"storage_address"`
	Storage          LatLon   `json:"storage"`
	PreferredRampID  int64    `json:"preferred_ramp_id,omitempty"`
	PreferredTruckID int64    `json:"preferred_truck_id,omitempty"`
	IsECM            bool     `json:"is_ecm"`
}

// Customer owns boats.
type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FormatBoatTypes joins types with commas for storage.
func FormatBoatTypes(ts []BoatType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// ParseBoatTypeList parses a comma separated list. An empty string is an
// empty list.
func ParseBoatTypeList(s string) ([]BoatType, error) {
	var out []BoatType
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseBoatType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
