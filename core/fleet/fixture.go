// Package fleet loads yard fixtures (trucks, ramps, customers and their
// boats) from YAML or JSON and applies them to a repository.
package fleet

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/haulplan/core/model"
)

// Fixture is the serialized description of a yard.
type Fixture struct {
	Trucks    []TruckSpec    `json:"trucks" yaml:"trucks"`
	Ramps     []RampSpec     `json:"ramps" yaml:"ramps"`
	Customers []CustomerSpec `json:"customers" yaml:"customers"`
}

// TruckSpec describes a truck and its weekly hours keyed by weekday name.
type TruckSpec struct {
	Name          string            `json:"name" yaml:"name"`
	MaxBoatLength float64           `json:"max_boat_length" yaml:"max_boat_length"`
	IsCrane       bool              `json:"is_crane" yaml:"is_crane"`
	Hours         map[string]string `json:"hours" yaml:"hours"`
}

// RampSpec describes a ramp. AllowedBoatTypes accepts the names understood by
// model.ParseBoatType.
type RampSpec struct {
	Name             string       `json:"name" yaml:"name"`
	StationID        string       `json:"station_id" yaml:"station_id"`
	Location         model.LatLon `json:"location" yaml:"location"`
	TideRule         string       `json:"tide_rule" yaml:"tide_rule"`
	OffsetHours      float64      `json:"offset_hours" yaml:"offset_hours"`
	AllowedBoatTypes []string     `json:"allowed_boat_types" yaml:"allowed_boat_types"`
}

// CustomerSpec describes a customer and the boats they own.
type CustomerSpec struct {
	Name  string     `json:"name" yaml:"name"`
	Boats []BoatSpec `json:"boats" yaml:"boats"`
}

// BoatSpec describes a boat. Preferred ramp and truck are referenced by name.
type BoatSpec struct {
	Name           string       `json:"name" yaml:"name"`
	Type           string       `json:"type" yaml:"type"`
	LengthFt       float64      `json:"length_ft" yaml:"length_ft"`
	DraftFt        *float64     `json:"draft_ft,omitempty" yaml:"draft_ft,omitempty"`
	StorageAddress string       `json:"storage_address" yaml:"storage_address"`
	Storage        model.LatLon `json:"storage" yaml:"storage"`
	PreferredRamp  string       `json:"preferred_ramp,omitempty" yaml:"preferred_ramp,omitempty"`
	PreferredTruck string       `json:"preferred_truck,omitempty" yaml:"preferred_truck,omitempty"`
	ECM            bool         `json:"ecm" yaml:"ecm"`
}

// Load reads a fixture from a .yaml, .yml or .json file.
func Load(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	fx, err := Decode(f, ext)
	if err != nil {
		return fx, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fx, nil
}

// Decode reads a fixture in the given format ("yaml", "yml" or "json") and validates it.
func Decode(r io.Reader, format string) (Fixture, error) {
	var fx Fixture
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&fx); err != nil {
			return fx, err
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fx); err != nil {
			return fx, err
		}
	default:
		return fx, fmt.Errorf("unsupported format: %s", format)
	}
	return fx, fx.Validate()
}

// Validate checks names, enums and cross references.
func (f Fixture) Validate() error {
	trucks := map[string]bool{}
	for _, t := range f.Trucks {
		if t.Name == "" {
			return fmt.Errorf("truck without name")
		}
		if trucks[t.Name] {
			return fmt.Errorf("duplicate truck %q", t.Name)
		}
		trucks[t.Name] = true
		if _, err := model.ParseWeekHours(t.Hours); err != nil {
			return fmt.Errorf("truck %q: %w", t.Name, err)
		}
	}
	ramps := map[string]bool{}
	for _, r := range f.Ramps {
		if _, err := r.ramp(); err != nil {
			return err
		}
		if ramps[r.Name] {
			return fmt.Errorf("duplicate ramp %q", r.Name)
		}
		ramps[r.Name] = true
	}
	for _, c := range f.Customers {
		for _, b := range c.Boats {
			if _, err := model.ParseBoatType(b.Type); err != nil {
				return fmt.Errorf("boat %q: %w", b.Name, err)
			}
			if b.LengthFt <= 0 {
				return fmt.Errorf("boat %q: length must be positive", b.Name)
			}
			if b.PreferredRamp != "" && !ramps[b.PreferredRamp] {
				return fmt.Errorf("boat %q: unknown ramp %q", b.Name, b.PreferredRamp)
			}
			if b.PreferredTruck != "" && !trucks[b.PreferredTruck] {
				return fmt.Errorf("boat %q: unknown truck %q", b.Name, b.PreferredTruck)
			}
		}
	}
	return nil
}

func (r RampSpec) ramp() (model.Ramp, error) {
	if r.Name == "" {
		return model.Ramp{}, fmt.Errorf("ramp without name")
	}
	rule := "AnyTide"
	if r.TideRule != "" {
		rule = r.TideRule
	}
	kind, err := model.ParseTideRuleKind(rule)
	if err != nil {
		return model.Ramp{}, fmt.Errorf("ramp %q: %w", r.Name, err)
	}
	if kind != model.AnyTide && r.StationID == "" {
		return model.Ramp{}, fmt.Errorf("ramp %q: tidal rule requires station_id", r.Name)
	}
	types, err := model.ParseBoatTypeList(strings.Join(r.AllowedBoatTypes, ","))
	if err != nil {
		return model.Ramp{}, fmt.Errorf("ramp %q: %w", r.Name, err)
	}
	return model.Ramp{
		Name:             r.Name,
		StationID:        r.StationID,
		Location:         r.Location,
		Rule:             model.TideRule{Kind: kind, OffsetHours: r.OffsetHours},
		AllowedBoatTypes: types,
	}, nil
}
