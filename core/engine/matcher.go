package engine

import (
	"sort"
	"strings"

	"github.com/kilianp07/haulplan/core/model"
)

// SuitableTrucks returns the non-crane trucks able to carry a boat of the
// given length, ordered by match quality: the preferred truck first, then the
// tightest fit. When force is set and the preferred truck fits, only it is returned.
func SuitableTrucks(trucks []model.Truck, boatLen float64, preferred string, force bool) []model.Truck {
	var out []model.Truck
	for _, t := range trucks {
		if t.IsCrane || !t.Fits(boatLen) {
			continue
		}
		out = append(out, t)
	}
	isPreferred := func(t model.Truck) bool {
		return preferred != "" && strings.EqualFold(t.Name, preferred)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := isPreferred(out[i]), isPreferred(out[j])
		if pi != pj {
			return pi
		}
		if out[i].MaxBoatLength != out[j].MaxBoatLength {
			return out[i].MaxBoatLength < out[j].MaxBoatLength
		}
		return out[i].Name < out[j].Name
	})
	if force && len(out) > 0 && isPreferred(out[0]) {
		return out[:1]
	}
	return out
}

// EligibleRamps returns the ramps accepting the boat type, or every ramp when none does.
func EligibleRamps(b model.Boat, ramps []model.Ramp) []model.Ramp {
	var out []model.Ramp
	for _, r := range ramps {
		if r.Accepts(b.Type) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return append([]model.Ramp(nil), ramps...)
	}
	return out
}

// craneTruck picks the fleet crane by name, falling back to the first crane truck.
func craneTruck(trucks []model.Truck, name string) (model.Truck, bool) {
	var first *model.Truck
	for i, t := range trucks {
		if !t.IsCrane {
			continue
		}
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
		if first == nil {
			first = &trucks[i]
		}
	}
	if first != nil {
		return *first, true
	}
	return model.Truck{}, false
}

func truckNames(trucks []model.Truck) string {
	names := make([]string, len(trucks))
	for i, t := range trucks {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
