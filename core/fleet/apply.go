package fleet

import (
	"context"
	"fmt"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// Summary counts what Apply stored.
type Summary struct {
	Trucks    int
	Ramps     int
	Customers int
	Boats     int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d trucks, %d ramps, %d customers, %d boats", s.Trucks, s.Ramps, s.Customers, s.Boats)
}

// Apply validates the fixture and saves every entity. Rows already stored
// under the same name are updated in place: trucks, ramps and customers by
// name, boats by owner and name. Applying a fixture twice stores it once.
func Apply(ctx context.Context, repo store.Repository, f Fixture) (Summary, error) {
	var sum Summary
	if err := f.Validate(); err != nil {
		return sum, err
	}
	ids, err := loadIDs(ctx, repo)
	if err != nil {
		return sum, err
	}

	for _, spec := range f.Trucks {
		hours, err := model.ParseWeekHours(spec.Hours)
		if err != nil {
			return sum, fmt.Errorf("truck %q: %w", spec.Name, err)
		}
		t := model.Truck{ID: ids.trucks[spec.Name], Name: spec.Name, MaxBoatLength: spec.MaxBoatLength, IsCrane: spec.IsCrane}
		if err := repo.SaveTruck(ctx, &t); err != nil {
			return sum, err
		}
		if err := repo.SetTruckHours(ctx, t.ID, hours); err != nil {
			return sum, fmt.Errorf("truck %q hours: %w", t.Name, err)
		}
		ids.trucks[t.Name] = t.ID
		sum.Trucks++
	}

	for _, spec := range f.Ramps {
		r, err := spec.ramp()
		if err != nil {
			return sum, err
		}
		r.ID = ids.ramps[r.Name]
		if err := repo.SaveRamp(ctx, &r); err != nil {
			return sum, err
		}
		ids.ramps[r.Name] = r.ID
		sum.Ramps++
	}

	for _, cs := range f.Customers {
		c := model.Customer{ID: ids.customers[cs.Name], Name: cs.Name}
		if err := repo.SaveCustomer(ctx, &c); err != nil {
			return sum, err
		}
		ids.customers[c.Name] = c.ID
		sum.Customers++
		for _, bs := range cs.Boats {
			bt, err := model.ParseBoatType(bs.Type)
			if err != nil {
				return sum, fmt.Errorf("boat %q: %w", bs.Name, err)
			}
			key := boatKey{customer: c.ID, name: bs.Name}
			b := model.Boat{
				ID:               ids.boats[key],
				CustomerID:       c.ID,
				Name:             bs.Name,
				Type:             bt,
				LengthFt:         bs.LengthFt,
				DraftFt:          bs.DraftFt,
				StorageAddress:   bs.StorageAddress,
				Storage:          bs.Storage,
				PreferredRampID:  ids.ramps[bs.PreferredRamp],
				PreferredTruckID: ids.trucks[bs.PreferredTruck],
				IsECM:            bs.ECM,
			}
			if err := repo.SaveBoat(ctx, &b); err != nil {
				return sum, err
			}
			ids.boats[key] = b.ID
			sum.Boats++
		}
	}
	return sum, nil
}

type boatKey struct {
	customer int64
	name     string
}

type storedIDs struct {
	trucks    map[string]int64
	ramps     map[string]int64
	customers map[string]int64
	boats     map[boatKey]int64
}

func loadIDs(ctx context.Context, repo store.Repository) (storedIDs, error) {
	ids := storedIDs{
		trucks:    map[string]int64{},
		ramps:     map[string]int64{},
		customers: map[string]int64{},
		boats:     map[boatKey]int64{},
	}
	trucks, err := repo.ListTrucks(ctx)
	if err != nil {
		return ids, fmt.Errorf("list trucks: %w", err)
	}
	for _, t := range trucks {
		ids.trucks[t.Name] = t.ID
	}
	ramps, err := repo.ListRamps(ctx)
	if err != nil {
		return ids, fmt.Errorf("list ramps: %w", err)
	}
	for _, r := range ramps {
		ids.ramps[r.Name] = r.ID
	}
	customers, err := repo.ListCustomers(ctx)
	if err != nil {
		return ids, fmt.Errorf("list customers: %w", err)
	}
	for _, c := range customers {
		ids.customers[c.Name] = c.ID
	}
	boats, err := repo.ListBoats(ctx)
	if err != nil {
		return ids, fmt.Errorf("list boats: %w", err)
	}
	for _, b := range boats {
		ids.boats[boatKey{customer: b.CustomerID, name: b.Name}] = b.ID
	}
	return ids, nil
}
