package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

// MemoryStore is an in-process Repository. A single mutex serializes every
// write, which makes CommitJob race-safe. It backs tests and the simulator.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	trucks    map[int64]model.Truck
	ramps     map[int64]model.Ramp
	customers map[int64]model.Customer
	boats     map[int64]model.Boat
	hours     map[int64]model.WeekHours
	jobs      map[int64]model.Job
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trucks:    map[int64]model.Truck{},
		ramps:     map[int64]model.Ramp{},
		customers: map[int64]model.Customer{},
		boats:     map[int64]model.Boat{},
		hours:     map[int64]model.WeekHours{},
		jobs:      map[int64]model.Job{},
	}
}

func (s *MemoryStore) id(cur int64) int64 {
	if cur != 0 {
		if cur > s.nextID {
			s.nextID = cur
		}
		return cur
	}
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) ListTrucks(context.Context) ([]model.Truck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Truck, 0, len(s.trucks))
	for _, t := range s.trucks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveTruck(_ context.Context, t *model.Truck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.trucks {
		if other.Name == t.Name && other.ID != t.ID {
			return fmt.Errorf("truck %q already exists", t.Name)
		}
	}
	t.ID = s.id(t.ID)
	s.trucks[t.ID] = *t
	return nil
}

func (s *MemoryStore) ListRamps(context.Context) ([]model.Ramp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Ramp, 0, len(s.ramps))
	for _, r := range s.ramps {
		out = append(out, copyRamp(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetRamp(_ context.Context, id int64) (model.Ramp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ramps[id]
	if !ok {
		return model.Ramp{}, fmt.Errorf("ramp %d: %w", id, ErrNotFound)
	}
	return copyRamp(r), nil
}

func (s *MemoryStore) SaveRamp(_ context.Context, r *model.Ramp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id(r.ID)
	s.ramps[r.ID] = copyRamp(*r)
	return nil
}

func (s *MemoryStore) ListCustomers(context.Context) ([]model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetCustomer(_ context.Context, id int64) (model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return model.Customer{}, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) SaveCustomer(_ context.Context, c *model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id(c.ID)
	s.customers[c.ID] = *c
	return nil
}

func (s *MemoryStore) ListBoats(context.Context) ([]model.Boat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Boat, 0, len(s.boats))
	for _, b := range s.boats {
		out = append(out, copyBoat(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetBoat(_ context.Context, id int64) (model.Boat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boats[id]
	if !ok {
		return model.Boat{}, fmt.Errorf("boat %d: %w", id, ErrNotFound)
	}
	return copyBoat(b), nil
}

func (s *MemoryStore) SaveBoat(_ context.Context, b *model.Boat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[b.CustomerID]; !ok {
		return fmt.Errorf("boat owner %d: %w", b.CustomerID, ErrNotFound)
	}
	b.ID = s.id(b.ID)
	s.boats[b.ID] = copyBoat(*b)
	return nil
}

func (s *MemoryStore) ListTruckHours(context.Context) (map[int64]model.WeekHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]model.WeekHours, len(s.hours))
	for id, h := range s.hours {
		cp := make(model.WeekHours, len(h))
		for d, sh := range h {
			cp[d] = sh
		}
		out[id] = cp
	}
	return out, nil
}

func (s *MemoryStore) SetTruckHours(_ context.Context, truckID int64, hours model.WeekHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trucks[truckID]; !ok {
		return fmt.Errorf("truck %d: %w", truckID, ErrNotFound)
	}
	cp := make(model.WeekHours, len(hours))
	for d, sh := range hours {
		cp[d] = sh
	}
	s.hours[truckID] = cp
	return nil
}

func (s *MemoryStore) ListJobs(_ context.Context, f JobFilter) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Job
	for _, j := range s.jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	sortJobs(out)
	return out, nil
}

func (s *MemoryStore) GetJob(_ context.Context, id int64) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return j, nil
}

func (s *MemoryStore) CommitJob(_ context.Context, job model.Job, removeParkedID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if removeParkedID != 0 {
		parked, ok := s.jobs[removeParkedID]
		if !ok {
			return 0, fmt.Errorf("parked job %d: %w", removeParkedID, ErrNotFound)
		}
		if parked.Status != model.StatusParked {
			return 0, fmt.Errorf("job %d is %s: %w", removeParkedID, parked.Status, ErrInvalidState)
		}
	}
	existing := make([]model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		existing = append(existing, j)
	}
	job.ID = 0
	if Clashes(job, existing) {
		return 0, ErrSlotTaken
	}
	job.ID = s.id(0)
	s.jobs[job.ID] = job
	if removeParkedID != 0 {
		delete(s.jobs, removeParkedID)
	}
	return job.ID, nil
}

func (s *MemoryStore) ParkJob(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if j.Status != model.StatusScheduled {
		return fmt.Errorf("job %d is %s: %w", id, j.Status, ErrInvalidState)
	}
	s.jobs[id] = Park(j)
	return nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Park returns j moved to Parked: times and truck assignments are cleared,
// identity and request context are kept.
func Park(j model.Job) model.Job {
	j.Status = model.StatusParked
	j.Start, j.End, j.CraneBusyEnd = time.Time{}, time.Time{}, time.Time{}
	j.HaulerTruckID, j.CraneTruckID = 0, 0
	return j
}

func sortJobs(js []model.Job) {
	sort.Slice(js, func(i, j int) bool {
		if !js[i].Start.Equal(js[j].Start) {
			return js[i].Start.Before(js[j].Start)
		}
		return js[i].ID < js[j].ID
	})
}

func copyRamp(r model.Ramp) model.Ramp {
	r.AllowedBoatTypes = append([]model.BoatType(nil), r.AllowedBoatTypes...)
	return r
}

func copyBoat(b model.Boat) model.Boat {
	if b.DraftFt != nil {
		d := *b.DraftFt
		b.DraftFt = &d
	}
	return b
}
