package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/core/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "haulplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return openTemp(t) })
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "haulplan.db")
	s, err := Open(path)
	require.NoError(t, err)
	tr := model.Truck{Name: "S17", IsCrane: true}
	require.NoError(t, s.SaveTruck(ctx, &tr))
	require.NoError(t, s.SetTruckHours(ctx, tr.ID, model.WeekHours{time.Friday: {Open: 7 * time.Hour, Close: 16 * time.Hour}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	trucks, err := s.ListTrucks(ctx)
	require.NoError(t, err)
	require.Len(t, trucks, 1)
	assert.Equal(t, "S17", trucks[0].Name)
	hours, err := s.ListTruckHours(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16*time.Hour, hours[tr.ID][time.Friday].Close)
}

func TestStoredTimesAreUTC(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	c := model.Customer{Name: "Kai"}
	require.NoError(t, s.SaveCustomer(ctx, &c))

	est := time.FixedZone("EST", -5*3600)
	start := time.Date(2025, 5, 12, 4, 0, 0, 0, est)
	id, err := s.CommitJob(ctx, model.Job{
		CustomerID: c.ID, BoatID: 1, Service: model.Sandblast, Status: model.StatusScheduled,
		HaulerTruckID: 3, Start: start, End: start.Add(time.Hour),
	}, 0)
	require.NoError(t, err)
	j, err := s.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, j.Start.Location())
	assert.True(t, j.Start.Equal(start))

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT start_at FROM jobs WHERE id = ?`, id).Scan(&raw))
	assert.Equal(t, "2025-05-12 09:00:00", raw)
}
