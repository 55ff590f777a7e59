// Package sqlite implements the job repository on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

// timeLayout keeps stored instants lexically ordered.
const timeLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trucks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL UNIQUE,
    max_boat_length REAL NOT NULL,
    is_crane        INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS truck_schedules (
    truck_id    INTEGER NOT NULL REFERENCES trucks(id) ON DELETE CASCADE,
    day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
    start_time  TEXT NOT NULL,
    end_time    TEXT NOT NULL,
    PRIMARY KEY (truck_id, day_of_week)
);
CREATE TABLE IF NOT EXISTS ramps (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    name               TEXT NOT NULL,
    station_id         TEXT NOT NULL DEFAULT '',
    lat                REAL NOT NULL DEFAULT 0,
    lon                REAL NOT NULL DEFAULT 0,
    tide_rule          TEXT NOT NULL,
    tide_offset_hours  REAL NOT NULL DEFAULT 0,
    allowed_boat_types TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS boats (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id        INTEGER NOT NULL REFERENCES customers(id),
    name               TEXT NOT NULL,
    type               TEXT NOT NULL,
    length_ft          REAL NOT NULL,
    draft_ft           REAL,
    storage_address    TEXT NOT NULL DEFAULT '',
    storage_lat        REAL NOT NULL DEFAULT 0,
    storage_lon        REAL NOT NULL DEFAULT 0,
    preferred_ramp_id  INTEGER,
    preferred_truck_id INTEGER,
    is_ecm             INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS jobs (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id       INTEGER NOT NULL,
    boat_id           INTEGER NOT NULL,
    service           TEXT NOT NULL,
    status            TEXT NOT NULL,
    start_at          TEXT,
    end_at            TEXT,
    hauler_truck_id   INTEGER,
    crane_truck_id    INTEGER,
    crane_busy_end    TEXT,
    pickup_ramp_id    INTEGER,
    pickup_address    TEXT NOT NULL DEFAULT '',
    pickup_lat        REAL NOT NULL DEFAULT 0,
    pickup_lon        REAL NOT NULL DEFAULT 0,
    dropoff_ramp_id   INTEGER,
    dropoff_address   TEXT NOT NULL DEFAULT '',
    dropoff_lat       REAL NOT NULL DEFAULT 0,
    dropoff_lon       REAL NOT NULL DEFAULT 0,
    override_conflict INTEGER NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS jobs_truck_start ON jobs (hauler_truck_id, start_at) WHERE status = 'Scheduled';
CREATE INDEX IF NOT EXISTS jobs_boat_service ON jobs (boat_id, service, status);
`

// Store persists the fleet, ramps, boats and jobs in SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Repository = (*Store)(nil)

// Open opens or creates the database file and ensures the schema. A single
// connection serializes writers, so CommitJob needs no extra locking.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite %s: %w", path, err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ListTrucks(ctx context.Context) ([]model.Truck, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, max_boat_length, is_crane FROM trucks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Truck
	for rows.Next() {
		var t model.Truck
		if err := rows.Scan(&t.ID, &t.Name, &t.MaxBoatLength, &t.IsCrane); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) SaveTruck(ctx context.Context, t *model.Truck) error {
	if t.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO trucks (name, max_boat_length, is_crane) VALUES (?, ?, ?)`,
			t.Name, t.MaxBoatLength, t.IsCrane)
		if err != nil {
			return fmt.Errorf("insert truck %q: %w", t.Name, err)
		}
		t.ID, err = res.LastInsertId()
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO trucks (id, name, max_boat_length, is_crane) VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name,
            max_boat_length = excluded.max_boat_length, is_crane = excluded.is_crane`,
		t.ID, t.Name, t.MaxBoatLength, t.IsCrane)
	if err != nil {
		return fmt.Errorf("save truck %q: %w", t.Name, err)
	}
	return nil
}

const rampColumns = `id, name, station_id, lat, lon, tide_rule, tide_offset_hours, allowed_boat_types`

func scanRamp(sc interface{ Scan(...any) error }) (model.Ramp, error) {
	var (
		r     model.Ramp
		rule  string
		types string
	)
	if err := sc.Scan(&r.ID, &r.Name, &r.StationID, &r.Location.Lat, &r.Location.Lon, &rule, &r.Rule.OffsetHours, &types); err != nil {
		return r, err
	}
	kind, err := model.ParseTideRuleKind(rule)
	if err != nil {
		return r, fmt.Errorf("ramp %d: %w", r.ID, err)
	}
	r.Rule.Kind = kind
	if r.AllowedBoatTypes, err = model.ParseBoatTypeList(types); err != nil {
		return r, fmt.Errorf("ramp %d: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) ListRamps(ctx context.Context) ([]model.Ramp, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rampColumns+` FROM ramps ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Ramp
	for rows.Next() {
		r, err := scanRamp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRamp(ctx context.Context, id int64) (model.Ramp, error) {
	r, err := scanRamp(s.db.QueryRowContext(ctx, `SELECT `+rampColumns+` FROM ramps WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("ramp %d: %w", id, store.ErrNotFound)
	}
	return r, err
}

func (s *Store) SaveRamp(ctx context.Context, r *model.Ramp) error {
	args := []any{r.Name, r.StationID, r.Location.Lat, r.Location.Lon, r.Rule.Kind.String(), r.Rule.OffsetHours,
		model.FormatBoatTypes(r.AllowedBoatTypes)}
	if r.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO ramps (name, station_id, lat, lon, tide_rule, tide_offset_hours, allowed_boat_types)
            VALUES (?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert ramp %q: %w", r.Name, err)
		}
		r.ID, err = res.LastInsertId()
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO ramps (`+rampColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, station_id = excluded.station_id,
            lat = excluded.lat, lon = excluded.lon, tide_rule = excluded.tide_rule,
            tide_offset_hours = excluded.tide_offset_hours, allowed_boat_types = excluded.allowed_boat_types`,
		append([]any{r.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("save ramp %q: %w", r.Name, err)
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (model.Customer, error) {
	var c model.Customer
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM customers WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return c, err
}

func (s *Store) SaveCustomer(ctx context.Context, c *model.Customer) error {
	if c.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO customers (name) VALUES (?)`, c.Name)
		if err != nil {
			return err
		}
		c.ID, err = res.LastInsertId()
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO customers (id, name) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name`, c.ID, c.Name)
	return err
}

const boatColumns = `id, customer_id, name, type, length_ft, draft_ft, storage_address, storage_lat, storage_lon,
    preferred_ramp_id, preferred_truck_id, is_ecm`

func scanBoat(sc interface{ Scan(...any) error }) (model.Boat, error) {
	var (
		b           model.Boat
		typ         string
		draft       sql.NullFloat64
		ramp, truck sql.NullInt64
	)
	if err := sc.Scan(&b.ID, &b.CustomerID, &b.Name, &typ, &b.LengthFt, &draft, &b.StorageAddress,
		&b.Storage.Lat, &b.Storage.Lon, &ramp, &truck, &b.IsECM); err != nil {
		return b, err
	}
	bt, err := model.ParseBoatType(typ)
	if err != nil {
		return b, fmt.Errorf("boat %d: %w", b.ID, err)
	}
	b.Type = bt
	if draft.Valid {
		d := draft.Float64
		b.DraftFt = &d
	}
	b.PreferredRampID = ramp.Int64
	b.PreferredTruckID = truck.Int64
	return b, nil
}

func (s *Store) ListBoats(ctx context.Context) ([]model.Boat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+boatColumns+` FROM boats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Boat
	for rows.Next() {
		b, err := scanBoat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBoat(ctx context.Context, id int64) (model.Boat, error) {
	b, err := scanBoat(s.db.QueryRowContext(ctx, `SELECT `+boatColumns+` FROM boats WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("boat %d: %w", id, store.ErrNotFound)
	}
	return b, err
}

func (s *Store) SaveBoat(ctx context.Context, b *model.Boat) error {
	if _, err := s.GetCustomer(ctx, b.CustomerID); err != nil {
		return fmt.Errorf("boat owner: %w", err)
	}
	var draft any
	if b.DraftFt != nil {
		draft = *b.DraftFt
	}
	args := []any{b.CustomerID, b.Name, string(b.Type), b.LengthFt, draft, b.StorageAddress, b.Storage.Lat, b.Storage.Lon,
		nullID(b.PreferredRampID), nullID(b.PreferredTruckID), b.IsECM}
	if b.ID == 0 {
		res, err := s.db.ExecContext(ctx, `INSERT INTO boats (customer_id, name, type, length_ft, draft_ft, storage_address,
            storage_lat, storage_lon, preferred_ramp_id, preferred_truck_id, is_ecm)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			return fmt.Errorf("insert boat %q: %w", b.Name, err)
		}
		b.ID, err = res.LastInsertId()
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO boats (`+boatColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET customer_id = excluded.customer_id, name = excluded.name, type = excluded.type,
            length_ft = excluded.length_ft, draft_ft = excluded.draft_ft, storage_address = excluded.storage_address,
            storage_lat = excluded.storage_lat, storage_lon = excluded.storage_lon,
            preferred_ramp_id = excluded.preferred_ramp_id, preferred_truck_id = excluded.preferred_truck_id,
            is_ecm = excluded.is_ecm`, append([]any{b.ID}, args...)...)
	if err != nil {
		return fmt.Errorf("save boat %q: %w", b.Name, err)
	}
	return nil
}

func (s *Store) ListTruckHours(ctx context.Context) (map[int64]model.WeekHours, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT truck_id, day_of_week, start_time, end_time FROM truck_schedules`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := map[int64]model.WeekHours{}
	for rows.Next() {
		var (
			truckID    int64
			dow        int
			open, shut string
		)
		if err := rows.Scan(&truckID, &dow, &open, &shut); err != nil {
			return nil, err
		}
		day, sh, err := decodeShift(dow, open, shut)
		if err != nil {
			return nil, fmt.Errorf("truck %d: %w", truckID, err)
		}
		if out[truckID] == nil {
			out[truckID] = model.WeekHours{}
		}
		out[truckID][day] = sh
	}
	return out, rows.Err()
}

func (s *Store) SetTruckHours(ctx context.Context, truckID int64, hours model.WeekHours) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trucks WHERE id = ?`, truckID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("truck %d: %w", truckID, store.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM truck_schedules WHERE truck_id = ?`, truckID); err != nil {
		return err
	}
	for day, sh := range hours {
		if _, err := tx.ExecContext(ctx, `INSERT INTO truck_schedules (truck_id, day_of_week, start_time, end_time)
            VALUES (?, ?, ?, ?)`, truckID, model.WeekdayIndex(day), model.FormatClock(sh.Open), model.FormatClock(sh.Close)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const jobColumns = `id, customer_id, boat_id, service, status, start_at, end_at, hauler_truck_id, crane_truck_id,
    crane_busy_end, pickup_ramp_id, pickup_address, pickup_lat, pickup_lon, dropoff_ramp_id, dropoff_address,
    dropoff_lat, dropoff_lon, override_conflict`

func scanJob(sc interface{ Scan(...any) error }) (model.Job, error) {
	var (
		j                       model.Job
		svc, status             string
		start, end, craneEnd    sql.NullString
		hauler, crane           sql.NullInt64
		pickupRamp, dropoffRamp sql.NullInt64
	)
	if err := sc.Scan(&j.ID, &j.CustomerID, &j.BoatID, &svc, &status, &start, &end, &hauler, &crane, &craneEnd,
		&pickupRamp, &j.Pickup.Address, &j.Pickup.Location.Lat, &j.Pickup.Location.Lon,
		&dropoffRamp, &j.Dropoff.Address, &j.Dropoff.Location.Lat, &j.Dropoff.Location.Lon, &j.OverrideConflict); err != nil {
		return j, err
	}
	var err error
	if j.Service, err = model.ParseService(svc); err != nil {
		return j, fmt.Errorf("job %d: %w", j.ID, err)
	}
	if j.Status, err = model.ParseJobStatus(status); err != nil {
		return j, fmt.Errorf("job %d: %w", j.ID, err)
	}
	for _, f := range []struct {
		src sql.NullString
		dst *time.Time
	}{{start, &j.Start}, {end, &j.End}, {craneEnd, &j.CraneBusyEnd}} {
		if !f.src.Valid {
			continue
		}
		if *f.dst, err = time.ParseInLocation(timeLayout, f.src.String, time.UTC); err != nil {
			return j, fmt.Errorf("job %d: %w", j.ID, err)
		}
	}
	j.HaulerTruckID = hauler.Int64
	j.CraneTruckID = crane.Int64
	j.Pickup.RampID = pickupRamp.Int64
	j.Dropoff.RampID = dropoffRamp.Int64
	return j, nil
}

func (s *Store) ListJobs(ctx context.Context, f store.JobFilter) ([]model.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.BoatID != 0 {
		where = append(where, "boat_id = ?")
		args = append(args, f.BoatID)
	}
	if f.TruckID != 0 {
		where = append(where, "(hauler_truck_id = ? OR crane_truck_id = ?)")
		args = append(args, f.TruckID, f.TruckID)
	}
	if !f.From.IsZero() {
		where = append(where, "start_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "start_at <= ?")
		args = append(args, formatTime(f.To))
	}
	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return s.queryJobs(ctx, s.db, q+" ORDER BY start_at, id", args...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) queryJobs(ctx context.Context, q querier, query string, args ...any) ([]model.Job, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id int64) (model.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return j, fmt.Errorf("job %d: %w", id, store.ErrNotFound)
	}
	return j, err
}

func (s *Store) CommitJob(ctx context.Context, job model.Job, removeParkedID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if removeParkedID != 0 {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, removeParkedID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("parked job %d: %w", removeParkedID, store.ErrNotFound)
		}
		if err != nil {
			return 0, err
		}
		if status != string(model.StatusParked) {
			return 0, fmt.Errorf("job %d is %s: %w", removeParkedID, status, store.ErrInvalidState)
		}
	}

	day := model.Day(job.Start)
	nearby, err := s.queryJobs(ctx, tx, `SELECT `+jobColumns+` FROM jobs
        WHERE status = 'Scheduled' AND start_at >= ? AND start_at < ?`,
		formatTime(day.AddDate(0, 0, -1)), formatTime(day.AddDate(0, 0, 2)))
	if err != nil {
		return 0, err
	}
	job.ID = 0
	if store.Clashes(job, nearby) {
		return 0, store.ErrSlotTaken
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO jobs (customer_id, boat_id, service, status, start_at, end_at,
        hauler_truck_id, crane_truck_id, crane_busy_end, pickup_ramp_id, pickup_address, pickup_lat, pickup_lon,
        dropoff_ramp_id, dropoff_address, dropoff_lat, dropoff_lon, override_conflict)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.CustomerID, job.BoatID, string(job.Service), string(job.Status),
		nullTime(job.Start), nullTime(job.End), nullID(job.HaulerTruckID), nullID(job.CraneTruckID), nullTime(job.CraneBusyEnd),
		nullID(job.Pickup.RampID), job.Pickup.Address, job.Pickup.Location.Lat, job.Pickup.Location.Lon,
		nullID(job.Dropoff.RampID), job.Dropoff.Address, job.Dropoff.Location.Lat, job.Dropoff.Location.Lon,
		job.OverrideConflict)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrSlotTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if removeParkedID != 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, removeParkedID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ParkJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = 'Parked', start_at = NULL, end_at = NULL,
        hauler_truck_id = NULL, crane_truck_id = NULL, crane_busy_end = NULL
        WHERE id = ? AND status = 'Scheduled'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	j, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("job %d is %s: %w", id, j.Status, store.ErrInvalidState)
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func decodeShift(dow int, open, shut string) (time.Weekday, model.Shift, error) {
	day, err := model.WeekdayFromIndex(dow)
	if err != nil {
		return 0, model.Shift{}, err
	}
	o, err := model.ParseClock(open)
	if err != nil {
		return 0, model.Shift{}, err
	}
	c, err := model.ParseClock(shut)
	if err != nil {
		return 0, model.Shift{}, err
	}
	return day, model.Shift{Open: o, Close: c}, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
