// Package postgres implements the job repository on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trucks (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    max_boat_length DOUBLE PRECISION NOT NULL,
    is_crane        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS truck_schedules (
    truck_id    BIGINT NOT NULL REFERENCES trucks(id) ON DELETE CASCADE,
    day_of_week SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
    start_time  TEXT NOT NULL,
    end_time    TEXT NOT NULL,
    PRIMARY KEY (truck_id, day_of_week)
);
CREATE TABLE IF NOT EXISTS ramps (
    id                 BIGSERIAL PRIMARY KEY,
    name               TEXT NOT NULL,
    station_id         TEXT NOT NULL DEFAULT '',
    lat                DOUBLE PRECISION NOT NULL DEFAULT 0,
    lon                DOUBLE PRECISION NOT NULL DEFAULT 0,
    tide_rule          TEXT NOT NULL,
    tide_offset_hours  DOUBLE PRECISION NOT NULL DEFAULT 0,
    allowed_boat_types TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS boats (
    id                 BIGSERIAL PRIMARY KEY,
    customer_id        BIGINT NOT NULL REFERENCES customers(id),
    name               TEXT NOT NULL,
    type               TEXT NOT NULL,
    length_ft          DOUBLE PRECISION NOT NULL,
    draft_ft           DOUBLE PRECISION,
    storage_address    TEXT NOT NULL DEFAULT '',
    storage_lat        DOUBLE PRECISION NOT NULL DEFAULT 0,
    storage_lon        DOUBLE PRECISION NOT NULL DEFAULT 0,
    preferred_ramp_id  BIGINT,
    preferred_truck_id BIGINT,
    is_ecm             BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS jobs (
    id                BIGSERIAL PRIMARY KEY,
    customer_id       BIGINT NOT NULL,
    boat_id           BIGINT NOT NULL,
    service           TEXT NOT NULL,
    status            TEXT NOT NULL,
    start_at          TIMESTAMPTZ,
    end_at            TIMESTAMPTZ,
    hauler_truck_id   BIGINT,
    crane_truck_id    BIGINT,
    crane_busy_end    TIMESTAMPTZ,
    pickup_ramp_id    BIGINT,
    pickup_address    TEXT NOT NULL DEFAULT '',
    pickup_lat        DOUBLE PRECISION NOT NULL DEFAULT 0,
    pickup_lon        DOUBLE PRECISION NOT NULL DEFAULT 0,
    dropoff_ramp_id   BIGINT,
    dropoff_address   TEXT NOT NULL DEFAULT '',
    dropoff_lat       DOUBLE PRECISION NOT NULL DEFAULT 0,
    dropoff_lon       DOUBLE PRECISION NOT NULL DEFAULT 0,
    override_conflict BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE UNIQUE INDEX IF NOT EXISTS jobs_truck_start ON jobs (hauler_truck_id, start_at) WHERE status = 'Scheduled';
CREATE INDEX IF NOT EXISTS jobs_boat_service ON jobs (boat_id, service, status);
`

// Store persists the fleet, ramps, boats and jobs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Repository = (*Store)(nil)

// Open connects to dsn and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) ListTrucks(ctx context.Context) ([]model.Truck, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, max_boat_length, is_crane FROM trucks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
		return wrap(s.pool.QueryRow(ctx, `INSERT INTO trucks (name, max_boat_length, is_crane) VALUES ($1, $2, $3) RETURNING id`,
			t.Name, t.MaxBoatLength, t.IsCrane).Scan(&t.ID), "insert truck %q", t.Name)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO trucks (id, name, max_boat_length, is_crane) VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name,
            max_boat_length = EXCLUDED.max_boat_length, is_crane = EXCLUDED.is_crane`,
		t.ID, t.Name, t.MaxBoatLength, t.IsCrane)
	return wrap(err, "save truck %q", t.Name)
}

const rampColumns = `id, name, station_id, lat, lon, tide_rule, tide_offset_hours, allowed_boat_types`

func scanRamp(row pgx.Row) (model.Ramp, error) {
	var (
		r     model.Ramp
		rule  string
		types string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.StationID, &r.Location.Lat, &r.Location.Lon, &rule, &r.Rule.OffsetHours, &types); err != nil {
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
	rows, err := s.pool.Query(ctx, `SELECT `+rampColumns+` FROM ramps ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
	r, err := scanRamp(s.pool.QueryRow(ctx, `SELECT `+rampColumns+` FROM ramps WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return r, fmt.Errorf("ramp %d: %w", id, store.ErrNotFound)
	}
	return r, err
}

func (s *Store) SaveRamp(ctx context.Context, r *model.Ramp) error {
	args := []any{r.Name, r.StationID, r.Location.Lat, r.Location.Lon, r.Rule.Kind.String(), r.Rule.OffsetHours,
		model.FormatBoatTypes(r.AllowedBoatTypes)}
	if r.ID == 0 {
		return wrap(s.pool.QueryRow(ctx, `INSERT INTO ramps (name, station_id, lat, lon, tide_rule, tide_offset_hours, allowed_boat_types)
            VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`, args...).Scan(&r.ID), "insert ramp %q", r.Name)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO ramps (`+rampColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, station_id = EXCLUDED.station_id,
            lat = EXCLUDED.lat, lon = EXCLUDED.lon, tide_rule = EXCLUDED.tide_rule,
            tide_offset_hours = EXCLUDED.tide_offset_hours, allowed_boat_types = EXCLUDED.allowed_boat_types`,
		append([]any{r.ID}, args...)...)
	return wrap(err, "save ramp %q", r.Name)
}

func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return c, err
}

func (s *Store) SaveCustomer(ctx context.Context, c *model.Customer) error {
	if c.ID == 0 {
		return s.pool.QueryRow(ctx, `INSERT INTO customers (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO customers (id, name) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name)
	return err
}

const boatColumns = `id, customer_id, name, type, length_ft, draft_ft, storage_address, storage_lat, storage_lon,
    preferred_ramp_id, preferred_truck_id, is_ecm`

func scanBoat(row pgx.Row) (model.Boat, error) {
	var (
		b           model.Boat
		typ         string
		ramp, truck *int64
	)
	if err := row.Scan(&b.ID, &b.CustomerID, &b.Name, &typ, &b.LengthFt, &b.DraftFt, &b.StorageAddress,
		&b.Storage.Lat, &b.Storage.Lon, &ramp, &truck, &b.IsECM); err != nil {
		return b, err
	}
	bt, err := model.ParseBoatType(typ)
	if err != nil {
		return b, fmt.Errorf("boat %d: %w", b.ID, err)
	}
	b.Type = bt
	b.PreferredRampID = deref(ramp)
	b.PreferredTruckID = deref(truck)
	return b, nil
}

func (s *Store) ListBoats(ctx context.Context) ([]model.Boat, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+boatColumns+` FROM boats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
	b, err := scanBoat(s.pool.QueryRow(ctx, `SELECT `+boatColumns+` FROM boats WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return b, fmt.Errorf("boat %d: %w", id, store.ErrNotFound)
	}
	return b, err
}

func (s *Store) SaveBoat(ctx context.Context, b *model.Boat) error {
	if _, err := s.GetCustomer(ctx, b.CustomerID); err != nil {
		return fmt.Errorf("boat owner: %w", err)
	}
	args := []any{b.CustomerID, b.Name, string(b.Type), b.LengthFt, b.DraftFt, b.StorageAddress, b.Storage.Lat, b.Storage.Lon,
		nullID(b.PreferredRampID), nullID(b.PreferredTruckID), b.IsECM}
	if b.ID == 0 {
		return wrap(s.pool.QueryRow(ctx, `INSERT INTO boats (customer_id, name, type, length_ft, draft_ft, storage_address,
            storage_lat, storage_lon, preferred_ramp_id, preferred_truck_id, is_ecm)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`, args...).Scan(&b.ID), "insert boat %q", b.Name)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO boats (`+boatColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO UPDATE SET customer_id = EXCLUDED.customer_id, name = EXCLUDED.name, type = EXCLUDED.type,
            length_ft = EXCLUDED.length_ft, draft_ft = EXCLUDED.draft_ft, storage_address = EXCLUDED.storage_address,
            storage_lat = EXCLUDED.storage_lat, storage_lon = EXCLUDED.storage_lon,
            preferred_ramp_id = EXCLUDED.preferred_ramp_id, preferred_truck_id = EXCLUDED.preferred_truck_id,
            is_ecm = EXCLUDED.is_ecm`, append([]any{b.ID}, args...)...)
	return wrap(err, "save boat %q", b.Name)
}

func (s *Store) ListTruckHours(ctx context.Context) (map[int64]model.WeekHours, error) {
	rows, err := s.pool.Query(ctx, `SELECT truck_id, day_of_week, start_time, end_time FROM truck_schedules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]model.WeekHours{}
	for rows.Next() {
		var (
			truckID    int64
			dow        int16
			open, shut string
		)
		if err := rows.Scan(&truckID, &dow, &open, &shut); err != nil {
			return nil, err
		}
		day, err := model.WeekdayFromIndex(int(dow))
		if err != nil {
			return nil, fmt.Errorf("truck %d: %w", truckID, err)
		}
		o, err := model.ParseClock(open)
		if err != nil {
			return nil, fmt.Errorf("truck %d: %w", truckID, err)
		}
		c, err := model.ParseClock(shut)
		if err != nil {
			return nil, fmt.Errorf("truck %d: %w", truckID, err)
		}
		if out[truckID] == nil {
			out[truckID] = model.WeekHours{}
		}
		out[truckID][day] = model.Shift{Open: o, Close: c}
	}
	return out, rows.Err()
}

func (s *Store) SetTruckHours(ctx context.Context, truckID int64, hours model.WeekHours) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trucks WHERE id = $1)`, truckID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("truck %d: %w", truckID, store.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM truck_schedules WHERE truck_id = $1`, truckID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for day, sh := range hours {
			batch.Queue(`INSERT INTO truck_schedules (truck_id, day_of_week, start_time, end_time) VALUES ($1, $2, $3, $4)`,
				truckID, model.WeekdayIndex(day), model.FormatClock(sh.Open), model.FormatClock(sh.Close))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

const jobColumns = `id, customer_id, boat_id, service, status, start_at, end_at, hauler_truck_id, crane_truck_id,
    crane_busy_end, pickup_ramp_id, pickup_address, pickup_lat, pickup_lon, dropoff_ramp_id, dropoff_address,
    dropoff_lat, dropoff_lon, override_conflict`

func scanJob(row pgx.Row) (model.Job, error) {
	var (
		j                       model.Job
		svc, status             string
		start, end, craneEnd    *time.Time
		hauler, crane           *int64
		pickupRamp, dropoffRamp *int64
	)
	if err := row.Scan(&j.ID, &j.CustomerID, &j.BoatID, &svc, &status, &start, &end, &hauler, &crane, &craneEnd,
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
	j.Start, j.End, j.CraneBusyEnd = utc(start), utc(end), utc(craneEnd)
	j.HaulerTruckID, j.CraneTruckID = deref(hauler), deref(crane)
	j.Pickup.RampID, j.Dropoff.RampID = deref(pickupRamp), deref(dropoffRamp)
	return j, nil
}

func (s *Store) ListJobs(ctx context.Context, f store.JobFilter) ([]model.Job, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.BoatID != 0 {
		where = append(where, "boat_id = "+arg(f.BoatID))
	}
	if f.TruckID != 0 {
		p := arg(f.TruckID)
		where = append(where, "(hauler_truck_id = "+p+" OR crane_truck_id = "+p+")")
	}
	if !f.From.IsZero() {
		where = append(where, "start_at >= "+arg(f.From.UTC()))
	}
	if !f.To.IsZero() {
		where = append(where, "start_at <= "+arg(f.To.UTC()))
	}
	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return queryJobs(ctx, s.pool, q+" ORDER BY start_at NULLS FIRST, id", args...)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryJobs(ctx context.Context, q querier, query string, args ...any) ([]model.Job, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return j, fmt.Errorf("job %d: %w", id, store.ErrNotFound)
	}
	return j, err
}

// CommitJob takes a table lock that excludes concurrent commits but not
// readers, then re-checks availability before inserting.
func (s *Store) CommitJob(ctx context.Context, job model.Job, removeParkedID int64) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE jobs IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		if removeParkedID != 0 {
			var status string
			err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, removeParkedID).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("parked job %d: %w", removeParkedID, store.ErrNotFound)
			}
			if err != nil {
				return err
			}
			if status != string(model.StatusParked) {
				return fmt.Errorf("job %d is %s: %w", removeParkedID, status, store.ErrInvalidState)
			}
		}

		day := model.Day(job.Start)
		nearby, err := queryJobs(ctx, tx, `SELECT `+jobColumns+` FROM jobs
            WHERE status = 'Scheduled' AND start_at >= $1 AND start_at < $2`, day.AddDate(0, 0, -1), day.AddDate(0, 0, 2))
		if err != nil {
			return err
		}
		job.ID = 0
		if store.Clashes(job, nearby) {
			return store.ErrSlotTaken
		}

		err = tx.QueryRow(ctx, `INSERT INTO jobs (customer_id, boat_id, service, status, start_at, end_at,
            hauler_truck_id, crane_truck_id, crane_busy_end, pickup_ramp_id, pickup_address, pickup_lat, pickup_lon,
            dropoff_ramp_id, dropoff_address, dropoff_lat, dropoff_lon, override_conflict)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`,
			job.CustomerID, job.BoatID, string(job.Service), string(job.Status),
			nullTime(job.Start), nullTime(job.End), nullID(job.HaulerTruckID), nullID(job.CraneTruckID), nullTime(job.CraneBusyEnd),
			nullID(job.Pickup.RampID), job.Pickup.Address, job.Pickup.Location.Lat, job.Pickup.Location.Lon,
			nullID(job.Dropoff.RampID), job.Dropoff.Address, job.Dropoff.Location.Lat, job.Dropoff.Location.Lon,
			job.OverrideConflict).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return store.ErrSlotTaken
			}
			return err
		}
		if removeParkedID != 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, removeParkedID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ParkJob(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE jobs SET status = 'Parked', start_at = NULL, end_at = NULL,
        hauler_truck_id = NULL, crane_truck_id = NULL, crane_busy_end = NULL
        WHERE id = $1 AND status = 'Scheduled'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	j, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("job %d is %s: %w", id, j.Status, store.ErrInvalidState)
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func utc(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
