package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrCycleNotFound is returned when a call cycle cannot be found within
// the requested tenant.
var ErrCycleNotFound = errors.New("call cycle not found")

// ErrLocationNotFound is returned when a call cycle location cannot be
// found.
var ErrLocationNotFound = errors.New("call cycle location not found")

// CallCycleRepo encapsulates all database queries related to call cycles
// and their ordered locations.
type CallCycleRepo struct {
	db *sql.DB
}

func NewCallCycleRepo(db *sql.DB) *CallCycleRepo { return &CallCycleRepo{db: db} }

// Create inserts a call cycle.
func (r *CallCycleRepo) Create(ctx context.Context, c *model.CallCycle) error {
	c.ID = uuid.New()
	const q = `INSERT INTO call_cycles (id, tenant_id, name, frequency, created_by)
               VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		c.ID, c.TenantID, c.Name, c.Frequency, c.CreatedBy); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM call_cycles WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, c.ID).Scan(&c.CreatedAt)
}

// GetByID fetches a call cycle within a tenant.
func (r *CallCycleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.CallCycle, error) {
	const q = `SELECT id, tenant_id, name, frequency, created_by, created_at
               FROM call_cycles WHERE tenant_id = ? AND id = ?`
	c, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns all of the tenant's call cycles.
func (r *CallCycleRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*model.CallCycle, error) {
	const q = `SELECT id, tenant_id, name, frequency, created_by, created_at
               FROM call_cycles WHERE tenant_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CallCycle
	for rows.Next() {
		c, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CycleUpdate carries the optional fields of a partial call cycle update.
type CycleUpdate struct {
	Name      *string
	Frequency *string
}

// Update applies a partial update within the tenant and returns the fresh
// row.
func (r *CallCycleRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd CycleUpdate) (*model.CallCycle, error) {
	const q = `UPDATE call_cycles SET
                 name = COALESCE(?, name),
                 frequency = COALESCE(?, frequency)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q, upd.Name, upd.Frequency, tenantID, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes a call cycle and its locations in one transaction.
func (r *CallCycleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uuid.UUID
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM call_cycles WHERE tenant_id = ? AND id = ?", tenantID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCycleNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM call_cycle_locations WHERE call_cycle_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM call_cycles WHERE tenant_id = ? AND id = ?", tenantID, id); err != nil {
		return err
	}
	return nil
}

// AddLocation appends a stop to the cycle.  A zero OrderNum places the
// stop after the current last one.
func (r *CallCycleRepo) AddLocation(ctx context.Context, tenantID uuid.UUID, loc *model.CallCycleLocation) error {
	if _, err := r.GetByID(ctx, tenantID, loc.CallCycleID); err != nil {
		return err
	}
	if loc.OrderNum == 0 {
		var next sql.NullInt64
		if err := r.db.QueryRowContext(ctx,
			"SELECT MAX(order_num) + 1 FROM call_cycle_locations WHERE call_cycle_id = ?",
			loc.CallCycleID).Scan(&next); err != nil {
			return err
		}
		loc.OrderNum = 1
		if next.Valid {
			loc.OrderNum = int(next.Int64)
		}
	}
	loc.ID = uuid.New()
	const q = `INSERT INTO call_cycle_locations (id, call_cycle_id, location, shop_id, order_num)
               VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		loc.ID, loc.CallCycleID, nullableJSON(loc.Location), loc.ShopID, loc.OrderNum); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM call_cycle_locations WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, loc.ID).Scan(&loc.CreatedAt)
}

// RemoveLocation drops one stop from the cycle.
func (r *CallCycleRepo) RemoveLocation(ctx context.Context, tenantID, cycleID, locationID uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, cycleID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM call_cycle_locations WHERE call_cycle_id = ? AND id = ?", cycleID, locationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// ReorderLocations rewrites order_num so the stops follow the given id
// sequence.  Ids missing from the cycle fail the whole call; stops not
// named keep their relative order after the named ones.
func (r *CallCycleRepo) ReorderLocations(ctx context.Context, tenantID, cycleID uuid.UUID, ids []uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, cycleID); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for i, id := range ids {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			"UPDATE call_cycle_locations SET order_num = ? WHERE call_cycle_id = ? AND id = ?",
			i+1, cycleID, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// unchanged order_num also reports zero; verify the row exists
			var exists uuid.UUID
			err = tx.QueryRowContext(ctx,
				"SELECT id FROM call_cycle_locations WHERE call_cycle_id = ? AND id = ?",
				cycleID, id).Scan(&exists)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					err = ErrLocationNotFound
				}
				return err
			}
		}
	}
	return nil
}

// ListLocations returns the cycle's stops in route order.
func (r *CallCycleRepo) ListLocations(ctx context.Context, tenantID, cycleID uuid.UUID) ([]*model.CallCycleLocation, error) {
	if _, err := r.GetByID(ctx, tenantID, cycleID); err != nil {
		return nil, err
	}
	return r.locationsOf(ctx, cycleID)
}

// CycleWithLocations pairs a cycle with its ordered stops for analytics.
type CycleWithLocations struct {
	Cycle     *model.CallCycle
	Locations []*model.CallCycleLocation
}

// ListWithLocations returns every cycle of the tenant together with its
// stops.  Coverage analytics read through this method only.
func (r *CallCycleRepo) ListWithLocations(ctx context.Context, tenantID uuid.UUID) ([]CycleWithLocations, error) {
	cycles, err := r.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]CycleWithLocations, 0, len(cycles))
	for _, c := range cycles {
		locs, err := r.locationsOf(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CycleWithLocations{Cycle: c, Locations: locs})
	}
	return out, nil
}

func (r *CallCycleRepo) locationsOf(ctx context.Context, cycleID uuid.UUID) ([]*model.CallCycleLocation, error) {
	const q = `SELECT id, call_cycle_id, location, shop_id, order_num, created_at
               FROM call_cycle_locations WHERE call_cycle_id = ?
               ORDER BY order_num, created_at, id`
	rows, err := r.db.QueryContext(ctx, q, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CallCycleLocation
	for rows.Next() {
		var l model.CallCycleLocation
		var location []byte
		var shopID uuid.NullUUID
		if err := rows.Scan(&l.ID, &l.CallCycleID, &location, &shopID, &l.OrderNum, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Location = location
		l.ShopID = uuidPtr(shopID)
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *CallCycleRepo) scanOne(row rowScanner) (*model.CallCycle, error) {
	var c model.CallCycle
	var createdBy uuid.NullUUID
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Frequency, &createdBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedBy = uuidPtr(createdBy)
	return &c, nil
}
