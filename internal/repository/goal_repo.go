package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrGoalNotFound is returned when a goal cannot be found within the
// requested tenant.
var ErrGoalNotFound = errors.New("goal not found")

// ErrAssignmentNotFound is returned when a goal assignment cannot be
// found.
var ErrAssignmentNotFound = errors.New("goal assignment not found")

// GoalRepo encapsulates all database queries related to goals and their
// assignments.
type GoalRepo struct {
	db *sql.DB
}

func NewGoalRepo(db *sql.DB) *GoalRepo { return &GoalRepo{db: db} }

// Create inserts a goal.
func (r *GoalRepo) Create(ctx context.Context, g *model.Goal) error {
	g.ID = uuid.New()
	const q = `INSERT INTO goals (id, tenant_id, name, metric, target_value, period, start_date, end_date)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		g.ID, g.TenantID, g.Name, g.Metric, g.TargetValue, g.Period, g.StartDate, g.EndDate); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM goals WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, g.ID).Scan(&g.CreatedAt)
}

// GetByID fetches a goal within a tenant.
func (r *GoalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Goal, error) {
	const q = `SELECT id, tenant_id, name, metric, target_value, period, start_date, end_date, created_at
               FROM goals WHERE tenant_id = ? AND id = ?`
	g, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return g, nil
}

// List returns all of the tenant's goals, newest first.
func (r *GoalRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*model.Goal, error) {
	const q = `SELECT id, tenant_id, name, metric, target_value, period, start_date, end_date, created_at
               FROM goals WHERE tenant_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Goal
	for rows.Next() {
		g, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GoalUpdate carries the optional fields of a partial goal update.
type GoalUpdate struct {
	Name        *string
	Metric      *string
	TargetValue *float64
	Period      *string
	StartDate   *string // 2006-01-02, applied verbatim
	EndDate     *string
}

// Update applies a partial update within the tenant and returns the fresh
// row.
func (r *GoalRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd GoalUpdate) (*model.Goal, error) {
	const q = `UPDATE goals SET
                 name = COALESCE(?, name),
                 metric = COALESCE(?, metric),
                 target_value = COALESCE(?, target_value),
                 period = COALESCE(?, period),
                 start_date = COALESCE(?, start_date),
                 end_date = COALESCE(?, end_date)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		upd.Name, upd.Metric, upd.TargetValue, upd.Period, upd.StartDate, upd.EndDate,
		tenantID, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes a goal with its assignments in one transaction.
func (r *GoalRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
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
		"SELECT id FROM goals WHERE tenant_id = ? AND id = ?", tenantID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrGoalNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM goal_assignments WHERE goal_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM goals WHERE tenant_id = ? AND id = ?", tenantID, id); err != nil {
		return err
	}
	return nil
}

// Assign binds a goal to a user or team.  Assigning the same pair twice
// returns the original row unchanged: the existing assignment is looked
// up first, and the unique key on (goal_id, assignee_type, assignee_id)
// backstops concurrent inserts.
func (r *GoalRepo) Assign(ctx context.Context, tenantID, goalID uuid.UUID, at model.AssigneeType, assigneeID uuid.UUID) (*model.GoalAssignment, error) {
	if _, err := r.GetByID(ctx, tenantID, goalID); err != nil {
		return nil, err
	}
	if existing, err := r.getAssignment(ctx, goalID, at, assigneeID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrAssignmentNotFound) {
		return nil, err
	}

	a := &model.GoalAssignment{
		ID:           uuid.New(),
		GoalID:       goalID,
		AssigneeType: at,
		AssigneeID:   assigneeID,
	}
	const q = `INSERT INTO goal_assignments (id, goal_id, assignee_type, assignee_id)
               VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.GoalID, a.AssigneeType, a.AssigneeID); err != nil {
		if isDup(err) {
			return r.getAssignment(ctx, goalID, at, assigneeID)
		}
		return nil, err
	}
	const qSel = "SELECT created_at FROM goal_assignments WHERE id = ?"
	if err := r.db.QueryRowContext(ctx, qSel, a.ID).Scan(&a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// Unassign removes the binding between a goal and an assignee.
func (r *GoalRepo) Unassign(ctx context.Context, tenantID, goalID uuid.UUID, at model.AssigneeType, assigneeID uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, goalID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM goal_assignments WHERE goal_id = ? AND assignee_type = ? AND assignee_id = ?",
		goalID, at, assigneeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ListAssignments returns the assignments of one goal.
func (r *GoalRepo) ListAssignments(ctx context.Context, tenantID, goalID uuid.UUID) ([]*model.GoalAssignment, error) {
	if _, err := r.GetByID(ctx, tenantID, goalID); err != nil {
		return nil, err
	}
	const q = `SELECT id, goal_id, assignee_type, assignee_id, progress, created_at
               FROM goal_assignments WHERE goal_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GoalAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateProgress overwrites the progress payload of one assignment and
// returns the fresh row.
func (r *GoalRepo) UpdateProgress(ctx context.Context, tenantID, assignmentID uuid.UUID, progress []byte) (*model.GoalAssignment, error) {
	const q = `UPDATE goal_assignments ga
               JOIN goals g ON g.id = ga.goal_id
               SET ga.progress = ?
               WHERE ga.id = ? AND g.tenant_id = ?`
	if _, err := r.db.ExecContext(ctx, q, nullableJSON(progress), assignmentID, tenantID); err != nil {
		return nil, err
	}
	// zero rows affected is ambiguous (missing row vs unchanged payload);
	// the follow-up read settles it
	return r.GetAssignmentByID(ctx, tenantID, assignmentID)
}

// GetAssignmentByID fetches one assignment, tenant-checked through its
// goal.
func (r *GoalRepo) GetAssignmentByID(ctx context.Context, tenantID, assignmentID uuid.UUID) (*model.GoalAssignment, error) {
	const q = `SELECT ga.id, ga.goal_id, ga.assignee_type, ga.assignee_id, ga.progress, ga.created_at
               FROM goal_assignments ga
               JOIN goals g ON g.id = ga.goal_id
               WHERE ga.id = ? AND g.tenant_id = ?`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, assignmentID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *GoalRepo) getAssignment(ctx context.Context, goalID uuid.UUID, at model.AssigneeType, assigneeID uuid.UUID) (*model.GoalAssignment, error) {
	const q = `SELECT id, goal_id, assignee_type, assignee_id, progress, created_at
               FROM goal_assignments WHERE goal_id = ? AND assignee_type = ? AND assignee_id = ?`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, q, goalID, at, assigneeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAssignment(row rowScanner) (*model.GoalAssignment, error) {
	var a model.GoalAssignment
	var progress []byte
	if err := row.Scan(&a.ID, &a.GoalID, &a.AssigneeType, &a.AssigneeID, &progress, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Progress = progress
	return &a, nil
}

func (r *GoalRepo) scanOne(row rowScanner) (*model.Goal, error) {
	var g model.Goal
	var target sql.NullFloat64
	var start, end sql.NullTime
	if err := row.Scan(&g.ID, &g.TenantID, &g.Name, &g.Metric, &target, &g.Period,
		&start, &end, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.TargetValue = floatPtr(target)
	g.StartDate = timePtr(start)
	g.EndDate = timePtr(end)
	return &g, nil
}
