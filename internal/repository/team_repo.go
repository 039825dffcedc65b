package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrTeamNotFound is returned when a team cannot be found within the
// requested tenant.
var ErrTeamNotFound = errors.New("team not found")

// TeamRepo encapsulates all database queries related to teams and their
// membership.
type TeamRepo struct {
	db *sql.DB
}

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{db: db} }

// Create inserts a team.  Names are unique per tenant; a duplicate yields
// ErrConflict.
func (r *TeamRepo) Create(ctx context.Context, t *model.Team) error {
	t.ID = uuid.New()
	const q = `INSERT INTO teams (id, tenant_id, name, manager_id) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.TenantID, t.Name, t.ManagerID); err != nil {
		if isDup(err) {
			return ErrConflict
		}
		return err
	}
	const qSel = "SELECT created_at FROM teams WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, t.ID).Scan(&t.CreatedAt)
}

// GetByID fetches a team within a tenant.
func (r *TeamRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Team, error) {
	const q = `SELECT id, tenant_id, name, manager_id, created_at
               FROM teams WHERE tenant_id = ? AND id = ?`
	t, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns all of the tenant's teams.
func (r *TeamRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*model.Team, error) {
	const q = `SELECT id, tenant_id, name, manager_id, created_at
               FROM teams WHERE tenant_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Team
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TeamUpdate carries the optional fields of a partial team update.
type TeamUpdate struct {
	Name      *string
	ManagerID *uuid.UUID
}

// Update applies a partial update within the tenant and returns the fresh
// row.
func (r *TeamRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd TeamUpdate) (*model.Team, error) {
	const q = `UPDATE teams SET
                 name = COALESCE(?, name),
                 manager_id = COALESCE(?, manager_id)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q, upd.Name, upd.ManagerID, tenantID, id); err != nil {
		if isDup(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes a team and its membership rows in one transaction.
func (r *TeamRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
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
		"SELECT id FROM teams WHERE tenant_id = ? AND id = ?", tenantID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrTeamNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_teams WHERE team_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM teams WHERE tenant_id = ? AND id = ?", tenantID, id); err != nil {
		return err
	}
	return nil
}

// AddMember puts a user on the team.  Adding an existing member is a
// no-op.
func (r *TeamRepo) AddMember(ctx context.Context, tenantID, teamID, userID uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, teamID); err != nil {
		return err
	}
	const q = `INSERT INTO user_teams (user_id, team_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, q, userID, teamID); err != nil {
		if isDup(err) {
			return nil
		}
		if isFKViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RemoveMember takes a user off the team.
func (r *TeamRepo) RemoveMember(ctx context.Context, tenantID, teamID, userID uuid.UUID) error {
	if _, err := r.GetByID(ctx, tenantID, teamID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_teams WHERE team_id = ? AND user_id = ?", teamID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListMembers returns the team's members.
func (r *TeamRepo) ListMembers(ctx context.Context, tenantID, teamID uuid.UUID) ([]*model.User, error) {
	if _, err := r.GetByID(ctx, tenantID, teamID); err != nil {
		return nil, err
	}
	const q = `SELECT u.id, u.tenant_id, u.email, u.phone, u.first_name, u.last_name,
                      u.password_hash, u.is_active, u.last_login_at, u.created_at, u.updated_at
               FROM users u
               JOIN user_teams ut ON ut.user_id = u.id
               WHERE ut.team_id = ? ORDER BY u.last_name, u.first_name, u.id`
	rows, err := r.db.QueryContext(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var u model.User
		var phone, first, last sql.NullString
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &phone, &first, &last,
			&u.PasswordHash, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Phone = strPtr(phone)
		u.FirstName = strPtr(first)
		u.LastName = strPtr(last)
		u.LastLoginAt = timePtr(lastLogin)
		out = append(out, &u)
	}
	return out, rows.Err()
}

// TeamIDsOf returns the ids of the teams a user belongs to.
func (r *TeamRepo) TeamIDsOf(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT team_id FROM user_teams WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *TeamRepo) scanOne(row rowScanner) (*model.Team, error) {
	var t model.Team
	var managerID uuid.NullUUID
	if err := row.Scan(&t.ID, &t.TenantID, &t.Name, &managerID, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ManagerID = uuidPtr(managerID)
	return &t, nil
}
