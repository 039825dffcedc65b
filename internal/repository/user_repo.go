package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrUserNotFound is returned when a user cannot be found within the
// requested tenant.
var ErrUserNotFound = errors.New("user not found")

// UserRepo encapsulates all database queries related to users and their
// role memberships.  Users are soft-deleted only: Deactivate flips
// is_active and historical rows stay queryable for analytics.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// UserFilter narrows List results.  All set fields combine with AND.
type UserFilter struct {
	Email    string // substring match on email
	IsActive *bool  // exact match on the soft-delete flag
}

// Create inserts a user and its role memberships in one transaction.  The
// user's ID is populated on success.  A duplicate email within the tenant
// surfaces as ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.New()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

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

	const qUser = `INSERT INTO users
        (id, tenant_id, email, phone, first_name, last_name, password_hash, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
	if _, err = tx.ExecContext(ctx, qUser,
		u.ID, u.TenantID, u.Email, u.Phone, u.FirstName, u.LastName, u.PasswordHash); err != nil {
		if isDup(err) {
			err = ErrConflict
		}
		return err
	}
	for _, role := range u.Roles {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, ?)",
			uuid.New(), u.ID, string(role)); err != nil {
			return err
		}
	}
	u.IsActive = true
	return nil
}

// GetByID fetches a user within a tenant, roles included.
func (r *UserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.User, error) {
	const q = `SELECT id, tenant_id, email, phone, first_name, last_name,
                      password_hash, is_active, last_login_at, created_at, updated_at
               FROM users WHERE tenant_id = ? AND id = ?`
	u, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByAnyTenantID fetches a user by id alone.  Token refresh resolves
// the user before any tenant scope exists; everything else goes through
// GetByID.
func (r *UserRepo) GetByAnyTenantID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT id, tenant_id, email, phone, first_name, last_name,
                      password_hash, is_active, last_login_at, created_at, updated_at
               FROM users WHERE id = ?`
	u, err := r.scanOne(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email across tenants.  Login
// identifies users by email alone; the tenant comes from the stored row.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT id, tenant_id, email, phone, first_name, last_name,
                      password_hash, is_active, last_login_at, created_at, updated_at
               FROM users WHERE email = ? LIMIT 1`
	u, err := r.scanOne(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns the tenant's users matching the filter, roles included,
// ordered by creation time.
func (r *UserRepo) List(ctx context.Context, tenantID uuid.UUID, f UserFilter) ([]*model.User, error) {
	q := `SELECT id, tenant_id, email, phone, first_name, last_name,
                 password_hash, is_active, last_login_at, created_at, updated_at
          FROM users WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.Email != "" {
		q += " AND email LIKE ?"
		args = append(args, "%"+strings.ToLower(f.Email)+"%")
	}
	if f.IsActive != nil {
		q += " AND is_active = ?"
		args = append(args, *f.IsActive)
	}
	q += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, u := range out {
		if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UserUpdate carries the optional fields of a partial user update.  Nil
// fields are left untouched.
type UserUpdate struct {
	Email     *string
	Phone     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
}

// Update applies a partial update within the tenant and returns the fresh
// row.  A duplicate email surfaces as ErrConflict.
func (r *UserRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd UserUpdate) (*model.User, error) {
	if upd.Email != nil {
		norm := strings.ToLower(strings.TrimSpace(*upd.Email))
		upd.Email = &norm
	}
	const q = `UPDATE users SET
                 email = COALESCE(?, email),
                 phone = COALESCE(?, phone),
                 first_name = COALESCE(?, first_name),
                 last_name = COALESCE(?, last_name),
                 is_active = COALESCE(?, is_active),
                 updated_at = CURRENT_TIMESTAMP
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		upd.Email, upd.Phone, upd.FirstName, upd.LastName, upd.IsActive, tenantID, id); err != nil {
		if isDup(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// ReplaceRoles swaps the user's full role set in one transaction.
func (r *UserRepo) ReplaceRoles(ctx context.Context, tenantID, id uuid.UUID, roles []model.Role) error {
	if _, err := r.GetByID(ctx, tenantID, id); err != nil {
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

	if _, err = tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id = ?", id); err != nil {
		return err
	}
	for _, role := range roles {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, ?)",
			uuid.New(), id, string(role)); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes the user.  The row is kept so analytics over
// historical visits keep resolving it.
func (r *UserRepo) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	const q = `UPDATE users SET is_active = 0, updated_at = CURRENT_TIMESTAMP
               WHERE tenant_id = ? AND id = ?`
	res, err := r.db.ExecContext(ctx, q, tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateLastLogin stamps a successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

func (r *UserRepo) rolesOf(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT role FROM user_roles WHERE user_id = ? ORDER BY role", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if role, err := model.ParseRole(s); err == nil {
			roles = append(roles, role)
		}
	}
	return roles, rows.Err()
}

func (r *UserRepo) scanOne(row rowScanner) (*model.User, error) {
	var u model.User
	var phone, first, last sql.NullString
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &phone, &first, &last,
		&u.PasswordHash, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Phone = strPtr(phone)
	u.FirstName = strPtr(first)
	u.LastName = strPtr(last)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}
