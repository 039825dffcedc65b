package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrTenantNotFound is returned when a tenant cannot be found.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantRepo encapsulates all database queries related to tenants.
// Tenants are the one entity that is not itself tenant-scoped; access is
// restricted to super admins at the routing layer instead.
type TenantRepo struct {
	db *sql.DB
}

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

// Create inserts a new tenant.  The ID and CreatedAt fields are populated
// on success.  A duplicate name surfaces as ErrConflict.
func (r *TenantRepo) Create(ctx context.Context, t *model.Tenant) error {
	t.ID = uuid.New()
	const q = "INSERT INTO tenants (id, name, subdomain) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.Name, t.Subdomain); err != nil {
		if isDup(err) {
			return ErrConflict
		}
		return err
	}
	const qSel = "SELECT created_at FROM tenants WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, t.ID).Scan(&t.CreatedAt)
}

// Bootstrap inserts a tenant together with its first admin user and the
// user's role rows in one transaction.  A failed user insert rolls the
// tenant back, so no tenant row is ever left without an owner.  Duplicate
// tenant names and duplicate emails both surface as ErrConflict.
func (r *TenantRepo) Bootstrap(ctx context.Context, t *model.Tenant, admin *model.User) error {
	t.ID = uuid.New()
	admin.ID = uuid.New()
	admin.TenantID = t.ID
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))

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

	const qTenant = "INSERT INTO tenants (id, name, subdomain) VALUES (?, ?, ?)"
	if _, err = tx.ExecContext(ctx, qTenant, t.ID, t.Name, t.Subdomain); err != nil {
		if isDup(err) {
			err = ErrConflict
		}
		return err
	}
	const qUser = `INSERT INTO users
        (id, tenant_id, email, phone, first_name, last_name, password_hash, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1)`
	if _, err = tx.ExecContext(ctx, qUser,
		admin.ID, admin.TenantID, admin.Email, admin.Phone,
		admin.FirstName, admin.LastName, admin.PasswordHash); err != nil {
		if isDup(err) {
			err = ErrConflict
		}
		return err
	}
	for _, role := range admin.Roles {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, ?)",
			uuid.New(), admin.ID, string(role)); err != nil {
			return err
		}
	}
	if err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM tenants WHERE id = ?", t.ID).Scan(&t.CreatedAt); err != nil {
		return err
	}
	admin.IsActive = true
	return nil
}

// GetByID fetches a tenant by id, returning ErrTenantNotFound when absent.
func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	const q = "SELECT id, name, subdomain, created_at FROM tenants WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByName fetches a tenant by its unique name.
func (r *TenantRepo) GetByName(ctx context.Context, name string) (*model.Tenant, error) {
	const q = "SELECT id, name, subdomain, created_at FROM tenants WHERE name = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, q, name))
}

// List returns all tenants ordered by creation time.
func (r *TenantRepo) List(ctx context.Context) ([]*model.Tenant, error) {
	const q = "SELECT id, name, subdomain, created_at FROM tenants ORDER BY created_at, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Tenant
	for rows.Next() {
		t, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields to the tenant.  ErrTenantNotFound is
// returned when no row matches.
func (r *TenantRepo) Update(ctx context.Context, id uuid.UUID, name, subdomain *string) (*model.Tenant, error) {
	const q = `UPDATE tenants
               SET name = COALESCE(?, name), subdomain = COALESCE(?, subdomain)
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, name, subdomain, id)
	if err != nil {
		if isDup(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates, so
		// confirm existence with the follow-up read.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TenantRepo) scanOne(row rowScanner) (*model.Tenant, error) {
	var t model.Tenant
	var sub sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &sub, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	t.Subdomain = strPtr(sub)
	return &t, nil
}
