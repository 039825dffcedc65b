package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrBrandNotFound is returned when a brand cannot be found within the
// requested tenant.
var ErrBrandNotFound = errors.New("brand not found")

// BrandRepo encapsulates all database queries related to brands and their
// infographics.
type BrandRepo struct {
	db *sql.DB
}

func NewBrandRepo(db *sql.DB) *BrandRepo { return &BrandRepo{db: db} }

// BrandFilter narrows List results.  All set fields combine with AND.
type BrandFilter struct {
	Name   string // substring match on name
	Active *bool  // exact match on the active flag
}

// Create inserts a brand.  A duplicate name within the tenant surfaces as
// ErrConflict.
func (r *BrandRepo) Create(ctx context.Context, b *model.Brand) error {
	b.ID = uuid.New()
	if b.Slug == nil {
		s := normalizeSlug(b.Name)
		b.Slug = &s
	}
	const q = "INSERT INTO brands (id, tenant_id, name, slug, active) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, q, b.ID, b.TenantID, b.Name, b.Slug, b.Active); err != nil {
		if isDup(err) {
			return ErrConflict
		}
		return err
	}
	const qSel = "SELECT created_at FROM brands WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, b.ID).Scan(&b.CreatedAt)
}

// GetByID fetches a brand within a tenant.
func (r *BrandRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Brand, error) {
	const q = `SELECT id, tenant_id, name, slug, active, created_at
               FROM brands WHERE tenant_id = ? AND id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
}

// List returns the tenant's brands matching the filter, ordered by name.
func (r *BrandRepo) List(ctx context.Context, tenantID uuid.UUID, f BrandFilter) ([]*model.Brand, error) {
	q := `SELECT id, tenant_id, name, slug, active, created_at
          FROM brands WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.Name != "" {
		q += " AND name LIKE ?"
		args = append(args, "%"+f.Name+"%")
	}
	if f.Active != nil {
		q += " AND active = ?"
		args = append(args, *f.Active)
	}
	q += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Brand
	for rows.Next() {
		b, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BrandUpdate carries the optional fields of a partial brand update.
type BrandUpdate struct {
	Name   *string
	Slug   *string
	Active *bool
}

// Update applies a partial update within the tenant and returns the fresh
// row.
func (r *BrandRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd BrandUpdate) (*model.Brand, error) {
	const q = `UPDATE brands SET
                 name = COALESCE(?, name),
                 slug = COALESCE(?, slug),
                 active = COALESCE(?, active)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q, upd.Name, upd.Slug, upd.Active, tenantID, id); err != nil {
		if isDup(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes a brand together with its infographics and shelf
// quadrants in one transaction.  ErrBrandNotFound is returned when the
// brand does not exist in the tenant.
func (r *BrandRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
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
		"SELECT id FROM brands WHERE tenant_id = ? AND id = ?", tenantID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBrandNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM shelf_quadrants WHERE tenant_id = ? AND brand_id = ?", tenantID, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM brand_infographics WHERE tenant_id = ? AND brand_id = ?", tenantID, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM brands WHERE tenant_id = ? AND id = ?", tenantID, id)
	return err
}

// ListInfographics returns the brand's infographics ordered by creation.
func (r *BrandRepo) ListInfographics(ctx context.Context, tenantID, brandID uuid.UUID) ([]*model.BrandInfographic, error) {
	const q = `SELECT id, tenant_id, brand_id, file_url, caption, created_at
               FROM brand_infographics WHERE tenant_id = ? AND brand_id = ?
               ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, brandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BrandInfographic
	for rows.Next() {
		var g model.BrandInfographic
		var caption sql.NullString
		if err := rows.Scan(&g.ID, &g.TenantID, &g.BrandID, &g.FileURL, &caption, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Caption = strPtr(caption)
		out = append(out, &g)
	}
	return out, rows.Err()
}

// CreateInfographic attaches an infographic to the brand.
func (r *BrandRepo) CreateInfographic(ctx context.Context, g *model.BrandInfographic) error {
	g.ID = uuid.New()
	const q = `INSERT INTO brand_infographics (id, tenant_id, brand_id, file_url, caption)
               VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, g.ID, g.TenantID, g.BrandID, g.FileURL, g.Caption); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM brand_infographics WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, g.ID).Scan(&g.CreatedAt)
}

func (r *BrandRepo) scanOne(row rowScanner) (*model.Brand, error) {
	var b model.Brand
	var slug sql.NullString
	if err := row.Scan(&b.ID, &b.TenantID, &b.Name, &slug, &b.Active, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	b.Slug = strPtr(slug)
	return &b, nil
}

// normalizeSlug lowercases and dashes a brand name for use as a slug when
// none is supplied.
func normalizeSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
