package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrPhotoNotFound is returned when a photo cannot be found within the
// requested tenant.
var ErrPhotoNotFound = errors.New("photo not found")

// PhotoRepo encapsulates all database queries related to photos and their
// shelf quadrants.
type PhotoRepo struct {
	db *sql.DB
}

func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{db: db} }

// PhotoFilter narrows List results.  All set fields combine with AND.
type PhotoFilter struct {
	VisitID *uuid.UUID
	Purpose string
}

// Create inserts a photo row after the file has been stored.
func (r *PhotoRepo) Create(ctx context.Context, p *model.Photo) error {
	p.ID = uuid.New()
	const q = `INSERT INTO photos (id, tenant_id, visit_id, file_url, purpose, metadata)
               VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		p.ID, p.TenantID, p.VisitID, p.FileURL, p.Purpose, nullableJSON(p.Metadata)); err != nil {
		if isFKViolation(err) {
			return ErrVisitNotFound
		}
		return err
	}
	const qSel = "SELECT created_at FROM photos WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a photo within a tenant.
func (r *PhotoRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Photo, error) {
	const q = `SELECT id, tenant_id, visit_id, file_url, purpose, metadata, created_at
               FROM photos WHERE tenant_id = ? AND id = ?`
	p, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns the tenant's photos matching the filter, newest first.
func (r *PhotoRepo) List(ctx context.Context, tenantID uuid.UUID, f PhotoFilter) ([]*model.Photo, error) {
	q := `SELECT id, tenant_id, visit_id, file_url, purpose, metadata, created_at
          FROM photos WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.VisitID != nil {
		q += " AND visit_id = ?"
		args = append(args, *f.VisitID)
	}
	if f.Purpose != "" {
		q += " AND purpose = ?"
		args = append(args, f.Purpose)
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Photo
	for rows.Next() {
		p, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateQuadrant attaches one brand quadrant to a shelf photo.
func (r *PhotoRepo) CreateQuadrant(ctx context.Context, sq *model.ShelfQuadrant) error {
	sq.ID = uuid.New()
	const q = `INSERT INTO shelf_quadrants (id, tenant_id, photo_id, brand_id, quadrant_coords, area_percentage)
               VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		sq.ID, sq.TenantID, sq.PhotoID, sq.BrandID,
		nullableJSON(sq.QuadrantCoords), sq.AreaPercentage); err != nil {
		if isFKViolation(err) {
			return ErrBrandNotFound
		}
		return err
	}
	const qSel = "SELECT created_at FROM shelf_quadrants WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, sq.ID).Scan(&sq.CreatedAt)
}

// ListQuadrants returns the quadrants of one photo.
func (r *PhotoRepo) ListQuadrants(ctx context.Context, tenantID, photoID uuid.UUID) ([]*model.ShelfQuadrant, error) {
	const q = `SELECT id, tenant_id, photo_id, brand_id, quadrant_coords, area_percentage, created_at
               FROM shelf_quadrants WHERE tenant_id = ? AND photo_id = ?
               ORDER BY created_at, id`
	return r.queryQuadrants(ctx, q, tenantID, photoID)
}

// ListShelfQuadrantsInWindow returns every quadrant attached to a shelf
// photo whose visit started in [start, end], optionally restricted to
// visits of one user.  Shelf-share analytics read through this method
// only.
func (r *PhotoRepo) ListShelfQuadrantsInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.ShelfQuadrant, error) {
	q := `SELECT sq.id, sq.tenant_id, sq.photo_id, sq.brand_id, sq.quadrant_coords, sq.area_percentage, sq.created_at
          FROM shelf_quadrants sq
          JOIN photos p ON p.id = sq.photo_id
          JOIN visits v ON v.id = p.visit_id
          WHERE sq.tenant_id = ? AND p.purpose = ?
            AND v.started_at >= ? AND v.started_at <= ?`
	args := []any{tenantID, model.PurposeShelf, start, end}
	if userID != nil {
		q += " AND v.user_id = ?"
		args = append(args, *userID)
	}
	return r.queryQuadrants(ctx, q, args...)
}

func (r *PhotoRepo) queryQuadrants(ctx context.Context, q string, args ...any) ([]*model.ShelfQuadrant, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ShelfQuadrant
	for rows.Next() {
		var sq model.ShelfQuadrant
		var coords []byte
		var area sql.NullFloat64
		if err := rows.Scan(&sq.ID, &sq.TenantID, &sq.PhotoID, &sq.BrandID,
			&coords, &area, &sq.CreatedAt); err != nil {
			return nil, err
		}
		sq.QuadrantCoords = coords
		sq.AreaPercentage = floatPtr(area)
		out = append(out, &sq)
	}
	return out, rows.Err()
}

func (r *PhotoRepo) scanOne(row rowScanner) (*model.Photo, error) {
	var p model.Photo
	var purpose sql.NullString
	var metadata []byte
	if err := row.Scan(&p.ID, &p.TenantID, &p.VisitID, &p.FileURL, &purpose, &metadata, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Purpose = strPtr(purpose)
	p.Metadata = metadata
	return &p, nil
}
