package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Photo is an image uploaded during a visit.  Purpose distinguishes what
// the photo documents; shelf photos feed the shelf-share analytics.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	VisitID   – visit the photo was taken on.
//	FileURL   – stored file location returned by the storage backend.
//	Purpose   – 'id', 'shelf', 'outside' or 'board' (nullable).
//	Metadata  – width/height/orientation etc as raw JSON.
//	CreatedAt – timestamp of creation.
type Photo struct {
	ID        uuid.UUID       // photos.id
	TenantID  uuid.UUID       // photos.tenant_id
	VisitID   uuid.UUID       // photos.visit_id
	FileURL   string          // photos.file_url
	Purpose   *string         // photos.purpose (nullable)
	Metadata  json.RawMessage // photos.metadata (nullable JSON)
	CreatedAt time.Time       // photos.created_at
}

// PurposeShelf marks photos that participate in shelf-share analytics.
const PurposeShelf = "shelf"

// ShelfQuadrant marks the share of a shelf photo attributed to one brand.
// AreaPercentage is the computed share of the photo's marked area.
//
// Fields:
//
//	ID             – primary key identifier.
//	TenantID       – owning tenant.
//	PhotoID        – parent photo.
//	BrandID        – brand the quadrant is attributed to.
//	QuadrantCoords – marked polygons as raw JSON.
//	AreaPercentage – share of the shelf area, 0-100 (nullable).
//	CreatedAt      – timestamp of creation.
type ShelfQuadrant struct {
	ID             uuid.UUID       // shelf_quadrants.id
	TenantID       uuid.UUID       // shelf_quadrants.tenant_id
	PhotoID        uuid.UUID       // shelf_quadrants.photo_id
	BrandID        uuid.UUID       // shelf_quadrants.brand_id
	QuadrantCoords json.RawMessage // shelf_quadrants.quadrant_coords (nullable JSON)
	AreaPercentage *float64        // shelf_quadrants.area_percentage (nullable)
	CreatedAt      time.Time       // shelf_quadrants.created_at
}
