package model

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a product brand tracked by a tenant.  Brand names are unique
// per tenant; violating the constraint surfaces as a conflict error.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	Name      – brand name, unique within the tenant.
//	Slug      – optional URL-friendly name.
//	Active    – whether the brand is currently tracked.
//	CreatedAt – timestamp of creation.
type Brand struct {
	ID        uuid.UUID // brands.id
	TenantID  uuid.UUID // brands.tenant_id
	Name      string    // brands.name
	Slug      *string   // brands.slug (nullable)
	Active    bool      // brands.active
	CreatedAt time.Time // brands.created_at
}

// BrandInfographic is a reference file attached to a brand, shown to field
// agents as merchandising guidance.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	BrandID   – parent brand.
//	FileURL   – stored file location.
//	Caption   – optional caption text.
//	CreatedAt – timestamp of creation.
type BrandInfographic struct {
	ID        uuid.UUID // brand_infographics.id
	TenantID  uuid.UUID // brand_infographics.tenant_id
	BrandID   uuid.UUID // brand_infographics.brand_id
	FileURL   string    // brand_infographics.file_url
	Caption   *string   // brand_infographics.caption (nullable)
	CreatedAt time.Time // brand_infographics.created_at
}
