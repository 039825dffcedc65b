package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary of the system.  Every scoped entity
// carries a tenant_id foreign key and no query may cross tenants unless
// the actor holds the super_admin role with an explicit override.
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – unique tenant name.
//	Subdomain – optional unique subdomain.
//	CreatedAt – timestamp of creation.
type Tenant struct {
	ID        uuid.UUID // tenants.id
	Name      string    // tenants.name
	Subdomain *string   // tenants.subdomain (nullable)
	CreatedAt time.Time // tenants.created_at
}
