package model

import (
	"time"

	"github.com/google/uuid"
)

// Team groups users under a manager.  Team names are unique per tenant.
// Membership lives in the user_teams join table.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	Name      – team name, unique within the tenant.
//	ManagerID – optional managing user.
//	CreatedAt – timestamp of creation.
type Team struct {
	ID        uuid.UUID  // teams.id
	TenantID  uuid.UUID  // teams.tenant_id
	Name      string     // teams.name
	ManagerID *uuid.UUID // teams.manager_id (nullable)
	CreatedAt time.Time  // teams.created_at
}
