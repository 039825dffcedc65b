package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CallCycle is a recurring route of locations a field agent is expected to
// visit at the configured frequency.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	Name      – cycle name.
//	Frequency – 'daily', 'weekly' or 'monthly'.
//	CreatedBy – user who created the cycle (nullable).
//	CreatedAt – timestamp of creation.
type CallCycle struct {
	ID        uuid.UUID  // call_cycles.id
	TenantID  uuid.UUID  // call_cycles.tenant_id
	Name      string     // call_cycles.name
	Frequency string     // call_cycles.frequency
	CreatedBy *uuid.UUID // call_cycles.created_by (nullable)
	CreatedAt time.Time  // call_cycles.created_at
}

// CallCycleLocation is one stop of a call cycle.  Locations are an ordered
// sub-collection: listings sort by OrderNum ascending, creation order
// breaking ties.  Coverage analytics match visits against ShopID.
//
// Fields:
//
//	ID          – primary key identifier.
//	CallCycleID – parent cycle.
//	Location    – optional GeoJSON point of the stop.
//	ShopID      – optional shop reference matched against visits.
//	OrderNum    – explicit ordering number.
//	CreatedAt   – timestamp of creation.
type CallCycleLocation struct {
	ID          uuid.UUID       // call_cycle_locations.id
	CallCycleID uuid.UUID       // call_cycle_locations.call_cycle_id
	Location    json.RawMessage // call_cycle_locations.location (nullable JSON point)
	ShopID      *uuid.UUID      // call_cycle_locations.shop_id (nullable)
	OrderNum    int             // call_cycle_locations.order_num
	CreatedAt   time.Time       // call_cycle_locations.created_at
}
