package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is one append-only record of a privileged action.  Rows are
// inserted by the audit recorder and never updated or deleted.  TenantID
// and UserID are nullable because some actions (tenant bootstrap, system
// maintenance) happen outside a tenant or user context.
//
// Fields:
//
//	ID         – primary key identifier.
//	TenantID   – tenant the action happened in (nullable).
//	UserID     – actor (nullable).
//	Action     – verb such as 'create_brand' or 'complete_visit'.
//	ObjectType – entity kind acted on (nullable).
//	ObjectID   – entity id acted on (nullable).
//	Metadata   – free-form context as raw JSON.
//	CreatedAt  – timestamp of the action.
type AuditLog struct {
	ID         uuid.UUID       // audit_logs.id
	TenantID   *uuid.UUID      // audit_logs.tenant_id (nullable)
	UserID     *uuid.UUID      // audit_logs.user_id (nullable)
	Action     string          // audit_logs.action
	ObjectType *string         // audit_logs.object_type (nullable)
	ObjectID   *uuid.UUID      // audit_logs.object_id (nullable)
	Metadata   json.RawMessage // audit_logs.metadata (nullable JSON)
	CreatedAt  time.Time       // audit_logs.created_at
}
