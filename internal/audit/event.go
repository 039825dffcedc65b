// Package audit is the single write path for the append-only audit log.
// Every privileged mutation goes through the Recorder, which appends a
// database row synchronously and then publishes the event to the broker
// on a best-effort basis for downstream consumers.
package audit

// RecordedEvent is the broker payload published for every audit row.
// Identifiers travel as strings so consumers need no uuid dependency.
type RecordedEvent struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Action     string `json:"action"`
	ObjectType string `json:"object_type,omitempty"`
	ObjectID   string `json:"object_id,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// QueueName is the durable queue audit events are published to.
const QueueName = "audit.recorded"
