package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Goal is a tenant-scoped performance target such as a number of visits or
// a shelf-share percentage over a period.
//
// Fields:
//
//	ID          – primary key identifier.
//	TenantID    – owning tenant.
//	Name        – goal name.
//	Metric      – 'visits', 'conversions', 'shelf_share', ...
//	TargetValue – numeric target (nullable).
//	Period      – 'daily', 'weekly', 'monthly' or 'quarterly'.
//	StartDate   – optional start of the goal window.
//	EndDate     – optional end of the goal window.
//	CreatedAt   – timestamp of creation.
type Goal struct {
	ID          uuid.UUID  // goals.id
	TenantID    uuid.UUID  // goals.tenant_id
	Name        string     // goals.name
	Metric      string     // goals.metric
	TargetValue *float64   // goals.target_value (nullable)
	Period      string     // goals.period
	StartDate   *time.Time // goals.start_date (nullable)
	EndDate     *time.Time // goals.end_date (nullable)
	CreatedAt   time.Time  // goals.created_at
}

// GoalAssignment binds a goal to a user or a team together with a progress
// payload.  Assignments are uniquely keyed by (goal_id, assignee_type,
// assignee_id): assigning the same pair twice yields the original row.
//
// Fields:
//
//	ID           – primary key identifier.
//	GoalID       – parent goal.
//	AssigneeType – 'user' or 'team'.
//	AssigneeID   – user or team id depending on AssigneeType.
//	Progress     – free-form progress payload as raw JSON.
//	CreatedAt    – timestamp of creation.
type GoalAssignment struct {
	ID           uuid.UUID       // goal_assignments.id
	GoalID       uuid.UUID       // goal_assignments.goal_id
	AssigneeType AssigneeType    // goal_assignments.assignee_type
	AssigneeID   uuid.UUID       // goal_assignments.assignee_id
	Progress     json.RawMessage // goal_assignments.progress (nullable JSON)
	CreatedAt    time.Time       // goal_assignments.created_at
}
