package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Visit records one field visit conducted by an agent against a survey.
// Lifecycle is strictly one-way: a visit is created with StartedAt set and
// later completed exactly once, which sets CompletedAt and attaches the
// answers.  CompletedAt is never cleared.
//
// Fields:
//
//	ID          – primary key identifier.
//	TenantID    – owning tenant.
//	SurveyID    – survey being conducted.
//	UserID      – agent conducting the visit.
//	VisitType   – 'individual' or 'shop'.
//	Geocode     – optional GeoJSON point where the visit happened.
//	ShopID      – optional shop reference for shop visits.
//	StartedAt   – when the visit was opened.
//	CompletedAt – when the visit was completed (null while in progress).
//	CreatedAt   – timestamp of creation.
type Visit struct {
	ID          uuid.UUID       // visits.id
	TenantID    uuid.UUID       // visits.tenant_id
	SurveyID    uuid.UUID       // visits.survey_id
	UserID      uuid.UUID       // visits.user_id
	VisitType   string          // visits.visit_type
	Geocode     json.RawMessage // visits.geocode (nullable JSON point)
	ShopID      *uuid.UUID      // visits.shop_id (nullable)
	StartedAt   *time.Time      // visits.started_at (nullable)
	CompletedAt *time.Time      // visits.completed_at (nullable)
	CreatedAt   time.Time       // visits.created_at
}

// Completed reports whether the visit has been completed.
func (v *Visit) Completed() bool { return v.CompletedAt != nil }

// VisitAnswer stores one answer captured during visit completion.  Either
// AnswerText or AnswerJSON is populated depending on the question's input
// type.
//
// Fields:
//
//	ID         – primary key identifier.
//	TenantID   – owning tenant.
//	VisitID    – parent visit.
//	QuestionID – survey question answered (nullable for free-form notes).
//	AnswerText – plain text answer.
//	AnswerJSON – structured answer payload.
//	CreatedAt  – timestamp of creation.
type VisitAnswer struct {
	ID         uuid.UUID       // visit_answers.id
	TenantID   uuid.UUID       // visit_answers.tenant_id
	VisitID    uuid.UUID       // visit_answers.visit_id
	QuestionID *uuid.UUID      // visit_answers.question_id (nullable)
	AnswerText *string         // visit_answers.answer_text (nullable)
	AnswerJSON json.RawMessage // visit_answers.answer_json (nullable JSON)
	CreatedAt  time.Time       // visit_answers.created_at
}
