package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Survey is a questionnaire agents fill in during visits.  Type is either
// "individual" or "shop" and controls which visit types may reference it.
//
// Fields:
//
//	ID        – primary key identifier.
//	TenantID  – owning tenant.
//	Name      – survey name.
//	Type      – 'individual' or 'shop'.
//	BrandID   – optional brand the survey belongs to.
//	Active    – whether the survey accepts new visits.
//	CreatedBy – user who created the survey.
//	CreatedAt – timestamp of creation.
type Survey struct {
	ID        uuid.UUID  // surveys.id
	TenantID  uuid.UUID  // surveys.tenant_id
	Name      string     // surveys.name
	Type      string     // surveys.type
	BrandID   *uuid.UUID // surveys.brand_id (nullable)
	Active    bool       // surveys.active
	CreatedBy *uuid.UUID // surveys.created_by (nullable)
	CreatedAt time.Time  // surveys.created_at
}

// SurveyQuestion is one question of a survey.  Questions are an ordered
// sub-collection: listings sort by OrderNum ascending with creation order
// breaking ties.  Meta carries input-type specific settings (choices,
// validation rules, help text) as raw JSON.
//
// Fields:
//
//	ID           – primary key identifier.
//	TenantID     – owning tenant.
//	SurveyID     – parent survey.
//	QuestionText – the question shown to the agent.
//	InputType    – 'text', 'select', 'boolean', 'photo' or 'number'.
//	Meta         – input-type specific JSON payload.
//	OrderNum     – explicit ordering number.
//	CreatedAt    – timestamp of creation.
type SurveyQuestion struct {
	ID           uuid.UUID       // survey_questions.id
	TenantID     uuid.UUID       // survey_questions.tenant_id
	SurveyID     uuid.UUID       // survey_questions.survey_id
	QuestionText string          // survey_questions.question_text
	InputType    string          // survey_questions.input_type
	Meta         json.RawMessage // survey_questions.meta (nullable JSON)
	OrderNum     int             // survey_questions.order_num
	CreatedAt    time.Time       // survey_questions.created_at
}
