package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrSurveyNotFound is returned when a survey cannot be found within the
// requested tenant.
var ErrSurveyNotFound = errors.New("survey not found")

// ErrQuestionNotFound is returned when a survey question cannot be found
// within the requested tenant.
var ErrQuestionNotFound = errors.New("question not found")

// SurveyRepo encapsulates all database queries related to surveys and
// their ordered question lists.
type SurveyRepo struct {
	db *sql.DB
}

func NewSurveyRepo(db *sql.DB) *SurveyRepo { return &SurveyRepo{db: db} }

// SurveyFilter narrows List results.  All set fields combine with AND.
type SurveyFilter struct {
	Name    string // substring match on name
	Type    string // exact match on survey type
	Active  *bool  // exact match on the active flag
	BrandID *uuid.UUID
}

// Create inserts a survey.
func (r *SurveyRepo) Create(ctx context.Context, s *model.Survey) error {
	s.ID = uuid.New()
	const q = `INSERT INTO surveys (id, tenant_id, name, type, brand_id, active, created_by)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		s.ID, s.TenantID, s.Name, s.Type, s.BrandID, s.Active, s.CreatedBy); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM surveys WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, s.ID).Scan(&s.CreatedAt)
}

// GetByID fetches a survey within a tenant.
func (r *SurveyRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Survey, error) {
	const q = `SELECT id, tenant_id, name, type, brand_id, active, created_by, created_at
               FROM surveys WHERE tenant_id = ? AND id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
}

// List returns the tenant's surveys matching the filter.
func (r *SurveyRepo) List(ctx context.Context, tenantID uuid.UUID, f SurveyFilter) ([]*model.Survey, error) {
	q := `SELECT id, tenant_id, name, type, brand_id, active, created_by, created_at
          FROM surveys WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.Name != "" {
		q += " AND name LIKE ?"
		args = append(args, "%"+f.Name+"%")
	}
	if f.Type != "" {
		q += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Active != nil {
		q += " AND active = ?"
		args = append(args, *f.Active)
	}
	if f.BrandID != nil {
		q += " AND brand_id = ?"
		args = append(args, *f.BrandID)
	}
	q += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Survey
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SurveyUpdate carries the optional fields of a partial survey update.
type SurveyUpdate struct {
	Name   *string
	Active *bool
}

// Update applies a partial update within the tenant and returns the fresh
// row.
func (r *SurveyRepo) Update(ctx context.Context, tenantID, id uuid.UUID, upd SurveyUpdate) (*model.Survey, error) {
	const q = `UPDATE surveys SET
                 name = COALESCE(?, name),
                 active = COALESCE(?, active)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q, upd.Name, upd.Active, tenantID, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenantID, id)
}

// Delete removes a survey and its questions in one transaction.  Surveys
// referenced by visits cannot be removed; the foreign key violation
// surfaces as ErrConflict so handlers answer 409.
func (r *SurveyRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uuid.UUID
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM surveys WHERE tenant_id = ? AND id = ?", tenantID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSurveyNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM survey_questions WHERE tenant_id = ? AND survey_id = ?", tenantID, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM surveys WHERE tenant_id = ? AND id = ?", tenantID, id); err != nil {
		// 1451: cannot delete a parent row referenced by visits
		if isFKViolation(err) {
			err = ErrConflict
		}
		return err
	}
	return nil
}

// ListQuestions returns the survey's questions sorted by order number,
// creation order breaking ties.
func (r *SurveyRepo) ListQuestions(ctx context.Context, tenantID, surveyID uuid.UUID) ([]*model.SurveyQuestion, error) {
	const q = `SELECT id, tenant_id, survey_id, question_text, input_type, meta, order_num, created_at
               FROM survey_questions WHERE tenant_id = ? AND survey_id = ?
               ORDER BY order_num, created_at, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SurveyQuestion
	for rows.Next() {
		sq, err := r.scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sq)
	}
	return out, rows.Err()
}

// GetQuestion fetches a question within a tenant by its own id.
func (r *SurveyRepo) GetQuestion(ctx context.Context, tenantID, id uuid.UUID) (*model.SurveyQuestion, error) {
	const q = `SELECT id, tenant_id, survey_id, question_text, input_type, meta, order_num, created_at
               FROM survey_questions WHERE tenant_id = ? AND id = ?`
	sq, err := r.scanQuestion(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return sq, nil
}

// CreateQuestion appends a question to the survey.
func (r *SurveyRepo) CreateQuestion(ctx context.Context, sq *model.SurveyQuestion) error {
	sq.ID = uuid.New()
	const q = `INSERT INTO survey_questions
               (id, tenant_id, survey_id, question_text, input_type, meta, order_num)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		sq.ID, sq.TenantID, sq.SurveyID, sq.QuestionText, sq.InputType, nullableJSON(sq.Meta), sq.OrderNum); err != nil {
		return err
	}
	const qSel = "SELECT created_at FROM survey_questions WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, sq.ID).Scan(&sq.CreatedAt)
}

// QuestionUpdate carries the optional fields of a partial question update.
type QuestionUpdate struct {
	QuestionText *string
	InputType    *string
	Meta         []byte // nil leaves meta untouched
	OrderNum     *int
}

// UpdateQuestion applies a partial update and returns the fresh row.
func (r *SurveyRepo) UpdateQuestion(ctx context.Context, tenantID, id uuid.UUID, upd QuestionUpdate) (*model.SurveyQuestion, error) {
	const q = `UPDATE survey_questions SET
                 question_text = COALESCE(?, question_text),
                 input_type = COALESCE(?, input_type),
                 meta = COALESCE(?, meta),
                 order_num = COALESCE(?, order_num)
               WHERE tenant_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, q,
		upd.QuestionText, upd.InputType, nullableJSON(upd.Meta), upd.OrderNum, tenantID, id); err != nil {
		return nil, err
	}
	return r.GetQuestion(ctx, tenantID, id)
}

// DeleteQuestion removes one question.
func (r *SurveyRepo) DeleteQuestion(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM survey_questions WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *SurveyRepo) scanOne(row rowScanner) (*model.Survey, error) {
	var s model.Survey
	var brandID, createdBy uuid.NullUUID
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Type, &brandID, &s.Active, &createdBy, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSurveyNotFound
		}
		return nil, err
	}
	s.BrandID = uuidPtr(brandID)
	s.CreatedBy = uuidPtr(createdBy)
	return &s, nil
}

func (r *SurveyRepo) scanQuestion(row rowScanner) (*model.SurveyQuestion, error) {
	var sq model.SurveyQuestion
	var meta []byte
	if err := row.Scan(&sq.ID, &sq.TenantID, &sq.SurveyID, &sq.QuestionText,
		&sq.InputType, &meta, &sq.OrderNum, &sq.CreatedAt); err != nil {
		return nil, err
	}
	sq.Meta = meta
	return &sq, nil
}
