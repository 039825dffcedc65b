package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// ErrVisitNotFound is returned when a visit cannot be found within the
// requested tenant.
var ErrVisitNotFound = errors.New("visit not found")

// ErrVisitCompleted is returned when completing a visit that was already
// completed.  Completion is one-way and happens exactly once.
var ErrVisitCompleted = errors.New("visit already completed")

// VisitRepo encapsulates all database queries related to visits and their
// answers.
type VisitRepo struct {
	db *sql.DB
}

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

// VisitFilter narrows List results.  All set fields combine with AND.
// Start and End bound started_at inclusively.
type VisitFilter struct {
	UserID    *uuid.UUID
	SurveyID  *uuid.UUID
	VisitType string
	ShopID    *uuid.UUID
	Start     *time.Time
	End       *time.Time
	Completed *bool // true: completed only, false: in progress only
}

// Create inserts a visit with started_at set to the current time.
func (r *VisitRepo) Create(ctx context.Context, v *model.Visit) error {
	v.ID = uuid.New()
	now := time.Now().UTC()
	v.StartedAt = &now
	const q = `INSERT INTO visits (id, tenant_id, survey_id, user_id, visit_type, geocode, shop_id, started_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		v.ID, v.TenantID, v.SurveyID, v.UserID, v.VisitType,
		nullableJSON(v.Geocode), v.ShopID, v.StartedAt); err != nil {
		if isFKViolation(err) {
			return ErrSurveyNotFound
		}
		return err
	}
	const qSel = "SELECT created_at FROM visits WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSel, v.ID).Scan(&v.CreatedAt)
}

// GetByID fetches a visit within a tenant.
func (r *VisitRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Visit, error) {
	const q = `SELECT id, tenant_id, survey_id, user_id, visit_type, geocode, shop_id,
                      started_at, completed_at, created_at
               FROM visits WHERE tenant_id = ? AND id = ?`
	v, err := r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}
	return v, nil
}

// List returns the tenant's visits matching the filter, newest first.
func (r *VisitRepo) List(ctx context.Context, tenantID uuid.UUID, f VisitFilter) ([]*model.Visit, error) {
	q := `SELECT id, tenant_id, survey_id, user_id, visit_type, geocode, shop_id,
                 started_at, completed_at, created_at
          FROM visits WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.UserID != nil {
		q += " AND user_id = ?"
		args = append(args, *f.UserID)
	}
	if f.SurveyID != nil {
		q += " AND survey_id = ?"
		args = append(args, *f.SurveyID)
	}
	if f.VisitType != "" {
		q += " AND visit_type = ?"
		args = append(args, f.VisitType)
	}
	if f.ShopID != nil {
		q += " AND shop_id = ?"
		args = append(args, *f.ShopID)
	}
	if f.Start != nil {
		q += " AND started_at >= ?"
		args = append(args, *f.Start)
	}
	if f.End != nil {
		q += " AND started_at <= ?"
		args = append(args, *f.End)
	}
	if f.Completed != nil {
		if *f.Completed {
			q += " AND completed_at IS NOT NULL"
		} else {
			q += " AND completed_at IS NULL"
		}
	}
	q += " ORDER BY started_at DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Visit
	for rows.Next() {
		v, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Complete marks a visit completed and attaches its answers in a single
// transaction.  Only the visit's own agent may complete it; a second
// completion attempt returns ErrVisitCompleted and changes nothing.
func (r *VisitRepo) Complete(ctx context.Context, tenantID, id, userID uuid.UUID, answers []*model.VisitAnswer) error {
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

	var ownerID uuid.UUID
	var completedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, completed_at FROM visits WHERE tenant_id = ? AND id = ? FOR UPDATE",
		tenantID, id).Scan(&ownerID, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrVisitNotFound
		}
		return err
	}
	if ownerID != userID {
		err = ErrForbidden
		return err
	}
	if completedAt.Valid {
		err = ErrVisitCompleted
		return err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE visits SET completed_at = ? WHERE tenant_id = ? AND id = ?",
		time.Now().UTC(), tenantID, id); err != nil {
		return err
	}
	const qAns = `INSERT INTO visit_answers (id, tenant_id, visit_id, question_id, answer_text, answer_json)
                  VALUES (?, ?, ?, ?, ?, ?)`
	for _, a := range answers {
		a.ID = uuid.New()
		a.TenantID = tenantID
		a.VisitID = id
		if _, err = tx.ExecContext(ctx, qAns,
			a.ID, a.TenantID, a.VisitID, a.QuestionID, a.AnswerText, nullableJSON(a.AnswerJSON)); err != nil {
			if isFKViolation(err) {
				err = ErrQuestionNotFound
			}
			return err
		}
	}
	return nil
}

// ListAnswers returns the answers recorded for one visit.
func (r *VisitRepo) ListAnswers(ctx context.Context, tenantID, visitID uuid.UUID) ([]*model.VisitAnswer, error) {
	const q = `SELECT id, tenant_id, visit_id, question_id, answer_text, answer_json, created_at
               FROM visit_answers WHERE tenant_id = ? AND visit_id = ?
               ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VisitAnswer
	for rows.Next() {
		var a model.VisitAnswer
		var questionID uuid.NullUUID
		var text sql.NullString
		var payload []byte
		if err := rows.Scan(&a.ID, &a.TenantID, &a.VisitID, &questionID, &text, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.QuestionID = uuidPtr(questionID)
		a.AnswerText = strPtr(text)
		a.AnswerJSON = payload
		out = append(out, &a)
	}
	return out, rows.Err()
}

// ListInWindow returns visits whose started_at falls in [start, end],
// optionally narrowed to one agent.  The analytics aggregator reads
// through this method only.
func (r *VisitRepo) ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time, userID *uuid.UUID) ([]*model.Visit, error) {
	return r.List(ctx, tenantID, VisitFilter{UserID: userID, Start: &start, End: &end})
}

// UserVisitCount aggregates visit totals for one agent.
type UserVisitCount struct {
	UserID    uuid.UUID
	Total     int
	Completed int
}

// CountByUser groups the tenant's visits in [start, end] by agent.
func (r *VisitRepo) CountByUser(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]UserVisitCount, error) {
	const q = `SELECT user_id, COUNT(*), COUNT(completed_at)
               FROM visits WHERE tenant_id = ? AND started_at >= ? AND started_at <= ?
               GROUP BY user_id`
	rows, err := r.db.QueryContext(ctx, q, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserVisitCount
	for rows.Next() {
		var c UserVisitCount
		if err := rows.Scan(&c.UserID, &c.Total, &c.Completed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SurveyVisitCount aggregates visit totals for one survey.
type SurveyVisitCount struct {
	SurveyID  uuid.UUID
	Total     int
	Completed int
}

// CountBySurvey groups all of the tenant's visits by survey.
func (r *VisitRepo) CountBySurvey(ctx context.Context, tenantID uuid.UUID) ([]SurveyVisitCount, error) {
	const q = `SELECT survey_id, COUNT(*), COUNT(completed_at)
               FROM visits WHERE tenant_id = ?
               GROUP BY survey_id`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SurveyVisitCount
	for rows.Next() {
		var c SurveyVisitCount
		if err := rows.Scan(&c.SurveyID, &c.Total, &c.Completed); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *VisitRepo) scanOne(row rowScanner) (*model.Visit, error) {
	var v model.Visit
	var geocode []byte
	var shopID uuid.NullUUID
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&v.ID, &v.TenantID, &v.SurveyID, &v.UserID, &v.VisitType,
		&geocode, &shopID, &startedAt, &completedAt, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Geocode = geocode
	v.ShopID = uuidPtr(shopID)
	v.StartedAt = timePtr(startedAt)
	v.CompletedAt = timePtr(completedAt)
	return &v, nil
}
