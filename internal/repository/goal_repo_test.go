package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// newMockDB wires a repository test against an in-memory driver.  Every
// statement the code runs must be expected, so the tests double as a
// statement-level trace of the repository.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func goalRow(tenantID, goalID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "metric", "target_value", "period", "start_date", "end_date", "created_at",
	}).AddRow(goalID.String(), tenantID.String(), "Q1 visits", "visits", nil, "monthly", nil, nil, time.Now())
}

func assignmentRow(assignmentID, goalID, assigneeID uuid.UUID, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "goal_id", "assignee_type", "assignee_id", "progress", "created_at",
	}).AddRow(assignmentID.String(), goalID.String(), "user", assigneeID.String(), nil, created)
}

func TestGoalAssignReturnsExistingAssignment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGoalRepo(db)

	tenantID, goalID, userID := uuid.New(), uuid.New(), uuid.New()
	existingID := uuid.New()
	created := time.Now().Add(-time.Hour)

	mock.ExpectQuery("FROM goals WHERE tenant_id").
		WillReturnRows(goalRow(tenantID, goalID))
	mock.ExpectQuery("FROM goal_assignments WHERE goal_id").
		WillReturnRows(assignmentRow(existingID, goalID, userID, created))

	// no INSERT is expected: a second assign of the same pair must only read
	a, err := repo.Assign(context.Background(), tenantID, goalID, model.AssigneeUser, userID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.ID != existingID {
		t.Fatalf("expected the original assignment back, got %v", a.ID)
	}
	expectMet(t, mock)
}

func TestGoalAssignInsertsWhenAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGoalRepo(db)

	tenantID, goalID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("FROM goals WHERE tenant_id").
		WillReturnRows(goalRow(tenantID, goalID))
	mock.ExpectQuery("FROM goal_assignments WHERE goal_id").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO goal_assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at FROM goal_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	a, err := repo.Assign(context.Background(), tenantID, goalID, model.AssigneeUser, userID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.GoalID != goalID || a.AssigneeID != userID {
		t.Fatalf("bad assignment: %+v", a)
	}
	expectMet(t, mock)
}

func TestGoalAssignRacedInsertRefetches(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGoalRepo(db)

	tenantID, goalID, userID := uuid.New(), uuid.New(), uuid.New()
	winnerID := uuid.New()

	mock.ExpectQuery("FROM goals WHERE tenant_id").
		WillReturnRows(goalRow(tenantID, goalID))
	mock.ExpectQuery("FROM goal_assignments WHERE goal_id").
		WillReturnError(sql.ErrNoRows)
	// a concurrent assign won the unique key race
	mock.ExpectExec("INSERT INTO goal_assignments").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectQuery("FROM goal_assignments WHERE goal_id").
		WillReturnRows(assignmentRow(winnerID, goalID, userID, time.Now()))

	a, err := repo.Assign(context.Background(), tenantID, goalID, model.AssigneeUser, userID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.ID != winnerID {
		t.Fatalf("expected the raced row back, got %v", a.ID)
	}
	expectMet(t, mock)
}

func TestGoalAssignUnknownGoal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGoalRepo(db)

	mock.ExpectQuery("FROM goals WHERE tenant_id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Assign(context.Background(), uuid.New(), uuid.New(), model.AssigneeUser, uuid.New())
	if !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
	expectMet(t, mock)
}
