package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func visitLockRow(ownerID uuid.UUID, completedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "completed_at"}).
		AddRow(ownerID.String(), completedAt)
}

func TestVisitCompleteSecondAttemptConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVisitRepo(db)

	tenantID, visitID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(visitLockRow(userID, time.Now().Add(-time.Hour)))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), tenantID, visitID, userID, nil)
	if !errors.Is(err, ErrVisitCompleted) {
		t.Fatalf("expected ErrVisitCompleted, got %v", err)
	}
	expectMet(t, mock)
}

func TestVisitCompleteOtherAgentForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVisitRepo(db)

	tenantID, visitID := uuid.New(), uuid.New()
	owner, intruder := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(visitLockRow(owner, nil))
	mock.ExpectRollback()

	err := repo.Complete(context.Background(), tenantID, visitID, intruder, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectMet(t, mock)
}

func TestVisitCompleteMarksAndCommits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVisitRepo(db)

	tenantID, visitID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(visitLockRow(userID, nil))
	mock.ExpectExec("UPDATE visits SET completed_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Complete(context.Background(), tenantID, visitID, userID, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	expectMet(t, mock)
}
