package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/salesync/field-api/internal/model"
)

func TestTenantBootstrapCommitsTenantUserAndRoles(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tenants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at FROM tenants").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	tenant := &model.Tenant{Name: "Acme"}
	admin := &model.User{
		Email:        "Admin@Acme.test",
		PasswordHash: "$2a$10$hash",
		Roles:        []model.Role{model.RoleAdmin},
	}
	if err := repo.Bootstrap(context.Background(), tenant, admin); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if admin.TenantID != tenant.ID {
		t.Fatalf("admin must land in the new tenant: %v vs %v", admin.TenantID, tenant.ID)
	}
	if admin.Email != "admin@acme.test" {
		t.Fatalf("email must be normalized, got %q", admin.Email)
	}
	if !admin.IsActive || tenant.CreatedAt.IsZero() {
		t.Fatalf("row state not populated: active=%v created=%v", admin.IsActive, tenant.CreatedAt)
	}
	expectMet(t, mock)
}

func TestTenantBootstrapRollsBackOnUserConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tenants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the admin email already exists: the tenant insert must be undone too
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	tenant := &model.Tenant{Name: "Acme"}
	admin := &model.User{Email: "admin@acme.test", PasswordHash: "x", Roles: []model.Role{model.RoleAdmin}}
	err := repo.Bootstrap(context.Background(), tenant, admin)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectMet(t, mock)
}

func TestTenantBootstrapRollsBackOnDuplicateName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tenants").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	err := repo.Bootstrap(context.Background(), &model.Tenant{Name: "Acme"},
		&model.User{Email: "admin@acme.test", PasswordHash: "x"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectMet(t, mock)
}
