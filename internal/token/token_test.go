package token

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

const testSecret = "test-secret"

func testClaims() Claims {
	return Claims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Roles:    []model.Role{model.RoleAgent, model.RoleTeamLeader},
		Email:    "agent@example.com",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	want := testClaims()
	at, err := NewAccessToken(testSecret, want, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}

	got, err := ParseAccessToken(testSecret, at.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if got.UserID != want.UserID {
		t.Errorf("user id = %s, want %s", got.UserID, want.UserID)
	}
	if got.TenantID != want.TenantID {
		t.Errorf("tenant id = %s, want %s", got.TenantID, want.TenantID)
	}
	if got.Email != want.Email {
		t.Errorf("email = %q, want %q", got.Email, want.Email)
	}
	if len(got.Roles) != len(want.Roles) {
		t.Fatalf("roles = %v, want %v", got.Roles, want.Roles)
	}
	for i := range want.Roles {
		if got.Roles[i] != want.Roles[i] {
			t.Errorf("role[%d] = %s, want %s", i, got.Roles[i], want.Roles[i])
		}
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, testClaims(), 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseAccessToken("other-secret", at.Token); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseAccessToken(testSecret, "not.a.jwt"); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestClaimsAtLeast(t *testing.T) {
	c := &Claims{Roles: []model.Role{model.RoleAreaManager}}
	if !c.AtLeast(model.RoleAgent) {
		t.Error("area_manager should satisfy agent")
	}
	if !c.AtLeast(model.RoleAreaManager) {
		t.Error("area_manager should satisfy itself")
	}
	if c.AtLeast(model.RoleAdmin) {
		t.Error("area_manager should not satisfy admin")
	}

	admin := &Claims{Roles: []model.Role{model.RoleAdmin}}
	if !admin.AtLeast(model.RoleNationalManager) {
		t.Error("admin should satisfy every manager requirement")
	}
}

func TestIsSuperAdmin(t *testing.T) {
	c := &Claims{Roles: []model.Role{model.RoleAdmin}}
	if c.IsSuperAdmin() {
		t.Error("admin is not super_admin")
	}
	c.Roles = append(c.Roles, model.RoleSuperAdmin)
	if !c.IsSuperAdmin() {
		t.Error("super_admin not detected")
	}
}

func TestRefreshTokenHashStable(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Errorf("raw length = %d, want 96", len(rt.Raw))
	}
	if rt.Exp.Before(time.Now().UTC().Add(6 * 24 * time.Hour)) {
		t.Error("expiry sooner than requested ttl")
	}
	if HashRaw(rt.Raw) != HashRaw(rt.Raw) {
		t.Error("hash not deterministic")
	}
	other, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if rt.Raw == other.Raw {
		t.Error("two refresh tokens collided")
	}
}
