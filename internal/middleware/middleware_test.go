package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/token"
)

const testSecret = "middleware-test-secret"

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// run builds a request through the given middleware chain and returns the
// recorder plus the echo context after the chain executed.
func run(t *testing.T, header http.Header, h echo.HandlerFunc, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func bearer(t *testing.T, c token.Claims) http.Header {
	t.Helper()
	at, err := token.NewAccessToken(testSecret, c, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+at.Token)
	return h
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	rec, _ := run(t, nil, okHandler, JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsBadSignature(t *testing.T) {
	at, err := token.NewAccessToken("other-secret", token.Claims{UserID: uuid.New()}, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+at.Token)
	rec, _ := run(t, h, okHandler, JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthStoresClaims(t *testing.T) {
	want := token.Claims{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Roles:    []model.Role{model.RoleAgent},
		Email:    "agent@example.com",
	}
	var got *token.Claims
	capture := func(c echo.Context) error {
		got, _ = ClaimsFrom(c)
		return c.NoContent(http.StatusOK)
	}
	rec, _ := run(t, bearer(t, want), capture, JWTAuth(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.UserID != want.UserID || got.TenantID != want.TenantID {
		t.Fatalf("claims = %+v, want %+v", got, want)
	}
}

func TestRequireRoleSeniority(t *testing.T) {
	cases := []struct {
		name string
		held model.Role
		min  model.Role
		want int
	}{
		{"agent denied manager route", model.RoleAgent, model.RoleAreaManager, http.StatusForbidden},
		{"team leader denied manager route", model.RoleTeamLeader, model.RoleAreaManager, http.StatusForbidden},
		{"area manager allowed", model.RoleAreaManager, model.RoleAreaManager, http.StatusOK},
		{"admin passes manager route", model.RoleAdmin, model.RoleAreaManager, http.StatusOK},
		{"super admin passes admin route", model.RoleSuperAdmin, model.RoleAdmin, http.StatusOK},
		{"agent passes agent route", model.RoleAgent, model.RoleAgent, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := token.Claims{UserID: uuid.New(), TenantID: uuid.New(), Roles: []model.Role{tc.held}}
			rec, _ := run(t, bearer(t, claims), okHandler, JWTAuth(testSecret), RequireRole(tc.min))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireAnyRoleExactSet(t *testing.T) {
	// Seniority does not expand here: an admin is still not super_admin.
	admin := token.Claims{UserID: uuid.New(), TenantID: uuid.New(), Roles: []model.Role{model.RoleAdmin}}
	rec, _ := run(t, bearer(t, admin), okHandler, JWTAuth(testSecret), RequireAnyRole(model.RoleSuperAdmin))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin on super-admin route: status = %d, want 403", rec.Code)
	}

	super := token.Claims{UserID: uuid.New(), Roles: []model.Role{model.RoleSuperAdmin}}
	rec, _ = run(t, bearer(t, super), okHandler, JWTAuth(testSecret), RequireAnyRole(model.RoleSuperAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("super admin: status = %d, want 200", rec.Code)
	}
}

func TestTenantScopeFromClaims(t *testing.T) {
	tenantID := uuid.New()
	claims := token.Claims{UserID: uuid.New(), TenantID: tenantID, Roles: []model.Role{model.RoleAgent}}
	var got uuid.UUID
	capture := func(c echo.Context) error {
		got, _ = TenantFrom(c)
		return c.NoContent(http.StatusOK)
	}
	rec, _ := run(t, bearer(t, claims), capture, JWTAuth(testSecret), TenantScope())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got != tenantID {
		t.Fatalf("tenant = %s, want %s", got, tenantID)
	}
}

func TestTenantScopeRejectsNoTenant(t *testing.T) {
	claims := token.Claims{UserID: uuid.New(), Roles: []model.Role{model.RoleAgent}}
	rec, _ := run(t, bearer(t, claims), okHandler, JWTAuth(testSecret), TenantScope())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestTenantScopeOverrideSuperAdminOnly(t *testing.T) {
	override := uuid.New()

	// A super admin may act on behalf of any tenant via the header.
	super := token.Claims{UserID: uuid.New(), Roles: []model.Role{model.RoleSuperAdmin}}
	h := bearer(t, super)
	h.Set(TenantHeader, override.String())
	var got uuid.UUID
	capture := func(c echo.Context) error {
		got, _ = TenantFrom(c)
		return c.NoContent(http.StatusOK)
	}
	rec, _ := run(t, h, capture, JWTAuth(testSecret), TenantScope())
	if rec.Code != http.StatusOK {
		t.Fatalf("super admin override: status = %d, want 200", rec.Code)
	}
	if got != override {
		t.Fatalf("tenant = %s, want override %s", got, override)
	}

	// Everyone else keeps their claim tenant regardless of the header.
	own := uuid.New()
	agent := token.Claims{UserID: uuid.New(), TenantID: own, Roles: []model.Role{model.RoleAgent}}
	h = bearer(t, agent)
	h.Set(TenantHeader, override.String())
	rec, _ = run(t, h, capture, JWTAuth(testSecret), TenantScope())
	if rec.Code != http.StatusOK {
		t.Fatalf("agent with header: status = %d, want 200", rec.Code)
	}
	if got != own {
		t.Fatalf("tenant = %s, want own %s", got, own)
	}
}
