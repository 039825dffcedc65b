package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/config"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
	"github.com/salesync/field-api/internal/token"
	"github.com/salesync/field-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Tenants  *repository.TenantRepo
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewAuthHandler(cfg config.Config, tn *repository.TenantRepo, u *repository.UserRepo, t *repository.TokenRepo, rec *audit.Recorder, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Tenants: tn, Users: u, Tokens: t, Recorder: rec, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	TenantName string `json:"tenant_name"`
	Subdomain  string `json:"subdomain"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    echo.Map  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register bootstraps a tenant together with its first admin user and
// returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.TenantName = strings.TrimSpace(req.TenantName)
	if req.TenantName == "" {
		return badRequest(c, "tenant_name is required")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	tenant := &model.Tenant{Name: req.TenantName}
	if sub := strings.TrimSpace(req.Subdomain); sub != "" {
		tenant.Subdomain = &sub
	}
	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Roles:        []model.Role{model.RoleAdmin},
	}
	if f := strings.TrimSpace(req.FirstName); f != "" {
		user.FirstName = &f
	}
	if l := strings.TrimSpace(req.LastName); l != "" {
		user.LastName = &l
	}
	// one transaction: a failed admin insert must not leave an orphan tenant
	if err := h.Tenants.Bootstrap(ctx, tenant, user); err != nil {
		return respondErr(c, h.Log, err)
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "register_tenant", "tenant", tenant.ID,
		echo.Map{"tenant_name": tenant.Name, "admin_email": user.Email})
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a fresh token pair.  Inactive
// accounts and bad passwords answer identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondErr(c, h.Log, err)
	}
	if !user.IsActive || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := h.Users.UpdateLastLogin(ctx, user.ID); err != nil {
		h.Log.WithError(err).Warn("last_login_at update failed")
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a valid refresh token into a new token pair.  The old
// token is revoked so it cannot be replayed.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash := token.HashRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	user, err := h.Users.GetByAnyTenantID(ctx, userID)
	if err != nil || !user.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondErr(c, h.Log, err)
	}

	resp, err := h.issueTokens(c, user)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.RevokeByHash(ctx, token.HashRaw(req.RefreshToken)); err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) issueTokens(c echo.Context, user *model.User) (*authResp, error) {
	claims := token.Claims{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Roles:    user.Roles,
		Email:    user.Email,
	}
	access, err := token.NewAccessToken(h.Cfg.JWTSecret, claims, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, user.ID, token.HashRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &authResp{
		User:    userJSON(user),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
