package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/config"
	"github.com/salesync/field-api/internal/model"
	"github.com/salesync/field-api/internal/repository"
	"github.com/salesync/field-api/internal/utils"
)

// UserHandler serves tenant user management plus the self-service profile
// endpoints.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Recorder *audit.Recorder
	Log      *logrus.Logger
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, rec *audit.Recorder, log *logrus.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, Recorder: rec, Log: log}
}

type createUserReq struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Phone     *string  `json:"phone"`
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Roles     []string `json:"roles"`
}

type updateUserReq struct {
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

// List handles GET /api/users with email/is_active filters.
func (h *UserHandler) List(c echo.Context) error {
	isActive, err := queryBool(c, "is_active")
	if err != nil {
		return badRequest(c, "invalid is_active")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, tenantOf(c), repository.UserFilter{
		Email:    c.QueryParam("email"),
		IsActive: isActive,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	items := make([]echo.Map, 0, len(users))
	for _, u := range users {
		items = append(items, userJSON(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/users (admin).
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	roles, err := parseRoles(req.Roles)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if len(roles) == 0 {
		roles = []model.Role{model.RoleAgent}
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := &model.User{
		TenantID:     tenantOf(c),
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        roles,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "create_user", "user", u.ID, echo.Map{"email": u.Email})
	return c.JSON(http.StatusCreated, userJSON(u))
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

// Update handles PUT /api/users/:id (admin).
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Update(ctx, tenantOf(c), id, repository.UserUpdate{
		Email:     normalizeEmail(req.Email),
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "update_user", "user", u.ID, nil)
	return c.JSON(http.StatusOK, userJSON(u))
}

// UpdateMe handles PUT /api/users/me: profile fields only, never the
// active flag.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Update(ctx, tenantOf(c), claimsOf(c).UserID, repository.UserUpdate{
		Email:     normalizeEmail(req.Email),
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, tenantOf(c), claimsOf(c).UserID)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

// Delete handles DELETE /api/users/:id.  Accounts are deactivated, never
// removed, and all refresh tokens are revoked.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Deactivate(ctx, tenantOf(c), id); err != nil {
		return respondErr(c, h.Log, err)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
		h.Log.WithError(err).Warn("token revocation on deactivate failed")
	}
	record(c, h.Recorder, h.Log, "delete_user", "user", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "user deactivated"})
}

// ReplaceRoles handles PUT /api/users/:id/roles (admin).
func (h *UserHandler) ReplaceRoles(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Roles []string `json:"roles"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	roles, err := parseRoles(req.Roles)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if len(roles) == 0 {
		return badRequest(c, "roles required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.ReplaceRoles(ctx, tenantOf(c), id, roles); err != nil {
		return respondErr(c, h.Log, err)
	}
	u, err := h.Users.GetByID(ctx, tenantOf(c), id)
	if err != nil {
		return respondErr(c, h.Log, err)
	}
	record(c, h.Recorder, h.Log, "replace_roles", "user", id, echo.Map{"roles": req.Roles})
	return c.JSON(http.StatusOK, userJSON(u))
}

// ListRoles handles GET /api/roles: the fixed role ladder in seniority
// order.
func (h *UserHandler) ListRoles(c echo.Context) error {
	roles := make([]string, 0, len(model.AllRoles))
	for _, r := range model.AllRoles {
		roles = append(roles, string(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": roles})
}

func parseRoles(names []string) ([]model.Role, error) {
	var roles []model.Role
	for _, n := range names {
		r, err := model.ParseRole(n)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	return &e
}
