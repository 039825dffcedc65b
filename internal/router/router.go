// Package router wires handlers, middleware and role requirements onto
// the Echo instance.  Route groups mirror the resource layout: public
// auth endpoints, a tenant-scoped /api group and a small super-admin
// surface that works without a tenant.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/salesync/field-api/internal/config"
	"github.com/salesync/field-api/internal/handler"
	"github.com/salesync/field-api/internal/middleware"
	"github.com/salesync/field-api/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Tenants   *handler.TenantHandler
	Users     *handler.UserHandler
	Brands    *handler.BrandHandler
	Surveys   *handler.SurveyHandler
	Visits    *handler.VisitHandler
	Photos    *handler.PhotoHandler
	Teams     *handler.TeamHandler
	Goals     *handler.GoalHandler
	Cycles    *handler.CycleHandler
	Analytics *handler.AnalyticsHandler
	Audit     *handler.AuditHandler
}

// Register mounts all routes.  rdb may be nil; rate limiting and the
// analytics cache then switch themselves off.
func Register(e *echo.Echo, cfg config.Config, db *sql.DB, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health(db))
	e.Static(cfg.UploadBaseURL, cfg.UploadDir)

	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// Session endpoints carry no bearer token.
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	jwt := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)
	manager := middleware.RequireRole(model.RoleAreaManager)
	superAdmin := middleware.RequireAnyRole(model.RoleSuperAdmin)

	// Super-admin surface.  No TenantScope here: a platform operator may
	// hold no tenant of their own.
	platform := e.Group("/api", jwt, superAdmin)
	platform.GET("/tenants", h.Tenants.List)
	platform.POST("/tenants", h.Tenants.Create)
	platform.GET("/tenants/:id", h.Tenants.Get)
	platform.PUT("/tenants/:id", h.Tenants.Update)
	platform.GET("/audit/all", h.Audit.SearchAll)

	// Everything below runs with a resolved tenant.
	api := e.Group("/api", jwt, middleware.TenantScope())

	api.GET("/roles", h.Users.ListRoles)
	api.GET("/me", h.Users.Me)
	api.PUT("/me", h.Users.UpdateMe)

	api.GET("/users", h.Users.List)
	api.POST("/users", h.Users.Create, admin)
	api.GET("/users/:id", h.Users.Get)
	api.PUT("/users/:id", h.Users.Update, admin)
	api.DELETE("/users/:id", h.Users.Delete, admin)
	api.PUT("/users/:id/roles", h.Users.ReplaceRoles, admin)

	api.GET("/brands", h.Brands.List)
	api.POST("/brands", h.Brands.Create, admin)
	api.GET("/brands/:id", h.Brands.Get)
	api.PUT("/brands/:id", h.Brands.Update, admin)
	api.DELETE("/brands/:id", h.Brands.Delete, admin)
	api.GET("/brands/:id/infographics", h.Brands.ListInfographics)
	api.POST("/brands/:id/infographics", h.Brands.UploadInfographic, admin)

	api.GET("/surveys", h.Surveys.List)
	api.POST("/surveys", h.Surveys.Create, admin)
	api.GET("/surveys/:id", h.Surveys.Get)
	api.PUT("/surveys/:id", h.Surveys.Update, admin)
	api.DELETE("/surveys/:id", h.Surveys.Delete, admin)
	api.GET("/surveys/:id/questions", h.Surveys.ListQuestions)
	api.POST("/surveys/:id/questions", h.Surveys.CreateQuestion, admin)
	api.PUT("/questions/:id", h.Surveys.UpdateQuestion, admin)
	api.DELETE("/questions/:id", h.Surveys.DeleteQuestion, admin)

	api.GET("/visits", h.Visits.List)
	api.POST("/visits", h.Visits.Create)
	api.GET("/visits/:id", h.Visits.Get)
	api.POST("/visits/:id/complete", h.Visits.Complete)
	api.GET("/visits/:id/answers", h.Visits.ListAnswers)
	api.GET("/visits/:id/photos", h.Visits.ListPhotos)

	api.GET("/photos", h.Photos.List)
	api.POST("/photos", h.Photos.Upload)
	api.GET("/photos/:id", h.Photos.Get)
	api.GET("/photos/:id/quadrants", h.Photos.ListQuadrants)
	api.POST("/photos/:id/quadrants", h.Photos.CreateQuadrant)

	api.GET("/teams", h.Teams.List)
	api.POST("/teams", h.Teams.Create, manager)
	api.GET("/teams/:id", h.Teams.Get)
	api.PUT("/teams/:id", h.Teams.Update, manager)
	api.DELETE("/teams/:id", h.Teams.Delete, manager)
	api.POST("/teams/:id/members", h.Teams.AddMember, manager)
	api.DELETE("/teams/:id/members/:user_id", h.Teams.RemoveMember, manager)

	api.GET("/goals", h.Goals.List)
	api.POST("/goals", h.Goals.Create, manager)
	api.GET("/goals/:id", h.Goals.Get)
	api.PUT("/goals/:id", h.Goals.Update, manager)
	api.DELETE("/goals/:id", h.Goals.Delete, manager)
	api.POST("/goals/:id/assign", h.Goals.Assign, manager)
	api.POST("/goals/:id/unassign", h.Goals.Unassign, manager)
	api.GET("/goals/:id/assignments", h.Goals.ListAssignments)
	api.GET("/assignments/:id/progress", h.Goals.GetProgress)
	api.PUT("/assignments/:id/progress", h.Goals.UpdateProgress)

	api.GET("/call_cycles", h.Cycles.List)
	api.POST("/call_cycles", h.Cycles.Create, manager)
	api.GET("/call_cycles/:id", h.Cycles.Get)
	api.PUT("/call_cycles/:id", h.Cycles.Update, manager)
	api.DELETE("/call_cycles/:id", h.Cycles.Delete, manager)
	api.POST("/call_cycles/:id/locations", h.Cycles.AddLocation, manager)
	api.DELETE("/call_cycles/:id/locations/:loc_id", h.Cycles.RemoveLocation, manager)
	api.PUT("/call_cycles/:id/locations/order", h.Cycles.ReorderLocations, manager)
	api.GET("/call_cycles/:id/status", h.Cycles.Status)

	// Analytics reads tolerate slightly stale data, so responses are
	// cached per tenant+route+query.
	cache := middleware.CacheAnalytics(config.LoadCacheConfig(), rdb)
	api.GET("/analytics/overview", h.Analytics.Overview, cache)
	api.GET("/analytics/visits", h.Analytics.Visits, cache)
	api.GET("/analytics/shelf_share", h.Analytics.ShelfShare, cache)
	api.GET("/analytics/call_cycle_coverage", h.Analytics.Coverage, cache)

	api.GET("/admin/users/activity", h.Analytics.UserActivity, admin, cache)
	api.GET("/admin/surveys/completion", h.Analytics.SurveyCompletion, admin, cache)

	api.GET("/audit", h.Audit.Search, admin)
}
