package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/salesync/field-api/internal/analytics"
	"github.com/salesync/field-api/internal/audit"
	"github.com/salesync/field-api/internal/config"
	"github.com/salesync/field-api/internal/database"
	"github.com/salesync/field-api/internal/handler"
	"github.com/salesync/field-api/internal/repository"
	"github.com/salesync/field-api/internal/router"
	"github.com/salesync/field-api/internal/storage"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and analytics cache disabled")
	}

	tenants := repository.NewTenantRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	brands := repository.NewBrandRepo(db)
	surveys := repository.NewSurveyRepo(db)
	visits := repository.NewVisitRepo(db)
	photos := repository.NewPhotoRepo(db)
	teams := repository.NewTeamRepo(db)
	goals := repository.NewGoalRepo(db)
	cycles := repository.NewCallCycleRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	files := storage.NewLocal(cfg.UploadDir, cfg.UploadBaseURL)
	recorder := audit.NewRecorder(auditRepo, audit.NewAMQPPublisher(), log)
	go func() {
		if err := audit.StartConsumer(log); err != nil {
			log.WithError(err).Error("audit consumer stopped")
		}
	}()

	reports := analytics.New(visits, brands, photos, cycles, users, surveys)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, tenants, users, tokens, recorder, log),
		Tenants:   handler.NewTenantHandler(tenants, recorder, log),
		Users:     handler.NewUserHandler(cfg, users, tokens, recorder, log),
		Brands:    handler.NewBrandHandler(brands, files, recorder, log),
		Surveys:   handler.NewSurveyHandler(surveys, recorder, log),
		Visits:    handler.NewVisitHandler(visits, photos, recorder, log),
		Photos:    handler.NewPhotoHandler(photos, visits, files, recorder, log),
		Teams:     handler.NewTeamHandler(teams, recorder, log),
		Goals:     handler.NewGoalHandler(goals, recorder, log),
		Cycles:    handler.NewCycleHandler(cycles, reports, recorder, log),
		Analytics: handler.NewAnalyticsHandler(reports, log),
		Audit:     handler.NewAuditHandler(auditRepo, log),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, db, rdb, h)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
