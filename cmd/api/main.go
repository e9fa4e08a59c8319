package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callmanager/internal/audit"
	"callmanager/internal/auth"
	"callmanager/internal/calls"
	"callmanager/internal/config"
	"callmanager/internal/dispatch"
	"callmanager/internal/httpapi"
	"callmanager/internal/registry"
	"callmanager/internal/reporting"
	"callmanager/internal/scheduling"
	"callmanager/internal/subjects"
	"callmanager/pkg/logger"
	"callmanager/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Call specs for this deployment. Registration order is dispatch order.
	reg := registry.New()
	if err := registerCallSpecs(reg); err != nil {
		log.Error("call spec registration failed", "err", err)
		os.Exit(1)
	}

	callRepo := calls.NewPostgresRepo(db)
	subjectRepo := subjects.NewPostgresRepo(db)
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	engine := scheduling.NewEngine(
		reg,
		callRepo,
		subjectRepo,
		subjectRepo,
		auditSvc,
		scheduling.NewRedisLocker(rdb),
		log,
	)
	engine.RepeatIntervalDays = cfg.Scheduling.RepeatIntervalDays

	bus := dispatch.NewBus(log)
	engine.RegisterHandlers(bus)

	reconciler := scheduling.NewReconciler(callRepo, engine, log)
	callSvc := calls.NewService(callRepo, reconciler, log)
	reportSvc := reporting.NewService(reporting.NewPostgresRepo(db))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:    authManager,
		Calls:   callSvc,
		Reports: reportSvc,
		Bus:     bus,
	}
	registerRoutes(r, h, auth.RequireAccessToken(authManager), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

// registerCallSpecs declares which source entities start and stop each call
// schedule. Deployments with different study protocols edit this table.
func registerCallSpecs(reg *registry.Registry) error {
	specs := []registry.CallSpec{
		{
			Label:        "subject-followup",
			AppLabel:     "followup",
			VerboseName:  "Subject Follow-Up Call",
			ScheduleOn:   []registry.EventType{"subject_consent"},
			UnscheduleOn: []registry.EventType{"subject_offstudy", "subject_death"},
			Repeats:      true,
		},
		{
			Label:        "missed-visit",
			AppLabel:     "followup",
			VerboseName:  "Missed Visit Call",
			ScheduleOn:   []registry.EventType{"missed_visit"},
			UnscheduleOn: []registry.EventType{"subject_visit", "subject_offstudy", "subject_death"},
			Policy:       registry.SchedulePolicy{DateOffsetDays: 1},
		},
	}
	for _, s := range specs {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}
