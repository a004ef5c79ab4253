package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/research-bridge/engine/internal/api"
	"github.com/research-bridge/engine/internal/api/handlers"
	"github.com/research-bridge/engine/internal/repository"
	"github.com/research-bridge/engine/internal/services"
	"github.com/research-bridge/engine/pkg/config"
	"github.com/research-bridge/engine/pkg/database"
	"github.com/research-bridge/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting research bridge engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	log.Info("database connected")

	projectRepo := repository.NewProjectRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)

	projectSvc := services.NewProjectService(db, projectRepo, reviewRepo, time.Now)
	milestoneSvc := services.NewMilestoneService(db, projectRepo, milestoneRepo, time.Now)

	router := api.NewRouter(api.Dependencies{
		HMACSecret:        []byte(cfg.JWTSecret),
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		HealthHandler:     handlers.NewHealthHandler(db),
		ProjectsHandler:   handlers.NewProjectsHandler(projectSvc),
		MilestonesHandler: handlers.NewMilestonesHandler(milestoneSvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
