package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/cognivia/internal/api"
	"github.com/vytor/cognivia/internal/config"
	"github.com/vytor/cognivia/internal/db"
	"github.com/vytor/cognivia/internal/events"
	"github.com/vytor/cognivia/internal/jobs"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/metrics"
	"github.com/vytor/cognivia/internal/poller"
	"github.com/vytor/cognivia/internal/repository/sqlite"
	"github.com/vytor/cognivia/internal/services"
	"github.com/vytor/cognivia/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	log.Info("===========================================")
	log.Info("Cognivia Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("poll_interval=%s", cfg.PollInterval)
	log.Debug("sweep_worker_count=%d", cfg.SweepWorkerCount)
	log.Debug("sweep_queue_size=%d", cfg.SweepQueueSize)
	log.Debug("daily_target_hours=%g", cfg.DailyTargetHours)
	log.Debug("timezone=%s", loc)
	log.Debug("redis_enabled=%t", cfg.RedisURL != "")

	metrics.Init()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event fan-out, optionally mirrored through redis for multi-instance deployments
	broker := events.NewBroker(0)
	var publisher events.Publisher = broker
	if cfg.RedisURL != "" {
		client, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		bridge := events.NewRedisBridge(client, broker)
		go bridge.Run(ctx)
		publisher = bridge
		log.Info("redis event relay enabled")
	}

	// Initialize repositories
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	streakRepo := sqlite.NewStreakRepository(database.DB)
	analyticsRepo := sqlite.NewAnalyticsRepository(database.DB)
	planRepo := sqlite.NewPlanRepository(database.DB)
	reminderRepo := sqlite.NewReminderRepository(database.DB)
	goalRepo := sqlite.NewGoalRepository(database.DB)

	// Initialize services
	calendarService := services.NewCalendarService(sessionRepo, streakRepo, analyticsRepo, publisher, services.CalendarOptions{
		Location:         loc,
		DailyTargetHours: cfg.DailyTargetHours,
	})
	planService := services.NewPlanService(planRepo, nil)
	reminderService := services.NewReminderService(reminderRepo, sessionRepo, publisher, nil)
	goalService := services.NewGoalService(goalRepo, sessionRepo, calendarService, nil)

	// Background lifecycle sweeps
	sweepPool := worker.NewPool(cfg.SweepWorkerCount, cfg.SweepQueueSize)
	sweepPool.Start(ctx)
	queue := jobs.NewWorkerQueue(sweepPool, calendarService, reminderService)
	sessionPoller := poller.New(sessionRepo, queue, cfg.PollInterval)
	sessionPoller.Start(ctx)

	srv := &api.Server{
		Calendar:  calendarService,
		Plans:     planService,
		Reminders: reminderService,
		Goals:     goalService,
		Broker:    broker,
		Auth:      api.NewAuthenticator(cfg.JWTSecret),
		DB:        database,
	}

	// Configure HTTP server. WriteTimeout is left unset so event streams stay open.
	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     srv.Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping poller")
	sessionPoller.Stop()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping sweep pool")
	sweepPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("Cognivia Server Stopped")
	log.Info("===========================================")
}
