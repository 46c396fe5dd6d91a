package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-queue/internal/config"
	healthhandler "github.com/jwalitptl/clinic-queue/internal/handler/health"
	queuehandler "github.com/jwalitptl/clinic-queue/internal/handler/queue"
	visithandler "github.com/jwalitptl/clinic-queue/internal/handler/visit"
	"github.com/jwalitptl/clinic-queue/internal/middleware"
	"github.com/jwalitptl/clinic-queue/internal/realtime"
	"github.com/jwalitptl/clinic-queue/internal/repository/postgres"
	"github.com/jwalitptl/clinic-queue/internal/router"
	assignmentService "github.com/jwalitptl/clinic-queue/internal/service/assignment"
	configService "github.com/jwalitptl/clinic-queue/internal/service/clinicconfig"
	eventService "github.com/jwalitptl/clinic-queue/internal/service/event"
	tokenService "github.com/jwalitptl/clinic-queue/internal/service/token"
	visitService "github.com/jwalitptl/clinic-queue/internal/service/visit"
	"github.com/jwalitptl/clinic-queue/internal/worker"
	redislock "github.com/jwalitptl/clinic-queue/pkg/lock/redis"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
	redisbroker "github.com/jwalitptl/clinic-queue/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-queue/pkg/metrics"
	outboxworker "github.com/jwalitptl/clinic-queue/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("clinic_queue", "api")

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	visitRepo := postgres.NewVisitRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	historyRepo := postgres.NewVisitHistoryRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Initialize Redis-backed lock provider
	lockProvider, err := redislock.NewProvider(redislock.Config{URL: cfg.Redis.URL})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis for locking")
	}

	// Initialize services
	configSvc := configService.NewService(settingsRepo)
	tokenSvc := tokenService.NewService(visitRepo)
	assignSvc := assignmentService.NewService(doctorRepo, visitRepo, appLogger)
	eventSvc := eventService.NewService(outboxRepo, appLogger)
	visitSvc := visitService.NewService(
		visitRepo,
		appointmentRepo,
		doctorRepo,
		historyRepo,
		configSvc,
		tokenSvc,
		assignSvc,
		lockProvider,
		eventSvc,
		appLogger,
		appMetrics,
	)

	// Carryover sweeper runs in-process and backs the manual endpoint
	sweeper := worker.NewCarryoverWorker(visitRepo, appLogger, appMetrics, cfg.Carryover.CheckInterval())

	// Realtime hub fed from the broker
	broker, err := redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis broker")
	}
	defer broker.Close()

	hub := realtime.NewHub(appLogger, appMetrics)
	dispatcher := realtime.NewDispatcher(hub, broker, appLogger)
	canceller := worker.NewCancellationConsumer(broker, visitSvc, appLogger)
	outboxProcessor := outboxworker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox.ToWorkerConfig(), appLogger, appMetrics)

	// Initialize handlers
	healthHandler := healthhandler.NewHandler(db)
	visitHandler := visithandler.NewHandler(visitSvc)
	queueHandler := queuehandler.NewHandler(visitSvc, sweeper)

	r := router.NewRouter(healthHandler, visitHandler, queueHandler, hub, router.Config{
		RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:  cfg.RateLimit.Burst,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Start(ctx)
	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start realtime dispatcher")
	}
	if err := canceller.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start cancellation consumer")
	}
	go outboxProcessor.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
