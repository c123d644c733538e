package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medinet/config"
	"medinet/cron"
	"medinet/database"
	directoryRepo "medinet/database/repository/directory"
	ledgerRepo "medinet/database/repository/ledger"
	"medinet/handlers"
	"medinet/middleware"
	"medinet/routes"
	"medinet/services/booking"
	"medinet/services/diagnosis"
	"medinet/services/dialogue"
	ai "medinet/services/intelligence"
	"medinet/services/location"
	"medinet/services/notification"
	"medinet/services/orchestrator"
	"medinet/services/tasks"
	"medinet/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitCache()
	if err := utils.FirebaseInit(ctx); err != nil {
		logger.Warn("main: push notifications disabled", zap.Error(err))
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// repositories.
	mongoDirectory, err := directoryRepo.NewMongoDirectory(database.Database())
	if err != nil {
		logger.Fatal("main: failed to initialize directory", zap.Error(err))
	}
	doctors := directoryRepo.NewCachedDoctorDirectory(mongoDirectory, utils.GetCacheClient(), 5*time.Minute, logger)

	store, closeStore := openLedger(logger)
	defer closeStore()

	// completion model.
	var completion ai.CompletionClient = ai.UnavailableClient{}
	gemini, err := ai.NewGeminiClient(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel, config.LLMTimeout())
	if err != nil {
		logger.Warn("main: completion model unavailable, every stage will use its fallback", zap.Error(err))
	} else {
		completion = gemini
		defer gemini.Close()
	}

	// notification channels.
	emailChannel, err := notification.NewEmailChannel(
		config.AppConfig.SMTPHost, config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUser, config.AppConfig.SMTPPass, config.AppConfig.SMTPFrom)
	if err != nil {
		logger.Warn("main: email channel misconfigured", zap.Error(err))
		emailChannel = &notification.EmailChannel{}
	}
	notificationService := notification.NewDefaultNotificationService(logger, 15*time.Second,
		emailChannel,
		notification.NewWhatsAppChannel(config.AppConfig.TwilioAccountSID, config.AppConfig.TwilioAuthToken, config.AppConfig.TwilioWhatsAppFrom),
		notification.NewPushChannel(utils.FCMClient),
	)
	logger.Info("main: notification channels", zap.Any("configured", notificationService.Status()))

	// reminders.
	asynqClient := asynq.NewClient(cron.QueueRedisOpt())
	defer asynqClient.Close()
	worker := cron.InitReminderWorker(ctx, doctors, notificationService)

	// services.
	thresholds := diagnosis.Thresholds{
		Critical: config.AppConfig.SeverityCritical,
		High:     config.AppConfig.SeverityHigh,
		Medium:   config.AppConfig.SeverityMedium,
	}
	schedulingEngine := booking.NewSchedulingEngine(doctors, store, logger)

	orch := orchestrator.NewOrchestrator(orchestrator.Dependencies{
		Ledger:     store,
		Dialogue:   dialogue.NewDialogueService(completion, config.AppConfig.MinTurns, config.AppConfig.MaxTurns, logger),
		Classifier: diagnosis.NewClassifier(completion, thresholds, logger),
		Resolver:   diagnosis.NewSpecialtyResolver(completion, logger),
		Scheduler:  schedulingEngine,
		Doctors:    doctors,
		Patients:   mongoDirectory,
		Notifier:   notificationService,
		Locations:  location.NewLocationService(config.AppConfig.GoogleMapsAPIKey, logger),
		Reminders:  tasks.NewAsynqReminderScheduler(asynqClient, logger),
	}, config.SessionTimeout(), logger)

	cleanup, err := cron.StartSessionCleanup(ctx, config.AppConfig.SessionCleanupSchedule, orch, logger)
	if err != nil {
		logger.Fatal("main: invalid session cleanup schedule", zap.Error(err))
	}

	redisClients := []*redis.Client{utils.GetCacheClient()}
	utils.StartHealthMonitor(ctx, time.Minute, redisClients, database.MongoClient)

	// handlers.
	gateway := handlers.NewRealtimeGateway(orch, logger)
	handlerBundle := handlers.NewHandlerBundle(
		gateway,
		&handlers.ConsultationHandler{Ledger: store, Orchestrator: orch, Scheduler: schedulingEngine},
		&handlers.SystemHandler{RedisClients: redisClients, MongoClient: database.MongoClient, Notifier: notificationService, Gateway: gateway},
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stop()
	<-cleanup.Stop().Done()
	worker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := database.MongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// openLedger picks the ledger backend from LEDGER_DRIVER.
func openLedger(logger *zap.Logger) (ledgerRepo.Store, func()) {
	switch driver := config.AppConfig.LedgerDriver; driver {
	case "", "mongo":
		l, err := ledgerRepo.NewMongoLedger(database.Database())
		if err != nil {
			logger.Fatal("main: failed to initialize mongo ledger", zap.Error(err))
		}
		return l, func() {}
	default:
		l, err := ledgerRepo.NewGormLedger(driver, config.AppConfig.LedgerDSN)
		if err != nil {
			logger.Fatal("main: failed to initialize sql ledger", zap.String("driver", driver), zap.Error(err))
		}
		logger.Info("main: using sql ledger", zap.String("driver", driver))
		return l, func() {
			if err := l.Close(); err != nil {
				logger.Warn("main: ledger close failed", zap.Error(err))
			}
		}
	}
}
