package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-core/internal/api/http"
	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/escalation"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/notify"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/realtime"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/scheduler"
	"github.com/spec-kit/helpdesk-core/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	reopenRepo := repository.NewReopenRequestRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	prefRepo := repository.NewChannelPreferenceRepository(pool)
	messageRepo := repository.NewTicketMessageRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	registry := realtime.NewRegistry(logger)
	bridge := realtime.NewBridge(registry)
	bridge.RegisterHandlers(dispatcher)

	channels := notify.NewRegistry(
		notify.NewRealtimeChannel(registry),
		notify.NewEmailChannel(cfg.Notify, userRepo),
		notify.NewSlackChannel(cfg.Notify.SlackBotToken, prefRepo),
	)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		PreferenceRepo:   prefRepo,
		Channels:         channels,
		Cache:            redis,
		Logger:           logger,
		Metrics:          metrics,
		DeliverTimeout:   cfg.Notify.DeliverTimeout(),
	})
	preferenceService := service.NewPreferenceService(prefRepo)
	chatService := service.NewChatService(messageRepo, logger)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(ticketRepo, assignmentService, logger)
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo: ticketRepo,
		Notifier:   notificationService,
		Dispatcher: dispatcher,
		Thresholds: escalation.ThresholdsFromConfig(cfg.Escalation),
		Logger:     logger,
		Metrics:    metrics,
	})
	reopenService := service.NewReopenService(service.ReopenDependencies{
		TicketRepo: ticketRepo,
		ReopenRepo: reopenRepo,
		UserRepo:   userRepo,
		Chat:       chatService,
		Notifier:   notificationService,
		Dispatcher: dispatcher,
		Window:     cfg.Reopen.Window(),
		MinNote:    cfg.Reopen.MinRejectionNote,
		Logger:     logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	sweep := scheduler.New(func(ctx context.Context) {
		escalationService.RunSweep(ctx)
	}, cfg.Escalation.SweepInterval(), logger)
	if err := sweep.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, escalationService, chatService),
		Reopens:        handlers.NewReopenHandler(reopenService),
		Notifications:  handlers.NewNotificationsHandler(notificationService, preferenceService),
		WS:             handlers.NewWSHandler(tokens, userRepo, registry, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	sweep.Stop(shutdownCtx)
	registry.Close()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
