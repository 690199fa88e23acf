package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/supportdesk/internal/api/http"
	"github.com/spec-kit/supportdesk/internal/api/http/handlers"
	"github.com/spec-kit/supportdesk/internal/auth"
	"github.com/spec-kit/supportdesk/internal/config"
	"github.com/spec-kit/supportdesk/internal/events"
	"github.com/spec-kit/supportdesk/internal/observability"
	"github.com/spec-kit/supportdesk/internal/persistence"
	"github.com/spec-kit/supportdesk/internal/repository"
	"github.com/spec-kit/supportdesk/internal/repository/memory"
	"github.com/spec-kit/supportdesk/internal/scheduler"
	"github.com/spec-kit/supportdesk/internal/service"
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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo    repository.TicketRepository
		historyRepo   repository.TicketHistoryRepository
		grantRepo     repository.GrantRepository
		blacklistRepo repository.BlacklistRepository
		offerRepo     repository.ForwardOfferRepository
		settingsRepo  repository.SettingsRepository
	)
	if pool != nil {
		ticketRepo = repository.NewTicketRepository(pool)
		historyRepo = repository.NewTicketHistoryRepository(pool)
		grantRepo = repository.NewGrantRepository(pool)
		blacklistRepo = repository.NewBlacklistRepository(pool)
		offerRepo = repository.NewForwardOfferRepository(pool)
		settingsRepo = repository.NewSettingsRepository(pool)
	} else {
		ticketRepo = memory.NewTicketRepository()
		historyRepo = memory.NewHistoryRepository()
		grantRepo = memory.NewGrantRepository()
		blacklistRepo = memory.NewBlacklistRepository()
		offerRepo = memory.NewForwardOfferRepository()
		settingsRepo = memory.NewSettingsRepository()
	}

	clk := clock.New()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	entitlementService := service.NewEntitlementService(cfg.Entitlement, service.EntitlementDependencies{
		GrantRepo:  grantRepo,
		Cache:      service.NewTierCache(redis.ClientHandle(), cfg.Entitlement.CacheTTL),
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	})
	blacklistService := service.NewBlacklistService(blacklistRepo, clk, logger)
	ticketService := service.NewTicketService(cfg.Tickets, service.TicketDependencies{
		TicketRepo:   ticketRepo,
		HistoryRepo:  historyRepo,
		OfferRepo:    offerRepo,
		Blacklist:    blacklistService,
		Entitlements: entitlementService,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Clock:        clk,
		Logger:       logger,
	})
	settingsService := service.NewSettingsService(cfg.AutoClose, cfg.Auth, settingsRepo, clk, logger)
	service.NewNotificationService(dispatcher, service.NewLogNotifier(logger), logger)

	sched := scheduler.New(cfg.AutoClose.SweepInterval, cfg.AutoClose.StartupDelay, clk, logger, metrics)
	sched.Register("auto_close", scheduler.NewAutoCloseSweep(cfg.AutoClose, cfg.Tickets.BotUserID, ticketRepo, ticketService, settingsService, logger).Run)
	sched.Register("forward_expiry", scheduler.NewForwardExpirySweep(offerRepo, ticketService, logger).Run)
	sched.Register("entitlement_expiry", scheduler.NewEntitlementExpirySweep(entitlementService).Run)
	sched.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:         handlers.NewAuthHandler(tokens, settingsService, clk, time.Duration(cfg.Auth.AccessTokenTTLMinutes)*time.Minute, cfg.Auth.BootstrapAPIKey),
		Tickets:      handlers.NewTicketsHandler(ticketService),
		Entitlements: handlers.NewEntitlementsHandler(entitlementService),
		Blacklist:    handlers.NewBlacklistHandler(blacklistService),
		Settings:     handlers.NewSettingsHandler(settingsService),
		Tokens:       tokens,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	sched.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
