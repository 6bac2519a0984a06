package cmd

import (
	"context"
	"fmt"

	"tonflip/api"
	"tonflip/application"
	"tonflip/config"
	"tonflip/database"
	"tonflip/domain/interfaces"
	"tonflip/domain/services"
	"tonflip/infrastructure"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("Starting tonflip API")

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("Closing database connection")
		db.Close()
	}()

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return err
	}

	publisher, appSubscriber, opsSubscriber, closeEvents, err := setupEvents(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)

	var cache interfaces.LeaderboardCache
	if cfg.RedisURL != "" {
		redisCache, err := infrastructure.NewRedisLeaderboardCache(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache
		log.Info("Leaderboard cache enabled")
	}

	indexer := infrastructure.NewTonCenterClient(cfg.TonCenterURL, cfg.TonCenterAPIKey)

	handlers := api.Handlers{
		Profiles:    application.NewProfileHandler(uowFactory),
		Wagers:      application.NewWagerHandler(uowFactory, services.NewCoinFlipper()),
		Tasks:       application.NewTaskHandler(uowFactory),
		Purchases:   application.NewPurchaseHandler(uowFactory, indexer),
		Referrals:   application.NewReferralHandler(uowFactory),
		Leaderboard: application.NewLeaderboardHandler(uowFactory, cache),
	}

	feed := api.NewFeedHub(cfg.AllowedOrigins)
	if err := application.RegisterApplicationSubscriptions(appSubscriber, uowFactory, feed, cache); err != nil {
		return fmt.Errorf("failed to register application subscriptions: %w", err)
	}

	if cfg.DiscordWebhookID != "" && cfg.DiscordWebhookToken != "" {
		notifier, err := infrastructure.NewDiscordNotifier(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)
		if err != nil {
			return fmt.Errorf("failed to create discord notifier: %w", err)
		}
		if err := application.RegisterOpsSubscriptions(opsSubscriber, notifier); err != nil {
			return fmt.Errorf("failed to register ops subscriptions: %w", err)
		}
		log.Info("Discord ops notifications enabled")
	}

	expiryWorker := application.NewPurchaseExpiryWorker(handlers.Purchases, cfg.PurchaseExpiryInterval)
	stopWorker, err := expiryWorker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start purchase expiry worker: %w", err)
	}
	defer stopWorker()

	server := api.NewServer(cfg, handlers, feed, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Shutdown completed")
	return nil
}

// setupEvents picks the event transport. With NATS configured, committed events go
// to JetStream and ops notifications consume them from a durable subscription so they
// survive restarts. Without it everything stays in process.
func setupEvents(ctx context.Context, cfg *config.Config) (interfaces.EventPublisher, interfaces.EventSubscriber, interfaces.EventSubscriber, func(), error) {
	if cfg.NATSServers == "" {
		log.Info("NATS not configured, using in-process event bus")
		bus := infrastructure.NewLocalEventBus()
		return bus, bus, bus, func() {}, nil
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, nil, nil, err
	}
	closeClient := func() {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}

	mapper := infrastructure.NewEventSubjectMapper()
	publisher := infrastructure.NewNATSEventPublisher(natsClient, mapper)
	if err := publisher.EnsureDomainEventStream(); err != nil {
		closeClient()
		return nil, nil, nil, nil, fmt.Errorf("failed to ensure domain event stream: %w", err)
	}

	log.WithField("servers", cfg.NATSServers).Info("Publishing domain events to NATS")
	return publisher, publisher, infrastructure.NewNATSEventSubscriber(natsClient, mapper), closeClient, nil
}
