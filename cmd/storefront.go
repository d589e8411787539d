package cmd

import (
	"fmt"
	"log/slog"

	"eventhorizon/config"
	"eventhorizon/internal/assistant"
	"eventhorizon/internal/catalog"
	"eventhorizon/internal/ids"
	"eventhorizon/internal/ledger"
	"eventhorizon/internal/pricing"
	"eventhorizon/internal/services"
	"eventhorizon/internal/tickets"
	"eventhorizon/monitoring"

	"github.com/redis/go-redis/v9"
)

func loadSeed(cfg *config.Config) (*catalog.Seed, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadSeedFile(cfg.CatalogFile)
	}
	return catalog.DefaultSeed()
}

func newBridge(cfg *config.Config, cat *catalog.Catalog, redisClient *redis.Client, monitor *monitoring.Monitor) *assistant.Bridge {
	opts := []assistant.Option{
		assistant.WithTimeout(cfg.AssistantTimeout),
		assistant.WithObserver(monitor),
	}
	if redisClient != nil {
		opts = append(opts, assistant.WithGuard(assistant.NewRedisGuard(redisClient, assistant.DefaultLockKey, assistant.DefaultLockTTL)))
	}

	var rec assistant.Recommender
	if key := cfg.AssistantKey(); key != "" {
		rec = assistant.NewGeminiRecommender(key, cfg.GeminiModel)
	} else {
		slog.Warn("no GEMINI_API_KEY or API_KEY set, assistant will answer with a fallback")
	}
	return assistant.NewBridge(rec, cat.Events(), opts...)
}

// newStorefront builds the storefront from configuration: catalog, seeded
// wallet ledger, assistant bridge and wallet notifier.
func newStorefront(cfg *config.Config, redisClient *redis.Client, monitor *monitoring.Monitor) (*services.StorefrontService, error) {
	seed, err := loadSeed(cfg)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(seed.Events)
	if err != nil {
		return nil, err
	}

	key, err := cfg.QRKey()
	if err != nil {
		return nil, err
	}
	issuer, err := tickets.NewIssuer(ids.Random{}, key)
	if err != nil {
		return nil, err
	}

	calc := pricing.NewCalculator(cfg.TaxRate)
	led := ledger.New(cfg.WalletOwner, ledger.OpeningFor(cfg.InitialBalance, seed.Transactions), calc, issuer)
	if err := led.Replay(seed.Transactions...); err != nil {
		return nil, fmt.Errorf("replay wallet history: %w", err)
	}
	if err := led.Reconcile(); err != nil {
		return nil, err
	}

	sessionID, err := ids.Random{}.NewID()
	if err != nil {
		return nil, err
	}

	notifier := services.NewNotifier(services.PubNubConfig{
		PublishKey:   cfg.PubNubPublishKey,
		SubscribeKey: cfg.PubNubSubscribeKey,
		SecretKey:    cfg.PubNubSecretKey,
		UserID:       cfg.PubNubUserID,
	})

	slog.Info("storefront ready",
		"events", cat.Len(),
		"balance", led.Wallet().Balance.StringFixed(2),
		"session", sessionID,
	)

	return services.NewStorefrontService(cat, led, calc, issuer, newBridge(cfg, cat, redisClient, monitor), notifier, monitor, services.StorefrontConfig{
		MaxPerTier:    cfg.MaxTicketsPerTier,
		DepositAmount: cfg.DepositAmount,
		SessionID:     sessionID,
	}), nil
}
