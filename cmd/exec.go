package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhorizon/config"
	"eventhorizon/internal/handlers"
	"eventhorizon/internal/services"
	"eventhorizon/monitoring"
	"eventhorizon/security"
	"eventhorizon/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	app := pocketbase.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, continuing without it", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	monitor := monitoring.NewMonitor(redisClient)
	monitor.Start(ctx, 30*time.Second)

	storefront, err := newStorefront(cfg, redisClient, monitor)
	if err != nil {
		return err
	}

	app.RootCmd.AddCommand(newCatalogCmd(cfg), newRecommendCmd(cfg))
	app.RootCmd.SetArgs(withDefaultHTTP(os.Args[1:], cfg.HTTPAddr()))

	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		storefrontHandler := handlers.NewStorefrontHandler(storefront, app.Logger())
		registerRoutes(e, cfg, storefrontHandler, redisClient, monitor)
		registerHealth(e, storefront, redisClient)

		if cfg.EnableMetrics {
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		app.Logger().Info("Server routes registered", "session", storefront.SessionID())
		return e.Next()
	})

	return app.Start()
}

func registerRoutes(e *core.ServeEvent, cfg *config.Config, h *handlers.StorefrontHandler, redisClient *redis.Client, monitor *monitoring.Monitor) {
	api := e.Router.Group("/api/v1")
	api.BindFunc(security.AntiBot)

	// Catalog endpoints
	api.GET("/events", h.ListEvents)
	api.GET("/events/featured", h.FeaturedEvents)
	api.GET("/categories", h.Categories)
	api.GET("/events/{eventId}", h.GetEvent)

	// Detail session and cart endpoints
	api.POST("/events/{eventId}/session", h.OpenSession)
	api.DELETE("/cart", h.CloseSession)
	api.GET("/cart", h.GetCart)
	api.POST("/cart/increment", h.Increment)
	api.POST("/cart/decrement", h.Decrement)
	api.POST("/cart/checkout", h.Checkout)

	// Wallet endpoints
	api.GET("/wallet", h.GetWallet)
	api.POST("/wallet/deposit", h.Deposit)

	// Ticket endpoints
	api.GET("/tickets", h.ListTickets)
	api.GET("/tickets/{ticketId}/qr", h.TicketQR)

	// Assistant endpoints
	api.GET("/assistant", h.GetConversation)
	ask := api.POST("/assistant", h.Ask)
	if redisClient != nil {
		limiter := security.NewRateLimiter(redisClient, time.Minute, monitor)
		ask.BindFunc(limiter.Limit("assistant", cfg.AssistantRateLimit))
	}
}

func registerHealth(e *core.ServeEvent, storefront *services.StorefrontService, redisClient *redis.Client) {
	e.Router.GET("/health", func(e *core.RequestEvent) error {
		if err := storefront.Reconcile(); err != nil {
			return e.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		if redisClient != nil {
			if err := utils.RedisHealthCheck(e.Request.Context(), redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// handleShutdown cancels background work on SIGINT or SIGTERM.
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Shutdown signal received, cleaning up...")
	cancel()
}
