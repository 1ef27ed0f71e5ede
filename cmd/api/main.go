package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handmade-kart/internal/auth"
	"handmade-kart/internal/cache"
	"handmade-kart/internal/config"
	"handmade-kart/internal/database"
	"handmade-kart/internal/events"
	"handmade-kart/internal/handler"
	"handmade-kart/internal/metrics"
	"handmade-kart/internal/notify"
	"handmade-kart/internal/payment"
	"handmade-kart/internal/reconcile"
	"handmade-kart/internal/repository"
	"handmade-kart/internal/router"
	"handmade-kart/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting handmade-kart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Optional infrastructure falls back to local no-op implementations
	store := newCache(ctx, cfg.Redis, logger)
	defer store.Close()

	publisher := newPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	mailer, err := newMailer(cfg.SMTP, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	var gateway payment.Gateway = payment.DisabledGateway{}
	keySecret := ""
	if cfg.Payment.Enabled {
		gateway = payment.NewRazorpayGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret, logger)
		keySecret = cfg.Payment.KeySecret
	} else {
		logger.Warn().Msg("online payments disabled, only cash on delivery is available")
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	testimonialRepo := repository.NewTestimonialRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	statsRepo := repository.NewStatsRepository(pool, logger)

	latency := metrics.NewLatencyRecorder()
	tokens := auth.NewTokenProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, publisher, logger)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, gateway, store, publisher, service.PaymentOptions{
		KeySecret:     keySecret,
		Currency:      cfg.Payment.Currency,
		UpdateRetries: cfg.Payment.UpdateRetries,
	}, logger)
	testimonialService := service.NewTestimonialService(testimonialRepo, productRepo, logger)
	userService := service.NewUserService(userRepo, auth.NewPasswordHasher(0), tokens, mailer, cfg.App.PublicURL, logger)
	adminService := service.NewAdminService(statsRepo, store, latency, logger)

	// Verified payments whose order update failed are retried in the background
	scheduler := reconcile.NewScheduler(paymentService, cfg.Payment.ReconcileInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Initialize router
	mux := router.New(router.Handlers{
		Product:     handler.NewProductHandler(productService, categoryService, logger),
		Cart:        handler.NewCartHandler(cartService, logger),
		Order:       handler.NewOrderHandler(orderService, paymentService, logger),
		Payment:     handler.NewPaymentHandler(paymentService, logger),
		Testimonial: handler.NewTestimonialHandler(testimonialService, logger),
		User:        handler.NewUserHandler(userService, logger),
		Admin:       handler.NewAdminHandler(adminService, logger),
		Health:      handler.Health(pool, logger),
	}, tokens, latency, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func newCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) cache.Cache {
	if !cfg.Enabled {
		logger.Info().Msg("redis disabled, caching is off")
		return cache.Noop{}
	}
	client, err := cache.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to connect to redis, caching is off")
		return cache.Noop{}
	}
	return client
}

func newPublisher(cfg config.KafkaConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("kafka disabled, order events are not published")
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
}

func newMailer(cfg config.SMTPConfig, logger zerolog.Logger) (notify.Mailer, error) {
	if !cfg.Enabled {
		logger.Warn().Msg("smtp disabled, emails are written to the log")
		return notify.NewLogMailer(logger), nil
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		From:     cfg.From,
		SSL:      cfg.SSL,
	}, logger)
}
