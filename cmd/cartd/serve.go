package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/cache"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/config"
	h "github.com/LucasLaguilio/Doce-Traco-backend/internal/http"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/logger"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/payment"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/poller"
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/repository"
	s "github.com/LucasLaguilio/Doce-Traco-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			opts.apply(cfg)
			return runServe(cmd.Context(), cfg, opts.Addr)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address; overrides HTTP_PORT")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	log := logger.New(logger.Options{Service: "cartd", Env: cfg.Env, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if addr == "" {
		addr = ":" + cfg.HTTPPort
	}

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := repository.Disconnect(dctx, mongoDB); err != nil {
			log.Error("mongo disconnect failed", "error", err)
		}
	}()
	if err := repository.EnsureCartIndexes(ctx, mongoDB); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	var cartCache cache.CartCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		cartCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	carts := s.NewCartService(
		repository.NewMongoRepository(mongoDB),
		repository.NewMongoCatalog(mongoDB),
		cartCache,
		log.With("component", "cart"),
	)

	gatewaySettings := payment.DefaultBreakerSettings
	gatewaySettings.CallTimeout = cfg.GatewayTimeout
	gateway := payment.NewBreakerGateway(
		payment.NewStripeGateway(cfg.StripeSecretKey, nil, log.With("component", "stripe")),
		gatewaySettings,
		log,
	)
	checkout := s.NewCheckoutService(repository.NewMongoRepository(mongoDB), gateway, log.With("component", "checkout"))

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		p := poller.NewPoller(carts, poller.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, log.With("component", "poller"))
		defer p.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
		log.Info("payment event poller started", "topic", cfg.KafkaTopic)
	}

	router := h.NewRouter(h.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	}, h.NewCartHandler(carts, cfg.RequestTimeout), h.NewCheckoutHandler(checkout, cfg.RequestTimeout))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("cartd listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	log.Info("cartd stopped")
	return nil
}
