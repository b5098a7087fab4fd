// @title Blitz storefront API
// @version 1.0
// @description Catalog, cart, checkout, returns and wallet for the Blitz shoe store.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	_ "github.com/techy05-v/Blitz-ecom-sub000/docs"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/auth"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/config"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/events"
	httpapi "github.com/techy05-v/Blitz-ecom-sub000/internal/http"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/logger"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/repository"
	"github.com/techy05-v/Blitz-ecom-sub000/internal/service"
)

func main() {
	// amounts travel as JSON numbers, the storefront does arithmetic on them
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := auth.OpenSessionStore(cfg.Storage.SessionPath, cfg.Auth.RefreshTTL)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL)

	g, ctx := errgroup.WithContext(ctx)

	var (
		publisher events.Publisher = events.NopPublisher{}
		tracker   *events.Tracker
	)
	if cfg.RabbitMQ.URL != "" {
		pool, err := events.NewChannelPool(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.PoolSize, log)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer pool.Close()
		publisher = events.NewAMQPPublisher(pool, cfg.RabbitMQ.Queue, log)
		tracker = events.NewTracker()
		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			w, err := events.NewWorker(i, pool.Conn(), cfg.RabbitMQ.Queue, tracker, log)
			if err != nil {
				return err
			}
			g.Go(func() error { return w.Start(ctx) })
		}
		log.Info("order events enabled", "queue", cfg.RabbitMQ.Queue, "workers", cfg.RabbitMQ.Workers)
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	repos := repository.NewMemoryRepos(repository.NewMemoryStore())
	wallet := service.NewWalletService(repos.Wallets)
	svc := httpapi.Services{
		Auth:       service.NewAuthService(repos.Users, sessions, tokens, log),
		Users:      service.NewUserService(repos.Users, sessions, log),
		Products:   service.NewProductService(repos.Products, repos.Categories, repos.Offers),
		Categories: service.NewCategoryService(repos.Categories, repos.Products),
		Promotions: service.NewPromotionService(repos.Offers, repos.Coupons, repos.Products, repos.Categories),
		Carts:      service.NewCartService(repos),
		Addresses:  service.NewAddressService(repos.Addresses, repos.Tx),
		Wallet:     wallet,
		Orders: service.NewOrderService(repos, wallet, publisher, log).
			WithShippingFee(decimal.NewFromInt(cfg.Shop.ShippingFee)),
		Reports: service.NewReportService(repos.Orders, tracker),
	}
	if cfg.Auth.AdminEmail != "" {
		if _, err := svc.Auth.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	api := httpapi.NewServer(svc, httpapi.Options{CookieSecure: cfg.Auth.CookieSecure}, log)
	handler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})(api.Engine())

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
