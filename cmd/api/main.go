package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaliant/storefront-backend/api/routes"
	"github.com/zaliant/storefront-backend/internal/announcements"
	"github.com/zaliant/storefront-backend/internal/cart"
	"github.com/zaliant/storefront-backend/internal/checkout"
	"github.com/zaliant/storefront-backend/internal/invoices"
	"github.com/zaliant/storefront-backend/internal/licenses"
	"github.com/zaliant/storefront-backend/internal/mailer"
	"github.com/zaliant/storefront-backend/internal/orders"
	"github.com/zaliant/storefront-backend/internal/products"
	"github.com/zaliant/storefront-backend/pkg/config"
	"github.com/zaliant/storefront-backend/pkg/db"
	"github.com/zaliant/storefront-backend/pkg/logger"
	"github.com/zaliant/storefront-backend/pkg/migrate"
	"github.com/zaliant/storefront-backend/pkg/outbox"
	"github.com/zaliant/storefront-backend/pkg/redis"
)

// shutdownTimeout bounds how long in-flight requests may run once a
// termination signal arrives.
const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gormDB := dbClient.DB()
	events := outbox.NewService(outbox.NewRepository(gormDB), logg)

	productsRepo := products.NewRepository(gormDB)
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), productsRepo)
	if err != nil {
		return routes.Services{}, err
	}

	licensesRepo := licenses.NewRepository(gormDB)
	licensesService, err := licenses.NewService(licensesRepo, events, dbClient, logg, cfg.Licenses.KeyPrefix)
	if err != nil {
		return routes.Services{}, err
	}

	ordersService, err := orders.NewService(orders.NewRepository(gormDB), licensesRepo, events, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	invoicesService, err := invoices.NewService(invoices.NewRepository(gormDB), events)
	if err != nil {
		return routes.Services{}, err
	}

	mailService, err := mailer.NewService(cfg.Mail, logg)
	if err != nil {
		return routes.Services{}, err
	}

	checkoutService, err := checkout.NewService(
		dbClient,
		cartService,
		ordersService,
		licensesService,
		invoicesService,
		mailService,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	announcementsService, err := announcements.NewService(announcements.NewRepository(gormDB), dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Products:      productsService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Licenses:      licensesService,
		Invoices:      invoicesService,
		Announcements: announcementsService,
	}, nil
}
