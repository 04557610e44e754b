package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sulthanfragrance/storefront/internal/cache"
	"github.com/sulthanfragrance/storefront/internal/cleanup"
	"github.com/sulthanfragrance/storefront/internal/config"
	"github.com/sulthanfragrance/storefront/internal/db"
	"github.com/sulthanfragrance/storefront/internal/es"
	"github.com/sulthanfragrance/storefront/internal/httpserver"
	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/mykafka"
	"github.com/sulthanfragrance/storefront/internal/razorpay"
	"github.com/sulthanfragrance/storefront/internal/repo"
	"github.com/sulthanfragrance/storefront/internal/service"
	"github.com/sulthanfragrance/storefront/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.RazorpayKeyID, "RAZORPAY_KEY_ID")
	config.MustNonEmpty(cfg.RazorpayKeySecret, "RAZORPAY_KEY_SECRET")

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(gdb)

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
	}

	limiter, err := cache.NewRateLimiter(cfg.RedisURL, time.Minute)
	if err != nil {
		logger.Warn("redis unavailable, otp rate limiting disabled", "error", err)
		limiter = nil
	}

	tokens := token.NewService(cfg.JWTSecret)

	catalogSvc := &service.CatalogService{Repo: r}
	if producer != nil {
		catalogSvc.Producer = producer
	}

	var searchHTTP *httpserver.SearchHTTP
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			catalogSvc.Indexer = &es.Indexer{ES: esClient, Index: cfg.ESIndex}
			searchHTTP = &httpserver.SearchHTTP{ES: esClient, Index: cfg.ESIndex}
		}
	}

	cartSvc := &service.CartService{Repo: r}
	checkoutSvc := &service.CheckoutService{
		Repo:          r,
		Gateway:       razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		AdvanceAmount: cfg.CODAdvanceAmount,
	}
	if producer != nil {
		checkoutSvc.Producer = producer
	}
	orderSvc := &service.OrderService{Repo: r}
	authSvc := &service.AuthService{Repo: r, Sender: service.LogSender{}}
	if limiter != nil {
		authSvc.Limiter = limiter
	}
	accountSvc := &service.AccountService{Repo: r}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(logging.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc},
		Search:   searchHTTP,
		Cart:     &httpserver.CartHTTP{Svc: cartSvc},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc, KeyID: cfg.RazorpayKeyID},
		Orders:   &httpserver.OrderHTTP{Svc: orderSvc},
		Auth:     &httpserver.AuthHTTP{Auth: authSvc, Account: accountSvc, Cart: cartSvc, Tokens: tokens},
		Admin:    &httpserver.AdminHTTP{Catalog: catalogSvc, Orders: orderSvc},
		Tokens:   tokens,
	})

	// stale unpaid orders are cleared in-process as well as by the cli job
	cleanupSvc := &cleanup.Service{Repo: r, Log: logger}
	cleanupStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if _, err := cleanupSvc.Run(runCtx, time.Duration(cfg.CleanupAfterHours)*time.Hour, false); err != nil {
					logger.Error("cleanup run failed", "error", err)
				}
				cancel()
			case <-cleanupStop:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	close(cleanupStop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if limiter != nil {
		_ = limiter.Close()
	}

	logger.Info("storefront stopped")
}
