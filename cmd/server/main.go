package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/requestlog"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.ServiceName)
	slog.SetDefault(logger)

	policy, err := httpserver.PolicyByName(cfg.AuthPolicy)
	if err != nil {
		logger.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancelOpen()
	if err != nil {
		logger.Error("db_open_failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	var (
		publisher service.Publisher = service.NopPublisher{}
		indexer   service.Indexer   = service.NopIndexer{}
		producer  *mykafka.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		publisher = producer
	} else {
		logger.Info("kafka_disabled")
	}

	if cfg.ESURL != "" {
		esCtx, cancelES := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(esCtx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancelES()
		if err != nil {
			logger.Error("es_init_failed", "error", err)
			os.Exit(1)
		}
		indexer = es.NewIndexer(client, cfg.ESIndex)
	} else {
		logger.Info("es_disabled")
	}

	store := repo.New(gdb)
	tokenSvc := tokens.NewService([]byte(cfg.AccessTokenSecret), tokens.WithTTL(cfg.TokenTTL))
	users := &service.UserService{Repo: store, Events: publisher, StrictAdminCheck: cfg.AdminCheckStrict}
	catalog := &service.CatalogService{Repo: store, Events: publisher, Indexer: indexer}
	cart := &service.CartService{Repo: store, Catalog: catalog, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(requestlog.RequestLogger(logger))
	e.Use(middleware.CORS())

	deps := httpserver.Deps{
		Policy:         policy,
		Gate:           &authmw.Gate{Tokens: tokenSvc, Admins: users},
		AuthHandler:    &handlers.AuthHandler{Tokens: tokenSvc},
		UserHandler:    &handlers.UserHandler{Users: users},
		ProductHandler: &handlers.ProductHandler{Catalog: catalog},
		CartHandler:    &handlers.CartHandler{Cart: cart},
		HealthHandler:  &handlers.HealthHandler{DB: gdb},
	}
	if err := httpserver.Register(e, &deps); err != nil {
		logger.Error("route_registration_failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_listening", "addr", srv.Addr, "policy", cfg.AuthPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
