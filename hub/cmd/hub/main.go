package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/parley-systems/parley-stack/common/logging"
	"github.com/parley-systems/parley-stack/common/messaging"
	natsclient "github.com/parley-systems/parley-stack/common/messaging/nats"
	"github.com/parley-systems/parley-stack/hub/internal/config"
	"github.com/parley-systems/parley-stack/hub/internal/handlers"
	hubmiddleware "github.com/parley-systems/parley-stack/hub/internal/middleware"
	hubnats "github.com/parley-systems/parley-stack/hub/internal/nats"
	"github.com/parley-systems/parley-stack/hub/internal/presence"
	"github.com/parley-systems/parley-stack/hub/internal/repository"
	"github.com/parley-systems/parley-stack/hub/internal/server"
	"github.com/parley-systems/parley-stack/hub/internal/service"
	"github.com/parley-systems/parley-stack/hub/internal/ws"
	"github.com/parley-systems/parley-stack/hub/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	connString := cfg.Database.Postgres.ConnString()

	logger.Info("running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := repository.NewPostgresRepository(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer repo.Close()

	tg := tokens.NewGenerator(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	svc := service.NewService(repo, tg, logger)

	if cfg.Auth.AdminPassword != "" {
		if err := svc.EnsureUser(context.Background(), cfg.Auth.AdminUser, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("Failed to bootstrap admin user: %v", err)
		}
	}

	// Presence is best-effort: a missing Redis degrades, it does not stop
	// the hub.
	var tracker *presence.Tracker
	if cfg.Redis.Enabled {
		tracker, err = presence.NewTracker(cfg.Redis.URL)
		if err != nil {
			logger.Warn("presence disabled: redis unavailable", "url", cfg.Redis.URL, "error", err)
		} else {
			defer tracker.Close()
		}
	}

	var hub *ws.Hub
	if tracker != nil {
		hub = ws.NewHub(logger, tracker)
	} else {
		hub = ws.NewHub(logger, nil)
	}
	hub.SetStatusLookup(svc.RoomStatus)
	svc.SetBroadcaster(hub)

	var busClient messaging.Client
	var subscriber *hubnats.StatusSubscriber
	if cfg.NATS.Enabled {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "parley-hub"
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = cfg.NATS.ReconnectWait

		busClient, err = natsclient.NewClient(natsCfg)
		if err != nil {
			logger.Warn("message bus disabled: NATS unavailable", "url", cfg.NATS.URL, "error", err)
		} else {
			defer busClient.Close()
			svc.SetPublisher(busClient)

			subscriber = hubnats.NewStatusSubscriber(busClient, svc, logger)
			if err := subscriber.Start(); err != nil {
				log.Fatalf("Failed to subscribe to status transitions: %v", err)
			}
			defer subscriber.Stop()
		}
	}

	handler := handlers.NewHandler(svc, hub, logger)
	auth := hubmiddleware.NewAuthMiddleware(svc)
	router := server.NewRouter(handler, auth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("hub listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}
