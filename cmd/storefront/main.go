package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"spicegarden-storefront/internal/catalog"
	"spicegarden-storefront/internal/config"
	"spicegarden-storefront/internal/db"
	"spicegarden-storefront/internal/form"
	"spicegarden-storefront/internal/httpserver"
	"spicegarden-storefront/internal/migrate"
	"spicegarden-storefront/internal/session"
	"spicegarden-storefront/internal/storage"
	"spicegarden-storefront/internal/transport"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	gin.SetMode(gin.ReleaseMode)

	cat, err := catalog.Load(cfg.MenuFile, cfg.FAQFile)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	ctx := context.Background()
	var (
		dbpool   *pgxpool.Pool
		profiles storage.Scoper
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Printf("visitor storage in memory; drafts are lost on restart")
		profiles = storage.NewMemory()
	case config.StoragePostgres:
		dbpool, err = db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()
		if cfg.MigrateOnStart {
			if err := migrate.Apply(ctx, dbpool); err != nil {
				logger.Fatalf("apply migrations: %v", err)
			}
		}
		profiles = storage.NewPostgres(dbpool)
	default:
		logger.Fatalf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	backend := transport.New(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout})
	sessions := session.NewRegistry(profiles, backend, session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Logger:      logger,
		FormOptions: []form.Option{
			form.WithAutosaveDelay(cfg.AutosaveDelay),
			form.WithLogger(logger),
		},
	})
	sessions.Start()
	defer sessions.Stop()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:      cat,
		Sessions:     sessions,
		CORSOrigins:  cfg.CORSOrigins,
		SecureCookie: cfg.SecureCookie,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (backend %s)", cfg.HTTPAddr, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
