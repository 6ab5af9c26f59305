package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopql.org/internal/auth"
	"shopql.org/internal/config"
	"shopql.org/internal/graph"
	"shopql.org/internal/httpapi"
	"shopql.org/internal/migrate"
	"shopql.org/internal/obs"
	"shopql.org/internal/permissions"
	"shopql.org/internal/store"
	"shopql.org/internal/store/memstore"
	"shopql.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var (
		stores store.Stores
		probe  httpapi.ReadyProbe
		pgs    *pg.Store
	)
	if cfg.DatabaseURL != "" {
		pgs, err = pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		if cfg.RunMigrationsOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			mgr := migrate.NewManager(pgs.DB(), "migrations", "migrations/seeds")
			if err := mgr.Up(ctx); err != nil {
				cancel()
				log.Fatalf("migrate: %v", err)
			}
			cancel()
		}
		stores = pgs.Stores()
		probe = httpapi.ReadyProbe{DB: pgs.DB()}
	} else {
		log.Println("DATABASE_URL not set, running on the in-memory store")
		stores = memstore.New().Stores()
	}

	tokens, err := auth.NewTokenService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		auth.WithIssuer(cfg.JWT.Issuer),
		auth.WithAccessTTL(cfg.JWT.AccessTTL),
		auth.WithRefreshTTL(cfg.JWT.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	sessions, err := auth.NewService(tokens, stores.Customers)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	exec := graph.NewExecutor(permissions.Default(), sessions, stores)
	api := httpapi.New(exec, probe, cfg, version)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting shopql-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgs != nil {
		_ = pgs.Close()
	}
	log.Println("Stopped")
}
