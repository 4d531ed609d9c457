package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quorum/api/internal/app"
	"quorum/api/internal/cache"
	"quorum/api/internal/config"
	"quorum/api/internal/db"
	"quorum/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn, cfg.DBDriver); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.New(conn)
	resolvers := dataStore.Resolvers()

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for resolver caching")
		resolverCache, err := cache.NewResolverCache(cfg.RedisURL, resolvers, cfg.CacheTTL, nil)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer resolverCache.Close()
		resolvers = resolverCache.Resolvers()
	}

	service := app.NewService(conn, dataStore, resolvers, nil)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Quorum API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
