package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/config"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/httpserver"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/store"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	st := openStore(cfg)
	srv := httpserver.New(st)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("intake API listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}

// openStore connects to Postgres when DATABASE_URL is set, otherwise falls
// back to the in-memory store shared with nothing, which is fine for demos.
func openStore(cfg config.Config) store.Store {
	if cfg.DatabaseURL == "" {
		return store.NewMemory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database pool: %v", err)
	}
	pg, err := store.NewPostgres(pool)
	if err != nil {
		log.Fatalf("database store: %v", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("database schema: %v", err)
	}
	log.Println("connected to Postgres task store")
	return pg
}
