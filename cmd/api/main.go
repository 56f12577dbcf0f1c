package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/outfoxxed/seashare/internal/api"
	"github.com/outfoxxed/seashare/internal/config"
	"github.com/outfoxxed/seashare/internal/logging"
	"github.com/outfoxxed/seashare/internal/raw"
	"github.com/outfoxxed/seashare/internal/seafile"
	"github.com/outfoxxed/seashare/internal/upload"
)

func main() {
	configPath := ""
	switch len(os.Args) {
	case 1:
	case 2:
		configPath = os.Args[1]
	default:
		fmt.Fprintln(os.Stderr, "Usage: seashare [config_file]")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Debug)

	// Process-wide backend client; its connection pool is shared by every
	// request and read-only after construction.
	client := seafile.New(cfg.SeafileServer, log)

	uploadSvc := upload.NewService(client, cfg.PublicScheme, log)
	uploadHandler := upload.NewHandler(uploadSvc, log)

	rawSvc := raw.NewService(client, log)
	rawHandler := raw.NewHandler(rawSvc, log)

	router := api.NewRouter(log, uploadHandler, rawHandler)

	// No read/write timeouts: relayed transfers may legitimately run for
	// as long as the slower side needs.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("server listening on :%s (env=%s), backend %s", cfg.Port, cfg.AppEnv, cfg.SeafileServer)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Info("server stopped")
}
