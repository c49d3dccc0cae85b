package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pulso-app/pulso/internal/auth"
	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/scheduler"
	"github.com/pulso-app/pulso/internal/server"
	"github.com/pulso-app/pulso/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Pulso proxy server")

	// Initialize the user-action datastore when configured
	var store storage.UserActionStore
	if cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			logrus.Fatalf("Failed to initialize datastore: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		logrus.Warn("DATABASE_URL not set, user-action logging disabled")
	}

	// Initialize the identity provider when configured
	var sessions *auth.Manager
	if cfg.AuthEnabled() {
		sessions = auth.NewManager(cfg, store)
	} else {
		logrus.Warn("Google sign-in not configured, authenticated routes disabled")
	}

	// Initialize the proxy server
	srv := server.NewServer(cfg, store, sessions)

	// Start cache maintenance
	maintenance := scheduler.NewService(srv)
	if err := maintenance.Start(); err != nil {
		logrus.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	defer maintenance.Stop()

	// Start HTTP server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
