package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"pool-attendance-backend/config"
	"pool-attendance-backend/internal/api"
	"pool-attendance-backend/internal/auth"
	"pool-attendance-backend/internal/db"
	"pool-attendance-backend/internal/ledger"
	"pool-attendance-backend/internal/monitor"
	"pool-attendance-backend/internal/notification"
	"pool-attendance-backend/internal/pass"
	"pool-attendance-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "pool-attendance ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSigningKey == "" {
		logger.Fatalf("auth.jwt_signing_key must be configured")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push alerts will be unavailable")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	ledgerSvc, err := ledger.NewService(ctx, appStore, cfg.Location())
	if err != nil {
		logger.Fatalf("failed to initialize attendance ledger: %v", err)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(gormDB, tokens, cfg.Auth.MaxAttempts, cfg.Auth.Lockout)
	if err := authSvc.EnsureDefaultAdmin(ctx, cfg.Auth.DefaultUsername, cfg.Auth.DefaultPassword); err != nil {
		logger.Fatalf("failed to ensure default admin account: %v", err)
	}

	passGen := pass.NewGenerator(cfg.Storage.PassDir)

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	monitorSvc := monitor.NewService(cfg, appStore, ledgerSvc, workerPool)
	go monitorSvc.Run(ctx)

	handler := api.NewHandler(cfg, appStore, ledgerSvc, authSvc, passGen, &webpushOptions)
	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
