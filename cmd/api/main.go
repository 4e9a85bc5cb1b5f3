package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alpha-ledger/config"
	httpHandler "alpha-ledger/internal/adapter/http/handler"
	pgStorage "alpha-ledger/internal/adapter/storage/postgres"
	redisStorage "alpha-ledger/internal/adapter/storage/redis"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/metrics"
	"alpha-ledger/internal/service"
	"alpha-ledger/internal/worker"
	"alpha-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Alpha Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	walletTxRepo := pgStorage.NewWalletTxRepo(pool)
	loanRepo := pgStorage.NewLoanRepo(pool)
	loanTxRepo := pgStorage.NewLoanTxRepo(pool)
	vaultRepo := pgStorage.NewVaultRepo(pool)
	vaultTxRepo := pgStorage.NewVaultTxRepo(pool)
	reserveRepo := pgStorage.NewReserveRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Prometheus instruments
	m := metrics.New()

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc)
	transferSvc := service.NewTransferService(walletRepo, walletTxRepo, transactor, log)
	reserveMonitor := service.NewReserveMonitor(reserveRepo, log)
	reserveMonitor.SetGauge(m.ReserveRatio)
	lendingSvc := service.NewLendingService(
		loanRepo,
		loanTxRepo,
		walletRepo,
		walletTxRepo,
		vaultRepo,
		vaultTxRepo,
		reserveMonitor,
		transactor,
		cfg.Lending,
		cfg.Worker.SweepBatchSize,
		log,
	)
	vaultSvc := service.NewVaultService(
		walletRepo,
		walletTxRepo,
		vaultRepo,
		vaultTxRepo,
		transactor,
		cfg.Vault,
		cfg.Worker.YieldBatchSize,
		log,
	)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Scheduled jobs: yield accrual and default sweep
	if cfg.Worker.Enabled {
		w, err := worker.New(vaultSvc, lendingSvc, cfg.Worker, m, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create worker")
		}
		if err := w.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start worker")
		}
		defer w.Stop() //nolint:errcheck
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TransferSvc:    transferSvc,
		LendingSvc:     lendingSvc,
		VaultSvc:       vaultSvc,
		ReserveMonitor: reserveMonitor,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Metrics:        m,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
