package handler

import (
	"alpha-ledger/internal/adapter/http/middleware"
	redisStore "alpha-ledger/internal/adapter/storage/redis"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TransferSvc    ports.TransferService
	LendingSvc     ports.LendingService
	VaultSvc       ports.VaultService
	ReserveMonitor ports.ReserveMonitor
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Metrics        *metrics.Metrics // nil = /metrics disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	reserveHandler := NewReserveHandler(deps.ReserveMonitor)
	v1.GET("/reserve", reserveHandler.Get)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.TransferSvc, deps.Metrics)
	loanHandler := NewLoanHandler(deps.LendingSvc, deps.Metrics)
	vaultHandler := NewVaultHandler(deps.VaultSvc)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("", walletHandler.List)
		wallets.POST("/transfer", rl("transfers"), walletHandler.TransferOwn)
		wallets.GET("/:type/transactions", walletHandler.ListTransactions)
	}

	transfers := v1.Group("/transfers", jwtAuth)
	{
		transfers.POST("", rl("transfers"), walletHandler.TransferToUser)
	}

	loans := v1.Group("/loans", jwtAuth)
	{
		loans.POST("", rl("offers"), loanHandler.PostOffer)
		loans.GET("/open", loanHandler.ListOpen)
		loans.GET("/mine", loanHandler.ListMine)
		loans.POST("/:id/take", rl("takes"), loanHandler.Take)
		loans.POST("/:id/repay", rl("repayments"), loanHandler.Repay)
		loans.POST("/:id/cancel", rl("cancels"), loanHandler.Cancel)
	}

	vault := v1.Group("/vault", jwtAuth)
	{
		vault.GET("", vaultHandler.Get)
		vault.POST("/deposit", rl("deposits"), vaultHandler.Deposit)
		vault.POST("/withdraw", rl("withdrawals"), vaultHandler.Withdraw)
		vault.GET("/transactions", vaultHandler.ListTransactions)
	}

	return r
}
