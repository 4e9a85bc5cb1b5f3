package ports

import (
	"context"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles bearer token operations.
type TokenService interface {
	Generate(userID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed bearer token claims.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
}

// --- Service Ports (Business Logic) ---

// AuthService defines onboarding and login.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
}

// RegisterResponse holds the onboarding result.
type RegisterResponse struct {
	UserID  uuid.UUID
	Wallets []domain.Wallet // one wallet per type, created eagerly
}

// TransferService is the atomic transfer procedure plus wallet reads.
type TransferService interface {
	// TransferOwnWallets moves value between two wallets of the same user.
	TransferOwnWallets(ctx context.Context, userID uuid.UUID, from, to domain.WalletType, amount int64) (*TransferResult, error)
	// TransferToUser moves value from the sender's main wallet to the
	// recipient's main wallet.
	TransferToUser(ctx context.Context, senderID, recipientID uuid.UUID, amount int64, note string) (*TransferResult, error)
	ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, wt domain.WalletType, limit, offset int) ([]domain.WalletTransaction, error)
}

// TransferResult reports the outcome of an atomic transfer.
type TransferResult struct {
	TransactionID  uuid.UUID
	FromWalletID   uuid.UUID
	ToWalletID     uuid.UUID
	FromNewBalance int64
	ToNewBalance   int64
}

// LendingService is the marketplace state machine.
type LendingService interface {
	PostOffer(ctx context.Context, lenderID uuid.UUID, principal int64, termDays int) (*domain.Loan, error)
	CancelOffer(ctx context.Context, lenderID, loanID uuid.UUID) (*CancelResult, error)
	TakeOffer(ctx context.Context, borrowerID, loanID uuid.UUID) (*domain.Loan, error)
	Repay(ctx context.Context, borrowerID, loanID uuid.UUID, useAutoDeduct bool) (*RepayResult, error)
	ListOpenOffers(ctx context.Context, limit, offset int) ([]domain.Loan, error)
	ListUserLoans(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error)
	// SweepDefaults liquidates or writes off active loans past their due
	// date. Scheduled, not user-invoked; idempotent per loan.
	SweepDefaults(ctx context.Context, now time.Time) (int, error)
}

// CancelResult reports an escrow refund.
type CancelResult struct {
	Loan           *domain.Loan
	RefundedAmount int64
	NewMainBalance int64
}

// RepayResult reports a loan settlement.
type RepayResult struct {
	Loan           *domain.Loan
	AmountPaid     int64
	NewMainBalance int64 // borrower's main wallet after settlement
}

// VaultService manages deposits, withdrawals, and yield.
type VaultService interface {
	Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*VaultResult, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (*VaultResult, error)
	Get(ctx context.Context, userID uuid.UUID) (*domain.Vault, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.VaultTransaction, error)
	// AccrueYield credits daily yield to every eligible vault. Scheduled,
	// idempotent per vault per calendar day.
	AccrueYield(ctx context.Context, asOf time.Time) (int, error)
}

// VaultResult reports new vault and wallet balances after a mutation.
type VaultResult struct {
	Vault          *domain.Vault
	NewMainBalance int64
}

// ReserveBand is the health classification of the reserve ratio.
type ReserveBand string

const (
	ReserveBandHealthy        ReserveBand = "HEALTHY"         // >= 115%
	ReserveBandWarning        ReserveBand = "WARNING"         // >= 105%
	ReserveBandCritical       ReserveBand = "CRITICAL"        // >= 100%
	ReserveBandCircuitBreaker ReserveBand = "CIRCUIT_BREAKER" // < 100%
)

// ReserveStatus is a point-in-time snapshot of system solvency.
type ReserveStatus struct {
	Reserves      int64           `json:"reserves"`
	Obligations   int64           `json:"obligations"`
	Ratio         decimal.Decimal `json:"ratio"` // percentage, e.g. 118.50
	Band          ReserveBand     `json:"band"`
	LendingHalted bool            `json:"lending_halted"`
}

// ReserveMonitor recomputes the reserve ratio on demand. Never cached:
// reserves and obligations move on every repayment, default, or deposit.
type ReserveMonitor interface {
	Snapshot(ctx context.Context) (*ReserveStatus, error)
}
