package ports

import (
	"context"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx acquire row-level locks and must only be
// called inside a transaction block.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserAndType(ctx context.Context, userID uuid.UUID, wt domain.WalletType) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByUserAndTypeForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, wt domain.WalletType) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error
}

// WalletTransactionRepository stores the append-only wallet ledger.
type WalletTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.WalletTransaction) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error)
	// SumByWallet replays the log; used by reconciliation checks.
	SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// LoanRepository defines persistence operations for loans.
type LoanRepository interface {
	Create(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	// GetByIDForUpdate locks the loan row for the check-and-set that
	// resolves concurrent TakeOffer calls.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Loan, error)
	Update(ctx context.Context, tx pgx.Tx, loan *domain.Loan) error
	ListOpen(ctx context.Context, limit, offset int) ([]domain.Loan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Loan, error)
}

// LoanTransactionRepository stores the append-only loan event log.
type LoanTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LoanTransaction) error
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.LoanTransaction, error)
}

// VaultRepository defines persistence operations for vaults.
type VaultRepository interface {
	Create(ctx context.Context, vault *domain.Vault) error
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Vault, error)
	GetByUserForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Vault, error)
	Update(ctx context.Context, tx pgx.Tx, vault *domain.Vault) error
	// ListEligibleForYield returns vaults at or above the yield threshold
	// that have not yet accrued for the given calendar day.
	ListEligibleForYield(ctx context.Context, threshold int64, day time.Time, limit int) ([]domain.Vault, error)
}

// VaultTransactionRepository stores the append-only vault event log.
type VaultTransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.VaultTransaction) error
	ListByVault(ctx context.Context, vaultID uuid.UUID, limit, offset int) ([]domain.VaultTransaction, error)
}

// ReserveRepository aggregates the system-wide figures behind the
// reserve ratio. Read-side only; no locking.
type ReserveRepository interface {
	TotalVaultReserves(ctx context.Context) (int64, error)
	TotalActiveObligations(ctx context.Context) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
