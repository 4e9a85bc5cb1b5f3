package service

import (
	"context"
	"fmt"
	"time"

	"alpha-ledger/config"
	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// VaultServiceImpl implements ports.VaultService.
//
// Lock ordering: wallet rows first, vault row second. Lending holds the
// same ordering when it touches collateral, so vault and loan flows
// never deadlock against each other.
type VaultServiceImpl struct {
	walletRepo  ports.WalletRepository
	ledgerRepo  ports.WalletTransactionRepository
	vaultRepo   ports.VaultRepository
	vaultTxRepo ports.VaultTransactionRepository
	transactor  ports.DBTransactor
	cfg         config.VaultConfig
	batchSize   int
	log         zerolog.Logger
}

// NewVaultService creates a new VaultServiceImpl.
func NewVaultService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.WalletTransactionRepository,
	vaultRepo ports.VaultRepository,
	vaultTxRepo ports.VaultTransactionRepository,
	transactor ports.DBTransactor,
	cfg config.VaultConfig,
	batchSize int,
	log zerolog.Logger,
) *VaultServiceImpl {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &VaultServiceImpl{
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		vaultRepo:   vaultRepo,
		vaultTxRepo: vaultTxRepo,
		transactor:  transactor,
		cfg:         cfg,
		batchSize:   batchSize,
		log:         log,
	}
}

// Deposit moves value from the user's main wallet into their vault,
// creating the vault on first use.
func (s *VaultServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*ports.VaultResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if amount < s.cfg.MinDeposit {
		return nil, apperror.Validation(fmt.Sprintf("minimum deposit is %d", s.cfg.MinDeposit))
	}

	if err := s.ensureVault(ctx, userID); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserAndTypeForUpdate(ctx, dbTx, userID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !wallet.CanCover(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrVaultNotFound()
	}

	wallet.Balance -= amount
	vault.TotalBalance += amount

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}
	if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit vault: %w", err))
	}

	now := time.Now().UTC()
	walletEntry := &domain.WalletTransaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Amount:      -amount,
		Type:        domain.WalletTxVaultDeposit,
		Description: "vault deposit",
		CreatedAt:   now,
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, walletEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write wallet entry: %w", err))
	}

	vaultEntry := &domain.VaultTransaction{
		ID:        uuid.New(),
		VaultID:   vault.ID,
		Type:      domain.VaultTxDeposit,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := s.vaultTxRepo.Create(ctx, dbTx, vaultEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write vault entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Int64("vault_balance", vault.TotalBalance).
		Msg("vault deposit completed")

	return &ports.VaultResult{Vault: vault, NewMainBalance: wallet.Balance}, nil
}

// Withdraw moves value from the vault's available balance back to the
// user's main wallet. Frozen collateral cannot be withdrawn.
func (s *VaultServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (*ports.VaultResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserAndTypeForUpdate(ctx, dbTx, userID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrVaultNotFound()
	}
	if !vault.CanWithdraw(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	vault.TotalBalance -= amount
	wallet.Balance += amount

	if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit vault: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}

	now := time.Now().UTC()
	vaultEntry := &domain.VaultTransaction{
		ID:        uuid.New(),
		VaultID:   vault.ID,
		Type:      domain.VaultTxWithdraw,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := s.vaultTxRepo.Create(ctx, dbTx, vaultEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write vault entry: %w", err))
	}

	walletEntry := &domain.WalletTransaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Amount:      amount,
		Type:        domain.WalletTxVaultWithdrawal,
		Description: "vault withdrawal",
		CreatedAt:   now,
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, walletEntry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write wallet entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Int64("vault_balance", vault.TotalBalance).
		Msg("vault withdrawal completed")

	return &ports.VaultResult{Vault: vault, NewMainBalance: wallet.Balance}, nil
}

// Get returns the user's vault.
func (s *VaultServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.Vault, error) {
	vault, err := s.vaultRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrVaultNotFound()
	}
	return vault, nil
}

// ListTransactions returns a page of the user's vault event log.
func (s *VaultServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.VaultTransaction, error) {
	vault, err := s.vaultRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get vault: %w", err))
	}
	if vault == nil {
		return nil, apperror.ErrVaultNotFound()
	}

	entries, err := s.vaultTxRepo.ListByVault(ctx, vault.ID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list vault transactions: %w", err))
	}
	return entries, nil
}

// AccrueYield credits one day's yield to every vault at or above the
// threshold. Idempotent per calendar day: the last_yield_on watermark
// is re-checked under the row lock, so a re-run (or a second scheduler
// instance) never double-credits. Returns the number of vaults credited.
func (s *VaultServiceImpl) AccrueYield(ctx context.Context, asOf time.Time) (int, error) {
	rate := decimal.NewFromFloat(s.cfg.DailyYieldRate)
	credited := 0

	for {
		vaults, err := s.vaultRepo.ListEligibleForYield(ctx, s.cfg.YieldThreshold, asOf, s.batchSize)
		if err != nil {
			return credited, apperror.InternalError(fmt.Errorf("list eligible vaults: %w", err))
		}
		if len(vaults) == 0 {
			return credited, nil
		}

		progressed := 0
		for i := range vaults {
			ok, err := s.accrueOne(ctx, vaults[i].UserID, asOf, rate)
			if err != nil {
				s.log.Error().Err(err).
					Str("vault_id", vaults[i].ID.String()).
					Msg("yield accrual failed for vault")
				continue
			}
			if ok {
				credited++
				progressed++
			}
		}

		// Every vault in the batch failed or was already credited;
		// stop rather than spin on the same rows.
		if progressed == 0 {
			return credited, nil
		}
	}
}

// accrueOne credits a single vault inside its own transaction.
func (s *VaultServiceImpl) accrueOne(ctx context.Context, userID uuid.UUID, asOf time.Time, rate decimal.Decimal) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, userID)
	if err != nil {
		return false, fmt.Errorf("lock vault: %w", err)
	}
	if vault == nil {
		return false, nil
	}
	// Re-check under the lock: another run may have credited already,
	// or a withdrawal may have dropped the balance below the threshold.
	if vault.AccruedOn(asOf) || vault.TotalBalance < s.cfg.YieldThreshold {
		return false, nil
	}

	yield := domain.ComputeYield(vault.TotalBalance, rate)
	day := asOf.UTC().Truncate(24 * time.Hour)

	vault.TotalBalance += yield
	vault.LastYieldOn = &day

	if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
		return false, fmt.Errorf("update vault: %w", err)
	}

	entry := &domain.VaultTransaction{
		ID:        uuid.New(),
		VaultID:   vault.ID,
		Type:      domain.VaultTxYield,
		Amount:    yield,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.vaultTxRepo.Create(ctx, dbTx, entry); err != nil {
		return false, fmt.Errorf("write yield entry: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// ensureVault creates a zero-balance vault for the user if none exists.
func (s *VaultServiceImpl) ensureVault(ctx context.Context, userID uuid.UUID) error {
	vault, err := s.vaultRepo.GetByUser(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get vault: %w", err))
	}
	if vault != nil {
		return nil
	}

	now := time.Now().UTC()
	vault = &domain.Vault{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.vaultRepo.Create(ctx, vault); err != nil {
		return apperror.InternalError(fmt.Errorf("create vault: %w", err))
	}
	return nil
}
