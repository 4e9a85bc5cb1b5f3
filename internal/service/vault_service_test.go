package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alpha-ledger/config"
	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports/mocks"
	"alpha-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testVaultConfig = config.VaultConfig{
	MinDeposit:     100,
	YieldThreshold: 5_000,
	DailyYieldRate: 0.01,
}

type vaultTestDeps struct {
	svc         *VaultServiceImpl
	walletRepo  *mocks.MockWalletRepository
	ledgerRepo  *mocks.MockWalletTransactionRepository
	vaultRepo   *mocks.MockVaultRepository
	vaultTxRepo *mocks.MockVaultTransactionRepository
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupVaultService(t *testing.T) *vaultTestDeps {
	ctrl := gomock.NewController(t)
	d := &vaultTestDeps{
		walletRepo:  mocks.NewMockWalletRepository(ctrl),
		ledgerRepo:  mocks.NewMockWalletTransactionRepository(ctrl),
		vaultRepo:   mocks.NewMockVaultRepository(ctrl),
		vaultTxRepo: mocks.NewMockVaultTransactionRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewVaultService(
		d.walletRepo, d.ledgerRepo, d.vaultRepo, d.vaultTxRepo,
		d.transactor, testVaultConfig, 500, zerolog.Nop(),
	)
	return d
}

func TestVaultService_Deposit_Success(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Type: domain.WalletTypeMain, Balance: 1_000}
	vault := &domain.Vault{ID: uuid.New(), UserID: userID, TotalBalance: 2_000}

	d.vaultRepo.EXPECT().GetByUser(ctx, userID).Return(vault, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndTypeForUpdate(ctx, tx, userID, domain.WalletTypeMain).Return(wallet, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, userID).Return(vault, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, int64(700)).Return(nil)
	d.vaultRepo.EXPECT().Update(ctx, tx, vault).Return(nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.WalletTransaction) error {
			assert.EqualValues(t, -300, e.Amount)
			assert.Equal(t, domain.WalletTxVaultDeposit, e.Type)
			return nil
		})
	d.vaultTxRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.VaultTransaction) error {
			assert.EqualValues(t, 300, e.Amount)
			assert.Equal(t, domain.VaultTxDeposit, e.Type)
			return nil
		})

	result, err := d.svc.Deposit(ctx, userID, 300)
	require.NoError(t, err)
	assert.EqualValues(t, 700, result.NewMainBalance)
	assert.EqualValues(t, 2_300, result.Vault.TotalBalance)
}

func TestVaultService_Deposit_CreatesVaultOnFirstUse(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Type: domain.WalletTypeMain, Balance: 1_000}

	d.vaultRepo.EXPECT().GetByUser(ctx, userID).Return(nil, nil)
	var created *domain.Vault
	d.vaultRepo.EXPECT().Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, v *domain.Vault) error {
			assert.Equal(t, userID, v.UserID)
			assert.EqualValues(t, 0, v.TotalBalance)
			created = v
			return nil
		})
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndTypeForUpdate(ctx, tx, userID, domain.WalletTypeMain).Return(wallet, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, userID).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, _ uuid.UUID) (*domain.Vault, error) {
			return created, nil
		})
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, int64(500)).Return(nil)
	d.vaultRepo.EXPECT().Update(ctx, tx, gomock.Any()).Return(nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.vaultTxRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.svc.Deposit(ctx, userID, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 500, result.Vault.TotalBalance)
}

func TestVaultService_Deposit_BelowMinimum(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	result, err := d.svc.Deposit(context.Background(), uuid.New(), 50)
	assert.Nil(t, result)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_VALIDATION_001", appErr.Code)
}

func TestVaultService_Withdraw_FrozenCollateralHeldBack(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Type: domain.WalletTypeMain, Balance: 0}
	vault := &domain.Vault{ID: uuid.New(), UserID: userID, TotalBalance: 10_000, FrozenCollateral: 8_000}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndTypeForUpdate(ctx, tx, userID, domain.WalletTypeMain).Return(wallet, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, userID).Return(vault, nil)

	// 2,000 available; asking for 3,000 must fail.
	result, err := d.svc.Withdraw(ctx, userID, 3_000)
	assert.Nil(t, result)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_BALANCE_001", appErr.Code)
}

func TestVaultService_Withdraw_Success(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	wallet := &domain.Wallet{ID: uuid.New(), UserID: userID, Type: domain.WalletTypeMain, Balance: 100}
	vault := &domain.Vault{ID: uuid.New(), UserID: userID, TotalBalance: 10_000, FrozenCollateral: 8_000}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndTypeForUpdate(ctx, tx, userID, domain.WalletTypeMain).Return(wallet, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, userID).Return(vault, nil)
	d.vaultRepo.EXPECT().Update(ctx, tx, vault).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, int64(2_100)).Return(nil)
	d.vaultTxRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.VaultTransaction) error {
			// Stored as an absolute value, direction lives in the type.
			assert.EqualValues(t, 2_000, e.Amount)
			assert.Equal(t, domain.VaultTxWithdraw, e.Type)
			assert.GreaterOrEqual(t, e.Amount, int64(0))
			return nil
		})
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.svc.Withdraw(ctx, userID, 2_000)
	require.NoError(t, err)
	assert.EqualValues(t, 2_100, result.NewMainBalance)
	assert.EqualValues(t, 8_000, result.Vault.TotalBalance)
	assert.EqualValues(t, 0, result.Vault.Available())
}

func TestVaultService_Get_NotFound(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	d.vaultRepo.EXPECT().GetByUser(ctx, userID).Return(nil, nil)

	vault, err := d.svc.Get(ctx, userID)
	assert.Nil(t, vault)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_VAULT_001", appErr.Code)
}

func TestVaultService_AccrueYield_CreditsEligibleVaults(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	tx := &mockTx{}

	vault := &domain.Vault{ID: uuid.New(), UserID: uuid.New(), TotalBalance: 10_000}

	gomock.InOrder(
		d.vaultRepo.EXPECT().ListEligibleForYield(ctx, int64(5_000), asOf, 500).Return([]domain.Vault{*vault}, nil),
		d.vaultRepo.EXPECT().ListEligibleForYield(ctx, int64(5_000), asOf, 500).Return(nil, nil),
	)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, vault.UserID).Return(vault, nil)
	d.vaultRepo.EXPECT().Update(ctx, tx, vault).Return(nil)
	d.vaultTxRepo.EXPECT().Create(ctx, tx, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, e *domain.VaultTransaction) error {
			assert.Equal(t, domain.VaultTxYield, e.Type)
			assert.EqualValues(t, 100, e.Amount) // 1% of 10,000
			return nil
		})

	credited, err := d.svc.AccrueYield(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, credited)
	assert.EqualValues(t, 10_100, vault.TotalBalance)
	require.NotNil(t, vault.LastYieldOn)
	assert.True(t, vault.AccruedOn(asOf))
}

func TestVaultService_AccrueYield_SkipsAlreadyCredited(t *testing.T) {
	d := setupVaultService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	day := asOf.Truncate(24 * time.Hour)
	tx := &mockTx{}

	// The listing raced with another run: the watermark is re-checked
	// under the row lock and nothing is credited twice.
	stale := &domain.Vault{ID: uuid.New(), UserID: uuid.New(), TotalBalance: 10_000}
	fresh := &domain.Vault{ID: stale.ID, UserID: stale.UserID, TotalBalance: 10_100, LastYieldOn: &day}

	d.vaultRepo.EXPECT().ListEligibleForYield(ctx, int64(5_000), asOf, 500).Return([]domain.Vault{*stale}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.vaultRepo.EXPECT().GetByUserForUpdate(ctx, tx, stale.UserID).Return(fresh, nil)

	credited, err := d.svc.AccrueYield(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, credited)
}

func TestVaultService_AccrueYield_RoundsDown(t *testing.T) {
	rate := decimal.NewFromFloat(0.01)
	assert.EqualValues(t, 59, domain.ComputeYield(5_999, rate))
	assert.EqualValues(t, 50, domain.ComputeYield(5_000, rate))
}
