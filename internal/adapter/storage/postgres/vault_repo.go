package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const vaultColumns = `id, user_id, total_balance, frozen_collateral, last_yield_on, created_at, updated_at`

// VaultRepo implements ports.VaultRepository.
type VaultRepo struct {
	pool Pool
}

// NewVaultRepo creates a new VaultRepo.
func NewVaultRepo(pool Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

func scanVault(row pgx.Row) (*domain.Vault, error) {
	v := &domain.Vault{}
	err := row.Scan(&v.ID, &v.UserID, &v.TotalBalance, &v.FrozenCollateral, &v.LastYieldOn, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a new vault.
func (r *VaultRepo) Create(ctx context.Context, v *domain.Vault) error {
	query := `INSERT INTO vaults (id, user_id, total_balance, frozen_collateral, last_yield_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.UserID, v.TotalBalance, v.FrozenCollateral, v.LastYieldOn, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vault: %w", err)
	}
	return nil
}

// GetByUser fetches a user's vault (non-locking read).
func (r *VaultRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE user_id = $1`

	v, err := scanVault(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vault by user: %w", err)
	}
	return v, nil
}

// GetByUserForUpdate fetches a user's vault with a row lock.
// This MUST be called within a transaction.
func (r *VaultRepo) GetByUserForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE user_id = $1 FOR UPDATE`

	v, err := scanVault(tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vault for update: %w", err)
	}
	return v, nil
}

// Update persists balances and the yield-accrual watermark. The CHECK
// constraint frozen_collateral <= total_balance backs up the service guard.
func (r *VaultRepo) Update(ctx context.Context, tx pgx.Tx, v *domain.Vault) error {
	query := `UPDATE vaults SET total_balance = $1, frozen_collateral = $2, last_yield_on = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := tx.Exec(ctx, query, v.TotalBalance, v.FrozenCollateral, v.LastYieldOn, v.ID)
	if err != nil {
		return fmt.Errorf("update vault: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vault not found: %s", v.ID)
	}
	return nil
}

// ListEligibleForYield returns vaults due for accrual on the given day:
// balance at or above the threshold and not yet credited for that day.
func (r *VaultRepo) ListEligibleForYield(ctx context.Context, threshold int64, day time.Time, limit int) ([]domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults
		WHERE total_balance >= $1 AND (last_yield_on IS NULL OR last_yield_on < $2::date)
		ORDER BY created_at ASC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, threshold, day.UTC().Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("list vaults for yield: %w", err)
	}
	defer rows.Close()

	var vaults []domain.Vault
	for rows.Next() {
		var v domain.Vault
		if err := rows.Scan(&v.ID, &v.UserID, &v.TotalBalance, &v.FrozenCollateral, &v.LastYieldOn, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vault: %w", err)
		}
		vaults = append(vaults, v)
	}
	return vaults, rows.Err()
}
