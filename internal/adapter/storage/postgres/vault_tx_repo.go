package postgres

import (
	"context"
	"fmt"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VaultTxRepo implements ports.VaultTransactionRepository.
type VaultTxRepo struct {
	pool Pool
}

// NewVaultTxRepo creates a new VaultTxRepo.
func NewVaultTxRepo(pool Pool) *VaultTxRepo {
	return &VaultTxRepo{pool: pool}
}

// Create appends one immutable vault event.
func (r *VaultTxRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.VaultTransaction) error {
	query := `INSERT INTO vault_transactions (id, vault_id, tx_type, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, e.ID, e.VaultID, e.Type, e.Amount, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vault transaction: %w", err)
	}
	return nil
}

// ListByVault returns a page of vault events, newest first.
func (r *VaultTxRepo) ListByVault(ctx context.Context, vaultID uuid.UUID, limit, offset int) ([]domain.VaultTransaction, error) {
	query := `SELECT id, vault_id, tx_type, amount, created_at
		FROM vault_transactions WHERE vault_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, vaultID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list vault transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.VaultTransaction
	for rows.Next() {
		var e domain.VaultTransaction
		if err := rows.Scan(&e.ID, &e.VaultID, &e.Type, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vault transaction: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
