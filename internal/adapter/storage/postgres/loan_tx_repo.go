package postgres

import (
	"context"
	"fmt"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoanTxRepo implements ports.LoanTransactionRepository.
type LoanTxRepo struct {
	pool Pool
}

// NewLoanTxRepo creates a new LoanTxRepo.
func NewLoanTxRepo(pool Pool) *LoanTxRepo {
	return &LoanTxRepo{pool: pool}
}

// Create appends one immutable loan event.
func (r *LoanTxRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LoanTransaction) error {
	query := `INSERT INTO loan_transactions (id, loan_id, tx_type, amount, from_wallet_id, to_wallet_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.LoanID, e.Type, e.Amount, e.FromWalletID, e.ToWalletID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan transaction: %w", err)
	}
	return nil
}

// ListByLoan returns a loan's full event log, oldest first.
func (r *LoanTxRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.LoanTransaction, error) {
	query := `SELECT id, loan_id, tx_type, amount, from_wallet_id, to_wallet_id, created_at
		FROM loan_transactions WHERE loan_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.LoanTransaction
	for rows.Next() {
		var e domain.LoanTransaction
		if err := rows.Scan(&e.ID, &e.LoanID, &e.Type, &e.Amount, &e.FromWalletID, &e.ToWalletID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan loan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
