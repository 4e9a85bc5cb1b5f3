package postgres

import (
	"context"
	"fmt"

	"alpha-ledger/internal/core/domain"
)

// ReserveRepo implements ports.ReserveRepository. Both aggregates are
// plain reads; the monitor recomputes them on every gating check.
type ReserveRepo struct {
	pool Pool
}

// NewReserveRepo creates a new ReserveRepo.
func NewReserveRepo(pool Pool) *ReserveRepo {
	return &ReserveRepo{pool: pool}
}

// TotalVaultReserves sums every vault's total balance.
func (r *ReserveRepo) TotalVaultReserves(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(total_balance), 0) FROM vaults`

	var total int64
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum vault reserves: %w", err)
	}
	return total, nil
}

// TotalActiveObligations sums total repayment across active loans.
func (r *ReserveRepo) TotalActiveObligations(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(total_repayment), 0) FROM loans WHERE status = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, query, domain.LoanStatusActive).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active obligations: %w", err)
	}
	return total, nil
}
