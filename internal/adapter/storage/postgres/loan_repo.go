package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, lender_id, borrower_id, principal, interest_rate, interest_amount,
		total_repayment, term_days, status, escrow_wallet_id, collateral_amount,
		created_at, accepted_at, due_at, repaid_at`

// LoanRepo implements ports.LoanRepository.
type LoanRepo struct {
	pool Pool
}

// NewLoanRepo creates a new LoanRepo.
func NewLoanRepo(pool Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	l := &domain.Loan{}
	var rate string
	err := row.Scan(
		&l.ID, &l.LenderID, &l.BorrowerID, &l.Principal, &rate, &l.InterestAmount,
		&l.TotalRepayment, &l.TermDays, &l.Status, &l.EscrowWalletID, &l.CollateralAmount,
		&l.CreatedAt, &l.AcceptedAt, &l.DueAt, &l.RepaidAt,
	)
	if err != nil {
		return nil, err
	}
	l.InterestRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("parse interest rate: %w", err)
	}
	return l, nil
}

// Create inserts a new loan within the offer-posting transaction.
func (r *LoanRepo) Create(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	query := `INSERT INTO loans (id, lender_id, borrower_id, principal, interest_rate, interest_amount,
			total_repayment, term_days, status, escrow_wallet_id, collateral_amount,
			created_at, accepted_at, due_at, repaid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		l.ID, l.LenderID, l.BorrowerID, l.Principal, l.InterestRate.String(), l.InterestAmount,
		l.TotalRepayment, l.TermDays, l.Status, l.EscrowWalletID, l.CollateralAmount,
		l.CreatedAt, l.AcceptedAt, l.DueAt, l.RepaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// GetByID fetches a loan without locking.
func (r *LoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan by id: %w", err)
	}
	return l, nil
}

// GetByIDForUpdate fetches a loan with a row lock so state transitions
// serialize. Two concurrent TakeOffer calls resolve here: the second
// sees the already-updated status and fails its check-and-set.
func (r *LoanRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	l, err := scanLoan(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan for update: %w", err)
	}
	return l, nil
}

// Update persists status, borrower, collateral, and lifecycle timestamps.
func (r *LoanRepo) Update(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	query := `UPDATE loans SET borrower_id = $1, status = $2, collateral_amount = $3,
			accepted_at = $4, due_at = $5, repaid_at = $6
		WHERE id = $7`

	tag, err := tx.Exec(ctx, query,
		l.BorrowerID, l.Status, l.CollateralAmount, l.AcceptedAt, l.DueAt, l.RepaidAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan not found: %s", l.ID)
	}
	return nil
}

// ListOpen returns pending offers, oldest first.
func (r *LoanRepo) ListOpen(ctx context.Context, limit, offset int) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, domain.LoanStatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// ListByUser returns loans where the user is lender or borrower.
func (r *LoanRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE lender_id = $1 OR borrower_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user loans: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

// ListOverdue returns active loans past their due date, for the default sweep.
func (r *LoanRepo) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE status = $1 AND due_at < $2
		ORDER BY due_at ASC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, domain.LoanStatusActive, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	defer rows.Close()

	return collectLoans(rows)
}

func collectLoans(rows pgx.Rows) ([]domain.Loan, error) {
	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		var rate string
		err := rows.Scan(
			&l.ID, &l.LenderID, &l.BorrowerID, &l.Principal, &rate, &l.InterestAmount,
			&l.TotalRepayment, &l.TermDays, &l.Status, &l.EscrowWalletID, &l.CollateralAmount,
			&l.CreatedAt, &l.AcceptedAt, &l.DueAt, &l.RepaidAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		if l.InterestRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("parse interest rate: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
