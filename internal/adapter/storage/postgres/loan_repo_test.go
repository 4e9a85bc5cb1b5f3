package postgres

import (
	"context"
	"testing"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loanColumnNames() []string {
	return []string{
		"id", "lender_id", "borrower_id", "principal", "interest_rate", "interest_amount",
		"total_repayment", "term_days", "status", "escrow_wallet_id", "collateral_amount",
		"created_at", "accepted_at", "due_at", "repaid_at",
	}
}

func newTestLoan() *domain.Loan {
	return &domain.Loan{
		ID:             uuid.New(),
		LenderID:       uuid.New(),
		Principal:      1000,
		InterestRate:   decimal.NewFromFloat(0.03),
		InterestAmount: 30,
		TotalRepayment: 1030,
		TermDays:       7,
		Status:         domain.LoanStatusPending,
		EscrowWalletID: uuid.New(),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func loanRow(l *domain.Loan) *pgxmock.Rows {
	return pgxmock.NewRows(loanColumnNames()).AddRow(
		l.ID, l.LenderID, l.BorrowerID, l.Principal, l.InterestRate.String(), l.InterestAmount,
		l.TotalRepayment, l.TermDays, l.Status, l.EscrowWalletID, l.CollateralAmount,
		l.CreatedAt, l.AcceptedAt, l.DueAt, l.RepaidAt,
	)
}

func TestLoanRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO loans").
		WithArgs(
			l.ID, l.LenderID, l.BorrowerID, l.Principal, "0.03", l.InterestAmount,
			l.TotalRepayment, l.TermDays, l.Status, l.EscrowWalletID, l.CollateralAmount,
			l.CreatedAt, l.AcceptedAt, l.DueAt, l.RepaidAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, l)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()

	mock.ExpectQuery("SELECT .+ FROM loans WHERE id").
		WithArgs(l.ID).
		WillReturnRows(loanRow(l))

	got, err := repo.GetByID(context.Background(), l.ID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.ID, got.ID)
	assert.True(t, got.InterestRate.Equal(decimal.NewFromFloat(0.03)))
	assert.Equal(t, int64(1030), got.TotalRepayment)
	assert.Nil(t, got.BorrowerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM loans WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), id)

	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM loans WHERE id = \\$1 FOR UPDATE").
		WithArgs(l.ID).
		WillReturnRows(loanRow(l))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.GetByIDForUpdate(context.Background(), tx, l.ID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.LoanStatusPending, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()
	borrowerID := uuid.New()
	now := time.Now()
	due := now.Add(7 * 24 * time.Hour)
	l.BorrowerID = &borrowerID
	l.Status = domain.LoanStatusActive
	l.CollateralAmount = 1030
	l.AcceptedAt = &now
	l.DueAt = &due

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE loans SET").
		WithArgs(l.BorrowerID, l.Status, l.CollateralAmount, l.AcceptedAt, l.DueAt, l.RepaidAt, l.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, l)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_Update_LoanMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	l := newTestLoan()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE loans SET").
		WithArgs(l.BorrowerID, l.Status, l.CollateralAmount, l.AcceptedAt, l.DueAt, l.RepaidAt, l.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, l)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	a := newTestLoan()
	b := newTestLoan()
	b.Principal = 2000
	b.InterestRate = decimal.NewFromFloat(0.05)
	b.TermDays = 14

	rows := pgxmock.NewRows(loanColumnNames()).
		AddRow(a.ID, a.LenderID, a.BorrowerID, a.Principal, a.InterestRate.String(), a.InterestAmount,
			a.TotalRepayment, a.TermDays, a.Status, a.EscrowWalletID, a.CollateralAmount,
			a.CreatedAt, a.AcceptedAt, a.DueAt, a.RepaidAt).
		AddRow(b.ID, b.LenderID, b.BorrowerID, b.Principal, b.InterestRate.String(), b.InterestAmount,
			b.TotalRepayment, b.TermDays, b.Status, b.EscrowWalletID, b.CollateralAmount,
			b.CreatedAt, b.AcceptedAt, b.DueAt, b.RepaidAt)

	mock.ExpectQuery("SELECT .+ FROM loans WHERE status").
		WithArgs(domain.LoanStatusPending, 20, 0).
		WillReturnRows(rows)

	loans, err := repo.ListOpen(context.Background(), 20, 0)

	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, a.ID, loans[0].ID)
	assert.True(t, loans[1].InterestRate.Equal(decimal.NewFromFloat(0.05)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	userID := uuid.New()
	l := newTestLoan()
	l.LenderID = userID

	mock.ExpectQuery("SELECT .+ FROM loans").
		WithArgs(userID).
		WillReturnRows(loanRow(l))

	loans, err := repo.ListByUser(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, userID, loans[0].LenderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepo_ListOverdue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLoanRepo(mock)
	asOf := time.Now()
	borrowerID := uuid.New()
	due := asOf.Add(-24 * time.Hour)
	accepted := asOf.Add(-8 * 24 * time.Hour)
	l := newTestLoan()
	l.Status = domain.LoanStatusActive
	l.BorrowerID = &borrowerID
	l.AcceptedAt = &accepted
	l.DueAt = &due

	mock.ExpectQuery("SELECT .+ FROM loans").
		WithArgs(domain.LoanStatusActive, asOf, 100).
		WillReturnRows(loanRow(l))

	loans, err := repo.ListOverdue(context.Background(), asOf, 100)

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, domain.LoanStatusActive, loans[0].Status)
	require.NotNil(t, loans[0].DueAt)
	assert.True(t, loans[0].DueAt.Before(asOf))
	assert.NoError(t, mock.ExpectationsWereMet())
}
