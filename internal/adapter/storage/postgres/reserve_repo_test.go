package postgres

import (
	"context"
	"testing"

	"alpha-ledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveRepo_TotalVaultReserves(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReserveRepo(mock)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_balance\\), 0\\) FROM vaults").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(250000)))

	total, err := repo.TotalVaultReserves(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(250000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRepo_TotalActiveObligations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReserveRepo(mock)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_repayment\\), 0\\) FROM loans WHERE status").
		WithArgs(domain.LoanStatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(180000)))

	total, err := repo.TotalActiveObligations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(180000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRepo_EmptyTablesSumToZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReserveRepo(mock)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_balance\\), 0\\) FROM vaults").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))

	total, err := repo.TotalVaultReserves(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
