package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("ERR_BALANCE_001", "Insufficient balance", http.StatusPaymentRequired),
			expected: "[ERR_BALANCE_001] Insufficient balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("ERR_SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[ERR_SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("ERR_SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("ERR_VALIDATION_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "ERR_AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "ERR_AUTH_002", 401},
		{"UsernameExists", ErrUsernameExists(), "ERR_AUTH_003", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientBalance", ErrInsufficientBalance(), "ERR_BALANCE_001", 402},
		{"WalletNotFound", ErrWalletNotFound(), "ERR_BALANCE_002", 404},
		{"InvalidAmount", ErrInvalidAmount(), "ERR_VALIDATION_002", 400},
		{"InvalidLoanState", ErrInvalidLoanState(), "ERR_STATE_001", 409},
		{"LoanNotFound", ErrLoanNotFound(), "ERR_STATE_002", 404},
		{"NotLoanParty", ErrNotLoanParty(), "ERR_STATE_003", 403},
		{"VaultNotFound", ErrVaultNotFound(), "ERR_VAULT_001", 404},
		{"CollateralExceedsVault", ErrCollateralExceedsVault(), "ERR_VAULT_002", 409},
		{"CircuitBreakerActive", ErrCircuitBreakerActive(), "ERR_RESERVE_001", 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestInsufficientBalance_MessageIsGeneric(t *testing.T) {
	// The message must not echo amounts or balances back to the caller.
	err := ErrInsufficientBalance()
	assert.Equal(t, "Insufficient balance", err.Message)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "ERR_SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	lockErr := ErrLockTimeout(inner)
	assert.Equal(t, "ERR_SYS_002", lockErr.Code)
	assert.Equal(t, 503, lockErr.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "ERR_RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}
