package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Code is a stable, opaque identifier; Message is the safe user-facing
// text. The wrapped Err carries internal detail for server-side logs
// only and is never returned to the caller.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (ERR_AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("ERR_AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("ERR_AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("ERR_AUTH_003", "Username already exists", http.StatusConflict)
}

// ---- Validation (ERR_VALIDATION) ----

// Validation returns a structural-validation error with a safe message.
func Validation(message string) *AppError {
	return New("ERR_VALIDATION_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("ERR_VALIDATION_002", "Invalid amount", http.StatusBadRequest)
}

// ---- Balance (ERR_BALANCE) ----

// ErrInsufficientBalance is surfaced generically so repeated requests
// cannot probe the exact balance of a wallet.
func ErrInsufficientBalance() *AppError {
	return New("ERR_BALANCE_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrWalletNotFound() *AppError {
	return New("ERR_BALANCE_002", "Wallet not found", http.StatusNotFound)
}

// ---- Loan state (ERR_STATE) ----

func ErrInvalidLoanState() *AppError {
	return New("ERR_STATE_001", "Loan is not in a valid state for this operation", http.StatusConflict)
}

func ErrLoanNotFound() *AppError {
	return New("ERR_STATE_002", "Loan not found", http.StatusNotFound)
}

func ErrNotLoanParty() *AppError {
	return New("ERR_STATE_003", "Not permitted for this loan", http.StatusForbidden)
}

// ---- Vault (ERR_VAULT) ----

func ErrVaultNotFound() *AppError {
	return New("ERR_VAULT_001", "Vault not found", http.StatusNotFound)
}

func ErrCollateralExceedsVault() *AppError {
	return New("ERR_VAULT_002", "Collateral would exceed vault balance", http.StatusConflict)
}

// ---- Reserve ratio (ERR_RESERVE) ----

// ErrCircuitBreakerActive is returned for every new lending offer while
// system reserves fall below 100% of outstanding obligations.
func ErrCircuitBreakerActive() *AppError {
	return New("ERR_RESERVE_001", "New lending is temporarily suspended", http.StatusServiceUnavailable)
}

// ---- Rate Limiting (ERR_RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("ERR_RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (ERR_SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("ERR_SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("ERR_SYS_002", "Operation timed out, please retry", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a generic system error.
func InternalError(err error) *AppError {
	return Wrap("ERR_SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
