package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle state of a P2P loan.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"   // offer posted, principal in escrow
	LoanStatusActive    LoanStatus = "ACTIVE"    // taken by a borrower, repayment due
	LoanStatusRepaid    LoanStatus = "REPAID"    // settled in full
	LoanStatusDefaulted LoanStatus = "DEFAULTED" // unpaid past due date
	LoanStatusCancelled LoanStatus = "CANCELLED" // withdrawn by the lender before acceptance
)

// loanTransitions is the only set of permitted status changes:
// pending -> {active, cancelled}; active -> {repaid, defaulted}.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending: {LoanStatusActive, LoanStatusCancelled},
	LoanStatusActive:  {LoanStatusRepaid, LoanStatusDefaulted},
}

// Loan represents one peer-to-peer credit instrument.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	LenderID         uuid.UUID       `json:"lender_id"`
	BorrowerID       *uuid.UUID      `json:"borrower_id,omitempty"` // nil until taken
	Principal        int64           `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"` // fixed per term, e.g. 0.03
	InterestAmount   int64           `json:"interest_amount"`
	TotalRepayment   int64           `json:"total_repayment"`
	TermDays         int             `json:"term_days"`
	Status           LoanStatus      `json:"status"`
	EscrowWalletID   uuid.UUID       `json:"escrow_wallet_id"`
	CollateralAmount int64           `json:"collateral_amount"` // frozen vault collateral, 0 if unsecured
	CreatedAt        time.Time       `json:"created_at"`
	AcceptedAt       *time.Time      `json:"accepted_at,omitempty"`
	DueAt            *time.Time      `json:"due_at,omitempty"`
	RepaidAt         *time.Time      `json:"repaid_at,omitempty"`
}

// CanTransitionTo reports whether the state machine permits moving the
// loan from its current status to the target status.
func (l *Loan) CanTransitionTo(target LoanStatus) bool {
	for _, s := range loanTransitions[l.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the loan has exited the state machine.
func (l *Loan) IsTerminal() bool {
	return l.Status == LoanStatusRepaid ||
		l.Status == LoanStatusDefaulted ||
		l.Status == LoanStatusCancelled
}

// IsOverdue reports whether an active loan is past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanStatusActive && l.DueAt != nil && now.After(*l.DueAt)
}

// IsSecured reports whether vault collateral backs the loan.
func (l *Loan) IsSecured() bool {
	return l.CollateralAmount > 0
}

// ComputeInterest returns the interest owed on a principal at the given
// rate, rounded down to whole Alpha.
func ComputeInterest(principal int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(principal).Mul(rate).Floor().IntPart()
}

// LoanTransactionType names an escrow or settlement movement tied to a loan.
type LoanTransactionType string

const (
	LoanTxEscrowLock        LoanTransactionType = "ESCROW_LOCK"
	LoanTxEscrowRelease     LoanTransactionType = "ESCROW_RELEASE"
	LoanTxRepayment         LoanTransactionType = "REPAYMENT"
	LoanTxRefund            LoanTransactionType = "REFUND"
	LoanTxCollateralFreeze  LoanTransactionType = "COLLATERAL_FREEZE"
	LoanTxCollateralRelease LoanTransactionType = "COLLATERAL_RELEASE"
	LoanTxLiquidation       LoanTransactionType = "LIQUIDATION"
	LoanTxWriteOff          LoanTransactionType = "WRITE_OFF"
)

// LoanTransaction is an immutable log entry tied to a loan. Same
// append-only contract as WalletTransaction.
type LoanTransaction struct {
	ID           uuid.UUID           `json:"id"`
	LoanID       uuid.UUID           `json:"loan_id"`
	Type         LoanTransactionType `json:"tx_type"`
	Amount       int64               `json:"amount"`
	FromWalletID *uuid.UUID          `json:"from_wallet_id,omitempty"`
	ToWalletID   *uuid.UUID          `json:"to_wallet_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}
