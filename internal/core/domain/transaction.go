package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransactionType names the operation that caused a balance change.
type WalletTransactionType string

const (
	WalletTxTransfer         WalletTransactionType = "TRANSFER"
	WalletTxEscrowLock       WalletTransactionType = "ESCROW_LOCK"
	WalletTxEscrowRelease    WalletTransactionType = "ESCROW_RELEASE"
	WalletTxEscrowRefund     WalletTransactionType = "ESCROW_REFUND"
	WalletTxLoanDisbursement WalletTransactionType = "LOAN_DISBURSEMENT"
	WalletTxLoanRepayment    WalletTransactionType = "LOAN_REPAYMENT"
	WalletTxLenderSettlement WalletTransactionType = "LENDER_SETTLEMENT"
	WalletTxVaultDeposit     WalletTransactionType = "VAULT_DEPOSIT"
	WalletTxVaultWithdrawal  WalletTransactionType = "VAULT_WITHDRAWAL"
	WalletTxCollateralPayout WalletTransactionType = "COLLATERAL_PAYOUT"
	WalletTxFee              WalletTransactionType = "FEE"
)

// WalletTransaction is one immutable, append-only entry in a wallet's
// balance log. Amount is signed: positive credits the wallet, negative
// debits it. The sum of a wallet's entries equals its cached balance.
type WalletTransaction struct {
	ID                   uuid.UUID             `json:"id"`
	WalletID             uuid.UUID             `json:"wallet_id"`
	CounterpartyWalletID *uuid.UUID            `json:"counterparty_wallet_id,omitempty"`
	Amount               int64                 `json:"amount"`
	Type                 WalletTransactionType `json:"transaction_type"`
	Description          string                `json:"description,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
}

// IsCredit reports whether the entry increases the wallet balance.
func (t *WalletTransaction) IsCredit() bool {
	return t.Amount > 0
}
