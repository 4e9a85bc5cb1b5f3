package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vault is a user's optional interest-bearing store. Frozen collateral
// stays inside TotalBalance (it keeps accruing yield); only the
// available portion may be withdrawn.
type Vault struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	TotalBalance     int64      `json:"total_balance"`
	FrozenCollateral int64      `json:"frozen_collateral"`
	LastYieldOn      *time.Time `json:"last_yield_on,omitempty"` // calendar day of last accrual
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Available returns the withdrawable portion of the vault.
func (v *Vault) Available() int64 {
	return v.TotalBalance - v.FrozenCollateral
}

// CanWithdraw reports whether amount fits within the available balance.
func (v *Vault) CanWithdraw(amount int64) bool {
	return amount > 0 && amount <= v.Available()
}

// CanFreeze reports whether amount more collateral fits under TotalBalance.
func (v *Vault) CanFreeze(amount int64) bool {
	return amount > 0 && v.FrozenCollateral+amount <= v.TotalBalance
}

// AccruedOn reports whether yield was already credited for the given
// calendar day. Guards the accrual job against double-crediting on re-run.
func (v *Vault) AccruedOn(day time.Time) bool {
	if v.LastYieldOn == nil {
		return false
	}
	y1, m1, d1 := v.LastYieldOn.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ComputeYield returns one day's yield on a vault balance at the given
// daily rate, rounded down to whole Alpha.
func ComputeYield(balance int64, dailyRate decimal.Decimal) int64 {
	return decimal.NewFromInt(balance).Mul(dailyRate).Floor().IntPart()
}

// VaultTransactionType names a vault-affecting event.
type VaultTransactionType string

const (
	VaultTxDeposit     VaultTransactionType = "DEPOSIT"
	VaultTxWithdraw    VaultTransactionType = "WITHDRAW"
	VaultTxYield       VaultTransactionType = "YIELD"
	VaultTxFreeze      VaultTransactionType = "FREEZE"
	VaultTxUnfreeze    VaultTransactionType = "UNFREEZE"
	VaultTxLiquidation VaultTransactionType = "LIQUIDATION"
	VaultTxCommission  VaultTransactionType = "COMMISSION"
	VaultTxTaskReward  VaultTransactionType = "TASK_REWARD"
)

// VaultTransaction is an immutable log entry for a vault event. Amount
// is always non-negative; the type carries the direction, matching the
// CHECK constraint on the vault_transactions table.
type VaultTransaction struct {
	ID        uuid.UUID            `json:"id"`
	VaultID   uuid.UUID            `json:"vault_id"`
	Type      VaultTransactionType `json:"tx_type"`
	Amount    int64                `json:"amount"`
	CreatedAt time.Time            `json:"created_at"`
}
