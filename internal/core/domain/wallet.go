package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// WalletType tags a wallet with the purpose its funds are earmarked for.
type WalletType string

const (
	WalletTypeTask    WalletType = "TASK"    // task earnings
	WalletTypeRoyalty WalletType = "ROYALTY" // referral royalties
	WalletTypeMain    WalletType = "MAIN"    // general spending
	WalletTypeEscrow  WalletType = "ESCROW"  // system-held loan escrow
)

// UserWalletTypes are the wallet types created for every user at onboarding.
var UserWalletTypes = []WalletType{WalletTypeTask, WalletTypeRoyalty, WalletTypeMain}

// AutoDeductOrder is the funding order used when a repayment draws across
// wallets: task earnings first, then royalties, then general spending.
var AutoDeductOrder = []WalletType{WalletTypeTask, WalletTypeRoyalty, WalletTypeMain}

// ParseWalletType returns the WalletType for a request-supplied string.
func ParseWalletType(s string) (WalletType, bool) {
	switch WalletType(s) {
	case WalletTypeTask, WalletTypeRoyalty, WalletTypeMain:
		return WalletType(s), true
	}
	return "", false
}

// Wallet holds a non-negative Alpha balance for one user and one purpose.
// A user has at most one wallet per type. The balance is a cached value;
// the wallet's transaction log is the source of truth.
type Wallet struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      WalletType `json:"wallet_type"`
	Balance   int64      `json:"balance"` // whole Alpha (₳)
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CanCover reports whether the wallet balance covers the given amount.
func (w *Wallet) CanCover(amount int64) bool {
	return w.Balance >= amount
}

// WalletLockOrder orders wallet IDs ascending by UUID bytes. Every
// multi-wallet operation locks rows in this order to avoid deadlock
// between concurrent opposite-direction transfers.
func WalletLockOrder(a, b uuid.UUID) (first, second uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
