package dto

import (
	"time"

	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID  string           `json:"user_id"`
	Wallets []WalletResponse `json:"wallets"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// OwnTransferRequest moves value between two wallets of the caller.
type OwnTransferRequest struct {
	FromWalletType string `json:"from_wallet_type" binding:"required,wallet_type"`
	ToWalletType   string `json:"to_wallet_type" binding:"required,wallet_type"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
}

// UserTransferRequest moves value from the caller's main wallet to
// another user's main wallet.
type UserTransferRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Note        string `json:"note" binding:"max=200"`
}

// TransferResponse reports the outcome of a transfer.
type TransferResponse struct {
	TransactionID  string `json:"transaction_id"`
	FromWalletID   string `json:"from_wallet_id"`
	ToWalletID     string `json:"to_wallet_id"`
	FromNewBalance int64  `json:"from_new_balance"`
	ToNewBalance   int64  `json:"to_new_balance"`
}

// PostOfferRequest publishes a loan offer.
type PostOfferRequest struct {
	Principal int64 `json:"principal" binding:"required,gt=0"`
	TermDays  int   `json:"term_days" binding:"required,term_days"`
}

// RepayRequest settles an active loan.
type RepayRequest struct {
	AutoDeduct bool `json:"auto_deduct"`
}

// LoanResponse is the wire shape of a loan.
type LoanResponse struct {
	ID               string  `json:"id"`
	LenderID         string  `json:"lender_id"`
	BorrowerID       *string `json:"borrower_id,omitempty"`
	Principal        int64   `json:"principal"`
	InterestRate     string  `json:"interest_rate"`
	InterestAmount   int64   `json:"interest_amount"`
	TotalRepayment   int64   `json:"total_repayment"`
	TermDays         int     `json:"term_days"`
	Status           string  `json:"status"`
	CollateralAmount int64   `json:"collateral_amount"`
	CreatedAt        string  `json:"created_at"`
	AcceptedAt       *string `json:"accepted_at,omitempty"`
	DueAt            *string `json:"due_at,omitempty"`
	RepaidAt         *string `json:"repaid_at,omitempty"`
}

// VaultMutationRequest is the body of a deposit or withdrawal.
type VaultMutationRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// VaultResponse is the wire shape of a vault.
type VaultResponse struct {
	ID               string `json:"id"`
	TotalBalance     int64  `json:"total_balance"`
	FrozenCollateral int64  `json:"frozen_collateral"`
	Available        int64  `json:"available"`
	LastYieldOn      string `json:"last_yield_on,omitempty"`
}

// WalletResponse is the wire shape of a wallet.
type WalletResponse struct {
	ID         string `json:"id"`
	WalletType string `json:"wallet_type"`
	Balance    int64  `json:"balance"`
}

// WalletTransactionResponse is one ledger entry.
type WalletTransactionResponse struct {
	ID                   string  `json:"id"`
	WalletID             string  `json:"wallet_id"`
	CounterpartyWalletID *string `json:"counterparty_wallet_id,omitempty"`
	Amount               int64   `json:"amount"`
	TransactionType      string  `json:"transaction_type"`
	Description          string  `json:"description,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

// VaultTransactionResponse is one vault event.
type VaultTransactionResponse struct {
	ID        string `json:"id"`
	TxType    string `json:"tx_type"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// ---- mapping helpers ----

// FromWallet maps a domain wallet to its wire shape.
func FromWallet(w domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:         w.ID.String(),
		WalletType: string(w.Type),
		Balance:    w.Balance,
	}
}

// FromWallets maps a slice of domain wallets.
func FromWallets(ws []domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWallet(w))
	}
	return out
}

// FromTransferResult maps a transfer outcome.
func FromTransferResult(r *ports.TransferResult) TransferResponse {
	return TransferResponse{
		TransactionID:  r.TransactionID.String(),
		FromWalletID:   r.FromWalletID.String(),
		ToWalletID:     r.ToWalletID.String(),
		FromNewBalance: r.FromNewBalance,
		ToNewBalance:   r.ToNewBalance,
	}
}

// FromLoan maps a domain loan to its wire shape.
func FromLoan(l *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:               l.ID.String(),
		LenderID:         l.LenderID.String(),
		Principal:        l.Principal,
		InterestRate:     l.InterestRate.String(),
		InterestAmount:   l.InterestAmount,
		TotalRepayment:   l.TotalRepayment,
		TermDays:         l.TermDays,
		Status:           string(l.Status),
		CollateralAmount: l.CollateralAmount,
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
	}
	if l.BorrowerID != nil {
		s := l.BorrowerID.String()
		resp.BorrowerID = &s
	}
	resp.AcceptedAt = formatTimePtr(l.AcceptedAt)
	resp.DueAt = formatTimePtr(l.DueAt)
	resp.RepaidAt = formatTimePtr(l.RepaidAt)
	return resp
}

// FromLoans maps a slice of domain loans.
func FromLoans(ls []domain.Loan) []LoanResponse {
	out := make([]LoanResponse, 0, len(ls))
	for i := range ls {
		out = append(out, FromLoan(&ls[i]))
	}
	return out
}

// FromVault maps a domain vault to its wire shape.
func FromVault(v *domain.Vault) VaultResponse {
	resp := VaultResponse{
		ID:               v.ID.String(),
		TotalBalance:     v.TotalBalance,
		FrozenCollateral: v.FrozenCollateral,
		Available:        v.Available(),
	}
	if v.LastYieldOn != nil {
		resp.LastYieldOn = v.LastYieldOn.UTC().Format("2006-01-02")
	}
	return resp
}

// FromWalletTransaction maps one ledger entry.
func FromWalletTransaction(t domain.WalletTransaction) WalletTransactionResponse {
	resp := WalletTransactionResponse{
		ID:              t.ID.String(),
		WalletID:        t.WalletID.String(),
		Amount:          t.Amount,
		TransactionType: string(t.Type),
		Description:     t.Description,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.CounterpartyWalletID != nil {
		s := t.CounterpartyWalletID.String()
		resp.CounterpartyWalletID = &s
	}
	return resp
}

// FromWalletTransactions maps a slice of ledger entries.
func FromWalletTransactions(ts []domain.WalletTransaction) []WalletTransactionResponse {
	out := make([]WalletTransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromWalletTransaction(t))
	}
	return out
}

// FromVaultTransactions maps a slice of vault events.
func FromVaultTransactions(ts []domain.VaultTransaction) []VaultTransactionResponse {
	out := make([]VaultTransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, VaultTransactionResponse{
			ID:        t.ID.String(),
			TxType:    string(t.Type),
			Amount:    t.Amount,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
