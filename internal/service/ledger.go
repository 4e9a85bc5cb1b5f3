package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// lockWalletPair locks two wallet rows FOR UPDATE in ascending-UUID
// order and returns them keyed back to the caller's (a, b) arguments.
// Concurrent opposite-direction transfers acquire locks in the same
// order, so they can never deadlock against each other.
func lockWalletPair(ctx context.Context, tx pgx.Tx, repo ports.WalletRepository, aID, bID uuid.UUID) (a, b *domain.Wallet, err error) {
	firstID, secondID := domain.WalletLockOrder(aID, bID)

	first, err := repo.GetByIDForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock wallet %s: %w", firstID, err)
	}
	if first == nil {
		return nil, nil, fmt.Errorf("wallet %s not found", firstID)
	}
	second, err := repo.GetByIDForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock wallet %s: %w", secondID, err)
	}
	if second == nil {
		return nil, nil, fmt.Errorf("wallet %s not found", secondID)
	}

	if firstID == aID {
		return first, second, nil
	}
	return second, first, nil
}

// lockWallets locks any number of wallet rows FOR UPDATE in
// ascending-UUID order and returns them keyed by ID. Same deadlock
// rationale as lockWalletPair.
func lockWallets(ctx context.Context, tx pgx.Tx, repo ports.WalletRepository, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	ordered := make([]uuid.UUID, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	wallets := make(map[uuid.UUID]*domain.Wallet, len(ordered))
	for _, id := range ordered {
		if _, done := wallets[id]; done {
			continue
		}
		w, err := repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lock wallet %s: %w", id, err)
		}
		if w == nil {
			return nil, fmt.Errorf("wallet %s not found", id)
		}
		wallets[id] = w
	}
	return wallets, nil
}

// moveFunds debits `from` and credits `to` by amount inside the given
// transaction and writes the paired ledger entries. Both wallets must
// already be locked. The wallet structs are mutated to their new
// balances so callers can report them without re-reading. Returns the
// debit-side entry, which identifies the movement.
func moveFunds(
	ctx context.Context,
	tx pgx.Tx,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.WalletTransactionRepository,
	from, to *domain.Wallet,
	amount int64,
	txType domain.WalletTransactionType,
	description string,
) (*domain.WalletTransaction, error) {
	from.Balance -= amount
	to.Balance += amount

	if err := walletRepo.UpdateBalance(ctx, tx, from.ID, from.Balance); err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if err := walletRepo.UpdateBalance(ctx, tx, to.ID, to.Balance); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	now := time.Now().UTC()
	debit := &domain.WalletTransaction{
		ID:                   uuid.New(),
		WalletID:             from.ID,
		CounterpartyWalletID: &to.ID,
		Amount:               -amount,
		Type:                 txType,
		Description:          description,
		CreatedAt:            now,
	}
	if err := ledgerRepo.Create(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("write debit entry: %w", err)
	}

	credit := &domain.WalletTransaction{
		ID:                   uuid.New(),
		WalletID:             to.ID,
		CounterpartyWalletID: &from.ID,
		Amount:               amount,
		Type:                 txType,
		Description:          description,
		CreatedAt:            now,
	}
	if err := ledgerRepo.Create(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("write credit entry: %w", err)
	}

	return debit, nil
}
