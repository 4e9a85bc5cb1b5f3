package service

import (
	"context"
	"fmt"

	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService via the atomic
// transfer procedure: lock both wallet rows in ascending-UUID order,
// move the balance, append paired ledger entries, commit.
type TransferServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.WalletTransactionRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.WalletTransactionRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// TransferOwnWallets moves value between two wallets of the same user.
func (s *TransferServiceImpl) TransferOwnWallets(ctx context.Context, userID uuid.UUID, from, to domain.WalletType, amount int64) (*ports.TransferResult, error) {
	if from == to {
		return nil, apperror.Validation("source and destination wallets must differ")
	}

	fromWallet, err := s.walletRepo.GetByUserAndType(ctx, userID, from)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve source wallet: %w", err))
	}
	toWallet, err := s.walletRepo.GetByUserAndType(ctx, userID, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve destination wallet: %w", err))
	}
	if fromWallet == nil || toWallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	desc := fmt.Sprintf("%s -> %s", from, to)
	return s.transfer(ctx, fromWallet.ID, toWallet.ID, amount, desc)
}

// TransferToUser moves value from the sender's main wallet to the
// recipient's main wallet.
func (s *TransferServiceImpl) TransferToUser(ctx context.Context, senderID, recipientID uuid.UUID, amount int64, note string) (*ports.TransferResult, error) {
	if senderID == recipientID {
		return nil, apperror.Validation("cannot transfer to yourself")
	}

	fromWallet, err := s.walletRepo.GetByUserAndType(ctx, senderID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve sender wallet: %w", err))
	}
	toWallet, err := s.walletRepo.GetByUserAndType(ctx, recipientID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve recipient wallet: %w", err))
	}
	if fromWallet == nil || toWallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	return s.transfer(ctx, fromWallet.ID, toWallet.ID, amount, note)
}

// transfer executes the atomic transfer between two wallet rows.
// All-or-nothing: any failure rolls the whole movement back.
func (s *TransferServiceImpl) transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, note string) (*ports.TransferResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	fromWallet, toWallet, err := lockWalletPair(ctx, dbTx, s.walletRepo, fromID, toID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallets: %w", err))
	}

	if !fromWallet.CanCover(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	entry, err := moveFunds(ctx, dbTx, s.walletRepo, s.ledgerRepo, fromWallet, toWallet, amount, domain.WalletTxTransfer, note)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", entry.ID.String()).
		Str("from_wallet", fromWallet.ID.String()).
		Str("to_wallet", toWallet.ID.String()).
		Int64("amount", amount).
		Msg("transfer completed")

	return &ports.TransferResult{
		TransactionID:  entry.ID,
		FromWalletID:   fromWallet.ID,
		ToWalletID:     toWallet.ID,
		FromNewBalance: fromWallet.Balance,
		ToNewBalance:   toWallet.Balance,
	}, nil
}

// ListWallets returns every wallet of the user.
func (s *TransferServiceImpl) ListWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}

// ListTransactions returns a page of the ledger for one wallet of the user.
func (s *TransferServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, wt domain.WalletType, limit, offset int) ([]domain.WalletTransaction, error) {
	wallet, err := s.walletRepo.GetByUserAndType(ctx, userID, wt)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	entries, err := s.ledgerRepo.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return entries, nil
}
