package service

import (
	"context"
	"fmt"
	"time"

	"alpha-ledger/config"
	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LendingServiceImpl implements ports.LendingService: the loan offer
// marketplace and its state machine.
//
// Lock ordering inside every transaction: loan row first, then wallet
// rows in ascending-UUID order, then the vault row. All loan flows hold
// this ordering.
type LendingServiceImpl struct {
	loanRepo    ports.LoanRepository
	loanTxRepo  ports.LoanTransactionRepository
	walletRepo  ports.WalletRepository
	ledgerRepo  ports.WalletTransactionRepository
	vaultRepo   ports.VaultRepository
	vaultTxRepo ports.VaultTransactionRepository
	reserve     ports.ReserveMonitor
	transactor  ports.DBTransactor
	cfg         config.LendingConfig
	sweepBatch  int
	log         zerolog.Logger
}

// NewLendingService creates a new LendingServiceImpl.
func NewLendingService(
	loanRepo ports.LoanRepository,
	loanTxRepo ports.LoanTransactionRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.WalletTransactionRepository,
	vaultRepo ports.VaultRepository,
	vaultTxRepo ports.VaultTransactionRepository,
	reserve ports.ReserveMonitor,
	transactor ports.DBTransactor,
	cfg config.LendingConfig,
	sweepBatch int,
	log zerolog.Logger,
) *LendingServiceImpl {
	if sweepBatch <= 0 {
		sweepBatch = 100
	}
	return &LendingServiceImpl{
		loanRepo:    loanRepo,
		loanTxRepo:  loanTxRepo,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		vaultRepo:   vaultRepo,
		vaultTxRepo: vaultTxRepo,
		reserve:     reserve,
		transactor:  transactor,
		cfg:         cfg,
		sweepBatch:  sweepBatch,
		log:         log,
	}
}

// PostOffer escrows the lender's principal and publishes a pending
// loan offer. Refused outright while the reserve circuit breaker is
// active; the ratio is recomputed on every call.
func (s *LendingServiceImpl) PostOffer(ctx context.Context, lenderID uuid.UUID, principal int64, termDays int) (*domain.Loan, error) {
	if principal < s.cfg.MinPrincipal || principal > s.cfg.MaxPrincipal {
		return nil, apperror.Validation(fmt.Sprintf("principal must be between %d and %d", s.cfg.MinPrincipal, s.cfg.MaxPrincipal))
	}
	rate, ok := s.cfg.RateForTerm(termDays)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("unsupported term: %d days", termDays))
	}

	status, err := s.reserve.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if status.LendingHalted {
		return nil, apperror.ErrCircuitBreakerActive()
	}

	lenderMain, err := s.walletRepo.GetByUserAndType(ctx, lenderID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve lender wallet: %w", err))
	}
	escrow, err := s.escrowWallet(ctx)
	if err != nil {
		return nil, err
	}
	if lenderMain == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	rateDec := decimal.NewFromFloat(rate)
	interest := domain.ComputeInterest(principal, rateDec)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	lenderMain, escrow, err = lockWalletPair(ctx, dbTx, s.walletRepo, lenderMain.ID, escrow.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallets: %w", err))
	}
	if !lenderMain.CanCover(principal) {
		return nil, apperror.ErrInsufficientBalance()
	}

	if _, err := moveFunds(ctx, dbTx, s.walletRepo, s.ledgerRepo, lenderMain, escrow, principal, domain.WalletTxEscrowLock, "loan offer escrow"); err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:             uuid.New(),
		LenderID:       lenderID,
		Principal:      principal,
		InterestRate:   rateDec,
		InterestAmount: interest,
		TotalRepayment: principal + interest,
		TermDays:       termDays,
		Status:         domain.LoanStatusPending,
		EscrowWalletID: escrow.ID,
		CreatedAt:      now,
	}
	if err := s.loanRepo.Create(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create loan: %w", err))
	}

	if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Type:         domain.LoanTxEscrowLock,
		Amount:       principal,
		FromWalletID: &lenderMain.ID,
		ToWalletID:   &escrow.ID,
		CreatedAt:    now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Str("lender_id", lenderID.String()).
		Int64("principal", principal).
		Int("term_days", termDays).
		Msg("loan offer posted")

	return loan, nil
}

// CancelOffer withdraws a pending offer and refunds the escrowed
// principal to the lender, restoring the exact pre-offer balance.
func (s *LendingServiceImpl) CancelOffer(ctx context.Context, lenderID, loanID uuid.UUID) (*ports.CancelResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loanRepo.GetByIDForUpdate(ctx, dbTx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrLoanNotFound()
	}
	if loan.LenderID != lenderID {
		return nil, apperror.ErrNotLoanParty()
	}
	if !loan.CanTransitionTo(domain.LoanStatusCancelled) {
		return nil, apperror.ErrInvalidLoanState()
	}

	lenderMain, err := s.walletRepo.GetByUserAndType(ctx, lenderID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve lender wallet: %w", err))
	}
	if lenderMain == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	escrow, lenderMain, err := lockWalletPair(ctx, dbTx, s.walletRepo, loan.EscrowWalletID, lenderMain.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallets: %w", err))
	}

	if _, err := moveFunds(ctx, dbTx, s.walletRepo, s.ledgerRepo, escrow, lenderMain, loan.Principal, domain.WalletTxEscrowRefund, "loan offer cancelled"); err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	loan.Status = domain.LoanStatusCancelled
	if err := s.loanRepo.Update(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update loan: %w", err))
	}

	if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Type:         domain.LoanTxRefund,
		Amount:       loan.Principal,
		FromWalletID: &escrow.ID,
		ToWalletID:   &lenderMain.ID,
		CreatedAt:    now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Int64("refunded", loan.Principal).
		Msg("loan offer cancelled")

	return &ports.CancelResult{
		Loan:           loan,
		RefundedAmount: loan.Principal,
		NewMainBalance: lenderMain.Balance,
	}, nil
}

// TakeOffer accepts a pending offer: the escrowed principal is
// disbursed to the borrower's main wallet and the repayment clock
// starts. The loan row is locked for the check-and-set, so of any
// number of concurrent takers exactly one wins; the rest see the loan
// already active.
func (s *LendingServiceImpl) TakeOffer(ctx context.Context, borrowerID, loanID uuid.UUID) (*domain.Loan, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loanRepo.GetByIDForUpdate(ctx, dbTx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrLoanNotFound()
	}
	if loan.LenderID == borrowerID {
		return nil, apperror.ErrNotLoanParty()
	}
	if !loan.CanTransitionTo(domain.LoanStatusActive) {
		return nil, apperror.ErrInvalidLoanState()
	}

	borrowerMain, err := s.walletRepo.GetByUserAndType(ctx, borrowerID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve borrower wallet: %w", err))
	}
	if borrowerMain == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	escrow, borrowerMain, err := lockWalletPair(ctx, dbTx, s.walletRepo, loan.EscrowWalletID, borrowerMain.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallets: %w", err))
	}

	if _, err := moveFunds(ctx, dbTx, s.walletRepo, s.ledgerRepo, escrow, borrowerMain, loan.Principal, domain.WalletTxLoanDisbursement, "loan disbursement"); err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()

	if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Type:         domain.LoanTxEscrowRelease,
		Amount:       loan.Principal,
		FromWalletID: &escrow.ID,
		ToWalletID:   &borrowerMain.ID,
		CreatedAt:    now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
	}

	// Secure the loan when the borrower's vault can cover the full
	// repayment. The collateral stays in the vault (and keeps earning
	// yield) but cannot be withdrawn while the loan is active.
	vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, borrowerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock vault: %w", err))
	}
	if vault != nil && vault.Available() >= loan.TotalRepayment {
		vault.FrozenCollateral += loan.TotalRepayment
		if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("freeze collateral: %w", err))
		}
		if err := s.vaultTxRepo.Create(ctx, dbTx, &domain.VaultTransaction{
			ID:        uuid.New(),
			VaultID:   vault.ID,
			Type:      domain.VaultTxFreeze,
			Amount:    loan.TotalRepayment,
			CreatedAt: now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write vault entry: %w", err))
		}
		if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
			ID:        uuid.New(),
			LoanID:    loan.ID,
			Type:      domain.LoanTxCollateralFreeze,
			Amount:    loan.TotalRepayment,
			CreatedAt: now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
		}
		loan.CollateralAmount = loan.TotalRepayment
	}

	dueAt := now.Add(time.Duration(loan.TermDays) * 24 * time.Hour)
	loan.BorrowerID = &borrowerID
	loan.AcceptedAt = &now
	loan.DueAt = &dueAt
	loan.Status = domain.LoanStatusActive
	if err := s.loanRepo.Update(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update loan: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Str("borrower_id", borrowerID.String()).
		Int64("collateral", loan.CollateralAmount).
		Time("due_at", dueAt).
		Msg("loan offer taken")

	return loan, nil
}

// Repay settles an active loan in full. No partial repayment: the
// borrower either covers principal plus interest or the call fails and
// the ledger is untouched. With auto-deduct the repayment drains the
// borrower's wallets in task, royalty, main order; otherwise only the
// main wallet funds it.
func (s *LendingServiceImpl) Repay(ctx context.Context, borrowerID, loanID uuid.UUID, useAutoDeduct bool) (*ports.RepayResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loanRepo.GetByIDForUpdate(ctx, dbTx, loanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock loan: %w", err))
	}
	if loan == nil {
		return nil, apperror.ErrLoanNotFound()
	}
	if loan.BorrowerID == nil || *loan.BorrowerID != borrowerID {
		return nil, apperror.ErrNotLoanParty()
	}
	if !loan.CanTransitionTo(domain.LoanStatusRepaid) {
		return nil, apperror.ErrInvalidLoanState()
	}

	sources := []domain.WalletType{domain.WalletTypeMain}
	if useAutoDeduct {
		sources = domain.AutoDeductOrder
	}

	funding := make([]*domain.Wallet, 0, len(sources))
	lockIDs := make([]uuid.UUID, 0, len(sources)+2)
	for _, wt := range sources {
		w, err := s.walletRepo.GetByUserAndType(ctx, borrowerID, wt)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("resolve %s wallet: %w", wt, err))
		}
		if w == nil {
			return nil, apperror.ErrWalletNotFound()
		}
		funding = append(funding, w)
		lockIDs = append(lockIDs, w.ID)
	}

	lenderMain, err := s.walletRepo.GetByUserAndType(ctx, loan.LenderID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve lender wallet: %w", err))
	}
	feeSink, err := s.feeSinkWallet(ctx)
	if err != nil {
		return nil, err
	}
	if lenderMain == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	lockIDs = append(lockIDs, lenderMain.ID, feeSink.ID)

	locked, err := lockWallets(ctx, dbTx, s.walletRepo, lockIDs...)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallets: %w", err))
	}
	for i := range funding {
		funding[i] = locked[funding[i].ID]
	}
	lenderMain = locked[lenderMain.ID]
	feeSink = locked[feeSink.ID]

	total := loan.TotalRepayment
	var available int64
	for _, w := range funding {
		available += w.Balance
	}
	if available < total {
		return nil, apperror.ErrInsufficientBalance()
	}

	borrowerMain := funding[len(funding)-1]
	now := time.Now().UTC()

	// Drain the funding wallets in order.
	remaining := total
	for _, w := range funding {
		if remaining == 0 {
			break
		}
		draw := w.Balance
		if draw > remaining {
			draw = remaining
		}
		if draw == 0 {
			continue
		}
		w.Balance -= draw
		remaining -= draw
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, w.ID, w.Balance); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("debit %s wallet: %w", w.Type, err))
		}
		if err := s.ledgerRepo.Create(ctx, dbTx, &domain.WalletTransaction{
			ID:                   uuid.New(),
			WalletID:             w.ID,
			CounterpartyWalletID: &lenderMain.ID,
			Amount:               -draw,
			Type:                 domain.WalletTxLoanRepayment,
			Description:          "loan repayment",
			CreatedAt:            now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write repayment entry: %w", err))
		}
	}

	// Lender settles at total minus the flat processing fee.
	fee := s.cfg.ProcessingFee
	if fee > total {
		fee = 0
	}
	lenderMain.Balance += total - fee
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, lenderMain.ID, lenderMain.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit lender wallet: %w", err))
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, &domain.WalletTransaction{
		ID:                   uuid.New(),
		WalletID:             lenderMain.ID,
		CounterpartyWalletID: &borrowerMain.ID,
		Amount:               total - fee,
		Type:                 domain.WalletTxLenderSettlement,
		Description:          "loan settled",
		CreatedAt:            now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write settlement entry: %w", err))
	}

	if fee > 0 {
		feeSink.Balance += fee
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, feeSink.ID, feeSink.Balance); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("credit fee sink: %w", err))
		}
		if err := s.ledgerRepo.Create(ctx, dbTx, &domain.WalletTransaction{
			ID:                   uuid.New(),
			WalletID:             feeSink.ID,
			CounterpartyWalletID: &borrowerMain.ID,
			Amount:               fee,
			Type:                 domain.WalletTxFee,
			Description:          "loan processing fee",
			CreatedAt:            now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("write fee entry: %w", err))
		}
	}

	// Release frozen collateral, if any.
	if loan.CollateralAmount > 0 {
		vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, borrowerID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock vault: %w", err))
		}
		if vault != nil {
			vault.FrozenCollateral -= loan.CollateralAmount
			if vault.FrozenCollateral < 0 {
				vault.FrozenCollateral = 0
			}
			if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("release collateral: %w", err))
			}
			if err := s.vaultTxRepo.Create(ctx, dbTx, &domain.VaultTransaction{
				ID:        uuid.New(),
				VaultID:   vault.ID,
				Type:      domain.VaultTxUnfreeze,
				Amount:    loan.CollateralAmount,
				CreatedAt: now,
			}); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("write vault entry: %w", err))
			}
			if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
				ID:        uuid.New(),
				LoanID:    loan.ID,
				Type:      domain.LoanTxCollateralRelease,
				Amount:    loan.CollateralAmount,
				CreatedAt: now,
			}); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
			}
		}
	}

	if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
		ID:           uuid.New(),
		LoanID:       loan.ID,
		Type:         domain.LoanTxRepayment,
		Amount:       total,
		FromWalletID: &borrowerMain.ID,
		ToWalletID:   &lenderMain.ID,
		CreatedAt:    now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write loan entry: %w", err))
	}

	loan.Status = domain.LoanStatusRepaid
	loan.RepaidAt = &now
	if err := s.loanRepo.Update(ctx, dbTx, loan); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update loan: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Int64("amount", total).
		Bool("auto_deduct", useAutoDeduct).
		Msg("loan repaid")

	return &ports.RepayResult{
		Loan:           loan,
		AmountPaid:     total,
		NewMainBalance: borrowerMain.Balance,
	}, nil
}

// ListOpenOffers returns a page of pending offers, newest first.
func (s *LendingServiceImpl) ListOpenOffers(ctx context.Context, limit, offset int) ([]domain.Loan, error) {
	loans, err := s.loanRepo.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list open offers: %w", err))
	}
	return loans, nil
}

// ListUserLoans returns every loan the user participates in.
func (s *LendingServiceImpl) ListUserLoans(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error) {
	loans, err := s.loanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list user loans: %w", err))
	}
	return loans, nil
}

// SweepDefaults marks active loans past their due date as defaulted.
// Secured loans liquidate the frozen collateral to the lender; the rest
// are written off with no transfer. Each loan settles in its own
// transaction with the status re-checked under the row lock, so a
// crashed or concurrent sweep never double-settles. Returns the number
// of loans defaulted.
func (s *LendingServiceImpl) SweepDefaults(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.loanRepo.ListOverdue(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("list overdue loans: %w", err))
	}

	defaulted := 0
	for i := range overdue {
		ok, err := s.defaultOne(ctx, overdue[i].ID, now)
		if err != nil {
			s.log.Error().Err(err).
				Str("loan_id", overdue[i].ID.String()).
				Msg("default sweep failed for loan")
			continue
		}
		if ok {
			defaulted++
		}
	}
	return defaulted, nil
}

func (s *LendingServiceImpl) defaultOne(ctx context.Context, loanID uuid.UUID, now time.Time) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	loan, err := s.loanRepo.GetByIDForUpdate(ctx, dbTx, loanID)
	if err != nil {
		return false, fmt.Errorf("lock loan: %w", err)
	}
	if loan == nil || !loan.IsOverdue(now) || !loan.CanTransitionTo(domain.LoanStatusDefaulted) {
		return false, nil
	}

	ts := time.Now().UTC()

	if loan.IsSecured() && loan.BorrowerID != nil {
		lenderMain, err := s.walletRepo.GetByUserAndType(ctx, loan.LenderID, domain.WalletTypeMain)
		if err != nil {
			return false, fmt.Errorf("resolve lender wallet: %w", err)
		}
		if lenderMain == nil {
			return false, fmt.Errorf("lender main wallet missing for loan %s", loan.ID)
		}
		lenderMain, err = s.walletRepo.GetByIDForUpdate(ctx, dbTx, lenderMain.ID)
		if err != nil {
			return false, fmt.Errorf("lock lender wallet: %w", err)
		}

		vault, err := s.vaultRepo.GetByUserForUpdate(ctx, dbTx, *loan.BorrowerID)
		if err != nil {
			return false, fmt.Errorf("lock vault: %w", err)
		}
		if vault == nil {
			return false, fmt.Errorf("collateral vault missing for loan %s", loan.ID)
		}

		amount := loan.CollateralAmount
		vault.TotalBalance -= amount
		vault.FrozenCollateral -= amount
		if err := s.vaultRepo.Update(ctx, dbTx, vault); err != nil {
			return false, fmt.Errorf("liquidate collateral: %w", err)
		}
		if err := s.vaultTxRepo.Create(ctx, dbTx, &domain.VaultTransaction{
			ID:        uuid.New(),
			VaultID:   vault.ID,
			Type:      domain.VaultTxLiquidation,
			Amount:    amount,
			CreatedAt: ts,
		}); err != nil {
			return false, fmt.Errorf("write vault entry: %w", err)
		}

		lenderMain.Balance += amount
		if err := s.walletRepo.UpdateBalance(ctx, dbTx, lenderMain.ID, lenderMain.Balance); err != nil {
			return false, fmt.Errorf("credit lender wallet: %w", err)
		}
		if err := s.ledgerRepo.Create(ctx, dbTx, &domain.WalletTransaction{
			ID:          uuid.New(),
			WalletID:    lenderMain.ID,
			Amount:      amount,
			Type:        domain.WalletTxCollateralPayout,
			Description: "collateral liquidation",
			CreatedAt:   ts,
		}); err != nil {
			return false, fmt.Errorf("write payout entry: %w", err)
		}

		if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
			ID:         uuid.New(),
			LoanID:     loan.ID,
			Type:       domain.LoanTxLiquidation,
			Amount:     amount,
			ToWalletID: &lenderMain.ID,
			CreatedAt:  ts,
		}); err != nil {
			return false, fmt.Errorf("write loan entry: %w", err)
		}
	} else {
		if err := s.loanTxRepo.Create(ctx, dbTx, &domain.LoanTransaction{
			ID:        uuid.New(),
			LoanID:    loan.ID,
			Type:      domain.LoanTxWriteOff,
			Amount:    loan.TotalRepayment,
			CreatedAt: ts,
		}); err != nil {
			return false, fmt.Errorf("write loan entry: %w", err)
		}
	}

	loan.Status = domain.LoanStatusDefaulted
	if err := s.loanRepo.Update(ctx, dbTx, loan); err != nil {
		return false, fmt.Errorf("update loan: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Warn().
		Str("loan_id", loan.ID.String()).
		Bool("secured", loan.IsSecured()).
		Int64("collateral", loan.CollateralAmount).
		Msg("loan defaulted")

	return true, nil
}

// escrowWallet resolves the single system-owned escrow wallet.
func (s *LendingServiceImpl) escrowWallet(ctx context.Context) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByUserAndType(ctx, domain.SystemUserID, domain.WalletTypeEscrow)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve escrow wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.InternalError(fmt.Errorf("system escrow wallet missing"))
	}
	return w, nil
}

// feeSinkWallet resolves the system main wallet that collects fees.
func (s *LendingServiceImpl) feeSinkWallet(ctx context.Context) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByUserAndType(ctx, domain.SystemUserID, domain.WalletTypeMain)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve fee sink wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.InternalError(fmt.Errorf("system fee wallet missing"))
	}
	return w, nil
}
