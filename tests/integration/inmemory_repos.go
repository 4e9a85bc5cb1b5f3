package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"alpha-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = *w
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *inMemoryWalletRepo) GetByUserAndType(ctx context.Context, userID uuid.UUID, wt domain.WalletType) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.UserID == userID && w.Type == wt {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Wallet
	for _, w := range r.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) GetByUserAndTypeForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, wt domain.WalletType) (*domain.Wallet, error) {
	return r.GetByUserAndType(ctx, userID, wt)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = newBalance
	w.UpdatedAt = time.Now().UTC()
	r.wallets[walletID] = w
	return nil
}

// totalBalance sums every wallet, for conservation checks.
func (r *inMemoryWalletRepo) totalBalance() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, w := range r.wallets {
		total += w.Balance
	}
	return total
}

// --- In-Memory Wallet Ledger ---

type inMemoryWalletTxRepo struct {
	mu      sync.RWMutex
	entries []domain.WalletTransaction
}

func newInMemoryWalletTxRepo() *inMemoryWalletTxRepo {
	return &inMemoryWalletTxRepo{}
}

func (r *inMemoryWalletTxRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryWalletTxRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WalletTransaction
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].WalletID == walletID {
			out = append(out, r.entries[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryWalletTxRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, e := range r.entries {
		if e.WalletID == walletID {
			sum += e.Amount
		}
	}
	return sum, nil
}

// --- In-Memory Loan Repo ---

type inMemoryLoanRepo struct {
	mu    sync.RWMutex
	loans map[uuid.UUID]domain.Loan
}

func newInMemoryLoanRepo() *inMemoryLoanRepo {
	return &inMemoryLoanRepo{loans: make(map[uuid.UUID]domain.Loan)}
}

func (r *inMemoryLoanRepo) Create(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[l.ID] = *l
	return nil
}

func (r *inMemoryLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loans[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *inMemoryLoanRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryLoanRepo) Update(ctx context.Context, tx pgx.Tx, l *domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[l.ID]; !ok {
		return fmt.Errorf("loan not found")
	}
	r.loans[l.ID] = *l
	return nil
}

func (r *inMemoryLoanRepo) ListOpen(ctx context.Context, limit, offset int) ([]domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if l.Status == domain.LoanStatusPending {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryLoanRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if l.LenderID == userID || (l.BorrowerID != nil && *l.BorrowerID == userID) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryLoanRepo) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Loan
	for _, l := range r.loans {
		if l.Status == domain.LoanStatusActive && l.DueAt != nil && l.DueAt.Before(asOf) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(*out[j].DueAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Loan Event Log ---

type inMemoryLoanTxRepo struct {
	mu      sync.RWMutex
	entries []domain.LoanTransaction
}

func newInMemoryLoanTxRepo() *inMemoryLoanTxRepo {
	return &inMemoryLoanTxRepo{}
}

func (r *inMemoryLoanTxRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LoanTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryLoanTxRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.LoanTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.LoanTransaction
	for _, e := range r.entries {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- In-Memory Vault Repo ---

type inMemoryVaultRepo struct {
	mu     sync.RWMutex
	vaults map[uuid.UUID]domain.Vault
}

func newInMemoryVaultRepo() *inMemoryVaultRepo {
	return &inMemoryVaultRepo{vaults: make(map[uuid.UUID]domain.Vault)}
}

func (r *inMemoryVaultRepo) Create(ctx context.Context, v *domain.Vault) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vaults[v.ID] = *v
	return nil
}

func (r *inMemoryVaultRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Vault, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.vaults {
		if v.UserID == userID {
			v := v
			return &v, nil
		}
	}
	return nil, nil
}

func (r *inMemoryVaultRepo) GetByUserForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Vault, error) {
	return r.GetByUser(ctx, userID)
}

func (r *inMemoryVaultRepo) Update(ctx context.Context, tx pgx.Tx, v *domain.Vault) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vaults[v.ID]; !ok {
		return fmt.Errorf("vault not found")
	}
	r.vaults[v.ID] = *v
	return nil
}

func (r *inMemoryVaultRepo) ListEligibleForYield(ctx context.Context, threshold int64, day time.Time, limit int) ([]domain.Vault, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Vault
	for _, v := range r.vaults {
		if v.TotalBalance >= threshold && !v.AccruedOn(day) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Vault Event Log ---

type inMemoryVaultTxRepo struct {
	mu      sync.RWMutex
	entries []domain.VaultTransaction
}

func newInMemoryVaultTxRepo() *inMemoryVaultTxRepo {
	return &inMemoryVaultTxRepo{}
}

func (r *inMemoryVaultTxRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.VaultTransaction) error {
	// The vault_transactions table rejects negative amounts; direction
	// lives in the type column. Enforce the same rule here.
	if e.Amount < 0 {
		return fmt.Errorf("vault transaction amount %d violates amount >= 0", e.Amount)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryVaultTxRepo) ListByVault(ctx context.Context, vaultID uuid.UUID, limit, offset int) ([]domain.VaultTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.VaultTransaction
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].VaultID == vaultID {
			out = append(out, r.entries[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// --- In-Memory Reserve Repo ---

// inMemoryReserveRepo derives the aggregates from the live vault and
// loan stores.
type inMemoryReserveRepo struct {
	vaults *inMemoryVaultRepo
	loans  *inMemoryLoanRepo
}

func newInMemoryReserveRepo(vaults *inMemoryVaultRepo, loans *inMemoryLoanRepo) *inMemoryReserveRepo {
	return &inMemoryReserveRepo{vaults: vaults, loans: loans}
}

func (r *inMemoryReserveRepo) TotalVaultReserves(ctx context.Context) (int64, error) {
	r.vaults.mu.RLock()
	defer r.vaults.mu.RUnlock()
	var total int64
	for _, v := range r.vaults.vaults {
		total += v.TotalBalance
	}
	return total, nil
}

func (r *inMemoryReserveRepo) TotalActiveObligations(ctx context.Context) (int64, error) {
	r.loans.mu.RLock()
	defer r.loans.mu.RUnlock()
	var total int64
	for _, l := range r.loans.loans {
		if l.Status == domain.LoanStatusActive {
			total += l.TotalRepayment
		}
	}
	return total, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a single mutex so
// check-and-set sequences behave like row locking: the second of two
// racing transactions observes the first one's writes.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: &t.mu}, nil
}

// memTx is a pgx.Tx stand-in that releases the transactor lock on
// Commit or Rollback, whichever comes first.
type memTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *memTx) done() {
	t.once.Do(t.release.Unlock)
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
