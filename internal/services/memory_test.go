package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/errs"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// memDB is an in-memory stand-in for the Postgres stores. Transactions are
// serialized and roll back by restoring a snapshot.
type memDB struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	accounts    map[uuid.UUID]models.WalletAccount
	entries     []models.WalletEntry
	withdrawals map[uuid.UUID]models.WithdrawalRequest
}

func newMemDB() *memDB {
	return &memDB{
		accounts:    make(map[uuid.UUID]models.WalletAccount),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest),
	}
}

type memSnapshot struct {
	accounts    map[uuid.UUID]models.WalletAccount
	entries     []models.WalletEntry
	withdrawals map[uuid.UUID]models.WithdrawalRequest
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := memSnapshot{
		accounts:    make(map[uuid.UUID]models.WalletAccount, len(db.accounts)),
		entries:     append([]models.WalletEntry(nil), db.entries...),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest, len(db.withdrawals)),
	}
	for k, v := range db.accounts {
		s.accounts[k] = v
	}
	for k, v := range db.withdrawals {
		s.withdrawals[k] = v
	}
	return s
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.accounts, db.entries, db.withdrawals = s.accounts, s.entries, s.withdrawals
}

func (db *memDB) entryCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.entries)
}

func (db *memDB) allEntries() []models.WalletEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.WalletEntry(nil), db.entries...)
}

func (db *memDB) allAccounts() []models.WalletAccount {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.WalletAccount, 0, len(db.accounts))
	for _, a := range db.accounts {
		out = append(out, a)
	}
	return out
}

// --- transactions ---

type memTxKey struct{}

type memTxState struct {
	hooks []func(ctx context.Context)
}

type memTx struct {
	db *memDB
}

func (m *memTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		return fn(ctx)
	}

	m.db.txMu.Lock()
	snap := m.db.snapshot()
	st := &memTxState{}
	err := fn(context.WithValue(ctx, memTxKey{}, st))
	if err != nil {
		m.db.restore(snap)
	}
	m.db.txMu.Unlock()

	if err != nil {
		return err
	}
	for _, hook := range st.hooks {
		hook(ctx)
	}
	return nil
}

func (m *memTx) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := ctx.Value(memTxKey{}).(*memTxState); ok {
		st.hooks = append(st.hooks, fn)
		return
	}
	fn(ctx)
}

// --- accounts ---

type memAccounts struct {
	db *memDB
}

func (s *memAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.WalletAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[id]
	if !ok {
		return nil, errs.NewNotFoundError("wallet account", id.String())
	}
	return &a, nil
}

func (s *memAccounts) GetByOwnerAndName(_ context.Context, ownerType models.OwnerType, ownerID uuid.UUID, name, currency string) (*models.WalletAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.accounts {
		if a.OwnerType == ownerType && a.OwnerID == ownerID && a.Name == name && a.CurrencyCode == currency {
			return &a, nil
		}
	}
	return nil, errs.NewNotFoundError("wallet account", ownerID.String()+"/"+name+"/"+currency)
}

func (s *memAccounts) GetForOwner(_ context.Context, ownerType models.OwnerType, ownerID uuid.UUID, names ...string) ([]models.WalletAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.WalletAccount
	for _, a := range s.db.accounts {
		if a.OwnerType != ownerType || a.OwnerID != ownerID {
			continue
		}
		if len(names) > 0 && !containsName(names, a.Name) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrencyCode != out[j].CurrencyCode {
			return out[i].CurrencyCode < out[j].CurrencyCode
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *memAccounts) Create(_ context.Context, account *models.WalletAccount) (*models.WalletAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.accounts {
		if a.OwnerType == account.OwnerType && a.OwnerID == account.OwnerID &&
			a.Name == account.Name && a.CurrencyCode == account.CurrencyCode {
			return &a, nil
		}
	}
	created := *account
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.Balance = decimal.Zero
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.db.accounts[created.ID] = created
	return &created, nil
}

func (s *memAccounts) SetAllowNegative(_ context.Context, id uuid.UUID, allow bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[id]
	if !ok {
		return errs.NewNotFoundError("wallet account", id.String())
	}
	a.AllowNegative = allow
	s.db.accounts[id] = a
	return nil
}

func (s *memAccounts) ApplyDelta(_ context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[id]
	if !ok || !a.CanAbsorb(delta) {
		return decimal.Zero, errs.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Add(delta)
	s.db.accounts[id] = a
	return a.Balance, nil
}

// --- entries ---

type memEntries struct {
	db *memDB
}

func (s *memEntries) Append(_ context.Context, entries []models.WalletEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.entries = append(s.db.entries, entries...)
	return nil
}

func (s *memEntries) GetByID(_ context.Context, id uuid.UUID) (*models.WalletEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, e := range s.db.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errs.NewNotFoundError("wallet entry", id.String())
}

func (s *memEntries) GetByTransfer(_ context.Context, transferID uuid.UUID) ([]models.WalletEntry, error) {
	return s.filter(func(e models.WalletEntry) bool { return e.TransferID == transferID }), nil
}

func (s *memEntries) GetByLinked(_ context.Context, entryID uuid.UUID) ([]models.WalletEntry, error) {
	return s.filter(func(e models.WalletEntry) bool {
		return e.LinkedEntryID != nil && *e.LinkedEntryID == entryID
	}), nil
}

func (s *memEntries) ListByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.WalletEntry
	for i := len(s.db.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.db.entries[i].AccountID == accountID {
			out = append(out, s.db.entries[i])
		}
	}
	return out, nil
}

func (s *memEntries) filter(keep func(models.WalletEntry) bool) []models.WalletEntry {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.WalletEntry
	for _, e := range s.db.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	return out
}

// --- withdrawals ---

type memWithdrawals struct {
	db *memDB
}

func (s *memWithdrawals) Create(_ context.Context, w *models.WithdrawalRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.withdrawals[w.ID] = *w
	return nil
}

func (s *memWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.withdrawals[id]
	if !ok {
		return nil, errs.NewNotFoundError("withdrawal", id.String())
	}
	return &w, nil
}

func (s *memWithdrawals) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return s.GetByID(ctx, id)
}

func (s *memWithdrawals) UpdateStatus(_ context.Context, id uuid.UUID, status models.WithdrawalStatus, walletEntryID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.withdrawals[id]
	if !ok {
		return errs.NewNotFoundError("withdrawal", id.String())
	}
	w.Status = status
	w.WalletEntryID = walletEntryID
	s.db.withdrawals[id] = w
	return nil
}

func (s *memWithdrawals) ListByUser(_ context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.WithdrawalRequest
	for _, w := range s.db.withdrawals {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

// --- lock ---

type memLocker struct {
	mu   sync.Mutex
	held map[string]string
	wait time.Duration
}

func newMemLocker(wait time.Duration) *memLocker {
	return &memLocker{held: make(map[string]string), wait: wait}
}

func (l *memLocker) Acquire(ctx context.Context, key string, _ time.Duration) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		l.mu.Lock()
		if _, ok := l.held[key]; !ok {
			l.held[key] = token
			l.mu.Unlock()
			return token, nil
		}
		l.mu.Unlock()

		if ctx.Err() != nil {
			return "", &errs.ConcurrencyError{Key: key, Reason: ctx.Err().Error()}
		}
		if time.Now().After(deadline) {
			return "", &errs.ConcurrencyError{Key: key, Reason: "lock wait timed out"}
		}
		time.Sleep(time.Millisecond)
	}
}

func (l *memLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return &errs.ConcurrencyError{Key: key, Reason: "lease lost before release"}
	}
	delete(l.held, key)
	return nil
}

func (l *memLocker) Extend(_ context.Context, key, token string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return &errs.ConcurrencyError{Key: key, Reason: "lease lost before extend"}
	}
	return nil
}

// --- publisher ---

type recordingPublisher struct {
	mu        sync.Mutex
	transfers []*models.Transfer
}

func (p *recordingPublisher) Publish(_ context.Context, t *models.Transfer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers = append(p.transfers, t)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transfers)
}

// --- wiring ---

type testEngine struct {
	db          *memDB
	accounts    *memAccounts
	tx          *memTx
	publisher   *recordingPublisher
	ledger      *Ledger
	accountSvc  *AccountService
	withdrawals *WithdrawalService
	payments    *PaymentService
	prizes      *PrizeService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newMemDB()
	accounts := &memAccounts{db: db}
	entries := &memEntries{db: db}
	tx := &memTx{db: db}
	publisher := &recordingPublisher{}
	locker := newMemLocker(time.Second)

	ledger := NewLedger(NewTransferProcessor(accounts, entries, tx, publisher))
	e := &testEngine{
		db:          db,
		accounts:    accounts,
		tx:          tx,
		publisher:   publisher,
		ledger:      ledger,
		accountSvc:  NewAccountService(accounts, entries, tx),
		withdrawals: NewWithdrawalService(ledger, accounts, &memWithdrawals{db: db}, tx, locker, DefaultLockTTL),
		payments:    NewPaymentService(ledger, accounts, locker, DefaultLockTTL),
		prizes:      NewPrizeService(ledger, locker, DefaultLockTTL),
	}
	require.NoError(t, e.accountSvc.EnsurePlatformWallets(context.Background(), []string{"USD"}))
	return e
}

// newUser opens a USD user whose Withdrawable account holds funds deposited through PayPal.
func (e *testEngine) newUser(t *testing.T, funds int64) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	_, err := e.accountSvc.OpenUserAccounts(context.Background(), userID, "USD")
	require.NoError(t, err)
	if funds > 0 {
		_, err = e.payments.Deposit(context.Background(), userID, decimal.NewFromInt(funds), "USD", models.WalletPayPal, "seed")
		require.NoError(t, err)
	}
	return userID
}

func (e *testEngine) userBalance(t *testing.T, userID uuid.UUID, name string) decimal.Decimal {
	t.Helper()
	a, err := e.accounts.GetByOwnerAndName(context.Background(), models.OwnerUser, userID, name, "USD")
	require.NoError(t, err)
	return a.Balance
}

func (e *testEngine) platformBalance(t *testing.T, name string) decimal.Decimal {
	t.Helper()
	a, err := e.accounts.GetByOwnerAndName(context.Background(), models.OwnerPlatform, models.PlatformOwnerID, name, "USD")
	require.NoError(t, err)
	return a.Balance
}

// requireLedgerInvariants checks every transfer sums to zero, every account without
// overdraft is non-negative and balances equal the sum of their entries.
func (e *testEngine) requireLedgerInvariants(t *testing.T) {
	t.Helper()
	perTransfer := map[uuid.UUID]decimal.Decimal{}
	perAccount := map[uuid.UUID]decimal.Decimal{}
	for _, entry := range e.db.allEntries() {
		perTransfer[entry.TransferID] = perTransfer[entry.TransferID].Add(entry.Amount)
		perAccount[entry.AccountID] = perAccount[entry.AccountID].Add(entry.Amount)
	}
	for id, sum := range perTransfer {
		require.Truef(t, sum.IsZero(), "transfer %s sums to %s", id, sum)
	}
	for _, a := range e.db.allAccounts() {
		if !a.AllowNegative {
			require.Falsef(t, a.Balance.IsNegative(), "account %s (%s) is negative: %s", a.ID, a.Name, a.Balance)
		}
		require.Truef(t, perAccount[a.ID].Equal(a.Balance), "account %s balance %s, entries sum %s", a.Name, a.Balance, perAccount[a.ID])
	}
}
