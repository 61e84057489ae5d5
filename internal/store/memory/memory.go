// Package memory is an in-memory implementation of the ledger store. It is
// safe for concurrent use and suitable for tests and single-process runs
// without a database; production deployments use the postgres store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

type data struct {
	accounts      map[int64]*domain.Account
	transactions  []*domain.Transaction
	snapshots     []*domain.BalanceSnapshot
	nextAccountID int64
	nextTxID      int64
	nextSnapID    int64
}

func newData() *data {
	return &data{
		accounts:      make(map[int64]*domain.Account),
		nextAccountID: 1,
		nextTxID:      1,
		nextSnapID:    1,
	}
}

func (d *data) clone() *data {
	c := &data{
		accounts:      make(map[int64]*domain.Account, len(d.accounts)),
		transactions:  make([]*domain.Transaction, len(d.transactions)),
		snapshots:     make([]*domain.BalanceSnapshot, len(d.snapshots)),
		nextAccountID: d.nextAccountID,
		nextTxID:      d.nextTxID,
		nextSnapID:    d.nextSnapID,
	}
	for id, a := range d.accounts {
		copied := *a
		c.accounts[id] = &copied
	}
	for i, t := range d.transactions {
		copied := *t
		c.transactions[i] = &copied
	}
	for i, s := range d.snapshots {
		copied := *s
		c.snapshots[i] = &copied
	}
	return c
}

// Store implements domain.Store in memory.
type Store struct {
	mu   *sync.Mutex
	d    *data
	inTx bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, d: newData()}
}

// lock acquires the store mutex unless this view is already inside a
// transaction, which holds the lock for its whole scope.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Accounts() domain.AccountStore         { return &accountStore{s} }
func (s *Store) Transactions() domain.TransactionStore { return &transactionStore{s} }
func (s *Store) Balances() domain.BalanceStore         { return &balanceStore{s} }

// WithinTx runs fn under the store lock against the live data and restores
// the pre-transaction state if fn fails, so a failed merge or dedup pass
// rolls back fully.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.d.clone()
	tx := &Store{mu: s.mu, d: s.d, inTx: true}
	if err := fn(tx); err != nil {
		*s.d = *backup
		return err
	}
	return nil
}

type accountStore struct{ s *Store }

func (as *accountStore) Create(ctx context.Context, a *domain.Account) (int64, error) {
	defer as.s.lock()()
	d := as.s.d
	for _, existing := range d.accounts {
		if existing.Name == a.Name && existing.Last4Digits == a.Last4Digits && existing.Type == a.Type {
			return 0, domain.ErrDuplicateAccount
		}
	}
	a.ID = d.nextAccountID
	d.nextAccountID++
	copied := *a
	d.accounts[a.ID] = &copied
	return a.ID, nil
}

func (as *accountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	defer as.s.lock()()
	a, ok := as.s.d.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	copied := *a
	return &copied, nil
}

func (as *accountStore) GetByNameAndLast4(ctx context.Context, name, last4 string) (*domain.Account, error) {
	defer as.s.lock()()
	for _, a := range as.s.d.accounts {
		if a.Name == name && a.Last4Digits == last4 {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("account %q/%s: %w", name, last4, domain.ErrNotFound)
}

func (as *accountStore) List(ctx context.Context) ([]*domain.Account, error) {
	defer as.s.lock()()
	out := make([]*domain.Account, 0, len(as.s.d.accounts))
	for _, a := range as.s.d.accounts {
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (as *accountStore) Update(ctx context.Context, a *domain.Account) error {
	defer as.s.lock()()
	if _, ok := as.s.d.accounts[a.ID]; !ok {
		return fmt.Errorf("account %d: %w", a.ID, domain.ErrNotFound)
	}
	copied := *a
	as.s.d.accounts[a.ID] = &copied
	return nil
}

func (as *accountStore) SetLastStatementDate(ctx context.Context, id int64, date *civil.Date) error {
	defer as.s.lock()()
	a, ok := as.s.d.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	if date == nil {
		a.LastStatementDate = nil
	} else {
		copied := *date
		a.LastStatementDate = &copied
	}
	return nil
}

func (as *accountStore) Delete(ctx context.Context, id int64) error {
	defer as.s.lock()()
	if _, ok := as.s.d.accounts[id]; !ok {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	delete(as.s.d.accounts, id)
	return nil
}

type transactionStore struct{ s *Store }

func (ts *transactionStore) Insert(ctx context.Context, t *domain.Transaction) (int64, error) {
	defer ts.s.lock()()
	d := ts.s.d
	t.ID = d.nextTxID
	d.nextTxID++
	copied := *t
	d.transactions = append(d.transactions, &copied)
	return t.ID, nil
}

func (ts *transactionStore) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	defer ts.s.lock()()
	for _, t := range ts.s.d.transactions {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
}

func (ts *transactionStore) ExistsByKey(ctx context.Context, key domain.DedupKey) (bool, error) {
	defer ts.s.lock()()
	for _, t := range ts.s.d.transactions {
		if t.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (ts *transactionStore) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	defer ts.s.lock()()
	out := make([]*domain.Transaction, 0, len(ts.s.d.transactions))
	for _, t := range ts.s.d.transactions {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ts *transactionStore) ListInRange(ctx context.Context, from, to civil.Date) ([]*domain.Transaction, error) {
	defer ts.s.lock()()
	var out []*domain.Transaction
	for _, t := range ts.s.d.transactions {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ts *transactionStore) Update(ctx context.Context, t *domain.Transaction) error {
	defer ts.s.lock()()
	for i, existing := range ts.s.d.transactions {
		if existing.ID == t.ID {
			copied := *t
			ts.s.d.transactions[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", t.ID, domain.ErrNotFound)
}

func (ts *transactionStore) Delete(ctx context.Context, id int64) (bool, error) {
	defer ts.s.lock()()
	for i, t := range ts.s.d.transactions {
		if t.ID == id {
			ts.s.d.transactions = append(ts.s.d.transactions[:i], ts.s.d.transactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (ts *transactionStore) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	defer ts.s.lock()()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := ts.s.d.transactions[:0]
	var removed int64
	for _, t := range ts.s.d.transactions {
		if drop[t.ID] {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	ts.s.d.transactions = kept
	return removed, nil
}

func (ts *transactionStore) DeleteByAccount(ctx context.Context, accountID int64) error {
	defer ts.s.lock()()
	kept := ts.s.d.transactions[:0]
	for _, t := range ts.s.d.transactions {
		if t.AccountID != accountID {
			kept = append(kept, t)
		}
	}
	ts.s.d.transactions = kept
	return nil
}

type balanceStore struct{ s *Store }

func (bs *balanceStore) Insert(ctx context.Context, snap *domain.BalanceSnapshot) (int64, error) {
	defer bs.s.lock()()
	d := bs.s.d
	snap.ID = d.nextSnapID
	d.nextSnapID++
	copied := *snap
	d.snapshots = append(d.snapshots, &copied)
	return snap.ID, nil
}

func (bs *balanceStore) MostRecent(ctx context.Context, accountID int64) (*domain.BalanceSnapshot, error) {
	defer bs.s.lock()()
	var forAccount []*domain.BalanceSnapshot
	for _, s := range bs.s.d.snapshots {
		if s.AccountID == accountID {
			forAccount = append(forAccount, s)
		}
	}
	latest := domain.LatestSnapshot(forAccount)
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (bs *balanceStore) ListByAccount(ctx context.Context, accountID int64) ([]*domain.BalanceSnapshot, error) {
	defer bs.s.lock()()
	var out []*domain.BalanceSnapshot
	for _, s := range bs.s.d.snapshots {
		if s.AccountID == accountID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (bs *balanceStore) DeleteByAccount(ctx context.Context, accountID int64) error {
	defer bs.s.lock()()
	kept := bs.s.d.snapshots[:0]
	for _, s := range bs.s.d.snapshots {
		if s.AccountID != accountID {
			kept = append(kept, s)
		}
	}
	bs.s.d.snapshots = kept
	return nil
}
