package domain

import (
	"context"

	"cloud.google.com/go/civil"
)

// Store is the persistence boundary for the ledger. The store is the only
// shared mutable resource between requests; conflicting writes are
// serialized at this layer.
type Store interface {
	Accounts() AccountStore
	Transactions() TransactionStore
	Balances() BalanceStore

	// WithinTx runs fn against a transaction-scoped view of the store.
	// If fn returns an error every write made inside it is rolled back;
	// otherwise all writes commit together.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// AccountStore persists accounts.
type AccountStore interface {
	// Create inserts a new account and returns its id. Fails with
	// ErrDuplicateAccount when the (name, last_4_digits, type) triple
	// already exists.
	Create(ctx context.Context, a *Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByNameAndLast4(ctx context.Context, name, last4 string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, a *Account) error

	// SetLastStatementDate persists the derived last_statement_date field.
	SetLastStatementDate(ctx context.Context, id int64, d *civil.Date) error

	// Delete removes the account. Callers cascade-delete the account's
	// transactions and snapshots first.
	Delete(ctx context.Context, id int64) error
}

// TransactionStore persists ledger transactions. ListAll returns records in
// ascending id order, i.e. insertion order; the dedup cleanup pass depends
// on that ordering being stable.
type TransactionStore interface {
	Insert(ctx context.Context, t *Transaction) (int64, error)
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	ExistsByKey(ctx context.Context, key DedupKey) (bool, error)
	ListAll(ctx context.Context) ([]*Transaction, error)
	ListInRange(ctx context.Context, from, to civil.Date) ([]*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	DeleteByAccount(ctx context.Context, accountID int64) error
}

// BalanceStore persists balance snapshots. Snapshots are append-only.
type BalanceStore interface {
	Insert(ctx context.Context, s *BalanceSnapshot) (int64, error)
	MostRecent(ctx context.Context, accountID int64) (*BalanceSnapshot, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*BalanceSnapshot, error)
	DeleteByAccount(ctx context.Context, accountID int64) error
}
