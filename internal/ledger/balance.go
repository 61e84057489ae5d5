package ledger

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// BalanceTracker appends closing-balance snapshots and keeps the owning
// account's derived last_statement_date in sync.
type BalanceTracker struct {
	store domain.Store
}

// NewBalanceTracker creates a tracker over the given store.
func NewBalanceTracker(store domain.Store) *BalanceTracker {
	return &BalanceTracker{store: store}
}

// RecordSnapshot appends a snapshot for the account and recomputes the
// account's last_statement_date as the statement date of the snapshot with
// the maximum statement date. A nil balance is treated as 0.0. Recency is by
// statement date: recording a late-arriving statement for an older period
// does not advance last_statement_date.
func (bt *BalanceTracker) RecordSnapshot(ctx context.Context, accountID int64, balance *float64, statementDate civil.Date) (*domain.BalanceSnapshot, error) {
	value := 0.0
	if balance != nil {
		value = *balance
	}

	snap := &domain.BalanceSnapshot{
		AccountID:     accountID,
		Balance:       value,
		StatementDate: statementDate,
		CreatedAt:     time.Now().UTC(),
	}
	id, err := bt.store.Balances().Insert(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("RecordSnapshot: inserting snapshot: %w", err)
	}
	snap.ID = id

	recent, err := bt.store.Balances().MostRecent(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("RecordSnapshot: loading most recent snapshot: %w", err)
	}
	var last *civil.Date
	if recent != nil {
		d := recent.StatementDate
		last = &d
	}
	if err := bt.store.Accounts().SetLastStatementDate(ctx, accountID, last); err != nil {
		return nil, fmt.Errorf("RecordSnapshot: updating last_statement_date: %w", err)
	}

	return snap, nil
}

// RecordSnapshotFromString is RecordSnapshot for callers holding the
// statement date as a literal; anything but strict YYYY-MM-DD fails with
// domain.ErrInvalidDateFormat.
func (bt *BalanceTracker) RecordSnapshotFromString(ctx context.Context, accountID int64, balance *float64, statementDate string) (*domain.BalanceSnapshot, error) {
	d, err := domain.ParseDate(statementDate)
	if err != nil {
		return nil, fmt.Errorf("RecordSnapshotFromString: %w", err)
	}
	return bt.RecordSnapshot(ctx, accountID, balance, d)
}

// MostRecent returns the account's snapshot with the maximum statement date,
// or nil when no snapshots exist.
func (bt *BalanceTracker) MostRecent(ctx context.Context, accountID int64) (*domain.BalanceSnapshot, error) {
	return bt.store.Balances().MostRecent(ctx, accountID)
}
