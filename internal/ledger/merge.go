package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// Merger merges normalized records into the ledger without duplication.
// Construct it over a transaction-scoped store when the merge must commit or
// roll back together with other writes.
type Merger struct {
	store domain.Store
	log   zerolog.Logger
}

// NewMerger creates a merge engine over the given store.
func NewMerger(store domain.Store, log zerolog.Logger) *Merger {
	return &Merger{store: store, log: log}
}

// MergeAll persists each record whose dedup key is not already present for
// its account and returns the ids of the newly created transactions. Records
// whose key already exists are silently skipped; re-uploading the same
// statement is safe.
func (m *Merger) MergeAll(ctx context.Context, records []*domain.Transaction) ([]int64, error) {
	newIDs := make([]int64, 0, len(records))

	for _, rec := range records {
		exists, err := m.store.Transactions().ExistsByKey(ctx, rec.Key())
		if err != nil {
			return nil, fmt.Errorf("MergeAll: checking key: %w", err)
		}
		if exists {
			m.log.Debug().
				Int64("account_id", rec.AccountID).
				Str("date", rec.Date.String()).
				Str("description", rec.Description).
				Msg("Duplicate transaction detected, skipping")
			continue
		}

		id, err := m.store.Transactions().Insert(ctx, rec)
		if err != nil {
			// A concurrent ingestion can insert the same key between our
			// existence check and this insert; the unique index turns that
			// race into a duplicate error, which is just another skip.
			if errors.Is(err, domain.ErrDuplicateTransaction) {
				m.log.Debug().
					Int64("account_id", rec.AccountID).
					Str("date", rec.Date.String()).
					Str("description", rec.Description).
					Msg("Duplicate transaction inserted concurrently, skipping")
				continue
			}
			return nil, fmt.Errorf("MergeAll: inserting transaction: %w", err)
		}
		newIDs = append(newIDs, id)
	}

	return newIDs, nil
}

// DeduplicateLedger scans the full ledger in insertion order, keeps the first
// transaction seen for each dedup key, and removes every later one sharing
// that key in a single transactional bulk delete. It returns the number of
// removed duplicates. On any failure the ledger is left unchanged.
//
// This is a cleanup pass for data persisted before merge-time dedup existed
// or entered manually; it uses the same key definition as MergeAll.
func (m *Merger) DeduplicateLedger(ctx context.Context) (int64, error) {
	var removed int64

	err := m.store.WithinTx(ctx, func(tx domain.Store) error {
		all, err := tx.Transactions().ListAll(ctx)
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}

		seen := make(map[domain.DedupKey]int64, len(all))
		var duplicates []int64
		for _, t := range all {
			key := t.Key()
			if _, ok := seen[key]; ok {
				duplicates = append(duplicates, t.ID)
				continue
			}
			seen[key] = t.ID
		}

		if len(duplicates) == 0 {
			return nil
		}

		n, err := tx.Transactions().DeleteMany(ctx, duplicates)
		if err != nil {
			return fmt.Errorf("deleting duplicates: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("DeduplicateLedger: %w", err)
	}

	m.log.Info().Int64("removed", removed).Msg("Ledger dedup pass completed")
	return removed, nil
}
