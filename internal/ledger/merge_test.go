package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/store/memory"
)

func txn(accountID int64, date, desc, category string, amount float64) *domain.Transaction {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return &domain.Transaction{
		AccountID:   accountID,
		Date:        d,
		Description: desc,
		Category:    category,
		Amount:      amount,
		CreatedAt:   time.Now(),
	}
}

func TestMergeAllIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	merger := NewMerger(store, zerolog.Nop())

	batch := []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
		txn(1, "2024-11-05", "SHELL OIL", "gas", -41.20),
	}

	ids, err := merger.MergeAll(ctx, batch)
	if err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("first merge created %d records, want 2", len(ids))
	}

	// Same statement again: nothing new.
	again := []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
		txn(1, "2024-11-05", "SHELL OIL", "gas", -41.20),
	}
	ids, err = merger.MergeAll(ctx, again)
	if err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("second merge created %d records, want 0", len(ids))
	}

	all, err := store.Transactions().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ledger holds %d records, want 2", len(all))
	}
}

func TestMergeAllPartialOverlap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	merger := NewMerger(store, zerolog.Nop())

	if _, err := merger.MergeAll(ctx, []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
	}); err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}

	// Overlapping statement: one known record, one new.
	ids, err := merger.MergeAll(ctx, []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
		txn(1, "2024-11-09", "NETFLIX", "subscriptions", -15.49),
	})
	if err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("overlap merge created %d records, want 1", len(ids))
	}
}

func TestMergeAllSameEventOtherAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	merger := NewMerger(store, zerolog.Nop())

	ids, err := merger.MergeAll(ctx, []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
		txn(2, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
	})
	if err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("created %d records, want 2; the account id is part of the key", len(ids))
	}
}

// racingStore simulates another ingestion landing a record between the
// existence check and the insert: ExistsByKey reports false while the insert
// itself hits the unique index.
type racingStore struct {
	domain.Store
	contested domain.DedupKey
}

func (s *racingStore) Transactions() domain.TransactionStore {
	return &racingTxStore{TransactionStore: s.Store.Transactions(), contested: s.contested}
}

type racingTxStore struct {
	domain.TransactionStore
	contested domain.DedupKey
}

func (ts *racingTxStore) Insert(ctx context.Context, t *domain.Transaction) (int64, error) {
	if t.Key() == ts.contested {
		return 0, fmt.Errorf("transactions.Insert: %w", domain.ErrDuplicateTransaction)
	}
	return ts.TransactionStore.Insert(ctx, t)
}

func TestMergeAllLostInsertRaceIsSkipped(t *testing.T) {
	ctx := context.Background()
	contested := txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45)
	store := &racingStore{Store: memory.NewStore(), contested: contested.Key()}
	merger := NewMerger(store, zerolog.Nop())

	ids, err := merger.MergeAll(ctx, []*domain.Transaction{
		contested,
		txn(1, "2024-11-05", "SHELL OIL", "gas", -41.20),
	})
	if err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("created %d records, want 1; the lost race must be a silent skip", len(ids))
	}
}

func TestDeduplicateLedgerCleanLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	merger := NewMerger(store, zerolog.Nop())

	if _, err := merger.MergeAll(ctx, []*domain.Transaction{
		txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45),
		txn(1, "2024-11-05", "SHELL OIL", "gas", -41.20),
	}); err != nil {
		t.Fatalf("MergeAll() unexpected error: %v", err)
	}

	removed, err := merger.DeduplicateLedger(ctx)
	if err != nil {
		t.Fatalf("DeduplicateLedger() unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed %d from a clean ledger, want 0", removed)
	}
}

func TestDeduplicateLedgerKeepsFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// Insert duplicates directly, bypassing merge-time dedup, the way data
	// entered manually or before the merge engine existed.
	first := txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45)
	firstID, err := store.Transactions().Insert(ctx, first)
	if err != nil {
		t.Fatalf("Insert() unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		dup := txn(1, "2024-11-02", "PATEL BROTHERS", "groceries", -6.45)
		if _, err := store.Transactions().Insert(ctx, dup); err != nil {
			t.Fatalf("Insert() unexpected error: %v", err)
		}
	}
	keeper := txn(1, "2024-11-05", "SHELL OIL", "gas", -41.20)
	if _, err := store.Transactions().Insert(ctx, keeper); err != nil {
		t.Fatalf("Insert() unexpected error: %v", err)
	}

	merger := NewMerger(store, zerolog.Nop())
	removed, err := merger.DeduplicateLedger(ctx)
	if err != nil {
		t.Fatalf("DeduplicateLedger() unexpected error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed %d duplicates, want 2", removed)
	}

	all, err := store.Transactions().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ledger holds %d records after cleanup, want 2", len(all))
	}

	var keptIDs []int64
	for _, rec := range all {
		keptIDs = append(keptIDs, rec.ID)
	}
	if keptIDs[0] != firstID {
		t.Errorf("kept ids = %v, want the earliest record %d to survive", keptIDs, firstID)
	}

	wantDate := civil.Date{Year: 2024, Month: 11, Day: 2}
	if all[0].Date != wantDate {
		t.Errorf("surviving record date = %v, want %v", all[0].Date, wantDate)
	}
}
