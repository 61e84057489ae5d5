package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/extract"
	"github.com/dvloznov/bankbuddy/internal/store/memory"
)

// fakeExtractor returns a canned draft or error instead of calling the model.
type fakeExtractor struct {
	draft *extract.Draft
	err   error
	calls []string
}

func (f *fakeExtractor) Extract(ctx context.Context, statementText string) (*extract.Draft, error) {
	f.calls = append(f.calls, statementText)
	if f.err != nil {
		return nil, f.err
	}
	return f.draft, nil
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func draftTxn(date, desc string, amount float64, category string) interface{} {
	return map[string]interface{}{
		"transaction_date": date,
		"description":      desc,
		"amount":           amount,
		"category":         category,
	}
}

func setupAccount(t *testing.T, store domain.Store) int64 {
	t.Helper()
	id, err := store.Accounts().Create(context.Background(), &domain.Account{
		Name:        "everyday checking",
		Institution: "first national",
		Last4Digits: "4821",
		Type:        domain.AccountTypeCheckingSavings,
	})
	if err != nil {
		t.Fatalf("Create account: %v", err)
	}
	return id
}

func TestIngestHappyPath(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	ext := &fakeExtractor{draft: &extract.Draft{
		StatementDate:  strPtr("2024-11-30"),
		AccountBalance: f64Ptr(1250.75),
		Transactions: []interface{}{
			draftTxn("2024-11-02", "PATEL BROTHERS", -6.45, "groceries"),
			draftTxn("2024-11-05", "SHELL OIL", -41.20, "gas"),
		},
	}}

	ing := NewIngestor(store, ext, zerolog.Nop())
	created, err := ing.Ingest(ctx, accountID, "statement for acct 123456789")
	if err != nil {
		t.Fatalf("Ingest() unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	// The extractor must only ever see redacted text.
	if len(ext.calls) != 1 {
		t.Fatalf("extractor called %d times, want 1", len(ext.calls))
	}
	if ext.calls[0] != "statement for acct ****" {
		t.Errorf("extractor input = %q, want account number masked", ext.calls[0])
	}

	// Closing balance landed and the account advanced.
	recent, err := store.Balances().MostRecent(ctx, accountID)
	if err != nil {
		t.Fatalf("MostRecent() unexpected error: %v", err)
	}
	if recent == nil || recent.Balance != 1250.75 {
		t.Errorf("most recent snapshot = %+v, want balance 1250.75", recent)
	}
	acc, err := store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	want := civil.Date{Year: 2024, Month: 11, Day: 30}
	if acc.LastStatementDate == nil || *acc.LastStatementDate != want {
		t.Errorf("last statement date = %v, want %v", acc.LastStatementDate, want)
	}
}

func TestIngestTwiceCreatesNothingNew(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	ext := &fakeExtractor{draft: &extract.Draft{
		StatementDate: strPtr("2024-11-30"),
		Transactions: []interface{}{
			draftTxn("2024-11-02", "PATEL BROTHERS", -6.45, "groceries"),
		},
	}}
	ing := NewIngestor(store, ext, zerolog.Nop())

	if _, err := ing.Ingest(ctx, accountID, "stmt"); err != nil {
		t.Fatalf("first Ingest() unexpected error: %v", err)
	}
	created, err := ing.Ingest(ctx, accountID, "stmt")
	if err != nil {
		t.Fatalf("second Ingest() unexpected error: %v", err)
	}
	if created != 0 {
		t.Errorf("second ingest created %d, want 0", created)
	}

	all, err := store.Transactions().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ledger holds %d records, want 1", len(all))
	}
}

func TestIngestUnknownAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ext := &fakeExtractor{}
	ing := NewIngestor(store, ext, zerolog.Nop())

	if _, err := ing.Ingest(ctx, 404, "stmt"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Ingest() error = %v, want ErrNotFound", err)
	}
	if len(ext.calls) != 0 {
		t.Error("extractor called for an unknown account")
	}
}

func TestIngestExtractionFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	tests := []struct {
		name string
		err  error
	}{
		{"call failure", fmt.Errorf("model call: %w", domain.ErrExtraction)},
		{"malformed payload", fmt.Errorf("decode: %w", domain.ErrMalformedResponse)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := NewIngestor(store, &fakeExtractor{err: tt.err}, zerolog.Nop())
			if _, err := ing.Ingest(ctx, accountID, "stmt"); !errors.Is(err, tt.err) {
				t.Fatalf("Ingest() error = %v, want wrapped %v", err, tt.err)
			}

			all, err := store.Transactions().ListAll(ctx)
			if err != nil {
				t.Fatalf("ListAll() unexpected error: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("ledger holds %d records after failed extraction, want 0", len(all))
			}
			snaps, err := store.Balances().ListByAccount(ctx, accountID)
			if err != nil {
				t.Fatalf("ListByAccount() unexpected error: %v", err)
			}
			if len(snaps) != 0 {
				t.Errorf("found %d snapshots after failed extraction, want 0", len(snaps))
			}
		})
	}
}

func TestIngestSkipsInvalidDrafts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	ext := &fakeExtractor{draft: &extract.Draft{
		Transactions: []interface{}{
			draftTxn("2024-11-02", "PATEL BROTHERS", -6.45, "groceries"),
			draftTxn("11/05/2024", "SHELL OIL", -41.20, "gas"), // bad date
			"not even an object",
			draftTxn("2024-11-09", "NETFLIX", -15.49, "subscriptions"),
		},
	}}

	ing := NewIngestor(store, ext, zerolog.Nop())
	created, err := ing.Ingest(ctx, accountID, "stmt")
	if err != nil {
		t.Fatalf("Ingest() unexpected error: %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2 with the invalid drafts skipped", created)
	}
}

func TestIngestBadStatementDateRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	ext := &fakeExtractor{draft: &extract.Draft{
		StatementDate: strPtr("Nov 30, 2024"),
		Transactions: []interface{}{
			draftTxn("2024-11-02", "PATEL BROTHERS", -6.45, "groceries"),
		},
	}}

	ing := NewIngestor(store, ext, zerolog.Nop())
	if _, err := ing.Ingest(ctx, accountID, "stmt"); !errors.Is(err, domain.ErrInvalidDateFormat) {
		t.Fatalf("Ingest() error = %v, want ErrInvalidDateFormat", err)
	}

	// The merge ran inside the same transaction as the snapshot, so it must
	// have rolled back with it.
	all, err := store.Transactions().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ledger holds %d records after rollback, want 0", len(all))
	}
}

func TestIngestNoStatementDateSkipsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	accountID := setupAccount(t, store)

	ext := &fakeExtractor{draft: &extract.Draft{
		Transactions: []interface{}{
			draftTxn("2024-11-02", "PATEL BROTHERS", -6.45, "groceries"),
		},
	}}

	ing := NewIngestor(store, ext, zerolog.Nop())
	created, err := ing.Ingest(ctx, accountID, "stmt")
	if err != nil {
		t.Fatalf("Ingest() unexpected error: %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	snaps, err := store.Balances().ListByAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("ListByAccount() unexpected error: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("found %d snapshots without a statement date, want 0", len(snaps))
	}
}
