package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/store/memory"
)

func TestAddManual(t *testing.T) {
	tests := []struct {
		name    string
		entry   ManualEntry
		wantErr error
	}{
		{
			name:  "valid",
			entry: ManualEntry{AccountID: 1, Date: "2024-11-02", Description: "cash deposit", Category: "other income", Amount: 50},
		},
		{
			name:  "zero amount allowed",
			entry: ManualEntry{AccountID: 1, Date: "2024-11-02", Description: "placeholder", Amount: 0},
		},
		{
			name:    "negative amount",
			entry:   ManualEntry{AccountID: 1, Date: "2024-11-02", Description: "cash", Amount: -50},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "bad date",
			entry:   ManualEntry{AccountID: 1, Date: "11/02/2024", Description: "cash", Amount: 50},
			wantErr: domain.ErrInvalidDateFormat,
		},
		{
			name:    "blank description",
			entry:   ManualEntry{AccountID: 1, Date: "2024-11-02", Description: "  ", Amount: 50},
			wantErr: domain.ErrInvalidDraft,
		},
		{
			name:    "unknown category",
			entry:   ManualEntry{AccountID: 1, Date: "2024-11-02", Description: "cash", Category: "gambling", Amount: 50},
			wantErr: domain.ErrInvalidDraft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			id, err := AddManual(context.Background(), store, tt.entry)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddManual() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddManual() unexpected error: %v", err)
			}
			if id == 0 {
				t.Error("AddManual() returned id 0")
			}
		})
	}
}

func TestDeleteTransactionsPartial(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	id1, _ := store.Transactions().Insert(ctx, txn(1, "2024-11-02", "A", "", -1))
	id2, _ := store.Transactions().Insert(ctx, txn(1, "2024-11-03", "B", "", -2))

	deleted, notFound, err := DeleteTransactions(ctx, store, []int64{id1, 999, id2})
	if err != nil {
		t.Fatalf("DeleteTransactions() unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted = %v, want both existing ids", deleted)
	}
	if len(notFound) != 1 || notFound[0] != 999 {
		t.Errorf("notFound = %v, want [999]", notFound)
	}
}
