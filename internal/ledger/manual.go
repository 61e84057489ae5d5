package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// ManualEntry is a direct transaction entry, bypassing statement ingestion.
type ManualEntry struct {
	AccountID   int64
	Date        string
	Description string
	Category    string
	Amount      float64
	Comment     string
}

// AddManual validates and persists a manually entered transaction, returning
// its id. Unlike ingestion, manual entry requires a non-negative amount.
func AddManual(ctx context.Context, store domain.Store, entry ManualEntry) (int64, error) {
	date, err := domain.ParseDate(entry.Date)
	if err != nil {
		return 0, fmt.Errorf("AddManual: %w", err)
	}
	if entry.Amount < 0 {
		return 0, fmt.Errorf("AddManual: amount must be non-negative: %w", domain.ErrInvalidAmount)
	}
	desc := normalizeDescription(entry.Description)
	if desc == "" {
		return 0, fmt.Errorf("AddManual: description is required: %w", domain.ErrInvalidDraft)
	}
	category := normalizeCategory(entry.Category)
	if !domain.ValidCategory(category) {
		return 0, fmt.Errorf("AddManual: unknown category %q: %w", entry.Category, domain.ErrInvalidDraft)
	}

	t := &domain.Transaction{
		AccountID:   entry.AccountID,
		Date:        date,
		Description: desc,
		Category:    category,
		Amount:      entry.Amount,
		Comment:     entry.Comment,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := store.Transactions().Insert(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("AddManual: inserting transaction: %w", err)
	}
	return id, nil
}

// DeleteTransactions removes the given transactions one by one and reports
// which ids were deleted and which were not found.
func DeleteTransactions(ctx context.Context, store domain.Store, ids []int64) (deleted, notFound []int64, err error) {
	for _, id := range ids {
		ok, err := store.Transactions().Delete(ctx, id)
		if err != nil {
			return deleted, notFound, fmt.Errorf("DeleteTransactions: deleting %d: %w", id, err)
		}
		if ok {
			deleted = append(deleted, id)
		} else {
			notFound = append(notFound, id)
		}
	}
	return deleted, notFound, nil
}
