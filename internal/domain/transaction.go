package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Categories is the closed set of transaction categories the extraction
// model is allowed to assign. Manual entry and field updates validate
// against the same list.
var Categories = []string{
	"paycheck", "other income",
	"transfer", "credit card payment",
	"home", "utilities", "rent",
	"auto", "gas", "parking", "travel",
	"restaurant", "groceries", "medical",
	"amazon", "walmart", "shopping",
	"subscriptions", "donations", "insurance",
	"investments", "other expenses",
}

// CategoryCreditCardPayment marks a credit-card bill payment. It is a
// transfer between the two account-type domains, not an expense or refund
// in either, and the aggregation engine excludes it accordingly.
const CategoryCreditCardPayment = "credit card payment"

var categorySet = func() map[string]bool {
	m := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ValidCategory reports whether s is one of the known categories.
// The empty string is allowed: a transaction may be uncategorized.
func ValidCategory(s string) bool {
	return s == "" || categorySet[s]
}

// Transaction is one canonical ledger record, owned by exactly one account.
type Transaction struct {
	ID             int64      `json:"transaction_id"`
	AccountID      int64      `json:"account_id"`
	Date           civil.Date `json:"transaction_date"`
	Description    string     `json:"description"`
	Category       string     `json:"category,omitempty"`
	Amount         float64    `json:"amount"`
	Comment        string     `json:"comment,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModifiedAt *time.Time `json:"last_modified_time,omitempty"`
}

// DedupKey identifies a real-world transaction event. Two records with equal
// keys are the same event. The merge engine and the cleanup pass both compare
// keys with plain struct equality of this type, so their notions of
// "duplicate" cannot diverge.
type DedupKey struct {
	Date        civil.Date
	Amount      float64
	Description string
	Category    string
	AccountID   int64
}

// Key returns the dedup key for this transaction.
func (t *Transaction) Key() DedupKey {
	return DedupKey{
		Date:        t.Date,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		AccountID:   t.AccountID,
	}
}

// ParseDate parses a strict YYYY-MM-DD literal into a calendar date.
// Any other form fails with ErrInvalidDateFormat; no best-effort guessing.
func ParseDate(s string) (civil.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDateFormat)
	}
	return civil.DateOf(t), nil
}
