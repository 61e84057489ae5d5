package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// FieldUpdate is one parsed, validated mutation of a single transaction
// field. Each mutable field has its own variant carrying its own parse and
// validation logic, so dispatch is typed rather than stringly.
type FieldUpdate interface {
	Apply(t *domain.Transaction)
}

type dateUpdate struct{ date civil.Date }

func (u dateUpdate) Apply(t *domain.Transaction) { t.Date = u.date }

type amountUpdate struct{ amount float64 }

func (u amountUpdate) Apply(t *domain.Transaction) { t.Amount = u.amount }

type descriptionUpdate struct{ description string }

func (u descriptionUpdate) Apply(t *domain.Transaction) { t.Description = u.description }

type categoryUpdate struct{ category string }

func (u categoryUpdate) Apply(t *domain.Transaction) { t.Category = u.category }

type commentUpdate struct{ comment string }

func (u commentUpdate) Apply(t *domain.Transaction) { t.Comment = u.comment }

// ParseFieldUpdate turns a (field, value) pair into the matching typed
// update, running the field's own validation.
func ParseFieldUpdate(field, value string) (FieldUpdate, error) {
	switch field {
	case "transaction_date":
		d, err := domain.ParseDate(value)
		if err != nil {
			return nil, fmt.Errorf("ParseFieldUpdate: %w", err)
		}
		return dateUpdate{date: d}, nil
	case "amount":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("ParseFieldUpdate: amount %q: %w", value, domain.ErrInvalidAmount)
		}
		return amountUpdate{amount: f}, nil
	case "description":
		desc := normalizeDescription(value)
		if desc == "" {
			return nil, fmt.Errorf("ParseFieldUpdate: description must not be empty: %w", domain.ErrInvalidDraft)
		}
		return descriptionUpdate{description: desc}, nil
	case "category":
		category := normalizeCategory(value)
		if !domain.ValidCategory(category) {
			return nil, fmt.Errorf("ParseFieldUpdate: unknown category %q: %w", value, domain.ErrInvalidDraft)
		}
		return categoryUpdate{category: category}, nil
	case "comment":
		return commentUpdate{comment: value}, nil
	default:
		return nil, fmt.Errorf("ParseFieldUpdate: unknown field %q", field)
	}
}

// UpdateTransactionField applies one field update to a stored transaction.
func UpdateTransactionField(ctx context.Context, store domain.Store, transactionID int64, update FieldUpdate) error {
	t, err := store.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("UpdateTransactionField: %w", err)
	}

	update.Apply(t)
	now := time.Now().UTC()
	t.LastModifiedAt = &now

	if err := store.Transactions().Update(ctx, t); err != nil {
		return fmt.Errorf("UpdateTransactionField: %w", err)
	}
	return nil
}
