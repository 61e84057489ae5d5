// Package ledger holds the write-side services of the transaction ledger:
// draft normalization, the idempotent merge engine, the dedup cleanup pass,
// the balance tracker and manual-entry operations.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// NormalizeDraft converts one raw draft transaction into a canonical record
// for the target account, or fails with domain.ErrInvalidDraft. The date must
// already be strict YYYY-MM-DD; the extraction adapter is responsible for
// normalizing date formats before this stage.
//
// Incidental whitespace in description and category is collapsed so that two
// semantically identical drafts always produce the same dedup key.
func NormalizeDraft(raw interface{}, accountID int64, now time.Time) (*domain.Transaction, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("NormalizeDraft: draft is %T, want object: %w", raw, domain.ErrInvalidDraft)
	}

	dateStr, err := getStringField(obj, "transaction_date")
	if err != nil {
		return nil, err
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("NormalizeDraft: %v: %w", err, domain.ErrInvalidDraft)
	}

	desc, err := getStringField(obj, "description")
	if err != nil {
		return nil, err
	}

	amount, err := getFloat64Field(obj, "amount")
	if err != nil {
		return nil, err
	}

	category := normalizeCategory(optionalString(obj, "category"))
	comment := strings.TrimSpace(optionalString(obj, "comment"))

	return &domain.Transaction{
		AccountID:   accountID,
		Date:        date,
		Description: normalizeDescription(desc),
		Category:    category,
		Amount:      amount,
		Comment:     comment,
		CreatedAt:   now,
	}, nil
}

// normalizeDescription collapses runs of whitespace into single spaces.
func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeCategory lower-cases and trims a category name so key comparison
// is format-insensitive. Unknown categories are kept as-is; the closed set is
// enforced at the extraction prompt and on manual entry, not here.
func normalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("NormalizeDraft: missing required field %q: %w", key, domain.ErrInvalidDraft)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("NormalizeDraft: field %q is %T, want string: %w", key, v, domain.ErrInvalidDraft)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("NormalizeDraft: required field %q is empty: %w", key, domain.ErrInvalidDraft)
	}
	return s, nil
}

func getFloat64Field(m map[string]interface{}, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("NormalizeDraft: missing required field %q: %w", key, domain.ErrInvalidDraft)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("NormalizeDraft: field %q is %T, want number: %w", key, v, domain.ErrInvalidDraft)
	}
	return f, nil
}

func optionalString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
