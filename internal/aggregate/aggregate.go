// Package aggregate derives signed financial summaries from the ledger under
// account-type sign conventions. Both entry points are read-only: pure
// functions of the ledger snapshot at call time.
package aggregate

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// Summary is the date-range financial summary.
//
// total_income / total_expense cover checking/savings accounts (positive
// amounts are income, negative are expenses); credit_card_expense / refunds
// cover credit/debit accounts, where positives are charges and negatives are
// refunds unless the transaction is a credit card payment.
type Summary struct {
	TotalIncome       float64 `json:"total_income"`
	TotalExpense      float64 `json:"total_expense"`
	Refunds           float64 `json:"refunds"`
	CreditCardExpense float64 `json:"credit_card_expense"`
	NetPosition       float64 `json:"net_position"`
}

// Engine computes summaries over the persisted ledger.
type Engine struct {
	store domain.Store
}

// NewEngine creates an aggregation engine over the given store.
func NewEngine(store domain.Store) *Engine {
	return &Engine{store: store}
}

// Summarize computes the financial summary for the inclusive [from, to]
// range. Fails with domain.ErrInvalidRange when from is after to.
//
// Sums are accumulated as decimals so that a long run of float64 currency
// amounts cannot drift.
func (e *Engine) Summarize(ctx context.Context, from, to civil.Date) (*Summary, error) {
	txs, types, err := e.load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	var income, expense, refunds, ccExpense decimal.Decimal

	for _, t := range txs {
		amount := decimal.NewFromFloat(t.Amount)

		switch types[t.AccountID] {
		case domain.AccountTypeCheckingSavings:
			if t.Amount > 0 {
				income = income.Add(amount)
			} else {
				expense = expense.Add(amount.Abs())
			}
		case domain.AccountTypeCreditDebit:
			if t.Amount > 0 {
				ccExpense = ccExpense.Add(amount)
			} else if t.Category != domain.CategoryCreditCardPayment {
				// A credit-card bill payment is a balance transfer,
				// not a true refund.
				refunds = refunds.Add(amount.Abs())
			}
		}
	}

	return &Summary{
		TotalIncome:       income.InexactFloat64(),
		TotalExpense:      expense.InexactFloat64(),
		Refunds:           refunds.InexactFloat64(),
		CreditCardExpense: ccExpense.InexactFloat64(),
		NetPosition:       income.Sub(expense).InexactFloat64(),
	}, nil
}

// SummarizeByCategory accumulates a signed total per category for the
// inclusive [from, to] range. Checking/savings transactions contribute their
// raw amount; credit/debit transactions contribute their negated amount, so a
// card purchase stored as a positive charge shows up as a negative expense
// figure. Credit card payments on non-checking accounts are excluded
// entirely.
func (e *Engine) SummarizeByCategory(ctx context.Context, from, to civil.Date) (map[string]float64, error) {
	txs, types, err := e.load(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("SummarizeByCategory: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		accountType := types[t.AccountID]
		if t.Category == domain.CategoryCreditCardPayment && accountType != domain.AccountTypeCheckingSavings {
			continue
		}
		amount := decimal.NewFromFloat(t.Amount)
		if accountType == domain.AccountTypeCreditDebit {
			amount = amount.Neg()
		}
		totals[t.Category] = totals[t.Category].Add(amount)
	}

	result := make(map[string]float64, len(totals))
	for category, total := range totals {
		result[category] = total.InexactFloat64()
	}
	return result, nil
}

// load fetches the in-range transactions plus an account-id to account-type
// lookup for the sign conventions.
func (e *Engine) load(ctx context.Context, from, to civil.Date) ([]*domain.Transaction, map[int64]domain.AccountType, error) {
	if from.After(to) {
		return nil, nil, domain.ErrInvalidRange
	}

	txs, err := e.store.Transactions().ListInRange(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("listing transactions: %w", err)
	}

	accounts, err := e.store.Accounts().List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing accounts: %w", err)
	}
	types := make(map[int64]domain.AccountType, len(accounts))
	for _, a := range accounts {
		types[a.ID] = a.Type
	}

	return txs, types, nil
}
