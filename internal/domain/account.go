package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// AccountType tags an account with the sign convention that applies to its
// transactions. Checking/savings amounts are signed from the holder's point
// of view (positive = money in); credit/debit amounts are signed from the
// card issuer's point of view (positive = charge).
type AccountType string

const (
	AccountTypeCheckingSavings AccountType = "checking/savings"
	AccountTypeCreditDebit     AccountType = "credit/debit"
)

// ValidAccountType reports whether s is one of the known account types.
func ValidAccountType(s string) bool {
	switch AccountType(s) {
	case AccountTypeCheckingSavings, AccountTypeCreditDebit:
		return true
	}
	return false
}

// Account represents one bank or card account the ledger tracks.
// The (Name, Last4Digits, Type) triple is unique across all accounts.
// LastStatementDate is derived: it always equals the statement date of the
// account's most recent balance snapshot, or is nil when none exists.
type Account struct {
	ID                int64       `json:"account_id"`
	Name              string      `json:"name"`
	Institution       string      `json:"institution"`
	Last4Digits       string      `json:"last_4_digits"`
	Type              AccountType `json:"type"`
	LastStatementDate *civil.Date `json:"last_statement_date,omitempty"`
	CreatedAt         time.Time   `json:"created_date"`
	LastModifiedAt    time.Time   `json:"last_modified_date"`
}
