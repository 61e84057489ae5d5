package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// BalanceSnapshot records one closing balance for an account as of a
// statement date. Snapshots accumulate over time and are never mutated.
type BalanceSnapshot struct {
	ID            int64      `json:"id"`
	AccountID     int64      `json:"account_id"`
	Balance       float64    `json:"balance"`
	StatementDate civil.Date `json:"statement_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

// LatestSnapshot returns the snapshot with the maximum statement date, or nil
// for an empty slice. Recency is by statement date, not creation time: a
// late-arriving statement for an older period never wins.
func LatestSnapshot(snapshots []*BalanceSnapshot) *BalanceSnapshot {
	var latest *BalanceSnapshot
	for _, s := range snapshots {
		if latest == nil || s.StatementDate.After(latest.StatementDate) {
			latest = s
		}
	}
	return latest
}
