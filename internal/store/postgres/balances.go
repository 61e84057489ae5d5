package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

type balanceStore struct {
	q querier
}

const snapshotColumns = `snapshot_id, account_id, balance, statement_date, created_at`

func scanSnapshot(row pgx.Row) (*domain.BalanceSnapshot, error) {
	var (
		s    domain.BalanceSnapshot
		date time.Time
	)
	if err := row.Scan(&s.ID, &s.AccountID, &s.Balance, &date, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.StatementDate = civil.DateOf(date)
	return &s, nil
}

func (bs *balanceStore) Insert(ctx context.Context, snap *domain.BalanceSnapshot) (int64, error) {
	query := `
		INSERT INTO balance_snapshots (account_id, balance, statement_date, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING snapshot_id`

	var id int64
	err := bs.q.QueryRow(ctx, query, snap.AccountID, snap.Balance, snap.StatementDate.In(time.UTC), snap.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("balances.Insert: %w", err)
	}
	snap.ID = id
	return id, nil
}

func (bs *balanceStore) MostRecent(ctx context.Context, accountID int64) (*domain.BalanceSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE account_id = $1
		ORDER BY statement_date DESC, snapshot_id DESC
		LIMIT 1`

	s, err := scanSnapshot(bs.q.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("balances.MostRecent: %w", err)
	}
	return s, nil
}

func (bs *balanceStore) ListByAccount(ctx context.Context, accountID int64) ([]*domain.BalanceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots WHERE account_id = $1 ORDER BY snapshot_id`

	rows, err := bs.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("balances.ListByAccount: %w", err)
	}
	defer rows.Close()

	var out []*domain.BalanceSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("balances.ListByAccount: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (bs *balanceStore) DeleteByAccount(ctx context.Context, accountID int64) error {
	if _, err := bs.q.Exec(ctx, `DELETE FROM balance_snapshots WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("balances.DeleteByAccount: %w", err)
	}
	return nil
}
