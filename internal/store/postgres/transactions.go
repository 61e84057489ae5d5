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

type transactionStore struct {
	q querier
}

const transactionColumns = `transaction_id, account_id, transaction_date, description, category, amount, comment, created_at, last_modified_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t    domain.Transaction
		date time.Time
	)
	if err := row.Scan(&t.ID, &t.AccountID, &date, &t.Description, &t.Category, &t.Amount, &t.Comment, &t.CreatedAt, &t.LastModifiedAt); err != nil {
		return nil, err
	}
	t.Date = civil.DateOf(date)
	return &t, nil
}

func (ts *transactionStore) Insert(ctx context.Context, t *domain.Transaction) (int64, error) {
	query := `
		INSERT INTO transactions (account_id, transaction_date, description, category, amount, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING transaction_id`

	var id int64
	err := ts.q.QueryRow(ctx, query,
		t.AccountID,
		t.Date.In(time.UTC),
		t.Description,
		t.Category,
		t.Amount,
		t.Comment,
		t.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("transactions.Insert: %w", domain.ErrDuplicateTransaction)
		}
		return 0, fmt.Errorf("transactions.Insert: %w", err)
	}
	t.ID = id
	return id, nil
}

func (ts *transactionStore) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	t, err := scanTransaction(ts.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("transactions.GetByID: %w", err)
	}
	return t, nil
}

func (ts *transactionStore) ExistsByKey(ctx context.Context, key domain.DedupKey) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1
			  AND transaction_date = $2
			  AND amount = $3
			  AND description = $4
			  AND category = $5
		)`

	var exists bool
	err := ts.q.QueryRow(ctx, query,
		key.AccountID,
		key.Date.In(time.UTC),
		key.Amount,
		key.Description,
		key.Category,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("transactions.ExistsByKey: %w", err)
	}
	return exists, nil
}

func (ts *transactionStore) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY transaction_id`
	return ts.list(ctx, query)
}

func (ts *transactionStore) ListInRange(ctx context.Context, from, to civil.Date) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_date >= $1 AND transaction_date <= $2
		ORDER BY transaction_id`
	return ts.list(ctx, query, from.In(time.UTC), to.In(time.UTC))
}

func (ts *transactionStore) list(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := ts.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transactions.list: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("transactions.list: scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (ts *transactionStore) Update(ctx context.Context, t *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET transaction_date = $1, description = $2, category = $3, amount = $4, comment = $5, last_modified_at = $6
		WHERE transaction_id = $7`

	tag, err := ts.q.Exec(ctx, query,
		t.Date.In(time.UTC),
		t.Description,
		t.Category,
		t.Amount,
		t.Comment,
		t.LastModifiedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("transactions.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

func (ts *transactionStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := ts.q.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("transactions.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (ts *transactionStore) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	tag, err := ts.q.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("transactions.DeleteMany: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (ts *transactionStore) DeleteByAccount(ctx context.Context, accountID int64) error {
	if _, err := ts.q.Exec(ctx, `DELETE FROM transactions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("transactions.DeleteByAccount: %w", err)
	}
	return nil
}
