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

type accountStore struct {
	q querier
}

const accountColumns = `account_id, name, institution, last_4_digits, type, last_statement_date, created_at, last_modified_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a        domain.Account
		lastStmt *time.Time
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Institution, &a.Last4Digits, &a.Type, &lastStmt, &a.CreatedAt, &a.LastModifiedAt); err != nil {
		return nil, err
	}
	if lastStmt != nil {
		d := civil.DateOf(*lastStmt)
		a.LastStatementDate = &d
	}
	return &a, nil
}

func (as *accountStore) Create(ctx context.Context, a *domain.Account) (int64, error) {
	query := `
		INSERT INTO accounts (name, institution, last_4_digits, type)
		VALUES ($1, $2, $3, $4)
		RETURNING account_id`

	var id int64
	err := as.q.QueryRow(ctx, query, a.Name, a.Institution, a.Last4Digits, string(a.Type)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateAccount
		}
		return 0, fmt.Errorf("accounts.Create: %w", err)
	}
	a.ID = id
	return id, nil
}

func (as *accountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`

	a, err := scanAccount(as.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("accounts.GetByID: %w", err)
	}
	return a, nil
}

func (as *accountStore) GetByNameAndLast4(ctx context.Context, name, last4 string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1 AND last_4_digits = $2`

	a, err := scanAccount(as.q.QueryRow(ctx, query, name, last4))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %q/%s: %w", name, last4, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("accounts.GetByNameAndLast4: %w", err)
	}
	return a, nil
}

func (as *accountStore) List(ctx context.Context) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY account_id`

	rows, err := as.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("accounts.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("accounts.List: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (as *accountStore) Update(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, institution = $2, last_4_digits = $3, type = $4, last_modified_at = now()
		WHERE account_id = $5`

	tag, err := as.q.Exec(ctx, query, a.Name, a.Institution, a.Last4Digits, string(a.Type), a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("accounts.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (as *accountStore) SetLastStatementDate(ctx context.Context, id int64, date *civil.Date) error {
	var value *time.Time
	if date != nil {
		t := date.In(time.UTC)
		value = &t
	}

	tag, err := as.q.Exec(ctx, `UPDATE accounts SET last_statement_date = $1 WHERE account_id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("accounts.SetLastStatementDate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (as *accountStore) Delete(ctx context.Context, id int64) error {
	tag, err := as.q.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1`, id)
	if err != nil {
		return fmt.Errorf("accounts.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
