// Package postgres implements the ledger store on PostgreSQL via pgx.
// Conflicting writes are serialized here: merge and dedup operations run
// inside database transactions and roll back fully on failure.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_id          BIGSERIAL PRIMARY KEY,
	name                TEXT NOT NULL,
	institution         TEXT NOT NULL DEFAULT '',
	last_4_digits       TEXT NOT NULL,
	type                TEXT NOT NULL,
	last_statement_date DATE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_modified_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (name, last_4_digits, type)
);

CREATE TABLE IF NOT EXISTS transactions (
	transaction_id   BIGSERIAL PRIMARY KEY,
	account_id       BIGINT NOT NULL REFERENCES accounts(account_id),
	transaction_date DATE NOT NULL,
	description      TEXT NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	amount           DOUBLE PRECISION NOT NULL,
	comment          TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_modified_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_dedup
	ON transactions (account_id, transaction_date, amount, description, category);

CREATE TABLE IF NOT EXISTS balance_snapshots (
	snapshot_id    BIGSERIAL PRIMARY KEY,
	account_id     BIGINT NOT NULL REFERENCES accounts(account_id),
	balance        DOUBLE PRECISION NOT NULL,
	statement_date DATE NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// sub-store code serves pooled and transaction-scoped views.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// New connects to the database and bootstraps the schema.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: bootstrap schema: %w", err)
	}
	return &Store{pool: pool, q: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Accounts() domain.AccountStore         { return &accountStore{q: s.q} }
func (s *Store) Transactions() domain.TransactionStore { return &transactionStore{q: s.q} }
func (s *Store) Balances() domain.BalanceStore         { return &balanceStore{q: s.q} }

// WithinTx runs fn against a transaction-scoped store. fn's error aborts the
// transaction; otherwise all writes commit together.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, alreadyTx := s.q.(pgx.Tx); alreadyTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
