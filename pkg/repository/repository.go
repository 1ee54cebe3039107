// Package repository holds the generic query and transaction helpers the
// domain stores are built on. Helpers accept a DBTX so the same code runs
// against the pool or inside a transaction.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is a *sql.Row or *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads one entity from the current row.
type ScanFunc[T any] func(Scanner) (T, error)

// WithTx commits when fn succeeds and rolls back otherwise.
func WithTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	out, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// QueryOne scans the first row. A missing row surfaces as sql.ErrNoRows.
func QueryOne[T any](ctx context.Context, db DBTX, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(db.QueryRowContext(ctx, query, args...))
}

// QueryScalar scans a single value, typically a COUNT.
func QueryScalar[T any](ctx context.Context, db DBTX, query string, args ...any) (T, error) {
	var v T
	err := db.QueryRowContext(ctx, query, args...).Scan(&v)
	return v, err
}

// QueryMany scans every row. No rows yields an empty, non-nil slice.
func QueryMany[T any](ctx context.Context, db DBTX, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ExecExpectOne fails with sql.ErrNoRows when the statement touched nothing.
// Keyed updates affecting more than one row are reported as errors.
func ExecExpectOne(ctx context.Context, db DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	switch {
	case err != nil:
		return err
	case n == 0:
		return sql.ErrNoRows
	case n > 1:
		return fmt.Errorf("expected one row affected, got %d", n)
	}
	return nil
}
