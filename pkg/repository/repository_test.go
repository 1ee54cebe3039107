package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/underwriter/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func scanName(s repository.Scanner) (string, error) {
	var name string
	err := s.Scan(&name)
	return name, err
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		orig := errors.New("connection reset")
		assert.Same(t, orig, repository.MapError(orig, errNotFound, errDuplicate))
	})
}

func TestIsConstraintViolation(t *testing.T) {
	assert.True(t, repository.IsConstraintViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, repository.IsConstraintViolation(fmt.Errorf("update: %w", &pgconn.PgError{Code: "22P02"})))
	assert.False(t, repository.IsConstraintViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, repository.IsConstraintViolation(errors.New("plain")))
}

func TestQueryOne(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT applicant_name FROM applications").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"applicant_name"}).AddRow("Ada"))

	name, err := repository.QueryOne(context.Background(), db,
		"SELECT applicant_name FROM applications WHERE id = $1", []any{42}, scanName)

	require.NoError(t, err)
	assert.Equal(t, "Ada", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryMany(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT applicant_name FROM applications").
		WillReturnRows(sqlmock.NewRows([]string{"applicant_name"}).AddRow("Ada").AddRow("Grace"))

	names, err := repository.QueryMany(context.Background(), db,
		"SELECT applicant_name FROM applications", nil, scanName)

	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace"}, names)

	t.Run("empty result is empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT applicant_name FROM applications").
			WillReturnRows(sqlmock.NewRows([]string{"applicant_name"}))

		names, err := repository.QueryMany(context.Background(), db,
			"SELECT applicant_name FROM applications", nil, scanName)

		require.NoError(t, err)
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})
}

func TestQueryScalar(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repository.QueryScalar[int](context.Background(), db, "SELECT COUNT(*) FROM applications")

	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestExecExpectOne(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repository.ExecExpectOne(context.Background(), db, "UPDATE applications SET status = $1", "APPROVED"))

	mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repository.ExecExpectOne(context.Background(), db, "UPDATE applications SET status = $1", "APPROVED")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 3))
	err = repository.ExecExpectOne(context.Background(), db, "UPDATE applications SET status = $1", "APPROVED")
	assert.ErrorContains(t, err, "got 3")
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := setupMockDB(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := repository.WithTx(context.Background(), db, func(tx *sql.Tx) (struct{}, error) {
			return struct{}{}, repository.ExecExpectOne(context.Background(), tx, "UPDATE applications SET status = 'ERROR'")
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := setupMockDB(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		_, err := repository.WithTx(context.Background(), db, func(tx *sql.Tx) (int, error) {
			return 0, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
