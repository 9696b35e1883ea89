package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM movies").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		_, ok := GetTransactionFromContext(ctx)
		assert.True(t, ok)
		_, err := GetExecutor(ctx, db).ExecContext(ctx, "DELETE FROM movies")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTransaction_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTransaction_RollbackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
			panic("oops")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTransaction_NestedReusesOuter(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, outer repositories.Transaction) error {
		return tm.InTransaction(ctx, func(ctx context.Context, inner repositories.Transaction) error {
			assert.Same(t, outer, inner)
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
