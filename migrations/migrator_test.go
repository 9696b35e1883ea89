package migrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sqlV1 = "CREATE TABLE a (id INT);"
	sqlV2 = "CREATE TABLE b (id INT);"
)

func checksum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func testSource() fstest.MapFS {
	return fstest.MapFS{
		"V1__create_a.sql": {Data: []byte(sqlV1)},
		"V2__create_b.sql": {Data: []byte(sqlV2)},
		"README.md":        {Data: []byte("ignored")},
	}
}

func newMock(t *testing.T) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithSource(db, testSource(), zap.NewNop()), mock
}

func expectPreamble(mock sqlmock.Sqlmock, ledger *sqlmock.Rows) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).
		WithArgs(advisoryLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectApplied)).WillReturnRows(ledger)
}

func expectUnlock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(advisoryLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectApply(mock sqlmock.Sqlmock, version int64, desc, body string) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(body)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertApplied)).
		WithArgs(version, desc, checksum(body), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func ledgerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"version", "checksum", "applied_at"})
}

func TestLoad(t *testing.T) {
	migrations, err := Load(fstest.MapFS{
		"V10__later.sql":    {Data: []byte("SELECT 10;")},
		"V2__second.sql":    {Data: []byte("SELECT 2;")},
		"V1__first_one.sql": {Data: []byte("SELECT 1;")},
		"notes.txt":         {Data: []byte("skip")},
	})
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, []int64{1, 2, 10}, []int64{migrations[0].Version, migrations[1].Version, migrations[2].Version})
	assert.Equal(t, "first one", migrations[0].Description)
	assert.Equal(t, checksum("SELECT 1;"), migrations[0].Checksum)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  fstest.MapFS
		wantErr error
	}{
		{
			name:    "malformed name",
			source:  fstest.MapFS{"001_init.sql": {Data: []byte("x")}},
			wantErr: ErrInvalidName,
		},
		{
			name:    "zero version",
			source:  fstest.MapFS{"V0__init.sql": {Data: []byte("x")}},
			wantErr: ErrInvalidName,
		},
		{
			name: "duplicate version",
			source: fstest.MapFS{
				"V1__a.sql":  {Data: []byte("x")},
				"V01__b.sql": {Data: []byte("y")},
			},
			wantErr: ErrDuplicateVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.source)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	m := New(nil, zap.NewNop())

	migrations, err := Load(m.source)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, mig := range migrations {
		assert.Equal(t, int64(i+1), mig.Version, "versions must be contiguous")
		assert.NotEmpty(t, mig.SQL)
	}
}

func TestMigrate_FreshDatabase(t *testing.T) {
	m, mock := newMock(t)

	expectPreamble(mock, ledgerRows())
	expectApply(mock, 1, "create a", sqlV1)
	expectApply(mock, 2, "create b", sqlV2)
	expectUnlock(mock)

	n, err := m.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Idempotent(t *testing.T) {
	m, mock := newMock(t)

	now := time.Now()
	expectPreamble(mock, ledgerRows().
		AddRow(int64(1), checksum(sqlV1), now).
		AddRow(int64(2), checksum(sqlV2), now))
	expectUnlock(mock)

	n, err := m.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AppliesOnlyPending(t *testing.T) {
	m, mock := newMock(t)

	expectPreamble(mock, ledgerRows().AddRow(int64(1), checksum(sqlV1), time.Now()))
	expectApply(mock, 2, "create b", sqlV2)
	expectUnlock(mock)

	n, err := m.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ChecksumMismatch(t *testing.T) {
	m, mock := newMock(t)

	expectPreamble(mock, ledgerRows().AddRow(int64(1), checksum("CREATE TABLE a (id BIGINT);"), time.Now()))
	expectUnlock(mock)

	n, err := m.Migrate(context.Background())
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_OutOfOrder(t *testing.T) {
	m, mock := newMock(t)

	expectPreamble(mock, ledgerRows().AddRow(int64(2), checksum(sqlV2), time.Now()))
	expectUnlock(mock)

	_, err := m.Migrate(context.Background())
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_FailureHaltsAndRollsBack(t *testing.T) {
	m, mock := newMock(t)

	expectPreamble(mock, ledgerRows())
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(sqlV1)).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()
	expectUnlock(mock)

	n, err := m.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 1")
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockFailure(t *testing.T) {
	m, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).
		WillReturnError(errors.New("connection reset"))

	_, err := m.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire migration lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus(t *testing.T) {
	m, mock := newMock(t)

	appliedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_regclass('schema_migrations') IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(selectApplied)).
		WillReturnRows(ledgerRows().AddRow(int64(1), checksum(sqlV1), appliedAt))

	status, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 2)

	assert.True(t, status[0].Applied)
	require.NotNil(t, status[0].AppliedAt)
	assert.Equal(t, appliedAt, *status[0].AppliedAt)
	assert.False(t, status[1].Applied)
	assert.Nil(t, status[1].AppliedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPending_NoLedger(t *testing.T) {
	m, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT to_regclass('schema_migrations') IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	n, err := m.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
