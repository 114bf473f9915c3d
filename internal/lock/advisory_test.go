package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T) (*AdvisoryLock, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTableLock(db, "customers"), mock
}

func TestAcquireOrFail(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("migrion:table:customers", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))

	require.NoError(t, l.AcquireOrFail(context.Background()))
	assert.True(t, l.IsHeld())

	// Re-acquiring a held lock issues no further queries.
	require.NoError(t, l.AcquireOrFail(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireOrFail_HeldElsewhere(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	err := l.AcquireOrFail(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))
	assert.False(t, l.IsHeld())
}

func TestAcquireOrFail_NullResult(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(nil))

	err := l.AcquireOrFail(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLockTimeout))
}

func TestRelease(t *testing.T) {
	l, mock := newLock(t)

	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").
		WithArgs("migrion:table:customers").
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	require.NoError(t, l.AcquireOrFail(context.Background()))
	require.NoError(t, l.Release(context.Background()))
	assert.False(t, l.IsHeld())

	// Releasing an unheld lock is a no-op.
	require.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableLockName(t *testing.T) {
	assert.Equal(t, "migrion:table:customers", tableLockName("customers"))
	assert.Equal(t, "migrion:table:my_table", tableLockName("my.table"))
}
