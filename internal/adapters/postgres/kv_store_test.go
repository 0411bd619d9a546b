package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/testutil"
)

func TestKVStore_GetMany(t *testing.T) {
	db, mock := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db, Prefix: "rg:"})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value FROM auth_state WHERE key IN ($1, $2, $3)")).
		WithArgs("rg:jwtToken", "rg:userRole", "rg:userData").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("rg:jwtToken", "tok").
			AddRow("rg:userRole", "admin"))

	got, err := store.GetMany(context.Background(), domainauth.StorageKeys()...)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		domainauth.KeyToken: "tok",
		domainauth.KeyRole:  "admin",
	}, got)
}

func TestKVStore_GetMany_NoKeys(t *testing.T) {
	db, _ := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db})

	got, err := store.GetMany(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKVStore_SetMany_SingleTransaction(t *testing.T) {
	db, mock := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db})

	mock.ExpectBegin()
	// Keys are written in sorted order.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_state")).
		WithArgs(domainauth.KeyToken, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_state")).
		WithArgs(domainauth.KeyProfile, `{"name":"Ann"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_state")).
		WithArgs(domainauth.KeyRole, "user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SetMany(context.Background(), map[string]string{
		domainauth.KeyToken:   "tok",
		domainauth.KeyRole:    "user",
		domainauth.KeyProfile: `{"name":"Ann"}`,
	})
	require.NoError(t, err)
}

func TestKVStore_SetMany_RollsBackOnFailure(t *testing.T) {
	db, mock := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_state")).
		WithArgs(domainauth.KeyToken, "tok").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable})
	mock.ExpectRollback()

	err := store.SetMany(context.Background(), map[string]string{domainauth.KeyToken: "tok"})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestKVStore_DeleteMany(t *testing.T) {
	db, mock := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db})

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM auth_state WHERE key IN ($1, $2, $3)")).
		WithArgs("jwtToken", "userRole", "userData").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, store.DeleteMany(context.Background(), domainauth.StorageKeys()...))
}

func TestKVStore_DeleteMany_Error(t *testing.T) {
	db, mock := testutil.SetupSQLMock(t)
	store := NewKVStore(KVStoreOptions{DB: db})

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM auth_state")).
		WithArgs("jwtToken").
		WillReturnError(errors.New("boom"))

	err := store.DeleteMany(context.Background(), domainauth.KeyToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete auth state")
}

func TestInClause(t *testing.T) {
	assert.Equal(t, "$1", inClause(1, 1))
	assert.Equal(t, "$2, $3, $4", inClause(2, 3))
}
