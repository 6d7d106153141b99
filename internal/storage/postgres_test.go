package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"saas-tenancy/internal/store"
)

var _ store.Engine = (*Storage)(nil)

func setupMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, zap.NewNop()), mock
}

func TestSelect_ScopedQuery(t *testing.T) {
	s, mock := setupMockStorage(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name" FROM "products" WHERE "tenant_id" = $1 AND "modified_at" IS NULL AND "name" = $2`)).
		WithArgs("acme", "Widget").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(id.String(), "Widget"))

	filter := store.Where("tenant_id", "acme").And("modified_at", nil).And("name", "Widget")
	rows, err := s.Select(context.Background(), "products", []string{"id", "name"}, filter)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0]["name"])
	got, err := store.UUIDValue(rows[0]["id"])
	require.NoError(t, err)
	assert.Equal(t, id, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_NoRows(t *testing.T) {
	s, mock := setupMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := s.Select(context.Background(), "products", []string{"id"}, store.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_InsertAndUpdate(t *testing.T) {
	s, mock := setupMockStorage(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "products" ("id", "name", "tenant_id") VALUES ($1, $2, $3)`)).
		WithArgs(id, "Widget", "acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "name" = $1 WHERE "id" = $2 AND "tenant_id" = $3`)).
		WithArgs("Gadget", id, "acme").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.Commit(context.Background(), []store.Change{
		{Op: store.OpInsert, Collection: "products", Row: store.Row{"id": id, "name": "Widget", "tenant_id": "acme"}},
		{Op: store.OpUpdate, Collection: "products", Row: store.Row{"name": "Gadget"}, Guard: store.Where("id", id).And("tenant_id", "acme")},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_GuardMissRollsBack(t *testing.T) {
	s, mock := setupMockStorage(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "products" ("id") VALUES ($1)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "products" WHERE "id" = $1 AND "tenant_id" = $2`)).
		WithArgs(id, "acme").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.Commit(context.Background(), []store.Change{
		{Op: store.OpInsert, Collection: "products", Row: store.Row{"id": uuid.New()}},
		{Op: store.OpDelete, Collection: "products", Guard: store.Where("id", id).And("tenant_id", "acme")},
	})

	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_DuplicateKey(t *testing.T) {
	s, mock := setupMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "tenants"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "tenants_identifier_key"})
	mock.ExpectRollback()

	_, err := s.Commit(context.Background(), []store.Change{
		{Op: store.OpInsert, Collection: "tenants", Row: store.Row{"id": uuid.New(), "identifier": "acme"}},
	})

	assert.ErrorIs(t, err, store.ErrDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_RefusesUnguardedWrites(t *testing.T) {
	s, mock := setupMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Commit(context.Background(), []store.Change{
		{Op: store.OpUpdate, Collection: "products", Row: store.Row{"name": "x"}},
	})

	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	s := New(db, zap.NewNop())

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
