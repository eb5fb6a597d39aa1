package kv

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{TableSecure, TablePlain} {
		_, err = db.Exec(`
CREATE TABLE ` + table + ` (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
		require.NoError(t, err)
	}
	return db
}

func TestSQLite_TablesAreIndependent(t *testing.T) {
	db := setupDB(t)
	secure := NewSQLiteRepository(db, TableSecure)
	plain := NewSQLiteRepository(db, TablePlain)
	ctx := context.Background()

	require.NoError(t, secure.Set(ctx, "k", []byte("s")))
	require.NoError(t, plain.Set(ctx, "k", []byte("p")))
	require.NoError(t, plain.Delete(ctx, "k"))

	v, err := secure.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), v)

	v, err = plain.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSQLite_MoveRollsBackOnFailure(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, TableSecure)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "from", []byte("v")))

	// reject writes of the target key so the move fails halfway
	_, err := db.Exec(`
CREATE TRIGGER block_target BEFORE INSERT ON ` + TableSecure + `
WHEN NEW.key = 'to'
BEGIN
  SELECT RAISE(ABORT, 'blocked');
END;`)
	require.NoError(t, err)

	err = r.Move(ctx, "from", "to", []byte("v2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set secure_items[to]")

	v, err := r.Get(ctx, "from")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestSQLite_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db, TablePlain)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get plain_items[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set plain_items[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete plain_items[k]")

	err = r.Move(ctx, "k", "j", []byte("v"))
	require.ErrorContains(t, err, "begin tx")
}
