package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/dbx"
)

// Tables created by the client migrations.
const (
	TableSecure = "secure_items"
	TablePlain  = "plain_items"
)

// SQLiteRepository stores key/value pairs in one table with the schema
// (key TEXT PRIMARY KEY, value BLOB NOT NULL).
type SQLiteRepository struct {
	db    *sql.DB
	table string
	ident string
}

func NewSQLiteRepository(db *sql.DB, table string) *SQLiteRepository {
	return &SQLiteRepository{
		db:    db,
		table: table,
		ident: `"` + strings.ReplaceAll(table, `"`, `""`) + `"`,
	}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	return r.get(ctx, r.db, key)
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.set(ctx, r.db, key, value)
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	return r.delete(ctx, r.db, key)
}

// Move runs the existence check, write and delete in a single transaction.
func (r *SQLiteRepository) Move(ctx context.Context, from, to string, value []byte) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.Querier) error {
		old, err := r.get(ctx, tx, from)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("move %s[%s]: %w", r.table, from, common.ErrorNotFound)
		}
		if err := r.set(ctx, tx, to, value); err != nil {
			return err
		}
		if from == to {
			return nil
		}
		return r.delete(ctx, tx, from)
	})
}

func (r *SQLiteRepository) get(ctx context.Context, q dbx.Querier, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM `+r.ident+` WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", r.table, key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) set(ctx context.Context, q dbx.Querier, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO `+r.ident+` (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.table, key, err)
	}
	return nil
}

func (r *SQLiteRepository) delete(ctx context.Context, q dbx.Querier, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM `+r.ident+` WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.table, key, err)
	}
	return nil
}
