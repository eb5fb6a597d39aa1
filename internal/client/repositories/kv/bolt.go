package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"go.etcd.io/bbolt"
)

// BoltRepository stores key/value pairs in a single bbolt bucket.
type BoltRepository struct {
	db     *bbolt.DB
	bucket []byte
}

// OpenBoltRepository opens (or creates) the bbolt file at path and ensures
// bucket exists.
func OpenBoltRepository(path, bucket string) (*BoltRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	r := &BoltRepository{db: db, bucket: []byte(bucket)}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(r.bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return r, nil
}

// Close closes the underlying bbolt database.
func (r *BoltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *BoltRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := r.bucketOf(tx)
		if err != nil {
			return err
		}
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid for the life of the transaction
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", r.bucket, key, err)
	}
	return value, nil
}

func (r *BoltRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.bucketOf(tx)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.bucket, key, err)
	}
	return nil
}

func (r *BoltRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.bucketOf(tx)
		if err != nil {
			return err
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.bucket, key, err)
	}
	return nil
}

func (r *BoltRepository) Move(ctx context.Context, from, to string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := r.bucketOf(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(from)) == nil {
			return fmt.Errorf("move %s[%s]: %w", r.bucket, from, common.ErrorNotFound)
		}
		if err := b.Put([]byte(to), value); err != nil {
			return fmt.Errorf("failed to set %s[%s]: %w", r.bucket, to, err)
		}
		if from == to {
			return nil
		}
		return b.Delete([]byte(from))
	})
}

func (r *BoltRepository) bucketOf(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(r.bucket)
	if b == nil {
		return nil, fmt.Errorf("%s bucket is missing", r.bucket)
	}
	return b, nil
}
