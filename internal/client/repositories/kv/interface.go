package kv

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Move atomically stores value under to and removes from, replacing any
	// value already under to. It returns common.ErrorNotFound if from is
	// absent, leaving both keys untouched.
	Move(ctx context.Context, from, to string, value []byte) error
}
