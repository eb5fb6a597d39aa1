package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh, empty repository of every implementation.
func backends(t *testing.T) map[string]Repository {
	t.Helper()

	bolt, err := OpenBoltRepository(filepath.Join(t.TempDir(), "plain.db"), "plain")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]Repository{
		"sqlite": NewSQLiteRepository(setupDB(t), TableSecure),
		"bolt":   bolt,
		"memory": NewMemoryRepository(),
	}
}

func TestRepository_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Set(ctx, "k", []byte("old")))
			require.NoError(t, r.Set(ctx, "k", []byte("new")))

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), v)
		})
	}
}

func TestRepository_GetMissingReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := r.Get(ctx, "absent")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestRepository_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
			require.NoError(t, r.Delete(ctx, "x"))
			require.NoError(t, r.Delete(ctx, "x"))

			v, err := r.Get(ctx, "x")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestRepository_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Set(ctx, "a", []byte{0xAA}))
			require.NoError(t, r.Set(ctx, "b", []byte{0xBB, 0xCC}))
			require.NoError(t, r.Delete(ctx, "a"))

			v, err := r.Get(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = r.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, []byte{0xBB, 0xCC}, v)
		})
	}
}

func TestRepository_Move(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Set(ctx, "from", []byte("old")))
			require.NoError(t, r.Set(ctx, "to", []byte("stale")))

			require.NoError(t, r.Move(ctx, "from", "to", []byte("resealed")))

			v, err := r.Get(ctx, "from")
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = r.Get(ctx, "to")
			require.NoError(t, err)
			assert.Equal(t, []byte("resealed"), v)
		})
	}
}

func TestRepository_MoveSameKeyReplacesValue(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, r.Set(ctx, "k", []byte("v1")))
			require.NoError(t, r.Move(ctx, "k", "k", []byte("v2")))

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), v)
		})
	}
}

func TestRepository_MoveMissing(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := r.Move(ctx, "nope", "other", []byte("v"))
			require.ErrorIs(t, err, common.ErrorNotFound)

			v, err := r.Get(ctx, "other")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestRepository_ReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	for name, r := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := []byte("abc")
			require.NoError(t, r.Set(ctx, "k", in))
			in[0] = 'z'

			v, err := r.Get(ctx, "k")
			require.NoError(t, err)
			v[1] = 'z'

			again, err := r.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("abc"), again)
		})
	}
}
