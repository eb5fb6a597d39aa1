package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBoltRepository_Validation(t *testing.T) {
	_, err := OpenBoltRepository("  ", "plain")
	require.ErrorContains(t, err, "storage path is required")

	_, err = OpenBoltRepository(filepath.Join(t.TempDir(), "x.db"), "")
	require.ErrorContains(t, err, "bucket name is required")
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")
	ctx := context.Background()

	r, err := OpenBoltRepository(path, "plain")
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, "user_profile", []byte(`{"id":"1"}`)))
	require.NoError(t, r.Close())

	r, err = OpenBoltRepository(path, "plain")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	v, err := r.Get(ctx, "user_profile")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"1"}`), v)
}

func TestBolt_CanceledContext(t *testing.T) {
	r, err := OpenBoltRepository(filepath.Join(t.TempDir(), "p.db"), "plain")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, r.Set(ctx, "k", []byte("v")), context.Canceled)
}

func TestBolt_CloseNilSafe(t *testing.T) {
	var r *BoltRepository
	assert.NoError(t, r.Close())
}
