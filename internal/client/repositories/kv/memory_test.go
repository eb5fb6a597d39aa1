package kv

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ConcurrentAccess(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			_ = r.Set(ctx, key, []byte{byte(i)})
			_, _ = r.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		v, err := r.Get(ctx, fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, v)
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	r := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, r.Set(ctx, "a", []byte{1}), context.Canceled)
	require.ErrorIs(t, r.Move(ctx, "a", "b", nil), context.Canceled)
}
