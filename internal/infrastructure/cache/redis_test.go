package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedBook struct {
	Code  string `json:"code"`
	Stock int    `json:"stock"`
}

// Requires a running Redis, e.g. TEST_REDIS_ADDR=localhost:6379.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rc := NewRedisCache(addr, "", 15)
	require.NoError(t, rc.Connect(ctx))
	t.Cleanup(func() { _ = rc.Close() })

	key := "test:lending:books:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { _ = rc.Delete(context.Background(), key) })

	var got []cachedBook
	found, err := rc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []cachedBook{{Code: "JK-45", Stock: 1}}
	require.NoError(t, rc.Set(ctx, key, want, time.Minute))

	found, err = rc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, rc.Delete(ctx, key))
	found, err = rc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, rc.Ping(ctx))
	assert.NoError(t, rc.Delete(ctx))
}
