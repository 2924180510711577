package stores

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTaskLogStoreMemory(t *testing.T) {
	t.Setenv("TASK_LOG_STORE", "memory")

	store := GetTaskLogStore(nil)
	require.NotNil(t, store)

	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestGetTaskLogStoreDefaultsToRedis(t *testing.T) {
	t.Setenv("TASK_LOG_STORE", "")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.HSet("task_log:42", "1", "building")

	store := GetTaskLogStore(rdb)
	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "building"}, lines)
}
