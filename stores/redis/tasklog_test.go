package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*taskLogStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTaskLogStore(rdb), mr
}

func TestLinesReadsTaskLogHash(t *testing.T) {
	store, mr := setupStore(t)
	mr.HSet("task_log:42", "1", "building", "2", "testing")

	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "building", "2": "testing"}, lines)
}

func TestLinesEmptyForUnknownTask(t *testing.T) {
	store, _ := setupStore(t)

	lines, err := store.Lines(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLinesScopedByTaskID(t *testing.T) {
	store, mr := setupStore(t)
	mr.HSet("task_log:42", "1", "task 42")
	mr.HSet("task_log:43", "1", "task 43")

	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "task 42"}, lines)
}
