package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesEmptyForUnknownTask(t *testing.T) {
	store := NewTaskLogStore()
	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAppendAndLines(t *testing.T) {
	store := NewTaskLogStore()
	store.Append("42", "1", "building")
	store.Append("42", "2", "testing")
	store.Append("43", "1", "other task")

	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "building", "2": "testing"}, lines)
}

func TestLinesReturnsCopy(t *testing.T) {
	store := NewTaskLogStore()
	store.Append("42", "1", "building")

	lines, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	lines["1"] = "mutated"

	again, err := store.Lines(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "building", again["1"])
}
