package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const taskLogKeyPrefix = "task_log:"

// taskLogStore reads buffered task log lines from the shared Redis the
// backend workers write to. Lines live in a hash keyed by task id.
type taskLogStore struct {
	rdb *redis.Client
}

func NewTaskLogStore(rdb *redis.Client) *taskLogStore {
	return &taskLogStore{rdb: rdb}
}

// Lines returns every buffered line for a task. A task with no buffered
// history yields an empty map, not an error.
func (s *taskLogStore) Lines(ctx context.Context, taskID string) (map[string]string, error) {
	lines, err := s.rdb.HGetAll(ctx, taskLogKeyPrefix+taskID).Result()
	if err != nil {
		return nil, fmt.Errorf("reading task log for %s: %w", taskID, err)
	}
	return lines, nil
}
