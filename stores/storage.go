package stores

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	memorystore "realtime-gateway/stores/memory"
	redisstore "realtime-gateway/stores/redis"
)

// TaskLogStore reads the log lines backend workers have buffered for a
// task, so a late subscriber to a progress room can catch up on history.
// This process only ever reads; workers own the writes.
type TaskLogStore interface {
	Lines(ctx context.Context, taskID string) (map[string]string, error)
}

// GetTaskLogStore selects the task log backend from TASK_LOG_STORE.
// Redis is the default: it is the store the workers write to. The memory
// backend exists for local development without a worker fleet.
func GetTaskLogStore(rdb *redis.Client) TaskLogStore {
	storageType := os.Getenv("TASK_LOG_STORE")

	var store TaskLogStore
	switch storageType {
	case "memory":
		store = memorystore.NewTaskLogStore()
	default:
		storageType = "redis"
		store = redisstore.NewTaskLogStore(rdb)
	}
	logrus.WithField("storageType", storageType).Info("Use task log storage")
	return store
}
