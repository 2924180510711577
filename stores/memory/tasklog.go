package memory

import (
	"context"
	"sync"
)

// taskLogStore is an in-memory task log for local development and tests.
type taskLogStore struct {
	mu    sync.RWMutex
	lines map[string]map[string]string
}

func NewTaskLogStore() *taskLogStore {
	return &taskLogStore{lines: make(map[string]map[string]string)}
}

// Append buffers a log line for a task. Only tests and local tooling
// write here; in production the workers write to Redis directly.
func (s *taskLogStore) Append(taskID, seq, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.lines[taskID]
	if !ok {
		task = make(map[string]string)
		s.lines[taskID] = task
	}
	task[seq] = line
}

func (s *taskLogStore) Lines(ctx context.Context, taskID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.lines[taskID]))
	for seq, line := range s.lines[taskID] {
		out[seq] = line
	}
	return out, nil
}
