package service

import "sync"

// TaskRegistry maps task ids to finished output files. Entries are written
// once when processing completes and never evicted; retention is an
// operational concern outside this service.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]string
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]string)}
}

func (r *TaskRegistry) Put(taskID, outputPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskID] = outputPath
}

func (r *TaskRegistry) Get(taskID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.tasks[taskID]
	if !ok {
		return "", ErrTaskNotFound
	}
	return path, nil
}
