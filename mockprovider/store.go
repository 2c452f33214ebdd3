package mock_provider

import (
	"sync"

	"github.com/google/uuid"
)

// TaskStore keeps submitted tasks in memory together with how many times
// each has been polled, which drives the scripted state progression.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*TaskRecord
}

type TaskRecord struct {
	ID     string
	Prompt string
	Polls  int
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*TaskRecord),
	}
}

func (s *TaskStore) Create(prompt string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.tasks[id] = &TaskRecord{ID: id, Prompt: prompt}
	return id
}

func (s *TaskStore) Poll(id string) (TaskRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tasks[id]
	if !ok {
		return TaskRecord{}, false
	}
	record.Polls++
	return *record, true
}
