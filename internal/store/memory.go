package store

import (
	"context"
	"sync"
	"time"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// Memory is an in-process Store used when no database is configured and in
// tests. Maps are guarded by a single mutex; task values are copied on the
// way in and out.
type Memory struct {
	mu        sync.Mutex
	tasks     map[string]task.Task
	protocols map[string][]llm.Message
	claimedAt map[string]time.Time
	order     []string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks:     make(map[string]task.Task),
		protocols: make(map[string][]llm.Message),
		claimedAt: make(map[string]time.Time),
	}
}

func (m *Memory) CreateTask(_ context.Context, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[t.ID]; !exists {
		m.order = append(m.order, t.ID)
	}
	m.tasks[t.ID] = t
	return nil
}

func (m *Memory) FetchOpenTasks(_ context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []task.Task
	for _, id := range m.order {
		if t := m.tasks[id]; t.Status == task.StatusOpen {
			open = append(open, t)
		}
	}
	return open, nil
}

func (m *Memory) ClaimTask(_ context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return false, ErrNotFound
	}
	if t.Status != task.StatusOpen {
		return false, nil
	}
	t.Status = task.StatusInProgress
	m.tasks[taskID] = t
	m.claimedAt[taskID] = time.Now()
	return true, nil
}

func (m *Memory) UpdateTaskStatus(_ context.Context, taskID string, status task.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	m.tasks[taskID] = t
	return nil
}

func (m *Memory) SaveCallProtocol(_ context.Context, taskID string, transcript []llm.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[taskID]; !ok {
		return ErrNotFound
	}
	cp := make([]llm.Message, len(transcript))
	copy(cp, transcript)
	m.protocols[taskID] = cp
	return nil
}

func (m *Memory) SaveOutcome(_ context.Context, taskID string, outcome task.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	o := outcome
	t.Outcome = &o
	m.tasks[taskID] = t
	return nil
}

func (m *Memory) ListResults(_ context.Context) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]Result, 0, len(m.order))
	for _, id := range m.order {
		t := m.tasks[id]
		results = append(results, Result{TaskID: t.ID, Status: t.Status, BookedAppointment: t.Outcome})
	}
	return results, nil
}

func (m *Memory) GetTask(_ context.Context, taskID string) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) GetCallProtocol(_ context.Context, taskID string) ([]llm.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.protocols[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]llm.Message, len(p))
	copy(cp, p)
	return cp, nil
}

func (m *Memory) ReclaimStale(_ context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	cutoff := time.Now().Add(-olderThan)
	for id, claimed := range m.claimedAt {
		t := m.tasks[id]
		if t.Status == task.StatusInProgress && claimed.Before(cutoff) {
			t.Status = task.StatusOpen
			m.tasks[id] = t
			delete(m.claimedAt, id)
			n++
		}
	}
	return n, nil
}
