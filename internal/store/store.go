// Package store persists call tasks, transcripts and outcomes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// ErrNotFound is returned when a task or protocol does not exist.
var ErrNotFound = errors.New("store: not found")

// Result is one row of the task-results listing.
type Result struct {
	TaskID            string        `json:"task_id"`
	Status            task.Status   `json:"status_code"`
	BookedAppointment *task.Outcome `json:"booked_appointment"`
}

// Store is the task store consumed by the intake API, the poller and the
// conversation orchestrator.
type Store interface {
	// CreateTask inserts a new task with status open.
	CreateTask(ctx context.Context, t task.Task) error
	// FetchOpenTasks returns all tasks with status open.
	FetchOpenTasks(ctx context.Context) ([]task.Task, error)
	// ClaimTask atomically transitions a task open -> in_progress. It
	// returns false when the task was already claimed by someone else.
	ClaimTask(ctx context.Context, taskID string) (bool, error)
	// UpdateTaskStatus sets the terminal status of a task.
	UpdateTaskStatus(ctx context.Context, taskID string, status task.Status) error
	// SaveCallProtocol persists the full conversation transcript.
	SaveCallProtocol(ctx context.Context, taskID string, transcript []llm.Message) error
	// SaveOutcome persists the structured call outcome.
	SaveOutcome(ctx context.Context, taskID string, outcome task.Outcome) error
	// ListResults returns id, status and booked appointment for every task.
	ListResults(ctx context.Context) ([]Result, error)
	// GetTask returns a single task by id.
	GetTask(ctx context.Context, taskID string) (task.Task, error)
	// GetCallProtocol returns the persisted transcript of a task.
	GetCallProtocol(ctx context.Context, taskID string) ([]llm.Message, error)
	// ReclaimStale moves in_progress tasks whose claim is older than the
	// given age back to open, returning how many were reclaimed.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
}
