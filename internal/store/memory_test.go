package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

func newTask(id string) task.Task {
	return task.Task{
		ID:                id,
		UserID:            "u-1",
		DoctorID:          "d-1",
		AppointmentReason: "Kontrolle",
		AppointmentDate:   "2025-04-01",
		TimeRangeStart:    "09:00",
		TimeRangeEnd:      "12:00",
		Status:            task.StatusOpen,
		CreatedAt:         time.Now(),
	}
}

func TestMemory_ClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTask(ctx, newTask("t-1")))

	claimed, err := m.ClaimTask(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second claim of the same task must lose.
	claimed, err = m.ClaimTask(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, claimed)

	open, err := m.FetchOpenTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMemory_StatusAndOutcomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTask(ctx, newTask("t-1")))

	_, err := m.ClaimTask(ctx, "t-1")
	require.NoError(t, err)

	outcome := task.Outcome{TaskStatus: task.ResultSuccessful, AppointmentDate: "2025-04-01", AppointmentTime: "09:30"}
	require.NoError(t, m.SaveOutcome(ctx, "t-1", outcome))
	require.NoError(t, m.UpdateTaskStatus(ctx, "t-1", task.StatusFinished))

	got, err := m.GetTask(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFinished, got.Status)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, "09:30", got.Outcome.AppointmentTime)

	results, err := m.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t-1", results[0].TaskID)
}

func TestMemory_ProtocolRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTask(ctx, newTask("t-1")))

	transcript := []llm.Message{
		{Role: llm.RoleUser, Content: "seed"},
		{Role: llm.RoleAssistant, Content: "Guten Tag"},
	}
	require.NoError(t, m.SaveCallProtocol(ctx, "t-1", transcript))

	got, err := m.GetCallProtocol(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, transcript, got)

	_, err = m.GetCallProtocol(ctx, "t-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReclaimStale(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTask(ctx, newTask("t-1")))
	_, err := m.ClaimTask(ctx, "t-1")
	require.NoError(t, err)

	// Backdate the claim so it counts as stale.
	m.mu.Lock()
	m.claimedAt["t-1"] = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	n, err := m.ReclaimStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	open, err := m.FetchOpenTasks(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "t-1", open[0].ID)
}

func TestMemory_UnknownTask(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.ClaimTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.UpdateTaskStatus(ctx, "missing", task.StatusError), ErrNotFound)
	assert.ErrorIs(t, m.SaveCallProtocol(ctx, "missing", nil), ErrNotFound)
}
