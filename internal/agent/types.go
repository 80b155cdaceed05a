package agent

import (
	"context"
	"time"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// Transcriber captures one finalized utterance from the counterpart, blocking
// until the silence-based turn boundary is detected.
type Transcriber interface {
	Capture(ctx context.Context) (string, error)
}

// Speaker synthesizes agent text and blocks until playback completes.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Session is the conversation session driven by one orchestrator run.
type Session interface {
	Advance(ctx context.Context, input string) (llm.Reply, error)
	AdvanceToolResult(ctx context.Context, invocationID, result string) (llm.Reply, error)
	History() []llm.Message
}

// Dispatcher executes a tool invocation and returns the result payload to be
// fed back into the transcript.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv *llm.ToolUse) string
}

// Store is the task-store surface the orchestrator and poller need.
type Store interface {
	FetchOpenTasks(ctx context.Context) ([]task.Task, error)
	ClaimTask(ctx context.Context, taskID string) (bool, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status task.Status) error
	SaveCallProtocol(ctx context.Context, taskID string, transcript []llm.Message) error
	SaveOutcome(ctx context.Context, taskID string, outcome task.Outcome) error
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Dialer places the outbound phone call before the conversation starts.
type Dialer interface {
	Dial(ctx context.Context, taskID string) error
}

// Archiver stores the finished call protocol outside the database.
type Archiver interface {
	Upload(objectKey, contentType string, body []byte) error
}
