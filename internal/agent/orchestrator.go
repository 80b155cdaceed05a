// Package agent contains the call agent: the conversation orchestrator that
// drives one phone call per task, and the poller that feeds it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// defaultMaxTurns bounds the conversation when no limit is configured, so a
// model that never emits the termination marker cannot loop forever.
const defaultMaxTurns = 30

// SessionFactory creates a fresh Session for one orchestrator run.
type SessionFactory func() Session

// Orchestrator drives the turn-based dialogue for a single task: it seeds
// the session with task context and persona, alternates between speaking the
// agent's reply and capturing the counterpart's answer, routes tool
// invocations, detects the termination marker and extracts the outcome.
type Orchestrator struct {
	NewSession  SessionFactory
	Tools       Dispatcher
	Transcriber Transcriber
	Speaker     Speaker
	Store       Store
	Dialer      Dialer   // optional
	Archive     Archiver // optional
	MaxTurns    int
}

// Run conducts the whole call for a claimed task. The task ends in status
// finished or error; it is never left in_progress by a clean run.
func (o *Orchestrator) Run(ctx context.Context, t task.Task) error {
	maxTurns := o.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	if o.Dialer != nil {
		if err := o.Dialer.Dial(ctx, t.ID); err != nil {
			log.Printf("task %s: dial failed: %v", t.ID, err)
			return o.fail(ctx, t, nil, fmt.Errorf("dial: %w", err))
		}
	}

	sess := o.NewSession()

	// SEEDING
	reply, err := sess.Advance(ctx, seedPrompt(t))
	if err != nil {
		reply = llm.Reply{Text: transportSurrogate(err)}
	}

	for turn := 0; ; turn++ {
		if turn >= maxTurns {
			log.Printf("task %s: turn limit %d reached", t.ID, maxTurns)
			return o.finish(ctx, t, sess, task.Unsuccessful("turn limit reached"), task.StatusError)
		}

		// DISPATCHING_TOOL: a tool-invocation turn is never surfaced to the
		// voice channel; dispatch, then re-advance with the correlated
		// result first. The model may chain several invocations.
		for reply.ToolUse != nil {
			inv := reply.ToolUse
			log.Printf("task %s: tool invocation %s (%s)", t.ID, inv.Name, inv.ID)
			result := o.Tools.Dispatch(ctx, inv)
			reply, err = sess.AdvanceToolResult(ctx, inv.ID, result)
			if err != nil {
				reply = llm.Reply{Text: transportSurrogate(err)}
			}
		}

		// TERMINATING
		if spoken, payload, finished := splitTermination(reply.Text); finished {
			if err := o.Speaker.Speak(ctx, spoken); err != nil {
				return o.fail(ctx, t, sess, fmt.Errorf("speech synthesis: %w", err))
			}
			outcome, perr := parseOutcome(payload)
			if perr != nil {
				log.Printf("task %s: %v", t.ID, perr)
				return o.finish(ctx, t, sess, task.Unsuccessful(perr.Error()), task.StatusError)
			}
			return o.finish(ctx, t, sess, outcome, task.StatusFinished)
		}

		if err := o.Speaker.Speak(ctx, reply.Text); err != nil {
			return o.fail(ctx, t, sess, fmt.Errorf("speech synthesis: %w", err))
		}

		// AWAITING_COUNTERPART
		utterance, err := o.Transcriber.Capture(ctx)
		if err != nil {
			return o.fail(ctx, t, sess, fmt.Errorf("transcription: %w", err))
		}
		log.Printf("task %s: heard: %s", t.ID, utterance)

		reply, err = sess.Advance(ctx, utterance)
		if err != nil {
			reply = llm.Reply{Text: transportSurrogate(err)}
		}
	}
}

// finish is the DONE state: persist transcript and outcome, then transition
// the task to its terminal status.
func (o *Orchestrator) finish(ctx context.Context, t task.Task, sess Session, outcome task.Outcome, status task.Status) error {
	transcript := sess.History()
	if err := o.Store.SaveCallProtocol(ctx, t.ID, transcript); err != nil {
		log.Printf("task %s: save protocol: %v", t.ID, err)
	}
	if err := o.Store.SaveOutcome(ctx, t.ID, outcome); err != nil {
		log.Printf("task %s: save outcome: %v", t.ID, err)
	}
	if err := o.Store.UpdateTaskStatus(ctx, t.ID, status); err != nil {
		return fmt.Errorf("task %s: status update: %w", t.ID, err)
	}
	o.archive(t.ID, transcript)
	log.Printf("task %s: done, status=%s task_status=%s date=%s time=%s",
		t.ID, status, outcome.TaskStatus, outcome.AppointmentDate, outcome.AppointmentTime)
	return nil
}

// fail marks the task as errored after a fatal conversation problem (speech
// I/O, dial). The transcript collected so far is still persisted.
func (o *Orchestrator) fail(ctx context.Context, t task.Task, sess Session, cause error) error {
	log.Printf("task %s: conversation failed: %v", t.ID, cause)
	if sess != nil {
		if err := o.Store.SaveCallProtocol(ctx, t.ID, sess.History()); err != nil {
			log.Printf("task %s: save protocol: %v", t.ID, err)
		}
	}
	if err := o.Store.UpdateTaskStatus(ctx, t.ID, task.StatusError); err != nil {
		log.Printf("task %s: status update: %v", t.ID, err)
	}
	return cause
}

func (o *Orchestrator) archive(taskID string, transcript []llm.Message) {
	if o.Archive == nil {
		return
	}
	blob, err := json.Marshal(transcript)
	if err != nil {
		log.Printf("task %s: archive marshal: %v", taskID, err)
		return
	}
	key := fmt.Sprintf("protocols/%s.json", taskID)
	if err := o.Archive.Upload(key, "application/json", blob); err != nil {
		log.Printf("task %s: archive upload: %v", taskID, err)
		return
	}
	log.Printf("task %s: protocol archived as %s", taskID, key)
}

// transportSurrogate turns an endpoint failure into a substitute text turn so
// the conversation can continue or gracefully fail at the next termination
// check.
func transportSurrogate(err error) string {
	return fmt.Sprintf("[CLIENT ERROR] Anfrage fehlgeschlagen: %v", err)
}
