package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// TerminationMarker is the literal token signaling the model has ended the
// call and is emitting its structured outcome.
const TerminationMarker = "FINISHED_CALL"

// splitTermination splits an agent reply at the termination marker. The text
// before the marker is the final spoken sentence, the text after it is the
// outcome payload.
func splitTermination(reply string) (spoken, payload string, found bool) {
	idx := strings.Index(reply, TerminationMarker)
	if idx < 0 {
		return "", "", false
	}
	spoken = strings.TrimSpace(reply[:idx])
	payload = strings.TrimSpace(reply[idx+len(TerminationMarker):])
	return spoken, payload, true
}

// parseOutcome decodes the terminal JSON payload. Slightly broken JSON is
// repaired first; a payload that still cannot be decoded or misses the status
// key is an error, which callers record as an unsuccessful outcome.
func parseOutcome(payload string) (task.Outcome, error) {
	var o task.Outcome
	if err := json.Unmarshal([]byte(payload), &o); err != nil {
		repaired, repErr := jsonrepair.JSONRepair(payload)
		if repErr != nil {
			return task.Outcome{}, fmt.Errorf("outcome payload unparseable: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &o); err != nil {
			return task.Outcome{}, fmt.Errorf("outcome payload unparseable after repair: %w", err)
		}
	}

	switch o.TaskStatus {
	case task.ResultSuccessful, task.ResultUnsuccessful:
	default:
		return task.Outcome{}, fmt.Errorf("outcome payload missing task_status: %q", o.TaskStatus)
	}
	if o.AppointmentDate == "" {
		o.AppointmentDate = task.NotAvailable
	}
	if o.AppointmentTime == "" {
		o.AppointmentTime = task.NotAvailable
	}
	return o, nil
}
