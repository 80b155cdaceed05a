// Package llm wraps the remote model endpoint behind a stateful conversation
// session. The endpoint is an API gateway that holds no state itself: every
// request carries the full transcript, and every response echoes the
// transcript back. The echoed history replaces the held one, since the
// endpoint may rewrite or compact it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message roles on the wire.
const (
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolResult = "tool_result"
)

// Message is one transcript turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolProperty describes one named argument of a tool.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolInputSchema enumerates a tool's arguments and its required-field set.
type ToolInputSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

// ToolSchema is one entry of the tool catalog sent with every request.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"input_schema"`
}

// ToolUse is a tool-invocation request emitted by the model.
type ToolUse struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
	ID    string          `json:"id"`
}

// Reply is the result of one session advance: either generated text or a
// tool-invocation request (never both meaningfully at once; ToolUse wins).
type Reply struct {
	Text    string
	ToolUse *ToolUse
}

type requestPayload struct {
	Prompt     string          `json:"prompt,omitempty"`
	ModelID    string          `json:"modelId"`
	Messages   []Message       `json:"messages"`
	Tools      []ToolSchema    `json:"tools"`
	ToolResult *wireToolResult `json:"toolResult,omitempty"`
}

type wireToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

// responseEnvelope wraps the gateway response; Body is itself JSON, encoded
// as a string.
type responseEnvelope struct {
	Body string `json:"body"`
}

type responseBody struct {
	GeneratedText       string    `json:"generated_text"`
	ToolUse             *ToolUse  `json:"tool_use"`
	ConversationHistory []Message `json:"conversation_history"`
}

// Session holds the conversation state for one orchestrator run. It is not
// safe for concurrent use; each run owns exactly one session.
type Session struct {
	HTTPClient *http.Client
	Endpoint   string
	ModelID    string

	history []Message
	tools   []ToolSchema
}

// NewSession creates a session against the given endpoint with a snapshot of
// the tool catalog.
func NewSession(endpoint, modelID string, tools []ToolSchema) *Session {
	return &Session{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Endpoint:   endpoint,
		ModelID:    modelID,
		tools:      tools,
	}
}

// History returns the transcript as echoed by the endpoint so far.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Advance appends one text input (seed prompt or transcribed utterance) and
// returns the model's reply. On transport failure the transcript is left
// unchanged and the error is returned; the caller decides how to degrade.
func (s *Session) Advance(ctx context.Context, input string) (Reply, error) {
	return s.roundTrip(ctx, requestPayload{
		Prompt:   input,
		ModelID:  s.ModelID,
		Messages: s.history,
		Tools:    s.tools,
	})
}

// AdvanceToolResult feeds the result of a tool invocation back into the
// conversation, correlated by the invocation id. It must be called exactly
// once per ToolUse before the session advances again.
func (s *Session) AdvanceToolResult(ctx context.Context, invocationID, result string) (Reply, error) {
	return s.roundTrip(ctx, requestPayload{
		ModelID:    s.ModelID,
		Messages:   s.history,
		Tools:      s.tools,
		ToolResult: &wireToolResult{ToolUseID: invocationID, Content: result},
	})
}

func (s *Session) roundTrip(ctx context.Context, payload requestPayload) (Reply, error) {
	if s.Endpoint == "" {
		return Reply{}, fmt.Errorf("llm endpoint missing")
	}

	reqBody, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Reply{}, fmt.Errorf("llm endpoint error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var env responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Reply{}, fmt.Errorf("llm endpoint: malformed envelope: %w", err)
	}

	// A malformed inner body is non-fatal: treat it as an empty reply so the
	// conversation can continue with degraded context.
	var body responseBody
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		return Reply{}, nil
	}

	// The endpoint is authoritative for the transcript.
	if body.ConversationHistory != nil {
		s.history = body.ConversationHistory
	}

	if body.ToolUse != nil {
		return Reply{ToolUse: body.ToolUse}, nil
	}
	return Reply{Text: strings.TrimSpace(body.GeneratedText)}, nil
}
