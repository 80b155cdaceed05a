package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func envelope(t *testing.T, body responseBody) string {
	t.Helper()
	inner, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal inner body: %v", err)
	}
	outer, err := json.Marshal(responseEnvelope{Body: string(inner)})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(outer)
}

func TestAdvance_TextReplyAndHistoryReplacement(t *testing.T) {
	var gotPayload requestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		resp := envelope(t, responseBody{
			GeneratedText: "Guten Tag, hier ist FlexiTime.",
			ConversationHistory: []Message{
				{Role: RoleUser, Content: "seed"},
				{Role: RoleAssistant, Content: "Guten Tag, hier ist FlexiTime."},
			},
		})
		_, _ = w.Write([]byte(resp))
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "model-x", nil)
	reply, err := s.Advance(context.Background(), "seed")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if reply.Text != "Guten Tag, hier ist FlexiTime." {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
	if gotPayload.Prompt != "seed" || gotPayload.ModelID != "model-x" {
		t.Fatalf("unexpected request payload: %+v", gotPayload)
	}
	// The held transcript must be the one echoed by the endpoint.
	if h := s.History(); len(h) != 2 || h[1].Role != RoleAssistant {
		t.Fatalf("history not replaced from endpoint: %+v", h)
	}
}

func TestAdvance_ToolUseReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := envelope(t, responseBody{
			ToolUse: &ToolUse{Name: "get_current_weather", Input: json.RawMessage(`{"location":"Stuttgart"}`), ID: "toolu_1"},
		})
		_, _ = w.Write([]byte(resp))
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "model-x", nil)
	reply, err := s.Advance(context.Background(), "wie ist das Wetter")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if reply.ToolUse == nil || reply.ToolUse.Name != "get_current_weather" || reply.ToolUse.ID != "toolu_1" {
		t.Fatalf("expected tool use reply, got %+v", reply)
	}
}

func TestAdvanceToolResult_CarriesInvocationID(t *testing.T) {
	var gotPayload requestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(envelope(t, responseBody{GeneratedText: "ok"})))
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "model-x", nil)
	if _, err := s.AdvanceToolResult(context.Background(), "toolu_1", `{"status":"scheduled"}`); err != nil {
		t.Fatalf("advance tool result: %v", err)
	}
	if gotPayload.ToolResult == nil || gotPayload.ToolResult.ToolUseID != "toolu_1" {
		t.Fatalf("tool result not correlated: %+v", gotPayload.ToolResult)
	}
	if gotPayload.Prompt != "" {
		t.Fatalf("tool result round must not carry a prompt, got %q", gotPayload.Prompt)
	}
}

func TestAdvance_TransportErrorLeavesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(envelope(t, responseBody{
			GeneratedText:       "hallo",
			ConversationHistory: []Message{{Role: RoleAssistant, Content: "hallo"}},
		})))
	}))

	s := NewSession(srv.URL, "model-x", nil)
	if _, err := s.Advance(context.Background(), "hi"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	before := s.History()

	srv.Close() // endpoint becomes unreachable
	s.HTTPClient = &http.Client{Timeout: 200 * time.Millisecond}
	if _, err := s.Advance(context.Background(), "noch da?"); err == nil {
		t.Fatalf("expected transport error")
	}
	after := s.History()
	if len(after) != len(before) {
		t.Fatalf("history changed on transport failure: %d -> %d", len(before), len(after))
	}
}

func TestAdvance_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr bool
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }, true},
		{"bad_envelope", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not-json")) }, true},
		// A malformed inner body degrades to an empty reply instead of failing.
		{"bad_inner_body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"body":"not-json"}`)) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			s := NewSession(srv.URL, "model-x", nil)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			reply, err := s.Advance(ctx, "hi")
			if tc.wantErr && err == nil {
				t.Fatalf("expected error; got nil")
			}
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if reply.Text != "" || reply.ToolUse != nil {
					t.Fatalf("expected empty reply, got %+v", reply)
				}
			}
		})
	}
}

func TestAdvance_NoEndpoint(t *testing.T) {
	s := NewSession("", "model-x", nil)
	if _, err := s.Advance(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error with missing endpoint")
	}
}
