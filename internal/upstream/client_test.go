package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adithyag/studytoolsgpt/internal/prompt"
)

type recordedRequest struct {
	Model          string `json:"model"`
	Temperature    float64
	Messages       []map[string]string `json:"messages"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string         `json:"name"`
			Strict bool           `json:"strict"`
			Schema map[string]any `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func chatServer(t *testing.T, content string, recorded *recordedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(recorded); err != nil {
			t.Errorf("Failed to decode upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		reply := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			t.Errorf("Encode failed: %v", err)
		}
	}))
}

func TestCompleteText(t *testing.T) {
	var recorded recordedRequest
	srv := chatServer(t, "an answer", &recorded)
	defer srv.Close()

	c := NewClient(srv.URL+"/v1", "test-key", "gpt-4.1-mini")
	got, err := c.CompleteText(context.Background(), "be helpful", []prompt.Turn{
		{Role: "user", Content: "hi"},
	}, 0.7)
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if got != "an answer" {
		t.Errorf("Expected content back, got %q", got)
	}

	if recorded.Model != "gpt-4.1-mini" {
		t.Errorf("Model not forwarded, got %q", recorded.Model)
	}
	if len(recorded.Messages) != 2 {
		t.Fatalf("Expected system + user message, got %d", len(recorded.Messages))
	}
	if recorded.Messages[0]["role"] != "system" || recorded.Messages[0]["content"] != "be helpful" {
		t.Errorf("Instruction not prepended as system message: %+v", recorded.Messages[0])
	}
	if recorded.ResponseFormat != nil {
		t.Error("Free-text call must not constrain the response format")
	}
}

func TestCompleteStructuredAttachesSchema(t *testing.T) {
	var recorded recordedRequest
	srv := chatServer(t, `{"title": "T"}`, &recorded)
	defer srv.Close()

	c := NewClient(srv.URL+"/v1", "test-key", "gpt-4.1-mini")
	raw, err := c.CompleteStructured(context.Background(), "be helpful", nil)
	if err != nil {
		t.Fatalf("CompleteStructured failed: %v", err)
	}
	if string(raw) != `{"title": "T"}` {
		t.Errorf("Raw payload should pass through untouched, got %s", raw)
	}

	if recorded.ResponseFormat == nil || recorded.ResponseFormat.Type != "json_schema" {
		t.Fatalf("Expected json_schema response format, got %+v", recorded.ResponseFormat)
	}
	js := recorded.ResponseFormat.JSONSchema
	if js == nil || js.Name != "cheat_sheet" || !js.Strict {
		t.Fatalf("Unexpected schema envelope: %+v", js)
	}
	required, ok := js.Schema["required"].([]any)
	if !ok || len(required) != 7 {
		t.Errorf("Schema should require all 7 document fields, got %v", js.Schema["required"])
	}
}

func TestCompleteTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		if _, err := w.Write([]byte(`{"error": {"message": "overloaded"}}`)); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gpt-4.1-mini")
	_, err := c.CompleteText(context.Background(), "x", nil, 0.7)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Expected ErrRequestFailed, got %v", err)
	}
}

func TestCompleteTextNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"choices": []}`)); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "gpt-4.1-mini")
	if _, err := c.CompleteText(context.Background(), "x", nil, 0.7); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Expected ErrRequestFailed, got %v", err)
	}
}
