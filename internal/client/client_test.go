package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adithyag/studytoolsgpt/internal/domain"
)

func respondServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/respond" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		var req struct {
			ModeLabel string            `json:"modeLabel"`
			Messages  []domain.ChatTurn `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Proxy received malformed payload: %v", err)
		}
		if req.Messages == nil {
			t.Error("Messages must always be an array, never null")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}))
}

func TestRespondTextReply(t *testing.T) {
	srv := respondServer(t, http.StatusOK, `{"kind": "text", "text": "hello"}`)
	defer srv.Close()

	reply, err := NewHTTPClient(srv.URL).Respond(context.Background(), "Explain", nil)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if reply.Kind != domain.KindText || reply.Text != "hello" {
		t.Errorf("Unexpected reply: %+v", reply)
	}
}

func TestRespondStructuredReply(t *testing.T) {
	body := `{"kind": "structured", "document": {
		"title": "T", "overview": "O",
		"sections": [], "formulas": [], "common_mistakes": [],
		"mini_examples": [], "practice": []
	}}`
	srv := respondServer(t, http.StatusOK, body)
	defer srv.Close()

	reply, err := NewHTTPClient(srv.URL).Respond(context.Background(), "Cheat Sheet", []domain.ChatTurn{
		{Role: domain.RoleUser, Text: "derivatives"},
	})
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if reply.Kind != domain.KindStructured || reply.Document == nil || reply.Document.Title != "T" {
		t.Errorf("Unexpected reply: %+v", reply)
	}
}

func TestRespondMalformedStructuredReplyRejected(t *testing.T) {
	srv := respondServer(t, http.StatusOK, `{"kind": "structured", "document": {"title": "T"}}`)
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL).Respond(context.Background(), "Cheat Sheet", nil); err == nil {
		t.Fatal("A structured reply failing validation must be rejected at the boundary")
	}
}

func TestRespondServerError(t *testing.T) {
	srv := respondServer(t, http.StatusInternalServerError, `{"error": "model unavailable"}`)
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Respond(context.Background(), "Explain", nil)
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("Expected the server's error message, got %v", err)
	}
}

func TestRespondUnknownKind(t *testing.T) {
	srv := respondServer(t, http.StatusOK, `{"kind": "mystery"}`)
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL).Respond(context.Background(), "Explain", nil); err == nil {
		t.Fatal("Unknown reply kind must be rejected")
	}
}

func TestRespondCancelled(t *testing.T) {
	srv := respondServer(t, http.StatusOK, `{"kind": "text", "text": "hi"}`)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPClient(srv.URL).Respond(ctx, "Explain", nil); err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"ok": true, "time": "2024-05-01T12:00:00Z"}`)); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}))
	defer srv.Close()

	if err := NewHTTPClient(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
