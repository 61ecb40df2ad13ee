package decision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAICollaboratorComplete(t *testing.T) {
	var gotAuth, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) == 2 {
			gotPrompt = body.Messages[1].Content
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" {\"action_id\":\"smash\"} "}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAICollaborator("key-1", "", "state={{context}}")
	o.BaseURL = srv.URL
	out, err := o.Complete(context.Background(), ogreContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"action_id":"smash"}` {
		t.Fatalf("unexpected content %q", out)
	}
	if gotAuth != "Bearer key-1" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.HasPrefix(gotPrompt, "state={") || !strings.Contains(gotPrompt, `"actor_id":"ogre"`) {
		t.Fatalf("prompt missing context: %q", gotPrompt)
	}
}

func TestOpenAICollaboratorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	o := NewOpenAICollaborator("key-1", "m", "")
	o.BaseURL = srv.URL
	if _, err := o.Complete(context.Background(), ogreContext()); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}

	if _, err := NewOpenAICollaborator("", "", "").Complete(context.Background(), ogreContext()); err == nil {
		t.Fatalf("expected missing key error")
	}
}
