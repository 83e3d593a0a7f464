package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("NewClient with empty key should fail")
	}
}

func TestClient_Complete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "a patch"}, "finish_reason": "stop"}],
			"usage": {"total_tokens": 42}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := client.Complete(context.Background(), "gpt-4o-mini", "fix the bug")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "a patch" {
		t.Errorf("Text = %q, want %q", got.Text, "a patch")
	}
	if got.TotalTokens != 42 {
		t.Errorf("TotalTokens = %d, want 42", got.TotalTokens)
	}

	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("request model = %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("request has %d messages, want exactly one user message", len(msgs))
	}
}

func TestClient_Complete_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Complete(context.Background(), "gpt-4o-mini", "fix"); err == nil {
		t.Fatal("Complete should surface backend errors")
	}
}

func TestClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [], "usage": {"total_tokens": 0}}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Complete(context.Background(), "gpt-4o-mini", "fix"); err == nil {
		t.Fatal("Complete with no choices should fail")
	}
}
