package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream || req.Format != "json" || req.System != "system prompt" || req.Options.NumPredict != 800 {
			t.Errorf("unexpected request %+v", req)
		}

		resp := ollamaResponse{
			Model:           "llama3.1",
			Response:        `{"claims":[]}`,
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	got, err := provider.Complete(context.Background(), CompletionRequest{System: "system prompt", User: "user prompt", MaxTokens: 800, JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != `{"claims":[]}` || got.TokensIn != 10 || got.TokensOut != 20 {
		t.Errorf("Unexpected completion: %+v", got)
	}
}

func TestOllamaProvider_Complete_EstimatesTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Model: "mistral", Response: "12345678", Done: true})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "mistral"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := provider.Complete(context.Background(), CompletionRequest{System: "1234", User: "12345678"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.TokensIn != 3 || got.TokensOut != 2 {
		t.Errorf("expected estimated 3/2 tokens, got %d/%d", got.TokensIn, got.TokensOut)
	}
}

func TestOllamaProvider_Complete_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"api error", http.StatusInternalServerError, `{"error": "model not found"}`, KindTransport},
		{"malformed body", http.StatusOK, `{malformed json`, KindTransport},
		{"empty response", http.StatusOK, `{"model":"llama3.1","response":"","done":true}`, KindEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
			if err != nil {
				t.Fatalf("Failed to create provider: %v", err)
			}

			_, err = provider.Complete(context.Background(), CompletionRequest{User: "x"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if kind := ErrorKind(err); kind != tt.wantKind {
				t.Errorf("ErrorKind = %s, want %s (err: %v)", kind, tt.wantKind, err)
			}
		})
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"models": []}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be unavailable after shutdown")
	}
}

func TestNewOllamaProvider_NoModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}); err == nil {
		t.Error("Expected error when no model is configured")
	}
}
