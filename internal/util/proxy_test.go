package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.corp:3128", "", "localhost,127.0.0.1,.intern.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://localhost:11434/api/chat", ""},
		{"http://127.0.0.1:11434/api/chat", ""},
		{"http://ollama.intern.example:11434/api/chat", ""},
		{"http://api.example.com/v1", "http://proxy.corp:3128"},
		{"https://api.openai.com/v1/chat/completions", "http://proxy.corp:3128"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, tt.target, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("proxy(%s): %v", tt.target, err)
			}
			gotStr := ""
			if got != nil {
				gotStr = got.String()
			}
			if gotStr != tt.want {
				t.Errorf("proxy(%s) = %q, want %q", tt.target, gotStr, tt.want)
			}
		})
	}
}

func TestNewProxyFunc_SeparateHTTPSProxy(t *testing.T) {
	proxy := NewProxyFunc("http://plain.corp:3128", "http://tls.corp:3129", "")

	req, _ := http.NewRequest(http.MethodGet, "https://api.anthropic.com/v1/messages", nil)
	got, err := proxy(req)
	if err != nil || got == nil || got.Host != "tls.corp:3129" {
		t.Errorf("https request proxied via %v (err %v), want tls.corp:3129", got, err)
	}
}
