package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestServer_Handler(t *testing.T) {
	AnalyzeRuns.WithLabelValues(OutcomeOK).Add(0)

	srv := httptest.NewServer(NewServer(":0", zerolog.Nop()).Handler())
	defer srv.Close()

	tests := []struct {
		path     string
		contains string
	}{
		{"/healthz", "OK"},
		{"/metrics", "agora_analyze_runs_total"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}
