package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/agora/internal/model"
)

func analyzeTempo30(t *testing.T) *model.AnalyzeResponse {
	t.Helper()
	a := NewAnalyzer(&stubRunner{raw: tempo30Answer}, WithClock(fixedClock))
	resp, err := a.Analyze(context.Background(), Request{Text: tempo30Input})
	require.NoError(t, err)
	return resp
}

func TestRenderer_JSON(t *testing.T) {
	resp := analyzeTempo30(t)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true, "de").JSON(&buf, resp))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"claims", "editorialAudit", "evidenceGraph", "runReceipt", "_meta"} {
		assert.Contains(t, doc, key)
	}
	meta := doc["_meta"].(map[string]any)
	trace := meta["trace"].(map[string]any)
	assert.Equal(t, "fence", trace["jsonCoercion"])
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""))
}

func TestRenderer_Markdown(t *testing.T) {
	resp := analyzeTempo30(t)

	tests := []struct {
		name     string
		locale   string
		footer   bool
		contains []string
		absent   []string
	}{
		{
			name:   "german with footer",
			locale: "de",
			footer: true,
			contains: []string{
				"# Debattenanalyse",
				"## Aussagen (1)",
				"**c1** Mehr Tempo-30-Zonen",
				"verkehr, Kommune",
				"## Zentrale Konflikte",
				"Welche Straßen vor Schulen",
				"## Redaktioneller Audit",
				"## Laufbeleg",
				resp.RunReceipt.ID,
				"Erstellt mit agora",
			},
		},
		{
			name:     "english without footer",
			locale:   "en",
			contains: []string{"# Debate analysis", "## Statements (1)", "## Run receipt"},
			absent:   []string{"Generated by agora", "Debattenanalyse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewRenderer(tt.footer, tt.locale).Markdown(&buf, resp))
			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderer_WriteFiles(t *testing.T) {
	resp := analyzeTempo30(t)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "result.json")
	mdPath := filepath.Join(dir, "out", "result.md")

	require.NoError(t, NewRenderer(false, "de").WriteFiles(resp, jsonPath, mdPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), resp.RunReceipt.ReceiptHash)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Debattenanalyse")

	require.NoError(t, NewRenderer(false, "de").WriteFiles(resp, "", ""))
}
