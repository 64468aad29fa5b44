package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/validate"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		omit []string
		want string
	}{
		{"sorted keys", map[string]any{"b": 1, "a": map[string]any{"d": true, "c": nil}}, nil, `{"a":{"c":null,"d":true},"b":1}`},
		{"utc dates", map[string]any{"t": "2025-03-01T10:00:00+02:00"}, nil, `{"t":"2025-03-01T08:00:00Z"}`},
		{"plain strings untouched", []any{"2025-03-01", "<b>&"}, nil, `["2025-03-01","<b>&"]`},
		{"omitted keys at depth", map[string]any{"a": map[string]any{"createdAt": "x", "k": 1}}, []string{"createdAt"}, `{"a":{"k":1}}`},
		{"typed struct", struct {
			B string    `json:"b"`
			A time.Time `json:"a"`
		}{B: "x", A: time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))}, nil, `{"a":"2025-01-02T02:04:05Z","b":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.in, tt.omit...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalize_Circular(t *testing.T) {
	m := map[string]any{"name": "loop"}
	m["self"] = m

	got, err := Canonicalize(m)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"loop","self":"[Circular]"}`, string(got))
}

func testInput() Input {
	return Input{
		Text: "Mehr Tempo-30-Zonen vor Schulen.",
		Sources: []model.SourceRef{
			{URL: "https://www.tagesschau.de/inland/tempo-30?utm_source=rss", Publisher: "tagesschau", Title: "Tempo 30 vor Schulen", Snippet: "Kommunen dürfen künftig ...", FetchedAt: "2025-03-01 10:00"},
			{URL: "https://bmdv.bund.de/tempo30", Title: "Straßenverkehrsordnung"},
		},
		Output:   map[string]any{"claims": []any{map[string]any{"id": "c1", "text": "Mehr Tempo-30-Zonen vor Schulen."}}},
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator("agora-pipeline/1.4.0", "analyze-v3", nil)

	first, err := g.WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }).Generate(testInput())
	require.NoError(t, err)
	second, err := g.Generate(testInput())
	require.NoError(t, err)

	assert.Equal(t, first.ReceiptHash, second.ReceiptHash)
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, IDPrefix+first.ReceiptHash[:16], first.ID)
	assert.Len(t, first.ReceiptHash, 64)
	assert.Equal(t, DefaultContentPolicy, first.ContentPolicy)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.CreatedAt)
}

func TestGenerate_SnippetDoesNotChangeSourcesHash(t *testing.T) {
	g := NewGenerator("v", "p", nil)

	base, err := g.Generate(testInput())
	require.NoError(t, err)

	changed := testInput()
	changed.Sources[0].Snippet = "Ein völlig anderer Ausschnitt."
	other, err := g.Generate(changed)
	require.NoError(t, err)
	assert.Equal(t, base.SourcesHash, other.SourcesHash)
	assert.Equal(t, base.ReceiptHash, other.ReceiptHash)

	retitled := testInput()
	retitled.Sources[0].Title = "Neuer Titel"
	third, err := g.Generate(retitled)
	require.NoError(t, err)
	assert.NotEqual(t, base.SourcesHash, third.SourcesHash)
}

func TestGenerate_OutputHashIgnoresVolatileKeys(t *testing.T) {
	g := NewGenerator("v", "p", nil)

	a := testInput()
	a.Output = map[string]any{"x": 1, "createdAt": "2025-01-01T00:00:00Z", "_meta": map[string]any{"durationMs": 10}}
	b := testInput()
	b.Output = map[string]any{"x": 1, "createdAt": "2026-06-06T00:00:00Z", "_meta": map[string]any{"durationMs": 99}}

	ra, err := g.Generate(a)
	require.NoError(t, err)
	rb, err := g.Generate(b)
	require.NoError(t, err)
	assert.Equal(t, ra.OutputHash, rb.OutputHash)

	b.Output = map[string]any{"x": 2}
	rc, err := g.Generate(b)
	require.NoError(t, err)
	assert.NotEqual(t, ra.OutputHash, rc.OutputHash)
}

func TestSourceSet(t *testing.T) {
	g := NewGenerator("v", "p", nil)
	in := testInput()
	in.Sources = append(in.Sources, in.Sources[0])

	set := g.SourceSet(in.Sources)
	require.Len(t, set, 2)

	assert.Equal(t, "https://bmdv.bund.de/tempo30", set[0].CanonicalURL)
	assert.Equal(t, model.ClassGov, set[0].SourceClass)

	ts := set[1]
	assert.Equal(t, "https://www.tagesschau.de/inland/tempo-30", ts.CanonicalURL)
	assert.Equal(t, "tagesschau.de", ts.Host)
	assert.Equal(t, "tagesschau", ts.PublisherKey)
	assert.Equal(t, model.ClassIndependentMedia, ts.SourceClass)
	assert.Equal(t, "2025-03-01T10:00:00Z", ts.FetchedAt)

	for _, rs := range set {
		data, err := Canonicalize(rs)
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(data), "Kommunen"), "snippet leaked into receipt")
	}
}

func TestSourceSet_SnippetKeywordsDoNotDecideClass(t *testing.T) {
	g := NewGenerator("v", "p", nil)
	ref := model.SourceRef{
		URL:     "https://example.org/bericht",
		Title:   "Bericht zur Verkehrswende",
		Snippet: "Das Bundesministerium kündigt neue Regeln an.",
	}

	full := validate.NewSourceClassifier(nil, nil).Classify(ref)
	require.Equal(t, model.ClassGov, full)

	set := g.SourceSet([]model.SourceRef{ref})
	require.Len(t, set, 1)
	assert.Equal(t, model.ClassUnknown, set[0].SourceClass)

	withoutSnippet := ref
	withoutSnippet.Snippet = ""
	assert.Equal(t, set, g.SourceSet([]model.SourceRef{withoutSnippet}))
}
