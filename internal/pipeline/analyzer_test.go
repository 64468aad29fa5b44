package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/agora/internal/extract"
	"github.com/ppiankov/agora/internal/llm"
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/observability"
	"github.com/ppiankov/agora/internal/worker"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// stubRunner answers with fixed raw text and skips ValidateRaw
type stubRunner struct {
	raw      string
	err      error
	requests []llm.RunRequest
}

func (s *stubRunner) Run(ctx context.Context, req llm.RunRequest) (*llm.RunResponse, error) {
	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llm.RunResponse{
		RawText: s.raw,
		Best: llm.Best{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			DurationMs: 840,
			TokensIn:   1200,
			TokensOut:  300,
			CostEUR:    0.000331,
		},
		Meta: llm.RunMeta{ProviderMatrix: []model.ProviderAttempt{
			{Provider: "openai", Model: "gpt-4o-mini", OK: true, DurationMs: 840, TokensIn: 1200, TokensOut: 300},
		}},
	}, nil
}

// stubProvider feeds a real FallbackRunner
type stubProvider struct {
	name string
	text string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Model() string { return p.name + "-model" }

func (p *stubProvider) IsAvailable(context.Context) bool { return true }

func (p *stubProvider) Complete(context.Context, llm.CompletionRequest) (*llm.Completion, error) {
	return &llm.Completion{Text: p.text, Model: p.Model(), TokensIn: 100, TokensOut: 50}, nil
}

type recordedRun struct {
	outcome  string
	coercion model.JSONCoercion
	claims   int
}

type recordingRunObserver struct {
	runs []recordedRun
}

func (o *recordingRunObserver) ObserveRun(outcome string, coercion model.JSONCoercion, claims int, _ time.Duration) {
	o.runs = append(o.runs, recordedRun{outcome: outcome, coercion: coercion, claims: claims})
}

const tempo30Input = "Mehr Tempo-30-Zonen vor Schulen."

const tempo30Answer = "```json\n" + `{
  "claims": [
    {"id": "c1", "text": "Mehr Tempo-30-Zonen vor Schulen erhöhen die Verkehrssicherheit von Kindern.", "domain": "verkehr", "responsibility": "Kommune", "importance": 4}
  ],
  "questions": [{"id": "q1", "text": "Welche Straßen vor Schulen sind betroffen?"}],
  "report": {"summary": "Forderung nach mehr Tempo-30-Zonen vor Schulen.", "keyConflicts": ["Verkehrsfluss gegen Sicherheit"], "takeaways": []},
  "sources": [{"url": "https://www.destatis.de/verkehrsunfaelle?utm_source=x", "publisher": "Statistisches Bundesamt", "title": "Verkehrsunfälle mit Kindern vor Schulen", "snippet": "Tempo-30-Zonen senken Unfälle vor Schulen."}]
}` + "\n```"

func longInput() string {
	return strings.Repeat("Die Stadt soll vor allen Grundschulen Tempo-30-Zonen einrichten und die Einhaltung regelmäßig kontrollieren. ", 4)
}

func TestMinClaims(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      int
		wantShort bool
	}{
		{"short sentence", tempo30Input, 1, true},
		{"160 chars", strings.Repeat("a", 160), 1, true},
		{"long single word", strings.Repeat("a", 161), 1, true},
		{"22 long words", strings.TrimSpace(strings.Repeat("verkehrsberuhigung ", 22)), 1, true},
		{"long text", longInput(), 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinClaims(tt.text))
			assert.Equal(t, tt.wantShort, IsShortInput(tt.text))
		})
	}
}

func TestRawValidator(t *testing.T) {
	validate := rawValidator(1, 10)

	require.NoError(t, validate(tempo30Answer))
	require.NoError(t, validate(`Here you go: {"claims": ["Mehr Tempo 30"]} thanks`))

	err := validate(`{"claims": []}`)
	require.ErrorIs(t, err, ErrTooFewClaims)
	assert.NotErrorIs(t, err, extract.ErrBadJSON)

	err = validate("I cannot help with that.")
	require.ErrorIs(t, err, extract.ErrBadJSON)

	err = rawValidator(3, 10)(`{"claims": ["eins", "zwei"]}`)
	require.ErrorIs(t, err, ErrTooFewClaims)
	assert.Contains(t, err.Error(), "got 2, need 3")
}

func TestAnalyze_ShortInput(t *testing.T) {
	runner := &stubRunner{raw: tempo30Answer}
	observer := &recordingRunObserver{}
	a := NewAnalyzer(runner, WithClock(fixedClock), WithRunObserver(observer))

	resp, err := a.Analyze(context.Background(), Request{Text: tempo30Input})
	require.NoError(t, err)

	require.Len(t, resp.Claims, 1)
	claim := resp.Claims[0]
	assert.Equal(t, "c1", claim.ID)
	assert.Equal(t, "verkehr", claim.Domain)
	assert.Equal(t, "Kommune", claim.Responsibility)
	require.NotNil(t, claim.DebateFrame)
	assert.Equal(t, model.JurisdictionLocal, claim.DebateFrame.Jurisdiction)
	assert.Equal(t, 10, claim.DebateFrame.AntiPopulism.Total)

	assert.Equal(t, model.CoercionFence, resp.Meta.Trace.JSONCoercion)
	assert.Equal(t, 1, resp.Meta.Trace.MinClaims)
	assert.True(t, resp.Meta.Trace.ShortInput)
	assert.Equal(t, "openai", resp.Meta.Provider)
	assert.Equal(t, "gpt-4o-mini", resp.Meta.Model)
	assert.Equal(t, 1200, resp.Meta.TokensIn)
	assert.Len(t, resp.Meta.ProviderMatrix, 1)

	require.NotNil(t, resp.EditorialAudit)
	assert.Equal(t, 1, resp.EditorialAudit.SourceBalance.Total)
	assert.Equal(t, []string{}, resp.EditorialAudit.AttachedContextPacks)
	assert.NotEmpty(t, resp.EvidenceGraph.Nodes)

	assert.True(t, strings.HasPrefix(resp.RunReceipt.ID, "rr_"))
	assert.Len(t, resp.RunReceipt.ID, 19)
	assert.Equal(t, fixedNow, resp.RunReceipt.CreatedAt)
	require.Len(t, resp.RunReceipt.SourceSet, 1)

	require.Len(t, runner.requests, 1)
	req := runner.requests[0]
	assert.Equal(t, "de", req.Locale)
	assert.Equal(t, 10, req.MaxClaims)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.Contains(t, req.UserPrompt, tempo30Input)
	assert.Contains(t, req.UserPrompt, "zwischen 1 und 10 Aussagen")

	require.Len(t, observer.runs, 1)
	assert.Equal(t, recordedRun{outcome: observability.OutcomeOK, coercion: model.CoercionFence, claims: 1}, observer.runs[0])
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewAnalyzer(&stubRunner{raw: tempo30Answer}, WithClock(fixedClock))

	first, err := a.Analyze(context.Background(), Request{Text: tempo30Input, Domain: "Verkehr"})
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), Request{Text: tempo30Input, Domain: "Verkehr"})
	require.NoError(t, err)

	assert.Equal(t, first.RunReceipt.OutputHash, second.RunReceipt.OutputHash)
	assert.Equal(t, first.RunReceipt.ReceiptHash, second.RunReceipt.ReceiptHash)
	assert.Equal(t, first.AnalyzeResult, second.AnalyzeResult)
}

func TestAnalyze_NoAudit(t *testing.T) {
	a := NewAnalyzer(&stubRunner{raw: tempo30Answer}, WithClock(fixedClock), WithAudit(false))

	resp, err := a.Analyze(context.Background(), Request{Text: tempo30Input})
	require.NoError(t, err)
	assert.Nil(t, resp.EditorialAudit)
	assert.NotEmpty(t, resp.RunReceipt.ReceiptHash)
}

func TestAnalyze_ClaimCap(t *testing.T) {
	raw := `{"claims": ["eins", "zwei", "drei", "vier", "fünf"]}`
	runner := &stubRunner{raw: raw}
	a := NewAnalyzer(runner, WithClock(fixedClock))

	resp, err := a.Analyze(context.Background(), Request{Text: longInput(), MaxClaims: 3, Locale: "EN"})
	require.NoError(t, err)
	assert.Len(t, resp.Claims, 3)
	assert.Equal(t, model.CoercionNone, resp.Meta.Trace.JSONCoercion)
	assert.False(t, resp.Meta.Trace.ShortInput)
	assert.Equal(t, 3, resp.Meta.Trace.MinClaims)
	assert.Equal(t, "en", runner.requests[0].Locale)
	assert.Equal(t, SystemPrompt("en"), runner.requests[0].SystemPrompt)

	_, err = a.Analyze(context.Background(), Request{Text: longInput(), MaxClaims: 50})
	require.NoError(t, err)
	assert.Equal(t, 10, runner.requests[1].MaxClaims)
}

func TestAnalyze_LooseRecovery(t *testing.T) {
	raw := "{\n  // truncated answer\n  \"claims\": [{\"id\": \"c1\", \"text\": \"Mehr Tempo 30 vor Schulen\",},\n"
	a := NewAnalyzer(&stubRunner{raw: raw}, WithClock(fixedClock))

	resp, err := a.Analyze(context.Background(), Request{Text: tempo30Input})
	require.NoError(t, err)
	assert.Equal(t, model.CoercionLoose, resp.Meta.Trace.JSONCoercion)
	require.Len(t, resp.Claims, 1)
}

func TestAnalyze_Errors(t *testing.T) {
	badJSON := &llm.AllProvidersFailedError{Failed: []model.ProviderAttempt{
		{Provider: "openai", ErrorKind: llm.KindBadJSON},
		{Provider: "anthropic", ErrorKind: llm.KindBadJSON},
	}}
	mixed := &llm.AllProvidersFailedError{Failed: []model.ProviderAttempt{
		{Provider: "openai", ErrorKind: llm.KindRateLimit},
		{Provider: "ollama", ErrorKind: llm.KindTransport},
	}}

	tests := []struct {
		name    string
		runner  llm.Runner
		req     Request
		check   func(t *testing.T, err error)
		outcome string
	}{
		{
			name:   "empty text",
			runner: &stubRunner{raw: tempo30Answer},
			req:    Request{Text: "   "},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrInvalidInput)
			},
			outcome: observability.OutcomeInvalidInput,
		},
		{
			name:   "unsupported locale",
			runner: &stubRunner{raw: tempo30Answer},
			req:    Request{Text: tempo30Input, Locale: "fr"},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrInvalidInput)
			},
			outcome: observability.OutcomeInvalidInput,
		},
		{
			name:   "negative max claims",
			runner: &stubRunner{raw: tempo30Answer},
			req:    Request{Text: tempo30Input, MaxClaims: -1},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrInvalidInput)
			},
			outcome: observability.OutcomeInvalidInput,
		},
		{
			name:   "context packs without store",
			runner: &stubRunner{raw: tempo30Answer},
			req:    Request{Text: tempo30Input, ContextPackIDs: []string{"schulwege"}},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrInvalidInput)
			},
			outcome: observability.OutcomeInvalidInput,
		},
		{
			name:   "no provider configured",
			runner: &stubRunner{err: llm.ErrNoProviderConfigured},
			req:    Request{Text: tempo30Input},
			check: func(t *testing.T, err error) {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.ErrorIs(t, err, llm.ErrNoProviderConfigured)
			},
			outcome: observability.OutcomeConfiguration,
		},
		{
			name:   "all providers returned bad json",
			runner: &stubRunner{err: badJSON},
			req:    Request{Text: tempo30Input},
			check: func(t *testing.T, err error) {
				var provErr *ProviderFailureError
				require.ErrorAs(t, err, &provErr)
				assert.True(t, provErr.AllBadJSON)
				assert.Len(t, provErr.Failed, 2)
			},
			outcome: observability.OutcomeProviderFailed,
		},
		{
			name:   "mixed provider failures",
			runner: &stubRunner{err: mixed},
			req:    Request{Text: tempo30Input},
			check: func(t *testing.T, err error) {
				var provErr *ProviderFailureError
				require.ErrorAs(t, err, &provErr)
				assert.False(t, provErr.AllBadJSON)
				assert.Equal(t, llm.KindRateLimit, provErr.Failed[0].ErrorKind)
			},
			outcome: observability.OutcomeProviderFailed,
		},
		{
			name: "validator rejects every answer",
			runner: llm.NewFallbackRunner([]llm.Provider{
				&stubProvider{name: "openai", text: `{"claims": ["nur eine Aussage"]}`},
				&stubProvider{name: "ollama", text: "kein JSON"},
			}),
			req: Request{Text: longInput()},
			check: func(t *testing.T, err error) {
				var provErr *ProviderFailureError
				require.ErrorAs(t, err, &provErr)
				require.Len(t, provErr.Failed, 2)
				assert.Equal(t, llm.KindValidation, provErr.Failed[0].ErrorKind)
				assert.Equal(t, llm.KindBadJSON, provErr.Failed[1].ErrorKind)
				assert.False(t, provErr.AllBadJSON)
			},
			outcome: observability.OutcomeProviderFailed,
		},
		{
			name:   "unparsable answer",
			runner: &stubRunner{raw: "Sorry, I can only answer in prose."},
			req:    Request{Text: tempo30Input},
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaMismatchError
				require.ErrorAs(t, err, &schemaErr)
				assert.ErrorIs(t, err, extract.ErrBadJSON)
				assert.Equal(t, "openai", schemaErr.Provider)
			},
			outcome: observability.OutcomeSchemaMismatch,
		},
		{
			name:   "too few claims for long input",
			runner: &stubRunner{raw: `{"claims": ["eins", "zwei"]}`},
			req:    Request{Text: longInput()},
			check: func(t *testing.T, err error) {
				var schemaErr *SchemaMismatchError
				require.ErrorAs(t, err, &schemaErr)
				assert.ErrorIs(t, err, ErrTooFewClaims)
			},
			outcome: observability.OutcomeSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &recordingRunObserver{}
			a := NewAnalyzer(tt.runner, WithClock(fixedClock), WithRunObserver(observer))

			resp, err := a.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
			assert.Equal(t, tt.outcome, Outcome(err))

			require.Len(t, observer.runs, 1)
			assert.Equal(t, tt.outcome, observer.runs[0].outcome)
		})
	}
}

func TestAnalyze_FallbackRunner(t *testing.T) {
	runner := llm.NewFallbackRunner([]llm.Provider{
		&stubProvider{name: "anthropic", text: "Leider kann ich das nicht."},
		&stubProvider{name: "openai", text: tempo30Answer},
	})
	a := NewAnalyzer(runner, WithClock(fixedClock))

	resp, err := a.Analyze(context.Background(), Request{Text: tempo30Input})
	require.NoError(t, err)

	assert.Equal(t, "openai", resp.Meta.Provider)
	assert.Equal(t, "openai-model", resp.Meta.Model)
	require.Len(t, resp.Meta.ProviderMatrix, 2)
	assert.False(t, resp.Meta.ProviderMatrix[0].OK)
	assert.Equal(t, llm.KindBadJSON, resp.Meta.ProviderMatrix[0].ErrorKind)
	assert.True(t, resp.Meta.ProviderMatrix[1].OK)
	assert.Equal(t, resp.Meta.Provider, resp.RunReceipt.Provider)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(&stubRunner{raw: tempo30Answer}, WithClock(fixedClock))
	resp, err := a.Analyze(ctx, Request{Text: tempo30Input})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, observability.OutcomeCancelled, Outcome(err))
}

const packYAML = `
packs:
  - id: schulwege
    title: Schulwege und Verkehrssicherheit
    domain: verkehr
    sources:
      - url: https://www.adac.de/schulweg
        publisher: ADAC
        title: Sichere Schulwege mit Tempo 30
        snippet: Tempo-30-Zonen vor Schulen senken das Unfallrisiko.
      - url: https://www.bast.de/tempo30
        publisher: Bundesanstalt für Straßenwesen
        title: Wirkung von Tempo 30 vor Schulen
  - id: laerm
    title: Lärmschutz
    sources: []
`

func TestAnalyze_ContextPacks(t *testing.T) {
	store, err := ParseContextPacks([]byte(packYAML))
	require.NoError(t, err)

	runner := &stubRunner{raw: tempo30Answer}
	a := NewAnalyzer(runner, WithClock(fixedClock), WithContextPackStore(store))

	resp, err := a.Analyze(context.Background(), Request{
		Text:           tempo30Input,
		ContextPackIDs: []string{"schulwege", " schulwege ", ""},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.EditorialAudit)
	assert.Equal(t, []string{"schulwege"}, resp.EditorialAudit.AttachedContextPacks)
	assert.Equal(t, 3, resp.EditorialAudit.SourceBalance.Total)
	assert.Len(t, resp.RunReceipt.SourceSet, 3)
	assert.Contains(t, runner.requests[0].UserPrompt, "Schulwege und Verkehrssicherheit")

	_, err = a.Analyze(context.Background(), Request{Text: tempo30Input, ContextPackIDs: []string{"unbekannt"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseContextPacks(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"valid", packYAML, ""},
		{"missing id", "packs:\n  - title: Ohne ID\n", "has no id"},
		{"duplicate id", "packs:\n  - id: a\n  - id: a\n", "duplicate"},
		{"not yaml", "packs: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContextPacks([]byte(tt.data))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnalyzeItem(t *testing.T) {
	runner := &stubRunner{raw: tempo30Answer}
	a := NewAnalyzer(runner, WithClock(fixedClock))

	var _ worker.Analyzer = a

	resp, err := a.AnalyzeItem(context.Background(), worker.Item{ID: "item-1", Text: tempo30Input, Locale: "en", MaxClaims: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Claims, 1)
	assert.Equal(t, "en", runner.requests[0].Locale)
	assert.Equal(t, 2, runner.requests[0].MaxClaims)
}
