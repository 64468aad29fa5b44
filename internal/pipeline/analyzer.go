package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agora/internal/audit"
	"github.com/ppiankov/agora/internal/extract"
	"github.com/ppiankov/agora/internal/frame"
	"github.com/ppiankov/agora/internal/graph"
	"github.com/ppiankov/agora/internal/llm"
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/observability"
	"github.com/ppiankov/agora/internal/receipt"
	"github.com/ppiankov/agora/internal/taxonomy"
	"github.com/ppiankov/agora/internal/util"
	"github.com/ppiankov/agora/internal/worker"
)

// MaxInputChars is the longest text accepted for analysis
const MaxInputChars = 20000

var supportedLocales = map[string]bool{"de": true, "en": true}

// Request is one analyze call
type Request struct {
	Text           string
	Locale         string // de or en, empty means the configured default
	MaxClaims      int    // 0 means the configured default, capped at 10
	Domain         string
	Domains        []string
	ContextPackIDs []string
}

// RunObserver is told how every analyze run ended
type RunObserver interface {
	ObserveRun(outcome string, coercion model.JSONCoercion, claims int, d time.Duration)
}

// Analyzer turns submitted text into an AnalyzeResponse. It holds no
// per-request state and is safe for concurrent use.
type Analyzer struct {
	runner       llm.Runner
	engine       *audit.Engine
	graph        *graph.Builder
	receipts     *receipt.Generator
	packs        ContextPackStore
	observer     RunObserver
	logger       zerolog.Logger
	now          func() time.Time
	config       model.PipelineConfig
	auditEnabled bool
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithEngine sets the editorial audit engine
func WithEngine(e *audit.Engine) Option {
	return func(a *Analyzer) { a.engine = e }
}

// WithAudit turns the editorial audit on or off
func WithAudit(enabled bool) Option {
	return func(a *Analyzer) { a.auditEnabled = enabled }
}

// WithContextPackStore sets the store context pack ids resolve through
func WithContextPackStore(s ContextPackStore) Option {
	return func(a *Analyzer) { a.packs = s }
}

// WithRunObserver reports every finished run to o
func WithRunObserver(o RunObserver) Option {
	return func(a *Analyzer) { a.observer = o }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithClock sets the clock used for receipts and unstamped decision trees
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithPipelineConfig sets versions and defaults
func WithPipelineConfig(cfg model.PipelineConfig) Option {
	return func(a *Analyzer) { a.config = cfg }
}

// NewAnalyzer creates an analyzer that calls providers through runner
func NewAnalyzer(runner llm.Runner, opts ...Option) *Analyzer {
	a := &Analyzer{
		runner:       runner,
		logger:       zerolog.Nop(),
		now:          time.Now,
		config:       model.DefaultConfig().Pipeline,
		auditEnabled: true,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.engine == nil {
		a.engine = audit.NewEngine()
	}
	a.graph = graph.NewBuilder(a.engine.Classifier())
	a.receipts = receipt.NewGenerator(a.config.Version, a.config.PromptVersion, a.engine.Publishers()).WithClock(a.now)

	return a
}

// Analyze runs one request. It returns either a complete response or one of
// ErrInvalidInput, *ConfigurationError, *ProviderFailureError,
// *SchemaMismatchError or an error wrapping the context error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.AnalyzeResponse, error) {
	start := a.now()

	resp, err := a.analyze(ctx, req)

	if a.observer != nil {
		var (
			coercion model.JSONCoercion
			claims   int
		)
		if resp != nil {
			coercion = resp.Meta.Trace.JSONCoercion
			claims = len(resp.Claims)
		}
		a.observer.ObserveRun(Outcome(err), coercion, claims, a.now().Sub(start))
	}

	if err != nil {
		a.logger.Warn().Err(err).Str("outcome", Outcome(err)).Msg("analyze failed")
		return nil, err
	}

	a.logger.Info().
		Str("provider", resp.Meta.Provider).
		Str("model", resp.Meta.Model).
		Str("coercion", string(resp.Meta.Trace.JSONCoercion)).
		Int("claims", len(resp.Claims)).
		Dur("duration", a.now().Sub(start)).
		Str("receipt", resp.RunReceipt.ID).
		Msg("analyze completed")

	return resp, nil
}

// AnalyzeItem analyzes one batch item
func (a *Analyzer) AnalyzeItem(ctx context.Context, item worker.Item) (*model.AnalyzeResponse, error) {
	return a.Analyze(ctx, Request{
		Text:           item.Text,
		Locale:         item.Locale,
		MaxClaims:      item.MaxClaims,
		Domain:         item.Domain,
		Domains:        item.Domains,
		ContextPackIDs: item.ContextPackIDs,
	})
}

func (a *Analyzer) analyze(ctx context.Context, req Request) (*model.AnalyzeResponse, error) {
	// 1. Validate input
	text, locale, maxClaims, err := a.normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	minClaims := MinClaims(text)
	short := IsShortInput(text)

	// 2. Normalize declared domains
	domains := taxonomy.NormalizeDomains(req.Domain, req.Domains)

	// 3. Resolve context packs
	packIDs := uniqueIDs(req.ContextPackIDs)
	packs, err := a.loadPacks(ctx, packIDs)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Int("packs", len(packs)).Strs("domains", domains.Domains).Msg("request normalized")

	// 4. Call the providers
	userPrompt, err := UserPrompt(PromptInput{
		Text:         text,
		Locale:       locale,
		MaxClaims:    maxClaims,
		MinClaims:    minClaims,
		Domains:      domains.Domains,
		ContextPacks: packs,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	run, err := a.runner.Run(ctx, llm.RunRequest{
		SystemPrompt: SystemPrompt(locale),
		UserPrompt:   userPrompt,
		Locale:       locale,
		MaxClaims:    maxClaims,
		MaxTokens:    a.config.MaxTokens,
		ValidateRaw:  rawValidator(minClaims, maxClaims),
	})
	if err != nil {
		return nil, providerError(ctx, err)
	}

	// 5. A cancelled run never yields a partial aggregate
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze cancelled: %w", err)
	}
	a.logger.Debug().Str("provider", run.Best.Provider).Bool("cached", run.Best.Cached).Msg("provider answered")

	// 6. Repair and validate the document. FallbackRunner already rejected
	// answers failing rawValidator, so steps 6 and 7 only fail for runners
	// that ignore ValidateRaw.
	parsed, err := decode(run.RawText, minClaims, maxClaims)
	if err != nil {
		return nil, &SchemaMismatchError{Provider: run.Best.Provider, Model: run.Best.Model, Err: err}
	}

	// 7. Sanitize every record
	payload := extract.Sanitize(parsed.Value, extract.Options{MaxClaims: maxClaims, Now: a.now()})
	if len(payload.Claims) < minClaims {
		return nil, &SchemaMismatchError{
			Provider: run.Best.Provider,
			Model:    run.Best.Model,
			Err:      fmt.Errorf("%w: got %d, need %d", ErrTooFewClaims, len(payload.Claims), minClaims),
		}
	}

	// 8. Debate frame per claim
	for i := range payload.Claims {
		if payload.Claims[i].Domain == "" && domains.Primary != "" {
			payload.Claims[i].Domain = domains.Primary
		}
		payload.Claims[i].DebateFrame = frame.Build(payload.Claims[i])
	}

	// 9. Merge context pack sources with provider sources
	var sources []model.SourceRef
	for _, p := range packs {
		sources = append(sources, p.Sources...)
	}
	sources = util.DedupeSources(append(sources, payload.Sources...))

	result := model.AnalyzeResult{
		Claims:                  payload.Claims,
		Notes:                   payload.Notes,
		Questions:               payload.Questions,
		MissingPerspectives:     payload.MissingPerspectives,
		Knots:                   payload.Knots,
		Consequences:            payload.Consequences,
		ResponsibilityPaths:     payload.ResponsibilityPaths,
		Eventualities:           payload.Eventualities,
		DecisionTrees:           payload.DecisionTrees,
		ImpactAndResponsibility: payload.ImpactAndResponsibility,
		ParticipationCandidates: payload.ParticipationCandidates,
		Report:                  payload.Report,
	}

	// 10. Editorial audit
	var burden *model.BurdenOfProof
	if a.auditEnabled {
		editorial := a.engine.Run(audit.Input{
			Text:         text,
			Claims:       payload.Claims,
			Sources:      sources,
			Domains:      domains.Domains,
			ContextPacks: packIDs,
		})
		result.EditorialAudit = &editorial
		burden = &editorial.BurdenOfProof
		a.logger.Debug().Int("sources", len(sources)).Float64("confidence", editorial.Confidence).Msg("audit completed")
	}

	// 11. Evidence graph
	result.EvidenceGraph = a.graph.Build(payload.Claims, sources, burden)

	// 12. Run receipt over the finished aggregate
	rr, err := a.receipts.Generate(receipt.Input{
		Text:     text,
		Sources:  sources,
		Output:   result,
		Provider: run.Best.Provider,
		Model:    run.Best.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("run receipt: %w", err)
	}
	result.RunReceipt = rr

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze cancelled: %w", err)
	}

	// 13. Run metadata
	matrix := run.Meta.ProviderMatrix
	if matrix == nil {
		matrix = []model.ProviderAttempt{}
	}

	return &model.AnalyzeResponse{
		AnalyzeResult: result,
		Meta: model.RunMeta{
			Provider:       run.Best.Provider,
			Model:          run.Best.Model,
			DurationMs:     run.Best.DurationMs,
			TokensIn:       run.Best.TokensIn,
			TokensOut:      run.Best.TokensOut,
			CostEUR:        run.Best.CostEUR,
			ProviderMatrix: matrix,
			Trace: model.RunTrace{
				JSONCoercion: coercion(parsed),
				MinClaims:    minClaims,
				ShortInput:   short,
			},
		},
	}, nil
}

func (a *Analyzer) normalizeRequest(req Request) (text, locale string, maxClaims int, err error) {
	text = strings.TrimSpace(req.Text)
	if text == "" {
		return "", "", 0, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > MaxInputChars {
		return "", "", 0, fmt.Errorf("%w: text has %d characters, limit is %d", ErrInvalidInput, n, MaxInputChars)
	}

	locale = strings.ToLower(strings.TrimSpace(req.Locale))
	if locale == "" {
		locale = a.config.DefaultLocale
	}
	if locale == "" {
		locale = "de"
	}
	if !supportedLocales[locale] {
		return "", "", 0, fmt.Errorf("%w: unsupported locale %q", ErrInvalidInput, req.Locale)
	}

	if req.MaxClaims < 0 {
		return "", "", 0, fmt.Errorf("%w: maxClaims must not be negative", ErrInvalidInput)
	}
	maxClaims = req.MaxClaims
	if maxClaims == 0 {
		maxClaims = a.config.MaxClaims
	}
	return text, locale, extract.ClaimCap(maxClaims), nil
}

func (a *Analyzer) loadPacks(ctx context.Context, ids []string) ([]model.ContextPack, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if a.packs == nil {
		return nil, fmt.Errorf("%w: context packs requested but none are configured", ErrInvalidInput)
	}
	packs, err := a.packs.LoadContextPacks(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("analyze cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("load context packs: %w", err)
	}
	return packs, nil
}

// providerError maps a runner failure onto the typed driver errors
func providerError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("analyze cancelled: %w", ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("analyze cancelled: %w", err)
	}
	if errors.Is(err, llm.ErrNoProviderConfigured) {
		return &ConfigurationError{Err: err}
	}

	var failed *llm.AllProvidersFailedError
	if errors.As(err, &failed) {
		return &ProviderFailureError{Failed: failed.Failed, AllBadJSON: failed.AllBadJSON(), Err: err}
	}
	return &ProviderFailureError{Err: err}
}

// Outcome classifies the result of a run for metrics and logs
func Outcome(err error) string {
	var (
		cfgErr    *ConfigurationError
		provErr   *ProviderFailureError
		schemaErr *SchemaMismatchError
	)
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeCancelled
	case errors.Is(err, ErrInvalidInput):
		return observability.OutcomeInvalidInput
	case errors.As(err, &cfgErr):
		return observability.OutcomeConfiguration
	case errors.As(err, &provErr):
		return observability.OutcomeProviderFailed
	case errors.As(err, &schemaErr):
		return observability.OutcomeSchemaMismatch
	default:
		return observability.OutcomeProviderFailed
	}
}

func uniqueIDs(ids []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
