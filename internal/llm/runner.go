package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agora/internal/model"
)

// RunRequest is one analyze call handed to the provider collaborator
type RunRequest struct {
	SystemPrompt string
	UserPrompt   string
	Locale       string
	MaxClaims    int
	MaxTokens    int

	// ValidateRaw accepts or rejects the raw provider text. A rejected answer
	// counts as a failed attempt and the next provider is tried.
	ValidateRaw func(raw string) error
}

// Best describes the attempt whose answer was accepted
type Best struct {
	Provider   string
	Model      string
	DurationMs int64
	TokensIn   int
	TokensOut  int
	CostEUR    float64
	Cached     bool
}

// RunMeta carries the provider matrix of a run
type RunMeta struct {
	ProviderMatrix []model.ProviderAttempt
}

// RunResponse is the accepted raw text plus its provenance
type RunResponse struct {
	RawText string
	Best    Best
	Meta    RunMeta
}

// Runner runs a request against the configured providers
type Runner interface {
	Run(ctx context.Context, req RunRequest) (*RunResponse, error)
}

// Observer is told about every provider attempt
type Observer interface {
	ObserveAttempt(attempt model.ProviderAttempt)
}

// RateLimiter throttles calls per provider name
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// FallbackRunner tries providers in order until one returns text that
// passes ValidateRaw
type FallbackRunner struct {
	providers []Provider
	limiter   RateLimiter
	observer  Observer
	logger    zerolog.Logger
	now       func() time.Time
}

// RunnerOption configures a FallbackRunner
type RunnerOption func(*FallbackRunner)

// WithRateLimiter throttles every provider call through l
func WithRateLimiter(l RateLimiter) RunnerOption {
	return func(r *FallbackRunner) { r.limiter = l }
}

// WithObserver reports every attempt to o
func WithObserver(o Observer) RunnerOption {
	return func(r *FallbackRunner) { r.observer = o }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) RunnerOption {
	return func(r *FallbackRunner) { r.logger = l }
}

// NewFallbackRunner creates a runner over providers in fallback order
func NewFallbackRunner(providers []Provider, opts ...RunnerOption) *FallbackRunner {
	r := &FallbackRunner{
		providers: providers,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run tries each provider once. It returns ErrNoProviderConfigured without
// providers, *AllProvidersFailedError when none produced accepted text, and
// the context error as soon as ctx is done.
func (r *FallbackRunner) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if len(r.providers) == 0 {
		return nil, ErrNoProviderConfigured
	}

	matrix := make([]model.ProviderAttempt, 0, len(r.providers))

	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("provider run aborted: %w", err)
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, p.Name()); err != nil {
				return nil, fmt.Errorf("provider run aborted: %w", err)
			}
		}

		attempt, completion := r.attempt(ctx, p, req)
		matrix = append(matrix, attempt)
		if r.observer != nil {
			r.observer.ObserveAttempt(attempt)
		}

		if attempt.OK {
			return &RunResponse{
				RawText: completion.Text,
				Best: Best{
					Provider:   attempt.Provider,
					Model:      attempt.Model,
					DurationMs: attempt.DurationMs,
					TokensIn:   attempt.TokensIn,
					TokensOut:  attempt.TokensOut,
					CostEUR:    EstimateCost(attempt.Provider, attempt.Model, attempt.TokensIn, attempt.TokensOut),
				},
				Meta: RunMeta{ProviderMatrix: matrix},
			}, nil
		}

		// a cancelled call is not a provider failure
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("provider run aborted: %w", err)
		}

		r.logger.Warn().
			Str("provider", attempt.Provider).
			Str("model", attempt.Model).
			Str("kind", attempt.ErrorKind).
			Str("error", attempt.Error).
			Msg("provider attempt failed")
	}

	return nil, &AllProvidersFailedError{Failed: matrix}
}

func (r *FallbackRunner) attempt(ctx context.Context, p Provider, req RunRequest) (model.ProviderAttempt, *Completion) {
	start := r.now()
	attempt := model.ProviderAttempt{Provider: p.Name(), Model: p.Model()}

	completion, err := p.Complete(ctx, CompletionRequest{
		System:    req.SystemPrompt,
		User:      req.UserPrompt,
		MaxTokens: req.MaxTokens,
		JSON:      true,
	})
	attempt.DurationMs = r.now().Sub(start).Milliseconds()
	if err != nil {
		attempt.ErrorKind = ErrorKind(err)
		attempt.Error = err.Error()
		return attempt, nil
	}

	attempt.Model = completion.Model
	attempt.TokensIn = completion.TokensIn
	attempt.TokensOut = completion.TokensOut

	if req.ValidateRaw != nil {
		if verr := req.ValidateRaw(completion.Text); verr != nil {
			err := &validationError{err: verr}
			attempt.ErrorKind = validationKind(err)
			attempt.Error = err.Error()
			return attempt, nil
		}
	}

	attempt.OK = true
	return attempt, completion
}
