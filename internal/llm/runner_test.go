package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/agora/internal/extract"
	"github.com/ppiankov/agora/internal/model"
)

// stubProvider answers from a fixed text or error
type stubProvider struct {
	name  string
	model string
	text  string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Model() string { return s.model }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return s.err == nil }

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Text: s.text, Model: s.model, TokensIn: 1000, TokensOut: 500}, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []model.ProviderAttempt
}

func (o *recordingObserver) ObserveAttempt(a model.ProviderAttempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, a)
}

type recordingLimiter struct {
	keys []string
	err  error
}

func (l *recordingLimiter) Wait(ctx context.Context, key string) error {
	l.keys = append(l.keys, key)
	return l.err
}

func requireClaims(raw string) error {
	if raw == `{"claims":[]}` {
		return errors.New("too few claims")
	}
	if raw == "not json" {
		return fmt.Errorf("parse: %w", extract.ErrBadJSON)
	}
	return nil
}

func TestFallbackRunner_NoProviders(t *testing.T) {
	_, err := NewFallbackRunner(nil).Run(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, ErrNoProviderConfigured)
}

func TestFallbackRunner_FallsThrough(t *testing.T) {
	first := &stubProvider{name: "openai", model: "gpt-4o-mini", err: &APIError{StatusCode: 429, Message: "slow down"}}
	second := &stubProvider{name: "anthropic", model: "claude-3-5-haiku-20241022", text: "not json"}
	third := &stubProvider{name: "ollama", model: "llama3.1", text: `{"claims":[{"id":"c1"}]}`}
	obs := &recordingObserver{}
	lim := &recordingLimiter{}

	resp, err := NewFallbackRunner([]Provider{first, second, third}, WithObserver(obs), WithRateLimiter(lim)).
		Run(context.Background(), RunRequest{UserPrompt: "u", ValidateRaw: requireClaims})
	require.NoError(t, err)

	assert.Equal(t, third.text, resp.RawText)
	assert.Equal(t, "ollama", resp.Best.Provider)
	assert.Equal(t, 0.0, resp.Best.CostEUR)

	require.Len(t, resp.Meta.ProviderMatrix, 3)
	assert.Equal(t, KindRateLimit, resp.Meta.ProviderMatrix[0].ErrorKind)
	assert.Equal(t, KindBadJSON, resp.Meta.ProviderMatrix[1].ErrorKind)
	assert.Equal(t, 1000, resp.Meta.ProviderMatrix[1].TokensIn)
	assert.True(t, resp.Meta.ProviderMatrix[2].OK)

	assert.Len(t, obs.attempts, 3)
	assert.Equal(t, []string{"openai", "anthropic", "ollama"}, lim.keys)
}

func TestFallbackRunner_AllFailed(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "openai", model: "gpt-4o-mini", text: "not json"},
		&stubProvider{name: "anthropic", model: "claude-3-5-haiku", text: "not json"},
	}

	_, err := NewFallbackRunner(providers).Run(context.Background(), RunRequest{ValidateRaw: requireClaims})

	var failed *AllProvidersFailedError
	require.ErrorAs(t, err, &failed)
	assert.Len(t, failed.Failed, 2)
	assert.True(t, failed.AllBadJSON())
	assert.Contains(t, err.Error(), "openai: bad_json")
}

func TestFallbackRunner_ValidationKind(t *testing.T) {
	providers := []Provider{
		&stubProvider{name: "openai", model: "gpt-4o-mini", text: `{"claims":[]}`},
		&stubProvider{name: "ollama", model: "llama3.1", err: errors.New("connection refused")},
	}

	_, err := NewFallbackRunner(providers).Run(context.Background(), RunRequest{ValidateRaw: requireClaims})

	var failed *AllProvidersFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, KindValidation, failed.Failed[0].ErrorKind)
	assert.Equal(t, KindTransport, failed.Failed[1].ErrorKind)
	assert.False(t, failed.AllBadJSON())
}

func TestFallbackRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &stubProvider{name: "openai", model: "gpt-4o-mini", err: context.Canceled}
	second := &stubProvider{name: "ollama", model: "llama3.1", text: `{"claims":[{"id":"c1"}]}`}

	cancel()
	_, err := NewFallbackRunner([]Provider{first, second}).Run(ctx, RunRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, second.calls, "no provider may run after cancellation")

	lim := &recordingLimiter{err: context.DeadlineExceeded}
	_, err = NewFallbackRunner([]Provider{second}, WithRateLimiter(lim)).Run(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallbackRunner_Cost(t *testing.T) {
	p := &stubProvider{name: "openai", model: "gpt-4o-mini-2024-07-18", text: `{"claims":[{"id":"c1"}]}`}

	resp, err := NewFallbackRunner([]Provider{p}).Run(context.Background(), RunRequest{})
	require.NoError(t, err)
	// 1000 * 0.138/1e6 + 500 * 0.552/1e6
	assert.InDelta(t, 0.000414, resp.Best.CostEUR, 1e-9)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("x: %w", extract.ErrBadJSON), KindBadJSON},
		{fmt.Errorf("x: %w", ErrEmptyResponse), KindEmpty},
		{fmt.Errorf("x: %w", context.DeadlineExceeded), KindTimeout},
		{&APIError{StatusCode: 429}, KindRateLimit},
		{&APIError{StatusCode: 500}, KindTransport},
		{errors.New("dial tcp: connection refused"), KindTransport},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
