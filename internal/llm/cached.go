package llm

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/agora/internal/cache"
	"github.com/ppiankov/agora/internal/model"
)

const cacheNamespace = "analyze"

// CachedRunner answers repeated requests from a cache. Cached text goes
// through ValidateRaw again before it is reused, so a changed validator
// never accepts stale output.
type CachedRunner struct {
	next   Runner
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

type cachedAnswer struct {
	RawText string `json:"rawText"`
	Best    Best   `json:"best"`
}

// NewCachedRunner wraps next. A zero ttl uses the cache default.
func NewCachedRunner(next Runner, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedRunner {
	return &CachedRunner{next: next, cache: c, ttl: ttl, logger: logger}
}

// CacheKey is the cache key of a request
func CacheKey(req RunRequest) string {
	return cache.Key(cacheNamespace, req.SystemPrompt, req.UserPrompt, req.Locale, strconv.Itoa(req.MaxClaims))
}

// Run serves a validated cache hit or delegates and stores the answer
func (r *CachedRunner) Run(ctx context.Context, req RunRequest) (*RunResponse, error) {
	key := CacheKey(req)

	if resp, ok := r.lookup(key, req); ok {
		return resp, nil
	}

	resp, err := r.next.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cachedAnswer{RawText: resp.RawText, Best: resp.Best})
	if err == nil {
		if err := r.cache.Set(key, data, r.ttl); err != nil {
			r.logger.Warn().Err(err).Msg("failed to store provider answer")
		}
	}
	return resp, nil
}

func (r *CachedRunner) lookup(key string, req RunRequest) (*RunResponse, bool) {
	data, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}

	var answer cachedAnswer
	if err := json.Unmarshal(data, &answer); err != nil {
		_ = r.cache.Delete(key)
		return nil, false
	}
	if req.ValidateRaw != nil {
		if err := req.ValidateRaw(answer.RawText); err != nil {
			r.logger.Debug().Err(err).Msg("cached answer no longer validates")
			_ = r.cache.Delete(key)
			return nil, false
		}
	}

	best := answer.Best
	best.Cached = true
	best.CostEUR = 0
	best.DurationMs = 0

	return &RunResponse{
		RawText: answer.RawText,
		Best:    best,
		Meta: RunMeta{ProviderMatrix: []model.ProviderAttempt{{
			Provider:  best.Provider,
			Model:     best.Model,
			OK:        true,
			TokensIn:  best.TokensIn,
			TokensOut: best.TokensOut,
			Cached:    true,
		}}},
	}, true
}
