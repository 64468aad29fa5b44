package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/agora/internal/extract"
	"github.com/ppiankov/agora/internal/model"
)

// Error kinds recorded in the provider matrix
const (
	KindTransport  = "transport"
	KindTimeout    = "timeout"
	KindRateLimit  = "rate_limit"
	KindEmpty      = "empty"
	KindBadJSON    = "bad_json"
	KindValidation = "validation"
)

// ErrNoProviderConfigured is returned when no provider can be built from the
// configuration. It is an operator problem, retrying does not help.
var ErrNoProviderConfigured = errors.New("no LLM provider configured")

// ErrEmptyResponse is returned by adapters when the provider answered with no text
var ErrEmptyResponse = errors.New("empty response from provider")

// APIError is a non-2xx answer of a provider HTTP API
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API error (%d): %s - %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// AllProvidersFailedError lists every failed attempt of one run. The caller
// may retry the run later.
type AllProvidersFailedError struct {
	Failed []model.ProviderAttempt
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, a := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.ErrorKind))
	}
	return fmt.Sprintf("all %d providers failed (%s)", len(e.Failed), strings.Join(parts, ", "))
}

// AllBadJSON reports whether every provider answered but none produced
// readable JSON
func (e *AllProvidersFailedError) AllBadJSON() bool {
	if len(e.Failed) == 0 {
		return false
	}
	for _, a := range e.Failed {
		if a.ErrorKind != KindBadJSON {
			return false
		}
	}
	return true
}

// ErrorKind classifies a provider or validation error for the provider matrix
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, extract.ErrBadJSON) {
		return KindBadJSON
	}
	if errors.Is(err, ErrEmptyResponse) {
		return KindEmpty
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return KindRateLimit
	}
	var oaErr *openai.APIError
	if errors.As(err, &oaErr) && oaErr.HTTPStatusCode == http.StatusTooManyRequests {
		return KindRateLimit
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return KindRateLimit
	}

	var netTimeout interface{ Timeout() bool }
	if errors.As(err, &netTimeout) && netTimeout.Timeout() {
		return KindTimeout
	}

	return KindTransport
}

// validationError marks a ValidateRaw rejection
type validationError struct {
	err error
}

func (e *validationError) Error() string { return "validation: " + e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

func validationKind(err error) string {
	if errors.Is(err, extract.ErrBadJSON) {
		return KindBadJSON
	}
	return KindValidation
}
