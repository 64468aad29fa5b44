package pipeline

import (
	"errors"
	"fmt"

	"github.com/ppiankov/agora/internal/model"
)

var (
	// ErrInvalidInput marks a request the driver refuses before calling a provider
	ErrInvalidInput = errors.New("invalid analyze request")

	// ErrTooFewClaims marks provider output that decodes but carries fewer
	// valid claims than the input length requires
	ErrTooFewClaims = errors.New("too few valid claims")
)

// ConfigurationError means no provider is configured at all. It needs
// operator action; retrying the request cannot help.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderFailureError means every configured provider failed for this
// request. The caller may retry.
type ProviderFailureError struct {
	Failed []model.ProviderAttempt

	// AllBadJSON is set when every failure was malformed JSON
	AllBadJSON bool

	Err error
}

func (e *ProviderFailureError) Error() string {
	if e.AllBadJSON {
		return fmt.Sprintf("provider failure (all malformed JSON): %v", e.Err)
	}
	return fmt.Sprintf("provider failure: %v", e.Err)
}

func (e *ProviderFailureError) Unwrap() error { return e.Err }

// SchemaMismatchError means the accepted provider text never produced a
// valid document, even after loose recovery. It is terminal for the request.
type SchemaMismatchError struct {
	Provider string
	Model    string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("schema mismatch: %v", e.Err)
	}
	return fmt.Sprintf("schema mismatch from %s/%s: %v", e.Provider, e.Model, e.Err)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }
