package pipeline

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/agora/internal/extract"
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Short-form inputs need only one claim
const (
	shortInputChars = 160
	shortInputWords = 22

	shortMinClaims = 1
	longMinClaims  = 3
)

// IsShortInput reports whether text is short enough to need only one claim
func IsShortInput(text string) bool {
	return utf8.RuneCountInString(text) <= shortInputChars || util.WordCount(text) <= shortInputWords
}

// MinClaims returns the number of valid claims text must yield
func MinClaims(text string) int {
	if IsShortInput(text) {
		return shortMinClaims
	}
	return longMinClaims
}

// claimValidator accepts a decoded document once it yields enough
// sanitized claims
func claimValidator(minClaims, maxClaims int) extract.Validator {
	return func(doc any) error {
		n := len(extract.SanitizeClaims(doc, maxClaims))
		if n < minClaims {
			return fmt.Errorf("%w: got %d, need %d", ErrTooFewClaims, n, minClaims)
		}
		return nil
	}
}

// parseDocument runs the strict repair stages and then one loose pass
func parseDocument(raw string, validate extract.Validator) extract.ParseResult {
	if res := extract.Repair(raw, validate); res.OK {
		return res
	}
	return extract.RepairLoose(raw, validate)
}

// decode parses raw into a document with enough claims. A document that
// decodes but has too few claims reports ErrTooFewClaims; text that never
// decodes reports extract.ErrBadJSON.
func decode(raw string, minClaims, maxClaims int) (extract.ParseResult, error) {
	res := parseDocument(raw, claimValidator(minClaims, maxClaims))
	if res.OK {
		return res, nil
	}
	if doc := parseDocument(raw, nil); doc.OK {
		n := len(extract.SanitizeClaims(doc.Value, maxClaims))
		return res, fmt.Errorf("%w: got %d, need %d", ErrTooFewClaims, n, minClaims)
	}
	if res.Err != nil {
		return res, res.Err
	}
	return res, extract.ErrBadJSON
}

// rawValidator is handed to the provider runner
func rawValidator(minClaims, maxClaims int) func(raw string) error {
	return func(raw string) error {
		_, err := decode(raw, minClaims, maxClaims)
		return err
	}
}

// coercion reports the strategy of a successful parse
func coercion(res extract.ParseResult) model.JSONCoercion {
	if res.Coercion == "" {
		return model.CoercionNone
	}
	return res.Coercion
}
