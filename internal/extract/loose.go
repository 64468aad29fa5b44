package extract

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ppiankov/agora/internal/model"
)

// RepairLoose is the last-chance recovery pass. Every candidate (and the raw
// text from its first bracket) goes through jsonrepair, which drops comments,
// fences and trailing commas, replaces typographic quotes and closes truncated
// strings and structures. A success reports coercion "loose".
func RepairLoose(raw string, validate Validator) ParseResult {
	candidates := Candidates(raw)
	loose := make([]Candidate, 0, len(candidates)+1)
	for _, c := range candidates {
		loose = append(loose, Candidate{Text: c.Text, Coercion: model.CoercionLoose})
	}

	// an unclosed object is never a balanced span, so also try from its first brace
	if start := strings.IndexAny(raw, "{["); start >= 0 {
		loose = append(loose, Candidate{Text: raw[start:], Coercion: model.CoercionLoose})
	}

	return firstValid(loose, validate, loosen)
}

// loosen returns s unchanged when jsonrepair gives up, so the decode that
// follows reports the failure
func loosen(s string) string {
	repaired, err := jsonrepair.Repair(s)
	if err != nil {
		return s
	}
	return repaired
}
