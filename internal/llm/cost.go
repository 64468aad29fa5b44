package llm

import (
	"math"
	"strings"
)

// Rate is the price of one million tokens in EUR
type Rate struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// rates are list prices converted at 0.92 EUR/USD. Lookup is by longest
// matching model prefix so dated snapshots share the family price.
var rates = map[string]Rate{
	"gpt-4o-mini":       {InputPerMTok: 0.138, OutputPerMTok: 0.552},
	"gpt-4o":            {InputPerMTok: 2.30, OutputPerMTok: 9.20},
	"gpt-4.1-mini":      {InputPerMTok: 0.368, OutputPerMTok: 1.472},
	"gpt-4.1-nano":      {InputPerMTok: 0.092, OutputPerMTok: 0.368},
	"gpt-4.1":           {InputPerMTok: 1.84, OutputPerMTok: 7.36},
	"claude-3-5-haiku":  {InputPerMTok: 0.736, OutputPerMTok: 3.68},
	"claude-3-5-sonnet": {InputPerMTok: 2.76, OutputPerMTok: 13.80},
	"claude-3-7-sonnet": {InputPerMTok: 2.76, OutputPerMTok: 13.80},
	"claude-sonnet-4":   {InputPerMTok: 2.76, OutputPerMTok: 13.80},
	"claude-haiku-4":    {InputPerMTok: 0.92, OutputPerMTok: 4.60},
}

// RateFor returns the price of a model. Local providers and unknown models
// cost nothing.
func RateFor(provider, modelName string) (Rate, bool) {
	if strings.EqualFold(provider, "ollama") {
		return Rate{}, false
	}

	name := strings.ToLower(modelName)
	best, bestLen := Rate{}, 0
	for prefix, r := range rates {
		if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
			best, bestLen = r, len(prefix)
		}
	}
	return best, bestLen > 0
}

// EstimateCost returns the EUR cost of a call, rounded to 6 decimals
func EstimateCost(provider, modelName string, tokensIn, tokensOut int) float64 {
	r, ok := RateFor(provider, modelName)
	if !ok {
		return 0
	}
	cost := float64(tokensIn)*r.InputPerMTok/1e6 + float64(tokensOut)*r.OutputPerMTok/1e6
	return math.Round(cost*1e6) / 1e6
}
