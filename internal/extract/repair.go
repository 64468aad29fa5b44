package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/agora/internal/model"
)

// CodeBadJSON is the failure code reported when no candidate validates
const CodeBadJSON = "BAD_JSON"

// ErrBadJSON marks provider output that yields no valid JSON document
var ErrBadJSON = errors.New("BAD_JSON: no valid JSON document in provider output")

// Validator checks a decoded candidate document; nil accepts it
type Validator func(doc any) error

// Candidate is a piece of raw text that may hold the JSON document
type Candidate struct {
	Text     string
	Coercion model.JSONCoercion
}

// ParseResult is the outcome of a repair attempt. Failure is reported in the
// result, never by panicking, so callers pick their own retry policy.
type ParseResult struct {
	OK       bool
	Value    any
	Coercion model.JSONCoercion
	Code     string
	Err      error
}

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// Candidates runs the syntactic stage: it lists every text span that might be
// the JSON document, in the order they should be tried.
func Candidates(raw string) []Candidate {
	trimmed := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if trimmed == "" {
		return nil
	}

	var out []Candidate
	seen := make(map[string]bool)
	add := func(text string, c model.JSONCoercion) {
		text = strings.TrimSpace(text)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, Candidate{Text: text, Coercion: c})
	}

	add(trimmed, model.CoercionNone)

	if strings.HasPrefix(trimmed, "```") || strings.HasSuffix(trimmed, "```") {
		add(stripFence(trimmed), model.CoercionFence)
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(trimmed, -1) {
		add(m[1], model.CoercionBackticks)
	}

	for _, span := range balancedSpans(trimmed) {
		add(trimmed[span[0]:span[1]], model.CoercionBraces)
	}

	return out
}

// Repair runs the syntactic stage and then validates candidates one by one,
// accepting the first that decodes and passes validate.
func Repair(raw string, validate Validator) ParseResult {
	return firstValid(Candidates(raw), validate, nil)
}

func firstValid(candidates []Candidate, validate Validator, rewrite func(string) string) ParseResult {
	var lastErr error
	for _, c := range candidates {
		text := c.Text
		if rewrite != nil {
			text = rewrite(text)
		}

		var doc any
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			lastErr = err
			continue
		}
		if validate != nil {
			if err := validate(doc); err != nil {
				lastErr = err
				continue
			}
		}
		return ParseResult{OK: true, Value: doc, Coercion: c.Coercion}
	}

	err := fmt.Errorf("%w (%d candidates tried)", ErrBadJSON, len(candidates))
	if lastErr != nil {
		err = fmt.Errorf("%w (%d candidates tried, last: %v)", ErrBadJSON, len(candidates), lastErr)
	}
	return ParseResult{Code: CodeBadJSON, Err: err}
}

// stripFence removes a leading ```lang line and a trailing ``` marker
func stripFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			head := strings.TrimSpace(s[:nl])
			if !strings.ContainsAny(head, "{[") {
				s = s[nl+1:]
			}
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// balancedSpans scans s once and returns the [start,end) offsets of every
// balanced {...} or [...] span. Brackets inside string literals are ignored.
// Outer spans sort before the spans nested in them.
func balancedSpans(s string) [][2]int {
	type open struct {
		pos int
		ch  byte
	}
	var (
		stack    []open
		spans    [][2]int
		inString bool
		escaped  bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			// quotes only matter inside a candidate; prose apostrophes and quotes are ignored
			if len(stack) > 0 {
				inString = true
			}
		case '{', '[':
			stack = append(stack, open{pos: i, ch: ch})
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if (ch == '}' && top.ch != '{') || (ch == ']' && top.ch != '[') {
				stack = stack[:0]
				continue
			}
			stack = stack[:len(stack)-1]
			spans = append(spans, [2]int{top.pos, i + 1})
		}
	}

	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a][0] != spans[b][0] {
			return spans[a][0] < spans[b][0]
		}
		return spans[a][1] > spans[b][1]
	})
	return spans
}
