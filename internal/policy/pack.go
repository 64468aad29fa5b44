package policy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/agora/internal/model"
)

//go:embed pack.yaml
var defaultPackYAML []byte

// Finding origins
const (
	OriginLexicon = "lexicon"
	OriginRule    = "rule"
)

// Entry is one lexicon term or regex rule of a policy pack
type Entry struct {
	ID        string              `yaml:"id"`
	Term      string              `yaml:"term,omitempty"`
	Variants  []string            `yaml:"variants,omitempty"`
	Pattern   string              `yaml:"pattern,omitempty"`
	Severity  model.Severity      `yaml:"severity"`
	Preferred model.BilingualText `yaml:"preferred"`
	Rationale model.BilingualText `yaml:"rationale"`
}

type packFile struct {
	ID      string  `yaml:"id"`
	Version string  `yaml:"version"`
	Lexicon []Entry `yaml:"lexicon"`
	Rules   []Entry `yaml:"rules"`
}

type matcher struct {
	entry  Entry
	origin string
	re     *regexp.Regexp
	group  int
}

// Pack is a versioned, immutable euphemism policy. Two packs can be used side
// by side; nothing in this package holds a current pack.
type Pack struct {
	id       string
	version  string
	hash     string
	matchers []matcher
}

// DefaultPack returns the embedded policy pack
func DefaultPack() *Pack {
	p, err := ParsePack(defaultPackYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded policy pack: %v", err))
	}
	return p
}

// LoadPack reads a policy pack YAML file
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy pack: %w", err)
	}
	return ParsePack(data)
}

// ParsePack builds a pack from YAML. The pack hash is the SHA-256 of data.
func ParsePack(data []byte) (*Pack, error) {
	var f packFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy pack: %w", err)
	}
	if f.ID == "" || f.Version == "" {
		return nil, fmt.Errorf("policy pack needs id and version")
	}

	sum := sha256.Sum256(data)
	p := &Pack{id: f.ID, version: f.Version, hash: hex.EncodeToString(sum[:])}

	for _, e := range f.Lexicon {
		terms := append([]string{e.Term}, e.Variants...)
		alts := make([]string, 0, len(terms))
		for _, t := range terms {
			if t = strings.TrimSpace(t); t != "" {
				alts = append(alts, strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`))
			}
		}
		if e.ID == "" || len(alts) == 0 {
			return nil, fmt.Errorf("lexicon entry %q needs id and term", e.ID)
		}
		// Up to three trailing letters cover inflected forms. The end boundary is
		// checked in Find since RE2 has no lookahead.
		re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])((?:` + strings.Join(alts, "|") + `)\p{L}{0,3})`)
		if err != nil {
			return nil, fmt.Errorf("lexicon entry %s: %w", e.ID, err)
		}
		p.matchers = append(p.matchers, matcher{entry: normalizeEntry(e), origin: OriginLexicon, re: re, group: 1})
	}

	for _, e := range f.Rules {
		if e.ID == "" || e.Pattern == "" {
			return nil, fmt.Errorf("rule %q needs id and pattern", e.ID)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", e.ID, err)
		}
		p.matchers = append(p.matchers, matcher{entry: normalizeEntry(e), origin: OriginRule, re: re})
	}

	return p, nil
}

func normalizeEntry(e Entry) Entry {
	switch e.Severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
	default:
		e.Severity = model.SeverityMedium
	}
	return e
}

// Ref identifies the pack in audit output
func (p *Pack) Ref() model.PolicyPackRef {
	return model.PolicyPackRef{ID: p.id, Version: p.version, Hash: p.hash}
}

// Entries returns a copy of all lexicon entries and rules
func (p *Pack) Entries() []Entry {
	out := make([]Entry, 0, len(p.matchers))
	for _, m := range p.matchers {
		out = append(out, m.entry)
	}
	return out
}

// Find returns every lexicon and rule hit in text, ordered by position.
// Start and End are rune offsets into text.
func (p *Pack) Find(text string) []model.EuphemismFinding {
	var findings []model.EuphemismFinding
	for _, m := range p.matchers {
		for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*m.group], loc[2*m.group+1]
			if start < 0 {
				continue
			}
			if m.origin == OriginLexicon && end < len(text) {
				if r, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsLetter(r) || unicode.IsDigit(r) {
					continue
				}
			}
			term := m.entry.Term
			if term == "" {
				term = m.entry.ID
			}
			findings = append(findings, model.EuphemismFinding{
				RuleID:    m.entry.ID,
				Origin:    m.origin,
				Term:      term,
				Match:     text[start:end],
				Start:     utf8.RuneCountInString(text[:start]),
				End:       utf8.RuneCountInString(text[:end]),
				Severity:  m.entry.Severity,
				Preferred: m.entry.Preferred,
				Rationale: m.entry.Rationale,
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].RuleID < findings[j].RuleID
	})
	return findings
}
