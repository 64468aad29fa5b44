package util

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords covers German and English function words that carry no topic
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		aber alle allem allen aller alles also andere anderen auch auf aus bei beim bereits bis damit dann
		darauf darum dass davon dazu denen denn deren dies diese diesem diesen dieser dieses doch durch eine
		einem einen einer eines etwa etwas gegen haben hatte hatten hier hinter immer jede jedem jeden jeder
		jedes jetzt kann kein keine keinem keinen keiner koennen konnen konnte mehr mein meine muss muessen mussen nach
		nicht noch nur oder ohne schon sehr sein seine seinem seinen seiner sich sind soll sollen sollte sowie
		ueber uber unter viel viele vom von wann warum weil wenn werden wird wieder wollen wurde wurden zwar
		zwischen about after again also another because been before being between both could does doing
		down during each from further have having here into itself just more most much must only other over
		same should some such than that their them then there these they this those through under until very
		were what when where which while whom with would your
	`) {
		stopwords[w] = true
	}
}

// Fold lowercases s and strips diacritics ("Übergriff" -> "ubergriff",
// "Straße" -> "strasse")
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ReplaceAll(strings.ToLower(folded), "ß", "ss")
}

// Tokens returns the folded, stopword-free tokens of s with at least minLen runes
func Tokens(s string, minLen int) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct tokens of s
func TokenSet(s string, minLen int) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(s, minLen) {
		set[t] = true
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, 0 when both are empty
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

var entityPattern = regexp.MustCompile(`\p{Lu}[\p{L}\-]+(?:\s+\p{Lu}[\p{L}\-]+)+`)

// Entities returns folded capitalized multi-word sequences such as "Deutsche Bahn"
func Entities(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range entityPattern.FindAllString(s, -1) {
		key := Fold(m)
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// SplitSentences splits text at terminal punctuation followed by whitespace
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder
	rs := []rune(text)

	for i, r := range rs {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(rs) || unicode.IsSpace(rs[i+1]) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

// WordCount counts whitespace-separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}
