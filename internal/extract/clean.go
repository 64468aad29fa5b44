package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// a tag is a known element name followed only by name="value" attributes,
	// so comparisons like "a<b und c>d" or "<Schwelle>" stay text
	tagPattern      = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)((?:\s+[a-zA-Z_:][\w:.-]*\s*=\s*(?:"[^"]*"|'[^']*'))*)\s*/?>`)
	commentPattern  = regexp.MustCompile(`(?s)<!--.*?-->`)
	hiddenElemNames = []string{"script", "style", "noscript", "iframe"}
	hiddenPatterns  = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(hiddenElemNames))
		for _, name := range hiddenElemNames {
			out = append(out, regexp.MustCompile(`(?is)<`+name+`\b[^>]*>.*?</`+name+`\s*>`))
		}
		return out
	}()
)

// cleanText trims a provider string and strips any markup that leaked into it
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if hasMarkup(s) {
		s = stripMarkup(s)
	}
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

func hasMarkup(s string) bool {
	if !strings.ContainsRune(s, '<') {
		return false
	}
	if commentPattern.MatchString(s) {
		return true
	}
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if isElement(m[1]) {
			return true
		}
	}
	return false
}

// stripMarkup drops comments, hidden elements with their content and every
// known tag, keeping the text between them
func stripMarkup(s string) string {
	s = commentPattern.ReplaceAllString(s, " ")
	for _, re := range hiddenPatterns {
		s = re.ReplaceAllString(s, " ")
	}
	return tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		if isElement(tagPattern.FindStringSubmatch(tag)[1]) {
			return " "
		}
		return tag
	})
}

func isElement(name string) bool {
	return atom.Lookup([]byte(strings.ToLower(name))) != 0
}
