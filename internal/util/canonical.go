package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/ppiankov/agora/internal/model"
)

// trackingParams are query parameters that never change the addressed content
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"dclid":       true,
	"msclkid":     true,
	"yclid":       true,
	"igshid":      true,
	"mc_cid":      true,
	"mc_eid":      true,
	"_hsenc":      true,
	"_hsmi":       true,
	"ocid":        true,
	"ref":         true,
	"ref_src":     true,
	"spm":         true,
	"at_medium":   true,
	"at_campaign": true,
}

// CanonicalURL normalizes a URL into a stable dedup key.
// It lowercases scheme and host, drops default ports, fragments, tracking
// parameters and trailing slashes, and sorts the remaining query. Applying it
// twice yields the same result. It returns "" when rawURL has no usable host.
func CanonicalURL(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	host := normalizeHost(parsed.Host, scheme)
	if host == "" {
		return ""
	}

	path := strings.TrimRight(parsed.EscapedPath(), "/")

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)

	if q := canonicalQuery(parsed.Query()); q != "" {
		b.WriteString("?")
		b.WriteString(q)
	}

	return b.String()
}

// Host returns the lowercased host of a URL without "www." and port, or ""
func Host(rawURL string) string {
	canonical := CanonicalURL(rawURL)
	if canonical == "" {
		return ""
	}
	parsed, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func normalizeHost(hostport, scheme string) string {
	host := strings.ToLower(hostport)
	port := ""
	if h, p, err := net.SplitHostPort(host); err == nil {
		host, port = h, p
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}

	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	return host
}

func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		vals := append([]string(nil), values[key]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// SourceKey returns the dedup key of a source: its canonical URL, else
// "h:" plus a SHA-256 prefix over publisher, title, domain and the first
// 120 runes of the snippet
func SourceKey(ref model.SourceRef) string {
	if canonical := CanonicalURL(ref.URL); canonical != "" {
		return canonical
	}
	content := strings.Join([]string{
		Fold(strings.TrimSpace(ref.Publisher)),
		Fold(strings.TrimSpace(ref.Title)),
		strings.ToLower(strings.TrimSpace(ref.Domain)),
		Fold(Truncate(strings.TrimSpace(ref.Snippet), 120)),
	}, "|")
	sum := sha256.Sum256([]byte(content))
	return "h:" + hex.EncodeToString(sum[:])[:16]
}

// DedupeSources drops sources whose SourceKey was already seen, keeping the
// first occurrence
func DedupeSources(refs []model.SourceRef) []model.SourceRef {
	seen := make(map[string]bool, len(refs))
	out := make([]model.SourceRef, 0, len(refs))
	for _, ref := range refs {
		key := SourceKey(ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	return out
}
