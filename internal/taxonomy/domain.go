package taxonomy

import (
	"strings"

	"github.com/ppiankov/agora/internal/util"
)

// DefaultDomain is the catch-all policy domain
const DefaultDomain = "sonstiges"

// Domains is the closed policy-domain vocabulary
var Domains = []string{
	"arbeit", "bildung", "demokratie", "digitales", "energie", "finanzen",
	"gesundheit", "justiz", "kultur", "landwirtschaft", "migration", "sicherheit",
	"soziales", "umwelt", "verkehr", "verteidigung", "wirtschaft", "wohnen",
	"aussenpolitik", DefaultDomain,
}

// domainSynonyms maps folded spellings onto the vocabulary
var domainSynonyms = map[string]string{
	"work":              "arbeit",
	"labour":            "arbeit",
	"labor":             "arbeit",
	"beschaftigung":     "arbeit",
	"education":         "bildung",
	"schule":            "bildung",
	"schulen":           "bildung",
	"hochschule":        "bildung",
	"democracy":         "demokratie",
	"beteiligung":       "demokratie",
	"wahlen":            "demokratie",
	"digital":           "digitales",
	"digitalisierung":   "digitales",
	"technology":        "digitales",
	"energy":            "energie",
	"finance":           "finanzen",
	"haushalt":          "finanzen",
	"steuern":           "finanzen",
	"taxes":             "finanzen",
	"health":            "gesundheit",
	"pflege":            "gesundheit",
	"justice":           "justiz",
	"recht":             "justiz",
	"law":               "justiz",
	"culture":           "kultur",
	"agriculture":       "landwirtschaft",
	"migration_asyl":    "migration",
	"asyl":              "migration",
	"integration":       "migration",
	"security":          "sicherheit",
	"innere sicherheit": "sicherheit",
	"polizei":           "sicherheit",
	"social":            "soziales",
	"sozialpolitik":     "soziales",
	"rente":             "soziales",
	"environment":       "umwelt",
	"klima":             "umwelt",
	"climate":           "umwelt",
	"naturschutz":       "umwelt",
	"transport":         "verkehr",
	"mobility":          "verkehr",
	"mobilitat":         "verkehr",
	"traffic":           "verkehr",
	"defence":           "verteidigung",
	"defense":           "verteidigung",
	"bundeswehr":        "verteidigung",
	"economy":           "wirtschaft",
	"housing":           "wohnen",
	"miete":             "wohnen",
	"foreign policy":    "aussenpolitik",
	"foreign affairs":   "aussenpolitik",
	"other":             DefaultDomain,
	"misc":              DefaultDomain,
	"general":           DefaultDomain,
	"allgemein":         DefaultDomain,
}

var domainSet = func() map[string]bool {
	m := make(map[string]bool, len(Domains))
	for _, d := range Domains {
		m[d] = true
	}
	return m
}()

// NormalizeDomain maps one free-form domain onto the vocabulary.
// Empty input yields ""; anything unrecognized yields DefaultDomain.
func NormalizeDomain(raw string) string {
	key := strings.Join(strings.Fields(util.Fold(raw)), " ")
	if key == "" {
		return ""
	}
	if domainSet[key] {
		return key
	}
	if d, ok := domainSynonyms[key]; ok {
		return d
	}
	if d, ok := domainSynonyms[strings.ReplaceAll(key, "-", " ")]; ok {
		return d
	}
	return DefaultDomain
}

// DomainSet is the normalized domain pair of a claim or request.
// Primary "" and Domains nil both mean "not declared".
type DomainSet struct {
	Primary string
	Domains []string
}

// NormalizeDomains normalizes an optional primary domain and a domain list.
// Domains are deduplicated in first-seen order. The primary is the explicit
// one when given (and leads the list), else the first list element.
func NormalizeDomains(primary string, domains []string) DomainSet {
	var out []string
	seen := make(map[string]bool)
	add := func(d string) {
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}

	p := NormalizeDomain(primary)
	add(p)
	for _, d := range domains {
		add(NormalizeDomain(d))
	}

	if len(out) == 0 {
		return DomainSet{}
	}
	if p == "" {
		p = out[0]
	}
	return DomainSet{Primary: p, Domains: out}
}
