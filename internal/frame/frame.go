// Package frame derives the debate frame of a claim: where it is decided,
// which policy field it belongs to and how it fares on the anti-populism gates.
package frame

import (
	"strings"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/taxonomy"
	"github.com/ppiankov/agora/internal/util"
)

// Build derives the frame of one claim. It is pure: the same claim always
// yields the same frame.
func Build(claim model.StatementRecord) *model.DebateFrame {
	f := &model.DebateFrame{
		Jurisdiction: Jurisdiction(claim),
		PolicyDomain: PolicyDomain(claim),
	}
	f.AntiPopulism = Evaluate(claim.Text, f)
	return f
}

// Jurisdiction guesses the decision level: declared responsibility first,
// then keywords in the claim text, then national
func Jurisdiction(claim model.StatementRecord) model.Jurisdiction {
	switch taxonomy.NormalizeResponsibility(claim.Responsibility) {
	case taxonomy.RespKommune:
		return model.JurisdictionLocal
	case taxonomy.RespLand, taxonomy.RespBund:
		return model.JurisdictionNational
	case taxonomy.RespEU:
		return model.JurisdictionEU
	}

	text := newHaystack(claim.Text + " " + claim.Title)
	for _, rule := range jurisdictionRules {
		if text.any(rule.keywords) {
			return rule.level
		}
	}
	return model.JurisdictionNational
}

var jurisdictionRules = []struct {
	level    model.Jurisdiction
	keywords []string
}{
	{model.JurisdictionEU, []string{
		"eu", "europaische union", "eu-kommission", "europaparlament", "europaisches parlament",
		"brussel", "eu-weit", "binnenmarkt", "european union",
	}},
	{model.JurisdictionNeighbour, []string{
		"nachbarland", "nachbarlander", "frankreich", "polen", "osterreich", "schweiz",
		"niederlande", "danemark", "tschechien", "belgien", "luxemburg", "grenzregion",
	}},
	{model.JurisdictionGlobal, []string{
		"weltweit", "global", "uno", "vereinte nationen", "united nations", "nato",
		"klimaabkommen", "welthandel", "international",
	}},
	{model.JurisdictionLocal, []string{
		"stadt", "gemeinde", "kommune", "kommunal", "stadtrat", "gemeinderat", "quartier",
		"stadtteil", "innenstadt", "burgermeister", "ortsteil", "vor ort", "kiez", "landkreis",
	}},
	{model.JurisdictionNational, []string{
		"bund", "bundesregierung", "bundestag", "deutschland", "bundesweit", "national",
		"bundesland", "landtag", "landesregierung",
	}},
}

// declaredPolicyDomains maps the domain vocabulary onto policy fields
var declaredPolicyDomains = map[string]string{
	"arbeit":         "labour",
	"bildung":        "education",
	"demokratie":     "democracy",
	"digitales":      "digital",
	"energie":        "energy",
	"finanzen":       "finance",
	"gesundheit":     "health",
	"justiz":         "justice",
	"kultur":         "culture",
	"landwirtschaft": "agriculture",
	"migration":      "migration",
	"sicherheit":     "security",
	"soziales":       "social",
	"umwelt":         "environment",
	"verkehr":        "mobility",
	"verteidigung":   "defence",
	"wirtschaft":     "economy",
	"wohnen":         "housing",
	"aussenpolitik":  "foreign",
}

var policyKeywords = []struct {
	domain   string
	keywords []string
}{
	{"mobility", []string{"verkehr", "tempo", "tempo-30", "tempo-30-zonen", "radweg", "radwege", "bahn", "bus", "nahverkehr", "auto", "autos", "parkplatz", "parkplatze", "strasse", "strassen", "fahrrad", "tempolimit"}},
	{"education", []string{"schule", "schulen", "kita", "lehrer", "lehrkrafte", "bildung", "universitat", "hochschule", "ausbildung"}},
	{"health", []string{"krankenhaus", "klinik", "pflege", "arzt", "arzte", "gesundheit", "krankenkasse", "impfung"}},
	{"environment", []string{"klima", "umwelt", "co2", "emissionen", "naturschutz", "baume", "luftqualitat", "hitze"}},
	{"energy", []string{"energie", "strom", "heizung", "windkraft", "solar", "photovoltaik", "gas"}},
	{"housing", []string{"miete", "mieten", "wohnung", "wohnungen", "wohnraum", "wohnen", "bauen"}},
	{"security", []string{"polizei", "kriminalitat", "sicherheit", "uberwachung", "videouberwachung"}},
	{"migration", []string{"migration", "asyl", "fluchtlinge", "integration", "einwanderung", "abschiebung"}},
	{"social", []string{"rente", "burgergeld", "armut", "sozial", "kinderarmut", "grundsicherung"}},
	{"finance", []string{"steuer", "steuern", "haushalt", "schulden", "schuldenbremse", "abgabe"}},
	{"digital", []string{"digital", "digitalisierung", "internet", "breitband", "daten", "ki"}},
	{"economy", []string{"wirtschaft", "unternehmen", "arbeitsplatze", "industrie", "mittelstand"}},
	{"labour", []string{"mindestlohn", "arbeitszeit", "arbeitnehmer", "tarif", "gewerkschaft"}},
	{"democracy", []string{"wahl", "wahlen", "wahlrecht", "beteiligung", "burgerrat", "volksentscheid"}},
}

// PolicyDomain maps the declared domain through a fixed table, else matches
// keywords, else "general"
func PolicyDomain(claim model.StatementRecord) string {
	declared := []string{claim.Domain}
	declared = append(declared, claim.Domains...)
	for _, d := range declared {
		if pd, ok := declaredPolicyDomains[taxonomy.NormalizeDomain(d)]; ok {
			return pd
		}
	}

	text := newHaystack(claim.Text + " " + claim.Title + " " + claim.Topic)
	for _, rule := range policyKeywords {
		if text.any(rule.keywords) {
			return rule.domain
		}
	}
	return "general"
}

// haystack is folded text with a token index. Single-word keywords must
// match a whole token, phrases match as substrings.
type haystack struct {
	folded string
	tokens map[string]bool
}

func newHaystack(s string) haystack {
	folded := " " + strings.Join(strings.Fields(util.Fold(s)), " ") + " "
	tokens := make(map[string]bool)
	for _, t := range strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || strings.ContainsRune(".,;:!?()\"'«»„“”", r)
	}) {
		tokens[t] = true
	}
	return haystack{folded: folded, tokens: tokens}
}

func (h haystack) has(keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(h.folded, " "+keyword)
	}
	return h.tokens[keyword]
}

func (h haystack) any(keywords []string) bool {
	for _, k := range keywords {
		if h.has(k) {
			return true
		}
	}
	return false
}
