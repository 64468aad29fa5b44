package audit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
	"github.com/ppiankov/agora/internal/validate"
)

// Context gap kinds
const (
	GapTimeframe   = "timeframe"
	GapLocation    = "location"
	GapActors      = "actors"
	GapEvidence    = "evidence"
	GapLegalFrame  = "legal_frame"
	GapNumbers     = "numbers"
	GapDefinitions = "definitions"
)

var (
	timeframePattern  = regexp.MustCompile(`\b(19|20)\d{2}\b|\b(januar|februar|marz|april|mai|juni|juli|august|september|oktober|november|dezember|montag|dienstag|mittwoch|donnerstag|freitag|samstag|sonntag|gestern|heute|morgen|woche|wochen|monat|monate|jahr|jahre|jahren|seit|bis|stichtag|frist|legislatur|today|yesterday|week|month|year|since|until|deadline)\b`)
	placePattern      = regexp.MustCompile(`(?:^|\s)(?i:in|im|aus|bei|nahe|near|at)\s+\p{Lu}`)
	locationPattern   = regexp.MustCompile(`\b(stadt|gemeinde|kommune|kreis|landkreis|bezirk|viertel|region|bundesland|ort|strasse|strassen|schulen?|deutschland|europa|city|district|country)\b`)
	actorNounPattern  = regexp.MustCompile(`\b(regierung|ministerium|minister(in)?|behorde|polizei|stadtrat|gemeinderat|landtag|bundestag|partei|burgermeister(in)?|verwaltung|unternehmen|verband|gericht|kommission|government|ministry|council|parliament|agency|company)\b`)
	evidencePattern   = regexp.MustCompile(`\b(studie|studien|daten|statistik|bericht|quelle|quellen|laut|zufolge|gutachten|umfrage|analyse|evaluation|messung|erhebung|study|data|statistics|report|source|survey|according)\b`)
	legalPattern      = regexp.MustCompile(`\b(gesetz|gesetze|verordnung|paragraf|paragraph|stvo|grundgesetz|richtlinie|satzung|urteil|gericht|rechtlich|rechtsgrundlage|legal|law|regulation|directive|statute)\b|§`)
	numberPattern     = regexp.MustCompile(`\d`)
	definitionPattern = regexp.MustCompile(`\b(bedeutet|definiert|definition|gemeint|im sinne|das heisst|d\.\s?h\.|means|defined)\b`)
)

var gapHints = map[string]model.BilingualText{
	GapTimeframe:   {De: "Zeitraum oder Stichtag angeben.", En: "State the timeframe or deadline."},
	GapLocation:    {De: "Ort oder Geltungsbereich nennen.", En: "Name the place or scope."},
	GapActors:      {De: "Verantwortliche Akteure benennen.", En: "Name the responsible actors."},
	GapEvidence:    {De: "Belege oder Quellen anführen.", En: "Cite evidence or sources."},
	GapLegalFrame:  {De: "Rechtsrahmen oder Zuständigkeit klären.", En: "Clarify the legal frame or competence."},
	GapNumbers:     {De: "Größenordnungen mit Zahlen belegen.", En: "Quantify the magnitudes."},
	GapDefinitions: {De: "Zentrale Begriffe definieren.", En: "Define the key terms."},
}

// ContextGaps lists the kinds of context text does not provide. A missing
// evidence marker is high severity only when no sources were supplied either.
func ContextGaps(text string, sourceCount int) []model.ContextGap {
	folded := util.Fold(text)
	gaps := []model.ContextGap{}
	add := func(kind string, severity model.Severity) {
		gaps = append(gaps, model.ContextGap{Kind: kind, Severity: severity, Hint: gapHints[kind]})
	}

	if !timeframePattern.MatchString(folded) {
		add(GapTimeframe, model.SeverityMedium)
	}
	if !placePattern.MatchString(text) && !locationPattern.MatchString(folded) {
		add(GapLocation, model.SeverityLow)
	}
	if len(util.Entities(text)) == 0 && !actorNounPattern.MatchString(folded) {
		add(GapActors, model.SeverityMedium)
	}
	if !evidencePattern.MatchString(folded) {
		if sourceCount == 0 {
			add(GapEvidence, model.SeverityHigh)
		} else {
			add(GapEvidence, model.SeverityMedium)
		}
	}
	if !legalPattern.MatchString(folded) {
		add(GapLegalFrame, model.SeverityLow)
	}
	if !numberPattern.MatchString(folded) {
		add(GapNumbers, model.SeverityLow)
	}
	if !definitionPattern.MatchString(folded) {
		add(GapDefinitions, model.SeverityLow)
	}

	return gaps
}

// VoiceCoverage checks which roles the declared domains require and which of
// them the source classes cover
func (e *Engine) VoiceCoverage(domains []string, classes []model.EditorialClass) model.VoiceCoverage {
	vc := model.VoiceCoverage{
		Domains:         e.voices.Resolve(domains),
		Required:        e.voices.Required(domains),
		Present:         []string{},
		Missing:         []string{},
		RegistryVersion: e.voices.Version(),
	}

	present := make(map[string]bool)
	for _, c := range classes {
		role := e.voices.RoleFor(c)
		if role == "" || present[role] {
			continue
		}
		present[role] = true
		vc.Present = append(vc.Present, role)
	}

	for _, role := range vc.Required {
		if !present[role] {
			vc.Missing = append(vc.Missing, role)
		}
	}
	if n := len(vc.Required); n > 0 {
		vc.Score = round3(float64(n-len(vc.Missing)) / float64(n))
	}
	return vc
}

const (
	maxContrastOutlets = 6
	contrastGap        = 0.34
)

type outlet struct {
	key    string
	locale string
	texts  []string
}

// InternationalContrast compares attribution, caveat and passive-agency rates
// between domestic and international outlets. It returns nil unless both
// groups have at least one outlet.
func (e *Engine) InternationalContrast(sources []model.SourceRef) *model.InternationalContrast {
	var outlets []*outlet
	byKey := make(map[string]*outlet)

	for _, ref := range util.DedupeSources(sources) {
		key := e.publishers.Key(ref)
		if key == "" {
			key = util.Host(ref.URL)
		}
		locale := e.localeOf(ref)
		if key == "" || locale == "" {
			continue
		}
		o, ok := byKey[key]
		if !ok {
			if len(outlets) == maxContrastOutlets {
				continue
			}
			o = &outlet{key: key, locale: locale}
			byKey[key] = o
			outlets = append(outlets, o)
		}
		o.texts = append(o.texts, strings.TrimSpace(ref.Title+". "+ref.Snippet))
	}

	groups := []model.OutletGroup{
		contrastGroup(validate.LocaleDE, outlets),
		contrastGroup(validate.LocaleIntl, outlets),
	}
	if len(groups[0].Outlets) == 0 || len(groups[1].Outlets) == 0 {
		return nil
	}

	ic := &model.InternationalContrast{Groups: groups, Differences: []string{}}
	de, intl := groups[0], groups[1]
	compare := func(name string, a, b float64) {
		if diff := a - b; diff >= contrastGap || -diff >= contrastGap {
			ic.Differences = append(ic.Differences,
				name+": de "+formatRate(a)+" vs intl "+formatRate(b))
		}
	}
	compare("attribution", de.AttributionRate, intl.AttributionRate)
	compare("caveat", de.CaveatRate, intl.CaveatRate)
	compare("passive", de.PassiveRate, intl.PassiveRate)

	return ic
}

// localeOf prefers the registry locale, then the country TLD
func (e *Engine) localeOf(ref model.SourceRef) string {
	if p, ok := e.publishers.Lookup(ref); ok {
		return p.Locale
	}
	host := util.Host(ref.URL)
	if host == "" {
		host = strings.ToLower(ref.Domain)
	}
	switch {
	case host == "":
		return ""
	case strings.HasSuffix(host, ".de"), strings.HasSuffix(host, ".at"), strings.HasSuffix(host, ".ch"):
		return validate.LocaleDE
	default:
		return validate.LocaleIntl
	}
}

func contrastGroup(locale string, outlets []*outlet) model.OutletGroup {
	g := model.OutletGroup{Locale: locale, Outlets: []string{}}
	var texts []string
	for _, o := range outlets {
		if o.locale != locale {
			continue
		}
		g.Outlets = append(g.Outlets, o.key)
		texts = append(texts, o.texts...)
	}
	if len(texts) == 0 {
		return g
	}

	var attribution, caveat, passive int
	for _, t := range texts {
		folded := util.Fold(t)
		if attributionPattern.MatchString(folded) {
			attribution++
		}
		if caveatPattern.MatchString(folded) {
			caveat++
		}
		if passiveAuxPattern.MatchString(folded) && harmVerbPattern.MatchString(folded) {
			passive++
		}
	}
	n := float64(len(texts))
	g.AttributionRate = round3(float64(attribution) / n)
	g.CaveatRate = round3(float64(caveat) / n)
	g.PassiveRate = round3(float64(passive) / n)
	return g
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
