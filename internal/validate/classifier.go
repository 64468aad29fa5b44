package validate

import (
	"regexp"
	"strings"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Rule maps a regular expression onto an editorial class
type Rule struct {
	Pattern string               `yaml:"pattern"`
	Class   model.EditorialClass `yaml:"class"`
}

// ClassifierConfig holds the rule tables. Host rules match the bare host
// (lowercase, no "www."), keyword rules match the folded
// publisher+title+snippet haystack.
type ClassifierConfig struct {
	HostRules    []Rule `yaml:"host_rules"`
	KeywordRules []Rule `yaml:"keyword_rules"`
}

// SourceClassifier assigns one of the twelve editorial classes to a source
type SourceClassifier struct {
	hostRules    []*compiledRule
	keywordRules []*compiledRule
	publishers   *PublisherRegistry
}

type compiledRule struct {
	pattern *regexp.Regexp
	class   model.EditorialClass
}

// NewSourceClassifier compiles the rule tables. Registry hosts become exact
// host rules placed after the configured ones. Rules that fail to compile or
// name an unknown class are skipped.
func NewSourceClassifier(config *ClassifierConfig, publishers *PublisherRegistry) *SourceClassifier {
	if config == nil {
		config = DefaultClassifierConfig()
	}

	c := &SourceClassifier{publishers: publishers}
	c.hostRules = compileRules(config.HostRules)
	if publishers != nil {
		for _, p := range publishers.All() {
			for _, host := range p.Hosts {
				re, err := regexp.Compile(`(^|\.)` + regexp.QuoteMeta(strings.ToLower(host)) + `$`)
				if err != nil || p.Class == model.ClassUnknown {
					continue
				}
				c.hostRules = append(c.hostRules, &compiledRule{pattern: re, class: p.Class})
			}
		}
	}
	c.keywordRules = compileRules(config.KeywordRules)
	return c
}

func compileRules(rules []Rule) []*compiledRule {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, r := range rules {
		class := model.ParseEditorialClass(string(r.Class))
		if class == model.ClassUnknown {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, &compiledRule{pattern: re, class: class})
	}
	return compiled
}

// Classify returns the editorial class of ref. Host rules are tried first,
// then keyword rules; the first match wins and no match yields "unknown".
func (c *SourceClassifier) Classify(ref model.SourceRef) model.EditorialClass {
	host := util.Host(ref.URL)
	if host == "" {
		host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ref.Domain)), "www.")
	}

	if host != "" {
		for _, r := range c.hostRules {
			if r.pattern.MatchString(host) {
				return r.class
			}
		}
	}

	haystack := util.Fold(strings.Join([]string{ref.Publisher, ref.Title, ref.Snippet}, " "))
	if strings.TrimSpace(haystack) == "" {
		return model.ClassUnknown
	}
	for _, r := range c.keywordRules {
		if r.pattern.MatchString(haystack) {
			return r.class
		}
	}

	return model.ClassUnknown
}

// IsPowerClass reports whether a class speaks for state power
func IsPowerClass(class model.EditorialClass) bool {
	return class == model.ClassGov || class == model.ClassMilitary
}

// DefaultClassifierConfig returns the built-in rule tables
func DefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		HostRules: []Rule{
			{`(^|\.)(un|who|unhcr|unicef|unocha|ohchr|ilo|unesco|wfp|iaea|icj-cij)\.org$`, model.ClassIGOUN},
			{`(^|\.)(who|nato)\.int$`, model.ClassIGOUN},
			{`(^|\.)europa\.eu$`, model.ClassIGOUN},
			{`(^|\.)(oecd|worldbank|imf)\.org$`, model.ClassIGOUN},
			{`\.mil(\.[a-z]{2})?$`, model.ClassMilitary},
			{`(^|\.)(bundeswehr|bmvg)\.de$`, model.ClassMilitary},
			{`(^|\.)idf\.il$`, model.ClassMilitary},
			{`(^|\.)(bund|bundesregierung|bundestag|bundesrat|destatis|bmdv|bmi|bmf|bmas)\.de$`, model.ClassGov},
			{`\.gov(\.[a-z]{2})?$`, model.ClassGov},
			{`(^|\.)(gouv\.fr|gv\.at|admin\.ch|gov\.uk)$`, model.ClassGov},
			{`(^|\.)(berlin|hamburg|bremen|bayern|nrw|sachsen|hessen|niedersachsen|thueringen|brandenburg|saarland)\.de$`, model.ClassGov},
			{`(^|\.)(landtag|stadt|kreis)[a-z-]*\.[a-z]{2,}$`, model.ClassGov},
			{`(^|\.)(spd|cdu|csu|gruene|fdp|afd|die-linke|dielinke|linksfraktion|bsw-vg|volt)\.(de|eu)$`, model.ClassPartyPolitical},
			{`(^|\.)(dpa|epd|kna)\.(com|de)$`, model.ClassWireService},
			{`(^|\.)(reuters|apnews|afp)\.com$`, model.ClassWireService},
			{`\.edu$`, model.ClassAcademic},
			{`\.ac\.[a-z]{2}$`, model.ClassAcademic},
			{`(^|\.)(uni|tu|fh|hs)-[a-z-]+\.de$`, model.ClassAcademic},
			{`(^|\.)(mpg|fraunhofer|helmholtz|leibniz-gemeinschaft|diw|ifo|iwkoeln|zew|wzb|iab)\.(de|eu)$`, model.ClassAcademic},
			{`(^|\.)(arxiv\.org|doi\.org|nature\.com|sciencedirect\.com|springer\.com|jstor\.org|ssrn\.com)$`, model.ClassAcademic},
			{`(^|\.)(bellingcat\.com|forensic-architecture\.org|airwars\.org|acleddata\.com|liveuamap\.com)$`, model.ClassOSINT},
			{`(^|\.)(amnesty|hrw|greenpeace|oxfam|transparency|msf|icrc)\.(org|de)$`, model.ClassNGO},
			{`(^|\.)(bund\.net|nabu\.de|caritas\.de|diakonie\.de|proasyl\.de|vzbv\.de|adfc\.de|dnr\.de|paritaet\.org|aerzte-ohne-grenzen\.de)$`, model.ClassNGO},
			{`(^|\.)(bayer|siemens|basf|volkswagen|bmw|mercedes-benz|deutschebahn|telekom|rwe|eon|shell|exxonmobil)\.(com|de)$`, model.ClassCorporate},
			{`(^|\.)(presseportal\.de|prnewswire\.com|businesswire\.com)$`, model.ClassCorporate},
		},
		KeywordRules: []Rule{
			{`\b(vereinte nationen|united nations|uno|unhcr|unicef|ocha|weltgesundheitsorganisation|world health organization|un-generalsekretar|un-sprecher)\b`, model.ClassIGOUN},
			{`\b(bundeswehr|armee|militar|militarsprecher|streitkrafte|army|military|pentagon|verteidigungsministerium|generalstab)\b`, model.ClassMilitary},
			{`\b(bundesregierung|bundesministerium|ministerium|ministry|senatsverwaltung|landesregierung|stadtverwaltung|rathaus|behorde|bundesamt|government|regierungssprecher|staatskanzlei|polizeiprasidium)\b`, model.ClassGov},
			{`\b(spd|cdu|csu|grune|bundnis 90|fdp|afd|die linke|bsw|bundestagsfraktion|parteivorstand|parteitag)\b`, model.ClassPartyPolitical},
			{`\b(dpa|reuters|afp|associated press|epd|kna|nachrichtenagentur|news agency)\b`, model.ClassWireService},
			{`\b(bellingcat|osint|open source intelligence|satellitenbild(er)?|satellite imagery|geolocated|geolokalisiert)\b`, model.ClassOSINT},
			{`\b(universitat|university|hochschule|institut|institute|studie|study|journal|professor(in)?|forschung|max-planck|fraunhofer|leibniz|helmholtz)\b`, model.ClassAcademic},
			{`\b(augenzeug(e|in|en)|eyewitness|betroffene[rn]?|anwohner(in|innen)?|anwohnende|zeugin|witness|uberlebende[rn]?|survivor|erfahrungsbericht|burgerinitiative|elterninitiative)\b`, model.ClassAffectedWitness},
			{`\b(ngo|nichtregierungsorganisation|amnesty|human rights watch|greenpeace|verband|stiftung|foundation|caritas|diakonie|hilfsorganisation)\b|e\.\s?v\.`, model.ClassNGO},
			{`\b(gmbh|konzern|unternehmen|company|inc|corp|ltd|ceo|vorstandschef)\b`, model.ClassCorporate},
			{`\b(zeitung|tagesschau|spiegel|redaktion|rundfunk|magazin|newspaper|news|nachrichten|zdf|ard|deutschlandfunk|correctiv|tagesspiegel|journalist(in|en)?|reporter(in)?)\b`, model.ClassIndependentMedia},
		},
	}
}
