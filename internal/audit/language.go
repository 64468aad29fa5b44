package audit

import (
	"regexp"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Flag codes
const (
	CodePassiveHarm      = "passive_harm_without_actor"
	CodeVagueAttack      = "vague_attack_phrasing"
	CodeEuphemism        = "euphemism_term"
	CodePowerStenography = "power_stenography"
)

const (
	maxExcerptRunes    = 200
	maxStenographyHits = 5
)

// All patterns run on util.Fold output, so they are ASCII only.
var (
	passiveAuxPattern  = regexp.MustCompile(`\b(wurde|wurden|worden|wird|werden|was|were|been|being)\b`)
	harmVerbPattern    = regexp.MustCompile(`\b(getotet|verletzt|erschossen|ermordet|angegriffen|bombardiert|beschossen|zerstort|vertrieben|misshandelt|gefoltert|verschleppt|hingerichtet|killed|injured|wounded|shot|attacked|bombed|shelled|destroyed|displaced|tortured)\b`)
	actorPattern       = regexp.MustCompile(`\b(von|vom|durch|by)\s+(der|die|den|dem|des|einer?|the)?\s*[a-z]|\b(soldaten|armee|polizei|truppen|streitkrafte|milizen?|kampfer|einheiten|luftwaffe|forces|troops|police|army|militants|militia)\b`)
	vagueAttackPattern = regexp.MustCompile(`\b(bei|nach)\s+(einem|einer|dem|den)\s+(angriff|anschlag|luftangriff|raketenangriff|beschuss|explosion|zwischenfall)\b|\b(in|after)\s+(an?|the)\s+(attack|strike|airstrike|explosion|incident)\b`)

	attributionPattern = regexp.MustCompile(`\b(laut|zufolge|nach angaben|erklarte|erklarten|teilte mit|teilten mit|sagte|sagten|betonte|hiess es|sprecher|according to|said|stated|announced|claimed)\b`)
	caveatPattern      = regexp.MustCompile(`\b(unbestatigt|nicht unabhangig|nicht verifiziert|angeblich|mutmasslich|offenbar|unverified|independently|allegedly|reportedly|could not be verified)\b`)
)

// AgencyOpacityFlags flags sentences that describe violence or harm in the
// passive without naming who acted, and vague "in an attack" phrasing
func AgencyOpacityFlags(text string) []model.Flag {
	flags := []model.Flag{}
	for _, sentence := range util.SplitSentences(text) {
		folded := util.Fold(sentence)
		if actorPattern.MatchString(folded) {
			continue
		}
		switch {
		case passiveAuxPattern.MatchString(folded) && harmVerbPattern.MatchString(folded):
			flags = append(flags, model.Flag{
				Code:     CodePassiveHarm,
				Severity: model.SeverityMedium,
				Excerpt:  util.Truncate(sentence, maxExcerptRunes),
			})
		case vagueAttackPattern.MatchString(folded):
			flags = append(flags, model.Flag{
				Code:     CodeVagueAttack,
				Severity: model.SeverityLow,
				Excerpt:  util.Truncate(sentence, maxExcerptRunes),
			})
		}
	}
	return flags
}

// EuphemismFlags turns policy-pack findings into flags
func EuphemismFlags(findings []model.EuphemismFinding) []model.Flag {
	flags := make([]model.Flag, 0, len(findings))
	for _, f := range findings {
		flags = append(flags, model.Flag{
			Code:     CodeEuphemism,
			Severity: f.Severity,
			Excerpt:  f.Match,
			Term:     f.Term,
		})
	}
	return flags
}

// PowerStenographyFlags flags attribution sentences when government and
// military sources make up at least 60% of the source set
func PowerStenographyFlags(text string, balance model.SourceBalance) []model.Flag {
	flags := []model.Flag{}
	share := powerShare(balance)
	if share < powerShareThreshold {
		return flags
	}

	severity := model.SeverityMedium
	if share >= 0.8 {
		severity = model.SeverityHigh
	}
	for _, sentence := range util.SplitSentences(text) {
		if len(flags) == maxStenographyHits {
			break
		}
		if m := attributionPattern.FindString(util.Fold(sentence)); m != "" {
			flags = append(flags, model.Flag{
				Code:     CodePowerStenography,
				Severity: severity,
				Excerpt:  util.Truncate(sentence, maxExcerptRunes),
				Term:     m,
			})
		}
	}
	return flags
}
