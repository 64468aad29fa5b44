package frame

import (
	"math"
	"regexp"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Gate ids
const (
	GateNoScapegoat     = "no_scapegoat_language"
	GatePolicyDecision  = "policy_decision_present"
	GateOptions         = "options_present"
	GateMetrics         = "metrics_present"
	GateTradeOffs       = "tradeoffs_shown"
	GateRightsDuties    = "rights_duties_symmetry"
	GateStagedSanctions = "staged_sanctions_present"
	GateTermsDefined    = "terms_defined"
	GateNoPersonTarget  = "no_person_targeting"
	GateDossierRequired = "dossier_required"
)

var (
	scapegoatPattern = regexp.MustCompile(`\b(schuld (daran )?sind (nur |allein )?die|die da oben|sozialschmarotzer|schmarotzer|parasiten|volksverrater|lugenpresse|altparteien|systemparteien|uberfremdung|umvolkung|invasion von|flut von (migranten|fluchtlingen|auslandern)|kriminelle auslander|die auslander|die migranten sind|those people|parasites)\b`)

	personTitlePattern = regexp.MustCompile(`\b(Herr|Frau|Minister(in)?|Ministerpr(ä|ae|a)sident(in)?|Kanzler(in)?|B(ü|ue|u)rgermeister(in)?|Senator(in)?|Abgeordnete[rn]?)\s+\p{Lu}\p{L}+`)
	personAttack       = regexp.MustCompile(`\b(muss weg|mussen weg|gehort (eingesperrt|weg|abgesetzt)|einsperren|ins gefangnis|rucktritt sofort|verrater(in)?|versager(in)?|lugner(in)?|korrupt(e|er)?|hau(t)? ab|jagen)\b`)
	attackPhrase       = regexp.MustCompile(`\b(lock (him|her|them) up|sperrt (ihn|sie) ein|jagt (ihn|sie) (aus dem amt|davon)|an den pranger)\b`)

	decisionPattern   = regexp.MustCompile(`\b(einfuhren|abschaffen|erhohen|senken|verbieten|erlauben|fordern|ausbauen|reduzieren|beschliessen|verpflichten|einrichten|finanzieren|mehr|weniger|soll(en|te)?|muss|mussen|introduce|abolish|ban|increase|reduce)\b`)
	optionsPattern    = regexp.MustCompile(`\b(entweder\b.+\boder|alternativ(e|en)?|variante(n)?|option(en)?|either\b.+\bor)\b`)
	metricsPattern    = regexp.MustCompile(`(\d|\b(prozent|anteil|quote|rate|kennzahl|messbar|zielwert|percent)\b)`)
	tradeOffPattern   = regexp.MustCompile(`\b(aber|jedoch|allerdings|kosten|zulasten|nachteil(e)?|abwagung|zielkonflikt|trade-?off|dafur|im gegenzug)\b`)
	rightsPattern     = regexp.MustCompile(`\b(recht(e)? auf|anspruch|rights?)\b`)
	dutiesPattern     = regexp.MustCompile(`\b(pflicht(en)?|verpflichtet|verpflichtung|duty|duties|obligation)\b`)
	sanctionsPattern  = regexp.MustCompile(`\b(bussgeld(er)?|verwarnung|abmahnung|stufenweise|gestaffelt(e)?|sanktion(en)?|strafe(n)?|fines?)\b`)
	definitionPattern = regexp.MustCompile(`\b(bedeutet|definiert|definition|im sinne von|gemeint ist|das heisst|d\.\s?h\.|means|defined as)`)
)

// Evaluate scores claim text and frame on the ten anti-populism gates.
// Status is "fail" when a disqualifying gate fails, "pass" when all ten pass
// and "needs_review" otherwise.
func Evaluate(text string, f *model.DebateFrame) model.AntiPopulism {
	if f == nil {
		f = &model.DebateFrame{}
	}
	folded := util.Fold(text)

	gates := []model.Gate{
		{ID: GateNoScapegoat, Passed: !scapegoatPattern.MatchString(folded), Disqualifying: true},
		{ID: GatePolicyDecision, Passed: f.Decision != "" || decisionPattern.MatchString(folded)},
		{ID: GateOptions, Passed: len(f.Options) >= 2 || optionsPattern.MatchString(folded)},
		{ID: GateMetrics, Passed: len(f.Metrics) > 0 || metricsPattern.MatchString(folded)},
		{ID: GateTradeOffs, Passed: len(f.TradeOffs) > 0 || tradeOffPattern.MatchString(folded)},
		{ID: GateRightsDuties, Passed: (len(f.Rights) > 0 && len(f.Duties) > 0) ||
			(rightsPattern.MatchString(folded) && dutiesPattern.MatchString(folded))},
		{ID: GateStagedSanctions, Passed: len(f.Sanctions) > 0 || sanctionsPattern.MatchString(folded)},
		{ID: GateTermsDefined, Passed: len(f.Definitions) > 0 || definitionPattern.MatchString(folded)},
		{ID: GateNoPersonTarget, Passed: !targetsPerson(text, folded), Disqualifying: true},
		{ID: GateDossierRequired, Passed: true},
	}

	ap := model.AntiPopulism{Gates: gates, Total: len(gates), Status: model.GatePass}
	disqualified := false
	for _, g := range gates {
		if g.Passed {
			ap.Passed++
			continue
		}
		if g.Disqualifying {
			disqualified = true
		}
	}
	ap.Score = math.Round(float64(ap.Passed)/float64(ap.Total)*1000) / 1000

	switch {
	case disqualified:
		ap.Status = model.GateFail
	case ap.Passed < ap.Total:
		ap.Status = model.GateNeedsReview
	}
	return ap
}

// targetsPerson reports attacks on an individual rather than a policy
func targetsPerson(text, folded string) bool {
	if attackPhrase.MatchString(folded) {
		return true
	}
	return personTitlePattern.MatchString(text) && personAttack.MatchString(folded)
}
