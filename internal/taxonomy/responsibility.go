package taxonomy

import (
	"strings"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Responsibility vocabulary of claims
const (
	RespEU         = "EU"
	RespBund       = "Bund"
	RespLand       = "Land"
	RespKommune    = "Kommune"
	RespPrivat     = "privat"
	RespUnbestimmt = "unbestimmt"
	RespUnknown    = "unknown"
)

var responsibilities = []string{RespEU, RespBund, RespLand, RespKommune, RespPrivat, RespUnbestimmt, RespUnknown}

var responsibilitySynonyms = map[string]string{
	"federal":           RespBund,
	"bundesebene":       RespBund,
	"bundesregierung":   RespBund,
	"national":          RespBund,
	"state":             RespLand,
	"bundesland":        RespLand,
	"lander":            RespLand,
	"landesebene":       RespLand,
	"municipality":      RespKommune,
	"municipal":         RespKommune,
	"local":             RespKommune,
	"gemeinde":          RespKommune,
	"stadt":             RespKommune,
	"kommunal":          RespKommune,
	"private":           RespPrivat,
	"privatwirtschaft":  RespPrivat,
	"european union":    RespEU,
	"europaische union": RespEU,
	"eu-ebene":          RespEU,
	"unclear":           RespUnbestimmt,
	"undetermined":      RespUnbestimmt,
	"offen":             RespUnbestimmt,
}

// NormalizeResponsibility maps a free-form responsibility string onto
// {EU, Bund, Land, Kommune, privat, unbestimmt, unknown}: direct match first
// (case-insensitive), then synonyms. Empty input stays empty.
func NormalizeResponsibility(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	for _, r := range responsibilities {
		if strings.EqualFold(trimmed, r) {
			return r
		}
	}
	if r, ok := responsibilitySynonyms[strings.Join(strings.Fields(util.Fold(trimmed)), " ")]; ok {
		return r
	}
	return RespUnknown
}

var levelSynonyms = map[string]model.ResponsibilityLevel{
	"kommune":           model.LevelMunicipality,
	"gemeinde":          model.LevelMunicipality,
	"stadt":             model.LevelMunicipality,
	"local":             model.LevelMunicipality,
	"kreis":             model.LevelDistrict,
	"landkreis":         model.LevelDistrict,
	"bezirk":            model.LevelDistrict,
	"county":            model.LevelDistrict,
	"land":              model.LevelState,
	"bundesland":        model.LevelState,
	"bund":              model.LevelFederal,
	"national":          model.LevelFederal,
	"europe":            model.LevelEU,
	"eu-ebene":          model.LevelEU,
	"verband":           model.LevelNGO,
	"zivilgesellschaft": model.LevelNGO,
	"privat":            model.LevelPrivate,
	"unternehmen":       model.LevelPrivate,
	"business":          model.LevelPrivate,
}

// NormalizeLevel maps a responsibility level onto the closed level set,
// falling back to "unknown"
func NormalizeLevel(raw string) model.ResponsibilityLevel {
	key := strings.Join(strings.Fields(util.Fold(raw)), " ")
	switch l := model.ResponsibilityLevel(key); l {
	case model.LevelMunicipality, model.LevelDistrict, model.LevelState, model.LevelFederal,
		model.LevelEU, model.LevelNGO, model.LevelPrivate, model.LevelUnknown:
		return l
	}
	if l, ok := levelSynonyms[key]; ok {
		return l
	}
	return model.LevelUnknown
}

var scopeSynonyms = map[string]model.ConsequenceScope{
	"local short":       model.ScopeLocalShort,
	"short":             model.ScopeLocalShort,
	"short term":        model.ScopeLocalShort,
	"lokal kurzfristig": model.ScopeLocalShort,
	"kurzfristig":       model.ScopeLocalShort,
	"local long":        model.ScopeLocalLong,
	"long term":         model.ScopeLocalLong,
	"lokal langfristig": model.ScopeLocalLong,
	"langfristig":       model.ScopeLocalLong,
	"bundesweit":        model.ScopeNational,
	"international":     model.ScopeGlobal,
	"weltweit":          model.ScopeGlobal,
	"global":            model.ScopeGlobal,
	"systemisch":        model.ScopeSystemic,
	"structural":        model.ScopeSystemic,
}

// NormalizeScope maps a consequence scope onto the closed scope set,
// falling back to "unknown"
func NormalizeScope(raw string) model.ConsequenceScope {
	key := strings.Join(strings.Fields(util.Fold(raw)), " ")
	switch s := model.ConsequenceScope(strings.ReplaceAll(key, "-", "_")); s {
	case model.ScopeLocalShort, model.ScopeLocalLong, model.ScopeNational,
		model.ScopeGlobal, model.ScopeSystemic, model.ScopeUnknown:
		return s
	}
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	if s, ok := scopeSynonyms[key]; ok {
		return s
	}
	return model.ScopeUnknown
}

// NormalizeStance maps a stance onto pro/neutral/contra; ok is false when the
// value is outside the vocabulary
func NormalizeStance(raw string) (model.Stance, bool) {
	switch strings.TrimSpace(util.Fold(raw)) {
	case "pro", "fur", "dafur", "support", "supports", "for", "yes", "ja":
		return model.StancePro, true
	case "contra", "con", "gegen", "dagegen", "against", "oppose", "no", "nein":
		return model.StanceContra, true
	case "neutral", "neither", "mixed", "ambivalent":
		return model.StanceNeutral, true
	}
	return "", false
}
