package extract

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/taxonomy"
	"github.com/ppiankov/agora/internal/util"
)

// Record caps
const (
	HardMaxClaims          = 10
	MaxNotes               = 6
	MaxQuestions           = 5
	MaxMissingPerspectives = 8
	MaxKnots               = 5
	MaxParticipation       = 8
	MaxConsequences        = 8
	MaxResponsibilities    = 8
	MaxSources             = 24
	MaxPaths               = 10
	MaxPathSteps           = 8
	MaxEventualities       = 10
	MaxDecisionTrees       = 6
	MaxImpacts             = 8
	MaxReportItems         = 6
	MaxSnippetChars        = 280
)

// Options tunes one sanitize run
type Options struct {
	MaxClaims int       // requested cap, clamped to HardMaxClaims
	Now       time.Time // createdAt for decision trees the provider left unstamped
}

// ClaimCap returns min(requested, HardMaxClaims); a non-positive request
// means HardMaxClaims
func ClaimCap(requested int) int {
	if requested <= 0 || requested > HardMaxClaims {
		return HardMaxClaims
	}
	return requested
}

// Payload is the canonical intermediate shape of a provider document. Every
// record in it carries a non-empty id and text, every list is capped and
// every enumeration is inside its vocabulary.
type Payload struct {
	Claims                  []model.StatementRecord
	Notes                   []model.NoteRecord
	Questions               []model.QuestionRecord
	MissingPerspectives     []string
	Knots                   []model.KnotRecord
	Consequences            model.ConsequenceBundle
	ResponsibilityPaths     []model.ResponsibilityPath
	Eventualities           []model.EventualityNode
	DecisionTrees           []model.DecisionTree
	ImpactAndResponsibility model.ImpactAndResponsibility
	ParticipationCandidates []model.ParticipationCandidate
	Report                  model.ReportRecord
	Sources                 []model.SourceRef
}

// Sanitize converts a decoded provider document into a Payload. It never
// fails: malformed records are dropped and a non-object document yields an
// empty Payload.
func Sanitize(doc any, opts Options) Payload {
	root, ok := asFields(doc)
	if !ok {
		return emptyPayload()
	}

	p := emptyPayload()
	p.Claims = sanitizeClaims(root, opts.MaxClaims)

	fallbackStatement := ""
	if len(p.Claims) > 0 {
		fallbackStatement = p.Claims[0].ID
	}

	p.Notes = sanitizeNotes(root.list("notes", "hinweise", "remarks"))
	p.Questions = sanitizeQuestions(root.list("questions", "openQuestions", "fragen"))
	p.MissingPerspectives = sanitizePerspectives(root.list("missingPerspectives", "missing_perspectives", "perspectives", "fehlendePerspektiven"))
	p.Knots = sanitizeKnots(root.list("knots", "conflicts", "knoten"))
	p.ParticipationCandidates = sanitizeParticipation(root.list("participationCandidates", "participation", "beteiligung"))

	consequences, responsibilities := consequenceLists(root)
	p.Consequences = model.ConsequenceBundle{
		Consequences:     sanitizeConsequences(consequences, len(p.Claims), "cons"),
		Responsibilities: sanitizeResponsibilities(responsibilities, "resp"),
	}

	p.ResponsibilityPaths = sanitizePaths(root.list("responsibilityPaths", "paths", "zustaendigkeitsketten"), p.Claims, fallbackStatement)
	p.Eventualities = sanitizeEventualities(root.list("eventualities", "scenarios", "szenarien"), p.Claims, fallbackStatement)
	p.DecisionTrees = sanitizeDecisionTrees(root.list("decisionTrees", "decisions", "trees"), opts.Now)
	p.ImpactAndResponsibility = sanitizeImpact(root)
	p.Report = sanitizeReport(root)
	p.Sources = SanitizeSources(root.list("sources", "evidence", "references", "quellen"))

	return p
}

func emptyPayload() Payload {
	return Payload{
		Claims:                  []model.StatementRecord{},
		Notes:                   []model.NoteRecord{},
		Questions:               []model.QuestionRecord{},
		MissingPerspectives:     []string{},
		Knots:                   []model.KnotRecord{},
		Consequences:            model.ConsequenceBundle{Consequences: []model.ConsequenceRecord{}, Responsibilities: []model.ResponsibilityRecord{}},
		ResponsibilityPaths:     []model.ResponsibilityPath{},
		Eventualities:           []model.EventualityNode{},
		DecisionTrees:           []model.DecisionTree{},
		ImpactAndResponsibility: model.ImpactAndResponsibility{Impacts: []model.Impact{}, ResponsibleActors: []model.ResponsibleActor{}},
		ParticipationCandidates: []model.ParticipationCandidate{},
		Report:                  model.ReportRecord{KeyConflicts: []string{}, Takeaways: []string{}},
		Sources:                 []model.SourceRef{},
	}
}

// SanitizeClaims returns only the claims of doc; it backs the raw-text
// validator, which needs a claim count before the full Payload is built
func SanitizeClaims(doc any, maxClaims int) []model.StatementRecord {
	root, ok := asFields(doc)
	if !ok {
		return nil
	}
	return sanitizeClaims(root, maxClaims)
}

func sanitizeClaims(root fields, maxClaims int) []model.StatementRecord {
	limit := ClaimCap(maxClaims)
	items := root.list("claims", "statements", "aussagen", "thesen")

	claims := make([]model.StatementRecord, 0, min(len(items), limit))
	ids := newIDSet()
	seenText := make(map[string]bool)

	for _, item := range items {
		if len(claims) == limit {
			break
		}

		var f fields
		if s, ok := item.(string); ok {
			f = fields{"text": s}
		} else if obj, ok := asFields(item); ok {
			f = obj
		} else {
			continue
		}

		text := f.str("text", "body", "content", "claim", "statement", "description", "aussage")
		key := util.Fold(text)
		if text == "" || seenText[key] {
			continue
		}
		seenText[key] = true

		claim := model.StatementRecord{
			ID:    ids.claim(f.str("id", "claimId", "statementId"), "c", len(claims)+1),
			Text:  text,
			Title: f.str("title", "headline", "label"),
			Topic: f.str("topic", "thema", "subject"),
		}

		ds := taxonomy.NormalizeDomains(f.str("domain", "bereich", "policyDomain"), f.strs("domains", "bereiche"))
		claim.Domain = ds.Primary
		claim.Domains = ds.Domains
		claim.Responsibility = taxonomy.NormalizeResponsibility(f.str("responsibility", "zustaendigkeit", "zuständigkeit", "level"))

		if imp, ok := f.num("importance", "priority", "weight", "relevanz"); ok {
			claim.Importance = int(math.Max(1, math.Min(5, math.Round(imp))))
		}
		if st, ok := taxonomy.NormalizeStance(f.str("stance", "position", "haltung")); ok {
			claim.Stance = st
		}

		claims = append(claims, claim)
	}

	return claims
}

// textItem reads a list entry that may be a bare string or an object
func textItem(item any, aliases ...string) (fields, string) {
	if s, ok := item.(string); ok {
		return fields{}, cleanText(s)
	}
	f, ok := asFields(item)
	if !ok {
		return nil, ""
	}
	return f, f.str(aliases...)
}

func sanitizeNotes(items []any) []model.NoteRecord {
	out := make([]model.NoteRecord, 0, min(len(items), MaxNotes))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxNotes {
			break
		}
		f, text := textItem(item, "text", "body", "content", "description", "note")
		if text == "" {
			continue
		}
		out = append(out, model.NoteRecord{
			ID:   ids.claim(f.str("id"), "n", len(out)+1),
			Text: text,
			Kind: f.str("kind", "type", "category"),
		})
	}
	return out
}

func sanitizeQuestions(items []any) []model.QuestionRecord {
	out := make([]model.QuestionRecord, 0, min(len(items), MaxQuestions))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxQuestions {
			break
		}
		f, text := textItem(item, "text", "question", "frage", "body", "content")
		if text == "" {
			continue
		}
		out = append(out, model.QuestionRecord{
			ID:        ids.claim(f.str("id"), "q", len(out)+1),
			Text:      text,
			Dimension: f.str("dimension", "category", "type", "kind"),
		})
	}
	return out
}

func sanitizePerspectives(items []any) []string {
	out := make([]string, 0, min(len(items), MaxMissingPerspectives))
	seen := make(map[string]bool)
	for _, item := range items {
		if len(out) == MaxMissingPerspectives {
			break
		}
		_, text := textItem(item, "perspective", "text", "label", "name", "role")
		if text == "" || seen[util.Fold(text)] {
			continue
		}
		seen[util.Fold(text)] = true
		out = append(out, text)
	}
	return out
}

func sanitizeKnots(items []any) []model.KnotRecord {
	out := make([]model.KnotRecord, 0, min(len(items), MaxKnots))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxKnots {
			break
		}
		f, title := textItem(item, "title", "label", "name")
		desc := ""
		if f != nil {
			desc = f.str("description", "text", "body", "content")
		}
		if title == "" {
			title = desc
		}
		if desc == "" {
			desc = title
		}
		if title == "" {
			continue
		}
		out = append(out, model.KnotRecord{
			ID:          ids.claim(f.str("id"), "k", len(out)+1),
			Title:       title,
			Description: desc,
		})
	}
	return out
}

func sanitizeParticipation(items []any) []model.ParticipationCandidate {
	out := make([]model.ParticipationCandidate, 0, min(len(items), MaxParticipation))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxParticipation {
			break
		}
		f, text := textItem(item, "text", "title", "proposal", "question", "body", "content")
		if text == "" {
			continue
		}
		out = append(out, model.ParticipationCandidate{
			ID:        ids.claim(f.str("id"), "p", len(out)+1),
			Text:      text,
			Rationale: f.str("rationale", "reason", "why", "begruendung", "begründung"),
		})
	}
	return out
}

// consequenceLists accepts both {consequences: {consequences, responsibilities}}
// and flat top-level lists
func consequenceLists(root fields) (consequences, responsibilities []any) {
	if bundle, ok := root.obj("consequences", "folgen"); ok {
		consequences = bundle.list("consequences", "items", "folgen")
		responsibilities = bundle.list("responsibilities", "zustaendigkeiten")
	} else {
		consequences = root.list("consequences", "folgen")
	}
	if responsibilities == nil {
		responsibilities = root.list("responsibilities", "zustaendigkeiten")
	}
	return consequences, responsibilities
}

func sanitizeConsequences(items []any, claimCount int, prefix string) []model.ConsequenceRecord {
	out := make([]model.ConsequenceRecord, 0, min(len(items), MaxConsequences))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxConsequences {
			break
		}
		f, text := textItem(item, "text", "description", "body", "content", "consequence")
		if text == "" {
			continue
		}
		rec := model.ConsequenceRecord{
			ID:    ids.claim(f.str("id"), prefix, len(out)+1),
			Scope: taxonomy.NormalizeScope(f.str("scope", "horizon", "reach")),
			Text:  text,
		}
		if idx, ok := f.num("statementIndex", "claimIndex", "statement"); ok {
			rec.StatementIndex = clampIndex(int(idx), claimCount)
		}
		if c, ok := f.num("confidence", "probability", "likelihood"); ok {
			c = clamp01(c)
			rec.Confidence = &c
		}
		out = append(out, rec)
	}
	return out
}

func sanitizeResponsibilities(items []any, prefix string) []model.ResponsibilityRecord {
	out := make([]model.ResponsibilityRecord, 0, min(len(items), MaxResponsibilities))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxResponsibilities {
			break
		}
		f, text := textItem(item, "text", "description", "role", "body", "content")
		actor := ""
		if f != nil {
			actor = f.str("actor", "who", "institution", "name")
		}
		if text == "" {
			text = actor
		}
		if text == "" {
			continue
		}
		rec := model.ResponsibilityRecord{
			ID:    ids.claim(f.str("id"), prefix, len(out)+1),
			Level: taxonomy.NormalizeLevel(f.str("level", "tier", "ebene")),
			Actor: actor,
			Text:  text,
		}
		if r, ok := f.num("relevance", "weight", "confidence"); ok {
			r = clamp01(r)
			rec.Relevance = &r
		}
		out = append(out, rec)
	}
	return out
}

func sanitizePaths(items []any, claims []model.StatementRecord, fallbackStatement string) []model.ResponsibilityPath {
	out := make([]model.ResponsibilityPath, 0, min(len(items), MaxPaths))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxPaths {
			break
		}
		f, ok := asFields(item)
		if !ok {
			continue
		}

		var steps []model.ResponsibilityStep
		for _, raw := range f.list("steps", "chain", "levels", "path") {
			if len(steps) == MaxPathSteps {
				break
			}
			if s := scalarString(raw); s != "" {
				steps = append(steps, model.ResponsibilityStep{Level: taxonomy.NormalizeLevel(s)})
				continue
			}
			sf, ok := asFields(raw)
			if !ok {
				continue
			}
			step := model.ResponsibilityStep{
				Level: taxonomy.NormalizeLevel(sf.str("level", "tier", "ebene")),
				Actor: sf.str("actor", "who", "institution", "name"),
				Role:  sf.str("role", "task", "text", "description"),
			}
			if step.Level == model.LevelUnknown && step.Actor == "" && step.Role == "" {
				continue
			}
			steps = append(steps, step)
		}
		if len(steps) == 0 {
			continue
		}

		statementID := resolveStatement(f, claims, fallbackStatement)
		if statementID == "" {
			continue
		}
		out = append(out, model.ResponsibilityPath{
			ID:          ids.claim(f.str("id"), "path", len(out)+1),
			StatementID: statementID,
			Steps:       steps,
		})
	}
	return out
}

func sanitizeImpact(root fields) model.ImpactAndResponsibility {
	out := model.ImpactAndResponsibility{Impacts: []model.Impact{}, ResponsibleActors: []model.ResponsibleActor{}}
	f, ok := root.obj("impactAndResponsibility", "impact_and_responsibility", "impact")
	if !ok {
		return out
	}

	for _, item := range f.list("impacts", "effects") {
		if len(out.Impacts) == MaxImpacts {
			break
		}
		sf, desc := textItem(item, "description", "text", "body")
		if desc == "" {
			continue
		}
		typ := sf.str("type", "kind", "category")
		if typ == "" {
			typ = "general"
		}
		out.Impacts = append(out.Impacts, model.Impact{Type: typ, Description: desc})
	}

	for _, item := range f.list("responsibleActors", "actors") {
		if len(out.ResponsibleActors) == MaxResponsibilities {
			break
		}
		sf, hint := textItem(item, "hint", "actor", "text", "description", "name")
		if hint == "" {
			continue
		}
		out.ResponsibleActors = append(out.ResponsibleActors, model.ResponsibleActor{
			Level: taxonomy.NormalizeLevel(sf.str("level", "tier", "ebene")),
			Hint:  hint,
		})
	}
	return out
}

func sanitizeReport(root fields) model.ReportRecord {
	out := model.ReportRecord{KeyConflicts: []string{}, Takeaways: []string{}}

	f, ok := root.obj("report", "summary", "bericht")
	if !ok {
		out.Summary = root.str("summary", "report", "zusammenfassung")
		return out
	}
	out.Summary = f.str("summary", "text", "zusammenfassung", "body")
	out.KeyConflicts = capList(nonEmpty(f.strs("keyConflicts", "conflicts", "konflikte")), MaxReportItems)
	out.Takeaways = capList(nonEmpty(f.strs("takeaways", "conclusions", "fazit")), MaxReportItems)
	return out
}

// SanitizeSources normalizes provider- or pack-delivered source records.
// A source needs a usable URL or at least a publisher or title.
func SanitizeSources(items []any) []model.SourceRef {
	out := make([]model.SourceRef, 0, min(len(items), MaxSources))
	for _, item := range items {
		if len(out) == MaxSources {
			break
		}

		var ref model.SourceRef
		if s := scalarString(item); s != "" {
			ref.URL = s
		} else if f, ok := asFields(item); ok {
			ref = model.SourceRef{
				URL:       f.str("url", "link", "href", "uri"),
				Publisher: f.str("publisher", "outlet", "source", "name", "author"),
				Title:     f.str("title", "headline"),
				Snippet:   util.Truncate(f.str("snippet", "excerpt", "quote", "summary", "text"), MaxSnippetChars),
				FetchedAt: f.str("fetchedAt", "date", "publishedAt", "published"),
			}
		} else {
			continue
		}

		if util.CanonicalURL(ref.URL) == "" {
			ref.URL = ""
		}
		ref.Domain = util.Host(ref.URL)
		if ref.URL == "" && ref.Publisher == "" && ref.Title == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func resolveStatement(f fields, claims []model.StatementRecord, fallback string) string {
	if id := f.str("statementId", "claimId", "rootStatementId"); id != "" {
		return id
	}
	if idx, ok := f.num("statementIndex", "claimIndex"); ok && len(claims) > 0 {
		return claims[clampIndex(int(idx), len(claims))].ID
	}
	return fallback
}

func clampIndex(idx, n int) int {
	if idx < 0 || n == 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// idSet hands out unique record ids, keeping provider ids where usable
type idSet map[string]bool

func newIDSet() idSet { return make(idSet) }

func (s idSet) claim(provided, prefix string, n int) string {
	id := strings.Join(strings.Fields(provided), "-")
	if id == "" || s[id] {
		id = fmt.Sprintf("%s%d", prefix, n)
		for s[id] {
			n++
			id = fmt.Sprintf("%s%d", prefix, n)
		}
	}
	s[id] = true
	return id
}

// claimOr keeps the provided id unless it is empty or taken, then uses
// fallback, suffixed with -2, -3, ... until unique
func (s idSet) claimOr(provided, fallback string) string {
	id := strings.Join(strings.Fields(provided), "-")
	if id == "" || s[id] {
		id = fallback
	}
	base := id
	for n := 2; s[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	s[id] = true
	return id
}
