package audit

import (
	"math"
	"sort"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// classifiedSource is a deduplicated source with everything linking needs
type classifiedSource struct {
	ref       model.SourceRef
	key       string
	class     model.EditorialClass
	tokens    map[string]bool
	entities  map[string]bool
	hasHost   bool
	published bool // known to the publisher registry
}

// BurdenOfProof links claims to the sources that plausibly support them.
// Claims beyond MaxClaims are neither linked nor listed as unmet.
func (e *Engine) BurdenOfProof(claims []model.StatementRecord, sources []model.SourceRef) model.BurdenOfProof {
	return e.burdenOfProof(claims, e.prepare(sources))
}

func (e *Engine) burdenOfProof(claims []model.StatementRecord, sources []classifiedSource) model.BurdenOfProof {
	cfg := e.linking
	bp := model.BurdenOfProof{
		UnmetClaims:   []string{},
		ClaimEvidence: []model.ClaimEvidence{},
	}

	if cfg.MaxClaims > 0 && len(claims) > cfg.MaxClaims {
		claims = claims[:cfg.MaxClaims]
	}

	for _, claim := range claims {
		claimTokens := util.TokenSet(claim.Text, cfg.MinTokenLength)
		claimEntities := util.Entities(claim.Text)

		var links []model.LinkedSource
		for _, src := range sources {
			score := util.Jaccard(claimTokens, src.tokens)

			shared := 0
			for _, ent := range claimEntities {
				if src.entities[ent] {
					shared++
				}
			}
			score += math.Min(float64(shared)*cfg.EntityBonusStep, cfg.EntityBonusMax)

			if src.hasHost {
				score += cfg.HostBonus
			}
			if src.published {
				score += cfg.PublisherBonus
			}

			score = round3(score)
			if score <= cfg.Threshold {
				continue
			}
			links = append(links, model.LinkedSource{
				SourceKey:   src.key,
				URL:         src.ref.URL,
				Publisher:   src.ref.Publisher,
				Title:       src.ref.Title,
				SourceClass: src.class,
				Score:       score,
			})
		}

		sort.SliceStable(links, func(i, j int) bool {
			if links[i].Score != links[j].Score {
				return links[i].Score > links[j].Score
			}
			return links[i].SourceKey < links[j].SourceKey
		})
		if cfg.MaxLinksPerClaim > 0 && len(links) > cfg.MaxLinksPerClaim {
			links = links[:cfg.MaxLinksPerClaim]
		}
		if links == nil {
			links = []model.LinkedSource{}
			bp.UnmetClaims = append(bp.UnmetClaims, claim.ID)
		}

		bp.ClaimEvidence = append(bp.ClaimEvidence, model.ClaimEvidence{
			ClaimID:       claim.ID,
			ClaimText:     claim.Text,
			LinkedSources: links,
		})
	}

	return bp
}

// prepare deduplicates sources and precomputes their class and token sets
func (e *Engine) prepare(sources []model.SourceRef) []classifiedSource {
	refs := util.DedupeSources(sources)
	out := make([]classifiedSource, 0, len(refs))
	for _, ref := range refs {
		body := ref.Title + " " + ref.Snippet

		entities := make(map[string]bool)
		for _, ent := range util.Entities(body) {
			entities[ent] = true
		}
		_, known := e.publishers.Lookup(ref)

		out = append(out, classifiedSource{
			ref:       ref,
			key:       util.SourceKey(ref),
			class:     e.classifier.Classify(ref),
			tokens:    util.TokenSet(body, e.linking.MinTokenLength),
			entities:  entities,
			hasHost:   util.Host(ref.URL) != "" || ref.Domain != "",
			published: known,
		})
	}
	return out
}
