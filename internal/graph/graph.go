// Package graph builds the bipartite claim/evidence graph of an analyze run
package graph

import (
	"math"
	"regexp"
	"strconv"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
)

// Classifier assigns an editorial class to a source
type Classifier interface {
	Classify(ref model.SourceRef) model.EditorialClass
}

const minTokenLength = 4

// negationPattern runs on folded snippets
var negationPattern = regexp.MustCompile(`\b(widerlegt|falsch|dementiert|dementi|bestritten|bestreitet|zuruckgewiesen|irrefuhrend|kein(e)? belege?|refuted|debunked|false|denied|misleading|no evidence)\b`)

// Builder builds evidence graphs
type Builder struct {
	classifier Classifier
}

// NewBuilder creates a builder. A nil classifier leaves every source unknown.
func NewBuilder(classifier Classifier) *Builder {
	return &Builder{classifier: classifier}
}

type evidence struct {
	node model.GraphNode
	ref  model.SourceRef
}

// Build returns the graph of claims and sources. When burden carries at least
// one link, its links become "supports" edges weighted by their score.
// Otherwise every source sharing tokens with a claim is connected to it as
// "refutes" when its snippet reads like a rebuttal, else "mentions".
func (b *Builder) Build(claims []model.StatementRecord, sources []model.SourceRef, burden *model.BurdenOfProof) model.EvidenceGraph {
	g := model.EvidenceGraph{
		Nodes: []model.GraphNode{},
		Edges: []model.GraphEdge{},
	}

	for _, c := range claims {
		g.Nodes = append(g.Nodes, model.GraphNode{
			ID:    claimNodeID(c.ID),
			Type:  model.NodeClaim,
			Label: util.Truncate(c.Text, 120),
		})
	}

	var items []*evidence
	byKey := make(map[string]*evidence)
	addEvidence := func(ref model.SourceRef) *evidence {
		key := util.SourceKey(ref)
		if ev, ok := byKey[key]; ok {
			return ev
		}
		ev := &evidence{ref: ref, node: model.GraphNode{
			ID:          "ev-" + strconv.Itoa(len(items)+1),
			Type:        model.NodeEvidence,
			Label:       evidenceLabel(ref),
			URL:         util.CanonicalURL(ref.URL),
			Publisher:   ref.Publisher,
			SourceClass: b.classify(ref),
		}}
		byKey[key] = ev
		items = append(items, ev)
		return ev
	}
	for _, ref := range sources {
		addEvidence(ref)
	}

	linked := make(map[string]bool)
	connect := func(claimID string, ev *evidence, kind model.EdgeKind, weight float64) {
		g.Edges = append(g.Edges, model.GraphEdge{
			From:   claimNodeID(claimID),
			To:     ev.node.ID,
			Kind:   kind,
			Weight: weight,
		})
		linked[claimID] = true
		if weight > ev.node.Weight {
			ev.node.Weight = weight
		}
	}

	if hasLinks(burden) {
		for _, ce := range burden.ClaimEvidence {
			for _, ls := range ce.LinkedSources {
				ev, ok := byKey[ls.SourceKey]
				if !ok {
					ev = addEvidence(model.SourceRef{URL: ls.URL, Publisher: ls.Publisher, Title: ls.Title})
				}
				connect(ce.ClaimID, ev, model.EdgeSupports, ls.Score)
			}
		}
	} else {
		for _, c := range claims {
			claimTokens := util.TokenSet(c.Text, minTokenLength)
			for _, ev := range items {
				overlap := util.Jaccard(claimTokens, util.TokenSet(ev.ref.Title+" "+ev.ref.Snippet, minTokenLength))
				if overlap == 0 {
					continue
				}
				kind := model.EdgeMentions
				if negationPattern.MatchString(util.Fold(ev.ref.Snippet)) {
					kind = model.EdgeRefutes
				}
				connect(c.ID, ev, kind, roundWeight(overlap))
			}
		}
	}

	for _, ev := range items {
		g.Nodes = append(g.Nodes, ev.node)
	}

	g.Summary = model.GraphSummary{
		Claims:   len(claims),
		Evidence: len(items),
		Edges:    len(g.Edges),
	}
	for _, c := range claims {
		if linked[c.ID] {
			g.Summary.LinkedClaims++
		}
	}
	g.Summary.UnlinkedClaims = g.Summary.Claims - g.Summary.LinkedClaims

	return g
}

func (b *Builder) classify(ref model.SourceRef) model.EditorialClass {
	if b.classifier == nil {
		return model.ClassUnknown
	}
	return b.classifier.Classify(ref)
}

func hasLinks(burden *model.BurdenOfProof) bool {
	if burden == nil {
		return false
	}
	for _, ce := range burden.ClaimEvidence {
		if len(ce.LinkedSources) > 0 {
			return true
		}
	}
	return false
}

func claimNodeID(id string) string { return "claim:" + id }

func evidenceLabel(ref model.SourceRef) string {
	switch {
	case ref.Title != "":
		return util.Truncate(ref.Title, 120)
	case ref.Publisher != "":
		return ref.Publisher
	case ref.URL != "":
		return util.Host(ref.URL)
	default:
		return "source"
	}
}

func roundWeight(v float64) float64 {
	return math.Round(v*1000) / 1000
}
