package extract

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/taxonomy"
)

// Eventuality tree bounds
const (
	MaxEventualityDepth = 3
	MaxChildren         = 4
)

// nodeContext carries what a node may inherit from its parent. Fallbacks are
// only set at the top level; below it ids are derived from the parent. All
// nodes of one list or tree share ids, so every node id is unique there.
type nodeContext struct {
	ids               idSet
	fallbackID        string
	fallbackStatement string
	depth             int
}

func sanitizeEventualities(items []any, claims []model.StatementRecord, fallbackStatement string) []model.EventualityNode {
	out := make([]model.EventualityNode, 0, min(len(items), MaxEventualities))
	ids := newIDSet()
	for _, item := range items {
		if len(out) == MaxEventualities {
			break
		}
		f, ok := asFields(item)
		if !ok {
			continue
		}

		node, ok := sanitizeNode(f, nodeContext{
			ids:               ids,
			fallbackID:        fmt.Sprintf("ev%d", len(out)+1),
			fallbackStatement: resolveStatement(f, claims, fallbackStatement),
		})
		if !ok {
			continue
		}
		out = append(out, node)
	}
	return out
}

// sanitizeNode validates one eventuality node and, recursively, its children.
// A node needs a statementId and a label or narrative. A provider id already
// taken in the same list or tree is replaced by the fallback.
func sanitizeNode(f fields, ctx nodeContext) (model.EventualityNode, bool) {
	statementID := f.str("statementId", "claimId", "rootStatementId")
	if statementID == "" {
		statementID = ctx.fallbackStatement
	}
	if statementID == "" {
		return model.EventualityNode{}, false
	}

	label := f.str("label", "title", "name", "option")
	narrative := f.str("narrative", "text", "description", "body", "content")
	if label == "" {
		label = narrative
	}
	if narrative == "" {
		narrative = label
	}
	if label == "" {
		return model.EventualityNode{}, false
	}

	id := ctx.ids.claimOr(f.str("id", "nodeId"), ctx.fallbackID)
	node := model.EventualityNode{
		ID:               id,
		StatementID:      statementID,
		Label:            label,
		Narrative:        narrative,
		Consequences:     sanitizeConsequences(f.list("consequences", "folgen"), 0, id+"-cons"),
		Responsibilities: sanitizeResponsibilities(f.list("responsibilities", "zustaendigkeiten"), id+"-resp"),
		Children:         []model.EventualityNode{},
	}
	if st, ok := taxonomy.NormalizeStance(f.str("stance", "position")); ok {
		node.Stance = st
	}
	if v, ok := f.num("likelihood", "probability", "wahrscheinlichkeit"); ok {
		v = clamp01(v)
		node.Likelihood = &v
	}
	if v, ok := f.num("impact", "severity", "auswirkung"); ok {
		v = clamp01(v)
		node.Impact = &v
	}

	if ctx.depth+1 < MaxEventualityDepth {
		for i, raw := range f.list("children", "branches", "next", "followUps") {
			if len(node.Children) == MaxChildren {
				break
			}
			cf, ok := asFields(raw)
			if !ok {
				continue
			}
			child, ok := sanitizeNode(cf, nodeContext{
				ids:               ctx.ids,
				fallbackID:        fmt.Sprintf("%s-c%d", id, i+1),
				fallbackStatement: statementID,
				depth:             ctx.depth + 1,
			})
			if ok {
				node.Children = append(node.Children, child)
			}
		}
	}

	return node, true
}

func sanitizeDecisionTrees(items []any, now time.Time) []model.DecisionTree {
	out := make([]model.DecisionTree, 0, min(len(items), MaxDecisionTrees))
	for _, item := range items {
		if len(out) == MaxDecisionTrees {
			break
		}
		f, ok := asFields(item)
		if !ok {
			continue
		}
		if tree, ok := sanitizeDecisionTree(f, now); ok {
			out = append(out, tree)
		}
	}
	return out
}

// sanitizeDecisionTree keeps a tree only if both pro and contra sanitize;
// neutral is optional and silently dropped when malformed
func sanitizeDecisionTree(f fields, now time.Time) (model.DecisionTree, bool) {
	root := f.str("rootStatementId", "statementId", "claimId")
	if root == "" {
		return model.DecisionTree{}, false
	}

	options, ok := f.obj("options", "branches")
	if !ok {
		options = f
	}

	ids := newIDSet()
	branch := func(name string, aliases ...string) (model.EventualityNode, bool) {
		bf, ok := options.obj(aliases...)
		if !ok {
			return model.EventualityNode{}, false
		}
		return sanitizeNode(bf, nodeContext{
			ids:               ids,
			fallbackID:        root + "-" + name,
			fallbackStatement: root,
		})
	}

	pro, ok := branch("pro", "pro", "yes", "for", "dafuer")
	if !ok {
		return model.DecisionTree{}, false
	}
	contra, ok := branch("contra", "contra", "con", "no", "against", "dagegen")
	if !ok {
		return model.DecisionTree{}, false
	}

	tree := model.DecisionTree{
		RootStatementID: root,
		CreatedAt:       now.UTC(),
		Options:         model.DecisionOptions{Pro: pro, Contra: contra},
	}
	if neutral, ok := branch("neutral", "neutral", "abstain", "enthaltung"); ok {
		tree.Options.Neutral = &neutral
	}
	if raw := f.str("createdAt", "created_at", "date"); raw != "" {
		if ts, err := dateparse.ParseAny(raw); err == nil {
			tree.CreatedAt = ts.UTC()
		}
	}
	return tree, true
}
