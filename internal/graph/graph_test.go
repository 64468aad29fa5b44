package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/validate"
)

func TestBuild_PrefersBurdenOfProof(t *testing.T) {
	claims := []model.StatementRecord{
		{ID: "c1", Text: "Mehr Tempo-30-Zonen vor Schulen."},
		{ID: "c2", Text: "Die Rente soll steigen."},
	}
	sources := []model.SourceRef{
		{URL: "https://www.tagesschau.de/inland/tempo-30", Title: "Tempo-30-Zonen vor Schulen"},
		{URL: "https://www.tagesschau.de/inland/tempo-30?utm_source=rss", Title: "Duplikat"},
		{URL: "https://example.org/rente", Title: "Rentenbericht"},
	}
	burden := &model.BurdenOfProof{
		UnmetClaims: []string{"c2"},
		ClaimEvidence: []model.ClaimEvidence{
			{ClaimID: "c1", LinkedSources: []model.LinkedSource{
				{SourceKey: "https://www.tagesschau.de/inland/tempo-30", Score: 0.71},
			}},
			{ClaimID: "c2", LinkedSources: []model.LinkedSource{}},
		},
	}

	g := NewBuilder(validate.NewSourceClassifier(nil, validate.DefaultPublisherRegistry())).Build(claims, sources, burden)

	wantEdges := []model.GraphEdge{{From: "claim:c1", To: "ev-1", Kind: model.EdgeSupports, Weight: 0.71}}
	if diff := cmp.Diff(wantEdges, g.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	wantSummary := model.GraphSummary{Claims: 2, Evidence: 2, Edges: 1, LinkedClaims: 1, UnlinkedClaims: 1}
	if diff := cmp.Diff(wantSummary, g.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(g.Nodes))
	}
	ev := g.Nodes[2]
	if ev.Type != model.NodeEvidence || ev.SourceClass != model.ClassIndependentMedia || ev.Weight != 0.71 {
		t.Errorf("unexpected evidence node %+v", ev)
	}
}

func TestBuild_FallbackGuessesEdgeKind(t *testing.T) {
	claims := []model.StatementRecord{{ID: "c1", Text: "Die Grundsteuer verdoppelt sich."}}
	sources := []model.SourceRef{
		{Title: "Grundsteuer", Snippet: "Die Behauptung ist falsch, die Grundsteuer steigt kaum."},
		{Title: "Grundsteuer verdoppelt", Snippet: "Eine Übersicht."},
		{Title: "Wetter", Snippet: "Sonnig."},
	}

	g := NewBuilder(nil).Build(claims, sources, nil)

	kinds := make(map[string]model.EdgeKind)
	for _, e := range g.Edges {
		kinds[e.To] = e.Kind
	}
	want := map[string]model.EdgeKind{"ev-1": model.EdgeRefutes, "ev-2": model.EdgeMentions}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("edge kinds mismatch (-want +got):\n%s", diff)
	}
	if g.Summary.LinkedClaims != 1 || g.Summary.Evidence != 3 {
		t.Errorf("unexpected summary %+v", g.Summary)
	}
	for _, n := range g.Nodes {
		if n.Type == model.NodeEvidence && n.SourceClass != model.ClassUnknown {
			t.Errorf("nil classifier must leave sources unknown, got %s", n.SourceClass)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	g := NewBuilder(nil).Build(nil, nil, nil)
	if g.Nodes == nil || g.Edges == nil {
		t.Error("empty graph must carry empty, non-nil lists")
	}
	if g.Summary != (model.GraphSummary{}) {
		t.Errorf("unexpected summary %+v", g.Summary)
	}
}
