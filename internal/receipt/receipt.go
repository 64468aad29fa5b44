package receipt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/util"
	"github.com/ppiankov/agora/internal/validate"
)

// IDPrefix starts every receipt id
const IDPrefix = "rr_"

// OutputOmitKeys are dropped before the output is hashed, so wall-clock
// stamps and the receipt itself never change the output hash
var OutputOmitKeys = []string{"runReceipt", "_meta", "createdAt"}

// DefaultContentPolicy is what every receipt states about retained content
var DefaultContentPolicy = model.ContentPolicy{
	MaxSnippetChars: 280,
	StoresFullText:  false,
	StoresSnippets:  false,
}

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://agora.invalid/run-receipt"))

// Input is what a receipt is computed over
type Input struct {
	Text     string
	Sources  []model.SourceRef
	Output   any
	Provider string
	Model    string
}

// Generator stamps receipts with the pipeline identity
type Generator struct {
	pipelineVersion string
	promptVersion   string
	publishers      *validate.PublisherRegistry
	classifier      *validate.SourceClassifier
	now             func() time.Time
}

// NewGenerator creates a receipt generator. A nil registry means the
// embedded one.
func NewGenerator(pipelineVersion, promptVersion string, publishers *validate.PublisherRegistry) *Generator {
	if publishers == nil {
		publishers = validate.DefaultPublisherRegistry()
	}
	return &Generator{
		pipelineVersion: pipelineVersion,
		promptVersion:   promptVersion,
		publishers:      publishers,
		classifier:      validate.NewSourceClassifier(nil, publishers),
		now:             time.Now,
	}
}

// WithClock returns a copy of g that reads time from now
func (g *Generator) WithClock(now func() time.Time) *Generator {
	c := *g
	c.now = now
	return &c
}

// Generate computes the three content hashes, the composite receipt hash and
// the privacy-reduced source set
func (g *Generator) Generate(in Input) (model.RunReceipt, error) {
	inputHash, err := Hash(strings.TrimSpace(in.Text))
	if err != nil {
		return model.RunReceipt{}, fmt.Errorf("failed to hash input: %w", err)
	}

	sourceSet := g.SourceSet(in.Sources)
	sourcesHash, err := Hash(sourceSet)
	if err != nil {
		return model.RunReceipt{}, fmt.Errorf("failed to hash sources: %w", err)
	}

	outputHash, err := Hash(in.Output, OutputOmitKeys...)
	if err != nil {
		return model.RunReceipt{}, fmt.Errorf("failed to hash output: %w", err)
	}

	receiptHash, err := Hash(map[string]any{
		"inputHash":       inputHash,
		"sourcesHash":     sourcesHash,
		"outputHash":      outputHash,
		"pipelineVersion": g.pipelineVersion,
		"promptVersion":   g.promptVersion,
		"provider":        in.Provider,
		"model":           in.Model,
	})
	if err != nil {
		return model.RunReceipt{}, fmt.Errorf("failed to hash receipt: %w", err)
	}

	return model.RunReceipt{
		ID:              IDPrefix + receiptHash[:16],
		CreatedAt:       g.now().UTC(),
		PipelineVersion: g.pipelineVersion,
		Provider:        in.Provider,
		Model:           in.Model,
		PromptVersion:   g.promptVersion,
		InputHash:       inputHash,
		SourcesHash:     sourcesHash,
		OutputHash:      outputHash,
		ReceiptHash:     receiptHash,
		SnapshotID:      uuid.NewSHA1(snapshotNamespace, []byte(receiptHash)).String(),
		SourceSet:       sourceSet,
		ContentPolicy:   DefaultContentPolicy,
	}, nil
}

// SourceSet projects sources onto the receipt view, deduplicates them and
// sorts them. Snippets never enter the set, not even through
// classification, so sourcesHash only moves when a hashed field moves.
func (g *Generator) SourceSet(sources []model.SourceRef) []model.ReceiptSource {
	seen := make(map[model.ReceiptSource]bool)
	set := []model.ReceiptSource{}

	for _, ref := range sources {
		rs := model.ReceiptSource{
			CanonicalURL: util.CanonicalURL(ref.URL),
			Host:         util.Host(ref.URL),
			Publisher:    strings.TrimSpace(ref.Publisher),
			PublisherKey: g.publishers.Key(ref),
			SourceClass:  g.classifier.Classify(model.SourceRef{URL: ref.URL, Publisher: ref.Publisher, Title: ref.Title, Domain: ref.Domain}),
			FetchedAt:    normalizeFetchedAt(ref.FetchedAt),
			Title:        util.Truncate(strings.TrimSpace(ref.Title), DefaultContentPolicy.MaxSnippetChars),
		}
		if rs.Host == "" {
			rs.Host = strings.TrimPrefix(strings.ToLower(ref.Domain), "www.")
		}
		if seen[rs] {
			continue
		}
		seen[rs] = true
		set = append(set, rs)
	}

	sort.Slice(set, func(i, j int) bool {
		a, b := set[i], set[j]
		if a.CanonicalURL != b.CanonicalURL {
			return a.CanonicalURL < b.CanonicalURL
		}
		if a.PublisherKey != b.PublisherKey {
			return a.PublisherKey < b.PublisherKey
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Publisher != b.Publisher {
			return a.Publisher < b.Publisher
		}
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		if a.SourceClass != b.SourceClass {
			return a.SourceClass < b.SourceClass
		}
		return a.FetchedAt < b.FetchedAt
	})
	return set
}

// normalizeFetchedAt parses loose date strings into UTC RFC 3339, "" when
// the value is not a date
func normalizeFetchedAt(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
