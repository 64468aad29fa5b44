// Package audit computes the editorial audit of an analyze run: source
// balance, language flags, burden-of-proof links, voice coverage, context
// gaps and the international contrast. Every result is a heuristic hint.
package audit

import (
	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/policy"
	"github.com/ppiankov/agora/internal/validate"
)

// Input is everything one audit looks at
type Input struct {
	Text         string
	Claims       []model.StatementRecord
	Sources      []model.SourceRef
	Domains      []string
	ContextPacks []string
}

// Engine runs audits against an explicit policy pack and registries. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	pack       *policy.Pack
	voices     *policy.VoiceRegistry
	publishers *validate.PublisherRegistry
	classifier *validate.SourceClassifier
	linking    model.LinkingConfig
}

// Option customizes an Engine
type Option func(*Engine)

// WithPolicyPack replaces the embedded policy pack
func WithPolicyPack(p *policy.Pack) Option {
	return func(e *Engine) { e.pack = p }
}

// WithVoiceRegistry replaces the embedded voice registry
func WithVoiceRegistry(r *policy.VoiceRegistry) Option {
	return func(e *Engine) { e.voices = r }
}

// WithPublishers replaces the embedded publisher registry
func WithPublishers(r *validate.PublisherRegistry) Option {
	return func(e *Engine) { e.publishers = r }
}

// WithLinking sets the burden-of-proof heuristics
func WithLinking(cfg model.LinkingConfig) Option {
	return func(e *Engine) { e.linking = cfg }
}

// NewEngine creates an engine with the embedded pack and registries unless
// options say otherwise
func NewEngine(opts ...Option) *Engine {
	e := &Engine{linking: model.DefaultLinkingConfig()}
	for _, opt := range opts {
		opt(e)
	}
	if e.pack == nil {
		e.pack = policy.DefaultPack()
	}
	if e.voices == nil {
		e.voices = policy.DefaultVoiceRegistry()
	}
	if e.publishers == nil {
		e.publishers = validate.DefaultPublisherRegistry()
	}
	e.classifier = validate.NewSourceClassifier(nil, e.publishers)
	return e
}

// Publishers returns the registry the engine classifies with
func (e *Engine) Publishers() *validate.PublisherRegistry { return e.publishers }

// Classifier returns the source classifier
func (e *Engine) Classifier() *validate.SourceClassifier { return e.classifier }

// PolicyPack returns the pack findings are matched against
func (e *Engine) PolicyPack() *policy.Pack { return e.pack }

// Run computes the full audit. It is pure: the same input yields the same audit.
func (e *Engine) Run(in Input) model.EditorialAudit {
	sources := e.prepare(in.Sources)
	classes := make([]model.EditorialClass, 0, len(sources))
	refs := make([]model.SourceRef, 0, len(sources))
	for _, s := range sources {
		classes = append(classes, s.class)
		refs = append(refs, s.ref)
	}

	// 1. Source balance
	balance := Balance(classes)

	// 2. Language flags
	findings := e.pack.Find(in.Text)
	if findings == nil {
		findings = []model.EuphemismFinding{}
	}

	// 3. Claim linkage
	burden := e.burdenOfProof(in.Claims, sources)

	packs := in.ContextPacks
	if packs == nil {
		packs = []string{}
	}

	return model.EditorialAudit{
		SourceBalance:         balance,
		AgencyOpacityFlags:    AgencyOpacityFlags(in.Text),
		EuphemismTermFlags:    EuphemismFlags(findings),
		PowerStenographyFlags: PowerStenographyFlags(in.Text, balance),
		BurdenOfProof:         burden,
		InternationalContrast: e.InternationalContrast(refs),
		PolicyPack:            e.pack.Ref(),
		EuphemismFindings:     findings,
		VoiceCoverage:         e.VoiceCoverage(in.Domains, classes),
		ContextGaps:           ContextGaps(in.Text, len(sources)),
		AttachedContextPacks:  packs,
		Confidence:            Confidence(len(sources)),
	}
}

// Confidence grades the audit by how many distinct sources it saw
func Confidence(sourceCount int) float64 {
	switch {
	case sourceCount >= 6:
		return 0.75
	case sourceCount >= 2:
		return 0.6
	default:
		return 0.45
	}
}
