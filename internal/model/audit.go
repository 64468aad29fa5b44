package model

// Severity grades audit findings
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// BilingualText carries German and English wording side by side
type BilingualText struct {
	De string `json:"de" yaml:"de"`
	En string `json:"en" yaml:"en"`
}

// EditorialAudit bundles the heuristic balance, bias and evidence findings of one run.
// Every signal is a heuristic hint, never an authoritative verdict.
type EditorialAudit struct {
	SourceBalance         SourceBalance          `json:"sourceBalance"`
	AgencyOpacityFlags    []Flag                 `json:"agencyOpacityFlags"`
	EuphemismTermFlags    []Flag                 `json:"euphemismTermFlags"`
	PowerStenographyFlags []Flag                 `json:"powerStenographyFlags"`
	BurdenOfProof         BurdenOfProof          `json:"burdenOfProof"`
	InternationalContrast *InternationalContrast `json:"internationalContrast,omitempty"`
	PolicyPack            PolicyPackRef          `json:"policyPack"`
	EuphemismFindings     []EuphemismFinding     `json:"euphemismFindings"`
	VoiceCoverage         VoiceCoverage          `json:"voiceCoverage"`
	ContextGaps           []ContextGap           `json:"contextGaps"`
	AttachedContextPacks  []string               `json:"attachedContextPacks"`
	Confidence            float64                `json:"confidence"`
}

// SourceBalance describes how sources spread across editorial classes
type SourceBalance struct {
	CountsByClass map[EditorialClass]int `json:"countsByClass"`
	Total         int                    `json:"total"`
	DominantClass EditorialClass         `json:"dominantClass"`
	BalanceScore  float64                `json:"balanceScore"` // normalized Shannon entropy, [0,1]
	MissingVoices []EditorialClass       `json:"missingVoices"`
}

// Flag is a sentence-level audit hint
type Flag struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Excerpt  string   `json:"excerpt"`
	Term     string   `json:"term,omitempty"`
}

// EuphemismFinding is a policy-pack hit with its suggested rewording
type EuphemismFinding struct {
	RuleID    string        `json:"ruleId"`
	Origin    string        `json:"origin"` // lexicon | rule
	Term      string        `json:"term"`
	Match     string        `json:"match"`
	Start     int           `json:"start"`
	End       int           `json:"end"`
	Severity  Severity      `json:"severity"`
	Preferred BilingualText `json:"preferred"`
	Rationale BilingualText `json:"rationale"`
}

// BurdenOfProof lists the claim-to-source links and the claims left without support
type BurdenOfProof struct {
	UnmetClaims   []string        `json:"unmetClaims"`
	ClaimEvidence []ClaimEvidence `json:"claimEvidence"`
}

// ClaimEvidence is the linkage of one claim
type ClaimEvidence struct {
	ClaimID       string         `json:"claimId"`
	ClaimText     string         `json:"claimText"`
	LinkedSources []LinkedSource `json:"linkedSources"`
}

// LinkedSource is a source scored against a claim
type LinkedSource struct {
	SourceKey   string         `json:"sourceKey"`
	URL         string         `json:"url,omitempty"`
	Publisher   string         `json:"publisher,omitempty"`
	Title       string         `json:"title,omitempty"`
	SourceClass EditorialClass `json:"sourceClass"`
	Score       float64        `json:"score"`
}

// InternationalContrast compares how domestic and international outlets frame the topic
type InternationalContrast struct {
	Groups      []OutletGroup `json:"groups"`
	Differences []string      `json:"differences"`
}

// OutletGroup aggregates rates over one locale group
type OutletGroup struct {
	Locale          string   `json:"locale"` // de | intl
	Outlets         []string `json:"outlets"`
	AttributionRate float64  `json:"attributionRate"`
	CaveatRate      float64  `json:"caveatRate"`
	PassiveRate     float64  `json:"passiveRate"`
}

// PolicyPackRef identifies the policy pack version used
type PolicyPackRef struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// VoiceCoverage reports which required perspective roles are represented
type VoiceCoverage struct {
	Domains         []string `json:"domains"`
	Required        []string `json:"required"`
	Present         []string `json:"present"`
	Missing         []string `json:"missing"`
	Score           float64  `json:"score"`
	RegistryVersion string   `json:"registryVersion"`
}

// ContextGap is a kind of context the text does not provide
type ContextGap struct {
	Kind     string        `json:"kind"`
	Severity Severity      `json:"severity"`
	Hint     BilingualText `json:"hint"`
}
