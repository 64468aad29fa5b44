package model

// Stance is the position a statement takes towards the submitted proposal
type Stance string

const (
	StancePro     Stance = "pro"
	StanceNeutral Stance = "neutral"
	StanceContra  Stance = "contra"
)

// StatementRecord is an atomic, checkable claim extracted from the submitted text
type StatementRecord struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Title          string       `json:"title,omitempty"`
	Topic          string       `json:"topic,omitempty"`
	Domain         string       `json:"domain,omitempty"`
	Domains        []string     `json:"domains,omitempty"`
	Responsibility string       `json:"responsibility,omitempty"` // EU, Bund, Land, Kommune, privat, unbestimmt, unknown
	Importance     int          `json:"importance,omitempty"`     // 1-5, 0 = not set
	Stance         Stance       `json:"stance,omitempty"`
	DebateFrame    *DebateFrame `json:"debateFrame,omitempty"`
}

// Jurisdiction is the political level a claim is addressed to
type Jurisdiction string

const (
	JurisdictionLocal     Jurisdiction = "local"
	JurisdictionNational  Jurisdiction = "national"
	JurisdictionEU        Jurisdiction = "eu"
	JurisdictionNeighbour Jurisdiction = "neighbour"
	JurisdictionGlobal    Jurisdiction = "global"
)

// GateStatus summarizes the anti-populism gate evaluation
type GateStatus string

const (
	GatePass        GateStatus = "pass"
	GateNeedsReview GateStatus = "needs_review"
	GateFail        GateStatus = "fail"
)

// DebateFrame is the structured policy wrapper derived per claim.
// Option/metric/trade-off slots stay empty unless the provider filled them:
// the frame is a scaffold, not generated content.
type DebateFrame struct {
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	PolicyDomain string       `json:"policyDomain"`
	Decision     string       `json:"decision,omitempty"`
	Options      []string     `json:"options,omitempty"`
	Metrics      []string     `json:"metrics,omitempty"`
	TradeOffs    []string     `json:"tradeOffs,omitempty"`
	Rights       []string     `json:"rights,omitempty"`
	Duties       []string     `json:"duties,omitempty"`
	Sanctions    []string     `json:"sanctions,omitempty"`
	Definitions  []string     `json:"definitions,omitempty"`
	AntiPopulism AntiPopulism `json:"antiPopulism"`
}

// AntiPopulism is the ten-gate checklist result
type AntiPopulism struct {
	Gates  []Gate     `json:"gates"`
	Passed int        `json:"passed"`
	Total  int        `json:"total"`
	Score  float64    `json:"score"`
	Status GateStatus `json:"status"`
}

// Gate is one boolean check of the anti-populism checklist
type Gate struct {
	ID            string `json:"id"`
	Passed        bool   `json:"passed"`
	Disqualifying bool   `json:"disqualifying,omitempty"`
}
