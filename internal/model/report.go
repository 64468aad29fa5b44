package model

// AnalyzeResult is the request-scoped aggregate of one analyze run.
// It is rebuilt from scratch on every run and never updated in place.
type AnalyzeResult struct {
	Claims                  []StatementRecord        `json:"claims"`
	Notes                   []NoteRecord             `json:"notes"`
	Questions               []QuestionRecord         `json:"questions"`
	MissingPerspectives     []string                 `json:"missingPerspectives"`
	Knots                   []KnotRecord             `json:"knots"`
	Consequences            ConsequenceBundle        `json:"consequences"`
	ResponsibilityPaths     []ResponsibilityPath     `json:"responsibilityPaths"`
	Eventualities           []EventualityNode        `json:"eventualities"`
	DecisionTrees           []DecisionTree           `json:"decisionTrees"`
	ImpactAndResponsibility ImpactAndResponsibility  `json:"impactAndResponsibility"`
	ParticipationCandidates []ParticipationCandidate `json:"participationCandidates"`
	Report                  ReportRecord             `json:"report"`
	EditorialAudit          *EditorialAudit          `json:"editorialAudit,omitempty"`
	EvidenceGraph           EvidenceGraph            `json:"evidenceGraph"`
	RunReceipt              RunReceipt               `json:"runReceipt"`
}

// AnalyzeResponse is the aggregate plus run metadata
type AnalyzeResponse struct {
	AnalyzeResult
	Meta RunMeta `json:"_meta"`
}

// JSONCoercion names the repair step needed to read the provider output
type JSONCoercion string

const (
	CoercionNone      JSONCoercion = "none"
	CoercionFence     JSONCoercion = "fence"
	CoercionBackticks JSONCoercion = "backticks"
	CoercionBraces    JSONCoercion = "braces"
	CoercionLoose     JSONCoercion = "loose"
)

// RunMeta carries provider and cost metadata of a run
type RunMeta struct {
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	DurationMs     int64             `json:"durationMs"`
	TokensIn       int               `json:"tokensIn"`
	TokensOut      int               `json:"tokensOut"`
	CostEUR        float64           `json:"costEur"`
	ProviderMatrix []ProviderAttempt `json:"providerMatrix"`
	Trace          RunTrace          `json:"trace"`
}

// RunTrace records which recovery steps the run needed
type RunTrace struct {
	JSONCoercion JSONCoercion `json:"jsonCoercion"`
	MinClaims    int          `json:"minClaims"`
	ShortInput   bool         `json:"shortInput"`
}

// ProviderAttempt is one row of the provider matrix
type ProviderAttempt struct {
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	OK         bool   `json:"ok"`
	ErrorKind  string `json:"errorKind,omitempty"` // transport, timeout, rate_limit, empty, bad_json, validation
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
	TokensIn   int    `json:"tokensIn,omitempty"`
	TokensOut  int    `json:"tokensOut,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}
