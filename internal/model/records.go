package model

import "time"

// NoteRecord is a short contextual remark on the submission
type NoteRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
}

// QuestionRecord is an open question the debate has to answer
type QuestionRecord struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Dimension string `json:"dimension,omitempty"`
}

// KnotRecord is a conflict point where positions collide
type KnotRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParticipationCandidate is a proposed way for citizens to take part
type ParticipationCandidate struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Rationale string `json:"rationale,omitempty"`
}

// ConsequenceScope is where a consequence plays out
type ConsequenceScope string

const (
	ScopeLocalShort ConsequenceScope = "local_short"
	ScopeLocalLong  ConsequenceScope = "local_long"
	ScopeNational   ConsequenceScope = "national"
	ScopeGlobal     ConsequenceScope = "global"
	ScopeSystemic   ConsequenceScope = "systemic"
	ScopeUnknown    ConsequenceScope = "unknown"
)

// ConsequenceRecord is an expected effect of one statement
type ConsequenceRecord struct {
	ID             string           `json:"id"`
	Scope          ConsequenceScope `json:"scope"`
	StatementIndex int              `json:"statementIndex"`
	Text           string           `json:"text"`
	Confidence     *float64         `json:"confidence,omitempty"` // [0,1]
}

// ResponsibilityLevel is the institutional level in charge
type ResponsibilityLevel string

const (
	LevelMunicipality ResponsibilityLevel = "municipality"
	LevelDistrict     ResponsibilityLevel = "district"
	LevelState        ResponsibilityLevel = "state"
	LevelFederal      ResponsibilityLevel = "federal"
	LevelEU           ResponsibilityLevel = "eu"
	LevelNGO          ResponsibilityLevel = "ngo"
	LevelPrivate      ResponsibilityLevel = "private"
	LevelUnknown      ResponsibilityLevel = "unknown"
)

// ResponsibilityRecord names who is responsible for acting
type ResponsibilityRecord struct {
	ID        string              `json:"id"`
	Level     ResponsibilityLevel `json:"level"`
	Actor     string              `json:"actor,omitempty"`
	Text      string              `json:"text"`
	Relevance *float64            `json:"relevance,omitempty"`
}

// ConsequenceBundle groups consequences with the responsibilities they trigger
type ConsequenceBundle struct {
	Consequences     []ConsequenceRecord    `json:"consequences"`
	Responsibilities []ResponsibilityRecord `json:"responsibilities"`
}

// ResponsibilityPath is the chain of levels a statement travels through
type ResponsibilityPath struct {
	ID          string               `json:"id"`
	StatementID string               `json:"statementId"`
	Steps       []ResponsibilityStep `json:"steps"`
}

// ResponsibilityStep is one hop of a responsibility path
type ResponsibilityStep struct {
	Level ResponsibilityLevel `json:"level"`
	Actor string              `json:"actor,omitempty"`
	Role  string              `json:"role,omitempty"`
}

// EventualityNode is a scenario node; children make it a tree
type EventualityNode struct {
	ID               string                 `json:"id"`
	StatementID      string                 `json:"statementId"`
	Label            string                 `json:"label"`
	Narrative        string                 `json:"narrative"`
	Stance           Stance                 `json:"stance,omitempty"`
	Likelihood       *float64               `json:"likelihood,omitempty"`
	Impact           *float64               `json:"impact,omitempty"`
	Consequences     []ConsequenceRecord    `json:"consequences"`
	Responsibilities []ResponsibilityRecord `json:"responsibilities"`
	Children         []EventualityNode      `json:"children"`
}

// DecisionOptions holds the branches of a decision tree.
// Pro and Contra are mandatory, Neutral is optional.
type DecisionOptions struct {
	Pro     EventualityNode  `json:"pro"`
	Contra  EventualityNode  `json:"contra"`
	Neutral *EventualityNode `json:"neutral,omitempty"`
}

// DecisionTree lays out the scenarios of adopting or rejecting a statement
type DecisionTree struct {
	RootStatementID string          `json:"rootStatementId"`
	CreatedAt       time.Time       `json:"createdAt"`
	Options         DecisionOptions `json:"options"`
}

// ImpactAndResponsibility is the overall impact summary
type ImpactAndResponsibility struct {
	Impacts           []Impact           `json:"impacts"`
	ResponsibleActors []ResponsibleActor `json:"responsibleActors"`
}

// Impact is one affected area
type Impact struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ResponsibleActor is an actor with the level it belongs to
type ResponsibleActor struct {
	Level ResponsibilityLevel `json:"level"`
	Hint  string              `json:"hint"`
}

// ReportRecord is the prose summary of the analysis
type ReportRecord struct {
	Summary      string   `json:"summary"`
	KeyConflicts []string `json:"keyConflicts"`
	Takeaways    []string `json:"takeaways"`
}
