package model

// NodeType distinguishes graph nodes
type NodeType string

const (
	NodeClaim    NodeType = "claim"
	NodeEvidence NodeType = "evidence"
)

// EdgeKind is the relation between a claim and a piece of evidence
type EdgeKind string

const (
	EdgeSupports EdgeKind = "supports"
	EdgeRefutes  EdgeKind = "refutes"
	EdgeMentions EdgeKind = "mentions"
)

// EvidenceGraph is the bipartite claim/evidence graph
type EvidenceGraph struct {
	Nodes   []GraphNode  `json:"nodes"`
	Edges   []GraphEdge  `json:"edges"`
	Summary GraphSummary `json:"summary"`
}

// GraphNode is a claim or an evidence item
type GraphNode struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label"`
	URL         string         `json:"url,omitempty"`
	Publisher   string         `json:"publisher,omitempty"`
	SourceClass EditorialClass `json:"sourceClass,omitempty"`
	Weight      float64        `json:"weight,omitempty"`
}

// GraphEdge connects a claim node to an evidence node
type GraphEdge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight"`
}

// GraphSummary carries node and linkage counts
type GraphSummary struct {
	Claims         int `json:"claims"`
	Evidence       int `json:"evidence"`
	Edges          int `json:"edges"`
	LinkedClaims   int `json:"linkedClaims"`
	UnlinkedClaims int `json:"unlinkedClaims"`
}
