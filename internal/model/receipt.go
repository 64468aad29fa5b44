package model

import "time"

// RunReceipt is the content-addressed proof of which input, sources and output belong together.
// It never stores article text or snippets.
type RunReceipt struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	PipelineVersion string          `json:"pipelineVersion"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	PromptVersion   string          `json:"promptVersion"`
	InputHash       string          `json:"inputHash"`
	SourcesHash     string          `json:"sourcesHash"`
	OutputHash      string          `json:"outputHash"`
	ReceiptHash     string          `json:"receiptHash"`
	SnapshotID      string          `json:"snapshotId"`
	SourceSet       []ReceiptSource `json:"sourceSet"`
	ContentPolicy   ContentPolicy   `json:"contentPolicy"`
}

// ReceiptSource is the privacy-reduced view of a source. SourceClass is
// derived from URL, publisher and title only; the audit also reads the
// snippet, so the two may disagree for one source.
type ReceiptSource struct {
	CanonicalURL string         `json:"canonicalUrl,omitempty"`
	Host         string         `json:"host,omitempty"`
	Publisher    string         `json:"publisher,omitempty"`
	PublisherKey string         `json:"publisherKey,omitempty"`
	SourceClass  EditorialClass `json:"sourceClass"`
	FetchedAt    string         `json:"fetchedAt,omitempty"`
	Title        string         `json:"title,omitempty"`
}

// ContentPolicy states what the receipt is allowed to retain
type ContentPolicy struct {
	MaxSnippetChars int  `json:"maxSnippetChars"`
	StoresFullText  bool `json:"storesFullText"`
	StoresSnippets  bool `json:"storesSnippets"`
}
