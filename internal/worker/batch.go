package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/agora/internal/model"
)

// Item is one analyze request of a batch file
type Item struct {
	Index          int      `json:"-"`
	ID             string   `json:"id,omitempty"`
	Text           string   `json:"text"`
	Locale         string   `json:"locale,omitempty"`
	MaxClaims      int      `json:"maxClaims,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	Domains        []string `json:"domains,omitempty"`
	ContextPackIDs []string `json:"contextPackIds,omitempty"`
}

// Analyzer analyzes one batch item
type Analyzer interface {
	AnalyzeItem(ctx context.Context, item Item) (*model.AnalyzeResponse, error)
}

// ItemJob analyzes one item
type ItemJob struct {
	Item     Item
	Analyzer Analyzer
}

// Execute executes the analyze job
func (j *ItemJob) Execute(ctx context.Context) Result {
	start := time.Now()
	resp, err := j.Analyzer.AnalyzeItem(ctx, j.Item)
	return &ItemResult{
		Item:     j.Item,
		Response: resp,
		Error:    err,
		Duration: time.Since(start),
	}
}

// ItemResult is the outcome of one item
type ItemResult struct {
	Item     Item
	Response *model.AnalyzeResponse
	Error    error
	Duration time.Duration
}

// GetError returns the error of the item
func (r *ItemResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many items concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// Process analyzes items and returns one result per item in input order.
// Items not started before ctx was done carry the context error.
func (b *BatchProcessor) Process(ctx context.Context, items []Item) []*ItemResult {
	jobs := make([]Job, len(items))
	for i, item := range items {
		jobs[i] = &ItemJob{Item: item, Analyzer: b.analyzer}
	}

	results := NewPool(b.concurrency).Run(ctx, jobs)

	out := make([]*ItemResult, len(items))
	for i, r := range results {
		if r == nil {
			out[i] = &ItemResult{Item: items[i], Error: fmt.Errorf("not started: %w", context.Cause(ctx))}
			continue
		}
		out[i] = r.(*ItemResult)
	}
	return out
}

// ProcessFile reads items from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ItemResult, error) {
	items, err := ReadItemsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	return b.Process(ctx, items), nil
}

// ReadItemsFromFile reads one item per line. A line starting with "{" is a
// JSON item, any other line is the text to analyze. Blank lines, "#"
// comments and repeated lines are skipped. Items without id get "item-N".
func ReadItemsFromFile(filePath string) ([]Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []Item
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true

		item := Item{Text: line}
		if strings.HasPrefix(line, "{") {
			item = Item{}
			if err := json.Unmarshal([]byte(line), &item); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if strings.TrimSpace(item.Text) == "" {
				return nil, fmt.Errorf("line %d: item has no text", lineNo)
			}
		}

		item.Index = len(items)
		if item.ID == "" {
			item.ID = fmt.Sprintf("item-%d", item.Index+1)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}
