package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/ppiankov/agora/internal/observability"
	"github.com/ppiankov/agora/internal/pipeline"
	"github.com/ppiankov/agora/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	metricsAddr  string
	// noFooter and noAudit are defined in analyze.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many texts from a file in parallel",
	Long: `Batch analyzes every item of a file concurrently:
- One text per line, or one JSON request per line
  ({"id": "...", "text": "...", "locale": "en", "maxClaims": 5, "domain": "...", "contextPackIds": [...]})
- Blank lines, "#" comments and repeated lines are skipped
- Provider calls are rate limited per provider
- Each item is written to <output-dir>/<id>.json and <id>.md

Example:
  agora batch proposals.txt
  agora batch requests.jsonl --concurrency 8 --output-dir ./reports
  agora batch requests.jsonl --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./agora-reports", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the batch runs")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown results")
	batchCmd.Flags().BoolVar(&noAudit, "no-audit", false, "skip the editorial audit")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if noAudit {
		cfg.Audit.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	if metricsAddr != "" {
		srv := observability.NewServer(metricsAddr, logger)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Agora Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(analyzer, cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderLocale := strings.ToLower(cfg.Pipeline.DefaultLocale)
	successCount, failureCount := 0, 0
	var totalCost float64

	for _, result := range results {
		id := result.Item.ID
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s [%s]: %v\n", id, pipeline.Outcome(result.Error), result.Error)
			continue
		}

		itemLocale := renderLocale
		if result.Item.Locale != "" {
			itemLocale = strings.ToLower(result.Item.Locale)
		}
		renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, itemLocale)

		slug := sanitizeFilename(id)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")
		if err := renderer.WriteFiles(result.Response, jsonPath, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", id, err)
			continue
		}

		successCount++
		totalCost += result.Response.Meta.CostEUR
		fmt.Fprintf(os.Stderr, "✓ %s (%d claims, %s, %v)\n",
			id, len(result.Response.Claims), result.Response.RunReceipt.ID, result.Duration.Round(time.Millisecond))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d items\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Cost:      %.6f EUR\n", totalCost)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d items failed", failureCount)
	}
	return nil
}

// sanitizeFilename turns an item id into a safe file name
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			return r
		case unicode.IsSpace(r):
			return '-'
		default:
			return '_'
		}
	}, strings.TrimSpace(s))

	s = strings.Trim(s, ".")
	if s == "" {
		s = "item"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
