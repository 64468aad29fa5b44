package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/agora/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	timeout        time.Duration
	locale         string
	maxClaims      int
	domain         string
	domains        []string
	contextPackIDs []string
	noAudit        bool
	noFooter       bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text|-]",
	Short: "Analyze one proposal or statement",
	Long: `Analyze sends the text to the configured LLM providers and turns the answer
into claims, consequences, responsibilities, open questions and conflicts.
The result carries the editorial audit, the evidence graph and a run receipt.

Without an argument, or with "-", the text is read from stdin.
Without --json or --md the JSON result is written to stdout.

Example:
  agora analyze "Mehr Tempo-30-Zonen vor Schulen."
  echo "Mehr Tempo-30-Zonen vor Schulen." | agora analyze --locale en
  agora analyze "..." --domain verkehr --context-pack schulwege --md result.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")

	// Request flags
	analyzeCmd.Flags().StringVar(&locale, "locale", "", "output language: de or en (default from config)")
	analyzeCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "maximum number of claims, at most 10 (default from config)")
	analyzeCmd.Flags().StringVar(&domain, "domain", "", "primary policy domain")
	analyzeCmd.Flags().StringSliceVar(&domains, "domains", nil, "additional policy domains")
	analyzeCmd.Flags().StringSliceVar(&contextPackIDs, "context-pack", nil, "context pack ids to attach")
	analyzeCmd.Flags().BoolVar(&noAudit, "no-audit", false, "skip the editorial audit")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall analyze timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

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
	logger := newLogger(cfg)

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	resp, err := analyzer.Analyze(ctx, pipeline.Request{
		Text:           text,
		Locale:         locale,
		MaxClaims:      maxClaims,
		Domain:         domain,
		Domains:        domains,
		ContextPackIDs: contextPackIDs,
	})
	if err != nil {
		return describeError(err)
	}

	renderLocale := locale
	if renderLocale == "" {
		renderLocale = cfg.Pipeline.DefaultLocale
	}
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter, strings.ToLower(renderLocale))

	if outJSON == "" && outMD == "" {
		return renderer.JSON(cmd.OutOrStdout(), resp)
	}
	if err := renderer.WriteFiles(resp, outJSON, outMD); err != nil {
		return err
	}

	if cfg.Output.Verbose {
		for _, path := range []string{outJSON, outMD} {
			if path != "" {
				fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "✓ %d claims, receipt %s (%s/%s, %.6f EUR)\n",
		len(resp.Claims), resp.RunReceipt.ID, resp.Meta.Provider, resp.Meta.Model, resp.Meta.CostEUR)
	return nil
}

// readInput returns the text argument or, for "-" or no argument, stdin
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, int64(pipeline.MaxInputChars)*4+1))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// describeError adds operator hints to the typed analyze errors
func describeError(err error) error {
	var (
		cfgErr    *pipeline.ConfigurationError
		provErr   *pipeline.ProviderFailureError
		schemaErr *pipeline.SchemaMismatchError
	)
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Errorf("%w\nConfigure a provider in ~/.agora/config.yaml or set OPENAI_API_KEY / ANTHROPIC_API_KEY / OLLAMA_BASE_URL", err)
	case errors.As(err, &provErr):
		var details strings.Builder
		for _, a := range provErr.Failed {
			fmt.Fprintf(&details, "\n  %s/%s: %s", a.Provider, a.Model, a.ErrorKind)
		}
		return fmt.Errorf("%w%s\nThe request can be retried.", err, details.String())
	case errors.As(err, &schemaErr):
		return fmt.Errorf("%w\nThe provider answer could not be read; try another model", err)
	}
	return err
}
