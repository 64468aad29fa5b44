package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/agora/internal/model"
)

// Renderer writes analyze responses as JSON or as a Markdown digest
type Renderer struct {
	includeFooter bool
	locale        string
}

// NewRenderer creates a renderer. Markdown headings follow locale (de or en).
func NewRenderer(includeFooter bool, locale string) *Renderer {
	return &Renderer{includeFooter: includeFooter, locale: locale}
}

// JSON writes resp as indented JSON
func (r *Renderer) JSON(w io.Writer, resp *model.AnalyzeResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// Markdown writes a human-readable digest of resp
func (r *Renderer) Markdown(w io.Writer, resp *model.AnalyzeResponse) error {
	var b strings.Builder
	t := r.labels()

	fmt.Fprintf(&b, "# %s\n\n", t.title)
	if resp.Report.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", resp.Report.Summary)
	}

	fmt.Fprintf(&b, "## %s (%d)\n\n", t.claims, len(resp.Claims))
	for _, c := range resp.Claims {
		fmt.Fprintf(&b, "- **%s** %s", c.ID, c.Text)
		var tags []string
		if c.Domain != "" {
			tags = append(tags, c.Domain)
		}
		if c.Responsibility != "" {
			tags = append(tags, c.Responsibility)
		}
		if c.DebateFrame != nil {
			ap := c.DebateFrame.AntiPopulism
			tags = append(tags, fmt.Sprintf("%s %d/%d", ap.Status, ap.Passed, ap.Total))
		}
		if len(tags) > 0 {
			fmt.Fprintf(&b, " _(%s)_", strings.Join(tags, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(resp.Report.KeyConflicts) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t.conflicts)
		writeList(&b, resp.Report.KeyConflicts)
	}

	if len(resp.Questions) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t.questions)
		for _, q := range resp.Questions {
			fmt.Fprintf(&b, "- %s\n", q.Text)
		}
		b.WriteString("\n")
	}

	if len(resp.MissingPerspectives) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t.perspectives)
		writeList(&b, resp.MissingPerspectives)
	}

	if a := resp.EditorialAudit; a != nil {
		r.writeAudit(&b, a, t)
	}

	fmt.Fprintf(&b, "## %s\n\n", t.receipt)
	rr := resp.RunReceipt
	fmt.Fprintf(&b, "- id: `%s`\n", rr.ID)
	fmt.Fprintf(&b, "- receiptHash: `%s`\n", rr.ReceiptHash)
	fmt.Fprintf(&b, "- pipeline: %s, prompt: %s\n", rr.PipelineVersion, rr.PromptVersion)
	fmt.Fprintf(&b, "- provider: %s / %s\n", resp.Meta.Provider, resp.Meta.Model)
	b.WriteString("\n")

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n%s\n", t.footer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeAudit(b *strings.Builder, a *model.EditorialAudit, t labels) {
	fmt.Fprintf(b, "## %s\n\n", t.audit)
	fmt.Fprintf(b, "- %s: %.2f (%d)\n", t.balance, a.SourceBalance.BalanceScore, a.SourceBalance.Total)
	if len(a.SourceBalance.MissingVoices) > 0 {
		missing := make([]string, 0, len(a.SourceBalance.MissingVoices))
		for _, c := range a.SourceBalance.MissingVoices {
			missing = append(missing, string(c))
		}
		fmt.Fprintf(b, "- %s: %s\n", t.missingVoices, strings.Join(missing, ", "))
	}
	if len(a.VoiceCoverage.Missing) > 0 {
		fmt.Fprintf(b, "- %s: %s\n", t.missingRoles, strings.Join(a.VoiceCoverage.Missing, ", "))
	}
	if len(a.BurdenOfProof.UnmetClaims) > 0 {
		fmt.Fprintf(b, "- %s: %s\n", t.unmet, strings.Join(a.BurdenOfProof.UnmetClaims, ", "))
	}

	flags := make([]model.Flag, 0, len(a.AgencyOpacityFlags)+len(a.EuphemismTermFlags)+len(a.PowerStenographyFlags))
	flags = append(flags, a.AgencyOpacityFlags...)
	flags = append(flags, a.EuphemismTermFlags...)
	flags = append(flags, a.PowerStenographyFlags...)
	for _, f := range flags {
		fmt.Fprintf(b, "- [%s] %s: %q\n", f.Severity, f.Code, f.Excerpt)
	}

	for _, g := range a.ContextGaps {
		hint := g.Hint.De
		if r.locale == "en" {
			hint = g.Hint.En
		}
		fmt.Fprintf(b, "- [%s] %s: %s\n", g.Severity, g.Kind, hint)
	}
	fmt.Fprintf(b, "- %s: %.2f\n\n", t.confidence, a.Confidence)
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// WriteFiles renders resp to jsonPath and mdPath; an empty path is skipped
func (r *Renderer) WriteFiles(resp *model.AnalyzeResponse, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := writeFile(jsonPath, func(w io.Writer) error { return r.JSON(w, resp) }); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if mdPath != "" {
		if err := writeFile(mdPath, func(w io.Writer) error { return r.Markdown(w, resp) }); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type labels struct {
	title, claims, conflicts, questions, perspectives string
	audit, balance, missingVoices, missingRoles       string
	unmet, confidence, receipt, footer                string
}

func (r *Renderer) labels() labels {
	if r.locale == "en" {
		return labels{
			title:         "Debate analysis",
			claims:        "Statements",
			conflicts:     "Key conflicts",
			questions:     "Open questions",
			perspectives:  "Missing perspectives",
			audit:         "Editorial audit",
			balance:       "Source balance",
			missingVoices: "Missing voices",
			missingRoles:  "Missing roles",
			unmet:         "Claims without sources",
			confidence:    "Audit confidence",
			receipt:       "Run receipt",
			footer:        "Generated by agora. Heuristic findings are hints, not verdicts.",
		}
	}
	return labels{
		title:         "Debattenanalyse",
		claims:        "Aussagen",
		conflicts:     "Zentrale Konflikte",
		questions:     "Offene Fragen",
		perspectives:  "Fehlende Perspektiven",
		audit:         "Redaktioneller Audit",
		balance:       "Quellenbalance",
		missingVoices: "Fehlende Stimmen",
		missingRoles:  "Fehlende Rollen",
		unmet:         "Aussagen ohne Quellen",
		confidence:    "Audit-Konfidenz",
		receipt:       "Laufbeleg",
		footer:        "Erstellt mit agora. Heuristische Befunde sind Hinweise, keine Urteile.",
	}
}
