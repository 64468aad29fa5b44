package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/ppiankov/agora/internal/model"
	"github.com/ppiankov/agora/internal/taxonomy"
)

// The payload types below only describe the shape the provider is asked
// for. Decoding never uses them: the sanitizers accept far more.

type schemaClaim struct {
	ID             string   `json:"id" jsonschema:"description=Stable id such as c1"`
	Text           string   `json:"text" jsonschema:"description=One atomic checkable statement"`
	Title          string   `json:"title,omitempty"`
	Domain         string   `json:"domain,omitempty" jsonschema:"description=Policy field from the domain list"`
	Domains        []string `json:"domains,omitempty"`
	Responsibility string   `json:"responsibility,omitempty" jsonschema:"enum=EU,enum=Bund,enum=Land,enum=Kommune,enum=privat,enum=unbestimmt"`
	Importance     int      `json:"importance,omitempty" jsonschema:"minimum=1,maximum=5"`
	Stance         string   `json:"stance,omitempty" jsonschema:"enum=pro,enum=neutral,enum=contra"`
}

type schemaText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type schemaKnot struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type schemaConsequence struct {
	ID             string  `json:"id"`
	Scope          string  `json:"scope" jsonschema:"enum=local_short,enum=local_long,enum=national,enum=global,enum=systemic"`
	StatementIndex int     `json:"statementIndex" jsonschema:"minimum=0"`
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence,omitempty" jsonschema:"minimum=0,maximum=1"`
}

type schemaResponsibility struct {
	ID    string `json:"id"`
	Level string `json:"level" jsonschema:"enum=municipality,enum=district,enum=state,enum=federal,enum=eu,enum=ngo,enum=private"`
	Actor string `json:"actor,omitempty"`
	Text  string `json:"text"`
}

type schemaConsequences struct {
	Consequences     []schemaConsequence    `json:"consequences"`
	Responsibilities []schemaResponsibility `json:"responsibilities"`
}

type schemaStep struct {
	Level string `json:"level"`
	Actor string `json:"actor,omitempty"`
	Role  string `json:"role,omitempty"`
}

type schemaPath struct {
	ID          string       `json:"id"`
	StatementID string       `json:"statementId"`
	Steps       []schemaStep `json:"steps"`
}

type schemaEventuality struct {
	ID          string              `json:"id"`
	StatementID string              `json:"statementId"`
	Label       string              `json:"label"`
	Narrative   string              `json:"narrative"`
	Stance      string              `json:"stance,omitempty" jsonschema:"enum=pro,enum=neutral,enum=contra"`
	Likelihood  float64             `json:"likelihood,omitempty" jsonschema:"minimum=0,maximum=1"`
	Impact      float64             `json:"impact,omitempty" jsonschema:"minimum=0,maximum=1"`
	Children    []schemaEventuality `json:"children,omitempty"`
}

type schemaOptions struct {
	Pro     schemaEventuality  `json:"pro"`
	Contra  schemaEventuality  `json:"contra"`
	Neutral *schemaEventuality `json:"neutral,omitempty"`
}

type schemaDecisionTree struct {
	ID          string        `json:"id"`
	StatementID string        `json:"statementId"`
	Options     schemaOptions `json:"options"`
}

type schemaSource struct {
	URL       string `json:"url,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet,omitempty" jsonschema:"maxLength=280"`
}

type schemaReport struct {
	Summary      string   `json:"summary"`
	KeyConflicts []string `json:"keyConflicts"`
	Takeaways    []string `json:"takeaways"`
}

type schemaPayload struct {
	Claims                  []schemaClaim        `json:"claims" jsonschema:"minItems=1,maxItems=10"`
	Notes                   []schemaText         `json:"notes,omitempty"`
	Questions               []schemaText         `json:"questions,omitempty"`
	MissingPerspectives     []string             `json:"missingPerspectives,omitempty"`
	Knots                   []schemaKnot         `json:"knots,omitempty"`
	Consequences            *schemaConsequences  `json:"consequences,omitempty"`
	ResponsibilityPaths     []schemaPath         `json:"responsibilityPaths,omitempty"`
	Eventualities           []schemaEventuality  `json:"eventualities,omitempty"`
	DecisionTrees           []schemaDecisionTree `json:"decisionTrees,omitempty"`
	ParticipationCandidates []schemaText         `json:"participationCandidates,omitempty"`
	Sources                 []schemaSource       `json:"sources,omitempty"`
	Report                  *schemaReport        `json:"report,omitempty"`
}

// PayloadSchema returns the JSON schema embedded in the user prompt
func PayloadSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	data, err := json.Marshal(reflector.Reflect(&schemaPayload{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload schema: %w", err)
	}
	return data, nil
}

// PromptInput is what the prompts are built from
type PromptInput struct {
	Text         string
	Locale       string
	MaxClaims    int
	MinClaims    int
	Domains      []string
	ContextPacks []model.ContextPack
}

// SystemPrompt returns the fixed instructions for a locale
func SystemPrompt(locale string) string {
	if locale == "en" {
		return systemPromptEN
	}
	return systemPromptDE
}

const systemPromptDE = `Du bist ein neutrales Analysewerkzeug für demokratische Debatten.
Du zerlegst eingereichte Texte in prüfbare Einzelaussagen und beschreibst Folgen,
Zuständigkeiten und offene Fragen. Du bewertest nicht, ob eine Aussage wahr ist,
und du ergreifst keine Partei.

Regeln:
- Antworte ausschließlich mit einem JSON-Objekt nach dem vorgegebenen Schema, ohne Markdown.
- Jede Aussage ist atomar, überprüfbar und in eigenen Worten des Textes formuliert.
- Keine Personen angreifen, keine Gruppen als Sündenböcke darstellen.
- Quellen nur nennen, wenn sie im Text oder im Kontext vorkommen. Erfinde keine URLs.`

const systemPromptEN = `You are a neutral analysis tool for democratic debate.
You break submitted text into checkable atomic statements and describe consequences,
responsibilities and open questions. You never judge whether a statement is true
and you never take sides.

Rules:
- Answer with a single JSON object following the given schema, without Markdown.
- Every statement is atomic, checkable and phrased close to the submitted text.
- Never attack persons and never present groups as scapegoats.
- Only cite sources that appear in the text or the context. Never invent URLs.`

// UserPrompt returns the task prompt for one request
func UserPrompt(in PromptInput) (string, error) {
	schema, err := PayloadSchema()
	if err != nil {
		return "", err
	}

	en := in.Locale == "en"
	var b strings.Builder

	if en {
		fmt.Fprintf(&b, "Extract between %d and %d statements from the text below.\n", in.MinClaims, in.MaxClaims)
		b.WriteString("Write every text field in English.\n")
	} else {
		fmt.Fprintf(&b, "Extrahiere zwischen %d und %d Aussagen aus dem folgenden Text.\n", in.MinClaims, in.MaxClaims)
		b.WriteString("Schreibe alle Textfelder auf Deutsch.\n")
	}

	if len(in.Domains) > 0 {
		if en {
			fmt.Fprintf(&b, "Declared policy fields: %s.\n", strings.Join(in.Domains, ", "))
		} else {
			fmt.Fprintf(&b, "Angegebene Politikfelder: %s.\n", strings.Join(in.Domains, ", "))
		}
	}
	if en {
		fmt.Fprintf(&b, "Allowed domain values: %s.\n", strings.Join(taxonomy.Domains, ", "))
	} else {
		fmt.Fprintf(&b, "Erlaubte Werte für domain: %s.\n", strings.Join(taxonomy.Domains, ", "))
	}

	for _, pack := range in.ContextPacks {
		if en {
			fmt.Fprintf(&b, "\nContext %q:\n", pack.Title)
		} else {
			fmt.Fprintf(&b, "\nKontext %q:\n", pack.Title)
		}
		for i, s := range pack.Sources {
			if i == maxPromptSourcesPerPack {
				break
			}
			fmt.Fprintf(&b, "- %s", s.Title)
			if s.Publisher != "" {
				fmt.Fprintf(&b, " (%s)", s.Publisher)
			}
			if s.URL != "" {
				fmt.Fprintf(&b, " %s", s.URL)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nJSON schema:\n")
	b.Write(schema)
	b.WriteString("\n\n")

	b.WriteString("Text:\n<<<\n")
	b.WriteString(strings.TrimSpace(in.Text))
	b.WriteString("\n>>>\n")

	return b.String(), nil
}

const maxPromptSourcesPerPack = 8
